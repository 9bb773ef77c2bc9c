package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fildor/atelier-api/config"
	"github.com/fildor/atelier-api/models"
	"go.uber.org/zap"
)

// OrderStore is the record store for orders
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	ListByStatus(ctx context.Context, status models.OrderStatus, completedSince *time.Time) ([]*models.Order, error)
	Save(ctx context.Context, order *models.Order, columns ...string) error
	Delete(ctx context.Context, id string) error
}

// Catalog is the read side of clients and models
type Catalog interface {
	CatalogLookup
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetModel(ctx context.Context, id string) (*models.Model, error)
	SearchClients(ctx context.Context, q string, limit int) ([]*models.Client, error)
	SearchModels(ctx context.Context, q string, limit int) ([]*models.Model, error)
}

// Policy holds the order lifecycle knobs
type Policy struct {
	ExtraUnitPrice      float64
	CompletedVisibility time.Duration
	LateWindowDays      int
	Location            *time.Location
}

// DefaultPolicy is the workshop's standard policy
func DefaultPolicy() Policy {
	return Policy{
		ExtraUnitPrice:      DefaultExtraUnitPrice,
		CompletedVisibility: 4 * 24 * time.Hour,
		LateWindowDays:      DefaultLateWindowDays,
		Location:            time.UTC,
	}
}

// PolicyFromConfig reads the policy from the application configuration
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		ExtraUnitPrice:      cfg.ExtraUnitPrice,
		CompletedVisibility: cfg.CompletedVisibility(),
		LateWindowDays:      cfg.LateWindowDays,
		Location:            cfg.Location(),
	}
}

// ListOptions narrows an order listing. Filters run in memory over the loaded set.
type ListOptions struct {
	Query    string
	LateOnly bool
}

// OrderInput is a fully assembled new order
type OrderInput struct {
	ClientID          string
	ModelID           string
	FabricMeters      *string
	SuppliesFromStock []string
	TotalPrice        float64
	Advance           float64
	PaymentMethod     models.PaymentMethod
	DeliveryDate      models.Date
}

// OrderPatch changes individual order fields; nil fields are left alone
type OrderPatch struct {
	ClientID                *string               `json:"client_id"`
	ModelID                 *string               `json:"model_id"`
	Status                  *string               `json:"status"`
	FabricMeters            *string               `json:"fabric_meters"`
	SuppliesFromStock       *[]string             `json:"supplies_from_stock"`
	TotalPrice              *float64              `json:"total_price"`
	Advance                 *float64              `json:"advance"`
	PaymentMethod           *models.PaymentMethod `json:"payment_method"`
	DeliveryDate            *models.Date          `json:"delivery_date"`
	FabricImageURL          *string               `json:"fabric_image_url"`
	ClientReferenceImageURL *string               `json:"client_reference_image_url"`
	SketchURL               *string               `json:"sketch_url"`
}

// OrderService implements the order lifecycle over the record store
type OrderService struct {
	orders   OrderStore
	catalog  Catalog
	enricher *Enricher
	images   ImageService
	events   EventPublisher
	pricing  PriceCalculator
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderService wires the order service
func NewOrderService(orders OrderStore, catalog Catalog, images ImageService, events EventPublisher, policy Policy, logger *zap.Logger) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &OrderService{
		orders:   orders,
		catalog:  catalog,
		enricher: NewEnricher(catalog),
		images:   images,
		events:   events,
		pricing:  NewPriceCalculator(policy.ExtraUnitPrice),
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source (primarily for testing)
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// Policy returns the lifecycle knobs in effect
func (s *OrderService) Policy() Policy {
	return s.policy
}

// Today is the current calendar day in the workshop's time zone
func (s *OrderService) Today() models.Date {
	return Today(s.now(), s.policy.Location)
}

// Pricing returns the price calculator
func (s *OrderService) Pricing() PriceCalculator {
	return s.pricing
}

// Create inserts a new pending order
func (s *OrderService) Create(ctx context.Context, actor Actor, in OrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		ClientID:          in.ClientID,
		ModelID:           in.ModelID,
		Status:            models.StatusPending,
		FabricMeters:      in.FabricMeters,
		SuppliesFromStock: normalizeSupplies(in.SuppliesFromStock),
		TotalPrice:        in.TotalPrice,
		Advance:           in.Advance,
		PaymentMethod:     in.PaymentMethod,
		DeliveryDate:      in.DeliveryDate,
		CreatedBy:         actor.idPtr(),
		UpdatedBy:         actor.idPtr(),
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, storeError(err, "order not found")
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.Uint("actor_id", actor.ID),
		zap.Float64("total_price", order.TotalPrice),
	)
	s.publish(ctx, actor, OrderEvent{Type: EventOrderCreated, OrderID: order.ID, Status: order.Status})

	if err := s.enricher.EnrichOne(ctx, order); err != nil {
		s.logger.Warn("Failed to enrich new order", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func validateOrderInput(in OrderInput) error {
	switch {
	case strings.TrimSpace(in.ClientID) == "":
		return validationError("a client is required")
	case strings.TrimSpace(in.ModelID) == "":
		return validationError("a model is required")
	case in.DeliveryDate.IsZero():
		return validationError("a delivery date is required")
	case !in.PaymentMethod.IsValid():
		return validationError("payment method must be cash or wave")
	}
	return validateAmounts(in.TotalPrice, in.Advance)
}

func validateAmounts(total, advance float64) error {
	if total < 0 {
		return validationError("total price must not be negative")
	}
	if advance < 0 {
		return validationError("advance must not be negative")
	}
	if advance > total {
		return validationError("advance (%.0f) exceeds the total price (%.0f)", advance, total)
	}
	return nil
}

// Get returns one enriched order
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "order not found")
	}
	if err := s.enricher.EnrichOne(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListAll returns every order, enriched, newest first
func (s *OrderService) ListAll(ctx context.Context, opts ListOptions) ([]*models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, storeError(err, "order not found")
	}
	if err := s.enricher.Enrich(ctx, orders); err != nil {
		return nil, err
	}
	return FilterOrders(orders, opts, s.Today(), s.policy.LateWindowDays), nil
}

// ListByStatus returns the orders in one board column, newest first.
// Completed orders are only listed while inside the visibility window.
func (s *OrderService) ListByStatus(ctx context.Context, status string, opts ListOptions) ([]*models.Order, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, newError(ErrInvalidStatus, "unknown status %q", status)
	}

	var completedSince *time.Time
	if target == models.StatusCompleted {
		since := s.now().UTC().Add(-s.policy.CompletedVisibility)
		completedSince = &since
	}

	orders, err := s.orders.ListByStatus(ctx, target, completedSince)
	if err != nil {
		return nil, storeError(err, "order not found")
	}
	if err := s.enricher.Enrich(ctx, orders); err != nil {
		return nil, err
	}
	return FilterOrders(orders, opts, s.Today(), s.policy.LateWindowDays), nil
}

// SetStatus moves an order to another column. Any status may follow any other.
// completed_at is stamped on the first move to completed and cleared on a move away.
func (s *OrderService) SetStatus(ctx context.Context, actor Actor, id, status string) (*models.Order, error) {
	target, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, newError(ErrInvalidStatus, "unknown status %q", status)
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "order not found")
	}

	previous := order.Status
	if previous != target {
		s.applyStatus(order, target)
		order.UpdatedBy = actor.idPtr()
		if err := s.orders.Save(ctx, order, "status", "completed_at", "updated_by"); err != nil {
			return nil, storeError(err, "order not found")
		}

		s.logger.Info("Order status changed",
			zap.String("order_id", order.ID),
			zap.String("from", string(previous)),
			zap.String("status", string(target)),
			zap.Uint("actor_id", actor.ID),
		)
		s.publish(ctx, actor, OrderEvent{
			Type:           EventOrderStatusChanged,
			OrderID:        order.ID,
			Status:         target,
			PreviousStatus: previous,
		})
	}

	if err := s.enricher.EnrichOne(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// applyStatus keeps completed_at non-nil exactly when the status is completed
func (s *OrderService) applyStatus(order *models.Order, target models.OrderStatus) {
	order.Status = target
	if target == models.StatusCompleted {
		if order.CompletedAt == nil {
			stamped := s.now().UTC()
			order.CompletedAt = &stamped
		}
		return
	}
	order.CompletedAt = nil
}

// Update applies a field-by-field patch. Changing the total price needs a
// privileged actor and the advance may never exceed the total.
func (s *OrderService) Update(ctx context.Context, actor Actor, id string, patch OrderPatch) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "order not found")
	}

	var columns []string
	previous := order.Status

	if patch.Status != nil {
		target, ok := models.ParseOrderStatus(*patch.Status)
		if !ok {
			return nil, newError(ErrInvalidStatus, "unknown status %q", *patch.Status)
		}
		if target != order.Status {
			s.applyStatus(order, target)
			columns = append(columns, "status", "completed_at")
		}
	}
	if patch.ClientID != nil && *patch.ClientID != order.ClientID {
		if _, err := s.catalog.GetClient(ctx, *patch.ClientID); err != nil {
			return nil, storeError(err, "client not found")
		}
		order.ClientID = *patch.ClientID
		columns = append(columns, "client_id")
	}
	if patch.ModelID != nil && *patch.ModelID != order.ModelID {
		if _, err := s.catalog.GetModel(ctx, *patch.ModelID); err != nil {
			return nil, storeError(err, "model not found")
		}
		order.ModelID = *patch.ModelID
		columns = append(columns, "model_id")
	}
	if patch.TotalPrice != nil && *patch.TotalPrice != order.TotalPrice {
		if !actor.IsPrivileged() {
			return nil, newError(ErrForbidden, "only administrators can change the price of an order")
		}
		order.TotalPrice = *patch.TotalPrice
		columns = append(columns, "total_price")
	}
	if patch.Advance != nil {
		order.Advance = *patch.Advance
		columns = append(columns, "advance")
	}
	if err := validateAmounts(order.TotalPrice, order.Advance); err != nil {
		return nil, err
	}
	if patch.PaymentMethod != nil {
		if !patch.PaymentMethod.IsValid() {
			return nil, validationError("payment method must be cash or wave")
		}
		order.PaymentMethod = *patch.PaymentMethod
		columns = append(columns, "payment_method")
	}
	if patch.DeliveryDate != nil {
		if patch.DeliveryDate.IsZero() {
			return nil, validationError("a delivery date is required")
		}
		order.DeliveryDate = *patch.DeliveryDate
		columns = append(columns, "delivery_date")
	}
	if patch.FabricMeters != nil {
		order.FabricMeters = emptyToNil(*patch.FabricMeters)
		columns = append(columns, "fabric_meters")
	}
	if patch.SuppliesFromStock != nil {
		order.SuppliesFromStock = normalizeSupplies(*patch.SuppliesFromStock)
		columns = append(columns, "supplies_from_stock")
	}
	for _, image := range []struct {
		kind   models.ImageKind
		value  *string
		field  **string
		column string
	}{
		{models.ImageFabric, patch.FabricImageURL, &order.FabricImageURL, "fabric_image_url"},
		{models.ImageClientReference, patch.ClientReferenceImageURL, &order.ClientReferenceImageURL, "client_reference_image_url"},
		{models.ImageSketch, patch.SketchURL, &order.SketchURL, "sketch_url"},
	} {
		if image.value == nil {
			continue
		}
		ref := emptyToNil(*image.value)
		if ref != nil && !s.images.BelongsToOrder(order.ID, *ref) {
			return nil, validationError("the %s image must be stored under this order", image.kind)
		}
		*image.field = ref
		columns = append(columns, image.column)
	}

	if len(columns) > 0 {
		order.UpdatedBy = actor.idPtr()
		columns = append(columns, "updated_by")
		if err := s.orders.Save(ctx, order, columns...); err != nil {
			return nil, storeError(err, "order not found")
		}
		s.logger.Info("Order updated", zap.String("order_id", order.ID), zap.Strings("columns", columns))

		if order.Status != previous {
			s.publish(ctx, actor, OrderEvent{
				Type:           EventOrderStatusChanged,
				OrderID:        order.ID,
				Status:         order.Status,
				PreviousStatus: previous,
			})
		}
	}

	if err := s.enricher.EnrichOne(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AttachImages records uploaded image URLs on an order
func (s *OrderService) AttachImages(ctx context.Context, actor Actor, id string, urls map[models.ImageKind]string) (*models.Order, error) {
	var patch OrderPatch
	for kind, url := range urls {
		u := url
		switch kind {
		case models.ImageFabric:
			patch.FabricImageURL = &u
		case models.ImageClientReference:
			patch.ClientReferenceImageURL = &u
		case models.ImageSketch:
			patch.SketchURL = &u
		}
	}
	return s.Update(ctx, actor, id, patch)
}

// ImageURL returns a time-limited read URL for one of the order's images
func (s *OrderService) ImageURL(ctx context.Context, id string, kind models.ImageKind) (string, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return "", storeError(err, "order not found")
	}
	ref := order.ImageURL(kind)
	if ref == nil || *ref == "" {
		return "", newError(ErrNotFound, "order has no %s image", kind)
	}
	if !s.images.BelongsToOrder(order.ID, *ref) {
		s.logger.Warn("Order image outside the order namespace",
			zap.String("order_id", order.ID),
			zap.String("image", *ref),
		)
		return "", newError(ErrNotFound, "order has no %s image", kind)
	}

	url, err := s.images.PresignedURL(ctx, *ref)
	if err != nil {
		var serviceErr *ServiceError
		if errors.As(err, &serviceErr) {
			return "", err
		}
		return "", &ServiceError{Kind: ErrStoreUnavailable, Message: "image storage is unavailable", Err: err}
	}
	return url, nil
}

// Delete removes an order for good. Attached images are removed first on a
// best-effort basis; a failed image delete never blocks the row delete.
func (s *OrderService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsPrivileged() {
		return newError(ErrForbidden, "only administrators can delete orders")
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return storeError(err, "order not found")
	}

	for _, ref := range order.ImageURLs() {
		if !s.images.BelongsToOrder(order.ID, ref) {
			s.logger.Warn("Skipping image outside the order namespace",
				zap.String("order_id", order.ID),
				zap.String("image", ref),
			)
			continue
		}
		if err := s.images.DeleteImage(ctx, ref); err != nil {
			s.logger.Warn("Failed to delete order image",
				zap.String("order_id", order.ID),
				zap.String("image", ref),
				zap.Error(err),
			)
		}
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return storeError(err, "order not found")
	}

	s.logger.Info("Order deleted", zap.String("order_id", id), zap.Uint("actor_id", actor.ID))
	s.publish(ctx, actor, OrderEvent{Type: EventOrderDeleted, OrderID: id, PreviousStatus: order.Status})
	return nil
}

// Deliveries groups unfinished orders by how soon they are due
func (s *OrderService) Deliveries(ctx context.Context) (*DeliveryTimeline, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, storeError(err, "order not found")
	}

	open := orders[:0]
	for _, o := range orders {
		if o.Status != models.StatusCompleted {
			open = append(open, o)
		}
	}
	if err := s.enricher.Enrich(ctx, open); err != nil {
		return nil, err
	}
	return BucketDeliveries(open, s.Today()), nil
}

// publish is best-effort: a broker failure is logged and never fails the operation
func (s *OrderService) publish(ctx context.Context, actor Actor, event OrderEvent) {
	event.ActorID = actor.idPtr()
	event.ActorRole = actor.Role
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

// FilterOrders applies the search and late-only filters to enriched orders
func FilterOrders(orders []*models.Order, opts ListOptions, today models.Date, lateWindow int) []*models.Order {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if query == "" && !opts.LateOnly {
		return orders
	}

	filtered := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		if query != "" && !matchesQuery(o, query) {
			continue
		}
		if opts.LateOnly && !IsLate(o, today, lateWindow) {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

// matchesQuery checks the client's display name and the model name; query is lower-case
func matchesQuery(o *models.Order, query string) bool {
	if o.Client != nil && strings.Contains(strings.ToLower(o.Client.DisplayName()), query) {
		return true
	}
	if o.Model != nil && strings.Contains(strings.ToLower(o.Model.Name), query) {
		return true
	}
	return false
}

func emptyToNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func normalizeSupplies(supplies []string) []string {
	seen := make(map[string]struct{}, len(supplies))
	out := make([]string, 0, len(supplies))
	for _, s := range supplies {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
