package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fildor/atelier-api/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Wizard steps, in order
const (
	StepClient  = 1
	StepModel   = 2
	StepFabric  = 3
	StepPayment = 4
)

// DefaultDraftTTL is how long an untouched draft is kept
const DefaultDraftTTL = 24 * time.Hour

// MaxDraftsPerOwner caps the live drafts of one actor. Starting another one
// discards that actor's least recently touched draft.
const MaxDraftsPerOwner = 5

// OrderDraft is an order being assembled step by step. Nothing is persisted until Submit.
type OrderDraft struct {
	ID      string `json:"id"`
	OwnerID uint   `json:"owner_id"`
	Step    int    `json:"step"`

	Client *models.Client `json:"client"`
	Model  *models.Model  `json:"model"`

	FabricPhoto          *ImageUpload `json:"-"`
	ClientReferencePhoto *ImageUpload `json:"-"`
	HasFabricPhoto       bool         `json:"has_fabric_photo"`
	HasReferencePhoto    bool         `json:"has_client_reference_photo"`
	FabricMeters         string       `json:"fabric_meters"`
	SuppliesFromStock    []string     `json:"supplies_from_stock"`
	SketchRequested      bool         `json:"sketch_requested"`

	DiscountPercent float64              `json:"discount_percent"`
	Advance         float64              `json:"advance"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	DeliveryDate    models.Date          `json:"delivery_date"`
	Quote           PriceBreakdown       `json:"quote"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FabricInput is what the fabric step collects. A nil photo keeps the current one.
type FabricInput struct {
	FabricPhoto          *ImageUpload
	ClientReferencePhoto *ImageUpload
	FabricMeters         string
	SuppliesFromStock    []string
	SketchRequested      bool
}

// PaymentInput is what the payment step collects
type PaymentInput struct {
	DiscountPercent float64              `json:"discount_percent"`
	Advance         float64              `json:"advance"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	DeliveryDate    models.Date          `json:"delivery_date"`
}

// WizardService keeps in-progress drafts in memory and turns a finished draft
// into exactly one order
type WizardService struct {
	orders  *OrderService
	catalog Catalog
	images  ImageService
	logger  *zap.Logger
	ttl     time.Duration

	mu     sync.Mutex
	drafts map[string]*OrderDraft
}

// NewWizardService creates the wizard
func NewWizardService(orders *OrderService, catalog Catalog, images ImageService, logger *zap.Logger) *WizardService {
	return &WizardService{
		orders:  orders,
		catalog: catalog,
		images:  images,
		logger:  logger,
		ttl:     DefaultDraftTTL,
		drafts:  make(map[string]*OrderDraft),
	}
}

// Start opens a new empty draft owned by actor
func (w *WizardService) Start(actor Actor) *OrderDraft {
	now := w.orders.now().UTC()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(now)
	w.evictOldestLocked(actor.ID)

	draft := &OrderDraft{
		ID:                uuid.NewString(),
		OwnerID:           actor.ID,
		Step:              StepClient,
		SuppliesFromStock: []string{},
		PaymentMethod:     models.PaymentCash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	w.drafts[draft.ID] = draft
	return draft.snapshot()
}

// Get returns a copy of the draft
func (w *WizardService) Get(actor Actor, id string) (*OrderDraft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, err := w.lookupLocked(actor, id)
	if err != nil {
		return nil, err
	}
	return draft.snapshot(), nil
}

// searchLimit caps the picker lists of the client and model steps
const searchLimit = 20

// SearchClients lists the clients matching q by name or nickname for the client step
func (w *WizardService) SearchClients(ctx context.Context, q string) ([]*models.Client, error) {
	clients, err := w.catalog.SearchClients(ctx, strings.TrimSpace(q), searchLimit)
	if err != nil {
		return nil, storeError(err, "client not found")
	}
	return clients, nil
}

// SearchModels lists the catalogue models matching q for the model step
func (w *WizardService) SearchModels(ctx context.Context, q string) ([]*models.Model, error) {
	items, err := w.catalog.SearchModels(ctx, strings.TrimSpace(q), searchLimit)
	if err != nil {
		return nil, storeError(err, "model not found")
	}
	return items, nil
}

// SelectClient completes the client step
func (w *WizardService) SelectClient(ctx context.Context, actor Actor, id, clientID string) (*OrderDraft, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, validationError("select a client to continue")
	}
	if _, err := w.Get(actor, id); err != nil {
		return nil, err
	}

	client, err := w.catalog.GetClient(ctx, clientID)
	if err != nil {
		return nil, storeError(err, "client not found")
	}

	return w.mutate(actor, id, StepClient, func(d *OrderDraft) error {
		d.Client = client
		d.Step = maxStep(d.Step, StepModel)
		return nil
	})
}

// SelectModel completes the model step
func (w *WizardService) SelectModel(ctx context.Context, actor Actor, id, modelID string) (*OrderDraft, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, validationError("select a model to continue")
	}
	if _, err := w.Get(actor, id); err != nil {
		return nil, err
	}

	model, err := w.catalog.GetModel(ctx, modelID)
	if err != nil {
		return nil, storeError(err, "model not found")
	}

	return w.mutate(actor, id, StepModel, func(d *OrderDraft) error {
		d.Model = model
		d.Step = maxStep(d.Step, StepFabric)
		w.requote(actor, d)
		return nil
	})
}

// SetFabric completes the fabric step. The fabric photo is only required at submit.
func (w *WizardService) SetFabric(actor Actor, id string, in FabricInput) (*OrderDraft, error) {
	return w.mutate(actor, id, StepFabric, func(d *OrderDraft) error {
		if in.FabricPhoto != nil {
			d.FabricPhoto = in.FabricPhoto
		}
		if in.ClientReferencePhoto != nil {
			d.ClientReferencePhoto = in.ClientReferencePhoto
		}
		d.HasFabricPhoto = d.FabricPhoto != nil
		d.HasReferencePhoto = d.ClientReferencePhoto != nil
		d.FabricMeters = strings.TrimSpace(in.FabricMeters)
		d.SuppliesFromStock = normalizeSupplies(in.SuppliesFromStock)
		d.SketchRequested = in.SketchRequested
		d.Step = maxStep(d.Step, StepPayment)
		w.requote(actor, d)
		return nil
	})
}

// SetPayment records the payment terms and prices the draft
func (w *WizardService) SetPayment(actor Actor, id string, in PaymentInput) (*OrderDraft, error) {
	if in.DeliveryDate.IsZero() {
		return nil, validationError("a delivery date is required")
	}
	if in.DeliveryDate.Before(w.orders.Today()) {
		return nil, validationError("the delivery date cannot be in the past")
	}
	if in.Advance < 0 {
		return nil, validationError("advance must not be negative")
	}
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	if !method.IsValid() {
		return nil, validationError("payment method must be cash or wave")
	}

	return w.mutate(actor, id, StepPayment, func(d *OrderDraft) error {
		d.DiscountPercent = in.DiscountPercent
		if !actor.IsPrivileged() {
			d.DiscountPercent = 0
		}
		d.Advance = in.Advance
		d.PaymentMethod = method
		d.DeliveryDate = in.DeliveryDate
		w.requote(actor, d)
		return nil
	})
}

// Back returns to the previous step. Collected data is kept.
func (w *WizardService) Back(actor Actor, id string) (*OrderDraft, error) {
	return w.mutate(actor, id, StepClient, func(d *OrderDraft) error {
		if d.Step == StepClient {
			return newError(ErrInvalidStep, "already at the first step")
		}
		d.Step--
		return nil
	})
}

// Cancel discards the draft
func (w *WizardService) Cancel(actor Actor, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.lookupLocked(actor, id); err != nil {
		return err
	}
	delete(w.drafts, id)
	return nil
}

// Submit validates the whole draft and creates the order. Validation failures
// touch nothing and keep the draft. Once the order row exists, photo uploads
// are best-effort: a failed upload leaves that image empty on the order.
func (w *WizardService) Submit(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	draft, quote, err := w.claim(actor, id)
	if err != nil {
		return nil, err
	}

	order, err := w.orders.Create(ctx, actor, OrderInput{
		ClientID:          draft.Client.ID,
		ModelID:           draft.Model.ID,
		FabricMeters:      emptyToNil(draft.FabricMeters),
		SuppliesFromStock: draft.SuppliesFromStock,
		TotalPrice:        quote.Total,
		Advance:           draft.Advance,
		PaymentMethod:     draft.PaymentMethod,
		DeliveryDate:      draft.DeliveryDate,
	})
	if err != nil {
		w.restore(draft)
		return nil, err
	}

	urls := make(map[models.ImageKind]string, 2)
	for kind, photo := range map[models.ImageKind]*ImageUpload{
		models.ImageFabric:          draft.FabricPhoto,
		models.ImageClientReference: draft.ClientReferencePhoto,
	} {
		if photo == nil {
			continue
		}
		url, err := w.images.UploadOrderImage(ctx, order.ID, kind, photo)
		if err != nil {
			w.logger.Warn("Order image upload failed",
				zap.String("order_id", order.ID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}
		urls[kind] = url
	}

	if len(urls) == 0 {
		return order, nil
	}

	updated, err := w.orders.AttachImages(ctx, actor, order.ID, urls)
	if err != nil {
		w.logger.Warn("Failed to attach image URLs to order",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return order, nil
	}
	return updated, nil
}

// claim validates the draft and takes it out of the store so a second submit
// cannot create a duplicate order
func (w *WizardService) claim(actor Actor, id string) (*OrderDraft, PriceBreakdown, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, err := w.lookupLocked(actor, id)
	if err != nil {
		return nil, PriceBreakdown{}, err
	}
	if err := validateDraft(draft); err != nil {
		return nil, PriceBreakdown{}, err
	}
	if draft.Step != StepPayment {
		return nil, PriceBreakdown{}, newError(ErrInvalidStep, "complete step %d before submitting", draft.Step)
	}
	if draft.DeliveryDate.Before(w.orders.Today()) {
		return nil, PriceBreakdown{}, validationError("the delivery date %s is in the past", draft.DeliveryDate)
	}

	quote := w.orders.pricing.Quote(actor, PriceInput{
		BasePrice:       draft.Model.BasePrice,
		ExtrasCount:     len(draft.SuppliesFromStock),
		DiscountPercent: draft.DiscountPercent,
		Advance:         draft.Advance,
	})
	if quote.Overpaid {
		return nil, PriceBreakdown{}, validationError("advance (%.0f) exceeds the total price (%.0f)", draft.Advance, quote.Total)
	}

	delete(w.drafts, id)
	return draft, quote, nil
}

func (w *WizardService) restore(draft *OrderDraft) {
	w.mu.Lock()
	w.drafts[draft.ID] = draft
	w.mu.Unlock()
}

func validateDraft(d *OrderDraft) error {
	switch {
	case d.Client == nil:
		return validationError("select a client before submitting")
	case d.Model == nil:
		return validationError("select a model before submitting")
	case d.DeliveryDate.IsZero():
		return validationError("a delivery date is required")
	case d.FabricPhoto == nil:
		return validationError("a fabric photo is required")
	}
	return nil
}

// Count returns the number of live drafts
func (w *WizardService) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(w.orders.now().UTC())
	return len(w.drafts)
}

// mutate runs fn on the stored draft once the draft has reached minStep
func (w *WizardService) mutate(actor Actor, id string, minStep int, fn func(d *OrderDraft) error) (*OrderDraft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, err := w.lookupLocked(actor, id)
	if err != nil {
		return nil, err
	}
	if draft.Step < minStep {
		return nil, newError(ErrInvalidStep, "complete step %d before step %d", draft.Step, minStep)
	}

	working := draft.snapshot()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = w.orders.now().UTC()
	w.drafts[id] = working
	return working.snapshot(), nil
}

func (w *WizardService) lookupLocked(actor Actor, id string) (*OrderDraft, error) {
	draft, ok := w.drafts[id]
	if !ok || draft.OwnerID != actor.ID {
		return nil, newError(ErrDraftNotFound, "draft not found")
	}
	if w.orders.now().UTC().Sub(draft.UpdatedAt) > w.ttl {
		delete(w.drafts, id)
		return nil, newError(ErrDraftNotFound, "draft expired")
	}
	return draft, nil
}

func (w *WizardService) evictOldestLocked(ownerID uint) {
	var oldest *OrderDraft
	owned := 0
	for _, d := range w.drafts {
		if d.OwnerID != ownerID {
			continue
		}
		owned++
		if oldest == nil || d.UpdatedAt.Before(oldest.UpdatedAt) {
			oldest = d
		}
	}
	if owned < MaxDraftsPerOwner || oldest == nil {
		return
	}
	delete(w.drafts, oldest.ID)
	w.logger.Info("Discarded oldest order draft", zap.String("draft_id", oldest.ID), zap.Uint("owner_id", ownerID))
}

func (w *WizardService) pruneLocked(now time.Time) {
	for id, d := range w.drafts {
		if now.Sub(d.UpdatedAt) > w.ttl {
			delete(w.drafts, id)
		}
	}
}

func (w *WizardService) requote(actor Actor, d *OrderDraft) {
	if d.Model == nil {
		d.Quote = PriceBreakdown{}
		return
	}
	d.Quote = w.orders.pricing.Quote(actor, PriceInput{
		BasePrice:       d.Model.BasePrice,
		ExtrasCount:     len(d.SuppliesFromStock),
		DiscountPercent: d.DiscountPercent,
		Advance:         d.Advance,
	})
}

// snapshot copies the draft so callers never share state with the stored one
func (d *OrderDraft) snapshot() *OrderDraft {
	c := *d
	c.SuppliesFromStock = append([]string(nil), d.SuppliesFromStock...)
	if c.SuppliesFromStock == nil {
		c.SuppliesFromStock = []string{}
	}
	return &c
}

func maxStep(a, b int) int {
	if a > b {
		return a
	}
	return b
}
