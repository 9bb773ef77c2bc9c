package services

import (
	"context"
	"time"

	"github.com/fildor/atelier-api/models"
)

// columnLabels are the headings shown above each board column
var columnLabels = map[models.OrderStatus]string{
	models.StatusPending:   "En Attente",
	models.StatusCutting:   "Coupe",
	models.StatusSewing:    "Couture",
	models.StatusFitting:   "Essayage",
	models.StatusCompleted: "Terminé",
}

// ColumnLabel returns the heading of a status column
func ColumnLabel(status models.OrderStatus) string {
	return columnLabels[status]
}

// BoardCard is an order as shown on the board, with its lateness flags
type BoardCard struct {
	*models.Order
	Late              bool `json:"late"`
	Overdue           bool `json:"overdue"`
	DaysUntilDelivery int  `json:"days_until_delivery"`
}

// BoardColumn holds the cards of one status
type BoardColumn struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Count  int                `json:"count"`
	Cards  []BoardCard        `json:"cards"`
}

// Board is the kanban view of the workshop
type Board struct {
	Columns      []BoardColumn `json:"columns"`
	Total        int           `json:"total"`
	LateCount    int           `json:"late_count"`
	OverdueCount int           `json:"overdue_count"`
	Today        models.Date   `json:"today"`
}

// Column returns the column for status
func (b *Board) Column(status models.OrderStatus) *BoardColumn {
	for i := range b.Columns {
		if b.Columns[i].Status == status {
			return &b.Columns[i]
		}
	}
	return nil
}

// BuildBoard lays enriched orders out in five columns. Completed orders older
// than the visibility window are dropped. The late and overdue badges count
// every visible order; the search and late-only filters only narrow the cards.
func BuildBoard(orders []*models.Order, opts ListOptions, now time.Time, policy Policy) *Board {
	today := Today(now, policy.Location)
	cutoff := now.Add(-policy.CompletedVisibility)

	board := &Board{Today: today, Columns: make([]BoardColumn, 0, len(models.OrderStatuses))}
	byStatus := make(map[models.OrderStatus]*BoardColumn, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		board.Columns = append(board.Columns, BoardColumn{
			Status: status,
			Label:  columnLabels[status],
			Cards:  []BoardCard{},
		})
	}
	for i := range board.Columns {
		byStatus[board.Columns[i].Status] = &board.Columns[i]
	}

	visible := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == models.StatusCompleted && (o.CompletedAt == nil || o.CompletedAt.Before(cutoff)) {
			continue
		}
		if byStatus[o.Status] == nil {
			continue
		}
		visible = append(visible, o)
		if IsLate(o, today, policy.LateWindowDays) {
			board.LateCount++
		}
		if IsOverdue(o, today) {
			board.OverdueCount++
		}
	}

	for _, o := range FilterOrders(visible, opts, today, policy.LateWindowDays) {
		column := byStatus[o.Status]
		column.Cards = append(column.Cards, BoardCard{
			Order:             o,
			Late:              IsLate(o, today, policy.LateWindowDays),
			Overdue:           IsOverdue(o, today),
			DaysUntilDelivery: o.DeliveryDate.DaysUntil(today),
		})
		column.Count++
		board.Total++
	}
	return board
}

// KanbanService serves the board and handles drag-and-drop moves
type KanbanService struct {
	orders *OrderService
}

// NewKanbanService creates the board service
func NewKanbanService(orders *OrderService) *KanbanService {
	return &KanbanService{orders: orders}
}

// Load reads every order from the store and builds the board
func (k *KanbanService) Load(ctx context.Context, opts ListOptions) (*Board, error) {
	orders, err := k.orders.orders.List(ctx)
	if err != nil {
		return nil, storeError(err, "order not found")
	}
	if err := k.orders.enricher.Enrich(ctx, orders); err != nil {
		return nil, err
	}
	return BuildBoard(orders, opts, k.orders.now(), k.orders.policy), nil
}

// Drop moves a card to the target column and returns the freshly reloaded board.
// Dropping a card on its own column changes nothing. On failure nothing is
// persisted and the error is returned so the caller keeps its current board.
func (k *KanbanService) Drop(ctx context.Context, actor Actor, orderID, target string, opts ListOptions) (*Board, error) {
	status, ok := models.ParseOrderStatus(target)
	if !ok {
		return nil, newError(ErrInvalidStatus, "unknown status %q", target)
	}

	order, err := k.orders.orders.Get(ctx, orderID)
	if err != nil {
		return nil, storeError(err, "order not found")
	}

	if order.Status != status {
		if _, err := k.orders.SetStatus(ctx, actor, orderID, string(status)); err != nil {
			return nil, err
		}
	}
	return k.Load(ctx, opts)
}
