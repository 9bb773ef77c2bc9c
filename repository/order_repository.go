package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fildor/atelier-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Insert stores a new order; the id and timestamps are assigned on the way in
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.logger.Error("Failed to insert order", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// Get retrieves an order by its id
func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &order, nil
}

// List returns every order, newest first
func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return orders, nil
}

// ListByStatus returns the orders with the given status, newest first.
// When completedSince is set, only orders completed at or after it are returned.
func (r *OrderRepository) ListByStatus(ctx context.Context, status models.OrderStatus, completedSince *time.Time) ([]*models.Order, error) {
	query := r.db.WithContext(ctx).Where("status = ?", status)
	if completedSince != nil {
		query = query.Where("completed_at >= ?", completedSince.UTC())
	}

	var orders []*models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		r.logger.Error("Failed to list orders by status", zap.String("status", string(status)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return orders, nil
}

// Save writes the named columns of order back to the store.
// updated_at is always refreshed.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	selected := append([]string{"updated_at"}, columns...)

	result := r.db.WithContext(ctx).
		Model(order).
		Select(selected).
		Updates(order)
	if result.Error != nil {
		r.logger.Error("Failed to update order", zap.String("order_id", order.ID), zap.Error(result.Error))
		return fmt.Errorf("%w: %v", ErrDatabase, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an order permanently
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if result.Error != nil {
		r.logger.Error("Failed to delete order", zap.String("order_id", id), zap.Error(result.Error))
		return fmt.Errorf("%w: %v", ErrDatabase, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
