package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fildor/atelier-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogRepository reads the clients and models that orders reference
type CatalogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, logger: logger}
}

// FindClientsByIDs loads every client whose id is in ids with a single query.
// Unknown ids are silently absent from the result.
func (r *CatalogRepository) FindClientsByIDs(ctx context.Context, ids []string) ([]*models.Client, error) {
	var clients []*models.Client
	if len(ids) == 0 {
		return clients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&clients).Error; err != nil {
		r.logger.Error("Failed to load clients", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return clients, nil
}

// FindModelsByIDs loads every catalogue model whose id is in ids with a single query
func (r *CatalogRepository) FindModelsByIDs(ctx context.Context, ids []string) ([]*models.Model, error) {
	var items []*models.Model
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		r.logger.Error("Failed to load models", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return items, nil
}

// GetClient retrieves a single client
func (r *CatalogRepository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, r.wrap(err, "client", id)
	}
	return &client, nil
}

// GetModel retrieves a single catalogue model
func (r *CatalogRepository) GetModel(ctx context.Context, id string) (*models.Model, error) {
	var item models.Model
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, r.wrap(err, "model", id)
	}
	return &item, nil
}

// SearchClients lists clients whose name or nickname contains q, case-insensitively.
// An empty q lists everyone.
func (r *CatalogRepository) SearchClients(ctx context.Context, q string, limit int) ([]*models.Client, error) {
	query := r.db.WithContext(ctx).Order("noms ASC").Limit(limit)
	if q = strings.TrimSpace(q); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(noms) LIKE ? OR LOWER(COALESCE(surnom, '')) LIKE ?", pattern, pattern)
	}

	var clients []*models.Client
	if err := query.Find(&clients).Error; err != nil {
		r.logger.Error("Failed to search clients", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return clients, nil
}

// SearchModels lists catalogue models whose name contains q, case-insensitively
func (r *CatalogRepository) SearchModels(ctx context.Context, q string, limit int) ([]*models.Model, error) {
	query := r.db.WithContext(ctx).Order("name ASC").Limit(limit)
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var items []*models.Model
	if err := query.Find(&items).Error; err != nil {
		r.logger.Error("Failed to search models", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return items, nil
}

func (r *CatalogRepository) wrap(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	r.logger.Error("Failed to get "+entity, zap.String("id", id), zap.Error(err))
	return fmt.Errorf("%w: %v", ErrDatabase, err)
}
