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

// ErrDuplicate is returned when a unique column (auth0 id, email) already holds the value
var ErrDuplicate = errors.New("duplicate record")

// UserRepository handles database operations for staff users
type UserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// GetByAuth0ID finds the user owning the given token subject
func (r *UserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get user", zap.String("auth0_id", auth0ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return r.wrapWrite(err)
	}
	return nil
}

// Update applies the given column changes to user and reloads it
func (r *UserRepository) Update(ctx context.Context, user *models.User, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return r.wrapWrite(err)
	}
	if err := r.db.WithContext(ctx).First(user, user.ID).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// wrapWrite classifies write failures. The message check works with PostgreSQL, MySQL and SQLite.
func (r *UserRepository) wrapWrite(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
		return ErrDuplicate
	}
	r.logger.Error("Failed to write user", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrDatabase, err)
}
