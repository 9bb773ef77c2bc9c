package testdb

import (
	"testing"
	"time"

	"github.com/fildor/atelier-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a fresh in-memory SQLite database with every table migrated
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	// each new connection to :memory: would see an empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Model{}, &models.Order{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SeedClient inserts a client with the given name
func SeedClient(t *testing.T, db *gorm.DB, noms string) *models.Client {
	t.Helper()
	client := &models.Client{Noms: noms}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("Failed to seed client: %v", err)
	}
	return client
}

// SeedModel inserts a catalogue model with the given name and base price
func SeedModel(t *testing.T, db *gorm.DB, name string, basePrice float64) *models.Model {
	t.Helper()
	model := &models.Model{Name: name, BasePrice: basePrice}
	if err := db.Create(model).Error; err != nil {
		t.Fatalf("Failed to seed model: %v", err)
	}
	return model
}

// SeedUser inserts a staff user with the given role
func SeedUser(t *testing.T, db *gorm.DB, auth0ID, role string) *models.User {
	t.Helper()
	user := &models.User{
		Auth0ID: auth0ID,
		Name:    auth0ID,
		Email:   auth0ID + "@atelier.test",
		Role:    role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedOrder inserts order as-is, keeping any CreatedAt or CompletedAt the caller set
func SeedOrder(t *testing.T, db *gorm.DB, order *models.Order) *models.Order {
	t.Helper()
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCash
	}
	if order.DeliveryDate.IsZero() {
		order.DeliveryDate = models.DateOf(time.Now().UTC()).AddDays(7)
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return order
}
