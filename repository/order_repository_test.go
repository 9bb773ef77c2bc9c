package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/tests/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOrderRepositoryInsertAndGet(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())
	ctx := context.Background()

	meters := "3 yards"
	order := &models.Order{
		ClientID:          "client-1",
		ModelID:           "model-1",
		FabricMeters:      &meters,
		SuppliesFromStock: []string{"Fil", "Boutons"},
		TotalPrice:        39000,
		Advance:           5000,
		PaymentMethod:     models.PaymentWave,
		DeliveryDate:      models.NewDate(2026, 11, 2),
	}
	require.NoError(t, repo.Insert(ctx, order))
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())

	loaded, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, loaded.Status)
	assert.Equal(t, []string{"Fil", "Boutons"}, loaded.SuppliesFromStock)
	assert.Equal(t, models.NewDate(2026, 11, 2), loaded.DeliveryDate)
	assert.Equal(t, "3 yards", *loaded.FabricMeters)
	assert.Equal(t, models.PaymentWave, loaded.PaymentMethod)
	assert.Nil(t, loaded.CompletedAt)
}

func TestOrderRepositoryGetNotFound(t *testing.T) {
	repo := NewOrderRepository(testdb.New(t), zap.NewNop())

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepositoryListOrdersNewestFirst(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())
	now := time.Now().UTC()

	oldest := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", CreatedAt: now.Add(-3 * time.Hour)})
	newest := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", CreatedAt: now.Add(-1 * time.Hour)})
	middle := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", CreatedAt: now.Add(-2 * time.Hour)})

	orders, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
}

func TestOrderRepositoryListByStatus(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	recent := now.Add(-24 * time.Hour)
	stale := now.Add(-5 * 24 * time.Hour)

	testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", Status: models.StatusSewing})
	fresh := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", Status: models.StatusCompleted, CompletedAt: &recent})
	testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", Status: models.StatusCompleted, CompletedAt: &stale})

	sewing, err := repo.ListByStatus(ctx, models.StatusSewing, nil)
	require.NoError(t, err)
	assert.Len(t, sewing, 1)

	allCompleted, err := repo.ListByStatus(ctx, models.StatusCompleted, nil)
	require.NoError(t, err)
	assert.Len(t, allCompleted, 2)

	since := now.Add(-4 * 24 * time.Hour)
	visible, err := repo.ListByStatus(ctx, models.StatusCompleted, &since)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, fresh.ID, visible[0].ID)
}

func TestOrderRepositorySaveOnlyWritesSelectedColumns(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())
	ctx := context.Background()

	order := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m", TotalPrice: 20000})

	completedAt := time.Now().UTC()
	order.Status = models.StatusCompleted
	order.CompletedAt = &completedAt
	order.TotalPrice = 1 // not selected, must not be written
	require.NoError(t, repo.Save(ctx, order, "status", "completed_at"))

	loaded, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, loaded.Status)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, 20000.0, loaded.TotalPrice)

	// Selected zero values are written too
	loaded.Status = models.StatusFitting
	loaded.CompletedAt = nil
	require.NoError(t, repo.Save(ctx, loaded, "status", "completed_at"))

	reloaded, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFitting, reloaded.Status)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestOrderRepositorySaveMissingOrder(t *testing.T) {
	repo := NewOrderRepository(testdb.New(t), zap.NewNop())

	err := repo.Save(context.Background(), &models.Order{ID: "missing", Status: models.StatusSewing}, "status")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepositoryDelete(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())
	ctx := context.Background()

	order := testdb.SeedOrder(t, db, &models.Order{ClientID: "c", ModelID: "m"})
	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err := repo.Get(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, order.ID), ErrNotFound)
}

func TestOrderRepositoryWrapsDatabaseFailures(t *testing.T) {
	db := testdb.New(t)
	repo := NewOrderRepository(db, zap.NewNop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, ErrDatabase)
}
