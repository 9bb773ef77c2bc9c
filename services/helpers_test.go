package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/tests/testdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixedNow is a Wednesday
var fixedNow = time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)

var (
	admin     = Actor{ID: 1, Role: models.RoleAdmin}
	couturier = Actor{ID: 2, Role: models.RoleCouturier}
)

// countingCatalog counts the batched lookups issued by the enricher
type countingCatalog struct {
	Catalog
	mu          sync.Mutex
	clientCalls int
	modelCalls  int
	fail        bool
}

func (c *countingCatalog) FindClientsByIDs(ctx context.Context, ids []string) ([]*models.Client, error) {
	c.mu.Lock()
	c.clientCalls++
	c.mu.Unlock()
	if c.fail {
		return nil, repository.ErrDatabase
	}
	return c.Catalog.FindClientsByIDs(ctx, ids)
}

func (c *countingCatalog) FindModelsByIDs(ctx context.Context, ids []string) ([]*models.Model, error) {
	c.mu.Lock()
	c.modelCalls++
	c.mu.Unlock()
	if c.fail {
		return nil, repository.ErrDatabase
	}
	return c.Catalog.FindModelsByIDs(ctx, ids)
}

func (c *countingCatalog) calls() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientCalls, c.modelCalls
}

// countingStore counts every call made to the order store
type countingStore struct {
	OrderStore
	mu    sync.Mutex
	calls int
	saves int
}

func (s *countingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Insert(ctx context.Context, order *models.Order) error {
	s.count()
	return s.OrderStore.Insert(ctx, order)
}

func (s *countingStore) Get(ctx context.Context, id string) (*models.Order, error) {
	s.count()
	return s.OrderStore.Get(ctx, id)
}

func (s *countingStore) List(ctx context.Context) ([]*models.Order, error) {
	s.count()
	return s.OrderStore.List(ctx)
}

func (s *countingStore) ListByStatus(ctx context.Context, status models.OrderStatus, since *time.Time) ([]*models.Order, error) {
	s.count()
	return s.OrderStore.ListByStatus(ctx, status, since)
}

func (s *countingStore) Save(ctx context.Context, order *models.Order, columns ...string) error {
	s.count()
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.OrderStore.Save(ctx, order, columns...)
}

func (s *countingStore) Delete(ctx context.Context, id string) error {
	s.count()
	return s.OrderStore.Delete(ctx, id)
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) recorded() []OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OrderEvent(nil), p.events...)
}

type fixture struct {
	db      *gorm.DB
	store   *countingStore
	catalog *countingCatalog
	blobs   *MockS3Service
	images  *BlobImageService
	events  *recordingPublisher
	service *OrderService
	kanban  *KanbanService
	wizard  *WizardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.New(t)
	logger := zap.NewNop()

	store := &countingStore{OrderStore: repository.NewOrderRepository(db, logger)}
	catalog := &countingCatalog{Catalog: repository.NewCatalogRepository(db, logger)}
	blobs := NewMockS3Service()
	images := NewImageService(blobs)
	images.now = func() time.Time { return fixedNow }
	events := &recordingPublisher{}

	service := NewOrderService(store, catalog, images, events, DefaultPolicy(), logger)
	service.SetClock(func() time.Time { return fixedNow })

	return &fixture{
		db:      db,
		store:   store,
		catalog: catalog,
		blobs:   blobs,
		images:  images,
		events:  events,
		service: service,
		kanban:  NewKanbanService(service),
		wizard:  NewWizardService(service, catalog, images, logger),
	}
}

// seedOrder stores an order for a fresh client and model
func (f *fixture) seedOrder(t *testing.T, order *models.Order) *models.Order {
	t.Helper()
	if order.ClientID == "" {
		order.ClientID = testdb.SeedClient(t, f.db, "Awa Ndiaye").ID
	}
	if order.ModelID == "" {
		order.ModelID = testdb.SeedModel(t, f.db, "Grand boubou", 35000).ID
	}
	return testdb.SeedOrder(t, f.db, order)
}

func ago(d time.Duration) *time.Time {
	t := fixedNow.Add(-d)
	return &t
}

func day(offset int) models.Date {
	return models.DateOf(fixedNow).AddDays(offset)
}

func jpeg(name string) *ImageUpload {
	return &ImageUpload{Filename: name, ContentType: "image/jpeg", Content: []byte("jpeg-bytes")}
}
