package services

import (
	"context"

	"github.com/fildor/atelier-api/models"
)

// CatalogLookup resolves the clients and models referenced by orders in bulk
type CatalogLookup interface {
	FindClientsByIDs(ctx context.Context, ids []string) ([]*models.Client, error)
	FindModelsByIDs(ctx context.Context, ids []string) ([]*models.Model, error)
}

// Enricher attaches the referenced client and model to each order.
// A batch costs at most one client lookup and one model lookup regardless of its size.
type Enricher struct {
	catalog CatalogLookup
}

// NewEnricher creates an enricher over the given catalogue
func NewEnricher(catalog CatalogLookup) *Enricher {
	return &Enricher{catalog: catalog}
}

// Enrich resolves relations in place. Dangling references leave the relation nil.
func (e *Enricher) Enrich(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	clientIDs := distinct(orders, func(o *models.Order) string { return o.ClientID })
	modelIDs := distinct(orders, func(o *models.Order) string { return o.ModelID })

	clientsByID := make(map[string]*models.Client, len(clientIDs))
	if len(clientIDs) > 0 {
		clients, err := e.catalog.FindClientsByIDs(ctx, clientIDs)
		if err != nil {
			return storeError(err, "client not found")
		}
		for _, c := range clients {
			clientsByID[c.ID] = c
		}
	}

	modelsByID := make(map[string]*models.Model, len(modelIDs))
	if len(modelIDs) > 0 {
		items, err := e.catalog.FindModelsByIDs(ctx, modelIDs)
		if err != nil {
			return storeError(err, "model not found")
		}
		for _, m := range items {
			modelsByID[m.ID] = m
		}
	}

	for _, o := range orders {
		o.Client = clientsByID[o.ClientID]
		o.Model = modelsByID[o.ModelID]
	}
	return nil
}

// EnrichOne is Enrich for a single order
func (e *Enricher) EnrichOne(ctx context.Context, order *models.Order) error {
	return e.Enrich(ctx, []*models.Order{order})
}

func distinct(orders []*models.Order, key func(*models.Order) string) []string {
	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		id := key(o)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
