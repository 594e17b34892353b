package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// Catalog keeps recently resolved services in memory. Catalog rows are
// immutable after seeding, so cached entries never need invalidation.
type Catalog struct {
	next    repository.ServiceRepository
	entries *lru.Cache[int64, model.Service]
}

var _ repository.ServiceRepository = (*Catalog)(nil)

// NewCatalog wraps next with an LRU of the given size.
func NewCatalog(next repository.ServiceRepository, size int) (*Catalog, error) {
	entries, err := lru.New[int64, model.Service](size)
	if err != nil {
		return nil, err
	}
	return &Catalog{next: next, entries: entries}, nil
}

// List reads the full catalog from the store and refreshes cached entries.
func (c *Catalog) List(ctx context.Context) ([]model.Service, error) {
	services, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		c.entries.Add(svc.ID, svc)
	}
	return services, nil
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	if svc, ok := c.entries.Get(id); ok {
		return &svc, nil
	}
	svc, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.entries.Add(id, *svc)
	return svc, nil
}

// Len reports the number of cached services.
func (c *Catalog) Len() int {
	return c.entries.Len()
}
