package modelstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carbocation/pgsinherit/pgs"
)

// Cache keeps recently used models from a backing Store in memory. Models are
// read-only, so a cached model is shared by every analysis that asks for it.
type Cache struct {
	Store Store

	models *lru.Cache[string, *pgs.Model]
}

func NewCache(store Store, size int) (*Cache, error) {
	models, err := lru.New[string, *pgs.Model](size)
	if err != nil {
		return nil, err
	}

	return &Cache{Store: store, models: models}, nil
}

func (c *Cache) Get(ctx context.Context, id string) (*pgs.Model, error) {
	if model, ok := c.models.Get(id); ok {
		return model, nil
	}

	model, err := c.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.models.Add(id, model)

	return model, nil
}

func (c *Cache) Put(ctx context.Context, model *pgs.Model) error {
	if err := c.Store.Put(ctx, model); err != nil {
		return err
	}
	c.models.Add(model.ID, model)

	return nil
}
