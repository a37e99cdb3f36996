package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/catalog"
)

// Catalog is a read-mostly product table seeded from configuration. It stands in
// for the storefront's catalog service.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]*catalog.Product
}

func NewCatalog(products ...catalog.Product) *Catalog {
	c := &Catalog{products: make(map[string]*catalog.Product, len(products))}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

func (c *Catalog) Product(ctx context.Context, id string) (*catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[strings.TrimSpace(id)]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return cloneProduct(p), nil
}

// Put adds or replaces a product.
func (c *Catalog) Put(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[p.ID] = cloneProduct(&p)
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
