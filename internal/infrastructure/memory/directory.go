package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/identity"
)

// Directory holds buyer profiles keyed by user id.
type Directory struct {
	mu     sync.RWMutex
	buyers map[string]identity.Buyer
}

func NewDirectory(buyers ...identity.Buyer) *Directory {
	d := &Directory{buyers: make(map[string]identity.Buyer, len(buyers))}
	for _, b := range buyers {
		d.Put(b)
	}
	return d
}

// Buyer never fails for an unknown id; the receipt then carries the id alone.
func (d *Directory) Buyer(ctx context.Context, userID string) (identity.Buyer, error) {
	_ = ctx

	d.mu.RLock()
	defer d.mu.RUnlock()

	if b, ok := d.buyers[userID]; ok {
		return b, nil
	}
	return identity.Buyer{UserID: userID}, nil
}

func (d *Directory) Put(b identity.Buyer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buyers[b.UserID] = b
}
