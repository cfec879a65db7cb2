package cache

import (
	"context"
	"sync"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
	"github.com/amalieborg/bridal-crm/internal/model"
	"github.com/amalieborg/bridal-crm/internal/store"
)

// CustomerCache is an ordered in-memory mirror of the remote customers
// table, updated optimistically after each successful mutation. The remote
// store stays the source of truth; the cache is advisory.
//
// Every full replacement (Refresh, Search) carries a generation number; a
// response is applied only while its generation is still the newest issued,
// so a slow refresh can never overwrite a newer search result.
type CustomerCache struct {
	store store.Store

	mu         sync.RWMutex
	customers  []model.Customer
	loading    bool
	searching  bool
	lastError  string
	generation uint64
}

// NewCustomerCache builds an empty cache over s.
func NewCustomerCache(s store.Store) *CustomerCache {
	return &CustomerCache{store: s, customers: make([]model.Customer, 0)}
}

// Customers returns a snapshot of the current sequence, newest first.
func (c *CustomerCache) Customers() []model.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make([]model.Customer, len(c.customers))
	copy(snapshot, c.customers)
	return snapshot
}

// Get returns the cached customer with the given id.
func (c *CustomerCache) Get(id string) (model.Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cust := range c.customers {
		if cust.ID == id {
			return cust, true
		}
	}
	return model.Customer{}, false
}

// Loading reports whether a full reload is in flight.
func (c *CustomerCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Searching reports whether a search request is in flight.
func (c *CustomerCache) Searching() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searching
}

// Err returns the last operation's user-facing failure message, or "".
func (c *CustomerCache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Refresh replaces the entire sequence with the store's list. On failure the
// previous sequence is left untouched and the error flag is set.
func (c *CustomerCache) Refresh(ctx context.Context) error {
	gen := c.begin(&c.loading)
	rows, err := c.store.List(ctx)
	return c.finish(&c.loading, gen, rows, err)
}

// Search replaces the sequence with the sanitized search's results. It flips
// the searching flag for the duration and does not alter loading.
func (c *CustomerCache) Search(ctx context.Context, query string) error {
	gen := c.begin(&c.searching)
	rows, err := c.store.Search(ctx, query)
	return c.finish(&c.searching, gen, rows, err)
}

// Add inserts the customer and prepends the stored entity to the front of
// the sequence, consistent with descending creation-time order.
func (c *CustomerCache) Add(ctx context.Context, cust *model.Customer) (*model.Customer, error) {
	inserted, err := c.store.Insert(ctx, store.Encode(cust))
	if err != nil {
		c.setError(err)
		return nil, err
	}

	entity, err := store.Decode(inserted)
	if err != nil {
		c.setError(err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.customers = append([]model.Customer{*entity}, c.customers...)
	c.lastError = ""
	return entity, nil
}

// Edit updates the customer and replaces the matching entity in place,
// position unchanged.
func (c *CustomerCache) Edit(ctx context.Context, id string, cust *model.Customer) (*model.Customer, error) {
	updated, err := c.store.Update(ctx, id, store.Encode(cust))
	if err != nil {
		c.setError(err)
		return nil, err
	}

	entity, err := store.Decode(updated)
	if err != nil {
		c.setError(err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.customers {
		if c.customers[i].ID == id {
			c.customers[i] = *entity
			break
		}
	}
	c.lastError = ""
	return entity, nil
}

// Remove deletes the customer and drops the matching entity from the
// sequence.
func (c *CustomerCache) Remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.customers[:0]
	for _, cust := range c.customers {
		if cust.ID != id {
			kept = append(kept, cust)
		}
	}
	c.customers = kept
	c.lastError = ""
	return nil
}

func (c *CustomerCache) begin(flag *bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	*flag = true
	return c.generation
}

func (c *CustomerCache) finish(flag *bool, gen uint64, rows []store.Row, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	*flag = false

	if err != nil {
		c.lastError = apperrors.Sanitize(err)
		return err
	}

	// a newer replacement was issued while this one was in flight
	if gen != c.generation {
		return nil
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, r := range rows {
		entity, decodeErr := store.Decode(r)
		if decodeErr != nil {
			c.lastError = apperrors.Sanitize(decodeErr)
			return decodeErr
		}
		customers = append(customers, *entity)
	}

	c.customers = customers
	c.lastError = ""
	return nil
}

func (c *CustomerCache) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = apperrors.Sanitize(err)
}
