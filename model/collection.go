package model

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-browserstore/browserstore"
)

// Collection is an ordered set of models sharing one storage binding.
type Collection struct {
	mu      sync.RWMutex
	models  []*Model
	storage *browserstore.BrowserStorage
	// options are applied to every model the collection builds.
	options []Option
	proto   *Model
}

// NewCollection creates an empty collection persisted through b. The options configure
// the models it creates and fetches.
func NewCollection(b *browserstore.BrowserStorage, options ...Option) *Collection {
	return &Collection{
		storage: b,
		options: options,
		proto:   New(nil, options...),
	}
}

// Storage returns the collection's binding.
func (c *Collection) Storage() *browserstore.BrowserStorage {
	return c.storage
}

// IDs returns the identifiers of the members, in order.
func (c *Collection) IDs() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]any, 0, len(c.models))
	for _, m := range c.models {
		ids = append(ids, m.ID())
	}
	return ids
}

// Len returns the number of members.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Models returns a copy of the member list.
func (c *Collection) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Model(nil), c.models...)
}

// At returns the member at position i.
func (c *Collection) At(i int) *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.models) {
		return nil
	}
	return c.models[i]
}

// Get returns the member with identifier id, comparing identifiers by their text.
func (c *Collection) Get(id any) *Model {
	want := browserstore.IDString(id)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if mid := m.ID(); mid != nil && browserstore.IDString(mid) == want {
			return m
		}
	}
	return nil
}

// Add makes models members of the collection without saving them.
func (c *Collection) Add(models ...*Model) {
	for _, m := range models {
		m.setOwner(c)
		c.add(m)
	}
}

// Create builds a model from attrs, adds it to the collection and saves it. With
// opts.Wait the model joins the collection only once saved.
func (c *Collection) Create(ctx context.Context, attrs browserstore.Record, opts *browserstore.Options) (*Model, *browserstore.Request) {
	m := New(attrs, c.options...)
	m.setOwner(c)

	o := copyOptions(opts)
	if o.Wait {
		success := o.Success
		o.Success = func(result any, so *browserstore.Options) {
			c.add(m)
			if success != nil {
				success(result, so)
			}
		}
	} else {
		c.add(m)
	}
	return m, m.Save(ctx, nil, o)
}

// Fetch merges the stored records into the collection: known identifiers update their
// model, new ones are appended, and members missing from the store are dropped.
func (c *Collection) Fetch(ctx context.Context, opts *browserstore.Options) *browserstore.Request {
	o := copyOptions(opts)
	success := o.Success
	o.Success = func(result any, so *browserstore.Options) {
		if records, ok := result.([]browserstore.Record); ok {
			c.set(records)
		}
		if success != nil {
			success(result, so)
		}
	}
	return browserstore.Sync(ctx, browserstore.MethodRead, handle{c}, o, c.proto.fallback)
}

func (c *Collection) set(records []browserstore.Record) {
	idAttr := c.proto.IDAttribute()
	fetched := make([]*Model, 0, len(records))
	for _, r := range records {
		if m := c.Get(r[idAttr]); m != nil {
			m.Set(r)
			fetched = append(fetched, m)
			continue
		}
		m := New(r, c.options...)
		m.setOwner(c)
		fetched = append(fetched, m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = fetched
}

func (c *Collection) add(m *Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.models {
		if existing == m {
			return
		}
	}
	c.models = append(c.models, m)
}

func (c *Collection) remove(m *Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.models {
		if existing == m {
			c.models = append(c.models[:i], c.models[i+1:]...)
			return
		}
	}
}

// handle presents a whole collection to the sync layer, where an identifier-less read
// means every record.
type handle struct {
	c *Collection
}

func (h handle) ID() any { return nil }
func (h handle) IDAttribute() string { return h.c.proto.IDAttribute() }
func (h handle) SetID(string) {}
func (h handle) ToJSON() browserstore.Record { return browserstore.Record{} }
func (h handle) Collection() browserstore.Collection { return h.c }
func (h handle) Storage() *browserstore.BrowserStorage { return nil }
