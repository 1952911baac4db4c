// Package model is a small host framework for the browserstore adapter: attribute maps
// with defaults, grouped into ordered collections, saved and fetched through a sync strategy.
package model

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-browserstore/browserstore"
)

// DefaultIDAttribute is the attribute holding a model's identifier unless configured otherwise.
const DefaultIDAttribute = "id"

// Model is a set of attributes persisted through a sync strategy.
type Model struct {
	mu          sync.RWMutex
	attrs       browserstore.Record
	idAttribute string
	collection  *Collection
	storage     *browserstore.BrowserStorage
	fallback    browserstore.SyncFunc
	defaults    browserstore.Record
}

// Option configures a Model.
type Option func(m *Model)

// WithDefaults sets the attributes every new model starts with.
func WithDefaults(defaults browserstore.Record) Option {
	return func(m *Model) {
		m.defaults = defaults
	}
}

// WithIDAttribute renames the identifier attribute.
func WithIDAttribute(name string) Option {
	return func(m *Model) {
		m.idAttribute = name
	}
}

// WithStorage binds the model to its own storage, ahead of its collection's.
func WithStorage(b *browserstore.BrowserStorage) Option {
	return func(m *Model) {
		m.storage = b
	}
}

// WithFallback sets the strategy used when neither the model nor its collection has storage.
func WithFallback(f browserstore.SyncFunc) Option {
	return func(m *Model) {
		m.fallback = f
	}
}

// New creates a model from its defaults overlaid with attrs.
func New(attrs browserstore.Record, options ...Option) *Model {
	m := &Model{idAttribute: DefaultIDAttribute}
	for _, opt := range options {
		opt(m)
	}
	m.attrs = make(browserstore.Record, len(m.defaults)+len(attrs))
	for k, v := range m.defaults {
		m.attrs[k] = v
	}
	for k, v := range attrs {
		m.attrs[k] = v
	}
	return m
}

// ID returns the identifier attribute, nil when unset.
func (m *Model) ID() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[m.idAttribute]
}

// IDAttribute returns the name of the identifier attribute.
func (m *Model) IDAttribute() string {
	return m.idAttribute
}

// SetID assigns the identifier.
func (m *Model) SetID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[m.idAttribute] = id
}

// IsNew reports whether the model has never been given an identifier.
func (m *Model) IsNew() bool {
	switch id := m.ID().(type) {
	case nil:
		return true
	case string:
		return id == ""
	default:
		return false
	}
}

// ToJSON returns a copy of the attributes.
func (m *Model) ToJSON() browserstore.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(browserstore.Record, len(m.attrs))
	for k, v := range m.attrs {
		out[k] = v
	}
	return out
}

// Get returns one attribute.
func (m *Model) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[key]
}

// Set merges attrs into the model.
func (m *Model) Set(attrs browserstore.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range attrs {
		m.attrs[k] = v
	}
}

// Collection returns the owning collection, or nil.
func (m *Model) Collection() browserstore.Collection {
	c := m.owner()
	if c == nil {
		return nil
	}
	return c
}

func (m *Model) owner() *Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection
}

func (m *Model) setOwner(c *Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = c
}

// Storage returns the model's own binding, or nil.
func (m *Model) Storage() *browserstore.BrowserStorage {
	return m.storage
}

// Save sets attrs and persists the model: create when it is new, patch when opts.Patch
// is set, update otherwise. With opts.Wait the attributes are applied only once the
// store has accepted them.
func (m *Model) Save(ctx context.Context, attrs browserstore.Record, opts *browserstore.Options) *browserstore.Request {
	o := copyOptions(opts)

	if o.Wait {
		if o.Patch {
			o.Attrs = attrs
		} else if attrs != nil {
			merged := m.ToJSON()
			for k, v := range attrs {
				merged[k] = v
			}
			o.Attrs = merged
		}
	} else {
		m.Set(attrs)
		if o.Patch && o.Attrs == nil {
			o.Attrs = attrs
		}
	}

	method := browserstore.MethodUpdate
	switch {
	case m.IsNew():
		method = browserstore.MethodCreate
	case o.Patch:
		method = browserstore.MethodPatch
	}
	o.Success = m.applyOnSuccess(o.Success)
	return browserstore.Sync(ctx, method, m, o, m.fallback)
}

// Fetch replaces the attributes with the stored ones.
func (m *Model) Fetch(ctx context.Context, opts *browserstore.Options) *browserstore.Request {
	o := copyOptions(opts)
	o.Success = m.applyOnSuccess(o.Success)
	return browserstore.Sync(ctx, browserstore.MethodRead, m, o, m.fallback)
}

// Destroy removes the model from the store and from its collection. The model leaves the
// collection as soon as the operation is dispatched, or on success with opts.Wait.
func (m *Model) Destroy(ctx context.Context, opts *browserstore.Options) *browserstore.Request {
	o := copyOptions(opts)
	if m.IsNew() {
		m.detach()
		return browserstore.Resolved(nil, nil)
	}

	success := o.Success
	wait := o.Wait
	o.Success = func(result any, so *browserstore.Options) {
		if wait {
			m.detach()
		}
		if success != nil {
			success(result, so)
		}
	}
	req := browserstore.Sync(ctx, browserstore.MethodDelete, m, o, m.fallback)
	if !wait {
		m.detach()
	}
	return req
}

func (m *Model) detach() {
	if c := m.owner(); c != nil {
		c.remove(m)
	}
}

func (m *Model) applyOnSuccess(success func(any, *browserstore.Options)) func(any, *browserstore.Options) {
	return func(result any, o *browserstore.Options) {
		if r, ok := result.(browserstore.Record); ok {
			m.Set(r)
		}
		if success != nil {
			success(result, o)
		}
	}
}

func copyOptions(opts *browserstore.Options) *browserstore.Options {
	if opts == nil {
		return &browserstore.Options{}
	}
	o := *opts
	return &o
}
