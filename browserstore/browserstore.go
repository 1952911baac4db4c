// Package browserstore persists models and collections to a local key-value store in
// place of a remote endpoint, keeping the success/error/complete sync contract.
//
// Each collection name owns one index entry, stored under the bare name, listing the
// physical keys of its records, and one entry per record under "<name>-<id>".
package browserstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-browserstore/codec"
	"github.com/jrsteele09/go-browserstore/identifier"
	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// State of a binding's backing store.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// BrowserStorage binds one collection name to one backing store. It is shared by
// every record operation for that name.
type BrowserStorage struct {
	name       string
	cfg        storage.Config
	serializer codec.Serializer
	ids        *identifier.Generator

	state   atomic.Int32
	ready   chan struct{}
	store   storage.Store
	initErr error

	// mu serialises the item and index writes of mutating operations.
	mu sync.Mutex
}

// Option configures a BrowserStorage.
type Option func(b *BrowserStorage)

// WithConfig supplies the store settings (directory, quota, ...). The kind passed to New wins.
func WithConfig(cfg storage.Config) Option {
	return func(b *BrowserStorage) {
		b.cfg.Merge(&cfg)
	}
}

// WithSerializer replaces the JSON serializer.
func WithSerializer(s codec.Serializer) Option {
	return func(b *BrowserStorage) {
		b.serializer = s
	}
}

// WithGenerator replaces the identifier generator used on create.
func WithGenerator(g *identifier.Generator) Option {
	return func(b *BrowserStorage) {
		b.ids = g
	}
}

// WithStore uses an already open store instead of opening one from the configuration.
func WithStore(s storage.Store) Option {
	return func(b *BrowserStorage) {
		b.store = s
	}
}

// New declares a storage binding for name on a store of the given kind. Configuration
// errors are returned immediately; the store itself is opened in the background and every
// operation waits for it.
func New(name string, kind storage.Kind, options ...Option) (*BrowserStorage, error) {
	if name == "" {
		return nil, ErrNoName
	}
	b := &BrowserStorage{
		name:       name,
		cfg:        storage.DefaultConfig(),
		serializer: codec.JSON,
		ready:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(b)
	}
	b.cfg.Kind = kind

	if b.store != nil {
		b.state.Store(int32(Ready))
		close(b.ready)
		return b, nil
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "browserstore.New")
	}
	b.state.Store(int32(Initializing))
	go b.init()
	return b, nil
}

func (b *BrowserStorage) init() {
	defer close(b.ready)
	s, err := storage.Open(b.cfg)
	if err != nil {
		log.Error().Err(err).Str("collection", b.name).Msg("browserstore: store initialisation failed")
		b.initErr = err
		b.state.Store(int32(Failed))
		return
	}
	b.store = s
	b.state.Store(int32(Ready))
}

// await blocks until the store is initialised.
func (b *BrowserStorage) await(ctx context.Context) error {
	select {
	case <-b.ready:
		return b.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name returns the collection name.
func (b *BrowserStorage) Name() string {
	return b.name
}

// Kind returns the store kind.
func (b *BrowserStorage) Kind() storage.Kind {
	return b.cfg.Kind
}

// State returns the initialisation state.
func (b *BrowserStorage) State() State {
	return State(b.state.Load())
}

// Store waits for initialisation and returns the backing store.
func (b *BrowserStorage) Store(ctx context.Context) (storage.Store, error) {
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.store, nil
}

// Close waits for initialisation and closes the backing store.
func (b *BrowserStorage) Close() error {
	<-b.ready
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}
