package storage

import (
	"context"
	"time"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/jrsteele09/go-browserstore/persistence"
	"github.com/pkg/errors"
)

// kvStore adapts the synchronous kvstore engine. Without a persister it is the
// session store; with a filesystem persister it is the local store.
type kvStore struct {
	engine *kvstore.Store
}

// NewSession returns a volatile store holding at most quota bytes (0 is unlimited).
func NewSession(quota int) (Store, error) {
	engine, err := kvstore.New(kvstore.WithQuotaOption(quota))
	if err != nil {
		return nil, errors.Wrap(err, "NewSession kvstore.New")
	}
	return &kvStore{engine: engine}, nil
}

// NewLocal returns a store persisted under dir. Existing keys are indexed at open time and
// their values loaded on first access; unloadAfter > 0 drops cold values from memory again.
func NewLocal(dir string, quota int, unloadAfter time.Duration) (Store, error) {
	fs, err := persistence.New(dir)
	if err != nil {
		return nil, errors.Wrap(err, "NewLocal persistence.New")
	}
	options := []kvstore.StoreOption{
		kvstore.WithPersistenceOption(fs),
		kvstore.WithQuotaOption(quota),
	}
	if unloadAfter > 0 {
		options = append(options, kvstore.WithUnloadFrequencyOption(unloadAfter/2, unloadAfter))
	}
	engine, err := kvstore.New(options...)
	if err != nil {
		fs.Close()
		return nil, errors.Wrap(err, "NewLocal kvstore.New")
	}
	return &kvStore{engine: engine}, nil
}

func (s *kvStore) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := s.engine.Get(key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *kvStore) SetItem(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Set(key, value)
}

func (s *kvStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.engine.Delete(key); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}
	return nil
}

func (s *kvStore) Length(ctx context.Context) (int, error) {
	return s.engine.Len(), ctx.Err()
}

func (s *kvStore) Keys(ctx context.Context) ([]string, error) {
	return s.engine.Keys(), ctx.Err()
}

func (s *kvStore) Close() error {
	s.engine.Close()
	return nil
}
