package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/jrsteele09/go-browserstore/persistence"
	"github.com/pkg/errors"
)

// DatabaseFile is the SQLite file an indexedDB store keeps in its directory.
const DatabaseFile = "browserstore.db"

// asyncStore drives a persister through a command buffer so every call is queued
// behind the ones before it, the way an asynchronous browser driver behaves.
type asyncStore struct {
	driver kvstore.DataPersister

	// quota and used count keys plus values, as the kvstore engine does.
	// mu orders the size lookup, the write and the count update of each change.
	quota int
	mu    sync.Mutex
	used  int
}

// NewIndexedDB opens the SQLite database in dir behind a command buffer of bufferSize.
// A quota > 0 caps the bytes (keys plus values) the database will hold.
func NewIndexedDB(dir string, bufferSize uint, quota int) (Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "NewIndexedDB MkdirAll")
	}
	db, err := persistence.NewSQLite(filepath.Join(dir, DatabaseFile))
	if err != nil {
		return nil, errors.Wrap(err, "NewIndexedDB persistence.NewSQLite")
	}
	return NewAsync(db, bufferSize, quota)
}

// NewAsync wraps any persister as an asynchronous store holding at most quota bytes
// (0 is unlimited). The bytes already held are counted when the store opens.
func NewAsync(driver kvstore.DataPersister, bufferSize uint, quota int) (Store, error) {
	buf, err := persistence.NewBuffer(driver, bufferSize)
	if err != nil {
		return nil, errors.Wrap(err, "NewAsync persistence.NewBuffer")
	}
	s := &asyncStore{driver: buf, quota: quota}
	if quota > 0 {
		keys, err := buf.Keys()
		if err != nil {
			buf.Close()
			return nil, errors.Wrap(err, "NewAsync Keys")
		}
		for _, key := range keys {
			size, err := s.sizeOf(key)
			if err != nil {
				buf.Close()
				return nil, err
			}
			s.used += size
		}
	}
	return s, nil
}

// sizeOf returns the bytes key currently accounts for, 0 when absent.
func (s *asyncStore) sizeOf(key string) (int, error) {
	mv, err := s.driver.Read(key, false)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "asyncStore.sizeOf %s", key)
	}
	return len(key) + mv.Size, nil
}

func (s *asyncStore) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	mv, err := s.driver.Read(key, true)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return mv.Data, true, nil
}

func (s *asyncStore) SetItem(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !kvstore.KeyValid(key) {
		return kvstore.ErrKeyInvalid
	}
	if s.quota <= 0 {
		return s.driver.Write(key, kvstore.NewValueItem(value, time.Now()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.sizeOf(key)
	if err != nil {
		return err
	}
	used := s.used - prev + len(key) + len(value)
	if used > s.quota {
		return kvstore.ErrQuotaExceeded
	}
	if err := s.driver.Write(key, kvstore.NewValueItem(value, time.Now())); err != nil {
		return err
	}
	s.used = used
	return nil
}

func (s *asyncStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.quota <= 0 {
		return s.driver.Delete(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.sizeOf(key)
	if err != nil {
		return err
	}
	if err := s.driver.Delete(key); err != nil {
		return err
	}
	s.used -= prev
	return nil
}

func (s *asyncStore) Length(ctx context.Context) (int, error) {
	keys, err := s.Keys(ctx)
	return len(keys), err
}

func (s *asyncStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.driver.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *asyncStore) Close() error {
	s.driver.Close()
	return nil
}
