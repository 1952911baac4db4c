package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAll(t *testing.T) map[storage.Kind]storage.Store {
	t.Helper()
	stores := make(map[storage.Kind]storage.Store)
	for _, kind := range []storage.Kind{storage.KindSession, storage.KindLocal, storage.KindIndexedDB} {
		s, err := storage.Open(storage.Config{Kind: kind, Dir: t.TempDir()})
		require.NoError(t, err, "kind %s", kind)
		t.Cleanup(func() { s.Close() })
		stores[kind] = s
	}
	return stores
}

func TestStoreKinds(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openAll(t) {
		t.Run(string(kind), func(t *testing.T) {
			_, ok, err := s.GetItem(ctx, "todos-1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.SetItem(ctx, "todos-1", []byte(`{"id":"1"}`)))
			require.NoError(t, s.SetItem(ctx, "todos", []byte(`["todos-1"]`)))

			b, ok, err := s.GetItem(ctx, "todos-1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"id":"1"}`, string(b))

			n, err := s.Length(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"todos", "todos-1"}, keys)

			require.NoError(t, s.RemoveItem(ctx, "todos-1"))
			require.NoError(t, s.RemoveItem(ctx, "todos-1"), "removing an absent key")

			_, ok, err = s.GetItem(ctx, "todos-1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for kind, s := range openAll(t) {
		assert.ErrorIs(t, s.SetItem(ctx, "k", []byte("v")), context.Canceled, "kind %s", kind)
	}
}

func TestLocalStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := storage.Config{Kind: storage.KindLocal, Dir: dir}

	s, err := storage.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "notes-a", []byte("hello")))
	require.NoError(t, s.Close())

	s2, err := storage.Open(cfg)
	require.NoError(t, err)
	defer s2.Close()
	b, ok, err := s2.GetItem(ctx, "notes-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(b))
}

func TestSessionQuota(t *testing.T) {
	ctx := context.Background()
	s, err := storage.Open(storage.Config{Kind: storage.KindSession, Quota: 4})
	require.NoError(t, err)
	defer s.Close()

	err = s.SetItem(ctx, "todos-1", []byte("{}"))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

	n, err := s.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  storage.Config
		err  error
	}{
		{"no kind", storage.Config{}, storage.ErrNoKind},
		{"unsupported", storage.Config{Kind: "cookie"}, storage.ErrUnsupportedKind},
		{"local without dir", storage.Config{Kind: storage.KindLocal}, storage.ErrUnavailable},
		{"indexedDB without dir", storage.Config{Kind: storage.KindIndexedDB}, storage.ErrUnavailable},
		{"session", storage.Config{Kind: storage.KindSession}, nil},
		{"local", storage.Config{Kind: storage.KindLocal, Dir: "x"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := storage.Open(storage.Config{})
	assert.ErrorIs(t, err, storage.ErrNoKind)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "browserstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: local\ndir: /tmp/store\nquota: 5242880\nunload_after: 5m\n"), 0600))

	cfg, err := storage.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, storage.KindLocal, cfg.Kind)
	assert.Equal(t, "/tmp/store", cfg.Dir)
	assert.Equal(t, 5242880, cfg.Quota)
	assert.Equal(t, 5*time.Minute, cfg.UnloadAfter)
	assert.Equal(t, storage.DefaultConfig().BufferSize, cfg.BufferSize)

	_, err = storage.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReportsKeyChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := storage.Watch(ctx, dir)
	require.NoError(t, err)

	s, err := storage.Open(storage.Config{Kind: storage.KindLocal, Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SetItem(ctx, "todos-1", []byte("{}")))

	waitFor(t, events, storage.Event{Key: "todos-1", Op: storage.OpSet})

	require.NoError(t, s.RemoveItem(ctx, "todos-1"))
	waitFor(t, events, storage.Event{Key: "todos-1", Op: storage.OpRemove})

	cancel()
	for range events {
	}
}

func waitFor(t *testing.T, events <-chan storage.Event, want storage.Event) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got, ok := <-events:
			require.True(t, ok, "watch closed before %v", want)
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %s event for %s", want.Op, want.Key)
		}
	}
}

func TestQuotaAllKinds(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []storage.Kind{storage.KindSession, storage.KindLocal, storage.KindIndexedDB} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := storage.Open(storage.Config{Kind: kind, Dir: t.TempDir(), Quota: 20})
			require.NoError(t, err)
			defer s.Close()

			// Keys and values both count: 7 + 10 bytes.
			require.NoError(t, s.SetItem(ctx, "todos-1", []byte("0123456789")))
			require.ErrorIs(t, s.SetItem(ctx, "todos-2", []byte("x")), storage.ErrQuotaExceeded)

			// Replacing a value only counts the difference.
			require.NoError(t, s.SetItem(ctx, "todos-1", []byte("0123456789abc")))

			require.NoError(t, s.RemoveItem(ctx, "todos-1"))
			require.NoError(t, s.SetItem(ctx, "todos-2", []byte("x")))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"todos-2"}, keys)
		})
	}
}

func TestQuotaEmptyStore(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []storage.Kind{storage.KindSession, storage.KindLocal, storage.KindIndexedDB} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := storage.Open(storage.Config{Kind: kind, Dir: t.TempDir(), Quota: 1})
			require.NoError(t, err)
			defer s.Close()

			require.ErrorIs(t, s.SetItem(ctx, "todos-1", []byte("{}")), storage.ErrQuotaExceeded)
			n, err := s.Length(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestIndexedDBQuotaCountsExistingData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.Open(storage.Config{Kind: storage.KindIndexedDB, Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "todos-1", []byte("0123456789")))
	require.NoError(t, s.Close())

	s, err = storage.Open(storage.Config{Kind: storage.KindIndexedDB, Dir: dir, Quota: 20})
	require.NoError(t, err)
	defer s.Close()
	require.ErrorIs(t, s.SetItem(ctx, "todos-2", []byte("x")), storage.ErrQuotaExceeded)
	require.NoError(t, s.RemoveItem(ctx, "todos-1"))
	require.NoError(t, s.SetItem(ctx, "todos-2", []byte("x")))
}
