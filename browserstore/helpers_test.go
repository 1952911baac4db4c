package browserstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/go-browserstore/browserstore"
	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	mu      sync.Mutex
	attrs   browserstore.Record
	idAttr  string
	coll    *testCollection
	binding *browserstore.BrowserStorage
}

func (m *testModel) ID() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs[m.IDAttribute()]
}

func (m *testModel) IDAttribute() string {
	if m.idAttr == "" {
		return "id"
	}
	return m.idAttr
}

func (m *testModel) SetID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[m.IDAttribute()] = id
}

func (m *testModel) ToJSON() browserstore.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := browserstore.Record{}
	for k, v := range m.attrs {
		out[k] = v
	}
	return out
}

func (m *testModel) set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[key] = value
}

func (m *testModel) Collection() browserstore.Collection {
	if m.coll == nil {
		return nil
	}
	return m.coll
}

func (m *testModel) Storage() *browserstore.BrowserStorage {
	return m.binding
}

type testCollection struct {
	mu      sync.Mutex
	models  []*testModel
	binding *browserstore.BrowserStorage
}

func (c *testCollection) IDs() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]any, 0, len(c.models))
	for _, m := range c.models {
		ids = append(ids, m.ID())
	}
	return ids
}

func (c *testCollection) Storage() *browserstore.BrowserStorage {
	return c.binding
}

// add builds a member model holding a copy of attrs.
func (c *testCollection) add(attrs browserstore.Record) *testModel {
	m := &testModel{attrs: browserstore.Record{}, coll: c}
	for k, v := range attrs {
		m.attrs[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = append(c.models, m)
	return m
}

func (c *testCollection) remove(m *testModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, member := range c.models {
		if member == m {
			c.models = append(c.models[:i], c.models[i+1:]...)
			return
		}
	}
}

// faultyStore fails writes for which failSet returns an error.
type faultyStore struct {
	storage.Store
	failSet func(key string) error
}

func (f *faultyStore) SetItem(ctx context.Context, key string, value []byte) error {
	if f.failSet != nil {
		if err := f.failSet(key); err != nil {
			return err
		}
	}
	return f.Store.SetItem(ctx, key, value)
}

func newSessionStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewSession(0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newBinding(t *testing.T, name string, s storage.Store) *browserstore.BrowserStorage {
	t.Helper()
	b, err := browserstore.New(name, storage.KindSession, browserstore.WithStore(s))
	require.NoError(t, err)
	return b
}

// outcome records the callbacks of one sync call.
type outcome struct {
	mu       sync.Mutex
	calls    []string
	result   any
	message  string
	complete any
}

func (o *outcome) options() *browserstore.Options {
	return &browserstore.Options{
		Success: func(result any, _ *browserstore.Options) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.calls = append(o.calls, "success")
			o.result = result
		},
		Error: func(message string) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.calls = append(o.calls, "error")
			o.message = message
		},
		Complete: func(result any) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.calls = append(o.calls, "complete")
			o.complete = result
		},
	}
}
