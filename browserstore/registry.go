package browserstore

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SyncFunc is a sync strategy: the local one is (*BrowserStorage).Sync, a remote one is
// supplied by the host.
type SyncFunc func(ctx context.Context, method Method, m Model, opts *Options) *Request

// BindingFor returns the storage binding of a model: its own, else its collection's.
func BindingFor(m Model) *BrowserStorage {
	if b := m.Storage(); b != nil {
		return b
	}
	if c := m.Collection(); c != nil {
		return c.Storage()
	}
	return nil
}

// GetSyncMethod picks the strategy for a model: the local store when it has a binding,
// fallback otherwise.
func GetSyncMethod(m Model, fallback SyncFunc) SyncFunc {
	if b := BindingFor(m); b != nil {
		return b.Sync
	}
	return fallback
}

// Sync dispatches through the strategy GetSyncMethod selects. Without a binding or a
// fallback the operation fails through the callbacks with ErrNoSyncStrategy.
func Sync(ctx context.Context, method Method, m Model, opts *Options, fallback SyncFunc) *Request {
	if strategy := GetSyncMethod(m, fallback); strategy != nil {
		return strategy(ctx, method, m, opts)
	}
	log.Warn().Str("method", string(method)).Msg("browserstore: model has no storage binding and no fallback")
	opts = optionsOrDefault(opts)
	req := newRequest()
	req.result, req.err = deliver(opts, nil, ErrNoSyncStrategy)
	close(req.done)
	return req
}
