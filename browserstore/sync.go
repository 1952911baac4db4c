package browserstore

import (
	"context"

	"github.com/jrsteele09/go-browserstore/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Method is a sync operation.
type Method string

const (
	MethodRead   Method = "read"
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodPatch  Method = "patch"
	MethodDelete Method = "delete"
)

// Options carries the callbacks and payload of one sync call.
type Options struct {
	// Success receives the result: a Record, or []Record for a read without identifier.
	Success func(result any, opts *Options)
	// Error receives a message describing the failure.
	Error func(message string)
	// Complete always runs last, with the result or nil.
	Complete func(result any)

	// Wait asks the host to leave the model untouched until the operation completes.
	Wait bool
	// Attrs is the payload to store instead of the model snapshot.
	Attrs Record
	// Patch merges Attrs over the stored record instead of replacing it.
	Patch bool
}

func optionsOrDefault(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	return opts
}

// Request is the handle of one dispatched sync call.
type Request struct {
	done   chan struct{}
	result any
	err    error
}

func newRequest() *Request {
	return &Request{done: make(chan struct{})}
}

// Resolved returns a request that has already completed with result and err.
func Resolved(result any, err error) *Request {
	r := newRequest()
	r.result, r.err = result, err
	close(r.done)
	return r
}

// Done is closed once every callback has run.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request completes.
func (r *Request) Wait() (any, error) {
	<-r.done
	return r.result, r.err
}

// Sync dispatches method for model m. Everything read from the model is captured before
// Sync returns; the store work and the callbacks run on another goroutine.
func (b *BrowserStorage) Sync(ctx context.Context, method Method, m Model, opts *Options) *Request {
	opts = optionsOrDefault(opts)
	req := newRequest()
	op, err := b.prepare(method, m, opts)

	log.Debug().Str("collection", b.name).Str("method", string(method)).Interface("id", m.ID()).Msg("browserstore: sync")
	go func() {
		var result any
		if err == nil {
			if err = b.await(ctx); err == nil {
				result, err = op(ctx)
			}
		}
		b.finish(ctx, req, opts, result, err)
	}()
	return req
}

type operation func(ctx context.Context) (any, error)

func (b *BrowserStorage) prepare(method Method, m Model, opts *Options) (operation, error) {
	switch method {
	case MethodRead:
		id := m.ID()
		if isNew(id) {
			return func(ctx context.Context) (any, error) {
				return b.findAll(ctx)
			}, nil
		}
		return func(ctx context.Context) (any, error) {
			record, err := b.find(ctx, id)
			if record == nil {
				return nil, err
			}
			return record, err
		}, nil
	case MethodCreate, MethodUpdate, MethodPatch:
		if method == MethodPatch && !opts.Patch {
			patched := *opts
			patched.Patch = true
			opts = &patched
		}
		s := b.capture(m, opts, method == MethodCreate)
		return func(ctx context.Context) (any, error) {
			return recordResult(b.update(ctx, s))
		}, nil
	case MethodDelete:
		s := b.capture(m, opts, false)
		return func(ctx context.Context) (any, error) {
			return recordResult(b.destroy(ctx, s))
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedMethod, "%q", method)
	}
}

func recordResult(r Record, err error) (any, error) {
	if r == nil {
		return nil, err
	}
	return r, err
}

// finish routes the outcome to the callbacks and resolves the request.
func (b *BrowserStorage) finish(ctx context.Context, req *Request, opts *Options, result any, err error) {
	if err != nil && b.privateBrowsing(ctx, err) {
		err = ErrPrivateBrowsing
	}
	req.result, req.err = deliver(opts, result, err)
	if req.err != nil {
		log.Debug().Str("collection", b.name).Err(req.err).Msg("browserstore: sync failed")
	}
	close(req.done)
}

// deliver runs the success or error callback, then complete. A nil result without an
// error is reported as ErrRecordNotFound.
func deliver(opts *Options, result any, err error) (any, error) {
	if err == nil && result == nil {
		err = ErrRecordNotFound
	}
	if err != nil {
		result = nil
		if opts.Error != nil {
			opts.Error(errors.Cause(err).Error())
		}
	} else if opts.Success != nil {
		opts.Success(result, opts)
	}
	if opts.Complete != nil {
		opts.Complete(result)
	}
	return result, err
}

func (b *BrowserStorage) privateBrowsing(ctx context.Context, err error) bool {
	if !errors.Is(err, storage.ErrQuotaExceeded) || b.store == nil {
		return false
	}
	n, lengthErr := b.store.Length(context.WithoutCancel(ctx))
	return lengthErr == nil && n == 0
}
