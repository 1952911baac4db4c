package browserstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// snapshot is everything an operation needs from the model, taken before any wait:
// the host may detach the model from its collection while the store initialises.
type snapshot struct {
	id     any
	idAttr string
	attrs  Record
	patch  Record
	// members is nil when the model has no collection.
	members []any
}

func (b *BrowserStorage) capture(m Model, opts *Options, create bool) snapshot {
	if create && isNew(m.ID()) {
		m.SetID(b.ids.Generate())
	}
	s := snapshot{id: m.ID(), idAttr: m.IDAttribute()}

	switch {
	case opts.Patch:
		s.attrs = m.ToJSON()
		s.patch = opts.Attrs.clone()
	case opts.Attrs != nil:
		s.attrs = opts.Attrs.clone()
	default:
		s.attrs = m.ToJSON()
	}
	if s.attrs == nil {
		s.attrs = Record{}
	}
	if !isNew(s.id) {
		s.attrs[s.idAttr] = s.id
	}

	if c := m.Collection(); c != nil {
		s.members = append([]any{}, c.IDs()...)
	}
	return s
}

// Create stores a model, assigning it a generated identifier first when it has none.
func (b *BrowserStorage) Create(ctx context.Context, m Model, opts *Options) (Record, error) {
	s := b.capture(m, optionsOrDefault(opts), true)
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.update(ctx, s)
}

// Update stores a model under its identifier and refreshes the collection index.
func (b *BrowserStorage) Update(ctx context.Context, m Model, opts *Options) (Record, error) {
	s := b.capture(m, optionsOrDefault(opts), false)
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.update(ctx, s)
}

// Find returns the stored record of a model, or nil when none was ever written.
func (b *BrowserStorage) Find(ctx context.Context, m Model) (Record, error) {
	id := m.ID()
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.find(ctx, id)
}

// FindAll returns every record listed in the collection index, in index order.
func (b *BrowserStorage) FindAll(ctx context.Context) ([]Record, error) {
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.findAll(ctx)
}

// Destroy removes a model's record and drops it from the collection index.
// It returns the model snapshot.
func (b *BrowserStorage) Destroy(ctx context.Context, m Model) (Record, error) {
	s := b.capture(m, &Options{}, false)
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.destroy(ctx, s)
}

// Clear removes the collection index and every record of the collection.
// It is meant for test setup and teardown.
func (b *BrowserStorage) Clear(ctx context.Context) error {
	if err := b.await(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.RemoveItem(ctx, IndexKey(b.name)); err != nil {
		return errors.Wrap(err, "BrowserStorage.Clear index")
	}
	keys, err := b.store.Keys(ctx)
	if err != nil {
		return errors.Wrap(err, "BrowserStorage.Clear keys")
	}
	pattern := itemPattern(b.name)
	removed := 0
	for _, key := range keys {
		if !pattern.MatchString(key) {
			continue
		}
		if err := b.store.RemoveItem(ctx, key); err != nil {
			return errors.Wrapf(err, "BrowserStorage.Clear %s", key)
		}
		removed++
	}
	log.Debug().Str("collection", b.name).Int("removed", removed).Msg("browserstore: cleared")
	return nil
}

func (b *BrowserStorage) update(ctx context.Context, s snapshot) (Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := ItemKey(b.name, s.id)
	value := s.attrs
	if s.patch != nil {
		stored, err := b.find(ctx, s.id)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			value = stored
		}
		for k, v := range s.patch {
			value[k] = v
		}
		value[s.idAttr] = s.id
	}

	data, err := b.serializer.Marshal(value)
	if err != nil {
		return nil, err
	}
	if err := b.store.SetItem(ctx, key, data); err != nil {
		return nil, errors.Wrapf(err, "BrowserStorage.update %s", key)
	}
	if err := b.addReference(ctx, s.members, s.id); err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BrowserStorage) find(ctx context.Context, id any) (Record, error) {
	if isNew(id) {
		return nil, nil
	}
	return b.readRecord(ctx, ItemKey(b.name, id))
}

func (b *BrowserStorage) readRecord(ctx context.Context, key string) (Record, error) {
	data, ok, err := b.store.GetItem(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "BrowserStorage.find %s", key)
	}
	if !ok {
		return nil, nil
	}
	var record Record
	if err := b.serializer.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (b *BrowserStorage) findAll(ctx context.Context) ([]Record, error) {
	keys, err := b.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]Record, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			record, err := b.readRecord(gctx, key)
			found[i] = record
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(keys))
	for i, record := range found {
		if record == nil {
			log.Warn().Str("collection", b.name).Str("key", keys[i]).Msg("browserstore: index entry has no record")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (b *BrowserStorage) destroy(ctx context.Context, s snapshot) (Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := ItemKey(b.name, s.id)
	if err := b.store.RemoveItem(ctx, key); err != nil {
		return nil, errors.Wrapf(err, "BrowserStorage.destroy %s", key)
	}
	if err := b.removeReference(ctx, s.members, s.id); err != nil {
		return nil, err
	}
	return s.attrs, nil
}
