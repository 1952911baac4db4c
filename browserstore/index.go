package browserstore

import (
	"context"

	"github.com/pkg/errors"
)

// addReference rewrites the index as the keys of members plus id.
// members is nil when there is no collection context, and then nothing is written.
func (b *BrowserStorage) addReference(ctx context.Context, members []any, id any) error {
	if members == nil {
		return nil
	}
	ids := make([]any, 0, len(members)+1)
	ids = append(ids, members...)
	ids = append(ids, id)
	return b.writeIndex(ctx, ids)
}

// removeReference rewrites the index as the keys of members other than id.
func (b *BrowserStorage) removeReference(ctx context.Context, members []any, id any) error {
	if members == nil {
		return nil
	}
	removed := IDString(id)
	ids := make([]any, 0, len(members))
	for _, member := range members {
		if IDString(member) != removed {
			ids = append(ids, member)
		}
	}
	return b.writeIndex(ctx, ids)
}

func (b *BrowserStorage) writeIndex(ctx context.Context, ids []any) error {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if isNew(id) {
			continue
		}
		key := ItemKey(b.name, id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	value, err := b.serializer.Marshal(keys)
	if err != nil {
		return err
	}
	if err := b.store.SetItem(ctx, IndexKey(b.name), value); err != nil {
		return errors.Wrap(err, "BrowserStorage.writeIndex")
	}
	return nil
}

// ReadIndex returns the persisted index of the collection, empty when there is none.
func (b *BrowserStorage) ReadIndex(ctx context.Context) ([]string, error) {
	if err := b.await(ctx); err != nil {
		return nil, err
	}
	return b.readIndex(ctx)
}

func (b *BrowserStorage) readIndex(ctx context.Context) ([]string, error) {
	value, ok, err := b.store.GetItem(ctx, IndexKey(b.name))
	if err != nil {
		return nil, errors.Wrap(err, "BrowserStorage.readIndex")
	}
	keys := make([]string, 0)
	if !ok || len(value) == 0 {
		return keys, nil
	}
	if err := b.serializer.Unmarshal(value, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
