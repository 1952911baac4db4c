package storage

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Open validates cfg and opens the store it describes. Opening a local store
// indexes its folder and opening an indexedDB store opens its database, so callers
// that must not block run Open on their own goroutine.
func Open(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		s   Store
		err error
	)
	switch cfg.Kind {
	case KindSession:
		s, err = NewSession(cfg.Quota)
	case KindLocal:
		s, err = NewLocal(cfg.Dir, cfg.Quota, cfg.UnloadAfter)
	case KindIndexedDB:
		bufferSize := cfg.BufferSize
		if bufferSize == 0 {
			bufferSize = DefaultConfig().BufferSize
		}
		s, err = NewIndexedDB(cfg.Dir, bufferSize, cfg.Quota)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage.Open %s", cfg.Kind)
	}
	log.Debug().Str("kind", string(cfg.Kind)).Str("dir", cfg.Dir).Msg("storage: opened")
	return s, nil
}
