package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Op is the kind of change reported for a key.
type Op int

const (
	// OpSet reports a key written, possibly more than once per write.
	OpSet Op = iota + 1
	// OpRemove reports a key removed.
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a change to one key of a local store, whoever made it.
type Event struct {
	Key string
	Op  Op
}

// Watch reports changes made to the local store kept in dir, by this process or any other.
// The channel is closed when ctx is done.
func Watch(ctx context.Context, dir string) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "Watch fsnotify.NewWatcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "Watch Add")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "Watch ReadDir")
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = watcher.Add(filepath.Join(dir, entry.Name()))
		}
	}

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case fsEvent, ok := <-watcher.Events:
				if !ok {
					return
				}
				event, ok := toEvent(dir, fsEvent)
				if !ok {
					continue
				}
				if event.Op == OpSet && fsEvent.Has(fsnotify.Create) && fsEvent.Name == filepath.Join(dir, event.Key) {
					_ = watcher.Add(fsEvent.Name)
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Str("dir", dir).Msg("storage: watch error")
			}
		}
	}()
	return events, nil
}

// toEvent maps a filesystem event under dir to a key event. Key folders are the
// first path component; inside them only the metadata file, written last, counts.
func toEvent(dir string, e fsnotify.Event) (Event, bool) {
	rel, err := filepath.Rel(dir, e.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Event{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	key := parts[0]

	if len(parts) == 1 {
		switch {
		case e.Has(fsnotify.Create):
			return Event{Key: key, Op: OpSet}, true
		case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
			return Event{Key: key, Op: OpRemove}, true
		}
		return Event{}, false
	}

	if parts[len(parts)-1] == "metadata.json" && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
		return Event{Key: key, Op: OpSet}, true
	}
	return Event{}, false
}
