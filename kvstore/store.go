package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var nowFunc = time.Now

// Error definitions for common error cases.
var (
	// ErrNotFound returned when a key is not found during read or delete operations.
	ErrNotFound = errors.New("key not found")

	// ErrKeyInvalid returned when a key is empty or contains characters a persister cannot store.
	ErrKeyInvalid = errors.New("key contains invalid characters")

	// ErrQuotaExceeded returned when a write would take the store over its byte quota.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Store represents a synchronous, string keyed storage area.
// It is thread-safe and allows for optional data persistence.
type Store struct {
	data            map[string]*ValueItem
	persistence     []DataPersister
	quota           int
	used            int
	unloadFreq      time.Duration
	unloadAfterTime time.Duration
	lock            sync.RWMutex
	ctx             context.Context
	cancelFunc      context.CancelFunc
	wg              sync.WaitGroup
}

// New initializes a new Store with optional configurations.
// It takes a variadic number of StoreOption functions to customize its behavior.
func New(options ...StoreOption) (*Store, error) {
	store := &Store{
		data:            make(map[string]*ValueItem),
		persistence:     make([]DataPersister, 0),
		unloadFreq:      time.Minute,
		unloadAfterTime: 0,
	}

	for _, opt := range options {
		opt(store)
	}

	if err := store.initPersistence(); err != nil {
		return nil, err
	}
	store.ctx, store.cancelFunc = context.WithCancel(context.Background())
	store.wg.Add(1)
	go store.unloadController()
	return store, nil
}

// Close stops the internal cache management routine and closes all persistence layers.
func (s *Store) Close() {
	s.cancelFunc()
	s.wg.Wait()

	for _, p := range s.persistence {
		p.Close()
	}
}

// Set stores a key-value pair into the Store.
func (s *Store) Set(key string, value []byte) error {
	if !KeyValid(key) {
		return ErrKeyInvalid
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.setValue(key, value)
}

// Get retrieves the value associated with a key from the Store.
func (s *Store) Get(key string) ([]byte, error) {
	if !KeyValid(key) {
		return nil, ErrKeyInvalid
	}

	var dataloaded bool
	var loadedData []byte

	s.lock.RLock()
	mv, ok := s.data[key]
	if ok {
		dataloaded = mv.dataLoaded
		if dataloaded {
			loadedData = make([]byte, len(mv.Data))
			copy(loadedData, mv.Data)
		}
	}
	s.lock.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if dataloaded {
		return loadedData, nil
	}

	data, err := s.readFromFirstStore(key)
	if err != nil {
		return nil, errors.Wrap(err, "Store.Get s.readFromFirstStore")
	}
	return data, nil
}

// Delete removes a key and its value from the Store.
func (s *Store) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.delete(key)
}

// InMemory checks if the value for a given key is loaded into memory.
func (s *Store) InMemory(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if _, ok := s.data[key]; !ok {
		return false
	}
	return s.data[key].dataLoaded
}

// Keys returns a sorted slice of all keys currently in the Store.
func (s *Store) Keys() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys in the Store.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.data)
}

// Size returns the number of bytes, keys plus values, counted against the quota.
func (s *Store) Size() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.used
}

// setValue stores data under key. If a persister rejects the write, the previous value
// and byte count are put back so memory never holds what the disk does not.
func (s *Store) setValue(key string, data []byte) error {
	prev, ok := s.data[key]
	used := s.used + len(key) + len(data)
	if ok {
		used -= len(key) + prev.Size
	}
	if s.quota > 0 && used > s.quota {
		return ErrQuotaExceeded
	}

	prevUsed := s.used
	s.data[key] = NewValueItem(data, nowFunc())
	s.used = used
	if err := s.persistData(key); err != nil {
		if ok {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		s.used = prevUsed
		return err
	}
	return nil
}

func (s *Store) delete(key string) error {
	mv, ok := s.data[key]
	if !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	s.used -= len(key) + mv.Size

	var returnError error
	for _, p := range s.persistence {
		if err := p.Delete(key); err != nil {
			returnError = errors.Wrap(err, "p.Delete")
		}
	}
	return returnError
}

func (s *Store) readFromFirstStore(key string) ([]byte, error) {
	if len(s.persistence) == 0 {
		return nil, ErrNotFound
	}

	mv, err := s.persistence[0].Read(key, true)
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	if existing, ok := s.data[key]; ok && !existing.dataLoaded {
		s.used += mv.Size - existing.Size
		s.data[key] = mv
	}
	s.lock.Unlock()
	return mv.Data, nil
}

func (s *Store) initPersistence() error {
	if len(s.persistence) == 0 {
		return nil
	}

	keys, err := s.persistence[0].Keys()
	if err != nil {
		log.Info().Msgf("Store.initPersistence %s", err.Error())
		return nil
	}

	for _, k := range keys {
		mv, err := s.persistence[0].Read(k, false)
		if err != nil {
			s.data[k] = &ValueItem{
				Ts:         nowFunc(),
				dataLoaded: false,
			}
			s.used += len(k)
			continue
		}
		s.data[k] = mv
		s.used += len(k) + mv.Size
	}

	return nil
}

func (s *Store) persistData(key string) error {
	if len(s.persistence) == 0 {
		return nil
	}

	mv, ok := s.data[key]
	if !ok {
		return errors.Errorf("persist key: %s does not exist", key)
	}

	for _, d := range s.persistence {
		if err := d.Write(key, mv); err != nil {
			return errors.Wrap(err, "Store.persist Write error")
		}
	}
	return nil
}

func (s *Store) unloadController() {
	defer s.wg.Done()
	if s.unloadFreq <= 0 || s.unloadAfterTime <= 0 || len(s.persistence) == 0 {
		return
	}

	timer := time.NewTimer(s.unloadFreq)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			s.runUnloadCheck()
			timer.Reset(s.unloadFreq)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) runUnloadCheck() {
	s.lock.RLock()
	timeNow := nowFunc()
	var unloadKeys []string
	for k, v := range s.data {
		if v.unload(timeNow, s.unloadAfterTime) {
			unloadKeys = append(unloadKeys, k)
		}
	}
	s.lock.RUnlock()

	if len(unloadKeys) == 0 {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// Unload data from memory (but keep metadata)
	for _, k := range unloadKeys {
		if v, exists := s.data[k]; exists {
			v.unloadData()
		}
	}
	log.Debug().Int("keys", len(unloadKeys)).Msg("kvstore: unloaded values from memory")
}
