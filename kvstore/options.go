package kvstore

import "time"

// StoreOption is a type for functions that configure a Store.
// These functions are intended to be used with the New function
// to create a customized Store instance.
type StoreOption func(s *Store)

// WithUnloadFrequencyOption returns a StoreOption that configures the unload check frequency
// and the unload-after time of values in memory. Unloading only happens when the store
// has a persister to reload the value from.
//
// - 'cf' sets how often the store should check for values to unload.
// - 'uf' sets the duration a value will stay in memory before being unloaded.
//
// Example:
//
//	New(WithUnloadFrequencyOption(time.Minute, time.Hour))
func WithUnloadFrequencyOption(cf time.Duration, uf time.Duration) StoreOption {
	return func(s *Store) {
		s.unloadFreq = cf
		s.unloadAfterTime = uf
	}
}

// WithPersistenceOption returns a StoreOption that sets up the persistence controllers
// for the Store. Multiple DataPersisters can be passed in.
//
// Example:
//
//	New(WithPersistenceOption(persister1, persister2))
func WithPersistenceOption(persistence ...DataPersister) StoreOption {
	return func(s *Store) {
		s.persistence = append(s.persistence, persistence...)
	}
}

// WithQuotaOption caps the number of bytes (keys plus values) the Store will hold.
// Zero means unlimited. A write that would exceed the quota fails with ErrQuotaExceeded.
func WithQuotaOption(bytes int) StoreOption {
	return func(s *Store) {
		s.quota = bytes
	}
}
