package browserstore

import "github.com/pkg/errors"

var (
	// ErrRecordNotFound is reported when an operation completes without producing data.
	ErrRecordNotFound = errors.New("Record Not Found")

	// ErrPrivateBrowsing is reported when a write hits the quota of a store that holds nothing,
	// which is how a zero-capacity store presents itself.
	ErrPrivateBrowsing = errors.New("Private browsing is unsupported")

	// ErrUnsupportedMethod is reported for sync methods other than read, create, update, patch and delete.
	ErrUnsupportedMethod = errors.New("unsupported sync method")

	// ErrNoName is returned when a binding is declared without a collection name.
	ErrNoName = errors.New("storage binding needs a name")

	// ErrNoSyncStrategy is reported when a model has no binding and no fallback strategy.
	ErrNoSyncStrategy = errors.New("no sync strategy")
)
