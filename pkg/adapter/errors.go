package adapter

import "errors"

// Errors surfaced by adapter operations. The HTTP layer relies on
// errors.Is against these to pick status codes, so they are wrapped,
// never replaced.
var (
	// ErrIdentityRequired is reported when a collection definition has no
	// usable identity.
	ErrIdentityRequired = errors.New("collection identity is required")

	// ErrNotRegistered is reported when an operation names a collection
	// the manager has never seen.
	ErrNotRegistered = errors.New("collection is not registered")

	// ErrNoRecordsUpdated is reported when an update criteria matches
	// nothing. Matching zero records is an error here, not an empty
	// success, so callers never mistake a typo in the filter for a
	// completed write.
	ErrNoRecordsUpdated = errors.New("could not find any records to update")
)
