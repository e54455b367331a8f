package storage

import "errors"

// ErrNotFound is wrapped by all stores when a record does not exist, so
// callers can map lookup failures uniformly regardless of the backend.
var ErrNotFound = errors.New("not found")
