// Package sentinel holds the storage-level facts that services translate into
// coded domain errors. Stores wrap these; they never return domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no row or map entry matched the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means the caller passed a value the store cannot hold,
	// such as a non-positive revocation TTL.
	ErrInvalidState = errors.New("invalid state")
)
