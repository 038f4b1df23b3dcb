package db

import "errors"

var (
	// ErrNotFound is returned when an epic or story id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrMalformed is returned when a snapshot cannot be parsed or fails validation.
	ErrMalformed = errors.New("malformed snapshot")
	// ErrPersist is returned when a mutation was applied in memory but the
	// snapshot could not be written back.
	ErrPersist = errors.New("failed to persist snapshot")
	// ErrIDsExhausted is returned when last_item_id can no longer advance.
	ErrIDsExhausted = errors.New("id space exhausted")
)
