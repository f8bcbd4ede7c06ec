package store

import "errors"

var (
	// ErrNotFound covers both a row that does not exist and a row the
	// caller does not own. Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a (user, push token) pair is already
	// registered.
	ErrDuplicate = errors.New("already registered")
)
