package storage

import "errors"

var (
	// ErrNotFound is returned when a trade or snapshot lookup matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a trade ID or (token, taken_at) pair is
	// already stored. Journal and snapshot rows are never updated.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for nil records or missing keys.
	ErrInvalidInput = errors.New("invalid input")
)
