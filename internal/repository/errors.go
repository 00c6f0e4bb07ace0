package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist, or a
	// conditional write matched no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("repository: duplicate key")
)
