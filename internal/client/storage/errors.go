package storage

import "errors"

var (
	// ErrAuthNotFound indicates that no session is stored.
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrStorageClosed indicates that the storage has been closed.
	ErrStorageClosed = errors.New("storage is closed")
)
