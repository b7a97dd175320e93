package storage

import "errors"

// Common storage errors
var (
	// ErrAccountNotFound indicates that account was not found in storage
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indicates a uniqueness violation on username or email
	ErrAccountAlreadyExists = errors.New("account already exists")
)
