package auth

import "errors"

var (
	// ErrValidation wraps every input validation failure; see ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateAccount means the username or email is already registered.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidCredentials is returned for an unknown identifier and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated means the caller's identity no longer resolves to an account.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorageUnavailable wraps account store failures. They are not retried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError describes a rejected input field. Its message is safe to
// show to clients.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
