package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrIdentityNotFound = errors.New("identity not found")
)

// InputError is a validation failure whose message is shown to the caller
// as-is. It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(msg string) error { return &InputError{Message: msg} }
