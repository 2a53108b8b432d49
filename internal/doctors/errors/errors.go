package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrNotDoctor = errors.New("user is not a doctor")

	ErrInvalidID = errors.New("invalid user ID format")

	ErrDuplicateEmail = errors.New("email already registered")
)
