package errors

import (
	"errors"
	"fmt"
)

// Common error types for the claims web client
var (
	// Session errors
	ErrMalformedToken = errors.New("malformed token")
	ErrLoginFailed    = errors.New("login failed")

	// API errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrServerFault  = errors.New("server error")

	// Validation errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownClaimType = errors.New("unknown claim type")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
