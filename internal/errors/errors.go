package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session client
var (
	// Storage errors
	ErrEmptyKey = errors.New("storage key cannot be empty")

	// Session errors
	ErrIncompleteSession = errors.New("session is incomplete")

	// Sign-in callback errors
	ErrMissingCode    = errors.New("missing code or state parameter")
	ErrUnknownState   = errors.New("unknown state parameter")
	ErrFlowExpired    = errors.New("authorization flow expired")
	ErrProviderError  = errors.New("identity provider returned an error")
	ErrMissingIDToken = errors.New("no id_token in token response")
	ErrNonceMismatch  = errors.New("id_token nonce mismatch")
	ErrTokenExchange  = errors.New("token exchange failed")

	// Provider errors
	ErrNoEndSession = errors.New("identity provider has no end_session_endpoint")

	// Request errors
	ErrDecode = errors.New("failed to decode response body")

	// Navigation errors
	ErrInvalidDestination = errors.New("destination must be a local path")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
