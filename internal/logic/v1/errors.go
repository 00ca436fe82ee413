// Package v1 implements the business rules of the course service API v1:
// accounts and bearer tokens, course completions and ratings.
//
// Error Handling:
// Failures are reported with the sentinel errors below, wrapped with context
// via fmt.Errorf("%w"). Handlers map them to HTTP statuses with errors.Is:
//
//	switch {
//	case errors.Is(err, logicv1.ErrValidation), errors.Is(err, logicv1.ErrUserExists):
//	    c.JSON(http.StatusBadRequest, gin.H{"error": ...})
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or missing input.
	// HTTP Status: 400 Bad Request
	ErrValidation = errors.New("validation failed")

	// ErrUserExists indicates the username or email is already registered.
	// HTTP Status: 400 Bad Request
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is the only error token verification returns,
	// whatever the underlying cause.
	// HTTP Status: 401 Unauthorized
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotFound indicates a verified token names a user that no longer exists.
	// HTTP Status: 401 Unauthorized
	ErrUserNotFound = errors.New("user not found")
)

// IsAuthError reports whether err means the caller is not signed in, as
// opposed to a storage failure while checking.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrUserNotFound)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
