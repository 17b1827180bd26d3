package common

import (
	"errors"
	"fmt"
)

var (
	// Remote store failure classes. Backends wrap driver errors into one of
	// these so callers can branch with errors.Is while the raw text survives.
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrUnavailable      = errors.New("unavailable")
	ErrMalformed        = errors.New("malformed response")
	ErrAlreadyExists    = errors.New("already exists")

	// Identity token lifecycle.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Wrap tags err with the class sentinel and keeps the original message
// readable, e.g. "unavailable: dial tcp: connection refused".
func Wrap(class, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
