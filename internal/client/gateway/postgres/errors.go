package postgres

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes that map onto something other than ErrUnavailable.
const (
	codeUniqueViolation      = "23505"
	codeInsufficientPrivs    = "42501"
	codeInvalidAuthorization = "28000"
	codeInvalidPassword      = "28P01"
)

// MapError classifies a database error into one of the common sentinels,
// keeping the driver message.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.Wrap(common.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return common.Wrap(common.ErrAlreadyExists, err)
		case codeInsufficientPrivs:
			return common.Wrap(common.ErrPermissionDenied, err)
		case codeInvalidAuthorization, codeInvalidPassword:
			return common.Wrap(common.ErrUnauthenticated, err)
		}
		return common.Wrap(common.ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.Wrap(common.ErrUnavailable, err)
	}

	var scanErr *scanError
	if errors.As(err, &scanErr) {
		return common.Wrap(common.ErrMalformed, err)
	}

	return common.Wrap(common.ErrUnavailable, err)
}

// scanError marks rows whose columns could not be decoded.
type scanError struct{ err error }

func (e *scanError) Error() string { return "scan: " + e.err.Error() }
func (e *scanError) Unwrap() error { return e.err }
