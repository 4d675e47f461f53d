package pqodbc

import (
	"errors"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/stmt"
)

// ErrValidation is the sentinel family for caller-side argument mistakes
// caught before any wire round trip (e.g. an out-of-range column index),
// per spec.md §7's Validation kind: checkable with errors.Is, never wraps a
// server round trip.
var ErrValidation = errors.New("pqodbc: validation error")

// ErrOperationCancelled is the sentinel for spec.md §7's Cancellation kind.
// No call in this package returns it: a call interrupted by Stmt.Cancel
// returns the wire error it received, and Cancel itself records a
// QueryCanceled (57014) diagnostic on the statement.
var ErrOperationCancelled = errors.New("pqodbc: operation cancelled")

// ErrTruncated is returned alongside a partial GetData copy, mirroring
// SQL_SUCCESS_WITH_INFO rather than a hard failure; checkable with
// errors.Is. It re-exports component F's sentinel so callers never need to
// import internal/convert.
var ErrTruncated = convert.ErrTruncated

// ErrNoData mirrors SQL_NO_DATA: Fetch/FetchScroll returned past the last
// row of the current result set.
var ErrNoData = stmt.ErrNoData

// ErrBroken is returned by any call on a Conn or Stmt latched unusable by
// an InternalError-kind failure (spec.md §4.8: "both statement and
// connection are marked unusable until explicitly freed"). Recovery is
// Close/Free followed by a fresh Open, not a retry.
var ErrBroken = errors.New("pqodbc: connection is broken and must be closed")

// validationErrorf builds an ErrValidation-wrapping error with a formatted
// message, the uniform shape every public method uses for argument checks.
func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
