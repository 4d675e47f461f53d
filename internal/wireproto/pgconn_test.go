package wireproto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdent(t *testing.T) {
	require.Equal(t, `"sp1"`, quoteIdent("sp1"))
	require.Equal(t, `"weird name"`, quoteIdent("weird name"))
}

func TestWrapExecErrorWithPgError(t *testing.T) {
	c := &pgconnConn{}
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

	err := c.wrapExecError(pgErr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "23505")

	var got *pgconn.PgError
	require.True(t, errors.As(err, &got))
	require.Equal(t, "23505", got.Code)
}

func TestWrapExecErrorGeneric(t *testing.T) {
	c := &pgconnConn{}
	err := c.wrapExecError(fmt.Errorf("connection reset"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")

	var pgErr *pgconn.PgError
	require.False(t, errors.As(err, &pgErr))
}

func TestInTransactionReflectsFlag(t *testing.T) {
	c := &pgconnConn{}
	require.False(t, c.InTransaction())
	c.inTxn = true
	require.True(t, c.InTransaction())
}
