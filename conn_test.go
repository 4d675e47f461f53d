package pqodbc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
	"github.com/jeroenrinzema/pqodbc/internal/wiretest"
)

func newTestConn(fake *wiretest.Fake, opts ...Option) *Conn {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newConn(fake, cfg)
}

func TestAllocReturnsReadyStatement(t *testing.T) {
	c := newTestConn(wiretest.New())
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestAllocAfterCloseFails(t *testing.T) {
	c := newTestConn(wiretest.New())
	require.NoError(t, c.Close(context.Background()))
	_, err := c.Alloc()
	require.ErrorIs(t, err, ErrValidation)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := newTestConn(wiretest.New())
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
}

func TestSetGetConnectAttrAutocommit(t *testing.T) {
	c := newTestConn(wiretest.New())
	require.NoError(t, c.SetConnectAttr(ConnAttrAutocommit, false))
	v, err := c.GetConnectAttr(ConnAttrAutocommit)
	require.NoError(t, err)
	require.Equal(t, false, v)
}

func TestSetConnectAttrRejectsWrongType(t *testing.T) {
	c := newTestConn(wiretest.New())
	err := c.SetConnectAttr(ConnAttrAutocommit, "not-a-bool")
	require.ErrorIs(t, err, ErrValidation)
}

func TestExecDirectThroughConnAllocatedStmt(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{
		Status:       wireproto.CommandOK,
		RowsAffected: 2,
	})

	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)

	require.NoError(t, s.ExecDirect(context.Background(), "DELETE FROM accounts WHERE closed", 0))
	n, err := s.RowCount()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}
