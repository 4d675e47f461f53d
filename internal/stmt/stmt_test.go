package stmt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/rewrite"
	"github.com/jeroenrinzema/pqodbc/internal/stmt"
	"github.com/jeroenrinzema/pqodbc/internal/txn"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
	"github.com/jeroenrinzema/pqodbc/internal/wiretest"
)

func newTestStatement(fake *wiretest.Fake) *stmt.Statement {
	cfg := stmt.Config{
		Conn:     fake,
		Txn:      txn.New(fake, txn.PolicyNone),
		Resolver: &param.Resolver{},
		Opts:     convert.Options{},
		RewriteCfg: rewrite.Config{
			Encoding: chartab.UTF8,
		},
		Autocommit: true,
	}
	return stmt.Alloc(cfg)
}

func newTestStatementForTable(fake *wiretest.Fake, table string) *stmt.Statement {
	cfg := stmt.Config{
		Conn:     fake,
		Txn:      txn.New(fake, txn.PolicyNone),
		Resolver: &param.Resolver{},
		Opts:     convert.Options{},
		RewriteCfg: rewrite.Config{
			Encoding: chartab.UTF8,
		},
		Autocommit: true,
		Table:      table,
	}
	return stmt.Alloc(cfg)
}

func TestAllocStartsAllocated(t *testing.T) {
	s := newTestStatement(wiretest.New())
	require.Equal(t, stmt.Allocated, s.Status())
}

func TestExecDirectSelectPopulatesResult(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{
		Status: wireproto.TuplesOK,
		Columns: []wireproto.ColumnDescriptor{
			{Name: "id", TypeOID: 23},
		},
		Rows: [][][]byte{{[]byte("1")}, {[]byte("2")}},
	})

	s := newTestStatement(fake)
	err := s.ExecDirect(context.Background(), "SELECT id FROM t", 0)
	require.NoError(t, err)
	require.Equal(t, stmt.Finished, s.Status())

	n, err := s.NumResultCols()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.Fetch(context.Background()))
	require.NoError(t, s.Fetch(context.Background()))
	err = s.Fetch(context.Background())
	require.Error(t, err)
}

func TestPrepareAndExecuteWithParameter(t *testing.T) {
	fake := wiretest.New()
	fake.Described["SELECT * FROM accounts WHERE id = $1"] = wiretest.DescribeResponse{
		ParamTypes: []uint32{23},
	}
	fake.Results = append(fake.Results, &wireproto.Result{
		Status:       wireproto.CommandOK,
		RowsAffected: 1,
	})

	s := newTestStatement(fake)
	require.NoError(t, s.Prepare(context.Background(), "SELECT * FROM accounts WHERE id = ?"))
	require.Equal(t, stmt.Ready, s.Status())

	indicator := int64(0)
	require.NoError(t, s.BindParameter(1, stmt.ParamInput, convert.CSLong, convert.Integer, 0, 0, convert.Binding{
		CType: convert.CSLong, Buffer: []byte("42"), Indicator: &indicator,
	}))

	require.NoError(t, s.Execute(context.Background(), 0))
	require.Equal(t, stmt.Finished, s.Status())

	n, err := s.RowCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestNativeSQLExpandsEscapesOnly(t *testing.T) {
	s := newTestStatement(wiretest.New())
	text, err := s.NativeSQL("SELECT {fn NOW()}")
	require.NoError(t, err)
	require.Contains(t, text, "now()")
}

func TestFreeDropResetsState(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1})

	s := newTestStatement(fake)
	require.NoError(t, s.ExecDirect(context.Background(), "DELETE FROM t", 0))
	require.NoError(t, s.Free(stmt.FreeDrop))
	require.Equal(t, stmt.Allocated, s.Status())
}

func TestCancelMarksFinished(t *testing.T) {
	fake := wiretest.New()
	s := newTestStatement(fake)
	require.NoError(t, s.Cancel(context.Background()))
	require.Equal(t, stmt.Finished, s.Status())
	require.True(t, fake.Cancelled)
}

// TestSetPosDeleteAgainstPlainSelectResult exercises SQLSetPos against the
// result of an ordinary SELECT (the statement's result cache is built via
// result.NewManual, not an incremental block fetch). A fresh NewManual
// result used to leave its keyset slice empty while rows held every row,
// so r.KeySet(idx) always reported the row out of range and every
// positioned update against a non-cursor result failed before ever
// reaching the server.
func TestSetPosDeleteAgainstPlainSelectResult(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results,
		&wireproto.Result{
			Status:  wireproto.TuplesOK,
			Columns: []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}},
			Rows:    [][][]byte{{[]byte("1")}, {[]byte("2")}},
		},
		&wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1},
	)

	s := newTestStatementForTable(fake, "accounts")
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT id FROM accounts", 0))
	require.NoError(t, s.SetStmtAttr(stmt.AttrRowsetSize, 1))

	statuses, err := s.ExtendedFetch(context.Background(), stmt.FetchNext, 0, 1)
	require.NoError(t, err)
	require.Equal(t, []stmt.RowStatus{result.RowSuccess}, statuses)

	require.NoError(t, s.SetPos(context.Background(), 1, stmt.PosDelete, stmt.LockNoChange))
}

// TestBulkOperationsAddAgainstPlainSelectResult exercises SQLBulkOperations'
// BulkAdd, which appends a row via result.AppendRows and then tracks a
// result.SetKeySet call for it — the same NewManual-backed keyset path
// TestSetPosDeleteAgainstPlainSelectResult covers for PosDelete.
func TestBulkOperationsAddAgainstPlainSelectResult(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results,
		&wireproto.Result{
			Status:  wireproto.TuplesOK,
			Columns: []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}},
			Rows:    [][][]byte{{[]byte("1")}},
		},
		&wireproto.Result{
			Status: wireproto.TuplesOK,
			Rows:   [][][]byte{{[]byte("(2,1)"), []byte("99")}},
		},
	)

	s := newTestStatementForTable(fake, "accounts")
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT id FROM accounts", 0))

	require.NoError(t, s.BulkOperations(context.Background(), stmt.BulkAdd))
}

// TestBulkOperationsDeleteByBookmark exercises SQLBulkOperations'
// bookmark-driven delete, the same NewManual-backed keyset path as above
// but reached through BulkOperations instead of SetPos directly.
func TestBulkOperationsDeleteByBookmark(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results,
		&wireproto.Result{
			Status:  wireproto.TuplesOK,
			Columns: []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}},
			Rows:    [][][]byte{{[]byte("1")}},
		},
		&wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1},
	)

	s := newTestStatementForTable(fake, "accounts")
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT id FROM accounts", 0))
	require.NoError(t, s.SetStmtAttr(stmt.AttrRowsetSize, 1))

	_, err := s.ExtendedFetch(context.Background(), stmt.FetchNext, 0, 1)
	require.NoError(t, err)

	require.NoError(t, s.BulkOperations(context.Background(), stmt.BulkDeleteByBookmark))
}
