package pqodbc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
	"github.com/jeroenrinzema/pqodbc/internal/wiretest"
)

func TestDescribeColReportsExtendedFields(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{
		Status: wireproto.TuplesOK,
		Columns: []wireproto.ColumnDescriptor{
			{Name: "id", TypeOID: 26},           // oid: unsigned
			{Name: "note", TypeOID: 17},         // bytea: not searchable
			{Name: "price", TypeOID: 1700, TypeModifier: (10 << 16) + 2 + 4},
		},
		Rows: [][][]byte{},
	})

	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT id, note, price FROM t", 0))

	idCol, err := s.DescribeCol(1)
	require.NoError(t, err)
	require.True(t, idCol.Unsigned)
	require.True(t, idCol.Searchable)

	noteCol, err := s.DescribeCol(2)
	require.NoError(t, err)
	require.False(t, noteCol.Searchable)

	priceCol, err := s.DescribeCol(3)
	require.NoError(t, err)
	require.EqualValues(t, 10, priceCol.ColumnSize)
	require.EqualValues(t, 2, priceCol.DecimalDigits)
}

func TestDescribeColBoolsAsChar(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{
		Status:  wireproto.TuplesOK,
		Columns: []wireproto.ColumnDescriptor{{Name: "active", TypeOID: 16}},
		Rows:    [][][]byte{},
	})

	c := newTestConn(fake, WithBoolsAsChar())
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT active FROM t", 0))

	col, err := s.DescribeCol(1)
	require.NoError(t, err)
	require.Equal(t, convert.Varchar, col.SQLType)
	require.EqualValues(t, 5, col.ColumnSize)
}

func TestFetchRefcursorsExpandsResultSet(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results,
		&wireproto.Result{
			Status:  wireproto.TuplesOK,
			Columns: []wireproto.ColumnDescriptor{{Name: "cursor_name", TypeOID: refcursorOID}},
			Rows:    [][][]byte{{[]byte("mycursor")}},
		},
		&wireproto.Result{
			Status:  wireproto.TuplesOK,
			Columns: []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}},
			Rows:    [][][]byte{{[]byte("5")}},
		},
	)

	c := newTestConn(fake, WithFetchRefcursors())
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT * FROM proc()", 0))

	n, err := s.NumResultCols()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	col, err := s.DescribeCol(1)
	require.NoError(t, err)
	require.Equal(t, "id", col.Name)
}

func TestPutDataStreamsLargeObject(t *testing.T) {
	fake := wiretest.New()
	fake.Described["INSERT INTO blobs (data) VALUES ($1)"] = wiretest.DescribeResponse{ParamTypes: []uint32{26}}
	fake.Results = append(fake.Results, &wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1})

	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)

	require.NoError(t, s.Prepare(context.Background(), "INSERT INTO blobs (data) VALUES (?)"))

	atExec := int64(-2)
	require.NoError(t, s.BindParameter(1, ParamInput, convert.CBinary, convert.Bytea, 0, 0, Binding{
		CType: convert.CBinary, Indicator: &atExec,
	}))

	token, ok, err := s.ParamData()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, token)

	require.NoError(t, s.PutData([]byte("hello ")))
	require.NoError(t, s.PutData([]byte("world")))
	require.NoError(t, s.FinishPutData(context.Background()))

	require.NoError(t, s.Execute(context.Background(), 0))
	n, err := s.RowCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestCancelThroughRootStmt(t *testing.T) {
	fake := wiretest.New()
	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.Cancel())
	require.True(t, fake.Cancelled)
}

func TestBrokenWireLatchesConnAndStmt(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{Status: wireproto.CommandOK})

	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.ExecDirect(context.Background(), "SELECT 1", 0))

	fake.IsBroken = true

	err = s.ExecDirect(context.Background(), "SELECT 1", 0)
	require.ErrorIs(t, err, ErrBroken)

	_, err = c.Alloc()
	require.ErrorIs(t, err, ErrBroken)
}

func TestFreeDropReleasesHandle(t *testing.T) {
	fake := wiretest.New()
	c := newTestConn(fake)
	s, err := c.Alloc()
	require.NoError(t, err)
	require.NoError(t, s.Free(FreeDrop))
	require.False(t, handles.Valid(s.handle))
}
