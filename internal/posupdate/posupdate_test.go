package posupdate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/posupdate"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
	"github.com/jeroenrinzema/pqodbc/internal/wiretest"
)

func TestUpdateRereadsCTID(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results,
		&wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1},
		&wireproto.Result{Status: wireproto.TuplesOK, Rows: [][][]byte{{[]byte("(0,2)")}}},
	)

	target := posupdate.Target{Conn: fake, Schema: "public", Table: "accounts"}
	entry := result.KeySetEntry{Block: 0, Offset: 1, OID: 42}

	updated, err := posupdate.Update(context.Background(), target, entry, []posupdate.ColumnBinding{
		{Name: "balance", Value: "100"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, updated.Offset)

	require.Len(t, fake.Calls, 2)
	require.Equal(t, "SendQuery", fake.Calls[0].Method)
	require.Contains(t, fake.Calls[0].SQL, `UPDATE "public"."accounts" SET "balance" = 100 WHERE ctid = '(0,1)' AND oid = 42`)
}

func TestUpdateRowVersionChanged(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 0})

	target := posupdate.Target{Conn: fake, Table: "accounts"}
	entry := result.KeySetEntry{Block: 0, Offset: 1, OID: 42}

	_, err := posupdate.Update(context.Background(), target, entry, []posupdate.ColumnBinding{
		{Name: "balance", Value: "100"},
	})
	require.ErrorIs(t, err, posupdate.ErrRowVersionChanged)
}

func TestDelete(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{Status: wireproto.CommandOK, RowsAffected: 1})

	target := posupdate.Target{Conn: fake, Table: "accounts"}
	entry := result.KeySetEntry{Block: 1, Offset: 3, OID: 7}

	err := posupdate.Delete(context.Background(), target, entry)
	require.NoError(t, err)
	require.Contains(t, fake.Calls[0].SQL, `DELETE FROM "accounts" WHERE ctid = '(1,3)' AND oid = 7`)
}

func TestInsertReturningCTID(t *testing.T) {
	fake := wiretest.New()
	fake.Results = append(fake.Results, &wireproto.Result{
		Status: wireproto.TuplesOK,
		Rows:   [][][]byte{{[]byte("(4,1)"), []byte("99")}},
	})

	target := posupdate.Target{Conn: fake, Table: "accounts"}
	entry, err := posupdate.Insert(context.Background(), target, []posupdate.ColumnBinding{
		{Name: "name", Value: "'bob'"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, entry.Block)
	require.EqualValues(t, 1, entry.Offset)
	require.EqualValues(t, 99, entry.OID)
	require.Equal(t, result.RowAdded, entry.Status)
}
