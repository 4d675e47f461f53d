package result_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

func threeRows() *result.Result {
	cols := []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}}
	rows := [][][]byte{
		{[]byte("1")},
		{[]byte("2")},
		{[]byte("3")},
	}
	return result.NewManual(cols, rows)
}

func TestNewManualStartsBeforeFirstRow(t *testing.T) {
	r := threeRows()
	require.Equal(t, -1, r.Pos())
	require.Equal(t, 3, r.NumRows())
	require.Equal(t, 3, r.RawLen())
}

func TestRowOutOfRange(t *testing.T) {
	r := threeRows()
	_, err := r.Row(3)
	require.Error(t, err)
	_, err = r.Row(-1)
	require.Error(t, err)
}

func TestMarkDeletedHidesRowFromCounts(t *testing.T) {
	r := threeRows()
	require.False(t, r.IsDeleted(1))

	r.MarkDeleted(1)
	require.True(t, r.IsDeleted(1))
	require.Equal(t, 2, r.NumRows())
	require.Equal(t, 3, r.RawLen())

	_, err := r.Row(1)
	require.Error(t, err)

	entry, err := r.KeySet(1)
	require.NoError(t, err)
	require.Equal(t, result.RowDeleted, entry.Status)
}

func TestSetKeySetUndoRestoresPriorEntryAndUndeletes(t *testing.T) {
	r := threeRows()
	r.MarkDeleted(2)
	require.True(t, r.IsDeleted(2))

	prior, err := r.KeySet(2)
	require.NoError(t, err)

	undo := r.SetKeySet(2, result.KeySetEntry{Block: 9, Offset: 1, Status: result.RowUpdated})
	updated, err := r.KeySet(2)
	require.NoError(t, err)
	require.Equal(t, result.RowUpdated, updated.Status)

	undo.Undo()

	restored, err := r.KeySet(2)
	require.NoError(t, err)
	require.Equal(t, prior, restored)
	require.False(t, r.IsDeleted(2), "Undo after MarkDeleted must also clear the deleted-list entry it pushed over")
}

func TestKeySetEntryCTID(t *testing.T) {
	entry := result.KeySetEntry{Block: 4, Offset: 1}
	require.Equal(t, "(4,1)", entry.CTID())
}

func TestAppendRowsGrowsCacheAndKeySet(t *testing.T) {
	r := threeRows()
	r.AppendRows([][][]byte{{[]byte("4")}, {[]byte("5")}})
	require.Equal(t, 5, r.RawLen())

	row, err := r.Row(4)
	require.NoError(t, err)
	require.Equal(t, []byte("5"), row[0])
}

func TestAppendRowsTrimsForwardOnlyPastFetchChunk(t *testing.T) {
	cols := []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}}
	r := result.NewBackendDriven(nil, cols, result.ForwardOnly, 2)

	r.AppendRows([][][]byte{{[]byte("1")}, {[]byte("2")}})
	require.Equal(t, 2, r.RawLen())

	r.AppendRows([][][]byte{{[]byte("3")}})
	require.Equal(t, 2, r.RawLen(), "forward-only cache must stay bounded at FetchChunk rows")

	row, err := r.Row(0)
	require.NoError(t, err)
	require.Equal(t, []byte("2"), row[0], "the oldest row must be the one dropped, not the newest")

	row, err = r.Row(1)
	require.NoError(t, err)
	require.Equal(t, []byte("3"), row[0])
}

func TestResolveKindDowngradesDynamic(t *testing.T) {
	require.Equal(t, result.KeysetDriven, result.ResolveKind(result.Dynamic, true))
	require.Equal(t, result.Static, result.ResolveKind(result.Dynamic, false))
	require.Equal(t, result.ForwardOnly, result.ResolveKind(result.ForwardOnly, true))
	require.Equal(t, result.Static, result.ResolveKind(result.Static, false))
}

func TestBookmarkEncodeDecodeRoundTrips(t *testing.T) {
	for _, idx := range []int{0, 1, 42, 1 << 20} {
		buf := result.EncodeBookmark(idx)
		require.Len(t, buf, 4)

		got, err := result.DecodeBookmark(buf)
		require.NoError(t, err)
		require.Equal(t, idx, got, "bookmark stability: decode(encode(idx)) must return idx unchanged")
	}
}

func TestBookmarkStableAcrossDeletes(t *testing.T) {
	r := threeRows()
	bookmark := result.EncodeBookmark(2)

	r.MarkDeleted(0)

	idx, err := result.DecodeBookmark(bookmark)
	require.NoError(t, err)
	require.Equal(t, 2, idx, "a bookmark captured before a delete must still decode to the same raw index")
}

func TestDecodeBookmarkRejectsShortBuffer(t *testing.T) {
	_, err := result.DecodeBookmark([]byte{1, 2, 3})
	require.Error(t, err)
}
