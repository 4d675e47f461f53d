package result_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

func fiveRows() *result.Result {
	cols := []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}}
	rows := [][][]byte{
		{[]byte("1")}, {[]byte("2")}, {[]byte("3")}, {[]byte("4")}, {[]byte("5")},
	}
	return result.NewManual(cols, rows)
}

func TestScrollNextWalksForward(t *testing.T) {
	r := fiveRows()
	for want := 0; want < 5; want++ {
		pos, err := r.Scroll(result.Next, 0)
		require.NoError(t, err)
		require.Equal(t, want, pos)
	}

	// one past the last row is the sentinel position.
	pos, err := r.Scroll(result.Next, 0)
	require.NoError(t, err)
	require.Equal(t, 5, pos)
}

func TestScrollPriorWalksBackward(t *testing.T) {
	r := fiveRows()
	_, err := r.Scroll(result.Last, 0)
	require.NoError(t, err)

	for want := 3; want >= 0; want-- {
		pos, err := r.Scroll(result.Prior, 0)
		require.NoError(t, err)
		require.Equal(t, want, pos)
	}

	// one before the first row is the sentinel position.
	pos, err := r.Scroll(result.Prior, 0)
	require.NoError(t, err)
	require.Equal(t, -1, pos)
}

func TestScrollFirstAndLast(t *testing.T) {
	r := fiveRows()

	pos, err := r.Scroll(result.Last, 0)
	require.NoError(t, err)
	require.Equal(t, 4, pos)

	pos, err = r.Scroll(result.First, 0)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
}

func TestScrollAbsoluteClamps(t *testing.T) {
	r := fiveRows()

	pos, err := r.Scroll(result.Absolute, 2)
	require.NoError(t, err)
	require.Equal(t, 2, pos)

	pos, err = r.Scroll(result.Absolute, 100)
	require.NoError(t, err)
	require.Equal(t, 5, pos, "an out-of-range Absolute target clamps to the one-past-end sentinel")

	pos, err = r.Scroll(result.Absolute, -100)
	require.NoError(t, err)
	require.Equal(t, -1, pos, "an out-of-range negative Absolute target clamps to the before-first sentinel")
}

func TestScrollRelative(t *testing.T) {
	r := fiveRows()
	_, err := r.Scroll(result.Absolute, 1)
	require.NoError(t, err)

	pos, err := r.Scroll(result.Relative, 2)
	require.NoError(t, err)
	require.Equal(t, 3, pos)

	pos, err = r.Scroll(result.Relative, -3)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
}

func TestScrollBookmarkSeeksDecodedIndex(t *testing.T) {
	r := fiveRows()
	bookmark := result.EncodeBookmark(3)
	idx, err := result.DecodeBookmark(bookmark)
	require.NoError(t, err)

	pos, err := r.Scroll(result.Bookmark, int64(idx))
	require.NoError(t, err)
	require.Equal(t, 3, pos)
}

func TestScrollSkipsDeletedRows(t *testing.T) {
	r := fiveRows()
	r.MarkDeleted(2)

	_, err := r.Scroll(result.Absolute, 0)
	require.NoError(t, err)

	pos, err := r.Scroll(result.Next, 0)
	require.NoError(t, err)
	require.Equal(t, 1, pos)

	pos, err = r.Scroll(result.Next, 0)
	require.NoError(t, err)
	require.Equal(t, 3, pos, "Next must skip over the deleted row at index 2")
}

func TestScrollForwardOnlyRejectsNonNext(t *testing.T) {
	cols := []wireproto.ColumnDescriptor{{Name: "id", TypeOID: 23}}
	r := result.NewBackendDriven(nil, cols, result.ForwardOnly, 0)
	r.AppendRows([][][]byte{{[]byte("1")}, {[]byte("2")}})

	_, err := r.Scroll(result.Next, 0)
	require.NoError(t, err)

	_, err = r.Scroll(result.Prior, 0)
	require.Error(t, err)

	_, err = r.Scroll(result.First, 0)
	require.Error(t, err)

	_, err = r.Scroll(result.Absolute, 0)
	require.Error(t, err)
}

func TestScrollRelativeZeroIsIdempotent(t *testing.T) {
	r := fiveRows()
	_, err := r.Scroll(result.Absolute, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		pos, err := r.Scroll(result.Relative, 0)
		require.NoError(t, err)
		require.Equal(t, 2, pos, "Scroll(Relative, 0) must leave the current row unchanged")
	}
}

func TestScrollIsIdempotentAtSentinelPositions(t *testing.T) {
	r := fiveRows()

	pos, err := r.Scroll(result.Last, 0)
	require.NoError(t, err)
	require.Equal(t, 4, pos)

	pos, err = r.Scroll(result.Next, 0)
	require.NoError(t, err)
	require.Equal(t, 5, pos)

	// repeated Next past the end must keep returning the same sentinel,
	// never wrap or go out of bounds.
	for i := 0; i < 3; i++ {
		pos, err = r.Scroll(result.Next, 0)
		require.NoError(t, err)
		require.Equal(t, 5, pos)
	}

	pos, err = r.Scroll(result.First, 0)
	require.NoError(t, err)
	require.Equal(t, 0, pos)

	pos, err = r.Scroll(result.Prior, 0)
	require.NoError(t, err)
	require.Equal(t, -1, pos)

	for i := 0; i < 3; i++ {
		pos, err = r.Scroll(result.Prior, 0)
		require.NoError(t, err)
		require.Equal(t, -1, pos)
	}
}

func TestScrollUnknownOrientation(t *testing.T) {
	r := fiveRows()
	_, err := r.Scroll(result.Orientation(99), 0)
	require.Error(t, err)
}

func TestFetchBlockReturnsSuccessStatuses(t *testing.T) {
	r := fiveRows()
	rows, statuses, err := r.FetchBlock(3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []result.RowStatus{result.RowSuccess, result.RowSuccess, result.RowSuccess}, statuses)
	require.Equal(t, []byte("1"), rows[0][0])
	require.Equal(t, []byte("3"), rows[2][0])
	require.Equal(t, 3, r.Pos(), "FetchBlock must leave the cursor advanced past the last fetched row")
}

func TestFetchBlockMarksDeletedAndMissingRows(t *testing.T) {
	r := fiveRows()
	r.MarkDeleted(1)

	rows, statuses, err := r.FetchBlock(6)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	require.Equal(t, result.RowSuccess, statuses[0])
	require.Equal(t, result.RowDeleted, statuses[1])
	require.Nil(t, rows[1])
	require.Equal(t, result.RowSuccess, statuses[2])
	require.Equal(t, result.RowSuccess, statuses[3])
	require.Equal(t, result.RowSuccess, statuses[4])
	require.Equal(t, result.RowNoRow, statuses[5])
	require.Nil(t, rows[5])
}

func TestFetchBlockRejectsNonPositiveRowsetSize(t *testing.T) {
	r := fiveRows()
	_, _, err := r.FetchBlock(0)
	require.Error(t, err)
}
