package wireproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPgconnConnSatisfiesConn(t *testing.T) {
	var _ Conn = (*pgconnConn)(nil)
}

func TestResultZeroValueIsEmptyQuery(t *testing.T) {
	var r Result
	require.Equal(t, EmptyQuery, r.Status)
	require.Nil(t, r.Columns)
	require.Nil(t, r.Rows)
}

func TestStatusConstantsAreDistinct(t *testing.T) {
	statuses := []Status{EmptyQuery, CommandOK, TuplesOK, CopyIn, CopyOut, NonfatalError, FatalError}
	seen := map[Status]bool{}
	for _, s := range statuses {
		require.False(t, seen[s], "duplicate status value %d", s)
		seen[s] = true
	}
}
