package convert_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	t.Parallel()

	n, err := convert.NumericFromDecimalText("-123.4500")
	require.NoError(t, err)
	assert.False(t, n.Positive)
	assert.Equal(t, int8(4), n.Scale)
	assert.Equal(t, "-123.4500", n.Format())
}

func TestNumericOverflow(t *testing.T) {
	t.Parallel()

	huge := "1" // pad to 51 digits, past what 16 bytes base-256 hold (~38 digits)
	for i := 0; i < 50; i++ {
		huge += "1"
	}
	n, err := convert.NumericFromDecimalText(huge)
	require.NoError(t, err)
	assert.True(t, n.Overflow)
}
