package convert_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleTimeFull(t *testing.T) {
	t.Parallel()

	st, err := convert.ParseSimpleTime("2024-03-05 13:45:02.5")
	require.NoError(t, err)
	assert.Equal(t, 2024, st.Y)
	assert.Equal(t, 3, st.M)
	assert.Equal(t, 5, st.D)
	assert.Equal(t, 13, st.Hh)
	assert.Equal(t, 500000, st.Fr)
}

func TestParseSimpleTimeInfinity(t *testing.T) {
	t.Parallel()

	st, err := convert.ParseSimpleTime("infinity")
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Infinity)
}

func TestParseSimpleTimeBC(t *testing.T) {
	t.Parallel()

	st, err := convert.ParseSimpleTime("0044-01-01 BC")
	require.NoError(t, err)
	assert.True(t, st.BC)
}

func TestLFConversionRoundTrip(t *testing.T) {
	t.Parallel()

	crlf := convert.ApplyLFConversion("a\nb", true)
	assert.Equal(t, "a\r\nb", crlf)
	assert.Equal(t, "a\nb", convert.ApplyLFConversion(crlf, false))
}
