package convert_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalDaySecond(t *testing.T) {
	t.Parallel()

	iv, err := convert.ParseInterval("3 days 04:05:06.25", convert.IntervalDay2Second)
	require.NoError(t, err)
	assert.Equal(t, 3, iv.Day)
	assert.Equal(t, 4, iv.Hour)
	assert.Equal(t, 5, iv.Minute)
	assert.Equal(t, 6, iv.Second)
}

func TestIntervalFormatStripsTrailingZeros(t *testing.T) {
	t.Parallel()

	iv := convert.Interval{Kind: convert.IntervalDay2Second, Day: 1, Hour: 2, Minute: 3, Second: 4, Fraction: 500000000}
	assert.Equal(t, "1 days 02:03:04.5", iv.Format(9))
}

func TestIntervalNegative(t *testing.T) {
	t.Parallel()

	iv, err := convert.ParseInterval("-1 days -02:00:00", convert.IntervalDay2Second)
	require.NoError(t, err)
	assert.True(t, iv.Negative)
}
