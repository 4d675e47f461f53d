package convert_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeByteaHex(t *testing.T) {
	t.Parallel()

	got, err := convert.DecodeBytea(`\xdeadbeef`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got)
}

func TestDecodeByteaOctal(t *testing.T) {
	t.Parallel()

	got, err := convert.DecodeBytea(`ab\000cd\\ef`)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 'c', 'd', '\\', 'e', 'f'}, got)
}

func TestEncodeByteaHexUppercase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEADBEEF", convert.EncodeByteaHex([]byte{0xde, 0xad, 0xbe, 0xef}))
}
