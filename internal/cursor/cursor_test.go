package cursor_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekAndAdvance(t *testing.T) {
	t.Parallel()

	c := cursor.New([]byte("abc"), chartab.UTF8)
	b, ok := c.PeekByte()
	require.True(t, ok)
	assert.Equal(t, byte('a'), b)

	assert.Equal(t, byte('a'), c.Advance())
	assert.Equal(t, 1, c.Pos())
	assert.Equal(t, "a", c.Token())
}

func TestMBCSNonAscii(t *testing.T) {
	t.Parallel()

	// "é" encodes as 0xC3 0xA9 in UTF-8; the second byte is a continuation.
	c := cursor.New([]byte("\xc3\xa9"), chartab.UTF8)
	assert.False(t, c.MBCSNonAscii())
	c.Advance()
	assert.True(t, c.MBCSNonAscii())
}

func TestDoneAtEnd(t *testing.T) {
	t.Parallel()

	c := cursor.New([]byte("x"), chartab.UTF8)
	assert.False(t, c.Done())
	c.Advance()
	assert.True(t, c.Done())
	_, ok := c.PeekByte()
	assert.False(t, ok)
}
