package scan_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/cursor"
	"github.com/jeroenrinzema/pqodbc/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drive(t *testing.T, src string) []struct {
	State scan.State
	Text  string
} {
	t.Helper()

	c := cursor.New([]byte(src), chartab.UTF8)
	sc := &scan.Scanner{}

	var out []struct {
		State scan.State
		Text  string
	}

	for !c.Done() {
		state, bytes := sc.Step(c)
		require.NotEmpty(t, bytes)
		out = append(out, struct {
			State scan.State
			Text  string
		}{state, string(bytes)})
	}

	return out
}

func TestIdentifierRun(t *testing.T) {
	t.Parallel()

	spans := drive(t, "abc_1")
	require.Len(t, spans, 1)
	assert.Equal(t, scan.Identifier, spans[0].State)
	assert.Equal(t, "abc_1", spans[0].Text)
}

func TestLiteralWithDoubledQuote(t *testing.T) {
	t.Parallel()

	spans := drive(t, "'it''s'")
	require.Len(t, spans, 1)
	assert.Equal(t, scan.Literal, spans[0].State)
	assert.Equal(t, "'it''s'", spans[0].Text)
}

func TestDquoteIdentifier(t *testing.T) {
	t.Parallel()

	spans := drive(t, `"my col"`)
	require.Len(t, spans, 1)
	assert.Equal(t, scan.DquoteIdent, spans[0].State)
	assert.Equal(t, `"my col"`, spans[0].Text)
}

func TestDollarQuoteWithEmbeddedSyntax(t *testing.T) {
	t.Parallel()

	spans := drive(t, `$$a ? { ' " b$$`)
	require.Len(t, spans, 1)
	assert.Equal(t, scan.DollarQuote, spans[0].State)
	assert.Equal(t, `$$a ? { ' " b$$`, spans[0].Text)
}

func TestTaggedDollarQuote(t *testing.T) {
	t.Parallel()

	spans := drive(t, `$tag$hello$tag$`)
	require.Len(t, spans, 1)
	assert.Equal(t, scan.DollarQuote, spans[0].State)
	assert.Equal(t, `$tag$hello$tag$`, spans[0].Text)
}

func TestBlockCommentNesting(t *testing.T) {
	t.Parallel()

	spans := drive(t, "/* outer /* inner */ still */")
	require.Len(t, spans, 1)
	assert.Equal(t, scan.BlockComment, spans[0].State)
	assert.Equal(t, "/* outer /* inner */ still */", spans[0].Text)
}

func TestLineComment(t *testing.T) {
	t.Parallel()

	spans := drive(t, "-- comment\nSELECT")
	require.Len(t, spans, 2)
	assert.Equal(t, scan.LineComment, spans[0].State)
	assert.Equal(t, "-- comment\n", spans[0].Text)
	assert.Equal(t, scan.Identifier, spans[1].State)
}

func TestEscapedLiteralBackslash(t *testing.T) {
	t.Parallel()

	c := cursor.New([]byte(`'a\'b'`), chartab.UTF8)
	sc := &scan.Scanner{EscapeChar: '\\'}
	state, bytes := sc.Step(c)
	assert.Equal(t, scan.Literal, state)
	assert.Equal(t, `'a\'b'`, string(bytes))
}

func TestIdlePassthroughIsSingleByte(t *testing.T) {
	t.Parallel()

	spans := drive(t, "?,?")
	require.Len(t, spans, 3)
	for _, s := range spans {
		assert.Equal(t, scan.Idle, s.State)
	}
}
