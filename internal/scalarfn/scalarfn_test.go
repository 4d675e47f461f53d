package scalarfn_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/scalarfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupConcat(t *testing.T) {
	t.Parallel()

	e, ok := scalarfn.Lookup("CONCAT", []string{"'foo'", "'bar'"})
	require.True(t, ok)
	assert.Equal(t, "('foo' || 'bar')", scalarfn.Expand(e.Template, []string{"'foo'", "'bar'"}))
}

func TestLookupArityDiscrimination(t *testing.T) {
	t.Parallel()

	_, ok := scalarfn.Lookup("CURDATE", []string{"1"})
	assert.False(t, ok, "CURDATE takes no arguments")

	_, ok = scalarfn.Lookup("CURDATE", nil)
	assert.True(t, ok)
}

func TestLookupFirstArgDispatch(t *testing.T) {
	t.Parallel()

	e, ok := scalarfn.Lookup("TIMESTAMPADD", []string{"SQL_TSI_DAY", "3", "ts"})
	require.True(t, ok)
	assert.Contains(t, e.Template, "make_interval(days")
}

func TestLookupUnknownPassesThrough(t *testing.T) {
	t.Parallel()

	_, ok := scalarfn.Lookup("SOME_UNKNOWN_FN", []string{"1"})
	assert.False(t, ok)
}

func TestExpandSplice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "substr(a, 1, 2)", scalarfn.Expand("substr($*)", []string{"a, 1, 2"}))
}

func TestConvertTypeOID(t *testing.T) {
	t.Parallel()

	name, ok := scalarfn.ConvertTypeOID("SQL_INTEGER")
	require.True(t, ok)
	assert.Equal(t, "integer", name)

	_, ok = scalarfn.ConvertTypeOID("SQL_UNKNOWN")
	assert.False(t, ok)
}
