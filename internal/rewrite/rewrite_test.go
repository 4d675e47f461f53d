package rewrite_test

import (
	"testing"

	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/rewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg() rewrite.Config {
	return rewrite.Config{Encoding: chartab.UTF8}
}

func TestRewriteDateEscape(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {d '2024-01-02'}", cfg())
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "SELECT '2024-01-02'::date", res.Statements[0].Text)
}

func TestRewriteTimestampEscape(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {ts '2024-01-02 03:04:05'}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT '2024-01-02 03:04:05'::timestamp", res.Statements[0].Text)
}

func TestRewriteFnScalarFunction(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {fn UCASE(name)}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT upper(name)", res.Statements[0].Text)
}

func TestRewriteFnUnknownPassesThrough(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {fn SOMETHING_WEIRD(a, b)}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT SOMETHING_WEIRD(a, b)", res.Statements[0].Text)
}

func TestRewriteConvertNumeric(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {fn CONVERT(42, SQL_INTEGER)}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT '42'::integer", res.Statements[0].Text)
}

func TestRewriteConvertExpression(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT {fn CONVERT(price, SQL_VARCHAR)}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT (price)::text", res.Statements[0].Text)
}

func TestRewriteCallNoOutParams(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("{call my_proc(1, 2)}", cfg())
	require.NoError(t, err)
	assert.Equal(t, "SELECT my_proc(1, 2)", res.Statements[0].Text)
}

func TestRewriteCallWithOutParams(t *testing.T) {
	t.Parallel()

	c := cfg()
	c.HasOutParams = true
	res, err := rewrite.Rewrite("{call my_proc(1, 2)}", c)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM my_proc(1, 2)", res.Statements[0].Text)
}

func TestRewriteProcReturnEscape(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("{?= call my_func(?)}", cfg())
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)
	assert.True(t, res.Statements[0].ProcReturn)
	assert.Equal(t, "SELECT my_func(?)", res.Statements[0].Text)
	assert.Equal(t, 2, res.Statements[0].ParamCount)
}

func TestRewriteMultiStatementSplit(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT 1; SELECT 2", cfg())
	require.NoError(t, err)
	require.Len(t, res.Statements, 2)
	assert.Equal(t, "SELECT 1", res.Statements[0].Text)
	assert.Equal(t, " SELECT 2", res.Statements[1].Text)
}

func TestRewriteSemicolonInsideLiteralNotSplit(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("SELECT 'a;b'", cfg())
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "SELECT 'a;b'", res.Statements[0].Text)
}

func TestRewriteParamMarkerCount(t *testing.T) {
	t.Parallel()

	res, err := rewrite.Rewrite("INSERT INTO t VALUES (?, ?)", cfg())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Statements[0].ParamCount)
	assert.Equal(t, "INSERT INTO t VALUES (?, ?)", res.Statements[0].Text)
}

func TestSubstituteReplaceParams(t *testing.T) {
	t.Parallel()

	resolver := &param.Resolver{}
	counter := &param.Counter{}
	vals := []param.Value{{Literal: "'bob'"}, {Null: true}}

	out, err := rewrite.Substitute("SELECT ?, ?", chartab.UTF8, resolver, param.ReplaceParams, counter, func(n int) (param.Value, error) {
		return vals[n-1], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 'bob', NULL", out)
}

func TestSubstituteBuildingPrepare(t *testing.T) {
	t.Parallel()

	resolver := &param.Resolver{}
	counter := &param.Counter{}

	out, err := rewrite.Substitute("SELECT ?, ?", chartab.UTF8, resolver, param.BuildingPrepare, counter, func(n int) (param.Value, error) {
		return param.Value{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1, $2", out)
}

func TestSubstituteSkipsQuestionMarkInLiteral(t *testing.T) {
	t.Parallel()

	resolver := &param.Resolver{}
	counter := &param.Counter{}

	out, err := rewrite.Substitute("SELECT '?', ?", chartab.UTF8, resolver, param.BuildingPrepare, counter, func(n int) (param.Value, error) {
		return param.Value{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT '?', $1", out)
}
