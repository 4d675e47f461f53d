// Package rewrite implements the escape rewriter (component D): it expands
// ODBC escape sequences ({d '...'}, {t '...'}, {ts '...'}, {oj ...},
// {escape '...'}, {fn ...}, {call ...}, {?= call ...}) into plain
// PostgreSQL SQL text, splits the source into top-level statements on ';',
// and leaves bare '?' parameter markers untouched for component E to
// resolve in a later pass.
package rewrite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/cursor"
	"github.com/jeroenrinzema/pqodbc/internal/scalarfn"
	"github.com/jeroenrinzema/pqodbc/internal/scan"
	"github.com/jeroenrinzema/pqodbc/pkg/buffer"
)

// Config carries the per-statement decisions the rewriter needs that it
// cannot derive from the source text alone.
type Config struct {
	Encoding chartab.Encoding
	// EscapeChar is the connection's configured backslash-escape character,
	// passed through to the lexical scanner.
	EscapeChar byte
	// HasOutParams reports whether the statement has bound OUT/INOUT
	// parameters besides a {?=call} return slot, deciding between
	// "SELECT proc(args)" and "SELECT * FROM proc(args)" for a bare
	// {call proc(args)} escape.
	HasOutParams bool
}

// Statement is one top-level, ';'-delimited statement produced by a
// rewrite pass.
type Statement struct {
	Text       string
	ParamCount int
	ProcReturn bool
}

// Result is the full output of rewriting one source query, possibly
// containing several statements.
type Result struct {
	Statements []Statement
}

// Rewrite expands escapes and splits cfg's source into top-level
// statements. Bare '?' markers are preserved verbatim; component E
// resolves them in a separate pass (see Substitute).
func Rewrite(src string, cfg Config) (*Result, error) {
	c := cursor.New([]byte(src), cfg.Encoding)
	sc := &scan.Scanner{EscapeChar: cfg.EscapeChar}

	res := &Result{}
	out := buffer.NewBuilder()
	paramCount := 0
	procReturn := false

	flush := func() {
		text := out.String()
		if strings.TrimSpace(text) != "" {
			res.Statements = append(res.Statements, Statement{
				Text:       text,
				ParamCount: paramCount,
				ProcReturn: procReturn,
			})
		}
		out.Reset()
		paramCount = 0
		procReturn = false
	}

	for !c.Done() {
		state, bytes := sc.Step(c)
		if state != scan.Idle {
			out.AddBytes(bytes)
			continue
		}

		b := bytes[0]
		switch b {
		case '{':
			pr, err := expandEscape(c, sc, out, cfg, &paramCount)
			if err != nil {
				return nil, err
			}
			if pr {
				procReturn = true
			}

		case ';':
			flush()

		case '?':
			out.AddByte('?')
			paramCount++

		default:
			out.AddByte(b)
		}
	}
	flush()

	if out.Error() != nil {
		return nil, out.Error()
	}
	return res, nil
}

// expandEscape is called with the cursor positioned just after an opening
// '{' seen in the idle state. It dispatches on the escape keyword and
// writes the expansion into out, returning whether this escape was a
// {?=call} return-value form.
func expandEscape(c *cursor.Cursor, sc *scan.Scanner, out *buffer.Builder, cfg Config, paramCount *int) (bool, error) {
	skipSpace(c)

	procReturn := false
	if b, ok := c.PeekByte(); ok && b == '?' {
		c.Advance()
		*paramCount++
		skipSpace(c)
		if b, ok := c.PeekByte(); !ok || b != '=' {
			return false, fmt.Errorf("rewrite: expected '=' after '?' in {?=call ...} escape")
		}
		c.Advance()
		skipSpace(c)
		procReturn = true
	}

	key := readIdentifier(c)
	lowered := strings.ToLower(key)

	switch lowered {
	case "d", "t", "ts":
		skipSpace(c)
		lit, err := readQuotedLiteral(c, sc)
		if err != nil {
			return false, err
		}
		skipSpace(c)
		if err := expectByte(c, '}'); err != nil {
			return false, err
		}
		castType := map[string]string{"d": "date", "t": "time", "ts": "timestamp"}[lowered]
		out.AddString(lit)
		out.AddString("::")
		out.AddString(castType)
		return procReturn, nil

	case "escape":
		skipSpace(c)
		lit, err := readQuotedLiteral(c, sc)
		if err != nil {
			return false, err
		}
		skipSpace(c)
		if err := expectByte(c, '}'); err != nil {
			return false, err
		}
		out.AddString("escape ")
		out.AddString(lit)
		return procReturn, nil

	case "oj":
		body, err := consumeBalanced(c, sc, '{', '}')
		if err != nil {
			return false, err
		}
		inner, err := Rewrite(body, cfg)
		if err != nil {
			return false, err
		}
		out.AddByte('(')
		writeInnerStatements(out, inner, paramCount)
		out.AddByte(')')
		return procReturn, nil

	case "fn":
		skipSpace(c)
		return procReturn, expandFn(c, sc, out, cfg, paramCount)

	case "call":
		return procReturn, expandCall(c, sc, out, cfg, paramCount, procReturn)

	default:
		// Unrecognized escape keyword: emit the bare identifier and the
		// remainder of the brace body verbatim, matching "unknown names
		// pass through" for the scalar-function table.
		rest, err := consumeBalancedFrom(c, sc, '{', '}', key)
		if err != nil {
			return false, err
		}
		out.AddString(rest)
		return procReturn, nil
	}
}

func writeInnerStatements(out *buffer.Builder, inner *Result, paramCount *int) {
	for i, st := range inner.Statements {
		if i > 0 {
			out.AddString("; ")
		}
		out.AddString(st.Text)
		*paramCount += st.ParamCount
	}
}

func expandCall(c *cursor.Cursor, sc *scan.Scanner, out *buffer.Builder, cfg Config, paramCount *int, procReturn bool) error {
	skipSpace(c)
	name := readQualifiedIdentifier(c)
	skipSpace(c)
	if err := expectByte(c, '('); err != nil {
		return err
	}
	argsRaw, err := consumeBalanced(c, sc, '(', ')')
	if err != nil {
		return err
	}
	skipSpace(c)
	if err := expectByte(c, '}'); err != nil {
		return err
	}

	args, err := rewriteArgs(argsRaw, cfg, paramCount)
	if err != nil {
		return err
	}

	joined := strings.Join(args, ", ")
	if procReturn || !cfg.HasOutParams {
		out.AddString("SELECT ")
		out.AddString(name)
		out.AddByte('(')
		out.AddString(joined)
		out.AddByte(')')
		return nil
	}

	out.AddString("SELECT * FROM ")
	out.AddString(name)
	out.AddByte('(')
	out.AddString(joined)
	out.AddByte(')')
	return nil
}

func expandFn(c *cursor.Cursor, sc *scan.Scanner, out *buffer.Builder, cfg Config, paramCount *int) error {
	name := readQualifiedIdentifier(c)
	skipSpace(c)
	if err := expectByte(c, '('); err != nil {
		return err
	}
	argsRaw, err := consumeBalanced(c, sc, '(', ')')
	if err != nil {
		return err
	}
	skipSpace(c)
	if err := expectByte(c, '}'); err != nil {
		return err
	}

	args, err := rewriteArgs(argsRaw, cfg, paramCount)
	if err != nil {
		return err
	}

	if strings.EqualFold(name, "CONVERT") {
		return expandConvert(out, args)
	}

	entry, ok := scalarfn.Lookup(name, args)
	if !ok {
		out.AddString(name)
		out.AddByte('(')
		out.AddString(strings.Join(args, ", "))
		out.AddByte(')')
		return nil
	}

	out.AddString(scalarfn.Expand(entry.Template, args))
	return nil
}

// expandConvert handles {fn CONVERT(expr, SQL_type)} per spec.md §4.4: a
// bare numeric argument gets a single-quoted cast prefix; otherwise the
// first argument is wrapped in parens with a trailing ::pgtype cast.
func expandConvert(out *buffer.Builder, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("rewrite: CONVERT expects 2 arguments, got %d", len(args))
	}
	pgType, ok := scalarfn.ConvertTypeOID(strings.TrimSpace(args[1]))
	if !ok {
		return fmt.Errorf("rewrite: unknown CONVERT target type %q", args[1])
	}

	expr := strings.TrimSpace(args[0])
	if isBareNumeric(expr) {
		out.AddByte('\'')
		out.AddString(expr)
		out.AddString("'::")
		out.AddString(pgType)
		return nil
	}

	out.AddByte('(')
	out.AddString(expr)
	out.AddString(")::")
	out.AddString(pgType)
	return nil
}

func isBareNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// rewriteArgs recursively rewrites each comma-separated top-level argument
// (splitting respects nested parens/quotes/comments through the lexical
// scanner) and accumulates their parameter counts into paramCount.
func rewriteArgs(raw string, cfg Config, paramCount *int) ([]string, error) {
	parts := splitTopLevel(raw, cfg)
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		inner, err := Rewrite(p, cfg)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for i, st := range inner.Statements {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(st.Text)
			*paramCount += st.ParamCount
		}
		args = append(args, sb.String())
	}
	return args, nil
}

// splitTopLevel splits raw on commas that are not nested inside parens,
// quotes, comments or dollar-quotes.
func splitTopLevel(raw string, cfg Config) []string {
	c := cursor.New([]byte(raw), cfg.Encoding)
	sc := &scan.Scanner{EscapeChar: cfg.EscapeChar}

	var parts []string
	start := 0
	depth := 0

	for !c.Done() {
		pos := c.Pos()
		state, bytes := sc.Step(c)
		if state != scan.Idle {
			continue
		}
		switch bytes[0] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:pos])
				start = c.Pos()
			}
		}
	}
	parts = append(parts, raw[start:])
	return parts
}

func skipSpace(c *cursor.Cursor) {
	for {
		b, ok := c.PeekByte()
		if !ok || (b != ' ' && b != '\t' && b != '\n' && b != '\r') {
			return
		}
		c.Advance()
	}
}

func expectByte(c *cursor.Cursor, want byte) error {
	b, ok := c.PeekByte()
	if !ok || b != want {
		return fmt.Errorf("rewrite: expected %q at position %d", want, c.Pos())
	}
	c.Advance()
	return nil
}

func readIdentifier(c *cursor.Cursor) string {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok || !(b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')) {
			break
		}
		c.Advance()
	}
	return sliceString(c, start)
}

// readQualifiedIdentifier reads an identifier allowing interior '.' for
// schema-qualified procedure/function names.
func readQualifiedIdentifier(c *cursor.Cursor) string {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok || !(b == '_' || b == '.' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')) {
			break
		}
		c.Advance()
	}
	return sliceString(c, start)
}

func sliceString(c *cursor.Cursor, start int) string {
	end := c.Pos()
	b := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		v, _ := c.PeekAt(i)
		b = append(b, v)
	}
	return string(b)
}

// readQuotedLiteral expects the cursor to be positioned at a single-quoted
// literal and returns it verbatim (including the surrounding quotes), using
// the scanner so doubled quotes and backslash escaping are honored.
func readQuotedLiteral(c *cursor.Cursor, sc *scan.Scanner) (string, error) {
	b, ok := c.PeekByte()
	if !ok || b != '\'' {
		return "", fmt.Errorf("rewrite: expected quoted literal at position %d", c.Pos())
	}
	state, bytes := sc.Step(c)
	if state != scan.Literal {
		return "", fmt.Errorf("rewrite: malformed literal at position %d", c.Pos())
	}
	return string(bytes), nil
}

// consumeBalanced reads from just after an already-consumed open byte (the
// caller has already advanced past the opening byte — see callers)
// until the matching close byte at nesting depth 0, honoring lexical
// states so braces/parens inside quotes/comments are ignored. It does not
// include the opening or closing byte in the returned text.
func consumeBalanced(c *cursor.Cursor, sc *scan.Scanner, open, close byte) (string, error) {
	depth := 1
	start := c.Pos()
	for !c.Done() {
		pos := c.Pos()
		state, bytes := sc.Step(c)
		if state != scan.Idle {
			continue
		}
		switch bytes[0] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return sliceRange(c, start, pos), nil
			}
		}
	}
	return "", fmt.Errorf("rewrite: unbalanced %q/%q starting at %d", open, close, start)
}

// consumeBalancedFrom handles the unrecognized-escape-keyword fallback: key
// has already been consumed, so prefix it back onto the raw body text.
func consumeBalancedFrom(c *cursor.Cursor, sc *scan.Scanner, open, close byte, key string) (string, error) {
	body, err := consumeBalanced(c, sc, open, close)
	if err != nil {
		return "", err
	}
	return key + body, nil
}

func sliceRange(c *cursor.Cursor, start, end int) string {
	b := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		v, _ := c.PeekAt(i)
		b = append(b, v)
	}
	return string(b)
}
