// Package scan implements the parse-state machine (component B): a
// single-character driven scanner tracking idle / identifier / literal /
// dquote-identifier / dollar-quote / block-comment / line-comment states.
// Only one state bit is ever set outside idle. Multi-byte continuation
// bytes (per internal/cursor) are always appended verbatim to whichever
// state is active without triggering a transition.
package scan

import "github.com/jeroenrinzema/pqodbc/internal/cursor"

// State names the lexical state the scanner is in.
type State byte

const (
	Idle State = iota
	Identifier
	Literal
	DquoteIdent
	DollarQuote
	BlockComment
	LineComment
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Identifier:
		return "Identifier"
	case Literal:
		return "Literal"
	case DquoteIdent:
		return "DquoteIdent"
	case DollarQuote:
		return "DollarQuote"
	case BlockComment:
		return "BlockComment"
	case LineComment:
		return "LineComment"
	default:
		return "Unknown"
	}
}

// Scanner drives one pass over a Cursor. EscapeChar, when non-zero, is the
// connection's configured backslash-escape character; a literal introduced
// by E'...' always honors backslash escapes regardless of EscapeChar.
type Scanner struct {
	EscapeChar byte

	state   State
	tag     string // dollar-quote tag, without the surrounding '$'
	depth   int    // block comment nesting depth
	escaped bool   // escape-in-literal active for the current Literal span
}

// State returns the scanner's current lexical state.
func (s *Scanner) State() State { return s.state }

// Step consumes exactly one lexical unit starting at the cursor's current
// position and returns the state that governed it together with the raw
// bytes consumed. Outside any active state (Idle), a unit is always a
// single byte so the caller can inspect it for special handling ('{', '}',
// '?', ';'). Once a state is entered (Literal, DquoteIdent, DollarQuote,
// BlockComment, LineComment), Step consumes the entire span up to and
// including its closing delimiter in one call, so embedded '?'/'{' bytes
// never reach the caller as syntax.
func (s *Scanner) Step(c *cursor.Cursor) (State, []byte) {
	if c.Done() {
		return Idle, nil
	}

	if c.MBCSNonAscii() {
		return s.state, []byte{c.Advance()}
	}

	switch s.state {
	case Idle:
		return s.stepIdle(c)
	case Identifier:
		return Identifier, s.consumeIdentifier(c)
	case Literal:
		return Literal, s.consumeLiteral(c)
	case DquoteIdent:
		return DquoteIdent, s.consumeDquote(c)
	case DollarQuote:
		return DollarQuote, s.consumeDollarQuote(c)
	case BlockComment:
		return BlockComment, s.consumeBlockComment(c)
	case LineComment:
		return LineComment, s.consumeLineComment(c)
	default:
		return Idle, []byte{c.Advance()}
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func (s *Scanner) stepIdle(c *cursor.Cursor) (State, []byte) {
	b, _ := c.PeekByte()

	switch {
	case isIdentStart(b):
		s.state = Identifier
		return Identifier, s.consumeIdentifier(c)

	case b == '\'':
		// E'...' (possibly preceded by whitespace-insensitive token "e")
		// always enables backslash escapes inside the literal.
		s.escaped = s.EscapeChar != 0 || c.Token() == "e"
		s.state = Literal
		c.ResetToken()
		open := c.Advance()
		return Literal, append([]byte{open}, s.consumeLiteral(c)...)

	case b == '"':
		s.state = DquoteIdent
		c.ResetToken()
		open := c.Advance()
		return DquoteIdent, append([]byte{open}, s.consumeDquote(c)...)

	case b == '$':
		if tag, ok := tryDollarTag(c); ok {
			s.tag = tag
			s.state = DollarQuote
			return DollarQuote, append([]byte("$"+tag+"$"), s.consumeDollarQuote(c)...)
		}
		c.ResetToken()
		return Idle, []byte{c.Advance()}

	case b == '/':
		if next, ok := c.PeekAt(c.Pos() + 1); ok && next == '*' {
			s.depth = 1
			s.state = BlockComment
			c.ResetToken()
			buf := []byte{c.Advance(), c.Advance()}
			body := s.consumeBlockComment(c)
			return BlockComment, append(buf, body...)
		}
		c.ResetToken()
		return Idle, []byte{c.Advance()}

	case b == '-':
		if next, ok := c.PeekAt(c.Pos() + 1); ok && next == '-' {
			s.state = LineComment
			c.ResetToken()
			buf := []byte{c.Advance(), c.Advance()}
			body := s.consumeLineComment(c)
			return LineComment, append(buf, body...)
		}
		c.ResetToken()
		return Idle, []byte{c.Advance()}

	default:
		c.Advance()
		if !isIdentCont(b) {
			c.ResetToken()
		}
		return Idle, []byte{b}
	}
}

func (s *Scanner) consumeIdentifier(c *cursor.Cursor) []byte {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok || (!isIdentCont(b) && !c.MBCSNonAscii()) {
			break
		}
		c.Advance()
	}
	s.state = Idle
	return rawSlice(c, start)
}

func (s *Scanner) consumeLiteral(c *cursor.Cursor) []byte {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok {
			break
		}

		if c.MBCSNonAscii() {
			c.Advance()
			continue
		}

		if s.escaped && b == '\\' {
			c.Advance()
			if _, ok := c.PeekByte(); ok {
				c.Advance()
			}
			continue
		}

		if b == '\'' {
			c.Advance()
			if next, ok := c.PeekByte(); ok && next == '\'' {
				c.Advance()
				continue
			}
			break
		}

		c.Advance()
	}
	s.state = Idle
	s.escaped = false
	return rawSlice(c, start)
}

func (s *Scanner) consumeDquote(c *cursor.Cursor) []byte {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok {
			break
		}
		if c.MBCSNonAscii() {
			c.Advance()
			continue
		}
		if b == '"' {
			c.Advance()
			if next, ok := c.PeekByte(); ok && next == '"' {
				c.Advance()
				continue
			}
			break
		}
		c.Advance()
	}
	s.state = Idle
	return rawSlice(c, start)
}

// tryDollarTag attempts to match $tag$ at the cursor's current position
// without consuming anything if the match fails, so the caller can fall
// back to treating '$' as an ordinary idle byte.
func tryDollarTag(c *cursor.Cursor) (string, bool) {
	pos := c.Pos()
	i := pos + 1 // skip opening '$'
	start := i

	for {
		b, ok := c.PeekAt(i)
		if !ok {
			return "", false
		}
		if b == '$' {
			break
		}
		if i == start && !isIdentStart(b) {
			return "", false
		}
		if i > start && !isIdentCont(b) {
			return "", false
		}
		i++
	}

	tag := string(sliceBetween(c, start, i))
	for k := pos; k <= i; k++ {
		c.Advance()
	}
	return tag, true
}

func (s *Scanner) consumeDollarQuote(c *cursor.Cursor) []byte {
	start := c.Pos()
	closer := "$" + s.tag + "$"

	for !c.Done() {
		if matchesAt(c, closer) {
			for range []byte(closer) {
				c.Advance()
			}
			s.state = Idle
			s.tag = ""
			return rawSlice(c, start)
		}
		c.Advance()
	}

	s.state = Idle
	s.tag = ""
	return rawSlice(c, start)
}

func (s *Scanner) consumeBlockComment(c *cursor.Cursor) []byte {
	start := c.Pos()
	for !c.Done() {
		if matchesAt(c, "/*") {
			c.Advance()
			c.Advance()
			s.depth++
			continue
		}
		if matchesAt(c, "*/") {
			c.Advance()
			c.Advance()
			s.depth--
			if s.depth == 0 {
				s.state = Idle
				return rawSlice(c, start)
			}
			continue
		}
		c.Advance()
	}
	s.state = Idle
	return rawSlice(c, start)
}

func (s *Scanner) consumeLineComment(c *cursor.Cursor) []byte {
	start := c.Pos()
	for {
		b, ok := c.PeekByte()
		if !ok {
			break
		}
		c.Advance()
		if b == '\n' {
			break
		}
	}
	s.state = Idle
	return rawSlice(c, start)
}

func matchesAt(c *cursor.Cursor, s string) bool {
	for i := 0; i < len(s); i++ {
		b, ok := c.PeekAt(c.Pos() + i)
		if !ok || b != s[i] {
			return false
		}
	}
	return true
}

func sliceBetween(c *cursor.Cursor, start, end int) []byte {
	out := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		b, _ := c.PeekAt(i)
		out = append(out, b)
	}
	return out
}

func rawSlice(c *cursor.Cursor, start int) []byte {
	end := c.Pos()
	return sliceBetween(c, start, end)
}
