// Package cursor implements the encoded-byte cursor (component A): a
// single-byte lookahead over multi-byte text honoring the connection's
// client encoding. Every other component reads through a Cursor, never bare
// bytes, so the multi-byte-continuation check stays centralized in one
// place.
package cursor

import "github.com/jeroenrinzema/pqodbc/internal/chartab"

// Cursor walks src one byte at a time, tracking an absolute byte position
// (QueryParse's opos) and the current token buffer used to recognize
// keywords.
type Cursor struct {
	src oid
	enc chartab.Encoding
	pos int

	token [64]byte // rolling "current token" buffer, capped at 63 bytes + NUL
	tlen  int
}

// oid is a thin alias kept only so src's zero value (nil) reads naturally
// as "no buffer" without importing anything else.
type oid = []byte

// New constructs a Cursor over src under the given client encoding.
func New(src []byte, enc chartab.Encoding) *Cursor {
	return &Cursor{src: src, enc: enc}
}

// Len returns the number of bytes in the source buffer.
func (c *Cursor) Len() int { return len(c.src) }

// Pos returns the current absolute byte offset.
func (c *Cursor) Pos() int { return c.pos }

// SetPos repositions the cursor to an absolute byte offset.
func (c *Cursor) SetPos(pos int) { c.pos = pos }

// Done reports whether the cursor has consumed the whole buffer.
func (c *Cursor) Done() bool { return c.pos >= len(c.src) }

// PeekByte returns the byte at the current position without advancing, and
// false if the cursor is exhausted.
func (c *Cursor) PeekByte() (byte, bool) {
	if c.Done() {
		return 0, false
	}
	return c.src[c.pos], true
}

// PeekAt returns the byte at pos (absolute), without bounds panicking.
func (c *Cursor) PeekAt(pos int) (byte, bool) {
	if pos < 0 || pos >= len(c.src) {
		return 0, false
	}
	return c.src[pos], true
}

// MBCSNonAscii reports whether the byte at the current position is a
// continuation byte of a multi-byte character under the connection's
// client encoding. When true, no lexical-state decision may be taken on
// this byte — it must be copied through verbatim.
func (c *Cursor) MBCSNonAscii() bool {
	b, ok := c.PeekByte()
	if !ok {
		return false
	}
	return c.enc.ContinuationByte(b)
}

// Advance consumes the current byte and appends it to the rolling token
// buffer, returning the consumed byte.
func (c *Cursor) Advance() byte {
	b := c.src[c.pos]
	c.pos++

	if c.tlen < len(c.token)-1 {
		c.token[c.tlen] = lower(b)
		c.tlen++
	}
	return b
}

// ResetToken clears the rolling token buffer; called whenever a non-identifier
// byte is seen so keyword recognition only matches a contiguous run.
func (c *Cursor) ResetToken() {
	c.tlen = 0
}

// Token returns the current rolling token as a lower-cased string (for
// case-insensitive keyword comparison such as "into", "from", "for update").
func (c *Cursor) Token() string {
	return string(c.token[:c.tlen])
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}
