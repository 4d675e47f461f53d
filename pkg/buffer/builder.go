// Package buffer provides the growable output buffer used while rewriting
// and rebuilding SQL text. It keeps the sticky-error, chained-Add* idiom of
// the wire message writer this package is descended from, but drops the
// message type/length framing: a QueryBuild pass has no envelope, only a
// stream of bytes that may need to double in size as parameters and escape
// expansions are appended.
package buffer

import (
	"bytes"
	"encoding/binary"
)

// DefaultCapacity is the initial capacity of a new Builder, matching the
// growable output buffer described for the query rewriter (start capacity
// 4096, doubled on demand).
const DefaultCapacity = 4096

// Builder accumulates rewritten SQL text (or any other byte-oriented output)
// and reports the first error encountered so callers do not need to check
// every intermediate write.
type Builder struct {
	buf bytes.Buffer
	err error
}

// NewBuilder constructs a Builder pre-sized to DefaultCapacity.
func NewBuilder() *Builder {
	b := &Builder{}
	b.buf.Grow(DefaultCapacity)
	return b
}

// AddByte appends a single byte.
func (b *Builder) AddByte(c byte) {
	if b.err != nil {
		return
	}

	b.err = b.buf.WriteByte(c)
}

// AddBytes appends raw bytes.
func (b *Builder) AddBytes(p []byte) (n int) {
	if b.err != nil {
		return 0
	}

	n, b.err = b.buf.Write(p)
	return n
}

// AddString appends a string.
func (b *Builder) AddString(s string) (n int) {
	if b.err != nil {
		return 0
	}

	n, b.err = b.buf.WriteString(s)
	return n
}

// AddRune appends a single rune, encoded as UTF-8.
func (b *Builder) AddRune(r rune) {
	if b.err != nil {
		return
	}

	_, b.err = b.buf.WriteRune(r)
}

// AddInt32 appends a big-endian int32.
func (b *Builder) AddInt32(i int32) {
	if b.err != nil {
		return
	}

	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(i))
	_, b.err = b.buf.Write(tmp[:])
}

// Error returns the first error encountered by any Add* call.
func (b *Builder) Error() error {
	return b.err
}

// Len returns the number of bytes currently buffered.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Bytes returns the buffered bytes. The slice is invalidated by the next
// mutating call.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// String returns the buffered bytes as a string.
func (b *Builder) String() string {
	return b.buf.String()
}

// Reset clears the buffer and any sticky error, ready for reuse.
func (b *Builder) Reset() {
	b.buf.Reset()
	b.err = nil
}

// Truncate discards everything after the first n bytes.
func (b *Builder) Truncate(n int) {
	b.buf.Truncate(n)
}
