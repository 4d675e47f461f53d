// Package chartab implements the character-set conversion utilities the core
// treats as an external collaborator: functions that take a source buffer
// and return a destination buffer plus length. It is the concrete backing
// for the encoded-byte cursor's multi-byte lookahead and for the parameter
// resolver's CHAR/WCHAR string encoding fold.
package chartab

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrEncoding is returned when a byte sequence cannot be decoded under the
// declared encoding.
var ErrEncoding = errors.New("chartab: invalid byte sequence for declared encoding")

// Width describes how many bytes a client encoding may use per character,
// which is all the parse-state machine needs to know to stay byte-safe.
type Width int

const (
	// SingleByte client encodings (the SQL_ASCII/locale 8-bit family):
	// every byte is a standalone character, never a continuation byte.
	SingleByte Width = iota
	// Variadic client encodings (UTF-8 and friends): a byte may be the
	// lead or a continuation of a multi-byte rune.
	Variadic
)

// Encoding names one of the client_encoding values the core understands.
type Encoding struct {
	Name  string
	Width Width
	codec encoding.Encoding
}

var (
	// UTF8 is the default, and the only encoding in which mbcsNonAscii can
	// report true (continuation bytes have the high bit set and are not
	// themselves legal lexical-state triggers).
	UTF8 = Encoding{Name: "UTF8", Width: Variadic}
	// Latin1 is the classic single-byte locale encoding.
	Latin1 = Encoding{Name: "LATIN1", Width: SingleByte, codec: charmap.ISO8859_1}
	// SQLASCII treats every byte as its own character; used as a fallback
	// when the server reports an encoding this package does not model.
	SQLASCII = Encoding{Name: "SQL_ASCII", Width: SingleByte}
)

// ByName resolves a PostgreSQL client_encoding name to an Encoding,
// defaulting to SQLASCII (never failing) since the parse-state machine must
// always have some byte-width rule to apply.
func ByName(name string) Encoding {
	switch name {
	case "UTF8", "UNICODE", "":
		return UTF8
	case "LATIN1":
		return Latin1
	default:
		return SQLASCII
	}
}

// ContinuationByte reports whether b, found at the current cursor position
// under enc, is a continuation byte of a multi-byte character — in which
// case no syntactic decision (quote, brace, comment) may be taken on it.
func (enc Encoding) ContinuationByte(b byte) bool {
	if enc.Width == SingleByte {
		return false
	}

	// UTF-8 continuation bytes are of the form 10xxxxxx.
	return b&0xC0 == 0x80
}

// LocaleToUTF8 converts a buffer in the given locale encoding to UTF-8,
// the fold the parameter resolver applies to CHAR input before quoting.
func LocaleToUTF8(enc Encoding, src []byte) ([]byte, error) {
	if enc.codec == nil {
		if !utf8.Valid(src) {
			return nil, ErrEncoding
		}
		return src, nil
	}

	out, err := enc.codec.NewDecoder().Bytes(src)
	if err != nil {
		return nil, ErrEncoding
	}
	return out, nil
}

// UTF8ToLocale converts a UTF-8 buffer back to the given locale encoding,
// the reverse fold applied when serving a CHAR column to the caller.
func UTF8ToLocale(enc Encoding, src []byte) ([]byte, error) {
	if enc.codec == nil {
		return src, nil
	}

	out, err := enc.codec.NewEncoder().Bytes(src)
	if err != nil {
		return nil, ErrEncoding
	}
	return out, nil
}

// WCHARToUTF8 converts a caller-supplied UTF-16LE WCHAR buffer to UTF-8,
// the fold applied on the SQL_C_WCHAR parameter path.
func WCHARToUTF8(src []byte) ([]byte, error) {
	if len(src)%2 != 0 {
		return nil, ErrEncoding
	}

	u16 := make([]uint16, 0, len(src)/2)
	for i := 0; i < len(src); i += 2 {
		u16 = append(u16, uint16(src[i])|uint16(src[i+1])<<8)
	}

	runes := utf16.Decode(u16)
	return []byte(string(runes)), nil
}

// UTF8ToWCHAR converts a UTF-8 buffer to a UTF-16LE WCHAR buffer, the fold
// applied when serving a column to a SQL_C_WCHAR bound buffer.
func UTF8ToWCHAR(src []byte) []byte {
	u16 := utf16.Encode([]rune(string(src)))
	out := make([]byte, len(u16)*2)
	for i, u := range u16 {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// utf16LEBOM exists only to document which x/text/encoding/unicode variant a
// hybrid-path decoder would use if a byte-order mark were ever honored; the
// core treats WCHAR buffers as little-endian and does not consult a BOM.
var utf16LEBOM = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
