package convert

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Options carries the connection-level flags that affect C→server
// formatting (component G) and server→C parsing (component F).
type Options struct {
	BinaryAsPossible bool
	HexBytea         bool
	TrueIsMinus1     bool
	LFConversion     bool
	DecimalSeparator byte
}

// ToServerText implements component G's text-rendering leg: given a C
// buffer and the SQL type it targets, produce the literal text PostgreSQL's
// input parser accepts. Numeric and boolean values come back bare;
// bytea, date/time, interval and textual values come back already
// single-quoted by quoteLiteral.
func ToServerText(b Binding, sqlType SQLType, opts Options) (ServerValue, error) {
	if b.IsNull() {
		return ServerValue{Null: true}, nil
	}

	switch sqlType {
	case Smallint, Integer, Bigint:
		n, err := cBufferToInt(b)
		if err != nil {
			return ServerValue{}, err
		}
		return ServerValue{Text: strconv.FormatInt(n, 10), PGType: sqlTypeName(sqlType)}, nil

	case Real, DoublePrecision:
		f, err := cBufferToFloat(b)
		if err != nil {
			return ServerValue{}, err
		}
		text := FormatFloat(f, sqlType == DoublePrecision)
		text = DecimalSeparator(text, opts.DecimalSeparator)
		return ServerValue{Text: text, PGType: sqlTypeName(sqlType)}, nil

	case Numeric:
		n, err := cBufferToNumeric(b)
		if err != nil {
			return ServerValue{}, err
		}
		return ServerValue{Text: n.Format(), PGType: "numeric"}, nil

	case Boolean:
		return ServerValue{Text: FormatBool(b.Buffer[0] != 0, opts.TrueIsMinus1), PGType: "boolean"}, nil

	case Bytea:
		data := b.Buffer
		if b.CType == CChar && looksLikeHexEscape(b.Buffer) {
			decoded, err := DecodeBytea(string(b.Buffer))
			if err != nil {
				return ServerValue{}, fmt.Errorf("convert: bytea input: %w", err)
			}
			data = decoded
		}
		text := EncodeByteaWire(data)
		return ServerValue{Text: quoteLiteral(text), PGType: "bytea"}, nil

	case Date, Time, Timestamp:
		text := string(b.Buffer)
		if opts.LFConversion {
			text = ApplyLFConversion(text, false)
		}
		return ServerValue{Text: quoteLiteral(text), PGType: sqlTypeName(sqlType)}, nil

	case Interval:
		iv, err := cBufferToInterval(b)
		if err != nil {
			return ServerValue{}, err
		}
		return ServerValue{Text: quoteLiteral(iv.Format(9)), PGType: "interval"}, nil

	default: // Varchar and anything textual
		text := decodeCString(b)
		if opts.LFConversion {
			text = ApplyLFConversion(text, true)
		}
		return ServerValue{Text: quoteLiteral(text), PGType: "text"}, nil
	}
}

// ToServerBinary implements component G's binary-rendering leg, used for
// BuildingBindRequest when opts.BinaryAsPossible selects binary format for
// the parameter's type.
func ToServerBinary(b Binding, sqlType SQLType, opts Options) (ServerValue, error) {
	if b.IsNull() {
		return ServerValue{Null: true}, nil
	}

	switch sqlType {
	case Integer:
		n, err := cBufferToInt(b)
		if err != nil {
			return ServerValue{}, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(int32(n)))
		return ServerValue{Binary: buf, OID: 23}, nil

	case Bigint:
		n, err := cBufferToInt(b)
		if err != nil {
			return ServerValue{}, err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(n))
		return ServerValue{Binary: buf, OID: 20}, nil

	case Bytea:
		data := b.Buffer
		if b.CType == CChar && looksLikeHexEscape(b.Buffer) {
			decoded, err := DecodeBytea(string(b.Buffer))
			if err != nil {
				return ServerValue{}, err
			}
			data = decoded
		}
		return ServerValue{Binary: data, OID: 17}, nil

	default:
		// Fall back to the text encoding for types without a hand-rolled
		// binary packer here; pgconn treats a 0 format code as text.
		tv, err := ToServerText(b, sqlType, opts)
		if err != nil {
			return ServerValue{}, err
		}
		return ServerValue{Text: strings.Trim(tv.Text, "'"), OID: 0}, nil
	}
}

func sqlTypeName(t SQLType) string {
	switch t {
	case Smallint:
		return "smallint"
	case Integer:
		return "integer"
	case Bigint:
		return "bigint"
	case Real:
		return "real"
	case DoublePrecision:
		return "double precision"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	default:
		return ""
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func decodeCString(b Binding) string {
	buf := b.Buffer
	if i := indexZero(buf); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func indexZero(buf []byte) int {
	for i, c := range buf {
		if c == 0 {
			return i
		}
	}
	return -1
}

func looksLikeHexEscape(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == '\\' && buf[1] == 'x'
}

func cBufferToInt(b Binding) (int64, error) {
	switch b.CType {
	case CSShort, CUShort:
		if len(b.Buffer) < 2 {
			return 0, fmt.Errorf("convert: short buffer too small")
		}
		return int64(int16(binary.LittleEndian.Uint16(b.Buffer))), nil
	case CSLong, CULong:
		if len(b.Buffer) < 4 {
			return 0, fmt.Errorf("convert: long buffer too small")
		}
		return int64(int32(binary.LittleEndian.Uint32(b.Buffer))), nil
	case CSBigInt, CUBigInt:
		if len(b.Buffer) < 8 {
			return 0, fmt.Errorf("convert: bigint buffer too small")
		}
		return int64(binary.LittleEndian.Uint64(b.Buffer)), nil
	default:
		return strconv.ParseInt(decodeCString(b), 10, 64)
	}
}

func cBufferToFloat(b Binding) (float64, error) {
	switch b.CType {
	case CFloat:
		if len(b.Buffer) < 4 {
			return 0, fmt.Errorf("convert: float buffer too small")
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b.Buffer))), nil
	case CDouble:
		if len(b.Buffer) < 8 {
			return 0, fmt.Errorf("convert: double buffer too small")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b.Buffer)), nil
	default:
		return ParseFloat(decodeCString(b))
	}
}

func cBufferToNumeric(b Binding) (Numeric, error) {
	if b.CType == CNumeric {
		if len(b.Buffer) < 19 {
			return Numeric{}, fmt.Errorf("convert: numeric struct buffer too small")
		}
		var n Numeric
		n.Precision = int8(b.Buffer[0])
		n.Scale = int8(b.Buffer[1])
		n.Positive = b.Buffer[2] == 1
		copy(n.Mantissa[:], b.Buffer[3:19])
		return n, nil
	}
	return NumericFromDecimalText(decodeCString(b))
}

func cBufferToInterval(b Binding) (Interval, error) {
	if b.CType == CInterval {
		return Interval{}, fmt.Errorf("convert: binary SQL_INTERVAL_STRUCT decoding not implemented for this CType path; use text form")
	}
	return ParseInterval(decodeCString(b), IntervalDay2Second)
}
