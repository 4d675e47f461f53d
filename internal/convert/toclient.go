package convert

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrTruncated is returned alongside a partial copy, matching spec.md §4.6's
// "the call reports truncated" rule. It is non-fatal; callers check it with
// errors.Is and may call GetData again to continue reading.
type truncatedError struct{}

func (truncatedError) Error() string { return "convert: value truncated to fit destination buffer" }

// ErrTruncated is the sentinel for truncatedError.
var ErrTruncated error = truncatedError{}

// terminatorLen reports the NUL-terminator width component F appends beyond
// the copied value for CHAR/WCHAR destinations, 0 for anything else.
func terminatorLen(ct CType) int {
	switch ct {
	case CChar:
		return 1
	case CWChar:
		return 2
	default:
		return 0
	}
}

// ToClient implements component F: given the server's wire bytes for one
// column (already as text, since this driver does not request binary
// result format by default) and the destination CType, copy as much as fits
// into dst and report the full untruncated length plus whether truncation
// occurred. gd carries the per-column incremental-read state for repeated
// GetData calls on the same row.
func ToClient(text []byte, cType CType, dst []byte, gd *GetDataClass, opts Options) (n int, fullLen int, truncated bool, err error) {
	rendered := text
	if opts.LFConversion {
		rendered = []byte(ApplyLFConversion(string(text), false))
	}

	if !gd.Started {
		gd.TotalBuf = rendered
		gd.DataLeft = len(rendered)
		gd.Started = true
	}

	term := terminatorLen(cType)
	avail := len(dst) - term
	if avail < 0 {
		avail = 0
	}

	offset := len(gd.TotalBuf) - gd.DataLeft
	chunk := gd.TotalBuf[offset:]

	copyLen := len(chunk)
	if copyLen > avail {
		copyLen = avail
		if cType == CWChar {
			copyLen -= copyLen % 2
		}
		truncated = true
	}

	n = copy(dst, chunk[:copyLen])
	for i := 0; i < term && n+i < len(dst); i++ {
		dst[n+i] = 0
	}

	gd.DataLeft -= copyLen
	fullLen = len(gd.TotalBuf) - offset

	if gd.DataLeft == 0 {
		gd.Reset()
	}

	if truncated {
		return n, fullLen, true, ErrTruncated
	}
	return n, fullLen, false, nil
}

// ToClientInt renders an integer column into a fixed-width C integer
// buffer, used for SQL_C_SLONG/SQL_C_SBIGINT/etc targets where no
// truncation semantics apply.
func ToClientInt(v int64, cType CType, dst []byte) (int, error) {
	switch cType {
	case CSShort, CUShort:
		if len(dst) < 2 {
			return 0, fmt.Errorf("convert: short destination too small")
		}
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
		return 2, nil
	case CSLong, CULong:
		if len(dst) < 4 {
			return 0, fmt.Errorf("convert: long destination too small")
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
		return 4, nil
	case CSBigInt, CUBigInt:
		if len(dst) < 8 {
			return 0, fmt.Errorf("convert: bigint destination too small")
		}
		binary.LittleEndian.PutUint64(dst, uint64(v))
		return 8, nil
	default:
		return 0, fmt.Errorf("convert: unsupported CType %d for integer destination", cType)
	}
}

// ToClientFloat renders a float column into a fixed-width C float buffer.
func ToClientFloat(v float64, cType CType, dst []byte) (int, error) {
	switch cType {
	case CFloat:
		if len(dst) < 4 {
			return 0, fmt.Errorf("convert: float destination too small")
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		return 4, nil
	case CDouble:
		if len(dst) < 8 {
			return 0, fmt.Errorf("convert: double destination too small")
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
		return 8, nil
	default:
		return 0, fmt.Errorf("convert: unsupported CType %d for float destination", cType)
	}
}

// ToClientBytea implements the bytea output rule from spec.md §4.6: binary
// mode emits raw bytes, CHAR/WCHAR mode emits uppercase hex.
func ToClientBytea(data []byte, cType CType, dst []byte, gd *GetDataClass) (n int, truncated bool, err error) {
	var rendered []byte
	if cType == CBinary {
		rendered = data
	} else {
		rendered = []byte(EncodeByteaHex(data))
	}

	if !gd.Started {
		gd.TotalBuf = rendered
		gd.DataLeft = len(rendered)
		gd.Started = true
	}

	offset := len(gd.TotalBuf) - gd.DataLeft
	chunk := gd.TotalBuf[offset:]
	copyLen := len(chunk)
	if copyLen > len(dst) {
		copyLen = len(dst)
		truncated = true
	}
	n = copy(dst, chunk[:copyLen])
	gd.DataLeft -= copyLen
	if gd.DataLeft == 0 {
		gd.Reset()
	}
	if truncated {
		return n, true, ErrTruncated
	}
	return n, false, nil
}

// ToClientInt2Vector implements the "int2vector with cType=SQL_C_DEFAULT
// returns a length-prefixed short array" rule from spec.md §4.6.
func ToClientInt2Vector(values []int16, dst []byte) (int, error) {
	need := 2 + 2*len(values)
	if len(dst) < need {
		return 0, ErrTruncated
	}
	binary.LittleEndian.PutUint16(dst, uint16(len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint16(dst[2+2*i:], uint16(v))
	}
	return need, nil
}
