// Package convert implements the bidirectional type converter: server→C
// (component F, ToClient) and C→server (component G, ToServer). Values
// crossing the boundary in either direction are described by the structs
// below, modeled directly on the ODBC C struct layouts spec.md §3 names.
package convert

import "github.com/shopspring/decimal"

// CType names the ODBC C data type a caller's buffer is declared as.
type CType int

const (
	CDefault CType = iota
	CChar
	CWChar
	CSShort
	CUShort
	CSLong
	CULong
	CSBigInt
	CUBigInt
	CFloat
	CDouble
	CBit
	CBinary
	CNumeric
	CDate
	CTime
	CTimestamp
	CInterval
	CGUID
)

// SQLType names the PostgreSQL-visible SQL type a value is being converted
// to or from.
type SQLType int

const (
	Unknown SQLType = iota
	Smallint
	Integer
	Bigint
	Real
	DoublePrecision
	Numeric
	Varchar
	Bytea
	Boolean
	Date
	Time
	Timestamp
	Interval
	UUID
	Int2Vector
)

// Binding is the application-owned buffer a parameter or bound column
// refers to. Pointers in the original ODBC model become a plain byte slice
// plus an indicator; Buffer is never retained beyond the call that receives
// it.
type Binding struct {
	CType     CType
	Buffer    []byte
	Indicator *int64 // non-nil and -1 (SQL_NULL_DATA) means NULL; nil means not NULL
}

// IsNull reports whether the binding represents a NULL value (a non-nil
// indicator holding -1, matching SQL_NULL_DATA).
func (b Binding) IsNull() bool {
	return b.Indicator != nil && *b.Indicator == -1
}

// SimpleTime is spec.md §3's date/time record: infinity is -1 (-infinity),
// 0 (finite) or +1 (+infinity); when non-zero the other fields carry the
// sentinel rendering.
type SimpleTime struct {
	Y, M, D        int
	Hh, Mm, Ss, Fr int
	BC             bool
	Infinity       int8
}

// IntervalKind enumerates the SQL_INTERVAL_* subtypes.
type IntervalKind int

const (
	IntervalYear IntervalKind = iota
	IntervalMonth
	IntervalYear2Month
	IntervalDay
	IntervalHour
	IntervalDay2Hour
	IntervalMinute
	IntervalDay2Minute
	IntervalHour2Minute
	IntervalSecond
	IntervalDay2Second
	IntervalHour2Second
	IntervalMinute2Second
)

// Interval is spec.md §3's IntervalStruct.
type Interval struct {
	Kind                          IntervalKind
	Negative                      bool
	Year, Month                   int
	Day, Hour, Minute, Second     int
	Fraction                      int // nanoseconds, truncated to the requested precision by callers
}

// Numeric is spec.md §3's NumericStruct: a 16-byte little-endian base-256
// mantissa plus precision/scale/sign. Decimal-literal parsing and
// formatting is delegated to shopspring/decimal (see numeric.go); this
// struct is only the wire/C-struct boundary representation.
type Numeric struct {
	Mantissa  [16]byte
	Precision int8
	Scale     int8
	Positive  bool
	Overflow  bool
}

// Decimal renders the Numeric as a shopspring/decimal.Decimal, honoring
// sign and scale.
func (n Numeric) Decimal() decimal.Decimal {
	coeff := mantissaToBigInt(n.Mantissa[:])
	if !n.Positive {
		coeff = coeff.Neg(coeff)
	}
	return decimal.NewFromBigInt(coeff, -int32(n.Scale))
}

// ServerValue is what component G produces for one parameter: a rendering
// in whatever representation the resolver's mode calls for.
type ServerValue struct {
	Null   bool
	Text   string // ReplaceParams/BuildingPrepare literal body (already quoted where needed)
	Binary []byte // BuildingBindRequest binary-format payload
	OID    uint32 // PostgreSQL type OID for BuildingBindRequest
	PGType string // type name, for ::pgtype casts
}

// GetDataClass tracks incremental-read state for one column across repeated
// GetData calls within a single row, per spec.md §4.6.
type GetDataClass struct {
	TotalBuf []byte
	DataLeft int
	Started  bool
}

// Reset clears incremental state, called when the cursor advances to a new
// row.
func (g *GetDataClass) Reset() {
	g.TotalBuf = nil
	g.DataLeft = 0
	g.Started = false
}
