package pqodbc

import (
	"github.com/jackc/pgtype"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
)

// columnTypeInfo is one well-known PostgreSQL type OID's descriptive
// metadata, the table results.c's PGAPI_ColAttribute switch consults to
// answer SQLColAttribute/SQLDescribeCol beyond name/oid/size.
type columnTypeInfo struct {
	sqlType    convert.SQLType
	unsigned   bool
	searchable bool
}

// wellKnownTypes maps the handful of PostgreSQL type OIDs this driver gives
// first-class SQLType treatment to their descriptive metadata. Types absent
// from this table fall back to Varchar/searchable/signed, the same
// "default to the most permissive, least surprising answer" rule
// sqlTypeFromOID uses elsewhere.
var wellKnownTypes = map[uint32]columnTypeInfo{
	pgtype.Int2OID:        {convert.Smallint, false, true},
	pgtype.Int4OID:        {convert.Integer, false, true},
	pgtype.Int8OID:        {convert.Bigint, false, true},
	pgtype.OIDOID:         {convert.Integer, true, true}, // oid: PostgreSQL's only conceptually unsigned integer type
	pgtype.Float4OID:      {convert.Real, false, true},
	pgtype.Float8OID:      {convert.DoublePrecision, false, true},
	pgtype.NumericOID:     {convert.Numeric, false, true},
	pgtype.BoolOID:        {convert.Boolean, false, true},
	pgtype.ByteaOID:       {convert.Bytea, false, false}, // large binary payloads are not meaningfully searchable
	pgtype.DateOID:        {convert.Date, false, true},
	pgtype.TimeOID:        {convert.Time, false, true},
	pgtype.TimetzOID:      {convert.Time, false, true},
	pgtype.TimestampOID:   {convert.Timestamp, false, true},
	pgtype.TimestamptzOID: {convert.Timestamp, false, true},
	pgtype.IntervalOID:    {convert.Interval, false, true},
	pgtype.UUIDOID:        {convert.UUID, false, true},
	pgtype.Int2vectorOID:  {convert.Int2Vector, false, false},
}

func typeInfoFor(oid uint32) columnTypeInfo {
	if info, ok := wellKnownTypes[oid]; ok {
		return info
	}
	return columnTypeInfo{sqlType: convert.Varchar, searchable: true}
}

// columnSizeFor derives a display size / precision from a column's type
// modifier (atttypmod), falling back to the connection's configured
// MaxVarcharSize for unbounded text columns, per the MaxVarcharSize/
// UnknownSizes options in spec.md §6.
func columnSizeFor(sqlType convert.SQLType, typeModifier int32, maxVarcharSize int) (columnSize int32, decimalDigits int16) {
	switch sqlType {
	case convert.Varchar:
		if typeModifier > 4 {
			return typeModifier - 4, 0
		}
		return int32(maxVarcharSize), 0
	case convert.Numeric:
		if typeModifier > 4 {
			mod := typeModifier - 4
			precision := (mod >> 16) & 0xFFFF
			scale := mod & 0xFFFF
			return precision, int16(scale)
		}
		return 0, 0
	default:
		return 0, 0
	}
}
