package pqodbc

import (
	"context"
	"log/slog"

	"github.com/jeroenrinzema/pqodbc/errors"
	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/registry"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/stmt"
)

// Re-exported component F/G and component H types, so callers never need
// to import an internal package to use Stmt's call surface.
type (
	CType            = convert.CType
	SQLType          = convert.SQLType
	Binding          = convert.Binding
	ParamDirection   = stmt.ParamDirection
	FreeMode         = stmt.FreeMode
	ExecFlags        = stmt.ExecFlags
	ParameterInfo    = stmt.ParameterInfo
	FetchOrientation = stmt.FetchOrientation
	RowStatus        = stmt.RowStatus
	PosOp            = stmt.PosOp
	LockType         = stmt.LockType
	BulkOp           = stmt.BulkOp
	StmtAttr         = stmt.Attr
	Diagnostic       = errors.Diagnostic
)

const (
	CDefault   = convert.CDefault
	CChar      = convert.CChar
	CWChar     = convert.CWChar
	CSShort    = convert.CSShort
	CUShort    = convert.CUShort
	CSLong     = convert.CSLong
	CULong     = convert.CULong
	CSBigInt   = convert.CSBigInt
	CUBigInt   = convert.CUBigInt
	CFloat     = convert.CFloat
	CDouble    = convert.CDouble
	CBit       = convert.CBit
	CBinary    = convert.CBinary
	CNumeric   = convert.CNumeric
	CDate      = convert.CDate
	CTime      = convert.CTime
	CTimestamp = convert.CTimestamp
	CInterval  = convert.CInterval
	CGUID      = convert.CGUID

	Unknown         = convert.Unknown
	Smallint        = convert.Smallint
	Integer         = convert.Integer
	Bigint          = convert.Bigint
	Real            = convert.Real
	DoublePrecision = convert.DoublePrecision
	Numeric         = convert.Numeric
	Varchar         = convert.Varchar
	Bytea           = convert.Bytea
	Boolean         = convert.Boolean
	Date            = convert.Date
	Time            = convert.Time
	Timestamp       = convert.Timestamp
	Interval        = convert.Interval
	UUID            = convert.UUID
	Int2Vector      = convert.Int2Vector

	ParamInput       = stmt.ParamInput
	ParamOutput      = stmt.ParamOutput
	ParamInputOutput = stmt.ParamInputOutput

	FreeDrop        = stmt.FreeDrop
	FreeClose       = stmt.FreeClose
	FreeUnbind      = stmt.FreeUnbind
	FreeResetParams = stmt.FreeResetParams

	FetchNext     = stmt.FetchNext
	FetchPrior    = stmt.FetchPrior
	FetchFirst    = stmt.FetchFirst
	FetchLast     = stmt.FetchLast
	FetchAbsolute = stmt.FetchAbsolute
	FetchRelative = stmt.FetchRelative
	FetchBookmark = stmt.FetchBookmark

	RowSuccess = result.RowSuccess
	RowUpdated = result.RowUpdated
	RowDeleted = result.RowDeleted
	RowAdded   = result.RowAdded
	RowError   = result.RowError
	RowNoRow   = result.RowNoRow

	PosUpdate  = stmt.PosUpdate
	PosDelete  = stmt.PosDelete
	PosAdd     = stmt.PosAdd
	PosRefresh = stmt.PosRefresh

	LockNoChange  = stmt.LockNoChange
	LockExclusive = stmt.LockExclusive
	LockUnlock    = stmt.LockUnlock

	BulkAdd              = stmt.BulkAdd
	BulkUpdateByBookmark = stmt.BulkUpdateByBookmark
	BulkDeleteByBookmark = stmt.BulkDeleteByBookmark
	BulkFetchByBookmark  = stmt.BulkFetchByBookmark

	AttrCursorType  = stmt.AttrCursorType
	AttrConcurrency = stmt.AttrConcurrency
	AttrRowsetSize  = stmt.AttrRowsetSize
	AttrMaxRows     = stmt.AttrMaxRows
)

// ColAttrField names one SQLColAttribute field this driver resolves,
// covering the full results.c field set (display size, unsigned,
// searchable, auto-increment) rather than just name/oid/size.
type ColAttrField int

const (
	ColAttrName ColAttrField = iota
	ColAttrSQLType
	ColAttrTypeOID
	ColAttrColumnSize
	ColAttrDisplaySize
	ColAttrDecimalDigits
	ColAttrNullable
	ColAttrUnsigned
	ColAttrSearchable
	ColAttrAutoIncrement
)

// ColumnDescriptor is DescribeCol's return shape: the full field set
// results.c's PGAPI_ColAttribute switch reports, not just name/oid/size.
type ColumnDescriptor struct {
	Name          string
	SQLType       SQLType
	TypeOID       uint32
	ColumnSize    int32
	DecimalDigits int16
	Nullable      bool
	Unsigned      bool
	Searchable    bool
	AutoIncrement bool
}

// Stmt is one allocated statement handle, wrapping internal/stmt.Statement
// with the connection-level configuration (MaxVarcharSize, BytesAsLongVarBinary,
// FetchRefcursors, …) DescribeCol/ColAttribute need but the inner package
// does not itself carry.
type Stmt struct {
	inner  *stmt.Statement
	conn   *Conn
	logger *slog.Logger
	handle registry.Handle
	freed  bool
}

// Free releases the statement's resources per mode; FreeDrop also releases
// its driver-wide handle.
func (s *Stmt) Free(mode FreeMode) error {
	if s.freed && mode == FreeDrop {
		return nil
	}
	if err := s.inner.Free(mode); err != nil {
		return err
	}
	if mode == FreeDrop {
		handles.Release(s.handle)
		s.freed = true
	}
	return nil
}

// Cancel requests cancellation of whatever is currently in flight on the
// connection, per spec.md §5's external-cancellation model.
func (s *Stmt) Cancel() error {
	return s.inner.Cancel(context.Background())
}

// Prepare expands escapes, splits on ';', and issues Parse+Describe for
// each resulting statement.
func (s *Stmt) Prepare(ctx context.Context, text string) error {
	if err := s.conn.checkUsable(); err != nil {
		return err
	}
	err := s.inner.Prepare(ctx, text)
	s.conn.noteWireError()
	return err
}

// ExecDirect rewrites, inlines literal parameters, and executes text in
// one round trip per top-level statement.
func (s *Stmt) ExecDirect(ctx context.Context, text string, flags ExecFlags) error {
	if err := s.conn.checkUsable(); err != nil {
		return err
	}
	if err := s.inner.ExecDirect(ctx, text, flags); err != nil {
		s.conn.noteWireError()
		return err
	}
	return s.maybeFetchRefcursors(ctx)
}

// Execute runs a previously Prepared statement through Bind + Execute.
func (s *Stmt) Execute(ctx context.Context, flags ExecFlags) error {
	if err := s.conn.checkUsable(); err != nil {
		return err
	}
	if err := s.inner.Execute(ctx, flags); err != nil {
		s.conn.noteWireError()
		return err
	}
	return s.maybeFetchRefcursors(ctx)
}

// maybeFetchRefcursors implements the FetchRefcursors option (spec.md §6,
// execute.c's post-CALL handling): when enabled and the just-completed
// statement's sole result column is a refcursor, issue FETCH ALL FROM
// <cursor> and replace the result set with what it returns.
func (s *Stmt) maybeFetchRefcursors(ctx context.Context) error {
	if !s.conn.cfg.fetchRefcursors {
		return nil
	}
	n, err := s.inner.NumResultCols()
	if err != nil || n != 1 {
		return nil
	}
	col, err := s.inner.DescribeCol(1)
	if err != nil || col.TypeOID != refcursorOID {
		return nil
	}
	if err := s.inner.Fetch(ctx); err != nil {
		return nil // no rows: nothing to expand
	}
	var indicator int64
	buf := make([]byte, 256)
	n2, err := s.inner.GetData(1, convert.CChar, buf, &indicator)
	if err != nil {
		return nil
	}
	cursorName := string(buf[:n2])
	return s.inner.ExecDirect(ctx, "FETCH ALL FROM "+quoteCursorIdent(cursorName), 0)
}

// refcursorOID is PostgreSQL's well-known OID for the refcursor type. It
// has no pgtype.*OID constant in the pinned pgtype release (refcursor is
// registered by name, not in its well-known-OID table, unlike the entries
// in typeinfo.go's wellKnownTypes), so it stays a literal here.
const refcursorOID = 1790

func quoteCursorIdent(name string) string {
	return `"` + name + `"`
}

// NativeSQL returns text with every ODBC escape sequence expanded.
func (s *Stmt) NativeSQL(text string) (string, error) {
	return s.inner.NativeSQL(text)
}

// BindParameter records one input/output parameter binding for later use
// by Prepare/Execute.
func (s *Stmt) BindParameter(index int, dir ParamDirection, cType CType, sqlType SQLType, columnSize int, decimalDigits int, buf Binding) error {
	return s.inner.BindParameter(index, dir, cType, sqlType, columnSize, decimalDigits, buf)
}

// DescribeParam reports a prepared parameter's server-reported type.
func (s *Stmt) DescribeParam(index int) (ParameterInfo, error) {
	return s.inner.DescribeParam(index)
}

// ParamData reports the next parameter index awaiting streamed data via
// PutData.
func (s *Stmt) ParamData() (token int, ok bool, err error) {
	return s.inner.ParamData()
}

// PutData appends one chunk to the parameter ParamData last returned.
func (s *Stmt) PutData(data []byte) error {
	return s.inner.PutData(context.Background(), data)
}

// FinishPutData signals that every chunk for the pending data-at-execution
// parameter has been handed to PutData, releasing the statement to proceed
// with Execute.
func (s *Stmt) FinishPutData(ctx context.Context) error {
	return s.inner.FinishPutData(ctx)
}

// NumResultCols reports the current result set's column count.
func (s *Stmt) NumResultCols() (int, error) {
	return s.inner.NumResultCols()
}

// DescribeCol returns the 1-indexed column's full descriptive metadata,
// per the results.c-modeled field set SPEC_FULL.md §9 calls for.
func (s *Stmt) DescribeCol(index int) (ColumnDescriptor, error) {
	col, err := s.inner.DescribeCol(index)
	if err != nil {
		return ColumnDescriptor{}, err
	}

	info := typeInfoFor(col.TypeOID)
	sqlType := info.sqlType

	var size int32
	var digits int16
	switch {
	case sqlType == convert.Boolean && s.conn.cfg.boolsAsChar:
		// BoolsAsChar: report as the "true"/"false" VARCHAR(5) exchange
		// form this driver actually sends/receives, not the native
		// single-byte boolean.
		sqlType = convert.Varchar
		size = 5
	case sqlType == convert.Bytea && s.conn.cfg.bytesAsLongVarBinary:
		// BytesAsLongVarBinary: bytea has no fixed display width, unlike a
		// bounded VARBINARY(n); report the option's "no fixed bound" intent
		// as a zero size, the same convention unbounded Varchar falls back
		// from before MaxVarcharSize applies.
		size = 0
	default:
		size, digits = columnSizeFor(sqlType, col.TypeModifier, s.conn.cfg.maxVarcharSize)
	}

	return ColumnDescriptor{
		Name:          col.Name,
		SQLType:       sqlType,
		TypeOID:       col.TypeOID,
		ColumnSize:    size,
		DecimalDigits: digits,
		Nullable:      true, // PostgreSQL's wire protocol does not report column nullability
		Unsigned:      info.unsigned,
		Searchable:    info.searchable,
		AutoIncrement: false, // requires a catalog round trip; out of this core's scope
	}, nil
}

// ColAttribute resolves one SQLColAttribute field for a described column.
func (s *Stmt) ColAttribute(index int, field ColAttrField) (any, error) {
	col, err := s.DescribeCol(index)
	if err != nil {
		return nil, err
	}
	switch field {
	case ColAttrName:
		return col.Name, nil
	case ColAttrSQLType:
		return col.SQLType, nil
	case ColAttrTypeOID:
		return col.TypeOID, nil
	case ColAttrColumnSize, ColAttrDisplaySize:
		return col.ColumnSize, nil
	case ColAttrDecimalDigits:
		return col.DecimalDigits, nil
	case ColAttrNullable:
		return col.Nullable, nil
	case ColAttrUnsigned:
		return col.Unsigned, nil
	case ColAttrSearchable:
		return col.Searchable, nil
	case ColAttrAutoIncrement:
		return col.AutoIncrement, nil
	default:
		return nil, validationErrorf("unknown column attribute field %d", field)
	}
}

// BindCol records a bound output column buffer for later Fetch calls to
// write converted data into.
func (s *Stmt) BindCol(index int, cType CType, buf Binding) error {
	return s.inner.BindCol(index, cType, buf)
}

// Fetch advances the cursor one row and fills every bound column.
func (s *Stmt) Fetch(ctx context.Context) error {
	return s.inner.Fetch(ctx)
}

// FetchScroll repositions the cursor per orient/offset and fills bound
// columns for the resulting row.
func (s *Stmt) FetchScroll(ctx context.Context, orient FetchOrientation, offset int64) error {
	return s.inner.FetchScroll(ctx, orient, offset)
}

// ExtendedFetch performs a block fetch of rowsetSize rows and reports each
// fetched row's status.
func (s *Stmt) ExtendedFetch(ctx context.Context, orient FetchOrientation, offset int64, rowsetSize int) ([]RowStatus, error) {
	return s.inner.ExtendedFetch(ctx, orient, offset, rowsetSize)
}

// GetData converts the current row's col cell on demand.
func (s *Stmt) GetData(col int, cType CType, buf []byte, indicator *int64) (int, error) {
	return s.inner.GetData(col, cType, buf, indicator)
}

// MoreResults advances to the next processed statement's result.
func (s *Stmt) MoreResults(ctx context.Context) (bool, error) {
	return s.inner.MoreResults(ctx)
}

// RowCount returns the row count of the processed statement MoreResults
// currently points at (the first one right after an execute).
func (s *Stmt) RowCount() (int64, error) {
	return s.inner.RowCount()
}

// GetCursorName returns the statement's cursor name.
func (s *Stmt) GetCursorName() (string, error) {
	return s.inner.GetCursorName()
}

// SetCursorName overrides the auto-generated cursor name.
func (s *Stmt) SetCursorName(name string) error {
	return s.inner.SetCursorName(name)
}

// SetPos performs one positioned UPDATE/DELETE/INSERT/REFRESH.
func (s *Stmt) SetPos(ctx context.Context, row int, op PosOp, lock LockType) error {
	return s.inner.SetPos(ctx, row, op, lock)
}

// BulkOperations performs op through SetPos: BulkAdd inserts a new row from
// bound columns, the update/delete-by-bookmark variants act on row 1 of the
// current rowset.
func (s *Stmt) BulkOperations(ctx context.Context, op BulkOp) error {
	return s.inner.BulkOperations(ctx, op)
}

// SetStmtAttr records one of the recognized statement attributes.
func (s *Stmt) SetStmtAttr(attr StmtAttr, value any) error {
	return s.inner.SetStmtAttr(attr, value)
}

// GetStmtAttr returns a previously set statement attribute.
func (s *Stmt) GetStmtAttr(attr StmtAttr) (any, error) {
	return s.inner.GetStmtAttr(attr)
}

// GetDiagRec returns the 1-indexed diagnostic record.
func (s *Stmt) GetDiagRec(index int) (Diagnostic, error) {
	return s.inner.GetDiagRec(index)
}
