// Package stmt implements the statement object (component H): the
// Allocated → Ready → Executing → Finished state machine spec.md §4.8
// describes, wiring the escape rewriter, parameter resolver, type
// converter, wire connection, result cache, and savepoint coordinator
// together behind one statement handle.
package stmt

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/codes"
	"github.com/jeroenrinzema/pqodbc/errors"
	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/rewrite"
	"github.com/jeroenrinzema/pqodbc/internal/txn"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// Status is spec.md §4.8's execution-status enum.
type Status int

const (
	Allocated Status = iota
	Ready
	Executing
	Premature
	Finished
)

// PreparedState is spec.md §3's prepared-state enum.
type PreparedState int

const (
	NotYetPrepared PreparedState = iota
	PreparingTemporarily
	PreparingPermanently
	PreparedTemporarily
	PreparedPermanently
	OnceDescribed
)

// FreeMode mirrors SQLFreeStmt's option argument.
type FreeMode int

const (
	FreeDrop FreeMode = iota
	FreeClose
	FreeUnbind
	FreeResetParams
)

// ParamDirection names a bound parameter's data-flow direction.
type ParamDirection int

const (
	ParamInput ParamDirection = iota
	ParamOutput
	ParamInputOutput
)

// ParameterInfo is DescribeParam's return shape, derived from a prepared
// statement's Parse+Describe response.
type ParameterInfo struct {
	SQLType       convert.SQLType
	ColumnSize    int
	DecimalDigits int
	Nullable      bool
}

// boundParam is one BindParameter call's recorded arguments.
type boundParam struct {
	dir           ParamDirection
	cType         convert.CType
	sqlType       convert.SQLType
	columnSize    int
	decimalDigits int
	buf           convert.Binding
}

// boundCol is one BindCol call's recorded arguments.
type boundCol struct {
	cType convert.CType
	buf   convert.Binding
}

// processedStmt is one ';'-split statement from the last rewrite pass,
// plus the plan name it was prepared under and the result it produced.
type processedStmt struct {
	rewritten  rewrite.Statement
	planName   string
	paramOIDs  []uint32
	res        *result.Result
	rowsAffect int64
}

// Config carries the connection-level settings a Statement needs but
// cannot derive from its own state.
type Config struct {
	Conn       wireproto.Conn
	Txn        *txn.Coordinator
	Resolver   *param.Resolver
	Opts       convert.Options
	RewriteCfg rewrite.Config
	FetchChunk int
	Schema     string
	Table      string
	Autocommit bool
}

// Statement is one allocated statement handle.
type Statement struct {
	cfg Config

	status   Status
	prepared PreparedState

	originalText string
	statements   []processedStmt
	stmtIndex    int

	diagnostics errors.DiagList
	cursorName  string

	params map[int]*boundParam
	cols   map[int]*boundCol

	currentCol     int
	boundRowOffset int

	savepointName string
	procReturn    bool

	getDataClasses map[int]*convert.GetDataClass

	attrs map[Attr]any

	pendingParamIdx int // index awaiting PutData, 0 = none
	pendingLOFd     int32
	pendingLOOID    uint32
}

// Attr names a settable statement attribute (SQLSetStmtAttr's surface,
// reduced to the handful this driver actually interprets).
type Attr int

const (
	AttrCursorType Attr = iota
	AttrConcurrency
	AttrRowsetSize
	AttrMaxRows
)

// Alloc constructs a fresh Statement in the Allocated state.
func Alloc(cfg Config) *Statement {
	s := &Statement{
		cfg:            cfg,
		status:         Allocated,
		prepared:       NotYetPrepared,
		params:         map[int]*boundParam{},
		cols:           map[int]*boundCol{},
		getDataClasses: map[int]*convert.GetDataClass{},
		attrs:          map[Attr]any{},
		currentCol:     -1,
	}
	s.cursorName = fmt.Sprintf("SQL_CUR%p", s)
	return s
}

// Free releases resources according to mode. FreeDrop returns the
// statement to Allocated so it can be reused; the other modes clear a
// subset of bound state without changing the lifecycle status.
func (s *Statement) Free(mode FreeMode) error {
	switch mode {
	case FreeDrop:
		s.status = Allocated
		s.prepared = NotYetPrepared
		s.statements = nil
		s.params = map[int]*boundParam{}
		s.cols = map[int]*boundCol{}
		s.getDataClasses = map[int]*convert.GetDataClass{}
	case FreeClose:
		s.statements = nil
		if s.status != Allocated {
			s.status = Ready
		}
	case FreeUnbind:
		s.cols = map[int]*boundCol{}
	case FreeResetParams:
		s.params = map[int]*boundParam{}
	default:
		return fmt.Errorf("stmt: unknown free mode %d", mode)
	}
	return nil
}

// Cancel requests cancellation of whatever is currently in flight on the
// connection, per spec.md §5's external-cancellation model, and leaves the
// statement Finished with an OperationCancelled diagnostic.
func (s *Statement) Cancel(ctx context.Context) error {
	if err := s.cfg.Conn.CancelRequest(ctx); err != nil {
		return fmt.Errorf("stmt: cancel request: %w", err)
	}
	s.status = Finished
	s.diagnostics.PushError(errors.WithCode(fmt.Errorf("stmt: operation cancelled"), codes.QueryCanceled))
	return nil
}

// Status reports the current execution-status.
func (s *Statement) Status() Status { return s.status }

// GetCursorName returns the statement's cursor name, auto-generated at
// Alloc time in the "SQL_CUR<addr>" form spec.md §3 names.
func (s *Statement) GetCursorName() (string, error) {
	return s.cursorName, nil
}

// SetCursorName overrides the auto-generated cursor name.
func (s *Statement) SetCursorName(name string) error {
	if s.status == Executing {
		return fmt.Errorf("stmt: cannot rename cursor while executing")
	}
	s.cursorName = name
	return nil
}

// RowCount returns the row count of the statement at the current position
// of the processed list (the first one right after an execute, advanced by
// MoreResults).
func (s *Statement) RowCount() (int64, error) {
	if s.stmtIndex >= len(s.statements) {
		return 0, fmt.Errorf("stmt: no completed statement")
	}
	return s.statements[s.stmtIndex].rowsAffect, nil
}

// GetDiagRec returns the 1-indexed diagnostic record.
func (s *Statement) GetDiagRec(index int) (errors.Diagnostic, error) {
	d, ok := s.diagnostics.Rec(index)
	if !ok {
		return errors.Diagnostic{}, fmt.Errorf("stmt: no diagnostic at index %d", index)
	}
	return d, nil
}

// SetStmtAttr records one of the recognized statement attributes.
func (s *Statement) SetStmtAttr(attr Attr, value any) error {
	if attr == AttrRowsetSize {
		n, ok := value.(int)
		if !ok || n <= 0 {
			return fmt.Errorf("stmt: rowset size must be a positive int")
		}
	}
	s.attrs[attr] = value
	return nil
}

// GetStmtAttr returns a previously set attribute, or nil if unset.
func (s *Statement) GetStmtAttr(attr Attr) (any, error) {
	return s.attrs[attr], nil
}

// currentResult returns the processed statement result currently exposed
// through Fetch/GetData/RowCount.
func (s *Statement) currentResult() (*result.Result, error) {
	if s.stmtIndex >= len(s.statements) {
		return nil, fmt.Errorf("stmt: no current result set")
	}
	r := s.statements[s.stmtIndex].res
	if r == nil {
		return nil, fmt.Errorf("stmt: current statement produced no result set")
	}
	return r, nil
}

// MoreResults advances to the next processed statement's result, per
// spec.md's multi-statement ProcessedStmt list; it reports false once the
// list is exhausted.
func (s *Statement) MoreResults(ctx context.Context) (bool, error) {
	s.stmtIndex++
	s.currentCol = -1
	s.getDataClasses = map[int]*convert.GetDataClass{}
	return s.stmtIndex < len(s.statements), nil
}
