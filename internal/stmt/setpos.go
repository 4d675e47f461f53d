package stmt

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/posupdate"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/txn"
)

// PosOp names SQLSetPos's operation argument.
type PosOp int

const (
	PosUpdate PosOp = iota
	PosDelete
	PosAdd
	PosRefresh
)

// LockType names SQLSetPos's lock argument; this driver does not implement
// explicit row locking beyond PostgreSQL's own MVCC, so it is accepted and
// ignored.
type LockType int

const (
	LockNoChange LockType = iota
	LockExclusive
	LockUnlock
)

// BulkOp names SQLBulkOperations' operation argument.
type BulkOp int

const (
	BulkAdd BulkOp = iota
	BulkUpdateByBookmark
	BulkDeleteByBookmark
	BulkFetchByBookmark
)

// target builds a posupdate.Target from the statement's configured
// schema/table, failing if neither SetPos nor BulkOperations can know
// which table to act against.
func (s *Statement) target() (posupdate.Target, error) {
	if s.cfg.Table == "" {
		return posupdate.Target{}, fmt.Errorf("stmt: positioned update requires a known target table")
	}
	return posupdate.Target{Conn: s.cfg.Conn, Schema: s.cfg.Schema, Table: s.cfg.Table}, nil
}

// boundColumnValues renders every bound output column's current app
// buffer as a posupdate.ColumnBinding, for use as a SET/INSERT column
// list. Columns without a server type mapping fall back to Varchar.
func (s *Statement) boundColumnValues(r *result.Result) ([]posupdate.ColumnBinding, error) {
	var cols []posupdate.ColumnBinding
	for idx, bc := range s.cols {
		if idx < 1 || idx > len(r.Columns) {
			continue
		}
		name := r.Columns[idx-1].Name
		if bc.buf.IsNull() {
			cols = append(cols, posupdate.ColumnBinding{Name: name, Value: "NULL"})
			continue
		}
		sv, err := s.serverValueForBoundColumn(bc)
		if err != nil {
			return nil, err
		}
		cols = append(cols, posupdate.ColumnBinding{Name: name, Value: sv})
	}
	return cols, nil
}

func (s *Statement) serverValueForBoundColumn(bc *boundCol) (string, error) {
	sv, err := convert.ToServerText(bc.buf, sqlTypeFromCType(bc.cType), s.cfg.Opts)
	if err != nil {
		return "", err
	}
	return sv.Text, nil
}

// sqlTypeFromCType picks a reasonable default SQLType for a bound column
// buffer whose server-side type was never independently described, used
// only for positioned-update SET/INSERT value rendering.
func sqlTypeFromCType(ct convert.CType) convert.SQLType {
	switch ct {
	case convert.CSShort, convert.CUShort:
		return convert.Smallint
	case convert.CSLong, convert.CULong:
		return convert.Integer
	case convert.CSBigInt, convert.CUBigInt:
		return convert.Bigint
	case convert.CFloat:
		return convert.Real
	case convert.CDouble:
		return convert.DoublePrecision
	case convert.CNumeric:
		return convert.Numeric
	case convert.CBit:
		return convert.Boolean
	case convert.CBinary:
		return convert.Bytea
	case convert.CDate:
		return convert.Date
	case convert.CTime:
		return convert.Time
	case convert.CTimestamp:
		return convert.Timestamp
	case convert.CInterval:
		return convert.Interval
	default:
		return convert.Varchar
	}
}

// SetPos performs one positioned UPDATE/DELETE/INSERT/REFRESH against row
// (1-indexed, relative to the current rowset) using the bound column
// values as the new row content, per spec.md §4.10.
func (s *Statement) SetPos(ctx context.Context, row int, op PosOp, lock LockType) error {
	r, err := s.currentResult()
	if err != nil {
		return err
	}
	idx := s.rowsetRowIndex(r, row)

	t, err := s.target()
	if err != nil {
		return err
	}

	switch op {
	case PosUpdate:
		entry, err := r.KeySet(idx)
		if err != nil {
			return err
		}
		cols, err := s.boundColumnValues(r)
		if err != nil {
			return err
		}
		updated, err := posupdate.Update(ctx, t, entry, cols)
		if err != nil {
			return s.reportPosUpdateError(err)
		}
		s.cfg.Txn.Track(r.SetKeySet(idx, updated))
		return nil

	case PosDelete:
		entry, err := r.KeySet(idx)
		if err != nil {
			return err
		}
		if err := posupdate.Delete(ctx, t, entry); err != nil {
			return s.reportPosUpdateError(err)
		}
		r.MarkDeleted(idx)
		s.cfg.Txn.Track(r.SetKeySet(idx, entry))
		return nil

	case PosAdd:
		cols, err := s.boundColumnValues(r)
		if err != nil {
			return err
		}
		entry, err := posupdate.Insert(ctx, t, cols)
		if err != nil {
			return s.reportPosUpdateError(err)
		}
		r.AppendRows([][][]byte{nil})
		newIdx := r.RawLen() - 1
		s.cfg.Txn.Track(r.SetKeySet(newIdx, entry))
		return nil

	case PosRefresh:
		return nil // a REFRESH re-reads from the cache already held, no wire call needed

	default:
		return fmt.Errorf("stmt: unknown SetPos operation %d", op)
	}
}

// reportPosUpdateError reports STMT_ROW_VERSION_CHANGED on a row-count=0
// outcome, per spec.md §4.10 step 5.
func (s *Statement) reportPosUpdateError(err error) error {
	s.diagnostics.PushError(err)
	return err
}

// rowsetSizeOf reads the configured rowset size attribute, defaulting to 1
// row per block when unset.
func rowsetSizeOf(s *Statement) int {
	if n, ok := s.attrs[AttrRowsetSize].(int); ok && n > 0 {
		return n
	}
	return 1
}

// rowsetRowIndex translates SetPos's 1-based in-rowset row number into the
// result cache's raw row index: the last block fetch left r.Pos() one past
// the block's final row, so the block started at Pos()-rowsetSize. A row
// of 0 or less maps to r.Pos() itself.
func (s *Statement) rowsetRowIndex(r *result.Result, row int) int {
	if row <= 0 {
		return r.Pos()
	}
	blockStart := r.Pos() - rowsetSizeOf(s)
	return blockStart + row - 1
}

// BulkOperations performs op through SetPos. BulkAdd appends one new row
// from bound columns; the update/delete-by-bookmark variants act on row 1
// of the current rowset (the statement keeps no separate set of marked
// bookmarks); BulkFetchByBookmark is a plain Fetch.
func (s *Statement) BulkOperations(ctx context.Context, op BulkOp) error {
	if _, err := s.currentResult(); err != nil {
		return err
	}

	switch op {
	case BulkAdd:
		return s.SetPos(ctx, 0, PosAdd, LockNoChange)
	case BulkUpdateByBookmark:
		return s.SetPos(ctx, 1, PosUpdate, LockNoChange)
	case BulkDeleteByBookmark:
		return s.SetPos(ctx, 1, PosDelete, LockNoChange)
	case BulkFetchByBookmark:
		return s.Fetch(ctx)
	default:
		return fmt.Errorf("stmt: unknown bulk operation %d", op)
	}
}

// txnCoordinator exposes the statement's coordinator, used by tests.
func (s *Statement) txnCoordinator() *txn.Coordinator { return s.cfg.Txn }
