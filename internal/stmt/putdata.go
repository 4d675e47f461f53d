package stmt

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
)

// sqlDataAtExec is the SQL_DATA_AT_EXEC indicator sentinel a caller sets on
// a Binding to mark it for streamed PutData input instead of an immediate
// value.
const sqlDataAtExec = -2

// ParamData reports the next parameter index awaiting streamed data via
// PutData, or ok=false once every data-at-execution slot has been filled.
func (s *Statement) ParamData() (token int, ok bool, err error) {
	for n := 1; n <= len(s.params); n++ {
		bp, exists := s.params[n]
		if !exists {
			continue
		}
		if bp.buf.Indicator != nil && *bp.buf.Indicator == sqlDataAtExec && s.pendingParamIdx != n {
			s.pendingParamIdx = n
			s.pendingLOFd = 0
			s.pendingLOOID = 0
			return n, true, nil
		}
	}
	return 0, false, nil
}

// PutData appends one chunk to the parameter ParamData last returned,
// opening a large object in the current transaction on the first call for
// that parameter, per spec.md §4.7.
func (s *Statement) PutData(ctx context.Context, data []byte) error {
	if s.pendingParamIdx == 0 {
		return fmt.Errorf("stmt: no parameter is awaiting PutData")
	}

	if s.pendingLOOID == 0 {
		if !s.cfg.Conn.InTransaction() {
			if err := s.cfg.Conn.Begin(ctx); err != nil {
				return fmt.Errorf("stmt: put data: begin: %w", err)
			}
		}
		oid, err := s.cfg.Conn.LoCreat(ctx, 0)
		if err != nil {
			return fmt.Errorf("stmt: put data: lo_creat: %w", err)
		}
		fd, err := s.cfg.Conn.LoOpen(ctx, oid, loWriteMode)
		if err != nil {
			return fmt.Errorf("stmt: put data: lo_open: %w", err)
		}
		s.pendingLOOID = oid
		s.pendingLOFd = fd
	}

	if _, err := s.cfg.Conn.LoWrite(ctx, s.pendingLOFd, data); err != nil {
		return fmt.Errorf("stmt: put data: lo_write: %w", err)
	}
	return nil
}

// loWriteMode is PostgreSQL's INV_WRITE fastpath mode constant.
const loWriteMode = 0x20000

// FinishPutData closes the in-flight large object and substitutes its OID
// as the parameter's actual bound value, completing the data-at-execution
// cycle spec.md §4.7 describes. Callers invoke this once PutData has been
// called for every chunk of the current parameter.
func (s *Statement) FinishPutData(ctx context.Context) error {
	if s.pendingParamIdx == 0 {
		return fmt.Errorf("stmt: no parameter is awaiting PutData")
	}
	if err := s.cfg.Conn.LoClose(ctx, s.pendingLOFd); err != nil {
		return fmt.Errorf("stmt: put data: lo_close: %w", err)
	}

	bp := s.params[s.pendingParamIdx]
	bp.buf = convert.Binding{CType: convert.CSLong, Buffer: []byte(fmt.Sprintf("%d", s.pendingLOOID))}
	bp.sqlType = convert.Integer

	s.pendingParamIdx = 0
	s.pendingLOFd = 0
	s.pendingLOOID = 0
	return nil
}
