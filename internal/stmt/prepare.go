package stmt

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgtype"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/rewrite"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// NativeSQL returns text with every ODBC escape sequence expanded, without
// touching parameter markers or splitting on ';' — the read-only preview
// SQLNativeSql exposes.
func (s *Statement) NativeSQL(text string) (string, error) {
	rr, err := rewrite.Rewrite(text, s.cfg.RewriteCfg)
	if err != nil {
		return "", fmt.Errorf("stmt: native sql: %w", err)
	}
	parts := make([]string, len(rr.Statements))
	for i, st := range rr.Statements {
		parts[i] = st.Text
	}
	return strings.Join(parts, "; "), nil
}

// BindParameter records one input/output parameter binding for later use
// by Prepare/Execute.
func (s *Statement) BindParameter(index int, dir ParamDirection, cType convert.CType, sqlType convert.SQLType, columnSize int, decimalDigits int, buf convert.Binding) error {
	if index < 1 {
		return fmt.Errorf("stmt: parameter index must be >= 1")
	}
	s.params[index] = &boundParam{
		dir: dir, cType: cType, sqlType: sqlType,
		columnSize: columnSize, decimalDigits: decimalDigits, buf: buf,
	}
	return nil
}

// DescribeParam reports a prepared parameter's server-reported type, valid
// once Prepare has returned.
func (s *Statement) DescribeParam(index int) (ParameterInfo, error) {
	if len(s.statements) == 0 {
		return ParameterInfo{}, fmt.Errorf("stmt: statement is not prepared")
	}
	oids := s.statements[0].paramOIDs
	if index < 1 || index > len(oids) {
		return ParameterInfo{}, fmt.Errorf("stmt: parameter index %d out of range", index)
	}
	return ParameterInfo{SQLType: sqlTypeFromOID(oids[index-1]), Nullable: true}, nil
}

// sqlTypeFromOID maps a handful of well-known PostgreSQL type OIDs onto
// SQLType; anything unrecognized is reported as text, matching the driver's
// fallback elsewhere.
func sqlTypeFromOID(oid uint32) convert.SQLType {
	switch oid {
	case pgtype.Int2OID:
		return convert.Smallint
	case pgtype.Int4OID:
		return convert.Integer
	case pgtype.Int8OID:
		return convert.Bigint
	case pgtype.Float4OID:
		return convert.Real
	case pgtype.Float8OID:
		return convert.DoublePrecision
	case pgtype.NumericOID:
		return convert.Numeric
	case pgtype.BoolOID:
		return convert.Boolean
	case pgtype.ByteaOID:
		return convert.Bytea
	case pgtype.DateOID:
		return convert.Date
	case pgtype.TimeOID, pgtype.TimetzOID:
		return convert.Time
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		return convert.Timestamp
	case pgtype.IntervalOID:
		return convert.Interval
	case pgtype.UUIDOID:
		return convert.UUID
	default:
		return convert.Varchar
	}
}

// Prepare expands escapes, splits on ';', renders every bare '?' marker as
// a "$n" placeholder, and issues Parse+Describe for each resulting
// statement, per spec.md's "driver always prefers Parse+Describe" policy.
func (s *Statement) Prepare(ctx context.Context, text string) error {
	if s.status == Executing {
		return fmt.Errorf("stmt: cannot prepare while executing")
	}

	rr, err := rewrite.Rewrite(text, s.cfg.RewriteCfg)
	if err != nil {
		return fmt.Errorf("stmt: prepare: rewrite: %w", err)
	}

	s.originalText = text
	s.statements = make([]processedStmt, len(rr.Statements))
	s.stmtIndex = 0

	for i, st := range rr.Statements {
		counter := &param.Counter{ProcReturn: st.ProcReturn}
		sqlText, err := rewrite.Substitute(st.Text, s.cfg.RewriteCfg.Encoding, s.cfg.Resolver, param.BuildingPrepare, counter, s.valueForMarker)
		if err != nil {
			return fmt.Errorf("stmt: prepare: substitute: %w", err)
		}

		planName := fmt.Sprintf("%s_%d", s.cursorName, i)
		paramOIDs, columns, err := s.cfg.Conn.ParseAndDescribe(ctx, planName, sqlText, st.ParamCount)
		if err != nil {
			return fmt.Errorf("stmt: prepare: %w", err)
		}

		s.statements[i] = processedStmt{
			rewritten: rewrite.Statement{Text: sqlText, ParamCount: st.ParamCount, ProcReturn: st.ProcReturn},
			planName:  planName,
			paramOIDs: paramOIDs,
		}
		_ = columns // described columns surface through Execute's result, not here
	}

	s.prepared = PreparedPermanently
	s.status = Ready
	s.procReturn = len(rr.Statements) > 0 && rr.Statements[0].ProcReturn
	return nil
}

// valueForMarker supplies BindParameter's nth input binding as a
// param.Value, converting through component G. Substitute calls it from
// Prepare (BuildingPrepare needs only the PGType for ParamCastMode) and
// from ExecDirect (ReplaceParams needs the rendered literal); Execute
// converts its bindings itself.
func (s *Statement) valueForMarker(n int) (param.Value, error) {
	bp, ok := s.params[n]
	if !ok {
		return param.Value{Null: true}, nil
	}
	if bp.buf.IsNull() {
		return param.Value{Null: true}, nil
	}
	sv, err := convert.ToServerText(bp.buf, bp.sqlType, s.cfg.Opts)
	if err != nil {
		return param.Value{}, fmt.Errorf("stmt: parameter %d: %w", n, err)
	}
	return param.Value{Literal: sv.Text, PGType: sv.PGType}, nil
}

// ExecDirect rewrites, substitutes inline literals (ReplaceParams mode:
// no server-side prepare), and executes text in one round trip per
// top-level statement.
func (s *Statement) ExecDirect(ctx context.Context, text string, flags ExecFlags) error {
	rr, err := rewrite.Rewrite(text, s.cfg.RewriteCfg)
	if err != nil {
		return fmt.Errorf("stmt: exec direct: rewrite: %w", err)
	}

	s.originalText = text
	s.statements = make([]processedStmt, len(rr.Statements))
	s.stmtIndex = 0
	s.status = Executing

	for i, st := range rr.Statements {
		counter := &param.Counter{ProcReturn: st.ProcReturn}
		sqlText, err := rewrite.Substitute(st.Text, s.cfg.RewriteCfg.Encoding, s.cfg.Resolver, param.ReplaceParams, counter, s.valueForMarker)
		if err != nil {
			s.fail(err)
			return err
		}

		if err := s.runStatement(ctx, i, sqlText); err != nil {
			s.fail(err)
			return err
		}
	}

	s.status = Finished
	return nil
}

// Execute runs a previously Prepared statement's plan(s) through Bind +
// Execute, encoding bound input parameters via component G's binary leg
// when Opts.BinaryAsPossible is set and its text leg otherwise.
func (s *Statement) Execute(ctx context.Context, flags ExecFlags) error {
	if s.prepared == NotYetPrepared {
		return fmt.Errorf("stmt: statement has not been prepared")
	}
	s.status = Executing

	for i := range s.statements {
		ps := &s.statements[i]

		var values [][]byte
		var formats []int16
		for n := 1; n <= ps.rewritten.ParamCount; n++ {
			bp, ok := s.params[n]
			if !ok {
				values = append(values, nil)
				formats = append(formats, 0)
				continue
			}
			var sv convert.ServerValue
			var err error
			if s.cfg.Opts.BinaryAsPossible {
				sv, err = convert.ToServerBinary(bp.buf, bp.sqlType, s.cfg.Opts)
			} else {
				sv, err = convert.ToServerText(bp.buf, bp.sqlType, s.cfg.Opts)
			}
			if err != nil {
				s.fail(err)
				return err
			}
			value, format, _ := param.BuildBindValue(sv)
			values = append(values, value)
			formats = append(formats, format)
		}

		savepoint, err := s.cfg.Txn.BeginStatement(ctx, false)
		if err != nil {
			s.fail(err)
			return err
		}

		wr, err := s.cfg.Conn.BindAndExecute(ctx, ps.planName, "", values, formats, 0)
		if err != nil {
			_ = s.cfg.Txn.AbortStatement(ctx, savepoint, s.cfg.Autocommit)
			s.fail(err)
			return err
		}
		if err := s.cfg.Txn.CommitStatement(ctx, savepoint); err != nil {
			s.fail(err)
			return err
		}

		s.applyWireResult(i, wr)
	}

	s.status = Finished
	return nil
}

// runStatement executes one already-substituted statement text as a
// simple query, wrapped in the statement-scoped savepoint policy.
func (s *Statement) runStatement(ctx context.Context, idx int, sqlText string) error {
	savepoint, err := s.cfg.Txn.BeginStatement(ctx, false)
	if err != nil {
		return err
	}

	wr, err := s.cfg.Conn.SendQuery(ctx, sqlText)
	if err != nil {
		_ = s.cfg.Txn.AbortStatement(ctx, savepoint, s.cfg.Autocommit)
		return err
	}
	if err := s.cfg.Txn.CommitStatement(ctx, savepoint); err != nil {
		return err
	}

	s.applyWireResult(idx, wr)
	return nil
}

// applyWireResult turns one simple-query/Bind-Execute response into the
// processed statement's result cache and row count.
func (s *Statement) applyWireResult(idx int, wr *wireproto.Result) {
	ps := &s.statements[idx]
	ps.rowsAffect = wr.RowsAffected
	if wr.Status == wireproto.TuplesOK {
		ps.res = result.NewManual(wr.Columns, wr.Rows)
	}
}

func (s *Statement) fail(err error) {
	s.status = Finished
	s.diagnostics.PushError(err)
}

// ExecFlags mirrors the handful of execution-time flags the driver
// interprets (e.g. array binding count), reduced to an opaque bitmask the
// root package defines concretely.
type ExecFlags uint32
