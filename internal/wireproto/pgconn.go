package wireproto

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgconn"

	"github.com/jeroenrinzema/pqodbc/codes"
	"github.com/jeroenrinzema/pqodbc/errors"
)

// pgconnConn adapts a *pgconn.PgConn to the Conn interface. It is the only
// file in this package allowed to import pgconn; everything above talks to
// Conn.
type pgconnConn struct {
	pc    *pgconn.PgConn
	inTxn bool
}

// Dial opens a new backend connection using a PostgreSQL connection string
// (the same DSN/URI forms pgconn.Connect accepts).
func Dial(ctx context.Context, connString string) (Conn, error) {
	pc, err := pgconn.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("wireproto: connect: %w", err)
	}
	return &pgconnConn{pc: pc}, nil
}

func (c *pgconnConn) SendQuery(ctx context.Context, sql string) (*Result, error) {
	mrr := c.pc.Exec(ctx, sql)
	defer mrr.Close()

	res := &Result{Status: CommandOK}
	for mrr.NextResult() {
		rr := mrr.ResultReader()
		for _, fd := range rr.FieldDescriptions() {
			res.Columns = append(res.Columns, ColumnDescriptor{
				Name:         fd.Name,
				TableOID:     fd.TableOID,
				ColumnAttr:   fd.TableAttributeNumber,
				TypeOID:      fd.DataTypeOID,
				TypeSize:     int16(fd.DataTypeSize),
				TypeModifier: fd.TypeModifier,
				Format:       fd.Format,
			})
		}
		for rr.NextRow() {
			row := make([][]byte, len(rr.Values()))
			for i, v := range rr.Values() {
				if v != nil {
					cp := make([]byte, len(v))
					copy(cp, v)
					row[i] = cp
				}
			}
			res.Rows = append(res.Rows, row)
		}
		tag, err := rr.Close()
		if err != nil {
			return nil, c.wrapExecError(err)
		}
		res.CommandTag = tag.String()
		res.RowsAffected = tag.RowsAffected()
		if len(res.Columns) > 0 {
			res.Status = TuplesOK
		}
	}
	if err := mrr.Close(); err != nil {
		return nil, c.wrapExecError(err)
	}
	return res, nil
}

func (c *pgconnConn) ParseAndDescribe(ctx context.Context, planName, sql string, nParams int) ([]uint32, []ColumnDescriptor, error) {
	desc, err := c.pc.Prepare(ctx, planName, sql, nil)
	if err != nil {
		return nil, nil, c.wrapExecError(err)
	}

	paramOIDs := make([]uint32, len(desc.ParamOIDs))
	copy(paramOIDs, desc.ParamOIDs)
	if len(paramOIDs) < nParams {
		paramOIDs = append(paramOIDs, make([]uint32, nParams-len(paramOIDs))...)
	}

	columns := make([]ColumnDescriptor, len(desc.Fields))
	for i, fd := range desc.Fields {
		columns[i] = ColumnDescriptor{
			Name:         fd.Name,
			TableOID:     fd.TableOID,
			ColumnAttr:   fd.TableAttributeNumber,
			TypeOID:      fd.DataTypeOID,
			TypeSize:     int16(fd.DataTypeSize),
			TypeModifier: fd.TypeModifier,
			Format:       fd.Format,
		}
	}
	return paramOIDs, columns, nil
}

func (c *pgconnConn) BindAndExecute(ctx context.Context, planName, portal string, paramValues [][]byte, paramFormats []int16, resultFormat int16) (*Result, error) {
	rr := c.pc.ExecPrepared(ctx, planName, paramValues, paramFormats, []int16{resultFormat})
	res := &Result{Status: CommandOK}
	for _, fd := range rr.FieldDescriptions() {
		res.Columns = append(res.Columns, ColumnDescriptor{
			Name:         fd.Name,
			TableOID:     fd.TableOID,
			ColumnAttr:   fd.TableAttributeNumber,
			TypeOID:      fd.DataTypeOID,
			TypeSize:     int16(fd.DataTypeSize),
			TypeModifier: fd.TypeModifier,
			Format:       fd.Format,
		})
	}
	for rr.NextRow() {
		row := make([][]byte, len(rr.Values()))
		for i, v := range rr.Values() {
			if v != nil {
				cp := make([]byte, len(v))
				copy(cp, v)
				row[i] = cp
			}
		}
		res.Rows = append(res.Rows, row)
	}
	tag, err := rr.Close()
	if err != nil {
		return nil, c.wrapExecError(err)
	}
	res.CommandTag = tag.String()
	res.RowsAffected = tag.RowsAffected()
	if len(res.Columns) > 0 {
		res.Status = TuplesOK
	}
	return res, nil
}

func (c *pgconnConn) CancelRequest(ctx context.Context) error {
	return c.pc.CancelRequest(ctx)
}

// wrapExecError wraps a pgconn exec failure for the stmt layer's diagnostic
// list. A *pgconn.PgError carries the server's SQLSTATE and the auxiliary
// fields from the ErrorResponse message; all of it is bridged through the
// errors package's decorators so errors.GetCode/GetSeverity/GetHint/
// GetDetail/GetConstraintName recover the original values instead of
// collapsing to codes.Uncategorized.
func (c *pgconnConn) wrapExecError(err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		wrapped := fmt.Errorf("wireproto: %s: %w", pgErr.Code, err)
		wrapped = errors.WithCode(wrapped, codes.Code(pgErr.Code))
		wrapped = errors.WithSeverity(wrapped, errors.Severity(pgErr.Severity))
		if pgErr.Hint != "" {
			wrapped = errors.WithHint(wrapped, pgErr.Hint)
		}
		if pgErr.Detail != "" {
			wrapped = errors.WithDetail(wrapped, pgErr.Detail)
		}
		if pgErr.ConstraintName != "" {
			wrapped = errors.WithConstraintName(wrapped, pgErr.ConstraintName)
		}
		return wrapped
	}
	return fmt.Errorf("wireproto: %w", err)
}

func (c *pgconnConn) Begin(ctx context.Context) error {
	_, err := c.pc.Exec(ctx, "BEGIN").ReadAll()
	if err == nil {
		c.inTxn = true
	}
	return err
}

func (c *pgconnConn) Commit(ctx context.Context) error {
	_, err := c.pc.Exec(ctx, "COMMIT").ReadAll()
	c.inTxn = false
	return err
}

func (c *pgconnConn) Rollback(ctx context.Context) error {
	_, err := c.pc.Exec(ctx, "ROLLBACK").ReadAll()
	c.inTxn = false
	return err
}

func (c *pgconnConn) Savepoint(ctx context.Context, name string) error {
	_, err := c.pc.Exec(ctx, "SAVEPOINT "+quoteIdent(name)).ReadAll()
	return err
}

func (c *pgconnConn) ReleaseSavepoint(ctx context.Context, name string) error {
	_, err := c.pc.Exec(ctx, "RELEASE SAVEPOINT "+quoteIdent(name)).ReadAll()
	return err
}

func (c *pgconnConn) RollbackToSavepoint(ctx context.Context, name string) error {
	_, err := c.pc.Exec(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent(name)).ReadAll()
	return err
}

func (c *pgconnConn) InTransaction() bool {
	return c.inTxn
}

// Broken reports whether the backend socket has already been torn down,
// the only reliable sign available that a prior operation left the
// connection in an unusable state.
func (c *pgconnConn) Broken() bool {
	return c.pc.IsClosed()
}

func (c *pgconnConn) Close(ctx context.Context) error {
	return c.pc.Close(ctx)
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
