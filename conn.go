// Package pqodbc is a PostgreSQL ODBC-surface client driver: a Go-native
// call surface (Conn/Stmt) over the same query rewriter, parameter
// resolver, type converter, statement lifecycle, result cache, and
// savepoint coordinator an ODBC driver built against libpq would use,
// talking the wire protocol through github.com/jackc/pgconn.
package pqodbc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeroenrinzema/pqodbc/errors"
	"github.com/jeroenrinzema/pqodbc/internal/chartab"
	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/param"
	"github.com/jeroenrinzema/pqodbc/internal/registry"
	"github.com/jeroenrinzema/pqodbc/internal/rewrite"
	"github.com/jeroenrinzema/pqodbc/internal/stmt"
	"github.com/jeroenrinzema/pqodbc/internal/txn"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// handles is the one driver-wide global this package allows (spec.md §9):
// a mutex-guarded set of weak handles used only to detect use of a freed
// Conn/Stmt, never to retain or look objects up by handle.
var handles = registry.New()

// ConnAttr names a settable connection attribute (SQLSetConnectAttr's
// surface, reduced to what this driver interprets).
type ConnAttr int

const (
	ConnAttrAutocommit ConnAttr = iota
	ConnAttrCurrentSchema
	ConnAttrCurrentTable
)

// Conn is one client connection: a wire-protocol session plus the
// connection-scoped state (savepoint coordinator, parameter resolver
// flags, autocommit mode) every allocated Stmt shares, per spec.md §5's
// "each connection owns a mutex" model.
type Conn struct {
	mu sync.Mutex

	wire    wireproto.Conn
	cfg     config
	coord   *txn.Coordinator
	resolve *param.Resolver
	rwcfg   rewrite.Config
	logger  *slog.Logger

	schema     string
	table      string
	autocommit bool

	diagnostics errors.DiagList
	handle      registry.Handle
	closed      bool
	broken      bool
}

// Open dials a PostgreSQL server using connString (the same DSN/URI forms
// pgconn.Connect accepts) and returns a ready Conn configured by opts.
func Open(ctx context.Context, connString string, opts ...Option) (*Conn, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	wire, err := wireproto.Dial(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pqodbc: open: %w", err)
	}

	return newConn(wire, cfg), nil
}

// newConn builds a Conn over an already-established wireproto.Conn,
// factored out of Open so tests can substitute internal/wiretest.Fake
// without a live server.
func newConn(wire wireproto.Conn, cfg config) *Conn {
	c := &Conn{
		wire:       wire,
		cfg:        cfg,
		resolve:    &param.Resolver{ParamCastMode: cfg.paramCastMode},
		rwcfg:      rewrite.Config{Encoding: chartab.UTF8, EscapeChar: cfg.escapeChar},
		autocommit: true,
		logger:     cfg.logger,
		handle:     handles.Register(),
	}
	c.coord = txn.New(wire, cfg.errorRollbackPolicy)
	c.logger.Debug("pqodbc: connection opened")
	return c
}

// convertOpts renders this connection's configuration as the
// internal/convert.Options component F/G need.
func (c *Conn) convertOpts() convert.Options {
	return convert.Options{
		BinaryAsPossible: c.cfg.binaryAsPossible,
		HexBytea:         c.cfg.hexBytea,
		TrueIsMinus1:     c.cfg.trueIsMinus1,
		LFConversion:     c.cfg.lfConversion,
	}
}

// checkUsable rejects any call against a closed or InternalError-latched
// connection, refreshing the latch from the wire's own liveness check.
// It takes c.mu itself, so callers must not already hold it (c.mu is not
// reentrant); checkUsableLocked is the form for callers that do.
func (c *Conn) checkUsable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkUsableLocked()
}

func (c *Conn) checkUsableLocked() error {
	if c.closed {
		return validationErrorf("connection is closed")
	}
	if !c.broken && c.wire.Broken() {
		c.broken = true
	}
	if c.broken {
		return ErrBroken
	}
	return nil
}

// noteWireError latches the connection broken when the wire reports the
// transport has torn itself down, the only case spec.md §4.8's
// InternalError kind asks Conn/Stmt to stay latched over.
func (c *Conn) noteWireError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wire.Broken() {
		c.broken = true
	}
}

// Alloc allocates a new Stmt bound to this connection, per spec.md §4.8's
// statement lifecycle entry point.
func (c *Conn) Alloc() (*Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUsableLocked(); err != nil {
		return nil, err
	}

	fetchChunk := c.cfg.declareFetchSize

	inner := stmt.Alloc(stmt.Config{
		Conn:       c.wire,
		Txn:        c.coord,
		Resolver:   c.resolve,
		Opts:       c.convertOpts(),
		RewriteCfg: c.rwcfg,
		FetchChunk: fetchChunk,
		Schema:     c.schema,
		Table:      c.table,
		Autocommit: c.autocommit,
	})

	return &Stmt{
		inner:  inner,
		conn:   c,
		logger: c.logger,
		handle: handles.Register(),
	}, nil
}

// SetConnectAttr records one of the recognized connection attributes.
func (c *Conn) SetConnectAttr(attr ConnAttr, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch attr {
	case ConnAttrAutocommit:
		on, ok := value.(bool)
		if !ok {
			return validationErrorf("autocommit attribute requires a bool")
		}
		c.autocommit = on
	case ConnAttrCurrentSchema:
		name, ok := value.(string)
		if !ok {
			return validationErrorf("current schema attribute requires a string")
		}
		c.schema = name
	case ConnAttrCurrentTable:
		name, ok := value.(string)
		if !ok {
			return validationErrorf("current table attribute requires a string")
		}
		c.table = name
	default:
		return validationErrorf("unknown connect attribute %d", attr)
	}
	return nil
}

// GetConnectAttr returns a previously set connection attribute.
func (c *Conn) GetConnectAttr(attr ConnAttr) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch attr {
	case ConnAttrAutocommit:
		return c.autocommit, nil
	case ConnAttrCurrentSchema:
		return c.schema, nil
	case ConnAttrCurrentTable:
		return c.table, nil
	default:
		return nil, validationErrorf("unknown connect attribute %d", attr)
	}
}

// GetDiagRec returns the 1-indexed connection-level diagnostic record.
func (c *Conn) GetDiagRec(index int) (errors.Diagnostic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.diagnostics.Rec(index)
	if !ok {
		return errors.Diagnostic{}, validationErrorf("no diagnostic at index %d", index)
	}
	return d, nil
}

// Close releases the underlying wire connection. Close is idempotent.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	handles.Release(c.handle)

	if err := c.wire.Close(ctx); err != nil {
		return fmt.Errorf("pqodbc: close: %w", err)
	}
	return nil
}
