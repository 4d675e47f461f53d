// Package txn implements the savepoint/rollback coordinator (component K):
// a per-connection record of uncommitted positioned-update rollback logs,
// replayed on user Rollback and discarded on user Commit.
package txn

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// RollbackPolicy mirrors spec.md §4.8's statement-scope savepoint policy,
// selected by the Protocol=7.4-{0,1,2} connection option.
type RollbackPolicy int

const (
	// PolicyNone never issues per-statement savepoints; a server error
	// aborts the whole transaction.
	PolicyNone RollbackPolicy = iota
	// PolicyTransaction rolls the whole transaction back to its start on
	// any statement error.
	PolicyTransaction
	// PolicyStatement issues a savepoint per mutating statement so only
	// that statement's effects are undone on error.
	PolicyStatement
)

// Undoable is anything a positioned-update operation can push onto the
// rollback log for later replay; internal/result's keyset entries
// implement it.
type Undoable interface {
	Undo()
}

// Coordinator owns one connection's savepoint counter and rollback log.
// It is the Go realization of spec.md §4.11: "per-connection list of
// uncommitted statement results... On Commit: discard. On Rollback:
// replay in reverse."
type Coordinator struct {
	Policy RollbackPolicy

	conn     wireproto.Conn
	counter  int
	log      []Undoable
	inFlight []string // names of currently open savepoints, nested order
}

// New constructs a Coordinator bound to the given wire connection.
func New(conn wireproto.Conn, policy RollbackPolicy) *Coordinator {
	return &Coordinator{Policy: policy, conn: conn}
}

// nextName produces a fresh, monotonically numbered savepoint name in the
// "_EXEC_SVP_<id>" form spec.md §4.8 names.
func (c *Coordinator) nextName() string {
	c.counter++
	return fmt.Sprintf("_EXEC_SVP_%d", c.counter)
}

// BeginStatement issues a statement-scoped savepoint if policy and
// connection state call for one, per spec.md §4.8's three preconditions:
// statement-scope policy, no error transaction already in progress, and the
// statement has not yet accessed the database this execution.
func (c *Coordinator) BeginStatement(ctx context.Context, alreadyAccessedDB bool) (name string, err error) {
	if c.Policy != PolicyStatement || alreadyAccessedDB || !c.conn.InTransaction() {
		return "", nil
	}
	name = c.nextName()
	if err := c.conn.Savepoint(ctx, name); err != nil {
		return "", fmt.Errorf("txn: savepoint: %w", err)
	}
	c.inFlight = append(c.inFlight, name)
	return name, nil
}

// CommitStatement releases a statement-scoped savepoint after a successful
// Execute.
func (c *Coordinator) CommitStatement(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if err := c.conn.ReleaseSavepoint(ctx, name); err != nil {
		return fmt.Errorf("txn: release savepoint: %w", err)
	}
	c.popInFlight(name)
	return nil
}

// AbortStatement rolls back to a statement-scoped savepoint after a failed
// Execute, then, if the connection is autocommit, immediately commits so
// the connection does not hang in an aborted transaction the caller never
// asked for, per spec.md §4.8. With no savepoint under PolicyTransaction,
// a failure inside a transaction rolls the whole transaction back and
// replays the rollback log.
func (c *Coordinator) AbortStatement(ctx context.Context, name string, autocommit bool) error {
	if name == "" {
		if c.Policy == PolicyTransaction && c.conn.InTransaction() {
			if err := c.conn.Rollback(ctx); err != nil {
				return fmt.Errorf("txn: rollback after statement error: %w", err)
			}
			c.Rollback()
		}
		return nil
	}
	if err := c.conn.RollbackToSavepoint(ctx, name); err != nil {
		return fmt.Errorf("txn: rollback to savepoint: %w", err)
	}
	c.popInFlight(name)
	if autocommit {
		if err := c.conn.Commit(ctx); err != nil {
			return fmt.Errorf("txn: autocommit after rollback to savepoint: %w", err)
		}
	}
	return nil
}

func (c *Coordinator) popInFlight(name string) {
	for i, n := range c.inFlight {
		if n == name {
			c.inFlight = append(c.inFlight[:i], c.inFlight[i+1:]...)
			return
		}
	}
}

// Track records an undo entry for a positioned update performed inside an
// explicit transaction, per spec.md §4.11.
func (c *Coordinator) Track(u Undoable) {
	c.log = append(c.log, u)
}

// Commit discards all tracked rollback-log entries: the changes they guard
// are now permanent.
func (c *Coordinator) Commit() {
	c.log = c.log[:0]
}

// Rollback replays the tracked entries in reverse order, undoing positioned
// updates performed since the last Commit/Rollback.
func (c *Coordinator) Rollback() {
	for i := len(c.log) - 1; i >= 0; i-- {
		c.log[i].Undo()
	}
	c.log = c.log[:0]
}

// PendingCount reports how many undo entries are currently tracked, mostly
// for tests.
func (c *Coordinator) PendingCount() int {
	return len(c.log)
}
