// Package posupdate implements the positioned-update helper (component J):
// ctid/oid-keyed UPDATE/DELETE/INSERT ... RETURNING against a single
// underlying table, driven by a result cursor's keyset.
package posupdate

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// ErrRowVersionChanged is reported when a positioned UPDATE/DELETE affects
// zero rows, meaning the row was concurrently modified or removed, per
// spec.md §4.10 step 5.
var ErrRowVersionChanged = fmt.Errorf("posupdate: row version changed")

// ColumnBinding names one updatable column and its new value's already
// G-converted literal text (quoting applied), used to build the SET list.
type ColumnBinding struct {
	Name  string
	Value string // literal text, e.g. "'bob'" or "42" or "NULL"
}

// Target identifies the schema-qualified table a positioned operation acts
// against, plus the wire connection it executes through.
type Target struct {
	Conn   wireproto.Conn
	Schema string
	Table  string
}

func (t Target) qualified() string {
	if t.Schema == "" {
		return quoteIdent(t.Table)
	}
	return quoteIdent(t.Schema) + "." + quoteIdent(t.Table)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Update performs spec.md §4.10 steps 1-4 for SetPos(UPDATE): build and
// execute a ctid/oid-targeted UPDATE, and on success re-read the row's new
// ctid. Returns the updated KeySetEntry to store back into the result's
// keyset.
func Update(ctx context.Context, t Target, entry result.KeySetEntry, cols []ColumnBinding) (result.KeySetEntry, error) {
	if len(cols) == 0 {
		return entry, fmt.Errorf("posupdate: no updatable columns bound")
	}

	var sets []string
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = %s", quoteIdent(c.Name), c.Value))
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE ctid = '%s' AND oid = %d",
		t.qualified(), strings.Join(sets, ", "), entry.CTID(), entry.OID,
	)

	res, err := t.Conn.SendQuery(ctx, sql)
	if err != nil {
		return entry, fmt.Errorf("posupdate: update: %w", err)
	}
	if res.RowsAffected == 0 {
		return entry, ErrRowVersionChanged
	}

	return refreshCTID(ctx, t, entry)
}

// refreshCTID re-reads the row's latest ctid via currtid2, per spec.md
// §4.10 step 4 ("PostgreSQL ctids change on update").
func refreshCTID(ctx context.Context, t Target, entry result.KeySetEntry) (result.KeySetEntry, error) {
	sql := fmt.Sprintf(
		"SELECT ctid FROM %s WHERE ctid = currtid2('%s', '%s') AND oid = %d",
		t.qualified(), t.qualified(), entry.CTID(), entry.OID,
	)
	res, err := t.Conn.SendQuery(ctx, sql)
	if err != nil {
		return entry, fmt.Errorf("posupdate: refresh ctid: %w", err)
	}
	if len(res.Rows) == 0 {
		return entry, ErrRowVersionChanged
	}

	block, offset, err := parseCTID(string(res.Rows[0][0]))
	if err != nil {
		return entry, err
	}
	entry.Block, entry.Offset = block, offset
	return entry, nil
}

// Delete performs spec.md §4.10's DELETE path.
func Delete(ctx context.Context, t Target, entry result.KeySetEntry) error {
	sql := fmt.Sprintf(
		"DELETE FROM %s WHERE ctid = '%s' AND oid = %d",
		t.qualified(), entry.CTID(), entry.OID,
	)
	res, err := t.Conn.SendQuery(ctx, sql)
	if err != nil {
		return fmt.Errorf("posupdate: delete: %w", err)
	}
	if res.RowsAffected == 0 {
		return ErrRowVersionChanged
	}
	return nil
}

// Insert performs spec.md §4.10's INSERT (ADD) path, using RETURNING ctid,
// oid to populate a fresh keyset entry for the appended row.
func Insert(ctx context.Context, t Target, cols []ColumnBinding) (result.KeySetEntry, error) {
	var names []string
	var values []string
	for _, c := range cols {
		names = append(names, quoteIdent(c.Name))
		values = append(values, c.Value)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING ctid, oid",
		t.qualified(), strings.Join(names, ", "), strings.Join(values, ", "),
	)

	res, err := t.Conn.SendQuery(ctx, sql)
	if err != nil {
		return result.KeySetEntry{}, fmt.Errorf("posupdate: insert: %w", err)
	}
	if len(res.Rows) == 0 {
		return result.KeySetEntry{}, fmt.Errorf("posupdate: insert returned no row")
	}

	block, offset, err := parseCTID(string(res.Rows[0][0]))
	if err != nil {
		return result.KeySetEntry{}, err
	}

	var oid uint64
	fmt.Sscanf(string(res.Rows[0][1]), "%d", &oid)

	return result.KeySetEntry{Block: block, Offset: offset, OID: uint32(oid), Status: result.RowAdded}, nil
}

// parseCTID parses PostgreSQL's "(block,offset)" ctid text representation.
func parseCTID(text string) (block int32, offset int16, err error) {
	text = strings.Trim(text, "()")
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("posupdate: malformed ctid %q", text)
	}
	var b int64
	var o int64
	if _, err := fmt.Sscanf(parts[0], "%d", &b); err != nil {
		return 0, 0, fmt.Errorf("posupdate: malformed ctid block %q: %w", parts[0], err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &o); err != nil {
		return 0, 0, fmt.Errorf("posupdate: malformed ctid offset %q: %w", parts[1], err)
	}
	return int32(b), int16(o), nil
}
