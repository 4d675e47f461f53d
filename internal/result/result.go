// Package result implements the result cache and cursor (component I):
// cursor-kind storage strategy, block fetch, scrolling, bookmarks, and the
// keyset/rollback-log machinery positioned updates need.
package result

import (
	"encoding/binary"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// CursorKind names the four ODBC cursor kinds, mapped onto two storage
// strategies per spec.md §4.9.
type CursorKind int

const (
	ForwardOnly CursorKind = iota
	Static
	KeysetDriven
	Dynamic
)

// ResolveKind applies spec.md §4.9's downgrade rule: Dynamic becomes
// KeysetDriven when updatable cursors are allowed, else Static.
func ResolveKind(requested CursorKind, updatableCursorsAllowed bool) CursorKind {
	if requested != Dynamic {
		return requested
	}
	if updatableCursorsAllowed {
		return KeysetDriven
	}
	return Static
}

// RowStatus is the ODBC-visible per-row status spec.md §3 names.
type RowStatus byte

const (
	RowSuccess RowStatus = iota
	RowUpdated
	RowDeleted
	RowAdded
	RowError
	RowNoRow
)

// KeySetFlags are the internal keyset status bits, independent of the
// ODBC-visible RowStatus.
type KeySetFlags uint8

const (
	InRowset KeySetFlags = 1 << iota
	NeedsReread
	OtherDeleted
	SelfUpdating
	SelfDeleting
	SelfAdding
)

// KeySetEntry is one row's (block, offset, oid, status) record, per
// spec.md §3.
type KeySetEntry struct {
	Block  int32
	Offset int16
	OID    uint32
	Flags  KeySetFlags
	Status RowStatus
}

// CTID renders the entry's (block, offset) pair in PostgreSQL's ctid
// literal form, used by internal/posupdate.
func (k KeySetEntry) CTID() string {
	return fmt.Sprintf("(%d,%d)", k.Block, k.Offset)
}

// rollbackEntry is one pushed-before-mutation snapshot, replayed by Undo.
type rollbackEntry struct {
	rowIdx int
	prior  KeySetEntry
	result *Result
}

func (r rollbackEntry) Undo() {
	r.result.keyset[r.rowIdx] = r.prior
	r.result.deleted.remove(r.rowIdx)
}

// Result holds one statement's column metadata and row cache, per
// spec.md §3.
type Result struct {
	Columns []wireproto.ColumnDescriptor

	rows   [][][]byte // TupleField arrays; nil cell = SQL NULL
	keyset []KeySetEntry

	Kind       CursorKind
	FetchChunk int

	deleted deletedList

	pos int // current-row cursor, -1 = before first

	conn     wireproto.Conn
	schema   string
	table    string
	bookmark []int32 // explicit bookmark values, parallel to rows, when assigned
}

// NewManual builds a client-side synthetic Result, used for catalog
// functions and simple-query/Bind-Execute responses that materialize rows
// without an incremental block fetch. keyset is seeded with one zero-value
// entry per row so SetPos/MarkDeleted stay in bounds the same as a
// NewBackendDriven result built up through AppendRows.
func NewManual(columns []wireproto.ColumnDescriptor, rows [][][]byte) *Result {
	return &Result{Columns: columns, rows: rows, keyset: make([]KeySetEntry, len(rows)), Kind: Static, pos: -1}
}

// NewBackendDriven builds a Result streamed from the wire layer.
func NewBackendDriven(conn wireproto.Conn, columns []wireproto.ColumnDescriptor, kind CursorKind, fetchChunk int) *Result {
	return &Result{Columns: columns, Kind: kind, FetchChunk: fetchChunk, conn: conn, pos: -1}
}

// AppendRows adds a block of freshly fetched rows (block fetch) to the
// cache; for ForwardOnly cursors this discards previously cached rows
// beyond FetchChunk, keeping memory bounded.
func (r *Result) AppendRows(rows [][][]byte) {
	r.rows = append(r.rows, rows...)
	for range rows {
		r.keyset = append(r.keyset, KeySetEntry{})
	}
	if r.Kind == ForwardOnly && r.FetchChunk > 0 && len(r.rows) > r.FetchChunk {
		drop := len(r.rows) - r.FetchChunk
		r.rows = r.rows[drop:]
		r.keyset = r.keyset[drop:]
		r.pos -= drop
	}
}

// NumRows reports the total visible row count (deleted rows excluded).
func (r *Result) NumRows() int {
	return len(r.rows) - r.deleted.len()
}

// RawLen reports the total row count including deleted rows, used for
// bookmark arithmetic.
func (r *Result) RawLen() int {
	return len(r.rows)
}

// Pos returns the current-row cursor.
func (r *Result) Pos() int { return r.pos }

// Row returns the cell values for the row at the given raw (not
// deleted-adjusted) index.
func (r *Result) Row(idx int) ([][]byte, error) {
	if idx < 0 || idx >= len(r.rows) {
		return nil, fmt.Errorf("result: row index %d out of range", idx)
	}
	if r.deleted.contains(idx) {
		return nil, fmt.Errorf("result: row %d is deleted", idx)
	}
	return r.rows[idx], nil
}

// KeySet returns the keyset entry for the given raw row index.
func (r *Result) KeySet(idx int) (KeySetEntry, error) {
	if idx < 0 || idx >= len(r.keyset) {
		return KeySetEntry{}, fmt.Errorf("result: row index %d out of range", idx)
	}
	return r.keyset[idx], nil
}

// SetKeySet updates the keyset entry for idx, pushing the prior value onto
// the rollback log for later Undo.
func (r *Result) SetKeySet(idx int, entry KeySetEntry) rollbackEntry {
	prior := r.keyset[idx]
	r.keyset[idx] = entry
	return rollbackEntry{rowIdx: idx, prior: prior, result: r}
}

// MarkDeleted hides row idx from the public view.
func (r *Result) MarkDeleted(idx int) {
	r.deleted.add(idx)
	r.keyset[idx].Status = RowDeleted
}

// IsDeleted reports whether row idx is currently hidden.
func (r *Result) IsDeleted(idx int) bool {
	return r.deleted.contains(idx)
}

// deletedList is a sorted array of globally-indexed row numbers, per
// spec.md §3.
type deletedList struct {
	indices []int
}

func (d *deletedList) add(idx int) {
	i := 0
	for i < len(d.indices) && d.indices[i] < idx {
		i++
	}
	if i < len(d.indices) && d.indices[i] == idx {
		return
	}
	d.indices = append(d.indices, 0)
	copy(d.indices[i+1:], d.indices[i:])
	d.indices[i] = idx
}

func (d *deletedList) remove(idx int) {
	for i, v := range d.indices {
		if v == idx {
			d.indices = append(d.indices[:i], d.indices[i+1:]...)
			return
		}
	}
}

func (d *deletedList) contains(idx int) bool {
	for _, v := range d.indices {
		if v == idx {
			return true
		}
		if v > idx {
			return false
		}
	}
	return false
}

func (d *deletedList) len() int { return len(d.indices) }

// EncodeBookmark renders a zero-based global row index as the four-byte
// binary buffer spec.md §4.9 names ("variable-width bookmarks are accepted
// but treated as four-byte integers by the core").
func EncodeBookmark(rowIdx int) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(rowIdx))
	return buf
}

// DecodeBookmark is the inverse of EncodeBookmark; any buffer of at least 4
// bytes is read as a little-endian uint32 regardless of its declared width.
func DecodeBookmark(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("result: bookmark buffer too small")
	}
	return int(binary.LittleEndian.Uint32(buf)), nil
}
