package errors

import (
	"strings"

	"github.com/jeroenrinzema/pqodbc/codes"
)

// Diagnostic is one entry of a statement or connection diagnostic list, the
// ODBC-visible shape of an error or notice: a SQLSTATE code, a driver-native
// code, and human readable text. Diagnostics are collected into a DiagList
// rather than the intrusive linked list the original driver used; index 1 is
// always the most recent entry, matching GetDiagRec's convention.
type Diagnostic struct {
	SQLState    codes.Code
	NativeCode  int32
	MessageText string
}

// FromError flattens a decorated error into a Diagnostic. Any hint,
// detail, or constraint name attached via WithHint/WithDetail/
// WithConstraintName (wireproto's wrapExecError attaches these and a
// severity from a *pgconn.PgError) is folded into MessageText, tagged with
// the WithSeverity level (or its default), since Diagnostic itself carries
// only {sqlState, nativeCode, messageText}. With none of the three
// present, MessageText is err.Error() alone and the severity is not shown.
func FromError(err error) Diagnostic {
	if err == nil {
		return Diagnostic{SQLState: codes.SuccessfulCompletion}
	}

	text := err.Error()
	severity := DefaultSeverity(GetSeverity(err))

	var extra []string
	if hint := GetHint(err); hint != "" {
		extra = append(extra, "hint: "+hint)
	}
	if detail := GetDetail(err); detail != "" {
		extra = append(extra, "detail: "+detail)
	}
	if constraint := GetConstraintName(err); constraint != "" {
		extra = append(extra, "constraint: "+constraint)
	}
	if len(extra) > 0 {
		text = text + " (" + string(severity) + ": " + strings.Join(extra, ", ") + ")"
	}

	return Diagnostic{
		SQLState:    GetCode(err),
		NativeCode:  0,
		MessageText: text,
	}
}

// DiagList is an owned, append-only collection of diagnostics for one
// statement or connection. Reading never mutates the list: GetDiagRec is
// non-destructive and repeated calls return the same message, per the
// statement/connection diagnostic contract.
type DiagList struct {
	entries []Diagnostic
}

// Push appends a new diagnostic; it becomes the new index 1.
func (d *DiagList) Push(diag Diagnostic) {
	d.entries = append(d.entries, diag)
}

// PushError is a convenience wrapper around Push(FromError(err)).
func (d *DiagList) PushError(err error) {
	if err == nil {
		return
	}
	d.Push(FromError(err))
}

// Len returns the number of diagnostics currently recorded.
func (d *DiagList) Len() int {
	return len(d.entries)
}

// Rec returns the 1-indexed diagnostic record, most recent first, matching
// GetDiagRec(1) semantics. The second return value is false if index is out
// of range.
func (d *DiagList) Rec(index int) (Diagnostic, bool) {
	if index < 1 || index > len(d.entries) {
		return Diagnostic{}, false
	}

	return d.entries[len(d.entries)-index], true
}

// Clear empties the list. Called at the start of most public calls (per
// clear_error) or on statement recycle.
func (d *DiagList) Clear() {
	d.entries = d.entries[:0]
}
