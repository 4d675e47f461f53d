// Package param implements the parameter resolver (component E): given the
// current parameter index and a QueryBuild mode, it decides what to place in
// the rewritten SQL text or the Bind message in place of a bare "?" marker.
package param

import (
	"fmt"
	"strings"

	"github.com/jeroenrinzema/pqodbc/pkg/buffer"
)

// Mode mirrors the QueryBuild mode enum: the same parameter marker is
// rendered differently depending on what the rewritten text is for.
type Mode int

const (
	// ReplaceParams inlines a quoted, escape-conforming literal directly
	// into the SQL text (used for simple-query execution without a
	// server-side prepare).
	ReplaceParams Mode = iota
	// FakeParams renders every marker as NULL, used when a query is sent
	// only to obtain a result-set description.
	FakeParams
	// BuildingPrepare renders "$n" placeholders for a server-side Parse
	// message, monotonically numbered.
	BuildingPrepare
	// BuildingBindRequest is not applied during the text rewrite pass; it
	// names the phase where resolved values are encoded into a Bind
	// message's parameter list. See BuildBindValue.
	BuildingBindRequest
)

// Value is the rendering a parameter resolves to for a given Mode, produced
// by the type converter (component G) and handed to the resolver for
// placement.
type Value struct {
	Null    bool
	Literal string // already-quoted/escaped SQL literal text, for ReplaceParams
	PGType  string // destination PostgreSQL type name, used for ::pgtype casts
}

// Resolver carries the per-connection flags that affect marker rendering.
type Resolver struct {
	// ParamCastMode suffixes BuildingPrepare markers with "::pgtype" unless
	// the marker is already followed by "::" or "as" in the source text.
	ParamCastMode bool
}

// Counter tracks the monotonically increasing "$n" index and the procedure
// return-value skip rule across one rewrite pass.
type Counter struct {
	n int
	// ProcReturn, when true, means the first parameter position is the
	// {?= call} return target and must not consume a $n slot.
	ProcReturn bool
	seen       int
}

// Next advances the counter and reports the $n value to use, or 0 for a
// position that is skipped (the procedure return value).
func (c *Counter) Next() int {
	c.seen++
	if c.ProcReturn && c.seen == 1 {
		return 0
	}
	c.n++
	return c.n
}

// nextFollowedByCast reports whether the rewritten text immediately
// following the about-to-be-written marker already starts with "::" or the
// keyword "as", in which case ParamCastMode must not add its own cast.
func nextFollowedByCast(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	if strings.HasPrefix(rest, "::") {
		return true
	}
	lowered := strings.ToLower(rest)
	return strings.HasPrefix(lowered, "as ") || lowered == "as"
}

// Resolve writes the rendering for one parameter marker into b according to
// mode. rest is the not-yet-written remainder of the source text following
// the marker, used only to suppress a redundant ParamCastMode cast.
func (r *Resolver) Resolve(b *buffer.Builder, mode Mode, c *Counter, v Value, rest string) error {
	switch mode {
	case FakeParams:
		b.AddString("NULL")
		return nil

	case ReplaceParams:
		if v.Null {
			b.AddString("NULL")
			return nil
		}
		b.AddString(v.Literal)
		return nil

	case BuildingPrepare:
		n := c.Next()
		if n == 0 {
			// Procedure return value: no placeholder emitted, the caller
			// removes the surrounding comma/paren around this position.
			return nil
		}
		b.AddString(fmt.Sprintf("$%d", n))
		if r.ParamCastMode && v.PGType != "" && !nextFollowedByCast(rest) {
			b.AddString("::")
			b.AddString(v.PGType)
		}
		return nil

	case BuildingBindRequest:
		// Bind values are not written into the SQL text; the statement
		// engine calls BuildBindValue directly for each ParameterInfo once
		// the $n-numbered text has been prepared.
		c.Next()
		return nil

	default:
		return fmt.Errorf("param: unknown mode %d", mode)
	}
}
