package pqodbc

import (
	"log/slog"

	"github.com/jeroenrinzema/pqodbc/internal/txn"
)

// CvtNullDateMode selects how an empty date/time string round-trips
// against a SQL NULL, per the CVT_NULL_DATE option (spec.md §6).
type CvtNullDateMode int

const (
	// CvtNullDateOff leaves empty date/time strings as-is.
	CvtNullDateOff CvtNullDateMode = iota
	// CvtNullDateEnabled names the empty-string/NULL mapping mode; see
	// WithCvtNullDate.
	CvtNullDateEnabled
)

// config holds every connection-level setting Option functions populate,
// modeled on psqlodbc's options.c conninfo attribute table (name, default,
// validator) rather than invented from scratch: each field below has a
// fixed default and is only ever changed through its With* constructor.
type config struct {
	serverSidePrepare    bool
	declareFetchSize     int
	updatableCursors     bool
	errorRollbackPolicy  txn.RollbackPolicy
	boolsAsChar          bool
	bytesAsLongVarBinary bool
	lfConversion         bool
	maxVarcharSize       int
	fetchRefcursors      bool
	cvtNullDate          CvtNullDateMode
	parseStatement       bool
	trueIsMinus1         bool
	binaryAsPossible     bool
	hexBytea             bool
	paramCastMode        bool
	escapeChar           byte
	logger               *slog.Logger
}

// defaultConfig returns the driver's out-of-the-box behavior: client-side
// parameter inlining, no declare/fetch, whole-transaction error rollback,
// and a slog.Default() logger — the same "safe unless asked otherwise"
// posture the teacher's NewServer gives its own defaults.
func defaultConfig() config {
	return config{
		errorRollbackPolicy: txn.PolicyTransaction,
		maxVarcharSize:      255,
		hexBytea:            true,
		logger:              slog.Default(),
	}
}

// Option configures a Conn at Open time, exactly the functional-options
// shape the teacher's OptionFn/wire.SimpleQuery(...) use.
type Option func(*config)

// WithServerSidePrepare records a preference for extended-query Parse.
// Nothing reads the setting: Prepare always issues Parse+Describe and
// ExecDirect always inlines parameters, with or without it.
func WithServerSidePrepare() Option {
	return func(c *config) { c.serverSidePrepare = true }
}

// WithDeclareFetch records n as each statement's FetchChunk. Statements do
// not issue DECLARE/FETCH: a SELECT's whole result set is read in one round
// trip and cached.
func WithDeclareFetch(n int) Option {
	return func(c *config) { c.declareFetchSize = n }
}

// WithUpdatableCursors records the updatable-cursors setting. Nothing reads
// it: SetPos/BulkOperations are available on every result set, and no
// cursor-kind downgrade consults it.
func WithUpdatableCursors() Option {
	return func(c *config) { c.updatableCursors = true }
}

// WithProtocolErrorRollback selects the Protocol=7.4-{0,1,2} savepoint
// policy: how much of the current transaction a failed statement unwinds.
func WithProtocolErrorRollback(policy txn.RollbackPolicy) Option {
	return func(c *config) { c.errorRollbackPolicy = policy }
}

// WithBoolsAsChar forces VARCHAR(5) ("true"/"false") boolean exchange
// instead of the native single-byte boolean representation.
func WithBoolsAsChar() Option {
	return func(c *config) { c.boolsAsChar = true }
}

// WithBytesAsLongVarBinary reports bytea columns with a column size of 0
// (no fixed width) in DescribeCol/ColAttribute. Their SQL type stays
// Bytea either way; no separate LONGVARBINARY type is reported.
func WithBytesAsLongVarBinary() Option {
	return func(c *config) { c.bytesAsLongVarBinary = true }
}

// WithLFConversion translates "\n" <-> "\r\n" on text columns in both
// directions.
func WithLFConversion() Option {
	return func(c *config) { c.lfConversion = true }
}

// WithMaxVarcharSize sets the column size reported for unknown/unbounded
// varchar columns.
func WithMaxVarcharSize(n int) Option {
	return func(c *config) { c.maxVarcharSize = n }
}

// WithFetchRefcursors causes a {call} that returns a refcursor column to
// automatically FETCH ALL from it and replace the result set.
func WithFetchRefcursors() Option {
	return func(c *config) { c.fetchRefcursors = true }
}

// WithCvtNullDate records the CVT_NULL_DATE empty-string/NULL mapping mode.
// No conversion path reads it, so empty date/time strings pass through
// unchanged under either mode.
func WithCvtNullDate(mode CvtNullDateMode) Option {
	return func(c *config) { c.cvtNullDate = mode }
}

// WithParseStatement records the parse-statement setting. Nothing reads it:
// NativeSQL never contacts the server, and DescribeParam answers from the
// last Prepare's Parse+Describe, with or without it.
func WithParseStatement() Option {
	return func(c *config) { c.parseStatement = true }
}

// WithTrueIsMinus1 renders boolean true as -1 instead of 1, for
// Fox/Xbase-compatible clients.
func WithTrueIsMinus1() Option {
	return func(c *config) { c.trueIsMinus1 = true }
}

// WithBinaryParameters prefers the extended-query binary format when
// encoding bound parameters, instead of always rendering text literals.
func WithBinaryParameters() Option {
	return func(c *config) { c.binaryAsPossible = true }
}

// WithHexBytea selects PostgreSQL's \x hex bytea output format explicitly
// (the default); WithOctalBytea switches to the legacy octal-escape form.
func WithHexBytea() Option {
	return func(c *config) { c.hexBytea = true }
}

// WithOctalBytea selects the legacy octal-escape bytea output format.
func WithOctalBytea() Option {
	return func(c *config) { c.hexBytea = false }
}

// WithParamCastMode suffixes BuildingPrepare markers with "::pgtype" unless
// the marker is already cast in the source text.
func WithParamCastMode() Option {
	return func(c *config) { c.paramCastMode = true }
}

// WithEscapeChar sets the connection's configured backslash-escape
// character for string literal scanning.
func WithEscapeChar(b byte) Option {
	return func(c *config) { c.escapeChar = b }
}

// WithLogger overrides the *slog.Logger every Conn/Stmt logs through;
// unset, it defaults to slog.Default(), exactly like the teacher's
// Server.logger default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
