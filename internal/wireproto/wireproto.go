// Package wireproto is the opaque command-sender this driver talks to: the
// thin boundary below which lies whatever actually puts bytes on a socket.
// In production that is *pgconn.PgConn; in tests it is internal/wiretest's
// fake. Nothing above this package imports pgconn directly.
package wireproto

import "context"

// Status mirrors spec.md §3's Result status model.
type Status int

const (
	EmptyQuery Status = iota
	CommandOK
	TuplesOK
	CopyIn
	CopyOut
	NonfatalError
	FatalError
)

// ColumnDescriptor describes one result column, shared with the statement
// engine's DescribeCol surface.
type ColumnDescriptor struct {
	Name         string
	TableOID     uint32
	ColumnAttr   int16
	TypeOID      uint32
	TypeSize     int16
	TypeModifier int32
	Format       int16
}

// Result is what SendQuery/BindAndExecute hand back: either a backend-driven
// row stream or a command completion tag.
type Result struct {
	Status       Status
	Columns      []ColumnDescriptor
	Rows         [][][]byte // nil cell = SQL NULL
	CommandTag   string
	RowsAffected int64
	ErrorCode    string // SQLSTATE, set when Status == FatalError/NonfatalError
	ErrorMessage string
}

// Conn is the full command surface the rest of the driver is built against.
// It deliberately mirrors libpq's call shape (simple query, extended query
// Parse/Bind/Describe/Execute, cancel, large objects, transaction control)
// so wireproto.pgconnConn stays a thin adapter.
type Conn interface {
	SendQuery(ctx context.Context, sql string) (*Result, error)
	ParseAndDescribe(ctx context.Context, planName, sql string, nParams int) (paramTypes []uint32, columns []ColumnDescriptor, err error)
	BindAndExecute(ctx context.Context, planName, portal string, paramValues [][]byte, paramFormats []int16, resultFormat int16) (*Result, error)
	CancelRequest(ctx context.Context) error

	LoCreat(ctx context.Context, mode int32) (oid uint32, err error)
	LoOpen(ctx context.Context, id uint32, mode int32) (fd int32, err error)
	LoRead(ctx context.Context, fd int32, n int32) ([]byte, error)
	LoWrite(ctx context.Context, fd int32, data []byte) (int32, error)
	LoLseek64(ctx context.Context, fd int32, offset int64, whence int32) (int64, error)
	LoTell64(ctx context.Context, fd int32) (int64, error)
	LoClose(ctx context.Context, fd int32) error

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Savepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	InTransaction() bool

	// Broken reports whether the underlying transport has torn itself down
	// (e.g. the server closed the socket after a fatal error), the signal
	// spec.md §4.8's InternalError kind latches Conn/Stmt unusable on.
	Broken() bool

	Close(ctx context.Context) error
}
