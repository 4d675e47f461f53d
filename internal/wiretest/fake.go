// Package wiretest provides a fake wireproto.Conn for tests, modeled on the
// teacher's pkg/mock: a minimal stand-in that records what it was asked to
// send and plays back scripted responses, so the statement/result engine is
// fully testable without a live server.
package wiretest

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// Call records one invocation against the fake, for assertions.
type Call struct {
	Method string
	SQL    string
	Args   []string
}

// Fake implements wireproto.Conn entirely in memory. Script results by
// pushing onto Results (SendQuery/BindAndExecute pop the next entry);
// ParseAndDescribe responses are looked up by SQL text in Described.
type Fake struct {
	Calls   []Call
	Results []*wireproto.Result
	Err     error

	Described map[string]DescribeResponse

	NextLoOID uint32
	loBuffers map[int32]*loFile
	nextFD    int32

	inTxn      bool
	savepoints []string
	Closed     bool
	Cancelled  bool

	// IsBroken lets a test script an InternalError-style transport
	// teardown without actually closing the fake, since Closed already
	// means "Close was called" (a graceful end, not a latch condition).
	IsBroken bool
}

// DescribeResponse scripts a ParseAndDescribe reply for a given SQL text.
type DescribeResponse struct {
	ParamTypes []uint32
	Columns    []wireproto.ColumnDescriptor
	Err        error
}

type loFile struct {
	data []byte
	pos  int64
}

// New constructs an empty Fake ready for a test to script.
func New() *Fake {
	return &Fake{
		Described: map[string]DescribeResponse{},
		loBuffers: map[int32]*loFile{},
	}
}

func (f *Fake) record(method, sql string, args ...string) {
	f.Calls = append(f.Calls, Call{Method: method, SQL: sql, Args: args})
}

func (f *Fake) popResult() (*wireproto.Result, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Results) == 0 {
		return &wireproto.Result{Status: wireproto.CommandOK}, nil
	}
	r := f.Results[0]
	f.Results = f.Results[1:]
	return r, nil
}

func (f *Fake) SendQuery(ctx context.Context, sql string) (*wireproto.Result, error) {
	f.record("SendQuery", sql)
	return f.popResult()
}

func (f *Fake) ParseAndDescribe(ctx context.Context, planName, sql string, nParams int) ([]uint32, []wireproto.ColumnDescriptor, error) {
	f.record("ParseAndDescribe", sql)
	if resp, ok := f.Described[sql]; ok {
		return resp.ParamTypes, resp.Columns, resp.Err
	}
	return make([]uint32, nParams), nil, nil
}

func (f *Fake) BindAndExecute(ctx context.Context, planName, portal string, paramValues [][]byte, paramFormats []int16, resultFormat int16) (*wireproto.Result, error) {
	f.record("BindAndExecute", planName)
	return f.popResult()
}

func (f *Fake) CancelRequest(ctx context.Context) error {
	f.Cancelled = true
	return nil
}

func (f *Fake) LoCreat(ctx context.Context, mode int32) (uint32, error) {
	f.NextLoOID++
	return f.NextLoOID, nil
}

func (f *Fake) LoOpen(ctx context.Context, id uint32, mode int32) (int32, error) {
	f.nextFD++
	if _, ok := f.loBuffers[int32(id)]; !ok {
		f.loBuffers[int32(id)] = &loFile{}
	}
	f.loBuffers[f.nextFD] = f.loBuffers[int32(id)]
	return f.nextFD, nil
}

func (f *Fake) LoRead(ctx context.Context, fd int32, n int32) ([]byte, error) {
	file, ok := f.loBuffers[fd]
	if !ok {
		return nil, fmt.Errorf("wiretest: unknown lo fd %d", fd)
	}
	end := file.pos + int64(n)
	if end > int64(len(file.data)) {
		end = int64(len(file.data))
	}
	chunk := file.data[file.pos:end]
	file.pos = end
	return chunk, nil
}

func (f *Fake) LoWrite(ctx context.Context, fd int32, data []byte) (int32, error) {
	file, ok := f.loBuffers[fd]
	if !ok {
		return 0, fmt.Errorf("wiretest: unknown lo fd %d", fd)
	}
	file.data = append(file.data, data...)
	file.pos = int64(len(file.data))
	return int32(len(data)), nil
}

func (f *Fake) LoLseek64(ctx context.Context, fd int32, offset int64, whence int32) (int64, error) {
	file, ok := f.loBuffers[fd]
	if !ok {
		return 0, fmt.Errorf("wiretest: unknown lo fd %d", fd)
	}
	switch whence {
	case 0:
		file.pos = offset
	case 1:
		file.pos += offset
	case 2:
		file.pos = int64(len(file.data)) + offset
	}
	return file.pos, nil
}

func (f *Fake) LoTell64(ctx context.Context, fd int32) (int64, error) {
	file, ok := f.loBuffers[fd]
	if !ok {
		return 0, fmt.Errorf("wiretest: unknown lo fd %d", fd)
	}
	return file.pos, nil
}

func (f *Fake) LoClose(ctx context.Context, fd int32) error {
	delete(f.loBuffers, fd)
	return nil
}

func (f *Fake) Begin(ctx context.Context) error {
	f.record("Begin", "")
	f.inTxn = true
	return nil
}

func (f *Fake) Commit(ctx context.Context) error {
	f.record("Commit", "")
	f.inTxn = false
	return nil
}

func (f *Fake) Rollback(ctx context.Context) error {
	f.record("Rollback", "")
	f.inTxn = false
	f.savepoints = nil
	return nil
}

func (f *Fake) Savepoint(ctx context.Context, name string) error {
	f.record("Savepoint", name)
	f.savepoints = append(f.savepoints, name)
	return nil
}

func (f *Fake) ReleaseSavepoint(ctx context.Context, name string) error {
	f.record("ReleaseSavepoint", name)
	return nil
}

func (f *Fake) RollbackToSavepoint(ctx context.Context, name string) error {
	f.record("RollbackToSavepoint", name)
	return nil
}

func (f *Fake) InTransaction() bool {
	return f.inTxn
}

func (f *Fake) Broken() bool {
	return f.IsBroken
}

func (f *Fake) Close(ctx context.Context) error {
	f.Closed = true
	return nil
}
