package convert

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

const (
	loModeRead  = 0x20000
	loModeWrite = 0x40000
	loSeekEnd   = 2
	loSeekSet   = 0
)

// LargeObjectReader implements the F-direction large-object rule from
// spec.md §4.6: "open the LO on first access, seek to end to determine
// length, return bytes incrementally on further calls, close on last
// chunk". It never touches pgconn directly, only wireproto.Conn.
type LargeObjectReader struct {
	conn   wireproto.Conn
	fd     int32
	opened bool
	length int64
	read   int64
}

// Open opens the large object for reading and determines its length by
// seeking to the end, per spec.md §4.6.
func (r *LargeObjectReader) Open(ctx context.Context, conn wireproto.Conn, oid uint32) error {
	r.conn = conn
	fd, err := conn.LoOpen(ctx, oid, loModeRead)
	if err != nil {
		return fmt.Errorf("convert: lo_open: %w", err)
	}
	r.fd = fd
	length, err := conn.LoLseek64(ctx, fd, 0, loSeekEnd)
	if err != nil {
		return fmt.Errorf("convert: lo_lseek64: %w", err)
	}
	if _, err := conn.LoLseek64(ctx, fd, 0, loSeekSet); err != nil {
		return fmt.Errorf("convert: lo_lseek64 rewind: %w", err)
	}
	r.length = length
	r.opened = true
	return nil
}

// Next returns up to chunkSize more bytes, closing the LO automatically
// once the final chunk has been returned.
func (r *LargeObjectReader) Next(ctx context.Context, chunkSize int32) ([]byte, bool, error) {
	if !r.opened {
		return nil, true, fmt.Errorf("convert: large object not opened")
	}
	data, err := r.conn.LoRead(ctx, r.fd, chunkSize)
	if err != nil {
		return nil, true, fmt.Errorf("convert: loread: %w", err)
	}
	r.read += int64(len(data))
	done := r.read >= r.length || len(data) == 0
	if done {
		if cerr := r.conn.LoClose(ctx, r.fd); cerr != nil {
			return data, done, fmt.Errorf("convert: lo_close: %w", cerr)
		}
	}
	return data, done, nil
}

// LargeObjectWriter implements the G-direction large-object rule from
// spec.md §4.7: "on first PutData opens a new LO in the current
// transaction (beginning one if needed), writes subsequent chunks to the LO
// file descriptor, closes on completion, sends the OID as the actual
// parameter value."
type LargeObjectWriter struct {
	conn   wireproto.Conn
	fd     int32
	oid    uint32
	opened bool
}

// Open begins a transaction if necessary, creates a new large object, and
// opens it for writing.
func (w *LargeObjectWriter) Open(ctx context.Context, conn wireproto.Conn) (uint32, error) {
	w.conn = conn
	if !conn.InTransaction() {
		if err := conn.Begin(ctx); err != nil {
			return 0, fmt.Errorf("convert: implicit begin for large object: %w", err)
		}
	}
	oid, err := conn.LoCreat(ctx, loModeRead|loModeWrite)
	if err != nil {
		return 0, fmt.Errorf("convert: lo_creat: %w", err)
	}
	fd, err := conn.LoOpen(ctx, oid, loModeWrite)
	if err != nil {
		return 0, fmt.Errorf("convert: lo_open: %w", err)
	}
	w.oid, w.fd, w.opened = oid, fd, true
	return oid, nil
}

// Write appends one chunk to the large object.
func (w *LargeObjectWriter) Write(ctx context.Context, chunk []byte) error {
	if !w.opened {
		return fmt.Errorf("convert: large object not opened for write")
	}
	_, err := w.conn.LoWrite(ctx, w.fd, chunk)
	if err != nil {
		return fmt.Errorf("convert: lowrite: %w", err)
	}
	return nil
}

// Close finishes the write and returns the OID to bind as the parameter
// value.
func (w *LargeObjectWriter) Close(ctx context.Context) (uint32, error) {
	if !w.opened {
		return 0, fmt.Errorf("convert: large object not opened for write")
	}
	if err := w.conn.LoClose(ctx, w.fd); err != nil {
		return 0, fmt.Errorf("convert: lo_close: %w", err)
	}
	w.opened = false
	return w.oid, nil
}
