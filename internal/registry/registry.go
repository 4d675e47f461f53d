// Package registry implements the driver-wide instance registry spec.md §9
// calls for in place of cross-connection globals: "a simple set of weak
// handles guarded by one mutex". It never holds a strong reference to the
// Conn/Stmt it tracks — only an opaque token — so a registered object is
// still free to be garbage collected the moment its owner drops it; the
// registry only answers "is this handle still live" for diagnostic and
// double-free detection, the way the teacher's Server guards its own
// lifecycle with a mutex plus an atomic.Bool (wire.go's closing/wg fields).
package registry

import "sync"

// Handle is an opaque, monotonically increasing token identifying one
// registered Conn or Stmt.
type Handle uint64

// Registry tracks which handles are currently allocated.
type Registry struct {
	mu   sync.Mutex
	next Handle
	live map[Handle]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{live: map[Handle]struct{}{}}
}

// Register allocates and returns a fresh handle, marked live.
func (r *Registry) Register() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.live[h] = struct{}{}
	return h
}

// Valid reports whether h is still registered.
func (r *Registry) Valid(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[h]
	return ok
}

// Release marks h no longer live. Releasing an already-released or unknown
// handle is a no-op, matching SQLFreeHandle's tolerance of repeated frees
// once detected.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, h)
}

// Len reports the number of currently live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
