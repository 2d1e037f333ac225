package cancelreg

import "sync"

// Cancellable guarantees that any outstanding blocking call on the
// implementor returns with a cancellation signal within a bounded wake
// latency once Cancel is invoked (spec §4.2). Cancel must be idempotent
// and must never panic.
type Cancellable interface {
	Cancel()
}

// Registry holds a set of registered Cancellable handles for one
// subsystem. The registry keeps a strong reference to every registered
// handle, so a handle stays reachable (and is cancelled by CancelAll)
// until it is Unregistered; handles are not weakly held.
type Registry struct {
	mu      sync.Mutex
	members map[Cancellable]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{members: make(map[Cancellable]struct{})}
}

// Register adds h to the set of handles cancelled by CancelAll. Adding
// the same handle twice is a no-op.
func (r *Registry) Register(h Cancellable) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.members[h] = struct{}{}
	r.mu.Unlock()
}

// Unregister removes h from the set. Unregistering a handle that is not
// present is a no-op.
func (r *Registry) Unregister(h Cancellable) {
	if h == nil {
		return
	}
	r.mu.Lock()
	delete(r.members, h)
	r.mu.Unlock()
}

// CancelAll invokes Cancel on every currently registered handle. It
// snapshots the member set before calling out, so a handle's Cancel
// method may safely call Unregister on itself without deadlocking.
// Cancellation never propagates a panic from a misbehaving Cancellable.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	snapshot := make([]Cancellable, 0, len(r.members))
	for h := range r.members {
		snapshot = append(snapshot, h)
	}
	r.mu.Unlock()

	for _, h := range snapshot {
		cancelSafely(h)
	}
}

func cancelSafely(h Cancellable) {
	defer func() { _ = recover() }()
	h.Cancel()
}

// Len reports the number of currently registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
