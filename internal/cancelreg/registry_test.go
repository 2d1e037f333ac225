package cancelreg

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCancellable struct {
	mu        sync.Mutex
	cancelled bool
	panics    bool
}

func (f *fakeCancellable) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("boom")
	}
	f.cancelled = true
}

func (f *fakeCancellable) wasCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func TestRegisterUnregister(t *testing.T) {
	r := New()
	h := &fakeCancellable{}

	r.Register(h)
	assert.Equal(t, 1, r.Len())

	r.Unregister(h)
	assert.Equal(t, 0, r.Len())
}

func TestCancelAll_InvokesEveryHandle(t *testing.T) {
	r := New()
	handles := make([]*fakeCancellable, 5)
	for i := range handles {
		handles[i] = &fakeCancellable{}
		r.Register(handles[i])
	}

	r.CancelAll()

	for _, h := range handles {
		assert.True(t, h.wasCancelled())
	}
}

func TestCancelAll_Idempotent(t *testing.T) {
	r := New()
	h := &fakeCancellable{}
	r.Register(h)

	r.CancelAll()
	r.CancelAll()

	assert.True(t, h.wasCancelled())
}

func TestCancelAll_NeverPanics(t *testing.T) {
	r := New()
	r.Register(&fakeCancellable{panics: true})
	r.Register(&fakeCancellable{})

	assert.NotPanics(t, func() {
		r.CancelAll()
	})
}

func TestCancelAll_SelfUnregisterDoesNotDeadlock(t *testing.T) {
	r := New()
	var self *selfUnregistering
	self = &selfUnregistering{registry: r}
	r.Register(self)

	assert.NotPanics(t, func() {
		r.CancelAll()
	})
	assert.Equal(t, 0, r.Len())
}

type selfUnregistering struct {
	registry *Registry
}

func (s *selfUnregistering) Cancel() {
	s.registry.Unregister(s)
}
