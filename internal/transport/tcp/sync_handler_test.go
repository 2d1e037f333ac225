package tcp

import (
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a net.Conn stub whose Write behavior is controlled by the
// test, used to exercise WriteAllBlocking's error classification without
// depending on OS-specific real-socket error timing.
type fakeConn struct {
	net.Conn
	writeErr error
	closed   bool
	writes   int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.writes++
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestIsBrokenConnection(t *testing.T) {
	assert.True(t, isBrokenConnection(syscall.EPIPE))
	assert.True(t, isBrokenConnection(syscall.ECONNRESET))
	assert.True(t, isBrokenConnection(&net.OpError{Err: syscall.EPIPE}))
	assert.False(t, isBrokenConnection(errors.New("some other failure")))
}

func TestSyncHandler_AddSocketAndLen(t *testing.T) {
	h := NewSyncHandler()
	assert.Equal(t, 0, h.Len())

	h.AddSocket(&fakeConn{})
	h.AddSocket(&fakeConn{})
	assert.Equal(t, 2, h.Len())
}

func TestWriteAllBlocking_AllSucceed(t *testing.T) {
	h := NewSyncHandler()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	drained := make(chan struct{})
	go func() {
		buf := make([]byte, 64)
		server.Read(buf)
		close(drained)
	}()

	h.AddSocket(client)
	errs := h.WriteAllBlocking([]byte("hello"))
	assert.Empty(t, errs)
	assert.Equal(t, 1, h.Len())

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never received the write")
	}
}

func TestWriteAllBlocking_BrokenConnectionIsRemoved(t *testing.T) {
	h := NewSyncHandler()
	broken := &fakeConn{writeErr: syscall.EPIPE}
	healthy := &fakeConn{}
	h.AddSocket(broken)
	h.AddSocket(healthy)

	errs := h.WriteAllBlocking([]byte("data"))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], syscall.EPIPE)

	assert.True(t, broken.closed)
	assert.False(t, healthy.closed)
	assert.Equal(t, 1, h.Len())
}

func TestWriteAllBlocking_SoftErrorKeepsSocket(t *testing.T) {
	h := NewSyncHandler()
	flaky := &fakeConn{writeErr: errors.New("temporary hiccup")}
	h.AddSocket(flaky)

	errs := h.WriteAllBlocking([]byte("data"))
	require.Len(t, errs, 1)
	assert.False(t, flaky.closed)
	assert.Equal(t, 1, h.Len())
}

func TestWriteAllBlocking_FansOutToEverySocket(t *testing.T) {
	h := NewSyncHandler()
	a := &fakeConn{}
	b := &fakeConn{}
	c := &fakeConn{}
	h.AddSocket(a)
	h.AddSocket(b)
	h.AddSocket(c)

	errs := h.WriteAllBlocking([]byte("x"))
	assert.Empty(t, errs)
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 1, b.writes)
	assert.Equal(t, 1, c.writes)
}
