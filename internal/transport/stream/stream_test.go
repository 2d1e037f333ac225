package stream

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipePair(t *testing.T) (net.Conn, net.Conn) {
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestStream_WriteFlushRead(t *testing.T) {
	a, b := pipePair(t)
	sa := New(a)
	sb := New(b)

	go func() {
		sa.Write([]byte("hello\r\n"))
		sa.Flush()
	}()

	line, err := sb.Reader().ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", line)
}

func TestStream_Cancel_UnblocksRead(t *testing.T) {
	a, b := pipePair(t)
	sa := New(a)
	_ = New(b)

	done := make(chan error, 1)
	go func() {
		_, err := sa.Reader().ReadByte()
		done <- err
	}()

	sa.Cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel did not unblock the pending read")
	}
}

func TestStream_Cancel_Idempotent(t *testing.T) {
	a, _ := pipePair(t)
	sa := New(a)
	assert.NotPanics(t, func() {
		sa.Cancel()
		sa.Cancel()
	})
	assert.True(t, sa.Cancelled())
}
