package lsl

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstenner/liblsl/internal/cancelreg"
)

func newTestInfo(t *testing.T) *StreamInfo {
	t.Helper()
	info, err := NewStreamInfo("TestStream", "EEG", 3, 100, FormatFloat32, "src1")
	require.NoError(t, err)
	return info
}

func TestOutlet_PushSampleReachesInlet(t *testing.T) {
	info := newTestInfo(t)
	reg := cancelreg.New()

	out, err := NewOutlet(context.Background(), info, reg, WithDataPortRange(25000, 25050))
	require.NoError(t, err)
	defer out.Close()

	out.StreamInfo().V4Address = "127.0.0.1"
	in, err := Dial(context.Background(), out.StreamInfo())
	require.NoError(t, err)
	defer in.Close()

	require.Eventually(t, func() bool { return out.NumConsumers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, out.PushSample(Sample{Timestamp: 1.5, Values: []float32{1, 2, 3}, Pushthrough: true}))

	s, err := in.PullSample()
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.Timestamp)
	assert.Equal(t, []float32{1, 2, 3}, s.Values)
}

func TestOutlet_PushSampleAfterCloseFails(t *testing.T) {
	info := newTestInfo(t)
	out, err := NewOutlet(context.Background(), info, nil, WithDataPortRange(25100, 25150))
	require.NoError(t, err)

	require.NoError(t, out.Close())
	assert.ErrorIs(t, out.PushSample(Sample{Timestamp: 1}), ErrOutletClosed)
}

func TestOutlet_CloseUnblocksIdleSession(t *testing.T) {
	info := newTestInfo(t)
	out, err := NewOutlet(context.Background(), info, nil, WithDataPortRange(25300, 25350))
	require.NoError(t, err)

	// Connect but never send a command line, leaving the session
	// parked on its first ReadString — the acceptor and send-buffer
	// teardown Cancel already does wouldn't unblock this by itself.
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", out.StreamInfo().V4DataPort))
	require.NoError(t, err)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		conn.Read(buf)
		close(done)
	}()

	require.NoError(t, out.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle session was not unblocked by Outlet.Close")
	}
}

func TestOutlet_CancelViaRegistry(t *testing.T) {
	info := newTestInfo(t)
	reg := cancelreg.New()
	out, err := NewOutlet(context.Background(), info, reg, WithDataPortRange(25200, 25250))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Len())
	reg.CancelAll()

	assert.ErrorIs(t, out.PushSample(Sample{}), ErrOutletClosed)
}
