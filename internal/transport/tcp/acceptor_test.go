package tcp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstenner/liblsl/internal/model"
)

func TestListen_BindsAtLeastOneFamily(t *testing.T) {
	cfg := &Config{PortRangeStart: 24000, PortRangeEnd: 24050, ServerProtocolVersion: 110}
	a, err := Listen(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.V4Port != 0 || a.V6Port != 0)
}

func TestListen_PatchStreamInfoRecordsPorts(t *testing.T) {
	cfg := &Config{PortRangeStart: 24100, PortRangeEnd: 24150, ServerProtocolVersion: 110}
	a, err := Listen(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	info := &model.StreamInfo{}
	a.PatchStreamInfo(info)
	assert.Equal(t, a.V4Port, info.V4DataPort)
	assert.Equal(t, a.V6Port, info.V6DataPort)
}

func TestAccept_InvokesHandleOnNewConnection(t *testing.T) {
	cfg := &Config{PortRangeStart: 24200, PortRangeEnd: 24250, ServerProtocolVersion: 110}
	a, err := Listen(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan model.Family, 1)
	done := make(chan struct{})
	go func() {
		a.Accept(ctx, func(conn net.Conn, family model.Family) {
			conn.Close()
			got <- family
		})
		close(done)
	}()

	require.NotZero(t, a.V4Port)
	conn, err := net.Dial("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(a.V4Port)))
	require.NoError(t, err)
	conn.Close()

	select {
	case fam := <-got:
		assert.Equal(t, model.FamilyV4, fam)
	case <-time.After(2 * time.Second):
		t.Fatal("handle was never invoked")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after cancel")
	}
}
