package tcp

import (
	"context"
	"net"
	"strconv"
	"syscall"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/tstenner/liblsl/internal/model"
)

// Acceptor binds a v4 and/or v6 listener in the configured port range
// and hands every accepted connection to a handler (spec §4.6).
type Acceptor struct {
	cfg *Config

	listenerV4 net.Listener
	listenerV6 net.Listener

	V4Port int
	V6Port int
}

var listenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	},
}

// Listen binds v4 and v6 listeners, each trying up to maxPortAttempts
// ports drawn from the configured range. It fails hard only if both
// families fail to bind any port (spec §4.6); a family that fails
// leaves its listener nil and its port 0.
func Listen(ctx context.Context, cfg *Config) (*Acceptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Acceptor{cfg: cfg}

	lnV4, portV4, errV4 := bindRange(ctx, "tcp4", cfg.PortRangeStart, cfg.PortRangeEnd)
	lnV6, portV6, errV6 := bindRange(ctx, "tcp6", cfg.PortRangeStart, cfg.PortRangeEnd)

	if lnV4 == nil && lnV6 == nil {
		return nil, multierr.Append(ErrBothFamiliesFailed, multierr.Combine(errV4, errV6))
	}

	a.listenerV4, a.V4Port = lnV4, portV4
	a.listenerV6, a.V6Port = lnV6, portV6
	return a, nil
}

func bindRange(ctx context.Context, network string, start, end int) (net.Listener, int, error) {
	span := end - start + 1
	attempts := maxPortAttempts
	if span < attempts {
		attempts = span
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		port := start + i
		ln, err := listenConfig.Listen(ctx, network, portAddr(network, port))
		if err == nil {
			return ln, port, nil
		}
		lastErr = err
	}
	return nil, 0, lastErr
}

func portAddr(network string, port int) string {
	host := ""
	if network == "tcp6" {
		host = "::"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// PatchStreamInfo records the bound ports into info, the way the
// acceptor's construction result feeds back into the outlet's
// advertised StreamInfo.
func (a *Acceptor) PatchStreamInfo(info *model.StreamInfo) {
	info.V4DataPort = a.V4Port
	info.V6DataPort = a.V6Port
}

// Accept runs the accept loop on each bound listener, invoking handle
// for every new connection with the family it arrived on. Accept
// blocks until both listeners are closed (via Close) or ctx is done.
func (a *Acceptor) Accept(ctx context.Context, handle func(conn net.Conn, family model.Family)) {
	stopWatcher := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.Close()
		case <-stopWatcher:
		}
	}()
	defer close(stopWatcher)

	acceptLoop := func(ln net.Listener, family model.Family) {
		if ln == nil {
			return
		}
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				_ = tc.SetNoDelay(true)
				_ = tc.SetReadBuffer(a.cfg.RecvBufSize)
				_ = tc.SetWriteBuffer(a.cfg.SendBufSize)
			}
			go handle(conn, family)
		}
	}

	var pending int
	results := make(chan struct{}, 2)
	if a.listenerV4 != nil {
		pending++
		go func() { acceptLoop(a.listenerV4, model.FamilyV4); results <- struct{}{} }()
	}
	if a.listenerV6 != nil {
		pending++
		go func() { acceptLoop(a.listenerV6, model.FamilyV6); results <- struct{}{} }()
	}
	for i := 0; i < pending; i++ {
		<-results
	}
}

// Close closes every bound listener, unblocking Accept's loops.
func (a *Acceptor) Close() {
	if a.listenerV4 != nil {
		_ = a.listenerV4.Close()
	}
	if a.listenerV6 != nil {
		_ = a.listenerV6.Close()
	}
}
