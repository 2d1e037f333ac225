package lsl

import (
	"context"
	"net"
	"sync"

	"github.com/tstenner/liblsl/internal/cancelreg"
	"github.com/tstenner/liblsl/internal/lslog"
	"github.com/tstenner/liblsl/internal/model"
	"github.com/tstenner/liblsl/internal/samplequeue"
	"github.com/tstenner/liblsl/internal/transport/tcp"
)

var outletLog = lslog.Named("outlet")

// outletOptions mirrors the teacher's options struct: a config to
// mutate in place, applied functionally before construction.
type outletOptions struct {
	cfg *tcp.Config
}

// OutletOption configures an Outlet at construction time.
type OutletOption func(*outletOptions)

// WithDataPortRange overrides the TCP data port range an outlet binds
// in, instead of tcp.DefaultConfig's.
func WithDataPortRange(start, end int) OutletOption {
	return func(o *outletOptions) {
		o.cfg.PortRangeStart = start
		o.cfg.PortRangeEnd = end
	}
}

// WithChunkSize overrides the server-wide default max_samples_per_chunk
// used when a consumer's negotiated chunk_granularity is unset.
func WithChunkSize(n int) OutletOption {
	return func(o *outletOptions) {
		o.cfg.ChunkSize = n
	}
}

// WithServerProtocolVersion overrides the protocol version an outlet
// advertises and negotiates down from.
func WithServerProtocolVersion(v int) OutletOption {
	return func(o *outletOptions) {
		o.cfg.ServerProtocolVersion = v
	}
}

// Outlet publishes one stream and serves it to any number of connected
// consumers (spec §4.6/§4.7). It owns the TCP acceptor, the send
// buffer every session's transfer loop reads from, and registers
// itself for process-wide cancellation.
type Outlet struct {
	info     *model.StreamInfo
	queue    *samplequeue.Queue
	acceptor *tcp.Acceptor
	cfg      *tcp.Config
	reg      *cancelreg.Registry

	// sessions holds every currently in-flight session's stream, so
	// Cancel can abort one still blocked reading a command/feed header
	// (i.e. a connected-but-idle or slow client that hasn't reached
	// the transfer loop, where closing the acceptor and the sample
	// queue's cursors has no effect) rather than leaking that
	// goroutine until the client itself hangs up.
	sessions *cancelreg.Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewOutlet binds the TCP listener(s), patches the bound ports into
// info, and starts accepting connections. info is used as-is (and
// mutated in place with the bound ports) — construct it with
// NewStreamInfo first. reg, if non-nil, receives the Outlet so a
// process-wide CancelAll also tears it down.
func NewOutlet(ctx context.Context, info *StreamInfo, reg *cancelreg.Registry, opts ...OutletOption) (*Outlet, error) {
	o := &outletOptions{cfg: tcp.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	acceptor, err := tcp.Listen(ctx, o.cfg)
	if err != nil {
		return nil, err
	}
	acceptor.PatchStreamInfo(info)

	octx, cancel := context.WithCancel(ctx)
	out := &Outlet{
		info:     info,
		queue:    samplequeue.New(),
		acceptor: acceptor,
		cfg:      o.cfg,
		reg:      reg,
		sessions: cancelreg.New(),
		ctx:      octx,
		cancel:   cancel,
	}
	if reg != nil {
		reg.Register(out)
	}

	go acceptor.Accept(octx, out.serveConn)

	outletLog.Info("outlet started", "uid", info.UID, "name", info.Name, "v4_port", acceptor.V4Port, "v6_port", acceptor.V6Port)
	return out, nil
}

func (o *Outlet) serveConn(conn net.Conn, family model.Family) {
	defaultMetrics.sessionsTotal.Inc()
	defaultMetrics.sessionsActive.Inc()
	defer defaultMetrics.sessionsActive.Dec()

	st := tcp.NewSessionStream(conn)
	o.sessions.Register(st)
	defer o.sessions.Unregister(st)
	defer st.Cancel()

	session := tcp.NewSession(o.info, o.queue, o.cfg)
	if err := session.Serve(st); err != nil {
		outletLog.Debug("session ended", "uid", o.info.UID, "err", err)
	}
	defaultMetrics.queueDropsTotal.Set(float64(o.queue.TotalDropped()))
}

// PushSample enqueues one sample for every currently connected
// consumer (spec §4.3). PushSample never blocks on a slow consumer.
func (o *Outlet) PushSample(s Sample) error {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return ErrOutletClosed
	}
	o.queue.Push(s)
	return nil
}

// StreamInfo returns the outlet's published descriptor, including the
// ports bound during construction.
func (o *Outlet) StreamInfo() *StreamInfo {
	return o.info
}

// NumConsumers reports how many sessions currently hold an open cursor
// on the send buffer.
func (o *Outlet) NumConsumers() int {
	return o.queue.NumConsumers()
}

// Cancel implements cancelreg.Cancellable: it stops accepting new
// connections, wakes every blocked consumer cursor so in-flight
// transfer loops exit, and cancels every session's stream so a
// connection still blocked on its initial handshake read unblocks too.
// Cancel is idempotent.
func (o *Outlet) Cancel() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.acceptor.Close()
	o.queue.CloseAll()
	o.sessions.CancelAll()
}

// Close tears down the outlet, unregistering it from reg if it was
// registered. Close is idempotent.
func (o *Outlet) Close() error {
	o.Cancel()
	if o.reg != nil {
		o.reg.Unregister(o)
	}
	return nil
}
