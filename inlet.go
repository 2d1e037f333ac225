package lsl

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"unsafe"

	"github.com/tstenner/liblsl/internal/endian"
	"github.com/tstenner/liblsl/internal/lslog"
	"github.com/tstenner/liblsl/internal/model"
	"github.com/tstenner/liblsl/internal/transport/stream"
	"github.com/tstenner/liblsl/internal/wire"
)

var inletLog = lslog.Named("inlet")

// defaultMaxBuffered is the Max-Buffer-Length this inlet requests by
// default. The outlet's session uses it as this consumer's cursor
// capacity in samples: up to 360 samples are buffered before the outlet
// starts dropping the oldest ones on this consumer's behalf.
const defaultMaxBuffered = 360

// inletOptions mirrors the teacher's options struct.
type inletOptions struct {
	maxBuffered      int
	chunkGranularity int
	requestedVersion int
}

func defaultInletOptions() *inletOptions {
	return &inletOptions{maxBuffered: defaultMaxBuffered, requestedVersion: 110}
}

// InletOption configures an Inlet at construction time.
type InletOption func(*inletOptions)

// WithMaxBuffered overrides the consumer-side Max-Buffer-Length
// negotiated with the outlet.
func WithMaxBuffered(n int) InletOption {
	return func(o *inletOptions) { o.maxBuffered = n }
}

// WithChunkGranularity overrides the consumer-side Max-Chunk-Length
// negotiated with the outlet; 0 leaves it up to the outlet's
// server-wide default.
func WithChunkGranularity(n int) InletOption {
	return func(o *inletOptions) { o.chunkGranularity = n }
}

// WithRequestedProtocolVersion overrides the data protocol version
// this inlet asks the outlet to use. This module's own Outlet always
// defaults to 110, so lowering this only matters against a peer
// implementation running an older protocol.
func WithRequestedProtocolVersion(v int) InletOption {
	return func(o *inletOptions) { o.requestedVersion = v }
}

// sampleDecoder is the shared shape of wire.BinaryCodec and
// wire.PortableCodec's read side, letting Inlet switch codecs at
// runtime on whatever Data-Protocol-Version the outlet negotiated.
type sampleDecoder interface {
	DecodeSample(r *bufio.Reader) (model.Sample, error)
}

// Inlet is the TCP client side of spec §4.7: it dials an outlet's data
// port, runs the version/byte-order negotiation handshake, consumes
// the test pattern, and then pulls live samples off the stream.
type Inlet struct {
	st      *stream.Stream
	decoder sampleDecoder

	UID                 string
	ByteOrder           int
	DataProtocolVersion int

	mu     sync.Mutex
	closed bool
}

// Dial connects to the outlet described by info (as returned by a
// Resolver) and runs the full handshake through the post-test-pattern
// state, per spec §4.7. info must already carry a resolved address and
// data port (i.e. it came from Resolver.Resolve/Results, not a bare
// NewStreamInfo).
func Dial(ctx context.Context, info *StreamInfo, opts ...InletOption) (*Inlet, error) {
	o := defaultInletOptions()
	for _, opt := range opts {
		opt(o)
	}

	addr, err := dataAddr(info)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ProtocolError{Op: "dial", Err: err}
	}
	st := stream.New(conn)

	cmd := fmt.Sprintf("LSL:streamfeed/%d %s\r\n", o.requestedVersion, info.UID)
	if _, err := st.Write([]byte(cmd)); err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "write command", Err: err}
	}

	fh := wire.DefaultFeedHeader()
	fh.NativeByteOrder = clientByteOrder
	if w := info.ChannelFormat.ByteWidth(); w != 0 {
		fh.ValueSize = w
	}
	fh.MaxBufferLength = o.maxBuffered
	fh.MaxChunkLength = o.chunkGranularity
	fh.ProtocolVersion = o.requestedVersion
	if _, err := st.Write([]byte(fh.Render())); err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "write feed header", Err: err}
	}
	if err := st.Flush(); err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "flush request", Err: err}
	}

	statusLine, err := st.Reader().ReadString('\n')
	if err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "read status line", Err: err}
	}
	_, code, reason, err := wire.ParseStatusLine(statusLine)
	if err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "parse status line", Err: err}
	}
	if code != 200 {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "status", Err: fmt.Errorf("lsl: outlet replied %d %s", code, reason)}
	}

	rh, err := wire.ParseResponseHeader(st.Reader())
	if err != nil {
		st.Cancel()
		return nil, &ProtocolError{Op: "dial", Stage: "read response header", Err: err}
	}

	var decoder sampleDecoder
	if rh.DataProtocolVersion < 110 {
		decoder = &wire.PortableCodec{Format: info.ChannelFormat, ChannelCount: info.ChannelCount}
	} else {
		decoder = &wire.BinaryCodec{
			Format:          info.ChannelFormat,
			ChannelCount:    info.ChannelCount,
			TargetOrder:     rh.ByteOrder,
			FlushSubnormals: rh.SuppressSubnormals,
		}
	}

	// Consume the two test-pattern samples every transfer loop emits
	// before any real data, proving the negotiated format actually
	// decodes (spec §4.7, §9 "doubled test pattern order").
	for i := 0; i < 2; i++ {
		if _, err := decoder.DecodeSample(st.Reader()); err != nil {
			st.Cancel()
			return nil, &ProtocolError{Op: "dial", Stage: "read test pattern", Err: err}
		}
	}

	inletLog.Info("inlet connected", "uid", rh.UID, "addr", addr, "data_protocol_version", rh.DataProtocolVersion)
	return &Inlet{
		st:                  st,
		decoder:             decoder,
		UID:                 rh.UID,
		ByteOrder:           rh.ByteOrder,
		DataProtocolVersion: rh.DataProtocolVersion,
	}, nil
}

// PullSample blocks until the outlet sends the next sample, or returns
// an error once the connection is closed or broken.
func (in *Inlet) PullSample() (Sample, error) {
	in.mu.Lock()
	closed := in.closed
	in.mu.Unlock()
	if closed {
		return Sample{}, ErrInletClosed
	}
	s, err := in.decoder.DecodeSample(in.st.Reader())
	if err != nil {
		return Sample{}, &ProtocolError{Op: "pull sample", Err: err}
	}
	return s, nil
}

// Cancel implements cancelreg.Cancellable: it closes the underlying
// connection, unblocking any in-flight PullSample. Idempotent.
func (in *Inlet) Cancel() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	in.mu.Unlock()
	in.st.Cancel()
}

// Close is an alias for Cancel, for the io.Closer-shaped call sites.
func (in *Inlet) Close() error {
	in.Cancel()
	return nil
}

func dataAddr(info *StreamInfo) (string, error) {
	if info.V4Address != "" && info.V4DataPort != 0 {
		return net.JoinHostPort(info.V4Address, strconv.Itoa(info.V4DataPort)), nil
	}
	if info.V6Address != "" && info.V6DataPort != 0 {
		return net.JoinHostPort(info.V6Address, strconv.Itoa(info.V6DataPort)), nil
	}
	return "", fmt.Errorf("lsl: stream info %q has no resolved data address/port", info.UID)
}

// clientByteOrder is this process's byte order, advertised as
// Native-Byte-Order in the feed header (spec §4.7).
var clientByteOrder = detectClientByteOrder()

func detectClientByteOrder() int {
	var x uint16 = 0x0102
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 0x02 {
		return endian.LittleEndian
	}
	return endian.BigEndian
}
