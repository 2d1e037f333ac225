package tcp

import (
	"fmt"
	"io"
	"math"
	"net"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/mikioh/tcpinfo"

	"github.com/tstenner/liblsl/internal/endian"
	"github.com/tstenner/liblsl/internal/metadata"
	"github.com/tstenner/liblsl/internal/model"
	"github.com/tstenner/liblsl/internal/samplequeue"
	"github.com/tstenner/liblsl/internal/transport/stream"
	"github.com/tstenner/liblsl/internal/wire"
)

// nativeByteOrder is this process's byte order, used as the server
// side of every endian negotiation.
var nativeByteOrder = detectNativeByteOrder()

func detectNativeByteOrder() int {
	var x uint16 = 0x0102
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 0x02 {
		return endian.LittleEndian
	}
	return endian.BigEndian
}

// baseReversalThroughput is this server's assumed byte reversal
// throughput on a local link, compared against the client's advertised
// Endian-Performance to decide whether reversal is worth enabling
// (spec §4.7). A fixed figure stands in for an actual CPU benchmark;
// effectiveReversalThroughput discounts it by the session's measured
// RTT, since a slower link makes the server's own conversion cost
// matter less relative to the network time either side pays anyway.
const baseReversalThroughput = 1e9

// rttDiscountFloor is the minimum fraction of baseReversalThroughput a
// session's RTT can discount it to, so an unusually slow link can't
// push the effective throughput to zero and rule out reversal on every
// connection regardless of Endian-Performance.
const rttDiscountFloor = 0.1

// effectiveReversalThroughput scales baseReversalThroughput down as
// rtt grows: every additional 10ms of round-trip time halves the
// weight given to the server's own reversal cost, down to
// rttDiscountFloor.
func effectiveReversalThroughput(rtt time.Duration) float64 {
	if rtt <= 0 {
		return baseReversalThroughput
	}
	halvings := rtt.Seconds() / 0.010
	scale := 1 / math.Pow(2, halvings)
	if scale < rttDiscountFloor {
		scale = rttDiscountFloor
	}
	return baseReversalThroughput * scale
}

// Session serves one accepted TCP connection through the full spec
// §4.7 state machine: command parsing, version negotiation, feed
// header, test pattern, and transfer loop.
type Session struct {
	info  *model.StreamInfo
	queue *samplequeue.Queue
	cfg   *Config

	shortInfoXML string
	fullInfoXML  string

	// measuredRTT is this connection's round-trip time, read back via
	// TCP_INFO at the start of Serve. It factors into the endian-
	// reversal decision (shouldReverse): a slower link makes the
	// server's own reversal cost comparatively less important, since
	// network transfer time will dominate either way.
	measuredRTT time.Duration
}

// NewSession builds a session bound to one outlet's info, queue, and
// server config. shortInfoXML/fullInfoXML are pre-rendered once per
// outlet (they never change after publication, spec §3) and reused
// across every session.
func NewSession(info *model.StreamInfo, queue *samplequeue.Queue, cfg *Config) *Session {
	return &Session{
		info:         info,
		queue:        queue,
		cfg:          cfg,
		shortInfoXML: metadata.ShortInfo(info),
		fullInfoXML:  metadata.FullInfo(info),
	}
}

// NewSessionStream wraps conn for use with Serve. Splitting this out
// of Serve lets the caller hold the returned Stream and register it
// for out-of-band cancellation before Serve ever blocks on its first
// read.
func NewSessionStream(conn net.Conn) *stream.Stream {
	return stream.New(conn)
}

// Serve drives one already-wrapped connection through the state
// machine to completion. It never returns an error for a cleanly-
// closed session; errors indicate a protocol violation or I/O failure
// worth logging. st's lifetime (including its eventual Cancel) is the
// caller's responsibility, so the caller can register it for
// out-of-band cancellation while Serve is still blocked reading.
func (s *Session) Serve(st *stream.Stream) error {
	if tc, ok := st.RawConn().(*net.TCPConn); ok {
		s.measuredRTT = connRTT(tc)
	}

	line, err := st.Reader().ReadString('\n')
	if err != nil {
		return &SessionError{Stage: "read command", Err: err}
	}
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		return &SessionError{Stage: "parse command", Err: err}
	}

	switch cmd.Verb {
	case wire.ShortInfoVerb:
		return s.handleShortInfo(st)
	case wire.FullInfoVerb:
		return s.handleFullInfo(st)
	default:
		return s.handleStreamFeed(st, cmd)
	}
}

func (s *Session) handleShortInfo(st *stream.Stream) error {
	queryLine, err := st.Reader().ReadString('\n')
	if err != nil {
		return &SessionError{Stage: "read query", Err: err}
	}
	query := strings.TrimRight(queryLine, "\r\n")
	if !metadata.MatchesQuery(s.info, query) {
		return nil
	}
	if _, err := io.WriteString(st, s.shortInfoXML); err != nil {
		return &SessionError{Stage: "write shortinfo", Err: err}
	}
	return st.Flush()
}

func (s *Session) handleFullInfo(st *stream.Stream) error {
	if _, err := io.WriteString(st, s.fullInfoXML); err != nil {
		return &SessionError{Stage: "write fullinfo", Err: err}
	}
	return st.Flush()
}

func (s *Session) handleStreamFeed(st *stream.Stream, cmd wire.Command) error {
	if cmd.UID != "" && cmd.UID != s.info.UID {
		st.Write([]byte(wire.StatusLine(s.cfg.ServerProtocolVersion, 404, "Not found")))
		st.Flush()
		return ErrUIDMismatch
	}

	serverVer := s.cfg.ServerProtocolVersion
	clientVer := cmd.Version
	if clientVer/100 > serverVer/100 {
		st.Write([]byte(wire.StatusLine(serverVer, 505, "Version not supported")))
		st.Flush()
		return ErrVersionUnsupported
	}
	dataVer := clientVer
	if serverVer < dataVer {
		dataVer = serverVer
	}

	if dataVer < 110 {
		return s.legacyTransfer(st, serverVer)
	}
	return s.modernTransfer(st, serverVer, clientVer)
}

// legacyTransfer implements the protocol-100 path: one CRLF line of
// feed params ("max_buffered chunk_granularity") instead of a feed
// header block, then the portable-archive wire format.
func (s *Session) legacyTransfer(st *stream.Stream, serverVer int) error {
	line, err := st.Reader().ReadString('\n')
	if err != nil {
		return &SessionError{Stage: "read legacy feed params", Err: err}
	}
	maxBuffered, chunkGranularity := parseFeedParams(line)

	header := fmt.Sprintf("LSL/%d 200 OK\r\nUID: %s\r\nByte-Order: %d\r\nSuppress-Subnormals: false\r\nData-Protocol-Version: 100\r\n\r\n",
		serverVer, s.info.UID, nativeByteOrder)
	if _, err := io.WriteString(st, header); err != nil {
		return &SessionError{Stage: "write legacy header response", Err: err}
	}
	if err := st.Flush(); err != nil {
		return &SessionError{Stage: "flush legacy header response", Err: err}
	}

	codec := &wire.PortableCodec{Format: s.info.ChannelFormat, ChannelCount: s.info.ChannelCount}
	return s.transferLoop(st, maxBuffered, chunkGranularity, codecAdapter{portable: codec})
}

// modernTransfer implements the protocol>=110 path: a feed-header
// key-value block, the endian-reversal decision, and the
// byte-reversal-aware binary wire format. clientVer is the version the
// client declared on the command line; the feed header's own
// Protocol-Version field, when present, overrides it before the data
// protocol version is settled, matching the original server letting a
// client negotiate the header-style handshake while still pinning the
// wire format to an older data protocol.
func (s *Session) modernTransfer(st *stream.Stream, serverVer, clientVer int) error {
	feedHeader, err := wire.ParseFeedHeader(st.Reader())
	if err != nil {
		return &SessionError{Stage: "read feed header", Err: err}
	}

	if feedHeader.Has("protocol-version") {
		clientVer = feedHeader.ProtocolVersion
	}
	dataVer := clientVer
	if serverVer < dataVer {
		dataVer = serverVer
	}
	if dataVer < 110 {
		return s.legacyTransferAfterHeader(st, serverVer, feedHeader)
	}

	downgrade := shouldDowngrade(s.info, feedHeader)
	if downgrade {
		return s.legacyTransferAfterHeader(st, serverVer, feedHeader)
	}

	reversal := s.shouldReverse(feedHeader)
	targetOrder := nativeByteOrder
	if reversal {
		targetOrder = feedHeader.NativeByteOrder
	}
	suppressSubnormals := !feedHeader.SupportsSubnormals

	header := fmt.Sprintf("LSL/%d 200 OK\r\nUID: %s\r\nByte-Order: %d\r\nSuppress-Subnormals: %v\r\nData-Protocol-Version: %d\r\n\r\n",
		serverVer, s.info.UID, targetOrder, suppressSubnormals, dataVer)
	if _, err := io.WriteString(st, header); err != nil {
		return &SessionError{Stage: "write header response", Err: err}
	}
	if err := st.Flush(); err != nil {
		return &SessionError{Stage: "flush header response", Err: err}
	}

	maxBuffered := feedHeader.MaxBufferLength
	chunkGranularity := feedHeader.MaxChunkLength

	codec := &wire.BinaryCodec{
		Format:          s.info.ChannelFormat,
		ChannelCount:    s.info.ChannelCount,
		TargetOrder:     targetOrder,
		FlushSubnormals: suppressSubnormals,
	}
	return s.transferLoop(st, maxBuffered, chunkGranularity, codecAdapter{binary: codec})
}

// legacyTransferAfterHeader handles the case where a >=110 client
// negotiated a feed header but the downgrade rule (spec §4.7) still
// forces protocol 100: the header response reports Data-Protocol-
// Version 100 and the wire format switches to PortableCodec, but the
// negotiated max_buffered/chunk_granularity from the feed header are
// still honored (unlike a true legacy client, which sends them on a
// plain line instead).
func (s *Session) legacyTransferAfterHeader(st *stream.Stream, serverVer int, feedHeader *wire.FeedHeader) error {
	header := fmt.Sprintf("LSL/%d 200 OK\r\nUID: %s\r\nByte-Order: %d\r\nSuppress-Subnormals: false\r\nData-Protocol-Version: 100\r\n\r\n",
		serverVer, s.info.UID, nativeByteOrder)
	if _, err := io.WriteString(st, header); err != nil {
		return &SessionError{Stage: "write downgraded header response", Err: err}
	}
	if err := st.Flush(); err != nil {
		return &SessionError{Stage: "flush downgraded header response", Err: err}
	}
	codec := &wire.PortableCodec{Format: s.info.ChannelFormat, ChannelCount: s.info.ChannelCount}
	return s.transferLoop(st, feedHeader.MaxBufferLength, feedHeader.MaxChunkLength, codecAdapter{portable: codec})
}

// codecAdapter lets transferLoop encode through whichever wire codec
// this session negotiated without a shared interface forcing
// BinaryCodec and PortableCodec to agree on a signature neither
// otherwise needs.
type codecAdapter struct {
	binary   *wire.BinaryCodec
	portable *wire.PortableCodec
}

func (c codecAdapter) encode(w io.Writer, sample model.Sample) error {
	if c.binary != nil {
		return c.binary.EncodeSample(w, sample)
	}
	return c.portable.EncodeSample(w, sample)
}

func (c codecAdapter) format() model.ChannelFormat {
	if c.binary != nil {
		return c.binary.Format
	}
	return c.portable.Format
}

func (c codecAdapter) channelCount() int {
	if c.binary != nil {
		return c.binary.ChannelCount
	}
	return c.portable.ChannelCount
}

// transferLoop is the worker from spec §4.7's Transfer paragraph: pop
// samples, skip pings, encode, coalesce into chunks, flush on
// pushthrough or chunk-full, terminate on any write error.
func (s *Session) transferLoop(st *stream.Stream, maxBuffered, chunkGranularity int, codec codecAdapter) error {
	if maxBuffered <= 0 {
		return nil
	}
	maxPerChunk := chunkGranularity
	if maxPerChunk <= 0 {
		maxPerChunk = s.cfg.ChunkSize
	}
	if maxPerChunk <= 0 {
		maxPerChunk = 1 << 30
	}

	cursor := s.queue.NewConsumer(maxBuffered)
	defer cursor.Close()

	for _, pattern := range wire.GenerateTestPatterns(codec.format(), codec.channelCount()) {
		if err := codec.encode(st, pattern); err != nil {
			return &SessionError{Stage: "write test pattern", Err: err}
		}
	}
	if err := st.Flush(); err != nil {
		return &SessionError{Stage: "flush test pattern", Err: err}
	}

	samplesInChunk := 0
	for {
		sample, ok := cursor.Pop()
		if !ok {
			return nil
		}
		if sample.IsPing {
			continue
		}
		if err := codec.encode(st, sample); err != nil {
			return &SessionError{Stage: "encode sample", Err: err}
		}
		samplesInChunk++
		if sample.Pushthrough || samplesInChunk >= maxPerChunk {
			if err := st.Flush(); err != nil {
				return &SessionError{Stage: "flush chunk", Err: err}
			}
			samplesInChunk = 0
		}
	}
}

func parseFeedParams(line string) (maxBuffered, chunkGranularity int) {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		maxBuffered, _ = strconv.Atoi(fields[0])
	}
	if len(fields) > 1 {
		chunkGranularity, _ = strconv.Atoi(fields[1])
	}
	return maxBuffered, chunkGranularity
}

// shouldDowngrade implements spec §4.7's downgrade rule: drop to
// protocol 100 when the client's declared value size doesn't match
// this stream's native channel width, or when either side lacks
// IEEE-754 floats for a floating-point format.
func shouldDowngrade(info *model.StreamInfo, fh *wire.FeedHeader) bool {
	if info.ChannelFormat.IsNumeric() && fh.Has("value-size") {
		nativeWidth := info.ChannelBytes() / info.ChannelCount
		if fh.ValueSize != nativeWidth {
			return true
		}
	}
	isFloat := info.ChannelFormat == model.FormatFloat32 || info.ChannelFormat == model.FormatFloat64
	if isFloat && !fh.HasIEEE754Floats {
		return true
	}
	return false
}

// shouldReverse implements spec §4.7's endian-reversal decision,
// weighing this session's measured RTT into the server's side of the
// comparison via effectiveReversalThroughput.
func (s *Session) shouldReverse(fh *wire.FeedHeader) bool {
	if fh.NativeByteOrder == 0 || fh.NativeByteOrder == nativeByteOrder {
		return false
	}
	if fh.ValueSize <= 1 || !endian.HasReversalFor(fh.ValueSize) {
		return false
	}
	return effectiveReversalThroughput(s.measuredRTT) > fh.EndianPerformance
}

// connRTT reads back TCP_INFO for tc and returns its round-trip time
// estimate, or zero if the read fails (e.g. the platform's tcpinfo
// support is missing, or the connection is already gone).
func connRTT(tc *net.TCPConn) time.Duration {
	var b [256]byte
	info, err := tcpinfo.Get(tc, b[:])
	if err != nil || info == nil {
		return 0
	}
	return info.RTT
}
