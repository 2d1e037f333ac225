package stream

import (
	"bufio"
	"net"
	"sync"
)

const (
	getBufferSize = 16 * 1024
	putBufferSize = 16 * 1024
)

// Stream wraps a net.Conn with a 16 KiB buffered reader (spec's get
// buffer) and a 16 KiB buffered writer (the put
// buffer), plus a Cancel that closes the connection exactly once no
// matter how many goroutines call it concurrently.
type Stream struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	mu       sync.Mutex
	cancelled bool
}

// New wraps conn. The underlying Reader/Writer are sized to match the
// spec's 16 KiB get/put buffers. Putback is bufio.Reader's own
// UnreadByte/UnreadRune, which can undo only the most recent byte or
// rune read; multi-byte putback is not supported.
func New(conn net.Conn) *Stream {
	return &Stream{
		conn: conn,
		r:    bufio.NewReaderSize(conn, getBufferSize),
		w:    bufio.NewWriterSize(conn, putBufferSize),
	}
}

// Reader exposes the buffered reader for line- and fixed-width reads.
func (s *Stream) Reader() *bufio.Reader { return s.r }

// RawConn exposes the wrapped connection for diagnostics that need to
// reach past the buffering, e.g. reading TCP_INFO. Callers must not
// read or write it directly; doing so would race with Reader/Write.
func (s *Stream) RawConn() net.Conn { return s.conn }

// Write buffers p into the put buffer without flushing.
func (s *Stream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Flush flushes the put buffer to the underlying connection. This is
// the stream's "sync"/"overflow(EOF)" point from spec §4.9.
func (s *Stream) Flush() error {
	return s.w.Flush()
}

// Cancel closes the underlying connection, unblocking any in-flight
// Read/Write. Idempotent and safe to call from any goroutine.
func (s *Stream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	_ = s.conn.Close()
}

// Cancelled reports whether Cancel has already run.
func (s *Stream) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}
