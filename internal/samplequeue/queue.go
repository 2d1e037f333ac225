package samplequeue

import (
	"sync"

	"github.com/tstenner/liblsl/internal/model"
)

// Queue is the producer side of the send buffer: a fan-out point that
// pushes every sample to each currently registered Cursor. Pushing never
// blocks on a slow consumer (spec §4.3) — each Cursor holds its own
// bounded ring and drops its own oldest entries when full.
type Queue struct {
	mu      sync.RWMutex
	cursors map[*Cursor]struct{}
}

// New returns an empty send buffer.
func New() *Queue {
	return &Queue{cursors: make(map[*Cursor]struct{})}
}

// Push fans s out to every currently registered cursor under the
// queue's read-lock. Each cursor's push takes that cursor's own mutex,
// the same one its consumer's Pop takes, so producer and consumer
// serialize per cursor; the path is not lock-free.
func (q *Queue) Push(s model.Sample) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for c := range q.cursors {
		c.push(s)
	}
}

// PushPing enqueues the sentinel ping sample used to wake every blocked
// cursor during shutdown (spec §4.3).
func (q *Queue) PushPing(now float64) {
	q.Push(model.NewPingSample(now))
}

// NewConsumer registers a new cursor with the given capacity and returns
// it. maxBuffered must be positive; the caller (the TCP session state
// machine) is responsible for ending the session immediately when the
// negotiated Max-Buffer-Length is <= 0, per spec §4.7, rather than
// calling NewConsumer at all.
func (q *Queue) NewConsumer(maxBuffered int) *Cursor {
	c := &Cursor{
		buf:   make([]model.Sample, maxBuffered),
		cap:   maxBuffered,
		queue: q,
	}
	c.cond = sync.NewCond(&c.mu)
	q.mu.Lock()
	q.cursors[c] = struct{}{}
	q.mu.Unlock()
	return c
}

// NumConsumers reports the number of currently registered cursors.
func (q *Queue) NumConsumers() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.cursors)
}

// TotalDropped sums Dropped() across every currently registered
// cursor, for the outlet's queue-drop metric.
func (q *Queue) TotalDropped() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var total uint64
	for c := range q.cursors {
		total += c.Dropped()
	}
	return total
}

func (q *Queue) removeCursor(c *Cursor) {
	q.mu.Lock()
	delete(q.cursors, c)
	q.mu.Unlock()
}

// CloseAll closes every currently registered cursor, unblocking any
// goroutine parked in Pop. Used on full send-buffer teardown.
func (q *Queue) CloseAll() {
	q.mu.RLock()
	snapshot := make([]*Cursor, 0, len(q.cursors))
	for c := range q.cursors {
		snapshot = append(snapshot, c)
	}
	q.mu.RUnlock()

	for _, c := range snapshot {
		c.Close()
	}
}

// Cursor is a subscriber's read position into the send buffer (spec
// §3/§4.3). It is safe for exactly one consumer goroutine to call Pop
// concurrently with the producer calling Push.
type Cursor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []model.Sample
	head    int
	count   int
	cap     int
	closed  bool
	dropped uint64
	queue   *Queue
}

func (c *Cursor) push(s model.Sample) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.count == c.cap {
		// Drop the oldest buffered sample — the producer-side pointer
		// advance from spec §4.3 — instead of ever blocking the push.
		c.head = (c.head + 1) % c.cap
		c.count--
		c.dropped++
	}
	idx := (c.head + c.count) % c.cap
	c.buf[idx] = s
	c.count++
	c.cond.Signal()
	c.mu.Unlock()
}

// Pop blocks until a sample is available or the cursor is closed. The
// second return value is false only once the cursor is closed and
// drained, signalling the caller's transfer loop to exit.
func (c *Cursor) Pop() (model.Sample, bool) {
	c.mu.Lock()
	for c.count == 0 && !c.closed {
		c.cond.Wait()
	}
	if c.count == 0 {
		c.mu.Unlock()
		return model.Sample{}, false
	}
	s := c.buf[c.head]
	c.head = (c.head + 1) % c.cap
	c.count--
	c.mu.Unlock()
	return s, true
}

// Dropped returns the number of samples this cursor has discarded due
// to backpressure, for diagnostics/tests.
func (c *Cursor) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close unblocks any pending Pop and unregisters the cursor from its
// queue. Close is idempotent.
func (c *Cursor) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
	c.queue.removeCursor(c)
}
