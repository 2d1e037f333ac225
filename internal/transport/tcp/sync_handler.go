package tcp

import (
	"errors"
	"net"
	"sync"
	"syscall"
)

// SyncHandler implements the alternative caller-driven transfer path
// from spec §4.8: outlets that opt into push_sample-style synchronous
// writes instead of the queue-backed transfer loop call WriteAllBlocking on
// every sample, fanning the write out to every currently connected
// socket and blocking until all of them finish or fail.
type SyncHandler struct {
	mu      sync.Mutex
	sockets []net.Conn
}

// NewSyncHandler returns an empty handler; sockets are added with
// AddSocket as sessions opt into this path.
func NewSyncHandler() *SyncHandler {
	return &SyncHandler{}
}

// AddSocket schedules conn for inclusion in every subsequent
// WriteAllBlocking call.
func (h *SyncHandler) AddSocket(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sockets = append(h.sockets, conn)
}

// WriteAllBlocking writes buf to every connected socket concurrently
// and waits for every write to complete or fail before returning.
// Sockets whose write fails with a broken-pipe/connection-reset error
// are removed; other errors are returned to the caller to log but the
// socket is kept (spec §4.8's "OperationAborted → log and ignore").
func (h *SyncHandler) WriteAllBlocking(buf []byte) []error {
	h.mu.Lock()
	sockets := make([]net.Conn, len(h.sockets))
	copy(sockets, h.sockets)
	h.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(sockets))
	broken := make([]bool, len(sockets))

	for i, conn := range sockets {
		wg.Add(1)
		go func(i int, conn net.Conn) {
			defer wg.Done()
			_, err := conn.Write(buf)
			if err == nil {
				return
			}
			errs[i] = err
			broken[i] = isBrokenConnection(err)
		}(i, conn)
	}
	wg.Wait()

	h.removeBroken(sockets, broken)

	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

func (h *SyncHandler) removeBroken(sockets []net.Conn, broken []bool) {
	anyBroken := false
	for _, b := range broken {
		if b {
			anyBroken = true
			break
		}
	}
	if !anyBroken {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.sockets[:0:0]
	for _, conn := range h.sockets {
		drop := false
		for i, s := range sockets {
			if s == conn && broken[i] {
				drop = true
				break
			}
		}
		if drop {
			_ = conn.Close()
			continue
		}
		kept = append(kept, conn)
	}
	h.sockets = kept
}

// isBrokenConnection classifies a write error per spec §4.8: broken
// pipe and connection reset mean the peer is gone and the socket
// should be dropped; everything else is a soft error the caller logs.
func isBrokenConnection(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

// Len reports how many sockets are currently registered, mainly for
// tests.
func (h *SyncHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sockets)
}
