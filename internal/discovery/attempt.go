package discovery

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/tstenner/liblsl/internal/cancelreg"
	"github.com/tstenner/liblsl/internal/metadata"
	"github.com/tstenner/liblsl/internal/model"
	"github.com/tstenner/liblsl/internal/wire"
)

// Targets describes the peers and groups one attempt will query.
type Targets struct {
	UnicastHosts      []string
	UnicastPortStart  int
	UnicastPortEnd    int
	MulticastGroupsV4 []string
	MulticastGroupsV6 []string
	MulticastPort     int
	BroadcastPort     int // 0 disables the broadcast sender
}

// Attempt is one round of querying a fixed target set, matching spec
// §4.4. It owns a receive socket, zero or more senders, and the
// results map those senders' replies accumulate into.
type Attempt struct {
	cfg     *Config
	clock   clock.Clock
	query   string
	queryID string

	minimum            int
	resolveAtLeastUntil time.Time
	deadline           time.Time

	recvConn *net.UDPConn

	unicast     *querySender
	broadcast   *querySender
	multicast   *querySender
	multicastV6 *querySender

	mu        sync.Mutex
	results   map[string]*model.ResolveResult
	cancelled bool
	done      chan struct{}

	// onResult, when set, is invoked after every insert/update with a
	// copy of the affected entry, outside the results lock. The
	// continuous resolver facade uses this to mirror entries into its
	// aging LRU cache as they arrive instead of re-scanning the whole
	// map on every Results() call.
	onResult func(uid string, result *model.ResolveResult)
}

// NewAttempt opens every socket an attempt needs (spec §4.4 steps
// 1-4) and composes the query wire message (step 5). A multicast
// sender that fails to open for one address family is logged and
// skipped rather than aborting construction, so a dual-stack host with
// a broken v6 path still resolves over v4; construction fails only if
// no sender is left. Unicast and broadcast sender failures abort
// construction.
func NewAttempt(cfg *Config, clk clock.Clock, query string, targets Targets, minimum int, deadline, resolveAtLeastUntil time.Time) (*Attempt, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hasUnicast := len(targets.UnicastHosts) > 0
	hasMulticast := len(targets.MulticastGroupsV4) > 0 || len(targets.MulticastGroupsV6) > 0
	if !hasUnicast && !hasMulticast && targets.BroadcastPort == 0 {
		return nil, ErrNoTargets
	}

	recvConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, &AttemptError{Op: "recv socket bind", Err: err}
	}

	a := &Attempt{
		cfg:                 cfg,
		clock:               clk,
		query:               query,
		queryID:             wire.QueryID(query),
		minimum:             minimum,
		resolveAtLeastUntil: resolveAtLeastUntil,
		deadline:            deadline,
		recvConn:            recvConn,
		results:             map[string]*model.ResolveResult{},
		done:                make(chan struct{}),
	}

	recvPort := recvConn.LocalAddr().(*net.UDPAddr).Port
	msg := wire.BuildQuery(query, recvPort)

	if hasUnicast {
		a.unicast, err = newUnicastSender(msg, targets.UnicastHosts, targets.UnicastPortStart, targets.UnicastPortEnd)
		if err != nil {
			a.closeSockets()
			return nil, err
		}
	}
	if targets.BroadcastPort != 0 {
		a.broadcast, err = newBroadcastSender(msg, targets.BroadcastPort)
		if err != nil {
			a.closeSockets()
			return nil, err
		}
	}
	var softErrs error
	if len(targets.MulticastGroupsV4) > 0 {
		a.multicast, err = newMulticastSender(msg, targets.MulticastGroupsV4, targets.MulticastPort, cfg.MulticastTTL, cfg.MulticastLoopback)
		softErrs = multierr.Append(softErrs, err)
	}
	if len(targets.MulticastGroupsV6) > 0 {
		a.multicastV6, err = newMulticastSenderV6(msg, targets.MulticastGroupsV6, targets.MulticastPort, cfg.MulticastTTL, cfg.MulticastLoopback)
		softErrs = multierr.Append(softErrs, err)
	}
	if softErrs != nil {
		if a.unicast == nil && a.broadcast == nil && a.multicast == nil && a.multicastV6 == nil {
			a.closeSockets()
			return nil, softErrs
		}
		sendersLog.Warn("multicast sender setup failed; continuing with the remaining senders", "err", softErrs)
	}

	return a, nil
}

// Run drives the attempt to completion: it starts the burst timers,
// runs the receive loop on the calling goroutine, and returns once
// IsDone becomes true and Cancel has closed every socket. Run is
// the Go-native equivalent of owning a single-threaded cooperative
// executor (spec's Scheduling Model), since this attempt never shares
// its goroutine with anything else.
func (a *Attempt) Run(reg *cancelreg.Registry) {
	reg.Register(a)
	defer reg.Unregister(a)

	stopUnicast := make(chan struct{})
	stopMulticast := make(chan struct{})
	stopDeadline := make(chan struct{})
	var wg sync.WaitGroup

	if a.unicast != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.burstLoop(a.unicast, a.cfg.UnicastPeriod, stopUnicast)
		}()
	}
	if a.multicast != nil || a.multicastV6 != nil || a.broadcast != nil {
		period := a.cfg.MulticastPeriod
		if a.unicast != nil {
			period += a.cfg.UnicastMinRTT
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.burstMulticastAndBroadcast(period, stopMulticast)
		}()
	}

	timer := a.clock.Timer(a.deadline.Sub(a.clock.Now()))
	go func() {
		select {
		case <-timer.C:
			a.Cancel()
		case <-stopDeadline:
			timer.Stop()
		}
	}()

	a.receiveLoop()

	close(stopUnicast)
	close(stopMulticast)
	close(stopDeadline)
	wg.Wait()
}

func (a *Attempt) burstLoop(s *querySender, period time.Duration, stop <-chan struct{}) {
	ticker := a.clock.Ticker(period)
	defer ticker.Stop()
	_ = s.send()
	for {
		select {
		case <-ticker.C:
			if a.IsDone() {
				return
			}
			_ = s.send()
		case <-stop:
			return
		}
	}
}

func (a *Attempt) burstMulticastAndBroadcast(period time.Duration, stop <-chan struct{}) {
	ticker := a.clock.Ticker(period)
	defer ticker.Stop()
	fire := func() {
		if a.multicast != nil {
			_ = a.multicast.send()
		}
		if a.multicastV6 != nil {
			_ = a.multicastV6.send()
		}
		if a.broadcast != nil {
			_ = a.broadcast.send()
		}
	}
	fire()
	for {
		select {
		case <-ticker.C:
			if a.IsDone() {
				return
			}
			fire()
		case <-stop:
			return
		}
	}
}

// receiveLoop reads datagrams until the attempt is cancelled or the
// socket closes. Each datagram is parsed per spec §4.4's three steps:
// verify the query-id echo, parse the short-info payload and re-check
// it actually matches the query, then dedup/update the results map
// under the results mutex.
func (a *Attempt) receiveLoop() {
	buf := make([]byte, a.cfg.ReceiveBufferSize)
	for {
		n, addr, err := a.recvConn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		a.handleDatagram(buf[:n], addr)
		if a.IsDone() {
			a.Cancel()
			return
		}
	}
}

func (a *Attempt) handleDatagram(data []byte, from *net.UDPAddr) {
	queryID, payload, ok := wire.ParseResponse(data)
	if !ok || queryID != a.queryID {
		return
	}
	uid, info, ok := parseShortInfoUID(payload)
	if !ok {
		return
	}
	if !metadata.MatchesQuery(info, a.query) {
		return
	}

	now := float64(a.clock.Now().UnixNano()) / 1e9

	a.mu.Lock()
	var changed *model.ResolveResult
	if existing, present := a.results[uid]; present {
		existing.LastSeen = now
		patchAddress(existing.Info, from)
		changed = existing
	} else {
		patchAddress(info, from)
		changed = &model.ResolveResult{Info: info, LastSeen: now}
		a.results[uid] = changed
	}
	cb := a.onResult
	a.mu.Unlock()

	if cb != nil {
		clone := *changed
		infoClone := *changed.Info
		clone.Info = &infoClone
		cb(uid, &clone)
	}
}

// parseShortInfoUID extracts the uid attribute from a short-info XML
// payload. The metadata collaborator that fully parses/validates
// stream info is out of this module's scope (spec §7); this is the
// minimal extraction the resolver itself needs to dedup replies.
func parseShortInfoUID(payload string) (uid string, info *model.StreamInfo, ok bool) {
	info = extractShortInfo(payload)
	if info == nil || info.UID == "" {
		return "", nil, false
	}
	return info.UID, info, true
}

func patchAddress(info *model.StreamInfo, from *net.UDPAddr) {
	ip := from.IP
	if ip.To4() != nil {
		if info.V4Address == "" {
			info.V4Address = ip.String()
		}
		return
	}
	if info.V6Address == "" {
		info.V6Address = ip.String()
	}
}

// IsDone reports the spec §4.4 termination condition: cancelled, past
// deadline, or a minimum result count reached at-or-after
// resolveAtLeastUntil.
func (a *Attempt) IsDone() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelled {
		return true
	}
	now := a.clock.Now()
	if now.After(a.deadline) {
		return true
	}
	if a.minimum > 0 && len(a.results) >= a.minimum && !now.Before(a.resolveAtLeastUntil) {
		return true
	}
	return false
}

// Cancel implements cancelreg.Cancellable: it sets cancelled, closes
// every socket so blocked reads/writes unblock, and is idempotent and
// panic-safe to call from any goroutine (spec §4.2).
func (a *Attempt) Cancel() {
	a.mu.Lock()
	alreadyCancelled := a.cancelled
	a.cancelled = true
	a.mu.Unlock()
	if alreadyCancelled {
		return
	}
	a.closeSockets()
	close(a.done)
}

func (a *Attempt) closeSockets() {
	if a.recvConn != nil {
		_ = a.recvConn.Close()
	}
	if a.unicast != nil {
		a.unicast.close()
	}
	if a.broadcast != nil {
		a.broadcast.close()
	}
	if a.multicast != nil {
		a.multicast.close()
	}
	if a.multicastV6 != nil {
		a.multicastV6.close()
	}
}

// Snapshot returns a copy of the current results map under the results
// mutex, for the facade to read without racing the receive loop.
func (a *Attempt) Snapshot() map[string]*model.ResolveResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]*model.ResolveResult, len(a.results))
	for k, v := range a.results {
		clone := *v
		infoClone := *v.Info
		clone.Info = &infoClone
		out[k] = &clone
	}
	return out
}

// extractShortInfo is a minimal, non-validating XML attribute scraper
// for the fields the resolver needs out of a short-info payload. The
// full metadata parser/serializer lives in internal/metadata; this
// exists solely so attempt.go has no import-cycle dependency on it.
func extractShortInfo(payload string) *model.StreamInfo {
	r := bufio.NewReader(bytes.NewReader([]byte(payload)))
	info := &model.StreamInfo{}
	found := false
	for {
		tag, val, err := nextTag(r)
		if err != nil {
			break
		}
		switch tag {
		case "name":
			info.Name = val
			found = true
		case "type":
			info.Type = val
			found = true
		case "source_id":
			info.SourceID = val
		case "uid":
			info.UID = val
			found = true
		case "hostname":
			info.Hostname = val
		case "session_id":
			info.SessionID = val
		}
	}
	if !found {
		return nil
	}
	return info
}

// nextTag scans forward to the next "<tag>value</tag>" pair. It is
// intentionally forgiving of malformed input: any parse failure just
// ends the scan early rather than erroring the whole datagram.
func nextTag(r *bufio.Reader) (tag, value string, err error) {
	for {
		open, err := r.ReadString('<')
		if err != nil {
			return "", "", err
		}
		_ = open
		name, err := r.ReadString('>')
		if err != nil {
			return "", "", err
		}
		name = name[:len(name)-1]
		if name == "" || name[0] == '/' {
			continue
		}
		content, err := r.ReadString('<')
		if err != nil {
			return "", "", err
		}
		content = content[:len(content)-1]
		if err := r.UnreadByte(); err != nil {
			return "", "", err
		}
		if next, err := r.Peek(2); err != nil || next[1] != '/' {
			// name opened a child element rather than a text value:
			// rescan from the child's '<'
			continue
		}
		closeTag, err := r.ReadString('>')
		if err != nil {
			return "", "", err
		}
		_ = closeTag
		return name, content, nil
	}
}
