package discovery

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tstenner/liblsl/internal/cancelreg"
	"github.com/tstenner/liblsl/internal/model"
)

// continuousCacheSize bounds the LRU the continuous resolver mirrors
// live results into. It is sized generously above any realistic
// number of simultaneously advertised streams on one query; eviction
// by count only kicks in if that assumption is ever wrong, age-based
// eviction (forget_after) is the normal path.
const continuousCacheSize = 4096

// Resolver is the oneshot/continuous facade from spec §4.5. A Resolver
// supports exactly one of the two modes for its lifetime, enforced by
// a one-shot flag the same way the original's boolean guard did.
type Resolver struct {
	cfg *Config
	clk clock.Clock
	reg *cancelreg.Registry

	mu          sync.Mutex
	usedOneshot bool
	usedCont    bool
	cancelled   bool

	attempt     *Attempt
	cache       *lru.Cache[string, *model.ResolveResult]
	forgetAfter time.Duration

	// contDone is closed when ResolveContinuous's background goroutine
	// returns from attempt.Run, so Cancel can join it (spec §4.5
	// "Teardown cancels the current attempt and joins the background
	// thread if any") instead of merely signaling cancellation and
	// returning while burstLoop/receiveLoop are still unwinding.
	contDone chan struct{}
}

// NewResolver builds a facade that uses reg to register whichever
// attempt it's currently running, so a process-wide cancel_all also
// tears down in-flight resolves.
func NewResolver(cfg *Config, clk clock.Clock, reg *cancelreg.Registry) *Resolver {
	return &Resolver{cfg: cfg, clk: clk, reg: reg}
}

// Resolve runs one attempt to completion on the calling goroutine and
// returns its accumulated results (spec §4.5 "Oneshot"). If the
// facade was cancelled before or during, it returns an empty slice,
// never partial results from a cancelled run.
func (r *Resolver) Resolve(query string, targets Targets, minimum int, timeout, minimumTime time.Duration) ([]*model.StreamInfo, error) {
	r.mu.Lock()
	if r.usedOneshot || r.usedCont {
		r.mu.Unlock()
		return nil, ErrAlreadyResolved
	}
	r.usedOneshot = true
	cancelledAlready := r.cancelled
	r.mu.Unlock()
	if cancelledAlready {
		return nil, nil
	}

	now := r.clk.Now()
	attempt, err := NewAttempt(r.cfg, r.clk, query, targets, minimum, now.Add(timeout), now.Add(minimumTime))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.attempt = attempt
	r.mu.Unlock()

	attempt.Run(r.reg)

	r.mu.Lock()
	wasCancelled := r.cancelled
	r.mu.Unlock()
	if wasCancelled {
		return nil, nil
	}

	snapshot := attempt.Snapshot()
	out := make([]*model.StreamInfo, 0, len(snapshot))
	for _, res := range snapshot {
		out = append(out, res.Info)
	}
	return out, nil
}

// ResolveContinuous spawns a background goroutine that drives one
// attempt indefinitely (spec §4.5 "Continuous"), mirroring every
// result it sees into an aging LRU so Results can answer without
// touching the attempt's own mutex.
func (r *Resolver) ResolveContinuous(query string, targets Targets, forgetAfter time.Duration) error {
	r.mu.Lock()
	if r.usedOneshot || r.usedCont {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.usedCont = true
	cancelledAlready := r.cancelled
	r.mu.Unlock()
	if cancelledAlready {
		return ErrCancelled
	}

	cache, err := lru.New[string, *model.ResolveResult](continuousCacheSize)
	if err != nil {
		return &AttemptError{Op: "continuous cache alloc", Err: err}
	}

	far := r.clk.Now().Add(100 * 365 * 24 * time.Hour)
	attempt, err := NewAttempt(r.cfg, r.clk, query, targets, 0, far, far)
	if err != nil {
		return err
	}
	attempt.onResult = func(uid string, res *model.ResolveResult) {
		cache.Add(uid, res)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.attempt = attempt
	r.cache = cache
	r.forgetAfter = forgetAfter
	r.contDone = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		attempt.Run(r.reg)
	}()
	return nil
}

// Results returns up to max live entries, evicting anything whose
// last_seen fell behind forget_after (spec §4.5). Only valid after
// ResolveContinuous.
func (r *Resolver) Results(max int) []*model.StreamInfo {
	r.mu.Lock()
	cache := r.cache
	forgetAfter := r.forgetAfter
	r.mu.Unlock()
	if cache == nil {
		return nil
	}

	nowSeconds := float64(r.clk.Now().UnixNano()) / 1e9
	cutoff := nowSeconds - forgetAfter.Seconds()

	out := make([]*model.StreamInfo, 0, max)
	for _, uid := range cache.Keys() {
		res, ok := cache.Peek(uid)
		if !ok {
			continue
		}
		if res.LastSeen < cutoff {
			cache.Remove(uid)
			continue
		}
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, res.Info)
	}
	return out
}

// Cancel stops whatever mode is active: an in-flight oneshot Resolve
// returns early with empty results, a continuous ResolveContinuous
// goroutine is cancelled and joined before Cancel returns (spec §4.5).
func (r *Resolver) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	attempt := r.attempt
	done := r.contDone
	r.mu.Unlock()
	if attempt != nil {
		attempt.Cancel()
	}
	if done != nil {
		<-done
	}
}
