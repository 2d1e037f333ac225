package lsl

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tstenner/liblsl/config"
	"github.com/tstenner/liblsl/internal/cancelreg"
	"github.com/tstenner/liblsl/internal/discovery"
)

// Resolver is the public oneshot/continuous discovery facade (spec
// §4.5), wrapping internal/discovery.Resolver with defaults sourced
// from an ApiConfig instead of a bare discovery.Config.
type Resolver struct {
	inner *discovery.Resolver
}

// NewResolver builds a resolver whose attempt timing, multicast TTL and
// loopback come from cfg, registering its in-flight attempt with reg so
// a process-wide CancelAll also stops it. The groups it queries come
// from the cfg passed to Resolve/ResolveContinuous (see
// targetsFromConfig). cfg may be nil to use config.DefaultApiConfig().
func NewResolver(cfg *config.ApiConfig, reg *cancelreg.Registry) *Resolver {
	if cfg == nil {
		cfg = config.DefaultApiConfig()
	}
	dcfg := discovery.DefaultConfig()
	dcfg.UnicastPeriod = cfg.ResolveUnicastPeriod.Duration()
	dcfg.MulticastPeriod = cfg.ResolveMulticastPeriod.Duration()
	dcfg.UnicastMinRTT = cfg.ResolveMinRTT.Duration()
	dcfg.MulticastTTL = cfg.MulticastTTL
	dcfg.MulticastLoopback = cfg.MulticastLoopback

	return &Resolver{inner: discovery.NewResolver(dcfg, clock.New(), reg)}
}

// targetsFromConfig builds the discovery.Targets this module's
// ApiConfig describes: the multicast groups from spec §6's default
// discovery configuration, no unicast hosts or broadcast (callers who
// need directed discovery build their own discovery.Targets against
// internal/discovery directly).
func targetsFromConfig(cfg *config.ApiConfig) discovery.Targets {
	t := discovery.Targets{
		MulticastGroupsV4: cfg.MulticastGroupsV4,
		MulticastGroupsV6: cfg.MulticastGroupsV6,
	}
	if len(cfg.MulticastPortsV4) > 0 {
		t.MulticastPort = cfg.MulticastPortsV4[0]
	} else if len(cfg.MulticastPortsV6) > 0 {
		t.MulticastPort = cfg.MulticastPortsV6[0]
	}
	return t
}

// Resolve runs one blocking discovery attempt for query, waiting up to
// timeout and returning as soon as minimum streams are found and at
// least minimumTime has elapsed (spec §4.5 "Oneshot").
func (r *Resolver) Resolve(cfg *config.ApiConfig, query string, minimum int, timeout, minimumTime time.Duration) ([]*StreamInfo, error) {
	if cfg == nil {
		cfg = config.DefaultApiConfig()
	}
	defaultMetrics.resolverAttemptsTotal.Inc()
	return r.inner.Resolve(query, targetsFromConfig(cfg), minimum, timeout, minimumTime)
}

// ResolveContinuous starts a background query that runs until Cancel,
// mirroring live results into an aging cache (spec §4.5 "Continuous").
func (r *Resolver) ResolveContinuous(cfg *config.ApiConfig, query string, forgetAfter time.Duration) error {
	if cfg == nil {
		cfg = config.DefaultApiConfig()
	}
	defaultMetrics.resolverAttemptsTotal.Inc()
	return r.inner.ResolveContinuous(query, targetsFromConfig(cfg), forgetAfter)
}

// Results returns up to max currently-live results from a continuous
// resolve. Only valid after ResolveContinuous.
func (r *Resolver) Results(max int) []*StreamInfo {
	return r.inner.Results(max)
}

// Cancel stops whichever mode is active.
func (r *Resolver) Cancel() {
	r.inner.Cancel()
}
