package discovery

import (
	"errors"
	"time"
)

// Config tunes one resolver attempt. It is independent of
// config.ApiConfig so tests can drive an attempt without touching the
// frozen process-wide ApiConfig singleton; its timing defaults differ
// from config.DefaultApiConfig's resolver tunables, which the public
// lsl.NewResolver copies over these defaults.
type Config struct {
	// UnicastPeriod is how often the unicast burst timer fires.
	UnicastPeriod time.Duration

	// MulticastPeriod is how often the multicast burst timer fires,
	// before the unicast_min_rtt stagger is added.
	MulticastPeriod time.Duration

	// UnicastMinRTT staggers the multicast wave relative to the
	// unicast wave when both are active (spec §4.4).
	UnicastMinRTT time.Duration

	// MulticastTTL and MulticastLoopback configure every multicast
	// sender socket an attempt opens.
	MulticastTTL      int
	MulticastLoopback bool

	// ReceiveBufferSize bounds the per-datagram receive buffer.
	ReceiveBufferSize int
}

// DefaultConfig returns the resolver attempt defaults used by liblsl
// deployments: a 0.2s unicast period, 0.5s multicast period (the 0.1s
// UnicastMinRTT stagger applied on top), TTL 1, loopback enabled.
func DefaultConfig() *Config {
	return &Config{
		UnicastPeriod:     200 * time.Millisecond,
		MulticastPeriod:   500 * time.Millisecond,
		UnicastMinRTT:     100 * time.Millisecond,
		MulticastTTL:      1,
		MulticastLoopback: true,
		ReceiveBufferSize: 64 * 1024,
	}
}

// Validate reports whether c describes a usable attempt configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("discovery: config is nil")
	}
	if c.UnicastPeriod <= 0 || c.MulticastPeriod <= 0 {
		return errors.New("discovery: burst periods must be positive")
	}
	if c.MulticastTTL < 0 {
		return errors.New("discovery: multicast ttl must be non-negative")
	}
	if c.ReceiveBufferSize <= 0 {
		return errors.New("discovery: receive buffer size must be positive")
	}
	return nil
}

// Option mutates a Config, functional-options style.
type Option func(*Config)

// WithUnicastPeriod overrides the unicast burst period.
func WithUnicastPeriod(d time.Duration) Option {
	return func(c *Config) { c.UnicastPeriod = d }
}

// WithMulticastPeriod overrides the multicast burst period.
func WithMulticastPeriod(d time.Duration) Option {
	return func(c *Config) { c.MulticastPeriod = d }
}

// WithMulticastTTL overrides the multicast TTL applied to every sender.
func WithMulticastTTL(ttl int) Option {
	return func(c *Config) { c.MulticastTTL = ttl }
}

// ApplyOptions applies every opt to c in order.
func (c *Config) ApplyOptions(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
