package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ApiConfig is the frozen, process-wide configuration snapshot named in
// spec §9 ("Global configuration... initialized once; treat as immutable
// after first read. No re-init during runtime."). Loading is an external
// collaborator per spec §1 — this loader is deliberately minimal: env
// variables layered over an optional simple key=value file, not a full
// INI grammar.
type ApiConfig struct {
	// SessionID names the logical session this process belongs to.
	// Discovery and Inlet do not filter on it, and it is not copied into
	// StreamInfo.
	SessionID string

	// Multicast discovery.
	MulticastGroupsV4 []string
	MulticastGroupsV6 []string
	MulticastTTL      int
	MulticastLoopback bool
	MulticastPortsV4  []int
	MulticastPortsV6  []int

	// Resolver tunables.
	ResolveUnicastPeriod   Duration
	ResolveMulticastPeriod Duration
	ResolveMinRTT          Duration

	// TCP transport.
	DataPortRangeStart int
	DataPortRangeEnd   int
	SessionTimeout     Duration
	SocketSendBufSize  int
	SocketRecvBufSize  int

	// Protocol.
	ServerProtocolVersion int
	ChunkSize             int

	// IPv6Mode controls whether IPv6 sockets are attempted at all.
	// "allow" tries both families; "disable" restricts to IPv4.
	IPv6Mode string

	loaded bool
}

var (
	globalOnce sync.Once
	global     *ApiConfig
	globalErr  error
)

// ErrConfigFrozen is returned by every Load call after the first one in
// this process, whether or not the first call succeeded.
var ErrConfigFrozen = fmt.Errorf("config: already loaded for this process")

// DefaultApiConfig returns the out-of-the-box configuration matching the
// reference liblsl defaults.
func DefaultApiConfig() *ApiConfig {
	return &ApiConfig{
		SessionID:              "default",
		MulticastGroupsV4:      []string{"239.255.172.215"},
		MulticastGroupsV6:      []string{"ff05:113d:6fdd:2c17:a643:ffe2:1bd1:3cd2"},
		MulticastTTL:           1,
		MulticastLoopback:      true,
		MulticastPortsV4:       []int{16571},
		MulticastPortsV6:       []int{16571},
		ResolveUnicastPeriod:   Duration(700 * time.Millisecond),
		ResolveMulticastPeriod: Duration(3 * time.Second),
		ResolveMinRTT:          Duration(200 * time.Millisecond),
		DataPortRangeStart:     16572,
		DataPortRangeEnd:       16604,
		SessionTimeout:         Duration(30 * time.Second),
		SocketSendBufSize:      350000,
		SocketRecvBufSize:      350000,
		ServerProtocolVersion:  110,
		ChunkSize:              0,
		IPv6Mode:               "allow",
	}
}

// Validate checks the configuration for unusable combinations (spec §7
// ConfigInvalid).
func (c *ApiConfig) Validate() error {
	if c.SessionID == "" {
		return fmt.Errorf("config: session id must not be empty")
	}
	if c.DataPortRangeStart <= 0 || c.DataPortRangeEnd < c.DataPortRangeStart {
		return fmt.Errorf("config: invalid data port range [%d,%d]", c.DataPortRangeStart, c.DataPortRangeEnd)
	}
	if c.MulticastTTL < 0 {
		return fmt.Errorf("config: multicast ttl must be non-negative")
	}
	if c.IPv6Mode != "allow" && c.IPv6Mode != "disable" {
		return fmt.Errorf("config: ipv6 mode must be %q or %q, got %q", "allow", "disable", c.IPv6Mode)
	}
	if c.IPv6Mode == "disable" && len(c.MulticastGroupsV4) == 0 {
		return fmt.Errorf("config: ipv6 disabled but no ipv4 multicast groups configured")
	}
	if c.ResolveUnicastPeriod.Duration() <= 0 || c.ResolveMulticastPeriod.Duration() <= 0 {
		return fmt.Errorf("config: resolve periods must be positive")
	}
	return nil
}

// WithSessionID sets the session id and returns the receiver for chaining.
func (c *ApiConfig) WithSessionID(id string) *ApiConfig {
	c.SessionID = id
	return c
}

// WithMulticastTTL sets the multicast TTL and returns the receiver.
func (c *ApiConfig) WithMulticastTTL(ttl int) *ApiConfig {
	c.MulticastTTL = ttl
	return c
}

// WithDataPortRange sets the TCP data port range and returns the receiver.
func (c *ApiConfig) WithDataPortRange(start, end int) *ApiConfig {
	c.DataPortRangeStart = start
	c.DataPortRangeEnd = end
	return c
}

// Load builds an ApiConfig from environment variables (LSL_*), optionally
// layering a simple key=value file underneath them, validates it, and
// installs it as the process-wide snapshot. A second call to Load fails
// with ErrConfigFrozen — configuration is immutable after first read.
func Load(iniPath string) (*ApiConfig, error) {
	var installed bool
	globalOnce.Do(func() {
		installed = true
		cfg := DefaultApiConfig()
		if iniPath != "" {
			if err := applyFile(cfg, iniPath); err != nil {
				globalErr = err
				return
			}
		}
		applyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			globalErr = err
			return
		}
		cfg.loaded = true
		global = cfg
	})
	if !installed {
		return nil, ErrConfigFrozen
	}
	if globalErr != nil {
		return nil, globalErr
	}
	return global, nil
}

// Global returns the process-wide snapshot installed by Load, or nil if
// Load has not been called yet.
func Global() *ApiConfig {
	return global
}

func applyEnv(cfg *ApiConfig) {
	if v := os.Getenv("LSL_SESSION_ID"); v != "" {
		cfg.SessionID = v
	}
	if v := os.Getenv("LSL_MULTICAST_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MulticastTTL = n
		}
	}
	if v := os.Getenv("LSL_IPV6"); v != "" {
		cfg.IPv6Mode = v
	}
	if v := os.Getenv("LSL_DATA_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataPortRangeStart = n
		}
	}
	if v := os.Getenv("LSL_DATA_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataPortRangeEnd = n
		}
	}
}

// applyFile layers a minimal key=value (with optional [section] headers,
// ignored) file under the defaults. Sections are accepted for
// compatibility with the original INI-based loader but are not
// interpreted; this is deliberately not a full INI parser.
func applyFile(cfg *ApiConfig, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		switch key {
		case "sessionid":
			cfg.SessionID = val
		case "multicastttl":
			if n, err := strconv.Atoi(val); err == nil {
				cfg.MulticastTTL = n
			}
		case "ipv6":
			cfg.IPv6Mode = val
		}
	}
	return scanner.Err()
}
