// Package config provides ApiConfig, the frozen process-wide configuration
// snapshot referenced throughout the core (spec §9 "Global configuration").
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration with JSON- and env-friendly parsing.
//
// Accepted forms:
//   - string: "30s", "5m", "1h30m", "100ms"
//   - number: nanoseconds, for backward compatibility
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a nanosecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Duration(n)
		return nil
	}

	return fmt.Errorf("duration must be a string (e.g. %q) or a number of nanoseconds", "30s")
}

// MarshalJSON renders the duration in its human-readable string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ParseDurationEnv parses an env-style duration string in
// time.ParseDuration form (e.g. "30s"); unlike UnmarshalJSON it does not
// accept a bare number of nanoseconds.
func ParseDurationEnv(s string) (Duration, error) {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(parsed), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the standard time.Duration string form.
func (d Duration) String() string {
	return time.Duration(d).String()
}
