package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChannelFormat enumerates the sample formats a stream may declare
// (spec §3: "channel_format ∈ {f32, f64, str, i8, i16, i32, i64}").
type ChannelFormat int

const (
	FormatUndefined ChannelFormat = iota
	FormatFloat32
	FormatFloat64
	FormatString
	FormatInt8
	FormatInt16
	FormatInt32
	FormatInt64
)

// String renders the format the way the wire protocol names it.
func (f ChannelFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	case FormatFloat64:
		return "double64"
	case FormatString:
		return "string"
	case FormatInt8:
		return "int8"
	case FormatInt16:
		return "int16"
	case FormatInt32:
		return "int32"
	case FormatInt64:
		return "int64"
	default:
		return "undefined"
	}
}

// ByteWidth returns sizeof(format) for numeric formats, or 0 for
// FormatString (variable-width, length-prefixed) and FormatUndefined.
func (f ChannelFormat) ByteWidth() int {
	switch f {
	case FormatFloat32, FormatInt32:
		return 4
	case FormatFloat64, FormatInt64:
		return 8
	case FormatInt8:
		return 1
	case FormatInt16:
		return 2
	default:
		return 0
	}
}

// IsNumeric reports whether the format is a fixed-width numeric vector
// rather than a string sequence.
func (f ChannelFormat) IsNumeric() bool {
	return f != FormatUndefined && f != FormatString
}

// StreamInfo is the immutable-after-publication stream descriptor of
// spec §3. Schema fields (Name, Type, ChannelCount, NominalRate,
// ChannelFormat) must never change after first publication; UID is
// generated fresh per outlet instance.
type StreamInfo struct {
	Name          string
	Type          string
	ChannelCount  int
	NominalRate   float64 // 0 == irregular
	ChannelFormat ChannelFormat
	SourceID      string
	UID           string
	SessionID     string
	Hostname      string
	CreatedAt     float64 // seconds, per the out-of-scope clock() collaborator
	V4DataPort    int
	V6DataPort    int

	// V4Address/V6Address are patched in by the resolver once a response
	// arrives (spec §3 ResolveResult: "patched... only when the
	// corresponding field is empty").
	V4Address string
	V6Address string

	// Metadata is the free-form XML metadata blob FullInfo emits inside
	// <desc>; MatchesQuery does not look at it.
	Metadata string
}

// NewStreamInfo validates the required fields and mints a fresh UID,
// mirroring the outlet-construction path that creates a StreamInfo
// exactly once per stream instance.
func NewStreamInfo(name, typ string, channelCount int, nominalRate float64, format ChannelFormat, sourceID string) (*StreamInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("model: stream name must not be empty")
	}
	if channelCount < 1 {
		return nil, fmt.Errorf("model: channel count must be >= 1, got %d", channelCount)
	}
	if nominalRate < 0 {
		return nil, fmt.Errorf("model: nominal rate must be >= 0, got %f", nominalRate)
	}
	hostname, _ := osHostname()
	return &StreamInfo{
		Name:          name,
		Type:          typ,
		ChannelCount:  channelCount,
		NominalRate:   nominalRate,
		ChannelFormat: format,
		SourceID:      sourceID,
		UID:           uuid.NewString(),
		Hostname:      hostname,
		CreatedAt:     float64(time.Now().UnixNano()) / 1e9,
	}, nil
}

// ChannelBytes returns channel_bytes = sizeof(format) × channel_count for
// numeric formats, matching the invariant from spec §3; it is 0 for
// string-formatted streams, which have no fixed per-sample width.
func (si *StreamInfo) ChannelBytes() int {
	if !si.ChannelFormat.IsNumeric() {
		return 0
	}
	return si.ChannelFormat.ByteWidth() * si.ChannelCount
}

// Clone returns a deep-enough copy safe for a resolver to patch
// addresses into without mutating the caller's original.
func (si *StreamInfo) Clone() *StreamInfo {
	cp := *si
	return &cp
}
