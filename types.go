package lsl

import "github.com/tstenner/liblsl/internal/model"

// StreamInfo is the immutable-after-publication stream descriptor
// advertised by discovery and carried alongside every sample.
type StreamInfo = model.StreamInfo

// Sample is one timestamped unit of data moving through an Outlet's
// send buffer or an Inlet's pull.
type Sample = model.Sample

// ChannelFormat enumerates the sample formats a stream may declare.
type ChannelFormat = model.ChannelFormat

// The channel format constants, re-exported for callers constructing
// a StreamInfo without importing internal/model directly.
const (
	FormatUndefined = model.FormatUndefined
	FormatFloat32   = model.FormatFloat32
	FormatFloat64   = model.FormatFloat64
	FormatString    = model.FormatString
	FormatInt8      = model.FormatInt8
	FormatInt16     = model.FormatInt16
	FormatInt32     = model.FormatInt32
	FormatInt64     = model.FormatInt64
)

// NewStreamInfo validates the required fields and mints a fresh UID
// for a new outlet's stream descriptor.
func NewStreamInfo(name, typ string, channelCount int, nominalRate float64, format ChannelFormat, sourceID string) (*StreamInfo, error) {
	return model.NewStreamInfo(name, typ, channelCount, nominalRate, format, sourceID)
}
