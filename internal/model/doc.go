// Package model holds the wire-agnostic data types shared by every
// subsystem: StreamInfo, Sample, ChannelFormat, and Endpoint (spec §3).
// It has no dependency on any other internal package so that discovery,
// transport, and the sample queue can all build on it without cycles.
package model
