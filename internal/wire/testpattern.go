package wire

import "github.com/tstenner/liblsl/internal/model"

// GenerateTestPatterns returns the two synthetic samples a session sends
// immediately after feed-header negotiation, on every data protocol
// version (the legacy protocol-100 path included): every
// channel filled with test pattern 4, then every channel filled with
// test pattern 2, in that order. A receiver that decodes both in order
// has proved its byte-order and value-size negotiation actually works
// before any real data arrives.
func GenerateTestPatterns(format model.ChannelFormat, channelCount int) []model.Sample {
	return []model.Sample{
		{Timestamp: -1, Values: fillPattern(format, channelCount, 4)},
		{Timestamp: -1, Values: fillPattern(format, channelCount, 2)},
	}
}

func fillPattern(format model.ChannelFormat, channelCount int, pattern int) any {
	switch format {
	case model.FormatFloat32:
		out := make([]float32, channelCount)
		for i := range out {
			out[i] = float32(pattern)
		}
		return out
	case model.FormatFloat64:
		out := make([]float64, channelCount)
		for i := range out {
			out[i] = float64(pattern)
		}
		return out
	case model.FormatInt8:
		out := make([]int8, channelCount)
		for i := range out {
			out[i] = int8(pattern)
		}
		return out
	case model.FormatInt16:
		out := make([]int16, channelCount)
		for i := range out {
			out[i] = int16(pattern)
		}
		return out
	case model.FormatInt32:
		out := make([]int32, channelCount)
		for i := range out {
			out[i] = int32(pattern)
		}
		return out
	case model.FormatInt64:
		out := make([]int64, channelCount)
		for i := range out {
			out[i] = int64(pattern)
		}
		return out
	case model.FormatString:
		out := make([]string, channelCount)
		for i := range out {
			out[i] = string(rune('0' + pattern))
		}
		return out
	default:
		return nil
	}
}
