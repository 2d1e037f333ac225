package model

// Sample is the timestamped unit of data flowing through the send
// buffer (spec §3). Values holds either a fixed-width numeric vector
// ([]float32, []float64, []int8, []int16, []int32, or []int64) or a
// sequence of strings for FormatString streams. A nil Values with
// IsPing true marks the sentinel "ping" sample used to wake blocked
// cursors during shutdown (spec §4.3).
type Sample struct {
	Timestamp   float64
	Pushthrough bool
	Values      any
	IsPing      bool
}

// NewPingSample returns the sentinel sample pushed to unblock every
// cursor during teardown; receivers must treat it as ignorable.
func NewPingSample(now float64) Sample {
	return Sample{Timestamp: now, IsPing: true}
}
