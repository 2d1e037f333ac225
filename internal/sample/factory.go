package sample

import "sync"

// Float32Pool recycles fixed-width []float32 value buffers for a
// single producer generating samples at a steady rate. Get returns a
// buffer of exactly width elements, zeroed; Put returns it to the pool
// for reuse by a later Get.
//
// Float32Pool is safe only when the caller retains sole ownership of
// the buffer from Get until the matching Put: once a buffer has been
// handed to samplequeue.Queue.Push, which fans the same slice out to
// every consumer cursor without copying or reference counting, it must
// never be returned here. Put it back only after the producer has
// built an independent Sample around a copy, or not at all if the
// producer always pushes fresh slices.
type Float32Pool struct {
	width int
	pool  sync.Pool
}

// NewFloat32Pool returns a pool of buffers sized for width channels.
func NewFloat32Pool(width int) *Float32Pool {
	p := &Float32Pool{width: width}
	p.pool.New = func() any {
		return make([]float32, width)
	}
	return p
}

// Get returns a zeroed buffer of p's configured width.
func (p *Float32Pool) Get() []float32 {
	buf := p.pool.Get().([]float32)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Put returns buf to the pool. buf must have been obtained from Get
// and must not be referenced by anything else afterward.
func (p *Float32Pool) Put(buf []float32) {
	if len(buf) != p.width {
		return
	}
	p.pool.Put(buf)
}
