// Package sample is the minimal stand-in for the out-of-scope
// SampleFactory collaborator named in spec §1/§3: a sync.Pool-backed
// recycler for the fixed-shape value buffers a producer fills on every
// push, so a steady-rate outlet doesn't allocate a new slice per
// sample. It is deliberately narrow: reuse is only safe for a single
// owner that fills a buffer and hands it off exactly once (the
// producer side, before PushSample fans it out), never for a buffer
// already shared across a samplequeue.Queue's consumer cursors.
package sample
