// Package stream implements the cancellable, buffered bidirectional
// byte stream from spec §4.9: a get buffer with putback for reads, a
// put buffer flushed on demand for writes, and a cancel() that
// unblocks any in-flight read or write.
//
// The original implementation serializes cancel() against exactly one
// in-flight async op via a private executor, because on that platform
// closing a socket while an async op is still registered on the
// reactor is undefined. Go's net.Conn has no such hazard: closing the
// underlying connection from another goroutine is documented to
// unblock any Read/Write in progress with an error. Stream's Cancel
// is therefore a direct Close call guarded by a mutex against a
// concurrent Cancel, not a three-step stop-and-rejoin dance — the
// same wake guarantee, reached the idiomatic Go way.
package stream
