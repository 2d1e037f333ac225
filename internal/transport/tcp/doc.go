// Package tcp implements the TCP data-plane server: the dual-stack
// acceptor that binds a port range (spec §4.6), the per-client session
// state machine that negotiates protocol version and byte order and
// then streams samples (spec §4.7), and the alternative caller-driven
// synchronous transfer handler (spec §4.8).
package tcp
