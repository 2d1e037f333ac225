// Package discovery implements the UDP resolver: one-round "attempts"
// that burst queries at unicast and multicast targets and collect
// replies (spec §4.4), and the oneshot/continuous facade built on top
// of them (spec §4.5).
package discovery
