// Package wire implements the external interfaces of spec §6: the UDP
// discovery query/response framing, the TCP command line and feed
// header grammar, and the two on-wire sample encodings (the legacy
// portable-archive form for protocol 100, and the binary streambuf form
// with byte-reversal and subnormal flushing for protocol >= 110).
package wire
