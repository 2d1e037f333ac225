// Package lsl is a Go-native implementation of the Lab Streaming Layer
// wire protocol: UDP discovery, TCP data transport, and the
// cancellation fabric tying both together.
//
// An Outlet publishes a stream and serves it to any number of
// connected consumers. An Inlet discovers and pulls samples from one.
// Resolver runs the oneshot or continuous discovery queries that find
// an Inlet's target in the first place.
//
// This package is the public facade over the internal/ subsystems;
// see each internal package's doc comment for the protocol detail it
// implements.
package lsl
