package model

// Family tags an Endpoint or multicast group by IP address family, since
// v4/v6 targets and groups are always segregated (spec §3).
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

// Endpoint is a (host, port) pair tagged with its address family.
type Endpoint struct {
	Host   string
	Port   int
	Family Family
}

// ResolveResult is one entry of the resolver's accumulated results map:
// a StreamInfo plus the last time a response for its UID was observed
// (spec §3 ResolveResult).
type ResolveResult struct {
	Info     *StreamInfo
	LastSeen float64
}
