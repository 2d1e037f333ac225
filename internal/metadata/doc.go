// Package metadata provides the minimal stream-description
// collaborators a session and a resolver attempt need: rendering a
// StreamInfo as short/full XML, and testing a short-info payload
// against an XPath-like query string. Full validation of queries and
// full XML schema conformance are out of this module's scope (the
// metadata/query-validation collaborator named in the external
// interfaces); these are the minimal working stand-ins that let the
// rest of the system run end to end.
package metadata
