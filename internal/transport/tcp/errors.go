package tcp

import (
	"errors"
	"fmt"
)

var (
	// ErrBothFamiliesFailed is returned by Listen when neither the v4
	// nor the v6 listener could bind any port in the configured range.
	ErrBothFamiliesFailed = errors.New("tcp: failed to bind v4 and v6 listeners")

	// ErrUIDMismatch is the session-level condition behind a 404
	// response: the client asked for a uid this outlet doesn't serve.
	ErrUIDMismatch = errors.New("tcp: uid mismatch")

	// ErrVersionUnsupported is the session-level condition behind a
	// 505 response: the client's major version exceeds the server's.
	ErrVersionUnsupported = errors.New("tcp: client major version unsupported")
)

// SessionError wraps a failure encountered while serving one client
// session with the stage it happened in.
type SessionError struct {
	Stage string
	Err   error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("tcp: session %s: %v", e.Stage, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
