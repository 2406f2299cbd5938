package device

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a command is sent on a session that
// was never opened or has been closed.
var ErrSessionClosed = errors.New("session closed")

// ErrVariableNotFound is wrapped by the ProtocolError GetVar returns when
// the monkey answers with an error.
var ErrVariableNotFound = errors.New("variable not found")

// TransportError is a socket or process level failure. For the monkey it
// is only returned after every reconnect attempt has failed.
type TransportError struct {
	Service  string // "monkey" or "viewserver"
	Op       string // what was being done, e.g. `send "tap 1 2"`
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s: %s: failed after %d attempts: %v", e.Service, e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a well-delivered but unacceptable response. It is never
// retried.
type ProtocolError struct {
	Service  string
	Command  string
	Response string
	Err      error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s: %q: unexpected response %q", e.Service, e.Command, e.Response)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }
