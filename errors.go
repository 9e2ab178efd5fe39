package bus

import (
	"errors"
	"fmt"

	"github.com/socketry/async-bus/internal/wire"
)

// RemoteError wraps a reconstructed remote exception: class name,
// message, and an opaque backtrace carried for diagnostics only.
type RemoteError struct {
	Class     string
	Message   string
	Backtrace []string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bus: remote error: %s: %s", e.Class, e.Message)
}

func remoteErrorFromException(exc *wire.Exception) *RemoteError {
	if exc == nil {
		return &RemoteError{Class: "RuntimeError", Message: "unknown remote error"}
	}
	return &RemoteError{Class: exc.Class, Message: exc.Message, Backtrace: exc.Backtrace}
}

// NotFoundError is returned (wrapped in RemoteError on the initiator side)
// when an Invoke targets a Name with no binding on the peer.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Object not found: %s", e.Name)
}

// RemoteThrow surfaces a peer's non-local control transfer: a tagged
// throw that was never caught locally on the acceptor side, since Go has
// no tagged throw/catch of its own to re-issue it into.
type RemoteThrow struct {
	Tag   any
	Value any
}

func (t *RemoteThrow) Error() string {
	return fmt.Sprintf("bus: remote throw: tag=%v value=%v", t.Tag, t.Value)
}

// ErrConnectionClosed is returned by operations attempted after a
// Connection's dispatch loop has exited.
var ErrConnectionClosed = errors.New("bus: connection closed")
