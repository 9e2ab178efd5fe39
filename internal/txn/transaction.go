package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/socketry/async-bus/internal/wire"
)

// ErrClosed is returned by Invoke/Accept operations on a Transaction whose
// inbox has already been closed, either by Close or by the owning
// connection tearing down.
var ErrClosed = errors.New("txn: transaction closed")

// RemoteThrow surfaces a peer's non-local control transfer (a tagged
// throw that was never caught on the acceptor side) when the local
// runtime has no equivalent facility to re-issue it as a real throw.
type RemoteThrow struct {
	Tag   any
	Value any
}

func (t *RemoteThrow) Error() string {
	return fmt.Sprintf("txn: remote throw: tag=%v value=%v", t.Tag, t.Value)
}

// BlockCaller is the local callback a block-bearing invoke feeds each
// Yield through. It returns the value to send back as Next, or an error
// to report back to the acceptor as Error.
type BlockCaller func(values []any) (any, error)

// Dispatchable is implemented by anything an acceptor Transaction can
// route a method call into. The connection resolves it from a bound
// object via the object registry.
type Dispatchable interface {
	Dispatch(ctx context.Context, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error)
}

// Writer is the narrow surface a Transaction needs on the owning
// connection: write one message to the peer.
type Writer interface {
	WriteMessage(*wire.Message) error
}

// Transaction tracks one logical call, either as its initiator or its
// acceptor, and owns the inbox the connection's dispatch loop feeds
// incoming messages for this id into.
type Transaction struct {
	ID      uint64
	conn    Writer
	timeout time.Duration

	inbox    chan *wire.Message
	closed   chan struct{}
	closeMu  sync.Mutex
	isClosed bool
}

// New creates a Transaction bound to id, writing through conn and with
// the given per-read timeout (zero disables the timeout).
func New(id uint64, conn Writer, timeout time.Duration) *Transaction {
	return &Transaction{
		ID:      id,
		conn:    conn,
		timeout: timeout,
		inbox:   make(chan *wire.Message, 8),
		closed:  make(chan struct{}),
	}
}

// Deliver pushes a message arriving for this id into the transaction's
// inbox. Called from the connection's single dispatch loop. A full inbox
// or a closed transaction drops the message silently (stale).
func (t *Transaction) Deliver(m *wire.Message) {
	select {
	case t.inbox <- m:
	case <-t.closed:
	default:
	}
}

// Close is idempotent; it unblocks any pending read with a terminal nil
// and marks the transaction unusable for further operations.
func (t *Transaction) Close() {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.isClosed {
		return
	}
	t.isClosed = true
	close(t.closed)
}

func (t *Transaction) recv() (*wire.Message, error) {
	if t.timeout <= 0 {
		select {
		case m := <-t.inbox:
			return m, nil
		case <-t.closed:
			return nil, nil
		}
	}
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case m := <-t.inbox:
		return m, nil
	case <-t.closed:
		return nil, nil
	case <-timer.C:
		return nil, nil
	}
}

// Invoke runs the initiator side of a call: write Invoke, then drive the
// Return/Yield/Error/Throw loop until a terminal message arrives (or the
// per-read timeout elapses, which is treated as an implicit Return(nil)).
func (t *Transaction) Invoke(objectName, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error) {
	err := t.conn.WriteMessage(&wire.Message{
		Tag:        wire.TagInvoke,
		TxnID:      t.ID,
		ObjectName: objectName,
		Method:     method,
		Args:       args,
		Kwargs:     kwargs,
		HasBlock:   block != nil,
	})
	if err != nil {
		return nil, err
	}

	for {
		m, err := t.recv()
		if err != nil {
			return nil, err
		}
		if m == nil {
			// Timeout or close: implicit Return(nil).
			return nil, nil
		}
		switch m.Tag {
		case wire.TagReturn:
			return m.Result, nil
		case wire.TagYield:
			if block == nil {
				// No block callback registered; treat as a protocol
				// violation from the peer and fail the call.
				return nil, fmt.Errorf("txn: yield received for blockless invoke %d", t.ID)
			}
			result, cerr := block(m.Values)
			if cerr != nil {
				werr := t.conn.WriteMessage(&wire.Message{
					Tag:   wire.TagError,
					TxnID: t.ID,
					Err:   toException(cerr),
				})
				if werr != nil {
					return nil, werr
				}
				continue
			}
			werr := t.conn.WriteMessage(&wire.Message{
				Tag:   wire.TagNext,
				TxnID: t.ID,
				Value: result,
			})
			if werr != nil {
				return nil, werr
			}
			continue
		case wire.TagError:
			if m.Err != nil {
				return nil, m.Err
			}
			return nil, errors.New("txn: remote error")
		case wire.TagThrow:
			return nil, &RemoteThrow{Tag: m.ThrowTag, Value: m.ThrowValue}
		case wire.TagClose:
			return nil, nil
		default:
			continue
		}
	}
}

// Accept runs the acceptor side of a call: dispatch the invocation against
// object, relaying any block yields through Yield/Next/Error/Close, and
// finally writing the terminal Return, Error, or Throw.
func (t *Transaction) Accept(ctx context.Context, object Dispatchable, m *wire.Message) {
	var block BlockCaller
	if m.HasBlock {
		block = func(values []any) (any, error) {
			werr := t.conn.WriteMessage(&wire.Message{
				Tag:    wire.TagYield,
				TxnID:  t.ID,
				Values: values,
			})
			if werr != nil {
				return nil, werr
			}
			resp, rerr := t.recv()
			if rerr != nil {
				return nil, rerr
			}
			if resp == nil {
				return nil, ErrClosed
			}
			switch resp.Tag {
			case wire.TagNext:
				return resp.Value, nil
			case wire.TagError:
				if resp.Err != nil {
					return nil, resp.Err
				}
				return nil, errors.New("txn: remote error")
			case wire.TagClose:
				return nil, ErrClosed
			default:
				return nil, fmt.Errorf("txn: unexpected message 0x%02x in block loop", resp.Tag)
			}
		}
	}

	result, err := object.Dispatch(ctx, m.Method, m.Args, m.Kwargs, block)
	if err != nil {
		var rt *RemoteThrow
		if errors.As(err, &rt) {
			_ = t.conn.WriteMessage(&wire.Message{
				Tag:        wire.TagThrow,
				TxnID:      t.ID,
				ThrowTag:   rt.Tag,
				ThrowValue: rt.Value,
			})
			return
		}
		_ = t.conn.WriteMessage(&wire.Message{
			Tag:   wire.TagError,
			TxnID: t.ID,
			Err:   toException(err),
		})
		return
	}
	_ = t.conn.WriteMessage(&wire.Message{
		Tag:    wire.TagReturn,
		TxnID:  t.ID,
		Result: result,
	})
}

func toException(err error) *wire.Exception {
	var exc *wire.Exception
	if errors.As(err, &exc) {
		return exc
	}
	return &wire.Exception{Class: "RuntimeError", Message: err.Error()}
}
