package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/socketry/async-bus/internal/metrics"
	"github.com/socketry/async-bus/internal/proxytable"
	"github.com/socketry/async-bus/internal/registry"
	"github.com/socketry/async-bus/internal/txn"
	"github.com/socketry/async-bus/internal/wire"
)

// Connection owns one end of a bus socket: the codec, the object
// registry, the proxy table, the finalization queue, and the set of
// in-flight transactions. Exactly one dispatch loop (Run) reads from it;
// writes and invoke calls are safe to use concurrently from many
// goroutines.
type Connection struct {
	name  string
	rwc   io.ReadWriteCloser
	codec *wire.Codec

	registry *registry.Registry
	proxies  *proxytable.Table[Proxy]

	ids      *txn.IDAllocator
	timeout  time.Duration
	refTypes []ReferenceType

	txnMu sync.Mutex
	txns  map[uint64]*txn.Transaction

	closeOnce sync.Once
	closed    chan struct{}
}

// newConnection wraps rwc with the given options, ready to be handed to
// Run. name is used only for metric labels and log fields.
func newConnection(name string, rwc io.ReadWriteCloser, opts Options) *Connection {
	c := &Connection{
		name:     name,
		rwc:      rwc,
		codec:    wire.NewCodec(rwc, rwc),
		registry: registry.New(name + "-"),
		proxies:  proxytable.New[Proxy](64),
		ids:      txn.NewIDAllocator(opts.IsClient),
		timeout:  opts.Timeout,
		refTypes: opts.ReferenceTypes,
		txns:     make(map[uint64]*txn.Transaction),
		closed:   make(chan struct{}),
	}
	return c
}

// BindExplicit binds name to object for the lifetime of the connection;
// it is never removed by a peer Release.
func (c *Connection) BindExplicit(name string, object any) {
	c.registry.BindExplicit(name, object)
}

// GetProxy returns a Proxy addressing name on the peer. The two sides of
// a connection have independent registries, so this always allocates a
// remote-facing Proxy; it never resolves to a local object.
func (c *Connection) GetProxy(name string) *Proxy {
	return &Proxy{connection: c, name: name}
}

// Names returns a snapshot of every Name currently bound on this
// connection's local registry, for introspection.
func (c *Connection) Names() []string {
	return c.registry.Names()
}

// invoke allocates a Transaction, drives its initiator side, and
// releases it on exit. It is what Proxy.Call and the generated/reflected
// call sites funnel through.
func (c *Connection) invoke(name, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error) {
	select {
	case <-c.closed:
		return nil, ErrConnectionClosed
	default:
	}

	id := c.ids.Next()
	t := txn.New(id, c, c.timeout)
	c.registerTxn(id, t)
	defer c.releaseTxn(id, t)

	start := time.Now()
	result, err := t.Invoke(name, method, args, kwargs, block)
	outcome := "ok"
	defer func() {
		metrics.RecordInvocation(roleLabel(c), name, method, outcome, time.Since(start))
	}()

	if err == nil {
		return result, nil
	}

	var rt *txn.RemoteThrow
	if errors.As(err, &rt) {
		outcome = "throw"
		return nil, &RemoteThrow{Tag: rt.Tag, Value: rt.Value}
	}
	var exc *wire.Exception
	if errors.As(err, &exc) {
		outcome = "error"
		if exc.Class == "NotFoundError" {
			return nil, &NotFoundError{Name: name}
		}
		return nil, remoteErrorFromException(exc)
	}
	outcome = "io_error"
	return nil, err
}

// WriteMessage implements txn.Writer and wire.Resolver's write path: it
// encodes and frames m, serializing concurrent writers at the codec
// boundary.
func (c *Connection) WriteMessage(m *wire.Message) error {
	return c.codec.WriteMessage(m, c)
}

// EncodeRef implements wire.Resolver.
func (c *Connection) EncodeRef(v any) (tag byte, name string, ok bool) {
	if p, isProxy := v.(*Proxy); isProxy {
		if p.connection == c {
			return wire.TagProxy, p.name, true
		}
		// Foreign proxy forwarded through this connection: register a
		// fresh implicit binding so the peer sees a Name it can invoke
		// through us, which we in turn forward to the proxy's origin.
		n, err := c.registry.BindImplicit(p)
		if err != nil {
			return 0, "", false
		}
		return wire.TagProxy, n, true
	}

	for i, rt := range c.refTypes {
		if rt.Match(v) {
			n, err := c.registry.BindImplicit(v)
			if err != nil {
				return 0, "", false
			}
			return wire.TagReferenceBase + byte(i), n, true
		}
	}
	return 0, "", false
}

// DecodeRef implements wire.Resolver.
func (c *Connection) DecodeRef(tag byte, name string) any {
	if obj, ok := c.registry.Lookup(name); ok {
		return obj
	}
	return c.proxies.GetOrCreate(name, func() *Proxy {
		return &Proxy{connection: c, name: name}
	})
}

// Run drives the inbound dispatch loop until the stream ends or fails,
// calling onConnected once before the first read so the application can
// bind objects. It starts the finalizer task that drains the proxy
// table's release queue. Run blocks until the connection terminates and
// returns the terminating error (nil on orderly peer close).
func (c *Connection) Run(ctx context.Context, onConnected func(*Connection)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if onConnected != nil {
		onConnected(c)
	}

	go c.runFinalizer()
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	err := c.dispatchLoop(ctx)
	c.Close()
	return err
}

func (c *Connection) dispatchLoop(ctx context.Context) error {
	for {
		m, err := c.codec.ReadMessage(c)
		if err != nil {
			return err
		}
		switch m.Tag {
		case wire.TagInvoke:
			c.handleInvoke(ctx, m)
		case wire.TagRelease:
			c.registry.Release(m.ReleaseName)
		case wire.TagReturn, wire.TagYield, wire.TagError, wire.TagNext, wire.TagThrow, wire.TagClose:
			c.deliverTxn(m)
		default:
			// Unrecognized extension message: ignore and keep the
			// connection alive.
		}
	}
}

func (c *Connection) handleInvoke(ctx context.Context, m *wire.Message) {
	obj, ok := c.registry.Lookup(m.ObjectName)
	if !ok {
		_ = c.WriteMessage(&wire.Message{
			Tag:   wire.TagError,
			TxnID: m.TxnID,
			Err: &wire.Exception{
				Class:   "NotFoundError",
				Message: fmt.Sprintf("Object not found: %s", m.ObjectName),
			},
		})
		return
	}

	dispatchable, ok := obj.(Dispatchable)
	if !ok {
		dispatchable = Reflect(obj)
	}

	t := txn.New(m.TxnID, c, c.timeout)
	c.registerTxn(m.TxnID, t)
	go func() {
		defer c.releaseTxn(m.TxnID, t)
		t.Accept(ctx, dispatchable, m)
	}()
}

func (c *Connection) deliverTxn(m *wire.Message) {
	c.txnMu.Lock()
	t, ok := c.txns[m.TxnID]
	c.txnMu.Unlock()
	if !ok {
		return
	}
	t.Deliver(m)
}

func (c *Connection) registerTxn(id uint64, t *txn.Transaction) {
	c.txnMu.Lock()
	c.txns[id] = t
	c.txnMu.Unlock()
}

func (c *Connection) releaseTxn(id uint64, t *txn.Transaction) {
	c.txnMu.Lock()
	delete(c.txns, id)
	c.txnMu.Unlock()
	t.Close()
}

func (c *Connection) runFinalizer() {
	for {
		select {
		case name, ok := <-c.proxies.Releases():
			if !ok {
				return
			}
			metrics.RecordRelease(c.name)
			_ = c.WriteMessage(&wire.Message{Tag: wire.TagRelease, ReleaseName: name})
		case <-c.closed:
			return
		}
	}
}

// Close terminates the connection: outstanding transactions are closed
// (unblocking any waiters with a terminal nil), the finalizer task stops,
// the proxy table is cleared, and the underlying socket is closed. Close
// is idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.txnMu.Lock()
		txns := make([]*txn.Transaction, 0, len(c.txns))
		for _, t := range c.txns {
			txns = append(txns, t)
		}
		c.txns = make(map[uint64]*txn.Transaction)
		c.txnMu.Unlock()
		for _, t := range txns {
			t.Close()
		}

		c.proxies.Clear()
		err = c.rwc.Close()
	})
	return err
}

func roleLabel(c *Connection) string {
	if c == nil {
		return "unknown"
	}
	return c.name
}
