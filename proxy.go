package bus

import (
	"context"
	"fmt"
)

// Proxy is a façade bound to {connection, name}: every method invoked on
// it is forwarded to the bound object of that Name on the peer side of
// connection. Two reserved accessors, Name and Connection, bypass
// forwarding and return local state instead of going over the wire.
type Proxy struct {
	connection *Connection
	name       string
}

// Name returns the object name this proxy addresses, without crossing
// the wire.
func (p *Proxy) Name() string {
	return p.name
}

// Connection returns the connection this proxy forwards through, without
// crossing the wire.
func (p *Proxy) Connection() *Connection {
	return p.connection
}

// Equal reports whether two proxies address the same Name on the same
// Connection. Proxy equality is by identity of (connection, name), never
// by comparing remote object state.
func (p *Proxy) Equal(other *Proxy) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.connection == other.connection && p.name == other.name
}

// String returns a human-readable identity, e.g. "proxy counter".
func (p *Proxy) String() string {
	return fmt.Sprintf("proxy %s", p.name)
}

// Call forwards method, with positional args and keyed kwargs, to the
// peer's bound object, invoking block once per Yield the peer emits if
// block is non-nil.
func (p *Proxy) Call(method string, args []any, kwargs map[string]any, block BlockCaller) (any, error) {
	return p.connection.invoke(p.name, method, args, kwargs, block)
}

// RespondsTo asks the peer, via a reserved introspection method, whether
// the bound object answers to method. Implementations that never bind a
// __responds_to__ helper simply get false with no error.
func (p *Proxy) RespondsTo(ctx context.Context, method string) (bool, error) {
	result, err := p.Call("__responds_to__", []any{method}, nil, nil)
	if err != nil {
		if _, ok := err.(*RemoteError); ok {
			return false, nil
		}
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// Dispatch implements Dispatchable so a Proxy received on one connection
// can be re-bound and forwarded through a second one (multi-hop
// forwarding): calls routed to it are simply re-invoked against the
// original remote object.
func (p *Proxy) Dispatch(ctx context.Context, method string, args []any, kwargs map[string]any, block BlockCaller) (any, error) {
	return p.Call(method, args, kwargs, block)
}
