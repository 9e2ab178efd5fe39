// Package bus implements a bidirectional, transparent remote-procedure-call
// bus over a stream socket. Two peers exchange length-delimited,
// self-describing messages that let either side invoke methods on objects
// bound in the other, stream values back through a block callback,
// propagate errors and non-local control flow, and share object identity
// by reference across the wire.
//
// A Connection owns the socket, the message codec, the per-connection
// object registry and proxy table, and the active-transaction map. Server
// and client entry points (Serve, Dial, Run) construct a Connection per
// peer and hand it to an application callback before running its dispatch
// loop.
package bus
