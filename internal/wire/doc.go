// Package wire implements the bus codec: a typed, self-describing
// serialization for the messages exchanged across a Connection.
//
// Ownership boundary:
// - message tag table (kept numerically stable, see tags.go)
// - recursive value encoding for args/kwargs/results
// - length-delimited framing over an io.Reader/io.Writer pair
//
// The codec is a pure function of bytes and a Resolver callback into the
// owning connection; it has no knowledge of Connection, Proxy, or the
// object registry.
package wire
