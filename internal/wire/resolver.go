package wire

// Resolver is the callback surface the codec uses to resolve values it
// cannot represent generically: proxy references and connection-configured
// reference types. It is implemented by the owning connection so the codec
// itself stays a pure function of bytes.
type Resolver interface {
	// EncodeRef is asked, for any Go value that isn't one of the codec's
	// built-in kinds, whether it should be written as a ProxyRef or a
	// registered reference type. ok is false if the value has no wire
	// representation known to the resolver.
	EncodeRef(v any) (tag byte, name string, ok bool)

	// DecodeRef turns a decoded Name back into a Go value: either the
	// locally bound object if the name is already registered on this
	// connection, or a Proxy handle for a remote object. tag distinguishes
	// TagProxy from a specific reference-type tag, though both currently
	// resolve the same way.
	DecodeRef(tag byte, name string) any
}
