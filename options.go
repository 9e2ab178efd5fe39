package bus

import "time"

// ReferenceType configures one value kind that a Connection auto-binds as
// an implicit proxy while encoding, instead of failing to encode it or
// requiring the caller to bind it explicitly first. Matchers are tried in
// registration order; the first match wins.
type ReferenceType struct {
	// Match reports whether v should be encoded under this reference
	// type's tag.
	Match func(v any) bool
}

// Options configures a Connection at construction time.
type Options struct {
	// ReferenceTypes lists value kinds to auto-bind as implicit proxies
	// during encoding, in registration order. Tag values are assigned
	// starting at wire.TagReferenceBase in this order.
	ReferenceTypes []ReferenceType

	// Timeout is the default per-read timeout applied to every
	// transaction's inbox read. Zero disables the timeout (read blocks
	// indefinitely).
	Timeout time.Duration

	// IsClient selects the transaction id parity for this side: true
	// allocates odd ids starting at 1, false allocates even ids starting
	// at 2. Server() and Dial() set this for you.
	IsClient bool
}

// DefaultOptions returns the options a Connection uses when none are
// supplied explicitly.
func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second}
}
