package wire

import "errors"

var (
	// ErrUnknownTag is returned when decode encounters a tag outside the
	// registered extension table. This is a fatal codec error: the caller
	// must terminate the containing connection.
	ErrUnknownTag = errors.New("wire: unknown tag")
	// ErrTruncated is returned when the stream ends mid-value.
	ErrTruncated = errors.New("wire: truncated value")
	// ErrUnencodable is returned when EncodeValue cannot represent a Go
	// value and the resolver also declined it.
	ErrUnencodable = errors.New("wire: value has no wire representation")
	// ErrFrameTooLarge is returned when a decoded frame exceeds the
	// configured limit, guarding against a hostile or corrupt peer.
	ErrFrameTooLarge = errors.New("wire: frame exceeds size limit")
)
