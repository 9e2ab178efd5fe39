package wire

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Codec reads and writes Messages over a stream, framing each one as a
// length-delimited payload. Reads are not safe for concurrent use (the
// owning connection runs a single dispatch loop); writes are serialized
// internally so multiple goroutines may call WriteMessage concurrently
// without corrupting the stream.
type Codec struct {
	r      *bufio.Reader
	w      io.Writer
	limits Limits

	writeMu sync.Mutex
}

// NewCodec wraps rw with framing and message encoding using the default
// frame size limits.
func NewCodec(r io.Reader, w io.Writer) *Codec {
	return &Codec{
		r:      bufio.NewReader(r),
		w:      w,
		limits: DefaultLimits(),
	}
}

// SetLimits overrides the frame size limits used by subsequent reads.
func (c *Codec) SetLimits(l Limits) {
	c.limits = l
}

// ReadMessage blocks until one full Message has been read, or returns the
// underlying read error (io.EOF on orderly peer close).
func (c *Codec) ReadMessage(res Resolver) (*Message, error) {
	payload, err := ReadFrame(c.r, c.limits)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(bytes.NewReader(payload))
	return Decode(br, res)
}

// WriteMessage encodes m and writes it as one frame. Safe for concurrent
// use; writes from different goroutines never interleave.
func (c *Codec) WriteMessage(m *Message, res Resolver) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, res); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.w, buf.Bytes(), c.limits)
}
