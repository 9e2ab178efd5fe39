package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Symbol is a lightweight interned-token value, encoded distinctly from a
// plain string so peers that distinguish symbols from strings can
// round-trip the distinction.
type Symbol string

// ClassToken is a name-only reference to a class/type on the peer. Its
// resolution is environment-dependent and may fail; the codec only ever
// carries the name.
type ClassToken string

// Exception is the best-effort reconstruction of a remote error: a class
// name, a message, and an opaque textual backtrace for diagnostics only.
type Exception struct {
	Class     string
	Message   string
	Backtrace []string
}

func (e *Exception) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// ReferenceType configures one value kind that the codec auto-binds as an
// implicit proxy during encoding, per the connection's configured
// reference-type matchers, tried in registration order.
type ReferenceType struct {
	Tag   byte
	Match func(v any) bool
}

// EncodeValue writes one self-describing value to buf, consulting r for any
// value it cannot represent as a built-in kind.
func EncodeValue(buf *bytes.Buffer, v any, r Resolver) error {
	switch x := v.(type) {
	case nil:
		buf.WriteByte(valTagNil)
		return nil
	case bool:
		buf.WriteByte(valTagBool)
		if x {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case string:
		return writeLenPrefixed(buf, valTagString, []byte(x))
	case []byte:
		return writeLenPrefixed(buf, valTagBytes, x)
	case Symbol:
		return writeLenPrefixed(buf, valTagSymbol, []byte(x))
	case ClassToken:
		return writeLenPrefixed(buf, valTagClassToken, []byte(x))
	case *Exception:
		return encodeException(buf, x)
	case []any:
		buf.WriteByte(valTagArray)
		putUvarint(buf, uint64(len(x)))
		for _, item := range x {
			if err := EncodeValue(buf, item, r); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		buf.WriteByte(valTagMap)
		putUvarint(buf, uint64(len(x)))
		for k, val := range x {
			if err := writeLenPrefixed(buf, valTagString, []byte(k)); err != nil {
				return err
			}
			if err := EncodeValue(buf, val, r); err != nil {
				return err
			}
		}
		return nil
	}

	if i, ok := asInt64(v); ok {
		buf.WriteByte(valTagInt)
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(i))
		buf.Write(tmp[:])
		return nil
	}
	if f, ok := asFloat64(v); ok {
		buf.WriteByte(valTagFloat)
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(f))
		buf.Write(tmp[:])
		return nil
	}

	if r != nil {
		if tag, name, ok := r.EncodeRef(v); ok {
			return writeLenPrefixed(buf, tag, []byte(name))
		}
	}
	return fmt.Errorf("%w: %T", ErrUnencodable, v)
}

// DecodeValue reads one self-describing value from r, consulting res to
// resolve proxy references and reference types.
func DecodeValue(br io.ByteReader, res Resolver) (any, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valTagNil:
		return nil, nil
	case valTagBool:
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case valTagInt:
		var tmp [8]byte
		if err := readFull(br, tmp[:]); err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(tmp[:])), nil
	case valTagFloat:
		var tmp [8]byte
		if err := readFull(br, tmp[:]); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(tmp[:])), nil
	case valTagString:
		b, err := readLenPrefixed(br)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case valTagBytes:
		return readLenPrefixed(br)
	case valTagSymbol:
		b, err := readLenPrefixed(br)
		if err != nil {
			return nil, err
		}
		return Symbol(b), nil
	case valTagClassToken:
		b, err := readLenPrefixed(br)
		if err != nil {
			return nil, err
		}
		return ClassToken(b), nil
	case valTagException:
		return decodeException(br)
	case valTagArray:
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := DecodeValue(br, res)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case valTagMap:
		n, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, n)
		for i := uint64(0); i < n; i++ {
			kb, err := readLenPrefixed(br)
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(br, res)
			if err != nil {
				return nil, err
			}
			out[string(kb)] = v
		}
		return out, nil
	default:
		if tag == TagProxy || tag >= TagReferenceBase {
			nameBytes, err := readLenPrefixed(br)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, fmt.Errorf("%w: 0x%02x (no resolver)", ErrUnknownTag, tag)
			}
			return res.DecodeRef(tag, string(nameBytes)), nil
		}
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, tag)
	}
}

func encodeException(buf *bytes.Buffer, e *Exception) error {
	buf.WriteByte(valTagException)
	if err := writeString(buf, e.Class); err != nil {
		return err
	}
	if err := writeString(buf, e.Message); err != nil {
		return err
	}
	putUvarint(buf, uint64(len(e.Backtrace)))
	for _, line := range e.Backtrace {
		if err := writeString(buf, line); err != nil {
			return err
		}
	}
	return nil
}

func decodeException(br io.ByteReader) (*Exception, error) {
	class, err := readString(br)
	if err != nil {
		return nil, err
	}
	msg, err := readString(br)
	if err != nil {
		return nil, err
	}
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	bt := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		line, err := readString(br)
		if err != nil {
			return nil, err
		}
		bt = append(bt, line)
	}
	return &Exception{Class: class, Message: msg, Backtrace: bt}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
	return nil
}

func readString(br io.ByteReader) (string, error) {
	b, err := readLenPrefixed(br)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeLenPrefixed(buf *bytes.Buffer, tag byte, b []byte) error {
	buf.WriteByte(tag)
	putUvarint(buf, uint64(len(b)))
	buf.Write(b)
	return nil
}

func readLenPrefixed(br io.ByteReader) ([]byte, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := readFull(br, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readFull(br io.ByteReader, out []byte) error {
	for i := range out {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		out[i] = b
	}
	return nil
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
