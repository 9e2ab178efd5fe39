package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
)

// Message is one decoded protocol message: exactly one of the Tag-specific
// field groups below is meaningful, selected by Tag.
//
// ObjectName is not listed among Invoke's payload fields in the tag table,
// but every walkthrough that binds more than one method to the same object
// needs it to route the call, so it travels alongside method-name under
// the same 0x00 tag rather than forcing a second round trip.
type Message struct {
	Tag byte

	TxnID uint64

	// Invoke
	ObjectName string
	Method     string
	Args       []any
	Kwargs     map[string]any
	HasBlock   bool

	// Return
	Result any

	// Yield
	Values []any

	// Error
	Err *Exception

	// Next
	Value any

	// Throw
	ThrowTag   any
	ThrowValue any

	// Release
	ReleaseName string
}

// Encode writes m's wire representation to buf.
func Encode(buf *bytes.Buffer, m *Message, r Resolver) error {
	buf.WriteByte(m.Tag)
	switch m.Tag {
	case TagInvoke:
		putUvarint(buf, m.TxnID)
		if err := writeString(buf, m.ObjectName); err != nil {
			return err
		}
		if err := writeString(buf, m.Method); err != nil {
			return err
		}
		if err := EncodeValue(buf, m.Args, r); err != nil {
			return err
		}
		if err := EncodeValue(buf, m.Kwargs, r); err != nil {
			return err
		}
		if m.HasBlock {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case TagReturn:
		putUvarint(buf, m.TxnID)
		if err := EncodeValue(buf, m.Result, r); err != nil {
			return err
		}
	case TagYield:
		putUvarint(buf, m.TxnID)
		if err := EncodeValue(buf, m.Values, r); err != nil {
			return err
		}
	case TagError:
		putUvarint(buf, m.TxnID)
		if err := EncodeValue(buf, m.Err, r); err != nil {
			return err
		}
	case TagNext:
		putUvarint(buf, m.TxnID)
		if err := EncodeValue(buf, m.Value, r); err != nil {
			return err
		}
	case TagThrow:
		putUvarint(buf, m.TxnID)
		if err := EncodeValue(buf, m.ThrowTag, r); err != nil {
			return err
		}
		if err := EncodeValue(buf, m.ThrowValue, r); err != nil {
			return err
		}
	case TagClose:
		putUvarint(buf, m.TxnID)
	case TagRelease:
		if err := writeString(buf, m.ReleaseName); err != nil {
			return err
		}
	default:
		return fmt.Errorf("wire: encode: unsupported message tag 0x%02x", m.Tag)
	}
	return nil
}

// Decode reads one Message from br.
func Decode(br *bufio.Reader, res Resolver) (*Message, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	m := &Message{Tag: tag}
	switch tag {
	case TagInvoke:
		id, err := readUvarint(br)
		if err != nil {
			return nil, err
		}
		m.TxnID = id
		if m.ObjectName, err = readString(br); err != nil {
			return nil, err
		}
		if m.Method, err = readString(br); err != nil {
			return nil, err
		}
		args, err := DecodeValue(br, res)
		if err != nil {
			return nil, err
		}
		m.Args, _ = args.([]any)
		kwargs, err := DecodeValue(br, res)
		if err != nil {
			return nil, err
		}
		m.Kwargs, _ = kwargs.(map[string]any)
		hb, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		m.HasBlock = hb != 0
	case TagReturn:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
		if m.Result, err = DecodeValue(br, res); err != nil {
			return nil, err
		}
	case TagYield:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
		values, err := DecodeValue(br, res)
		if err != nil {
			return nil, err
		}
		m.Values, _ = values.([]any)
	case TagError:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
		v, err := DecodeValue(br, res)
		if err != nil {
			return nil, err
		}
		exc, _ := v.(*Exception)
		m.Err = exc
	case TagNext:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
		if m.Value, err = DecodeValue(br, res); err != nil {
			return nil, err
		}
	case TagThrow:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
		if m.ThrowTag, err = DecodeValue(br, res); err != nil {
			return nil, err
		}
		if m.ThrowValue, err = DecodeValue(br, res); err != nil {
			return nil, err
		}
	case TagClose:
		if m.TxnID, err = readUvarint(br); err != nil {
			return nil, err
		}
	case TagRelease:
		if m.ReleaseName, err = readString(br); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, tag)
	}
	return m, nil
}

func readUvarint(br *bufio.Reader) (uint64, error) {
	return binary.ReadUvarint(br)
}
