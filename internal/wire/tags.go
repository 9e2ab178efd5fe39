package wire

// Message tags. Numeric values are part of the wire ABI and must not
// change; registration order is what makes the extension table stable
// across implementations.
const (
	TagInvoke  byte = 0x00
	TagReturn  byte = 0x01
	TagYield   byte = 0x02
	TagError   byte = 0x03
	TagNext    byte = 0x04
	TagThrow   byte = 0x05
	TagClose   byte = 0x06
	TagProxy   byte = 0x10
	TagRelease byte = 0x11

	// TagReferenceBase is the first tag in the open-ended reference-type
	// range (0x30+). One tag is assigned per registered ReferenceType, in
	// registration order, starting here.
	TagReferenceBase byte = 0x30
)

// Value tags. These describe the shape of one encoded value inside a
// message payload (an argument, a kwarg, a result, a yielded value). They
// sit alongside the extension tags above but occupy an unreserved range,
// since only the extension tags themselves are fixed wire ABI.
const (
	valTagNil        byte = 0x80
	valTagBool       byte = 0x81
	valTagInt        byte = 0x82
	valTagFloat      byte = 0x83
	valTagString     byte = 0x84
	valTagBytes      byte = 0x85
	valTagArray      byte = 0x86
	valTagMap        byte = 0x87
	valTagSymbol     byte = 0x20
	valTagException  byte = 0x21
	valTagClassToken byte = 0x22
	valTagProxyRef   byte = TagProxy
)
