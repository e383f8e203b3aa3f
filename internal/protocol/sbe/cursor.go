package sbe

import "github.com/danmuck/sbewire/internal/protocol/buffer"

// Encoder is the root write cursor of one message body. Its offset is fixed at
// creation; its limit starts at offset+blockLength and grows only as groups
// are appended.
type Encoder struct {
	FieldWriter
	origin int
}

// NewEncoder wraps buf with a body whose fixed block starts at offset.
func NewEncoder(buf []byte, offset int, blockLength uint16) *Encoder {
	return &Encoder{
		FieldWriter: FieldWriter{
			frame:  frame{st: newStack(offset + int(blockLength))},
			view:   buffer.NewWriteView(buf),
			base:   offset,
			extent: int(blockLength),
		},
		origin: offset,
	}
}

// Origin returns where the message starts: the header offset when the
// encoder came from WrapEncoder, otherwise the body offset.
func (e *Encoder) Origin() int {
	return e.origin
}

// EncodedLength returns limit - offset: the fixed block plus every group
// appended so far.
func (e *Encoder) EncodedLength() int {
	return e.Limit() - e.base
}

// MessageLength returns limit - origin, which includes the header when there
// is one. This is the number of bytes a transport sends.
func (e *Encoder) MessageLength() int {
	return e.Limit() - e.origin
}

// Decoder is the root read cursor of one message body.
type Decoder struct {
	FieldReader
	origin int
}

// NewDecoder wraps buf with a body whose fixed block starts at offset and
// spans actingBlockLength bytes as declared by the producer.
func NewDecoder(buf []byte, offset int, actingBlockLength, actingVersion uint16) *Decoder {
	return &Decoder{
		FieldReader: FieldReader{
			frame:   frame{st: newStack(offset + int(actingBlockLength))},
			view:    buffer.NewReadView(buf),
			base:    offset,
			extent:  int(actingBlockLength),
			version: actingVersion,
		},
		origin: offset,
	}
}

// Origin returns where the message starts.
func (d *Decoder) Origin() int {
	return d.origin
}

// ActingBlockLength returns the block length found on the wire.
func (d *Decoder) ActingBlockLength() uint16 {
	return uint16(d.extent)
}

// EncodedLength returns limit - offset for everything read so far.
func (d *Decoder) EncodedLength() int {
	return d.Limit() - d.base
}

// MessageLength returns limit - origin.
func (d *Decoder) MessageLength() int {
	return d.Limit() - d.origin
}
