package sbe

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
)

// HeaderLength is the size of the message header preamble.
const HeaderLength = 8

// Header is the preamble at the very start of every message.
type Header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// Expect names the message kind a caller is prepared to decode. A zero
// SchemaID skips the schema check.
type Expect struct {
	TemplateID uint16
	SchemaID   uint16
}

// EncodeHeader writes h at offset.
func EncodeHeader(v buffer.WriteView, offset int, h Header) error {
	if err := v.PutUint16At(offset, h.BlockLength); err != nil {
		return err
	}
	if err := v.PutUint16At(offset+2, h.TemplateID); err != nil {
		return err
	}
	if err := v.PutUint16At(offset+4, h.SchemaID); err != nil {
		return err
	}
	return v.PutUint16At(offset+6, h.Version)
}

// DecodeHeader reads the header at offset.
func DecodeHeader(v buffer.ReadView, offset int) (Header, error) {
	raw, err := v.SliceAt(offset, HeaderLength)
	if err != nil {
		return Header{}, err
	}
	return Header{
		BlockLength: binary.LittleEndian.Uint16(raw[0:]),
		TemplateID:  binary.LittleEndian.Uint16(raw[2:]),
		SchemaID:    binary.LittleEndian.Uint16(raw[4:]),
		Version:     binary.LittleEndian.Uint16(raw[6:]),
	}, nil
}

// PeekHeader reads the header at offset without any expectation, for
// dispatching on template id.
func PeekHeader(buf []byte, offset int) (Header, error) {
	return DecodeHeader(buffer.NewReadView(buf), offset)
}

// WrapEncoder writes h at offset and returns the body encoder positioned right
// after it, with limit = offset + HeaderLength + h.BlockLength.
func WrapEncoder(buf []byte, offset int, h Header) (*Encoder, error) {
	if err := EncodeHeader(buffer.NewWriteView(buf), offset, h); err != nil {
		return nil, err
	}
	enc := NewEncoder(buf, offset+HeaderLength, h.BlockLength)
	enc.origin = offset
	return enc, nil
}

// WrapDecoder reads the header at offset, checks it against want, and returns
// a body decoder whose acting block length and version come from the header.
func WrapDecoder(buf []byte, offset int, want Expect) (*Decoder, Header, error) {
	h, err := PeekHeader(buf, offset)
	if err != nil {
		return nil, Header{}, err
	}
	if h.TemplateID != want.TemplateID {
		return nil, h, &TemplateMismatchError{Want: want.TemplateID, Got: h.TemplateID}
	}
	if want.SchemaID != 0 && h.SchemaID != want.SchemaID {
		return nil, h, fmt.Errorf("%w: got=%d want=%d", ErrSchemaMismatch, h.SchemaID, want.SchemaID)
	}
	return WrapHeader(buf, offset, h), h, nil
}

// WrapHeader returns the body decoder for an already-decoded header without
// re-checking it.
func WrapHeader(buf []byte, offset int, h Header) *Decoder {
	dec := NewDecoder(buf, offset+HeaderLength, h.BlockLength, h.Version)
	dec.origin = offset
	return dec
}
