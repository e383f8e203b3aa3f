package schema

import (
	"fmt"
	"math"

	"github.com/danmuck/sbewire/internal/protocol/sbe"
)

// NullVariant is the name every enum decodes to for byte 0 and for any byte
// that is not one of its declared values.
const NullVariant = "NULL_VAL"

// Null sentinel kinds accepted in FieldSpec.Null.
const (
	NullNone    = ""
	NullAllOnes = "all-ones"
	NullNaN     = "nan"
	NullMin     = "min"
)

// Table is one schema: its identity plus every type and message it declares.
type Table struct {
	Name       string          `toml:"name" yaml:"name"`
	SchemaID   uint16          `toml:"schema_id" yaml:"schema_id"`
	Version    uint16          `toml:"version" yaml:"version"`
	Enums      []EnumSpec      `toml:"enum" yaml:"enums"`
	Composites []CompositeSpec `toml:"composite" yaml:"composites"`
	Messages   []MessageSpec   `toml:"message" yaml:"messages"`
}

type EnumValue struct {
	Name  string `toml:"name" yaml:"name"`
	Value uint8  `toml:"value" yaml:"value"`
}

// EnumSpec is a one-byte enumeration. Encoding is "char" or "uint8".
type EnumSpec struct {
	Name     string      `toml:"name" yaml:"name"`
	Encoding string      `toml:"encoding" yaml:"encoding"`
	Values   []EnumValue `toml:"value" yaml:"values"`
}

// Decode maps a wire byte to its variant name. Unknown bytes are not an
// error: they decode to NullVariant.
func (e *EnumSpec) Decode(b uint8) string {
	if b == 0 {
		return NullVariant
	}
	for _, v := range e.Values {
		if v.Value == b {
			return v.Name
		}
	}
	return NullVariant
}

// Encode maps a variant name to its wire byte.
func (e *EnumSpec) Encode(name string) (uint8, bool) {
	if name == NullVariant {
		return 0, true
	}
	for _, v := range e.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

type CompositeSpec struct {
	Name   string      `toml:"name" yaml:"name"`
	Length int         `toml:"length" yaml:"length"`
	Fields []FieldSpec `toml:"field" yaml:"fields"`
}

type MessageSpec struct {
	Name         string      `toml:"name" yaml:"name"`
	TemplateID   uint16      `toml:"template_id" yaml:"template_id"`
	BlockLength  int         `toml:"block_length" yaml:"block_length"`
	SinceVersion uint16      `toml:"since_version" yaml:"since_version"`
	Fields       []FieldSpec `toml:"field" yaml:"fields"`
	Groups       []GroupSpec `toml:"group" yaml:"groups"`
}

// Header returns the message header a producer writes for m under t.
func (m *MessageSpec) Header(t *Table) sbe.Header {
	return sbe.Header{
		BlockLength: uint16(m.BlockLength),
		TemplateID:  m.TemplateID,
		SchemaID:    t.SchemaID,
		Version:     t.Version,
	}
}

func (m *MessageSpec) Group(name string) (*GroupSpec, bool) {
	return findGroup(m.Groups, name)
}

type GroupSpec struct {
	Name        string      `toml:"name" yaml:"name"`
	BlockLength int         `toml:"block_length" yaml:"block_length"`
	Fields      []FieldSpec `toml:"field" yaml:"fields"`
	Groups      []GroupSpec `toml:"group" yaml:"groups"`
}

func (g *GroupSpec) Group(name string) (*GroupSpec, bool) {
	return findGroup(g.Groups, name)
}

func findGroup(groups []GroupSpec, name string) (*GroupSpec, bool) {
	for i := range groups {
		if groups[i].Name == name {
			return &groups[i], true
		}
	}
	return nil, false
}

// FieldKind says how a field is laid out.
type FieldKind uint8

const (
	KindPrimitive FieldKind = iota
	KindEnum
	KindComposite
	KindBytes
)

func (k FieldKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindComposite:
		return "composite"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// FieldSpec places one field at a fixed offset in its structure. Exactly one
// of Type, Enum or Composite is set. Length > 1 with a char or uint8 Type
// makes a fixed-length byte array.
type FieldSpec struct {
	Name         string `toml:"name" yaml:"name"`
	Offset       int    `toml:"offset" yaml:"offset"`
	Type         string `toml:"type,omitempty" yaml:"type,omitempty"`
	Length       int    `toml:"length,omitempty" yaml:"length,omitempty"`
	Enum         string `toml:"enum,omitempty" yaml:"enum,omitempty"`
	Composite    string `toml:"composite,omitempty" yaml:"composite,omitempty"`
	Null         string `toml:"null,omitempty" yaml:"null,omitempty"`
	SinceVersion uint16 `toml:"since_version,omitempty" yaml:"since_version,omitempty"`
}

func (f *FieldSpec) Kind() FieldKind {
	switch {
	case f.Enum != "":
		return KindEnum
	case f.Composite != "":
		return KindComposite
	case f.Length > 1:
		return KindBytes
	default:
		return KindPrimitive
	}
}

// Primitive returns the wire primitive for primitive and byte-array fields.
// Enum fields report Uint8.
func (f *FieldSpec) Primitive() (sbe.Primitive, error) {
	if f.Kind() == KindEnum {
		return sbe.Uint8, nil
	}
	return sbe.ParsePrimitive(f.Type)
}

// Width returns the number of bytes the field occupies.
func (f *FieldSpec) Width(t *Table) (int, error) {
	switch f.Kind() {
	case KindEnum:
		return 1, nil
	case KindComposite:
		c, ok := t.Composite(f.Composite)
		if !ok {
			return 0, fmt.Errorf("%w: composite %q", ErrUnknownType, f.Composite)
		}
		return c.Length, nil
	default:
		p, err := f.Primitive()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnknownType, err)
		}
		if f.Length > 1 {
			return p.Width() * f.Length, nil
		}
		return p.Width(), nil
	}
}

// NullBits returns the sentinel bit pattern for the field's primitive width,
// zero-extended to 64 bits. ok is false when the field has no sentinel.
func (f *FieldSpec) NullBits() (uint64, bool) {
	p, err := f.Primitive()
	if err != nil {
		return 0, false
	}
	bits := uint(p.Width() * 8)
	mask := uint64(math.MaxUint64)
	if bits < 64 {
		mask = (uint64(1) << bits) - 1
	}
	switch f.Null {
	case NullAllOnes:
		return mask, true
	case NullMin:
		return uint64(1) << (bits - 1), true
	case NullNaN:
		if p == sbe.Float32 {
			return uint64(math.Float32bits(float32(math.NaN()))), true
		}
		return math.Float64bits(math.NaN()), true
	default:
		return 0, false
	}
}

func (f *FieldSpec) IsNullUint(v uint64) bool {
	bits, ok := f.NullBits()
	return ok && f.Null == NullAllOnes && v == bits
}

func (f *FieldSpec) IsNullInt(v int64) bool {
	switch f.Null {
	case NullAllOnes:
		return v == -1
	case NullMin:
		p, err := f.Primitive()
		if err != nil {
			return false
		}
		return v == int64(math.MinInt64)>>uint(64-p.Width()*8)
	default:
		return false
	}
}

func (f *FieldSpec) IsNullFloat(v float64) bool {
	return f.Null == NullNaN && math.IsNaN(v)
}

// Enum looks up an enumeration by name.
func (t *Table) Enum(name string) (*EnumSpec, bool) {
	for i := range t.Enums {
		if t.Enums[i].Name == name {
			return &t.Enums[i], true
		}
	}
	return nil, false
}

func (t *Table) Composite(name string) (*CompositeSpec, bool) {
	for i := range t.Composites {
		if t.Composites[i].Name == name {
			return &t.Composites[i], true
		}
	}
	return nil, false
}

func (t *Table) Message(name string) (*MessageSpec, bool) {
	for i := range t.Messages {
		if t.Messages[i].Name == name {
			return &t.Messages[i], true
		}
	}
	return nil, false
}

// MessageByTemplate finds the message a header's template id refers to.
func (t *Table) MessageByTemplate(id uint16) (*MessageSpec, bool) {
	for i := range t.Messages {
		if t.Messages[i].TemplateID == id {
			return &t.Messages[i], true
		}
	}
	return nil, false
}
