package protocol

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// Decode reads the message at offset, choosing its layout by the header's
// template id.
func (c *Codec) Decode(buf []byte, offset int) (*Message, error) {
	h, err := sbe.PeekHeader(buf, offset)
	if err != nil {
		return nil, c.fail("decode", "", err)
	}
	m, ok := c.table.MessageByTemplate(h.TemplateID)
	if !ok {
		return nil, c.fail("decode", "", fmt.Errorf("%w: %d", ErrUnknownTemplate, h.TemplateID))
	}
	return c.decode(buf, offset, m)
}

// DecodeAs reads the message at offset and fails with ErrTemplateMismatch
// unless it is a name.
func (c *Codec) DecodeAs(buf []byte, offset int, name string) (*Message, error) {
	m, err := c.message(name)
	if err != nil {
		return nil, c.fail("decode", name, err)
	}
	return c.decode(buf, offset, m)
}

func (c *Codec) decode(buf []byte, offset int, m *schema.MessageSpec) (*Message, error) {
	want := sbe.Expect{TemplateID: m.TemplateID}
	if c.strict {
		want.SchemaID = c.table.SchemaID
	}
	dec, h, err := sbe.WrapDecoder(buf, offset, want)
	if err != nil {
		return nil, c.fail("decode", m.Name, err)
	}
	if h.Version != c.table.Version {
		c.logger.Debug().Msgf("protocol.Decode message=%s acting_version=%d schema_version=%d block=%d",
			m.Name, h.Version, c.table.Version, h.BlockLength)
	}

	rec := NewRecord()
	if err := c.readFields(dec, m.Name, m.Fields, rec.Fields); err != nil {
		return nil, c.fail("decode", m.Name, err)
	}
	if err := c.decodeGroups(dec, m.Name, m.Groups, rec.Groups); err != nil {
		return nil, c.fail("decode", m.Name, err)
	}
	// the block may be longer than the fields this schema reads
	if end := dec.Limit(); end > len(buf) {
		return nil, c.fail("decode", m.Name, &buffer.BoundsError{Op: "message", Offset: offset, Width: end - offset, Len: len(buf)})
	}

	msg := &Message{
		Name:          m.Name,
		Header:        h,
		Record:        rec,
		EncodedLength: dec.MessageLength(),
	}
	c.metrics.RecordDecode(m.Name)
	c.logger.Debug().Msgf("protocol.Decode message=%s template=%d bytes=%d", m.Name, m.TemplateID, msg.EncodedLength)
	return msg, nil
}

func (c *Codec) readFields(r sbe.DecodeFrame, path string, specs []schema.FieldSpec, out map[string]Value) error {
	version := r.Fields().ActingVersion()
	for i := range specs {
		f := &specs[i]
		fp := path + "." + f.Name
		v, err := c.readField(r, fp, f, version)
		if err != nil {
			return fieldErr(fp, err)
		}
		out[f.Name] = v
	}
	return nil
}

func (c *Codec) readField(r sbe.DecodeFrame, path string, f *schema.FieldSpec, version uint16) (Value, error) {
	absent := Value{Type: valueTypeOf(f)}
	if f.SinceVersion > version {
		return absent, nil
	}
	fr := r.Fields()
	switch f.Kind() {
	case schema.KindComposite:
		spec, ok := c.table.Composite(f.Composite)
		if !ok {
			return Value{}, fmt.Errorf("%w: composite %q", schema.ErrUnknownType, f.Composite)
		}
		if !fr.Has(f.Offset, 1) {
			return absent, nil
		}
		cd, err := sbe.NestDecoder[sbe.DecodeFrame](r, f.Offset, spec.Length)
		if err != nil {
			return Value{}, err
		}
		inner := Record{Fields: make(map[string]Value, len(spec.Fields))}
		if err := c.readFields(cd, path, spec.Fields, inner.Fields); err != nil {
			return Value{}, err
		}
		if _, err := cd.Parent(); err != nil {
			return Value{}, err
		}
		return Value{Type: ValueComposite, Present: true, Composite: &inner}, nil

	case schema.KindEnum:
		e, ok := c.table.Enum(f.Enum)
		if !ok {
			return Value{}, fmt.Errorf("%w: enum %q", schema.ErrUnknownType, f.Enum)
		}
		if !fr.Has(f.Offset, 1) {
			return absent, nil
		}
		raw, err := fr.Uint8(f.Offset)
		if err != nil {
			return Value{}, err
		}
		name := e.Decode(raw)
		return Value{Type: ValueEnum, Present: true, Null: name == schema.NullVariant, Enum: name, Uint: uint64(raw)}, nil

	case schema.KindBytes:
		width, err := f.Width(c.table)
		if err != nil {
			return Value{}, err
		}
		if !fr.Has(f.Offset, width) {
			return absent, nil
		}
		raw, err := fr.Bytes(f.Offset, width)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: ValueBytes, Present: true, Bytes: append([]byte(nil), raw...)}, nil
	}

	p, err := f.Primitive()
	if err != nil {
		return Value{}, err
	}
	if !fr.Has(f.Offset, p.Width()) {
		return absent, nil
	}
	switch {
	case p.IsFloat():
		x, err := fr.Float(f.Offset, p)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: ValueFloat, Present: true, Null: f.IsNullFloat(x), Float: x}, nil
	case p.IsSigned():
		x, err := fr.Int(f.Offset, p)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: ValueInt, Present: true, Null: f.IsNullInt(x), Int: x}, nil
	default:
		x, err := fr.Uint(f.Offset, p)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: ValueUint, Present: true, Null: f.IsNullUint(x), Uint: x}, nil
	}
}

func (c *Codec) decodeGroups(parent sbe.DecodeFrame, path string, specs []schema.GroupSpec, out map[string][]Record) error {
	for i := range specs {
		g := &specs[i]
		gp := path + "." + g.Name
		gd, err := sbe.OpenGroupDecoder[sbe.DecodeFrame](parent, uint8(g.BlockLength))
		if err != nil {
			return fieldErr(gp, err)
		}
		if wire := gd.BlockLength(); wire != int(gd.ExpectedBlockLength()) {
			c.logger.Debug().Msgf("protocol.Decode group=%s at=%d wire_block=%d schema_block=%d",
				gp, gd.HeaderOffset(), wire, gd.ExpectedBlockLength())
		}
		elems := make([]Record, 0, gd.Count())
		for {
			idx, ok, err := gd.Advance()
			if err != nil {
				return fieldErr(gp, err)
			}
			if !ok {
				break
			}
			ep := fmt.Sprintf("%s[%d]", gp, idx)
			rec := NewRecord()
			if err := c.readFields(gd, ep, g.Fields, rec.Fields); err != nil {
				return err
			}
			if err := c.decodeGroups(gd, ep, g.Groups, rec.Groups); err != nil {
				return err
			}
			elems = append(elems, rec)
		}
		if _, err := gd.Parent(); err != nil {
			return fieldErr(gp, err)
		}
		out[g.Name] = elems
	}
	return nil
}

func valueTypeOf(f *schema.FieldSpec) ValueType {
	switch f.Kind() {
	case schema.KindComposite:
		return ValueComposite
	case schema.KindEnum:
		return ValueEnum
	case schema.KindBytes:
		return ValueBytes
	}
	p, err := f.Primitive()
	switch {
	case err != nil:
		return ValueNone
	case p.IsFloat():
		return ValueFloat
	case p.IsSigned():
		return ValueInt
	default:
		return ValueUint
	}
}
