package protocol

import (
	"fmt"
	"math"
	"sort"

	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// EncodedLength returns the exact number of bytes Encode writes for rec:
// header, fixed block, then for each group its dimension header and elements.
func (c *Codec) EncodedLength(name string, rec Record) (int, error) {
	m, err := c.message(name)
	if err != nil {
		return 0, err
	}
	n, err := groupsLength(name, m.Groups, rec.Groups)
	if err != nil {
		return 0, err
	}
	return sbe.HeaderLength + m.BlockLength + n, nil
}

func groupsLength(path string, specs []schema.GroupSpec, data map[string][]Record) (int, error) {
	total := 0
	for i := range specs {
		g := &specs[i]
		gp := path + "." + g.Name
		elems := data[g.Name]
		if len(elems) > sbe.MaxGroupCount {
			return 0, fieldErr(gp, fmt.Errorf("%w: count=%d", ErrGroupTooLarge, len(elems)))
		}
		total += sbe.GroupHeaderLength + len(elems)*g.BlockLength
		for j := range elems {
			n, err := groupsLength(fmt.Sprintf("%s[%d]", gp, j), g.Groups, elems[j].Groups)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

// Encode writes the header, the fixed block and every group of rec at offset
// and returns the number of bytes written. Fields missing from rec encode as
// their null sentinel, or zero when the field has none.
func (c *Codec) Encode(buf []byte, offset int, name string, rec Record) (int, error) {
	m, err := c.message(name)
	if err != nil {
		return 0, c.fail("encode", name, err)
	}
	need, err := c.EncodedLength(name, rec)
	if err != nil {
		return 0, c.fail("encode", name, err)
	}
	if offset < 0 || len(buf)-offset < need {
		err := fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, need, offset, len(buf)-offset)
		return 0, c.fail("encode", name, err)
	}

	enc, err := sbe.WrapEncoder(buf, offset, m.Header(c.table))
	if err != nil {
		return 0, c.fail("encode", name, err)
	}
	if err := c.writeFields(enc, name, m.Fields, rec.Fields); err != nil {
		return 0, c.fail("encode", name, err)
	}
	if err := c.encodeGroups(enc, name, m.Groups, rec.Groups); err != nil {
		return 0, c.fail("encode", name, err)
	}

	n := enc.MessageLength()
	c.metrics.RecordEncode(name, n)
	c.logger.Debug().Msgf("protocol.Encode message=%s template=%d bytes=%d", name, m.TemplateID, n)
	return n, nil
}

// Marshal encodes rec into a freshly allocated buffer of the exact size.
func (c *Codec) Marshal(name string, rec Record) ([]byte, error) {
	n, err := c.EncodedLength(name, rec)
	if err != nil {
		return nil, c.fail("encode", name, err)
	}
	buf := make([]byte, n)
	if _, err := c.Encode(buf, 0, name, rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Codec) writeFields(w sbe.EncodeFrame, path string, specs []schema.FieldSpec, values map[string]Value) error {
	if err := checkNames(path, values, func(name string) bool {
		return findField(specs, name) != nil
	}); err != nil {
		return err
	}
	for i := range specs {
		f := &specs[i]
		fp := path + "." + f.Name
		if err := c.writeField(w, fp, f, values[f.Name]); err != nil {
			return fieldErr(fp, err)
		}
	}
	return nil
}

func (c *Codec) writeField(w sbe.EncodeFrame, path string, f *schema.FieldSpec, v Value) error {
	fw := w.Fields()
	switch f.Kind() {
	case schema.KindComposite:
		spec, ok := c.table.Composite(f.Composite)
		if !ok {
			return fmt.Errorf("%w: composite %q", schema.ErrUnknownType, f.Composite)
		}
		var inner map[string]Value
		if v.IsSet() {
			if v.Type != ValueComposite || v.Composite == nil {
				return fmt.Errorf("%w: want composite, got %s", ErrValueType, v.Type)
			}
			inner = v.Composite.Fields
		}
		ce, err := sbe.NestEncoder[sbe.EncodeFrame](w, f.Offset, spec.Length)
		if err != nil {
			return err
		}
		if err := c.writeFields(ce, path, spec.Fields, inner); err != nil {
			return err
		}
		_, err = ce.Parent()
		return err

	case schema.KindEnum:
		b, err := c.enumByte(f, v)
		if err != nil {
			return err
		}
		return fw.PutUint8(f.Offset, b)

	case schema.KindBytes:
		width, err := f.Width(c.table)
		if err != nil {
			return err
		}
		out := make([]byte, width)
		if v.IsSet() {
			if v.Type != ValueBytes {
				return fmt.Errorf("%w: want bytes, got %s", ErrValueType, v.Type)
			}
			if len(v.Bytes) > width {
				return fmt.Errorf("%w: %d bytes into %d", ErrValueRange, len(v.Bytes), width)
			}
			copy(out, v.Bytes)
		}
		return fw.PutBytes(f.Offset, out)
	}

	p, err := f.Primitive()
	if err != nil {
		return err
	}
	if !v.IsSet() {
		bits, _ := f.NullBits()
		return fw.PutUint(f.Offset, unsignedOfWidth(p.Width()), bits)
	}
	switch {
	case p.IsFloat():
		x, err := asFloat(v)
		if err != nil {
			return err
		}
		if p == sbe.Float32 && !math.IsInf(x, 0) && math.Abs(x) > math.MaxFloat32 {
			return fmt.Errorf("%w: %g into %s", ErrValueRange, x, p)
		}
		return fw.PutFloat(f.Offset, p, x)
	case p.IsSigned():
		x, err := asInt(v, p)
		if err != nil {
			return err
		}
		return fw.PutInt(f.Offset, p, x)
	default:
		x, err := asUint(v, p)
		if err != nil {
			return err
		}
		return fw.PutUint(f.Offset, p, x)
	}
}

func (c *Codec) enumByte(f *schema.FieldSpec, v Value) (uint8, error) {
	if !v.IsSet() {
		return 0, nil
	}
	switch v.Type {
	case ValueEnum:
		e, ok := c.table.Enum(f.Enum)
		if !ok {
			return 0, fmt.Errorf("%w: enum %q", schema.ErrUnknownType, f.Enum)
		}
		b, ok := e.Encode(v.Enum)
		if !ok {
			return 0, fmt.Errorf("%w: %q is not a %s", ErrUnknownEnumName, v.Enum, f.Enum)
		}
		return b, nil
	case ValueUint:
		if v.Uint > math.MaxUint8 {
			return 0, fmt.Errorf("%w: enum byte %d", ErrValueRange, v.Uint)
		}
		return uint8(v.Uint), nil
	default:
		return 0, fmt.Errorf("%w: want enum, got %s", ErrValueType, v.Type)
	}
}

func (c *Codec) encodeGroups(parent sbe.EncodeFrame, path string, specs []schema.GroupSpec, data map[string][]Record) error {
	if err := checkGroupNames(path, data, specs); err != nil {
		return err
	}
	for i := range specs {
		g := &specs[i]
		gp := path + "." + g.Name
		elems := data[g.Name]
		if len(elems) > sbe.MaxGroupCount || g.BlockLength <= 0 || g.BlockLength > sbe.MaxGroupBlockLength {
			return fieldErr(gp, fmt.Errorf("%w: block=%d count=%d", ErrGroupTooLarge, g.BlockLength, len(elems)))
		}
		ge, err := sbe.OpenGroupEncoder[sbe.EncodeFrame](parent, uint8(g.BlockLength), uint8(len(elems)))
		if err != nil {
			return fieldErr(gp, err)
		}
		for j := range elems {
			ep := fmt.Sprintf("%s[%d]", gp, j)
			if _, _, err := ge.Advance(); err != nil {
				return fieldErr(ep, err)
			}
			if err := c.writeFields(ge, ep, g.Fields, elems[j].Fields); err != nil {
				return err
			}
			if err := c.encodeGroups(ge, ep, g.Groups, elems[j].Groups); err != nil {
				return err
			}
		}
		if _, err := ge.Parent(); err != nil {
			return fieldErr(gp, err)
		}
	}
	return nil
}

func findField(specs []schema.FieldSpec, name string) *schema.FieldSpec {
	for i := range specs {
		if specs[i].Name == name {
			return &specs[i]
		}
	}
	return nil
}

func findGroup(specs []schema.GroupSpec, name string) *schema.GroupSpec {
	for i := range specs {
		if specs[i].Name == name {
			return &specs[i]
		}
	}
	return nil
}

// checkNames reports the first unknown key of values in sorted order.
func checkNames[V any](path string, values map[string]V, known func(string) bool) error {
	var unknown []string
	for name := range values {
		if !known(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fieldErr(path+"."+unknown[0], ErrUnknownField)
}

func checkGroupNames(path string, data map[string][]Record, specs []schema.GroupSpec) error {
	return checkNames(path, data, func(name string) bool {
		return findGroup(specs, name) != nil
	})
}

func unsignedOfWidth(width int) sbe.Primitive {
	switch width {
	case 1:
		return sbe.Uint8
	case 2:
		return sbe.Uint16
	case 4:
		return sbe.Uint32
	default:
		return sbe.Uint64
	}
}

func asUint(v Value, p sbe.Primitive) (uint64, error) {
	var x uint64
	switch v.Type {
	case ValueUint:
		x = v.Uint
	case ValueInt:
		if v.Int < 0 {
			return 0, fmt.Errorf("%w: %d into %s", ErrValueRange, v.Int, p)
		}
		x = uint64(v.Int)
	default:
		return 0, fmt.Errorf("%w: want unsigned, got %s", ErrValueType, v.Type)
	}
	if bits := p.Width() * 8; bits < 64 && x>>uint(bits) != 0 {
		return 0, fmt.Errorf("%w: %d into %s", ErrValueRange, x, p)
	}
	return x, nil
}

func asInt(v Value, p sbe.Primitive) (int64, error) {
	var x int64
	switch v.Type {
	case ValueInt:
		x = v.Int
	case ValueUint:
		if v.Uint > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d into %s", ErrValueRange, v.Uint, p)
		}
		x = int64(v.Uint)
	default:
		return 0, fmt.Errorf("%w: want signed, got %s", ErrValueType, v.Type)
	}
	if bits := p.Width() * 8; bits < 64 {
		lo := int64(math.MinInt64) >> uint(64-bits)
		hi := -lo - 1
		if x < lo || x > hi {
			return 0, fmt.Errorf("%w: %d into %s", ErrValueRange, x, p)
		}
	}
	return x, nil
}

func asFloat(v Value) (float64, error) {
	switch v.Type {
	case ValueFloat:
		return v.Float, nil
	case ValueUint:
		return float64(v.Uint), nil
	case ValueInt:
		return float64(v.Int), nil
	default:
		return 0, fmt.Errorf("%w: want float, got %s", ErrValueType, v.Type)
	}
}
