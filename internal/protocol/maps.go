package protocol

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// FromMap builds a record for message name from plain values as produced by
// yaml.v3, BurntSushi/toml or encoding/json: numbers, strings, nil, nested
// maps for composites and lists of maps for groups.
func (c *Codec) FromMap(name string, in map[string]any) (Record, error) {
	m, err := c.message(name)
	if err != nil {
		return Record{}, err
	}
	return c.recordFromMap(name, m.Fields, m.Groups, in)
}

func (c *Codec) recordFromMap(path string, fields []schema.FieldSpec, groups []schema.GroupSpec, in map[string]any) (Record, error) {
	rec := NewRecord()
	for key, raw := range in {
		kp := path + "." + key
		if f := findField(fields, key); f != nil {
			v, err := c.valueFromAny(kp, f, raw)
			if err != nil {
				return Record{}, fieldErr(kp, err)
			}
			rec.Fields[key] = v
			continue
		}
		g := findGroup(groups, key)
		if g == nil {
			return Record{}, fieldErr(kp, ErrUnknownField)
		}
		list, ok := raw.([]any)
		if !ok && raw != nil {
			return Record{}, fieldErr(kp, fmt.Errorf("%w: group wants a list, got %T", ErrValueType, raw))
		}
		elems := make([]Record, 0, len(list))
		for j, item := range list {
			ep := fmt.Sprintf("%s[%d]", kp, j)
			em, ok := item.(map[string]any)
			if !ok {
				return Record{}, fieldErr(ep, fmt.Errorf("%w: element wants a map, got %T", ErrValueType, item))
			}
			elem, err := c.recordFromMap(ep, g.Fields, g.Groups, em)
			if err != nil {
				return Record{}, err
			}
			elems = append(elems, elem)
		}
		rec.Groups[key] = elems
	}
	return rec, nil
}

func (c *Codec) valueFromAny(path string, f *schema.FieldSpec, raw any) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	switch f.Kind() {
	case schema.KindComposite:
		spec, ok := c.table.Composite(f.Composite)
		if !ok {
			return Value{}, fmt.Errorf("%w: composite %q", schema.ErrUnknownType, f.Composite)
		}
		in, ok := raw.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("%w: composite wants a map, got %T", ErrValueType, raw)
		}
		inner, err := c.recordFromMap(path, spec.Fields, nil, in)
		if err != nil {
			return Value{}, err
		}
		return CompositeOf(inner), nil

	case schema.KindEnum:
		if s, ok := raw.(string); ok {
			return EnumOf(s), nil
		}
		n, err := numberFromAny(raw)
		if err != nil {
			return Value{}, err
		}
		return n, nil

	case schema.KindBytes:
		switch b := raw.(type) {
		case string:
			return BytesOf([]byte(b)), nil
		case []byte:
			return BytesOf(b), nil
		case []any:
			out := make([]byte, len(b))
			for i, item := range b {
				n, err := numberFromAny(item)
				if err != nil || n.Type != ValueUint || n.Uint > math.MaxUint8 {
					return Value{}, fmt.Errorf("%w: byte %d is %v", ErrValueRange, i, item)
				}
				out[i] = uint8(n.Uint)
			}
			return BytesOf(out), nil
		default:
			return Value{}, fmt.Errorf("%w: bytes want a string or list, got %T", ErrValueType, raw)
		}
	}

	p, err := f.Primitive()
	if err != nil {
		return Value{}, err
	}
	if s, ok := raw.(string); ok {
		switch {
		case p.IsFloat() && strings.EqualFold(s, "nan"):
			return F64(math.NaN()), nil
		case p == sbe.Char && len(s) == 1:
			return U64(uint64(s[0])), nil
		}
		return Value{}, fmt.Errorf("%w: %q for %s", ErrValueType, s, p)
	}
	n, err := numberFromAny(raw)
	if err != nil {
		return Value{}, err
	}
	if p.IsFloat() && n.Type != ValueFloat {
		x, _ := asFloat(n)
		return F64(x), nil
	}
	if !p.IsFloat() && n.Type == ValueFloat {
		if n.Float != math.Trunc(n.Float) {
			return Value{}, fmt.Errorf("%w: %v for %s", ErrValueType, n.Float, p)
		}
		if p.IsSigned() || n.Float < 0 {
			return I64(int64(n.Float)), nil
		}
		return U64(uint64(n.Float)), nil
	}
	return n, nil
}

func numberFromAny(raw any) (Value, error) {
	switch n := raw.(type) {
	case int:
		return intValue(int64(n)), nil
	case int8:
		return intValue(int64(n)), nil
	case int16:
		return intValue(int64(n)), nil
	case int32:
		return intValue(int64(n)), nil
	case int64:
		return intValue(n), nil
	case uint:
		return U64(uint64(n)), nil
	case uint8:
		return U64(uint64(n)), nil
	case uint16:
		return U64(uint64(n)), nil
	case uint32:
		return U64(uint64(n)), nil
	case uint64:
		return U64(n), nil
	case float32:
		return F64(float64(n)), nil
	case float64:
		return F64(n), nil
	default:
		return Value{}, fmt.Errorf("%w: want a number, got %T", ErrValueType, raw)
	}
}

func intValue(v int64) Value {
	if v < 0 {
		return I64(v)
	}
	return U64(uint64(v))
}

// ToMap renders a decoded message as plain values: absent fields are
// omitted, null fields are nil, enums are variant names, char arrays are
// strings with trailing zero bytes trimmed.
func (c *Codec) ToMap(msg *Message) (map[string]any, error) {
	m, err := c.message(msg.Name)
	if err != nil {
		return nil, err
	}
	return c.recordToMap(m.Fields, m.Groups, msg.Record), nil
}

func (c *Codec) recordToMap(fields []schema.FieldSpec, groups []schema.GroupSpec, rec Record) map[string]any {
	out := make(map[string]any, len(rec.Fields)+len(rec.Groups))
	for i := range fields {
		f := &fields[i]
		v, ok := rec.Fields[f.Name]
		if !ok || !v.Present {
			continue
		}
		out[f.Name] = c.valueToAny(f, v)
	}
	for i := range groups {
		g := &groups[i]
		elems, ok := rec.Groups[g.Name]
		if !ok {
			continue
		}
		list := make([]any, 0, len(elems))
		for _, e := range elems {
			list = append(list, c.recordToMap(g.Fields, g.Groups, e))
		}
		out[g.Name] = list
	}
	return out
}

func (c *Codec) valueToAny(f *schema.FieldSpec, v Value) any {
	if v.Null && v.Type != ValueEnum {
		return nil
	}
	switch v.Type {
	case ValueEnum:
		return v.Enum
	case ValueComposite:
		spec, ok := c.table.Composite(f.Composite)
		if !ok || v.Composite == nil {
			return nil
		}
		return c.recordToMap(spec.Fields, nil, *v.Composite)
	case ValueBytes:
		if p, _ := f.Primitive(); p == sbe.Char {
			return string(bytes.TrimRight(v.Bytes, "\x00"))
		}
		list := make([]any, len(v.Bytes))
		for i, b := range v.Bytes {
			list[i] = int(b)
		}
		return list
	case ValueUint:
		return v.Uint
	case ValueInt:
		return v.Int
	case ValueFloat:
		return v.Float
	default:
		return nil
	}
}
