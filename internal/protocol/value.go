package protocol

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/sbe"
)

type ValueType uint8

const (
	ValueNone ValueType = iota
	ValueUint
	ValueInt
	ValueFloat
	ValueEnum
	ValueBytes
	ValueComposite
)

func (t ValueType) String() string {
	switch t {
	case ValueUint:
		return "uint"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueEnum:
		return "enum"
	case ValueBytes:
		return "bytes"
	case ValueComposite:
		return "composite"
	default:
		return "none"
	}
}

// Value is one field of a record. A zero Value is absent: it encodes as the
// field's null sentinel and is what decode reports for fields beyond the
// acting block.
//
// On decode, Null is set when the wire holds the field's null sentinel or an
// enum byte with no declared variant. Enum values keep the raw byte in Uint.
type Value struct {
	Type      ValueType
	Present   bool
	Null      bool
	Uint      uint64
	Int       int64
	Float     float64
	Enum      string
	Bytes     []byte
	Composite *Record
}

func U64(v uint64) Value {
	return Value{Type: ValueUint, Present: true, Uint: v}
}

func I64(v int64) Value {
	return Value{Type: ValueInt, Present: true, Int: v}
}

func F64(v float64) Value {
	return Value{Type: ValueFloat, Present: true, Float: v}
}

func EnumOf(name string) Value {
	return Value{Type: ValueEnum, Present: true, Enum: name}
}

func BytesOf(b []byte) Value {
	return Value{Type: ValueBytes, Present: true, Bytes: b}
}

func CompositeOf(r Record) Value {
	return Value{Type: ValueComposite, Present: true, Composite: &r}
}

// Null returns a value that explicitly encodes as the field's sentinel.
func Null() Value {
	return Value{Present: true, Null: true}
}

// IsSet reports whether v carries data to write.
func (v Value) IsSet() bool {
	return v.Present && !v.Null
}

func (v Value) String() string {
	switch {
	case !v.Present:
		return "<absent>"
	case v.Null && v.Type != ValueEnum:
		return "<null>"
	}
	switch v.Type {
	case ValueUint:
		return fmt.Sprintf("%d", v.Uint)
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueEnum:
		return v.Enum
	case ValueBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case ValueComposite:
		return fmt.Sprintf("%v", v.Composite.Fields)
	default:
		return "<none>"
	}
}

// Record holds field values by name and repeating group elements by group
// name, in element order.
type Record struct {
	Fields map[string]Value
	Groups map[string][]Record
}

func NewRecord() Record {
	return Record{Fields: map[string]Value{}, Groups: map[string][]Record{}}
}

// Set stores v under name and returns r for chaining.
func (r *Record) Set(name string, v Value) *Record {
	if r.Fields == nil {
		r.Fields = map[string]Value{}
	}
	r.Fields[name] = v
	return r
}

// Append adds elements to group name.
func (r *Record) Append(group string, elems ...Record) *Record {
	if r.Groups == nil {
		r.Groups = map[string][]Record{}
	}
	r.Groups[group] = append(r.Groups[group], elems...)
	return r
}

// Get returns the value stored under name. Missing names read as absent.
func (r Record) Get(name string) Value {
	return r.Fields[name]
}

// Group returns the elements of group name.
func (r Record) Group(name string) []Record {
	return r.Groups[name]
}

// Message is a decoded message. EncodedLength counts every byte the message
// occupied, header included.
type Message struct {
	Name   string
	Header sbe.Header
	Record
	EncodedLength int
}
