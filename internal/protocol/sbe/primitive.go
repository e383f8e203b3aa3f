package sbe

import (
	"fmt"
	"strings"
)

// Primitive is a fixed-width wire type.
type Primitive uint8

const (
	PrimitiveInvalid Primitive = iota
	Char
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var primitiveNames = [...]string{
	PrimitiveInvalid: "invalid",
	Char:             "char",
	Int8:             "int8",
	Uint8:            "uint8",
	Int16:            "int16",
	Uint16:           "uint16",
	Int32:            "int32",
	Uint32:           "uint32",
	Int64:            "int64",
	Uint64:           "uint64",
	Float32:          "float",
	Float64:          "double",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("primitive(%d)", uint8(p))
}

// Width returns the encoded size in bytes, or 0 for an invalid primitive.
func (p Primitive) Width() int {
	switch p {
	case Char, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func (p Primitive) IsSigned() bool {
	return p == Int8 || p == Int16 || p == Int32 || p == Int64
}

func (p Primitive) IsUnsigned() bool {
	return p == Char || p == Uint8 || p == Uint16 || p == Uint32 || p == Uint64
}

func (p Primitive) IsFloat() bool {
	return p == Float32 || p == Float64
}

// ParsePrimitive accepts the SBE type names plus Go-style aliases
// (float32, float64, u32, i64, ...).
func ParsePrimitive(name string) (Primitive, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "char":
		return Char, nil
	case "int8", "i8":
		return Int8, nil
	case "uint8", "u8":
		return Uint8, nil
	case "int16", "i16":
		return Int16, nil
	case "uint16", "u16":
		return Uint16, nil
	case "int32", "i32":
		return Int32, nil
	case "uint32", "u32":
		return Uint32, nil
	case "int64", "i64":
		return Int64, nil
	case "uint64", "u64":
		return Uint64, nil
	case "float", "float32", "f32":
		return Float32, nil
	case "double", "float64", "f64":
		return Float64, nil
	default:
		return PrimitiveInvalid, fmt.Errorf("sbe: unknown primitive %q", name)
	}
}
