// Package buffer provides bounds-checked little-endian views over borrowed
// byte slices. Views never copy or grow the memory they wrap; every accessor
// validates its range and reports a BoundsError instead of panicking.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrOutOfRange = errors.New("buffer: index out of range")

// BoundsError describes an access that falls outside the view.
type BoundsError struct {
	Op     string
	Offset int
	Width  int
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("buffer: %s offset=%d width=%d outside view len=%d", e.Op, e.Offset, e.Width, e.Len)
}

func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfRange
}

func span(op string, data []byte, offset, width int) ([]byte, error) {
	if offset < 0 || width < 0 || offset > len(data) || width > len(data)-offset {
		return nil, &BoundsError{Op: op, Offset: offset, Width: width, Len: len(data)}
	}
	return data[offset : offset+width], nil
}

// ReadView is a read-only view over a borrowed buffer.
type ReadView struct {
	data []byte
}

func NewReadView(data []byte) ReadView {
	return ReadView{data: data}
}

// Len returns the size of the view in bytes.
func (v ReadView) Len() int {
	return len(v.data)
}

// Uint8At reads a uint8 at offset.
func (v ReadView) Uint8At(offset int) (uint8, error) {
	b, err := span("get_u8", v.data, offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8At reads an int8 at offset.
func (v ReadView) Int8At(offset int) (int8, error) {
	b, err := span("get_i8", v.data, offset, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// Uint16At reads a little-endian uint16 at offset.
func (v ReadView) Uint16At(offset int) (uint16, error) {
	b, err := span("get_u16", v.data, offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int16At reads a little-endian int16 at offset.
func (v ReadView) Int16At(offset int) (int16, error) {
	u, err := v.Uint16At(offset)
	return int16(u), err
}

// Uint32At reads a little-endian uint32 at offset.
func (v ReadView) Uint32At(offset int) (uint32, error) {
	b, err := span("get_u32", v.data, offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int32At reads a little-endian int32 at offset.
func (v ReadView) Int32At(offset int) (int32, error) {
	u, err := v.Uint32At(offset)
	return int32(u), err
}

// Uint64At reads a little-endian uint64 at offset.
func (v ReadView) Uint64At(offset int) (uint64, error) {
	b, err := span("get_u64", v.data, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Int64At reads a little-endian int64 at offset.
func (v ReadView) Int64At(offset int) (int64, error) {
	u, err := v.Uint64At(offset)
	return int64(u), err
}

// Float32At reads a little-endian IEEE-754 float32 at offset.
func (v ReadView) Float32At(offset int) (float32, error) {
	u, err := v.Uint32At(offset)
	return math.Float32frombits(u), err
}

// Float64At reads a little-endian IEEE-754 float64 at offset.
func (v ReadView) Float64At(offset int) (float64, error) {
	u, err := v.Uint64At(offset)
	return math.Float64frombits(u), err
}

// SliceAt returns n bytes starting at offset. The result aliases the view.
func (v ReadView) SliceAt(offset, n int) ([]byte, error) {
	return span("get_slice", v.data, offset, n)
}

// WriteView is a mutable view over a borrowed buffer.
type WriteView struct {
	data []byte
}

func NewWriteView(data []byte) WriteView {
	return WriteView{data: data}
}

// Len returns the size of the view in bytes.
func (v WriteView) Len() int {
	return len(v.data)
}

// ReadView returns a read-only view over the same memory.
func (v WriteView) ReadView() ReadView {
	return ReadView{data: v.data}
}

// PutUint8At writes a uint8 at offset.
func (v WriteView) PutUint8At(offset int, value uint8) error {
	b, err := span("put_u8", v.data, offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// PutInt8At writes an int8 at offset.
func (v WriteView) PutInt8At(offset int, value int8) error {
	return v.PutUint8At(offset, uint8(value))
}

// PutUint16At writes a little-endian uint16 at offset.
func (v WriteView) PutUint16At(offset int, value uint16) error {
	b, err := span("put_u16", v.data, offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

// PutInt16At writes a little-endian int16 at offset.
func (v WriteView) PutInt16At(offset int, value int16) error {
	return v.PutUint16At(offset, uint16(value))
}

// PutUint32At writes a little-endian uint32 at offset.
func (v WriteView) PutUint32At(offset int, value uint32) error {
	b, err := span("put_u32", v.data, offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// PutInt32At writes a little-endian int32 at offset.
func (v WriteView) PutInt32At(offset int, value int32) error {
	return v.PutUint32At(offset, uint32(value))
}

// PutUint64At writes a little-endian uint64 at offset.
func (v WriteView) PutUint64At(offset int, value uint64) error {
	b, err := span("put_u64", v.data, offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// PutInt64At writes a little-endian int64 at offset.
func (v WriteView) PutInt64At(offset int, value int64) error {
	return v.PutUint64At(offset, uint64(value))
}

// PutFloat32At writes a little-endian IEEE-754 float32 at offset.
func (v WriteView) PutFloat32At(offset int, value float32) error {
	return v.PutUint32At(offset, math.Float32bits(value))
}

// PutFloat64At writes a little-endian IEEE-754 float64 at offset.
func (v WriteView) PutFloat64At(offset int, value float64) error {
	return v.PutUint64At(offset, math.Float64bits(value))
}

// PutSliceAt copies src into the view at offset and returns len(src).
func (v WriteView) PutSliceAt(offset int, src []byte) (int, error) {
	b, err := span("put_slice", v.data, offset, len(src))
	if err != nil {
		return 0, err
	}
	return copy(b, src), nil
}
