package sbe

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
)

// EncodeFrame is implemented by every codec that can write fields: root
// encoders, composites and group elements.
type EncodeFrame interface {
	Fields() *FieldWriter
}

// DecodeFrame is implemented by every codec that can read fields.
type DecodeFrame interface {
	Fields() *FieldReader
}

// FieldWriter writes primitives at schema-constant offsets relative to the
// start of its structure. Offsets past the structure's block length are
// rejected so a field write can never spill into trailing groups.
type FieldWriter struct {
	frame
	view   buffer.WriteView
	base   int
	extent int
}

func (w *FieldWriter) Fields() *FieldWriter {
	return w
}

// Offset returns the absolute buffer offset of the structure, or -1 when a
// group has no current element.
func (w *FieldWriter) Offset() int {
	return w.base
}

// BlockLength returns the size of the structure's fixed block.
func (w *FieldWriter) BlockLength() int {
	return w.extent
}

func (w *FieldWriter) at(k, width int) (int, error) {
	if err := w.acquire(); err != nil {
		return 0, err
	}
	if w.base < 0 {
		return 0, ErrNoElement
	}
	if k < 0 || k+width > w.extent {
		return 0, fmt.Errorf("%w: offset=%d width=%d block=%d", ErrFieldOutsideBlock, k, width, w.extent)
	}
	return w.base + k, nil
}

func (w *FieldWriter) PutUint8(k int, v uint8) error {
	off, err := w.at(k, 1)
	if err != nil {
		return err
	}
	return w.view.PutUint8At(off, v)
}

func (w *FieldWriter) PutInt8(k int, v int8) error {
	off, err := w.at(k, 1)
	if err != nil {
		return err
	}
	return w.view.PutInt8At(off, v)
}

func (w *FieldWriter) PutUint16(k int, v uint16) error {
	off, err := w.at(k, 2)
	if err != nil {
		return err
	}
	return w.view.PutUint16At(off, v)
}

func (w *FieldWriter) PutInt16(k int, v int16) error {
	off, err := w.at(k, 2)
	if err != nil {
		return err
	}
	return w.view.PutInt16At(off, v)
}

func (w *FieldWriter) PutUint32(k int, v uint32) error {
	off, err := w.at(k, 4)
	if err != nil {
		return err
	}
	return w.view.PutUint32At(off, v)
}

func (w *FieldWriter) PutInt32(k int, v int32) error {
	off, err := w.at(k, 4)
	if err != nil {
		return err
	}
	return w.view.PutInt32At(off, v)
}

func (w *FieldWriter) PutUint64(k int, v uint64) error {
	off, err := w.at(k, 8)
	if err != nil {
		return err
	}
	return w.view.PutUint64At(off, v)
}

func (w *FieldWriter) PutInt64(k int, v int64) error {
	off, err := w.at(k, 8)
	if err != nil {
		return err
	}
	return w.view.PutInt64At(off, v)
}

func (w *FieldWriter) PutFloat32(k int, v float32) error {
	off, err := w.at(k, 4)
	if err != nil {
		return err
	}
	return w.view.PutFloat32At(off, v)
}

func (w *FieldWriter) PutFloat64(k int, v float64) error {
	off, err := w.at(k, 8)
	if err != nil {
		return err
	}
	return w.view.PutFloat64At(off, v)
}

// PutBytes writes a fixed-length byte array such as a char[N] field.
func (w *FieldWriter) PutBytes(k int, b []byte) error {
	off, err := w.at(k, len(b))
	if err != nil {
		return err
	}
	_, err = w.view.PutSliceAt(off, b)
	return err
}

// PutUint writes v as the unsigned primitive t.
func (w *FieldWriter) PutUint(k int, t Primitive, v uint64) error {
	switch t {
	case Char, Uint8:
		return w.PutUint8(k, uint8(v))
	case Uint16:
		return w.PutUint16(k, uint16(v))
	case Uint32:
		return w.PutUint32(k, uint32(v))
	case Uint64:
		return w.PutUint64(k, v)
	default:
		return fmt.Errorf("%w: %s is not unsigned", ErrPrimitiveMismatch, t)
	}
}

// PutInt writes v as the signed primitive t.
func (w *FieldWriter) PutInt(k int, t Primitive, v int64) error {
	switch t {
	case Int8:
		return w.PutInt8(k, int8(v))
	case Int16:
		return w.PutInt16(k, int16(v))
	case Int32:
		return w.PutInt32(k, int32(v))
	case Int64:
		return w.PutInt64(k, v)
	default:
		return fmt.Errorf("%w: %s is not signed", ErrPrimitiveMismatch, t)
	}
}

// PutFloat writes v as the floating-point primitive t.
func (w *FieldWriter) PutFloat(k int, t Primitive, v float64) error {
	switch t {
	case Float32:
		return w.PutFloat32(k, float32(v))
	case Float64:
		return w.PutFloat64(k, v)
	default:
		return fmt.Errorf("%w: %s is not floating point", ErrPrimitiveMismatch, t)
	}
}

// FieldReader reads primitives at schema-constant offsets. Its extent is the
// acting block length, so fields written by a newer schema are ignored and
// fields missing from an older, shorter block report ErrFieldAbsent.
type FieldReader struct {
	frame
	view    buffer.ReadView
	base    int
	extent  int
	version uint16
}

func (r *FieldReader) Fields() *FieldReader {
	return r
}

// Offset returns the absolute buffer offset of the structure, or -1 when a
// group has no current element.
func (r *FieldReader) Offset() int {
	return r.base
}

// BlockLength returns the acting size of the structure's fixed block.
func (r *FieldReader) BlockLength() int {
	return r.extent
}

// ActingVersion returns the schema version the producer declared in the
// message header.
func (r *FieldReader) ActingVersion() uint16 {
	return r.version
}

// Has reports whether a field of width bytes at k lies inside the acting block.
func (r *FieldReader) Has(k, width int) bool {
	return r.base >= 0 && k >= 0 && k+width <= r.extent
}

func (r *FieldReader) at(k, width int) (int, error) {
	if err := r.acquire(); err != nil {
		return 0, err
	}
	if r.base < 0 {
		return 0, ErrNoElement
	}
	if k < 0 {
		return 0, fmt.Errorf("%w: offset=%d", ErrFieldOutsideBlock, k)
	}
	if k+width > r.extent {
		return 0, ErrFieldAbsent
	}
	return r.base + k, nil
}

func (r *FieldReader) Uint8(k int) (uint8, error) {
	off, err := r.at(k, 1)
	if err != nil {
		return 0, err
	}
	return r.view.Uint8At(off)
}

func (r *FieldReader) Int8(k int) (int8, error) {
	off, err := r.at(k, 1)
	if err != nil {
		return 0, err
	}
	return r.view.Int8At(off)
}

func (r *FieldReader) Uint16(k int) (uint16, error) {
	off, err := r.at(k, 2)
	if err != nil {
		return 0, err
	}
	return r.view.Uint16At(off)
}

func (r *FieldReader) Int16(k int) (int16, error) {
	off, err := r.at(k, 2)
	if err != nil {
		return 0, err
	}
	return r.view.Int16At(off)
}

func (r *FieldReader) Uint32(k int) (uint32, error) {
	off, err := r.at(k, 4)
	if err != nil {
		return 0, err
	}
	return r.view.Uint32At(off)
}

func (r *FieldReader) Int32(k int) (int32, error) {
	off, err := r.at(k, 4)
	if err != nil {
		return 0, err
	}
	return r.view.Int32At(off)
}

func (r *FieldReader) Uint64(k int) (uint64, error) {
	off, err := r.at(k, 8)
	if err != nil {
		return 0, err
	}
	return r.view.Uint64At(off)
}

func (r *FieldReader) Int64(k int) (int64, error) {
	off, err := r.at(k, 8)
	if err != nil {
		return 0, err
	}
	return r.view.Int64At(off)
}

func (r *FieldReader) Float32(k int) (float32, error) {
	off, err := r.at(k, 4)
	if err != nil {
		return 0, err
	}
	return r.view.Float32At(off)
}

func (r *FieldReader) Float64(k int) (float64, error) {
	off, err := r.at(k, 8)
	if err != nil {
		return 0, err
	}
	return r.view.Float64At(off)
}

// Bytes returns n bytes at k. The slice aliases the decoded buffer.
func (r *FieldReader) Bytes(k, n int) ([]byte, error) {
	off, err := r.at(k, n)
	if err != nil {
		return nil, err
	}
	return r.view.SliceAt(off, n)
}

// Uint reads the unsigned primitive t at k.
func (r *FieldReader) Uint(k int, t Primitive) (uint64, error) {
	switch t {
	case Char, Uint8:
		v, err := r.Uint8(k)
		return uint64(v), err
	case Uint16:
		v, err := r.Uint16(k)
		return uint64(v), err
	case Uint32:
		v, err := r.Uint32(k)
		return uint64(v), err
	case Uint64:
		return r.Uint64(k)
	default:
		return 0, fmt.Errorf("%w: %s is not unsigned", ErrPrimitiveMismatch, t)
	}
}

// Int reads the signed primitive t at k.
func (r *FieldReader) Int(k int, t Primitive) (int64, error) {
	switch t {
	case Int8:
		v, err := r.Int8(k)
		return int64(v), err
	case Int16:
		v, err := r.Int16(k)
		return int64(v), err
	case Int32:
		v, err := r.Int32(k)
		return int64(v), err
	case Int64:
		return r.Int64(k)
	default:
		return 0, fmt.Errorf("%w: %s is not signed", ErrPrimitiveMismatch, t)
	}
}

// Float reads the floating-point primitive t at k.
func (r *FieldReader) Float(k int, t Primitive) (float64, error) {
	switch t {
	case Float32:
		v, err := r.Float32(k)
		return float64(v), err
	case Float64:
		return r.Float64(k)
	default:
		return 0, fmt.Errorf("%w: %s is not floating point", ErrPrimitiveMismatch, t)
	}
}
