package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

var (
	ErrNoTable          = errors.New("protocol: nil schema table")
	ErrUnknownMessage   = errors.New("protocol: unknown message")
	ErrUnknownTemplate  = errors.New("protocol: unknown template id")
	ErrUnknownField     = errors.New("protocol: unknown field")
	ErrUnknownEnumName  = errors.New("protocol: unknown enum name")
	ErrValueType        = errors.New("protocol: value type does not fit field")
	ErrValueRange       = errors.New("protocol: value out of range for field")
	ErrBufferTooSmall   = errors.New("protocol: buffer too small")
	ErrGroupTooLarge    = sbe.ErrGroupTooLarge
	ErrTemplateMismatch = sbe.ErrTemplateMismatch
)

// FieldError locates a failure inside a record, e.g.
// "PriceIncrement.bids[1].bid.priceLevel.price".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(path string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Path: path, Err: err}
}

// errorKind is the metrics label for err.
func errorKind(err error) string {
	switch {
	case errors.Is(err, buffer.ErrOutOfRange), errors.Is(err, ErrBufferTooSmall):
		return "bounds"
	case errors.Is(err, sbe.ErrOwnership):
		return "ownership"
	case errors.Is(err, sbe.ErrTemplateMismatch), errors.Is(err, ErrUnknownTemplate):
		return "template"
	case errors.Is(err, sbe.ErrSchemaMismatch):
		return "schema"
	case errors.Is(err, ErrUnknownMessage), errors.Is(err, ErrUnknownField):
		return "unknown_name"
	case errors.Is(err, ErrUnknownEnumName):
		return "enum"
	case errors.Is(err, sbe.ErrGroupTooLarge):
		return "group"
	case errors.Is(err, ErrValueType), errors.Is(err, ErrValueRange):
		return "value"
	case errors.Is(err, schema.ErrInvalidTable):
		return "table"
	default:
		return "other"
	}
}
