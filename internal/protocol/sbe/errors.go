package sbe

import (
	"errors"
	"fmt"
)

var ErrOwnership = errors.New("sbe: ownership violation")

var (
	ErrParentMissing = fmt.Errorf("%w: parent missing", ErrOwnership)
	ErrFrameBusy     = fmt.Errorf("%w: frame held by nested codec", ErrOwnership)
	ErrFrameReleased = fmt.Errorf("%w: frame already released", ErrOwnership)
)

var (
	ErrTemplateMismatch  = errors.New("sbe: template id mismatch")
	ErrSchemaMismatch    = errors.New("sbe: schema id mismatch")
	ErrFieldAbsent       = errors.New("sbe: field absent in acting block")
	ErrFieldOutsideBlock = errors.New("sbe: field outside fixed block")
	ErrCompositeBounds   = errors.New("sbe: composite outside enclosing block")
	ErrNoElement         = errors.New("sbe: no current group element")
	ErrGroupIncomplete   = errors.New("sbe: group elements not fully written")
	ErrGroupTooLarge     = errors.New("sbe: group dimension exceeds 255")
	ErrPrimitiveMismatch = errors.New("sbe: primitive type mismatch")
)

// TemplateMismatchError reports a header whose template id differs from the
// message kind the caller asked to decode.
type TemplateMismatchError struct {
	Want uint16
	Got  uint16
}

func (e *TemplateMismatchError) Error() string {
	return fmt.Sprintf("sbe: template id mismatch: got=%d want=%d", e.Got, e.Want)
}

func (e *TemplateMismatchError) Is(target error) bool {
	return target == ErrTemplateMismatch
}

// IsOwnershipViolation reports whether err comes from misuse of the
// take-and-return protocol between nested codecs.
func IsOwnershipViolation(err error) bool {
	return errors.Is(err, ErrOwnership)
}
