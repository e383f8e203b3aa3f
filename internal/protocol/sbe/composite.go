package sbe

import "fmt"

// CompositeEncoder writes a fixed-layout structure embedded in its parent at
// a constant offset. It owns no buffer and never moves the limit.
type CompositeEncoder[P EncodeFrame] struct {
	FieldWriter
	parent P
	held   bool
}

// NestEncoder borrows parent for a composite of length bytes at localOffset
// inside the parent's structure. The parent is unusable until Parent is
// called on the composite.
func NestEncoder[P EncodeFrame](parent P, localOffset, length int) (*CompositeEncoder[P], error) {
	pw := parent.Fields()
	if err := pw.acquire(); err != nil {
		return nil, err
	}
	if pw.base < 0 {
		return nil, ErrNoElement
	}
	if localOffset < 0 || length < 0 || localOffset+length > pw.extent {
		return nil, fmt.Errorf("%w: offset=%d length=%d block=%d", ErrCompositeBounds, localOffset, length, pw.extent)
	}
	return &CompositeEncoder[P]{
		FieldWriter: FieldWriter{
			frame:  pw.child(kindComposite),
			view:   pw.view,
			base:   pw.base + localOffset,
			extent: length,
		},
		parent: parent,
		held:   true,
	}, nil
}

// Parent hands the enclosing codec back. It succeeds once.
func (c *CompositeEncoder[P]) Parent() (P, error) {
	var zero P
	if !c.held {
		return zero, ErrParentMissing
	}
	if err := c.acquire(); err != nil {
		return zero, err
	}
	p := c.parent
	c.release()
	c.parent = zero
	c.held = false
	return p, nil
}

// CompositeDecoder reads a fixed-layout structure embedded in its parent.
type CompositeDecoder[P DecodeFrame] struct {
	FieldReader
	parent P
	held   bool
}

// NestDecoder borrows parent for a composite at localOffset. When the
// parent's acting block is shorter than the composite, the missing tail reads
// as absent.
func NestDecoder[P DecodeFrame](parent P, localOffset, length int) (*CompositeDecoder[P], error) {
	pr := parent.Fields()
	if err := pr.acquire(); err != nil {
		return nil, err
	}
	if pr.base < 0 {
		return nil, ErrNoElement
	}
	if localOffset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: offset=%d length=%d", ErrCompositeBounds, localOffset, length)
	}
	extent := pr.extent - localOffset
	if extent > length {
		extent = length
	}
	if extent < 0 {
		extent = 0
	}
	return &CompositeDecoder[P]{
		FieldReader: FieldReader{
			frame:   pr.child(kindComposite),
			view:    pr.view,
			base:    pr.base + localOffset,
			extent:  extent,
			version: pr.version,
		},
		parent: parent,
		held:   true,
	}, nil
}

// Parent hands the enclosing codec back. It succeeds once.
func (c *CompositeDecoder[P]) Parent() (P, error) {
	var zero P
	if !c.held {
		return zero, ErrParentMissing
	}
	if err := c.acquire(); err != nil {
		return zero, err
	}
	p := c.parent
	c.release()
	c.parent = zero
	c.held = false
	return p, nil
}
