package sbe

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/buffer"
)

const (
	// GroupHeaderLength is the size of a repeating group's dimension header.
	GroupHeaderLength = 2
	// MaxGroupCount is the largest element count a u8 dimension can carry.
	MaxGroupCount = 255
	// MaxGroupBlockLength is the largest element size a u8 dimension can carry.
	MaxGroupBlockLength = 255
)

// GroupHeader is the dimension header written in front of a group's elements.
type GroupHeader struct {
	BlockLength uint8
	NumInGroup  uint8
}

// EncodeGroupHeader writes h at offset.
func EncodeGroupHeader(v buffer.WriteView, offset int, h GroupHeader) error {
	if err := v.PutUint8At(offset, h.BlockLength); err != nil {
		return err
	}
	return v.PutUint8At(offset+1, h.NumInGroup)
}

// DecodeGroupHeader reads the dimension header at offset.
func DecodeGroupHeader(v buffer.ReadView, offset int) (GroupHeader, error) {
	raw, err := v.SliceAt(offset, GroupHeaderLength)
	if err != nil {
		return GroupHeader{}, err
	}
	return GroupHeader{BlockLength: raw[0], NumInGroup: raw[1]}, nil
}

// GroupState tracks traversal of a repeating group.
type GroupState uint8

const (
	GroupOpen GroupState = iota
	GroupAdvancing
	GroupExhausted
	GroupClosed
)

func (s GroupState) String() string {
	switch s {
	case GroupOpen:
		return "open"
	case GroupAdvancing:
		return "advancing"
	case GroupExhausted:
		return "exhausted"
	case GroupClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// cursor is the traversal state shared by group encoders and decoders.
type cursor struct {
	count     int
	index     int
	exhausted bool
	held      bool
	dimOffset int
}

func (c *cursor) state() GroupState {
	switch {
	case !c.held:
		return GroupClosed
	case c.exhausted:
		return GroupExhausted
	case c.index < 0:
		return GroupOpen
	default:
		return GroupAdvancing
	}
}

// next returns the index to move to, or false at end of sequence.
func (c *cursor) next() (int, bool) {
	if c.exhausted {
		return -1, false
	}
	n := c.index + 1
	if n >= c.count {
		c.exhausted = true
		return -1, false
	}
	return n, true
}

// GroupEncoder appends a repeating group after its parent's current limit.
// Elements must be advanced and written in order, all of them, before the
// parent can be reclaimed.
type GroupEncoder[P EncodeFrame] struct {
	FieldWriter
	cursor
	parent P
}

// OpenGroupEncoder writes the dimension header at the parent's limit and
// borrows the parent until Parent is called.
func OpenGroupEncoder[P EncodeFrame](parent P, blockLength uint8, count uint8) (*GroupEncoder[P], error) {
	pw := parent.Fields()
	if err := pw.acquire(); err != nil {
		return nil, err
	}
	dim := pw.st.limit
	if err := EncodeGroupHeader(pw.view, dim, GroupHeader{BlockLength: blockLength, NumInGroup: count}); err != nil {
		return nil, err
	}
	pw.st.advance(GroupHeaderLength)
	return &GroupEncoder[P]{
		FieldWriter: FieldWriter{
			frame:  pw.child(kindGroup),
			view:   pw.view,
			base:   -1,
			extent: int(blockLength),
		},
		cursor: cursor{count: int(count), index: -1, held: true, dimOffset: dim},
		parent: parent,
	}, nil
}

// Count returns the number of elements declared in the dimension header.
func (g *GroupEncoder[P]) Count() int {
	return g.count
}

// Index returns the current element index, -1 before the first Advance.
func (g *GroupEncoder[P]) Index() int {
	return g.index
}

func (g *GroupEncoder[P]) State() GroupState {
	return g.state()
}

// HeaderOffset returns where the dimension header was written.
func (g *GroupEncoder[P]) HeaderOffset() int {
	return g.dimOffset
}

// Advance reserves the next element at the current limit. ok is false once
// every element has been visited, and stays false on further calls.
func (g *GroupEncoder[P]) Advance() (index int, ok bool, err error) {
	if err := g.acquire(); err != nil {
		return -1, false, err
	}
	n, ok := g.next()
	if !ok {
		g.base = -1
		return -1, false, nil
	}
	g.base = g.st.advance(g.extent)
	g.index = n
	return n, true, nil
}

// Element borrows the group for a composite spanning the current element.
func (g *GroupEncoder[P]) Element() (*CompositeEncoder[*GroupEncoder[P]], error) {
	return NestEncoder(g, 0, g.extent)
}

// Parent hands the enclosing codec back once every element was advanced.
func (g *GroupEncoder[P]) Parent() (P, error) {
	var zero P
	if !g.held {
		return zero, ErrParentMissing
	}
	if err := g.acquire(); err != nil {
		return zero, err
	}
	if g.index+1 < g.count {
		return zero, fmt.Errorf("%w: advanced %d of %d", ErrGroupIncomplete, g.index+1, g.count)
	}
	p := g.parent
	g.release()
	g.parent = zero
	g.held = false
	g.base = -1
	return p, nil
}

// GroupDecoder walks a repeating group found at its parent's current limit.
type GroupDecoder[P DecodeFrame] struct {
	FieldReader
	cursor
	parent   P
	expected uint8
}

// OpenGroupDecoder reads the dimension header at the parent's limit and
// borrows the parent until Parent is called. expectedBlockLength is the
// element size the reader's schema was compiled with; the wire value wins for
// stride and field presence.
func OpenGroupDecoder[P DecodeFrame](parent P, expectedBlockLength uint8) (*GroupDecoder[P], error) {
	pr := parent.Fields()
	if err := pr.acquire(); err != nil {
		return nil, err
	}
	dim := pr.st.limit
	h, err := DecodeGroupHeader(pr.view, dim)
	if err != nil {
		return nil, err
	}
	pr.st.advance(GroupHeaderLength)
	return &GroupDecoder[P]{
		FieldReader: FieldReader{
			frame:   pr.child(kindGroup),
			view:    pr.view,
			base:    -1,
			extent:  int(h.BlockLength),
			version: pr.version,
		},
		cursor:   cursor{count: int(h.NumInGroup), index: -1, held: true, dimOffset: dim},
		parent:   parent,
		expected: expectedBlockLength,
	}, nil
}

// Count returns the number of elements on the wire.
func (g *GroupDecoder[P]) Count() int {
	return g.count
}

// Index returns the current element index, -1 before the first Advance.
func (g *GroupDecoder[P]) Index() int {
	return g.index
}

func (g *GroupDecoder[P]) State() GroupState {
	return g.state()
}

// ExpectedBlockLength returns the element size the reader was compiled with.
func (g *GroupDecoder[P]) ExpectedBlockLength() uint8 {
	return g.expected
}

// HeaderOffset returns where the dimension header was read.
func (g *GroupDecoder[P]) HeaderOffset() int {
	return g.dimOffset
}

// Advance moves to the next element. ok is false at end of sequence and stays
// false on further calls.
func (g *GroupDecoder[P]) Advance() (index int, ok bool, err error) {
	if err := g.acquire(); err != nil {
		return -1, false, err
	}
	n, ok := g.next()
	if !ok {
		g.base = -1
		return -1, false, nil
	}
	g.base = g.st.advance(g.extent)
	g.index = n
	return n, true, nil
}

// Element borrows the group for a composite spanning the current element.
func (g *GroupDecoder[P]) Element() (*CompositeDecoder[*GroupDecoder[P]], error) {
	return NestDecoder(g, 0, g.extent)
}

// Parent hands the enclosing codec back. Elements that were not visited are
// skipped so the parent's limit lands after the whole group.
func (g *GroupDecoder[P]) Parent() (P, error) {
	var zero P
	if !g.held {
		return zero, ErrParentMissing
	}
	if err := g.acquire(); err != nil {
		return zero, err
	}
	if remaining := g.count - (g.index + 1); remaining > 0 {
		g.st.advance(remaining * g.extent)
	}
	p := g.parent
	g.release()
	g.parent = zero
	g.held = false
	g.base = -1
	return p, nil
}
