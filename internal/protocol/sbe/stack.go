package sbe

import "fmt"

type frameKind uint8

const (
	kindMessage frameKind = iota
	kindComposite
	kindGroup
)

func (k frameKind) String() string {
	switch k {
	case kindMessage:
		return "message"
	case kindComposite:
		return "composite"
	case kindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// stack is shared by a root cursor and every codec nested under it during one
// encode or decode pass. frames[depth] records who sits at each level; only
// the top frame is active.
type stack struct {
	limit  int
	frames []frameKind
}

func newStack(limit int) *stack {
	s := &stack{limit: limit, frames: make([]frameKind, 1, 4)}
	s.frames[0] = kindMessage
	return s
}

func (s *stack) top() int {
	return len(s.frames) - 1
}

func (s *stack) push(kind frameKind) int {
	s.frames = append(s.frames, kind)
	return s.top()
}

// pop drops depth and everything above it.
func (s *stack) pop(depth int) {
	s.frames = s.frames[:depth]
}

// advance reserves n bytes at the current limit and returns where they start.
// It is the only place the limit moves.
func (s *stack) advance(n int) int {
	at := s.limit
	s.limit += n
	return at
}

// frame is one codec's handle on the shared stack. A nil st means the handle
// was released by Parent.
type frame struct {
	st    *stack
	depth int
}

func (f *frame) acquire() error {
	if f.st == nil {
		return ErrFrameReleased
	}
	if top := f.st.top(); top != f.depth {
		return fmt.Errorf("%w: depth %d is waiting on %s at depth %d",
			ErrFrameBusy, f.depth, f.st.frames[top], top)
	}
	return nil
}

func (f *frame) child(kind frameKind) frame {
	return frame{st: f.st, depth: f.st.push(kind)}
}

// release pops the frame and reactivates its parent.
func (f *frame) release() {
	f.st.pop(f.depth)
	f.st = nil
}

// Depth reports how deep the codec sits below its root cursor.
func (f *frame) Depth() int {
	return f.depth
}

// Limit returns the end of everything reserved so far in this pass, or -1
// once the codec has been released.
func (f *frame) Limit() int {
	if f.st == nil {
		return -1
	}
	return f.st.limit
}
