// Package sbe implements the cursor runtime for Simple-Binary-Encoding style
// messages: a fixed block of primitives at schema-constant offsets, composites
// nested inside it, and repeating groups appended after it in one buffer.
//
// Ownership boundary:
//   - root cursors (Encoder, Decoder) and the 8-byte message header link
//   - composite codecs that borrow their parent's position
//   - repeating group codecs that borrow their parent's limit
//
// Every codec nested under one root shares a frame stack. Opening a nested
// codec pushes a frame and makes it the only one allowed to touch the buffer;
// Parent pops it and hands the enclosing codec back. Using a codec while a
// child holds the stack fails with ErrFrameBusy, and popping twice fails with
// ErrParentMissing. Both match ErrOwnership.
//
// The runtime never allocates beyond the codec structs and never logs; all
// malformed-buffer conditions surface as buffer.ErrOutOfRange from the view.
package sbe
