// Package protocol encodes and decodes whole messages described by a schema
// table.
//
// Ownership boundary:
// - buffer: bounds-checked little-endian views
// - sbe: header link, cursors, composites, groups
// - schema: declarative tables and validation
// - this package: records, the table-driven codec, map interchange
package protocol
