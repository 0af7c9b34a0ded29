// Package coord provides the coordinate type that addresses knowledge space.
//
// A Coordinate is a validated 4-tuple (major, type, subtype, instance) with the
// canonical string form MM-TT-SS-XXXX. Relationships between coordinates are
// computed from their fields, never stored:
//   - same major: same ontological category
//   - same major+type: siblings
//   - same major+type+subtype: cousins
//
// This package imports nothing internal.
package coord
