package coord

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Field bounds. A Coordinate outside these bounds cannot be constructed.
const (
	MinMajor    = 1
	MaxMajor    = 8
	MinType     = 1
	MaxType     = 99
	MinSubtype  = 1
	MaxSubtype  = 99
	MinInstance = 1
	MaxInstance = 9999
)

var (
	// ErrRange is returned when a field is outside its bound.
	ErrRange = errors.New("coordinate field out of range")

	// ErrFormat is returned when a string is not a canonical MM-TT-SS-XXXX code.
	ErrFormat = errors.New("malformed coordinate code")
)

var codePattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{2})-(\d{4})$`)

// categories maps major 1..8 to its top-level category name.
var categories = [MaxMajor + 1]string{
	1: "Entity",
	2: "Action",
	3: "Property",
	4: "Relation",
	5: "Location",
	6: "Time",
	7: "Quantity",
	8: "Abstract",
}

// Coordinate is a position in knowledge space.
//
// The zero value is not a valid Coordinate; use New or Parse.
// Coordinates are comparable values, and two coordinates are equal exactly
// when their canonical codes are equal.
type Coordinate struct {
	major    int
	typ      int
	subtype  int
	instance int
}

// New validates the four fields and returns the Coordinate.
func New(major, typ, subtype, instance int) (Coordinate, error) {
	if err := checkRange("major", major, MinMajor, MaxMajor); err != nil {
		return Coordinate{}, err
	}
	if err := checkRange("type", typ, MinType, MaxType); err != nil {
		return Coordinate{}, err
	}
	if err := checkRange("subtype", subtype, MinSubtype, MaxSubtype); err != nil {
		return Coordinate{}, err
	}
	if err := checkRange("instance", instance, MinInstance, MaxInstance); err != nil {
		return Coordinate{}, err
	}
	return Coordinate{major: major, typ: typ, subtype: subtype, instance: instance}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(major, typ, subtype, instance int) Coordinate {
	c, err := New(major, typ, subtype, instance)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse reads a strict MM-TT-SS-XXXX code.
// Well-formed codes with out-of-range fields (e.g. "00-01-01-0001") fail with ErrRange.
func Parse(code string) (Coordinate, error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return Coordinate{}, errors.Wrapf(ErrFormat, "%q: expected MM-TT-SS-XXXX", code)
	}
	fields := make([]int, 4)
	for i := range fields {
		// Pattern guarantees digits only.
		fields[i], _ = strconv.Atoi(m[i+1])
	}
	return New(fields[0], fields[1], fields[2], fields[3])
}

// MustParse is like Parse but panics on error.
func MustParse(code string) Coordinate {
	c, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return c
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return errors.Wrapf(ErrRange, "%s must be %d-%d, got %d", field, lo, hi, v)
	}
	return nil
}

func (c Coordinate) Major() int    { return c.major }
func (c Coordinate) Type() int     { return c.typ }
func (c Coordinate) Subtype() int  { return c.subtype }
func (c Coordinate) Instance() int { return c.instance }

// IsZero reports whether c is the zero value (never a valid coordinate).
func (c Coordinate) IsZero() bool {
	return c == Coordinate{}
}

// Code returns the canonical zero-padded MM-TT-SS-XXXX form.
func (c Coordinate) Code() string {
	return fmt.Sprintf("%02d-%02d-%02d-%04d", c.major, c.typ, c.subtype, c.instance)
}

// String implements fmt.Stringer.
func (c Coordinate) String() string {
	return c.Code()
}

// CategoryName returns the name of the major category.
func (c Coordinate) CategoryName() string {
	return CategoryName(c.major)
}

// CategoryName returns the name for a major number, or "Unknown" outside 1..8.
func CategoryName(major int) string {
	if major < MinMajor || major > MaxMajor {
		return "Unknown"
	}
	return categories[major]
}

// SharesCategory reports the same major.
func (c Coordinate) SharesCategory(o Coordinate) bool {
	return c.major == o.major
}

// SharesType reports the same major and type (siblings).
func (c Coordinate) SharesType(o Coordinate) bool {
	return c.major == o.major && c.typ == o.typ
}

// SharesSubtype reports the same major, type and subtype (cousins).
func (c Coordinate) SharesSubtype(o Coordinate) bool {
	return c.SharesType(o) && c.subtype == o.subtype
}

// Distance is the tiered structural distance between two coordinates:
//
//	0 identical
//	1 same subtype
//	2 same type, different subtype
//	3 same major, different type
//	4 different major
//
// There is no finer granularity; instance numbers only matter for tier 0.
func (c Coordinate) Distance(o Coordinate) int {
	switch {
	case c == o:
		return 0
	case c.SharesSubtype(o):
		return 1
	case c.SharesType(o):
		return 2
	case c.SharesCategory(o):
		return 3
	default:
		return 4
	}
}

// MarshalText implements encoding.TextMarshaler using the canonical code.
func (c Coordinate) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return nil, errors.Wrap(ErrRange, "cannot marshal zero coordinate")
	}
	return []byte(c.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler via Parse.
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
