package audit

import (
	"fmt"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedArg is returned when an argument cannot be represented in an entry.
var ErrUnsupportedArg = errors.New("unsupported audit argument")

// Value is a sealed interface over the primitive values an entry may carry.
// Only String, Int, Bool, List and Object implement it.
// There is no float type: floats do not encode deterministically.
type Value interface {
	auditValue()
}

// String is a string argument.
type String string

func (String) auditValue() {}

// Int is an integer argument. Always int64.
type Int int64

func (Int) auditValue() {}

// Bool is a boolean argument.
type Bool bool

func (Bool) auditValue() {}

// List is an ordered list of values.
type List []Value

func (List) auditValue() {}

// Object maps string keys to values. Only used for hash payloads; key order
// is fixed by the canonical encoding, not by the map.
type Object map[string]Value

func (Object) auditValue() {}

// S is shorthand for String.
func S(s string) String { return String(s) }

// I is shorthand for Int.
func I(n int) Int { return Int(n) }

// Strings builds a List of String values.
func Strings(ss []string) List {
	l := make(List, len(ss))
	for i, s := range ss {
		l[i] = String(s)
	}
	return l
}

// ToValue converts a Go value into a Value.
//
// Accepted: Value, string, int, int64, bool, fmt.Stringer (e.g. a coordinate,
// stored by its String form), []string and []any of accepted values.
// Floats and nil are rejected with ErrUnsupportedArg.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.Wrap(ErrUnsupportedArg, "nil")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case float32, float64:
		return nil, errors.Wrapf(ErrUnsupportedArg, "float %v: format it as a string first", val)
	case []string:
		return Strings(val), nil
	case []any:
		l := make(List, len(val))
		for i, elem := range val {
			ev, err := ToValue(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "[%d]", i)
			}
			l[i] = ev
		}
		return l, nil
	case fmt.Stringer:
		return String(val.String()), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedArg, "type %T", v)
	}
}

// Native converts a Value back to plain Go values (string, int64, bool,
// []any, map[string]any) for output and assertions.
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	default:
		return nil
	}
}

// Canonicalize returns a deep copy of v with every string and object key
// NFC normalized. Invalid UTF-8 and nil are rejected with ErrUnsupportedArg.
func Canonicalize(v Value) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.Wrap(ErrUnsupportedArg, "nil")
	case String:
		s, err := canonicalString(string(val))
		return String(s), err
	case Int, Bool:
		return val, nil
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			c, err := Canonicalize(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "[%d]", i)
			}
			out[i] = c
		}
		return out, nil
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			key, err := canonicalString(k)
			if err != nil {
				return nil, err
			}
			c, err := Canonicalize(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			out[key] = c
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedArg, "type %T", v)
	}
}

func canonicalString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.Wrapf(ErrUnsupportedArg, "invalid UTF-8 in %q", s)
	}
	return norm.NFC.String(s), nil
}

// clone deep-copies lists and objects; scalars are immutable.
func clone(v Value) Value {
	switch val := v.(type) {
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = clone(elem)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = clone(elem)
		}
		return out
	default:
		return v
	}
}
