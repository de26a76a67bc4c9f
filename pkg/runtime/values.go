package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindChar
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// ParseKind maps a type name used in program images to its Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return KindInt, nil
	case "float", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "char", "character":
		return KindChar, nil
	case "string", "str":
		return KindString, nil
	default:
		return KindInvalid, fmt.Errorf("unknown type %q", name)
	}
}

// IsNumeric reports whether values of the kind take part in numeric promotion.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is the shared behaviour for all runtime values. The set of
// implementations is closed: IntValue, FloatValue, BoolValue, CharValue and
// StringValue.
type Value interface {
	Kind() Kind
	isValue()
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntValue struct {
	Val int64
}

func (IntValue) Kind() Kind { return KindInt }
func (IntValue) isValue()   {}

type FloatValue struct {
	Val float64
}

func (FloatValue) Kind() Kind { return KindFloat }
func (FloatValue) isValue()   {}

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }
func (BoolValue) isValue()   {}

type CharValue struct {
	Val rune
}

func (CharValue) Kind() Kind { return KindChar }
func (CharValue) isValue()   {}

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }
func (StringValue) isValue()   {}

// KindOf returns the kind of v, or KindInvalid for nil.
func KindOf(v Value) Kind {
	if v == nil {
		return KindInvalid
	}
	return v.Kind()
}

// Format renders a value in its natural text form. Floats always carry a
// fractional part so 10.0 stays distinguishable from the integer 10.
func Format(v Value) string {
	switch val := v.(type) {
	case IntValue:
		return strconv.FormatInt(val.Val, 10)
	case FloatValue:
		return formatFloat(val.Val)
	case BoolValue:
		return strconv.FormatBool(val.Val)
	case CharValue:
		return string(val.Val)
	case StringValue:
		return val.Val
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal reports whether two values have the same kind and payload.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}
