package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// KindInvalid is the zero kind. It is never produced by the constructors
	// and stands in for variants this VM cannot operate on.
	KindInvalid ValueKind = 0

	// KindNumber is a double-precision float.
	KindNumber ValueKind = 1
)

// String returns a human-readable name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a constant or an operand stack entry.
type Value struct {
	kind ValueKind
	num  float64
}

// Number returns a number value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// AsNumber returns the number payload. It is 0 for other kinds.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// String renders numbers in the shortest form that round-trips.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return "<" + v.kind.String() + ">"
	}
}

// Equal compares kind and payload. Numbers compare bit-for-bit, so NaN
// equals NaN and 0 does not equal -0.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindNumber {
		return math.Float64bits(a.num) == math.Float64bits(b.num)
	}
	return true
}
