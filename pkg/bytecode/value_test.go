package bytecode

import (
	"math"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(1.2), "1.2"},
		{Number(3), "3"},
		{Number(-0.25), "-0.25"},
		{Number(1e21), "1e+21"},
		{Number(math.Inf(1)), "+Inf"},
		{Number(math.NaN()), "NaN"},
		{Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueKinds(t *testing.T) {
	n := Number(4)
	if !n.IsNumber() || n.Kind() != KindNumber || n.AsNumber() != 4 {
		t.Errorf("Number(4) = kind %s, number %v", n.Kind(), n.AsNumber())
	}

	var zero Value
	if zero.IsNumber() || zero.Kind() != KindInvalid || zero.AsNumber() != 0 {
		t.Errorf("zero Value = kind %s, number %v", zero.Kind(), zero.AsNumber())
	}

	if ValueKind(9).String() != "ValueKind(9)" {
		t.Errorf("ValueKind(9).String() = %q", ValueKind(9).String())
	}
}

func TestValueEqual(t *testing.T) {
	negZero := math.Copysign(0, -1)
	tests := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), Number(2), false},
		{Number(0), Number(negZero), false},
		{Number(math.NaN()), Number(math.NaN()), true},
		{Value{}, Value{}, true},
		{Value{}, Number(0), false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
