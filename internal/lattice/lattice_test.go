package lattice

import (
	"math"
	"testing"
)

// Lattice laws (§8, items 1-2).
func TestJoinCommutativeAssociativeIdempotent(t *testing.T) {
	sample := []Type{Bottom, Any, PosInt, NegFract, Zero | NegZero, Boolean | String, NaN}
	for _, a := range sample {
		for _, b := range sample {
			if Join(a, b) != Join(b, a) {
				t.Errorf("Join(%v,%v) not commutative", a, b)
			}
			if Join(a, a) != a {
				t.Errorf("Join(%v,%v) not idempotent", a, a)
			}
		}
	}
	for _, a := range sample {
		for _, b := range sample {
			for _, c := range sample {
				if Join(Join(a, b), c) != Join(a, Join(b, c)) {
					t.Errorf("Join not associative for %v,%v,%v", a, b, c)
				}
			}
		}
	}
	for _, a := range sample {
		if Join(a, Bottom) != a {
			t.Errorf("Bottom not identity for Join(%v)", a)
		}
		if Join(a, Any) != Any {
			t.Errorf("Any not absorbing for Join(%v)", a)
		}
	}
}

func TestIsAlwaysJoinImpliesBothAlways(t *testing.T) {
	atoms := Atoms()
	for _, a := range atoms {
		for _, b := range atoms {
			for _, T := range []Type{Number, Pos, Neg, NumberOrNaN, Any, Bottom} {
				if IsAlways(Join(a, b), T) {
					if !IsAlways(a, T) || !IsAlways(b, T) {
						t.Errorf("IsAlways(join(%v,%v),%v) held but one operand didn't", a, b, T)
					}
				}
			}
		}
	}
}

func TestIsAlwaysIsSometimes(t *testing.T) {
	if !IsAlways(PosInt, Number) {
		t.Error("PosInt should always be Number")
	}
	if IsAlways(PosInt|String, Number) {
		t.Error("PosInt|String should not always be Number")
	}
	if !IsSometimes(PosInt|String, Number) {
		t.Error("PosInt|String should sometimes be Number")
	}
	if IsSometimes(String, Number) {
		t.Error("String should never be Number")
	}
	if IsSometimes(Bottom, Any) {
		t.Error("Bottom should never be sometimes anything")
	}
}

func TestNumberType(t *testing.T) {
	cases := []struct {
		n    float64
		want Type
	}{
		{math.NaN(), NaN},
		{math.Inf(1), PosInf},
		{math.Inf(-1), NegInf},
		{0, Zero},
		{math.Copysign(0, -1), NegZero},
		{3, PosInt},
		{3.5, PosFract},
		{-3, NegInt},
		{-3.5, NegFract},
	}
	for _, c := range cases {
		if got := NumberType(c.n); got != c.want {
			t.Errorf("NumberType(%v) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestMeet(t *testing.T) {
	if Meet(Number, PosInt) != PosInt {
		t.Errorf("Meet(Number, PosInt) = %v, want PosInt", Meet(Number, PosInt))
	}
	if Meet(String, Number) != Bottom {
		t.Errorf("Meet(String, Number) = %v, want Bottom", Meet(String, Number))
	}
}
