package typestate

import (
	"testing"

	"github.com/blockwarp/tw-compiler/internal/lattice"
)

func TestGetDefaultsToAny(t *testing.T) {
	s := New()
	if got := s.Get("x"); got != lattice.Any {
		t.Errorf("Get on empty state = %v, want ANY", got)
	}
}

func TestSetReportsChange(t *testing.T) {
	s := New()
	if !s.Set("x", lattice.PosInt) {
		t.Error("first Set should report changed")
	}
	if s.Set("x", lattice.PosInt) {
		t.Error("Set with same value should report unchanged")
	}
	if !s.Set("x", lattice.NegInt) {
		t.Error("Set with new value should report changed")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Set("x", lattice.PosInt)
	clone := s.Clone()
	clone.Set("x", lattice.String)
	if s.Get("x") != lattice.PosInt {
		t.Error("mutating clone affected original")
	}
}

func TestOrJoinsSharedKeys(t *testing.T) {
	a := New()
	a.Set("x", lattice.PosInt)
	b := New()
	b.Set("x", lattice.NegInt)

	changed := a.Or(b)
	if !changed {
		t.Error("Or should report change when union grows")
	}
	if got := a.Get("x"); got != (lattice.PosInt | lattice.NegInt) {
		t.Errorf("Get(x) = %v, want PosInt|NegInt", got)
	}
}

func TestOrPromotesOneSidedKeysToAny(t *testing.T) {
	a := New()
	a.Set("x", lattice.PosInt)
	b := New() // x absent on b

	a.Or(b)
	if got := a.Get("x"); got != lattice.Any {
		t.Errorf("Get(x) = %v, want ANY after merging with a state missing x", got)
	}

	c := New()
	c.Set("y", lattice.String) // y absent on a
	a2 := New()
	a2.Set("x", lattice.PosInt)
	a2.Or(c)
	if got := a2.Get("y"); got != lattice.Any {
		t.Errorf("Get(y) = %v, want ANY (y only present on other side)", got)
	}
}

func TestOrIdempotentWhenEqual(t *testing.T) {
	a := New()
	a.Set("x", lattice.PosInt)
	b := a.Clone()
	if a.Or(b) {
		t.Error("Or of an identical clone should report no change")
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Set("x", lattice.PosInt)
	if !s.Clear() {
		t.Error("Clear should report change when a non-ANY value existed")
	}
	if s.Get("x") != lattice.Any {
		t.Error("Clear should reset to ANY")
	}
	if s.Clear() {
		t.Error("second Clear on an already-ANY state should report no change")
	}
}
