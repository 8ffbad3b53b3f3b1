package ir

import (
	"testing"

	"github.com/blockwarp/tw-compiler/internal/lattice"
)

func TestToTypeReturnsUnchangedWhenAlready(t *testing.T) {
	n := &Input{Op: OpVarGet, Type: lattice.PosInt}
	got, err := ToType(n, lattice.Number)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != n {
		t.Error("ToType should return the same node when already IsAlways(T)")
	}
}

func TestToTypeWrapsNonConstant(t *testing.T) {
	n := &Input{Op: OpVarGet, Type: lattice.Any}
	got, err := ToType(n, lattice.Number)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Op != OpCastNumber {
		t.Errorf("got op %s, want CAST_NUMBER", got.Op)
	}
	if got.Inputs["VALUE"] != Node(n) {
		t.Error("wrapping cast should hold the original node under VALUE")
	}
}

func TestToTypeFoldsConstant(t *testing.T) {
	n := &Input{Op: OpConstant, Literal: "3", Type: lattice.String | lattice.StringNum}
	got, err := ToType(n, lattice.Number)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Op != OpConstant {
		t.Errorf("folding a cast over a CONSTANT should yield a CONSTANT, got %s", got.Op)
	}
	if got.Literal != 3.0 {
		t.Errorf("folded literal = %v, want 3.0", got.Literal)
	}
	if got.Type != lattice.PosInt {
		t.Errorf("folded type = %v, want PosInt", got.Type)
	}
}

func TestToTypeUnknownTargetIsImpossibleCast(t *testing.T) {
	n := &Input{Op: OpVarGet, Type: lattice.Any}
	_, err := ToType(n, lattice.Pos)
	if err == nil {
		t.Fatal("expected ImpossibleCastError for a non-whole-cast target")
	}
	if _, ok := err.(*ImpossibleCastError); !ok {
		t.Errorf("got %T, want *ImpossibleCastError", err)
	}
}

func TestIsConstantNumericCoercion(t *testing.T) {
	n := &Input{Op: OpConstant, Literal: "5"}
	if !IsConstant(n, 5.0) {
		t.Error(`IsConstant(CONSTANT("5"), 5.0) should be true after numeric coercion`)
	}
	if IsConstant(n, 6.0) {
		t.Error(`IsConstant(CONSTANT("5"), 6.0) should be false`)
	}
}

func TestIsConstantFalseForNonConstant(t *testing.T) {
	n := &Input{Op: OpVarGet}
	if IsConstant(n, 5.0) {
		t.Error("IsConstant on a non-CONSTANT node should be false")
	}
}

func TestIsConstantStringAndBool(t *testing.T) {
	s := &Input{Op: OpConstant, Literal: "hi"}
	if !IsConstant(s, "hi") || IsConstant(s, "bye") {
		t.Error("string IsConstant mismatch")
	}
	b := &Input{Op: OpConstant, Literal: true}
	if !IsConstant(b, true) || IsConstant(b, false) {
		t.Error("bool IsConstant mismatch")
	}
}
