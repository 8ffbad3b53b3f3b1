package ir

import (
	"fmt"

	"github.com/blockwarp/tw-compiler/internal/lattice"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// toNumberLiteral coerces an Input.Literal (float64, string, or bool) to a
// number for isConstant's numeric-equality branch (§4.2). Unrecognized
// literal kinds coerce to NaN so the comparison simply fails rather than
// panicking.
func toNumberLiteral(literal any) float64 {
	return runtimeval.ToNumberOrNaN(literal)
}

// foldConstantCast implements the build-time constant-folding half of
// to_type (§4.2: "on CONSTANT it performs the cast at build time, replacing
// the stored literal"). It returns a new CONSTANT Input with the cast
// applied, or an error if op has no constant-folding rule (the caller falls
// back to a wrapping cast node in that case).
func foldConstantCast(target *Input, op InputOp) (*Input, error) {
	lit := target.Literal

	switch op {
	case OpCastBoolean:
		return constNode(runtimeval.ToBoolean(lit), lattice.Boolean), nil

	case OpCastNumber:
		n := runtimeval.ToNumber(lit)
		return constNode(n, lattice.NumberType(n)), nil

	case OpCastNumberOrNaN:
		n := runtimeval.ToNumberOrNaN(lit)
		return constNode(n, lattice.NumberType(n)), nil

	case OpCastNumberIndex:
		n := float64(runtimeval.ToNumberIndex(lit))
		return constNode(n, lattice.NumberType(n)), nil

	case OpCastString:
		s := runtimeval.ToStringVal(lit)
		t := lattice.String
		if runtimeval.IsNumericString(s) {
			t |= lattice.StringNum
		}
		return constNode(s, t), nil

	default:
		return nil, fmt.Errorf("no constant-folding rule for cast opcode %s", op)
	}
}

// constNode builds a fresh CONSTANT Input carrying v and type t.
func constNode(v any, t lattice.Type) *Input {
	return &Input{Op: OpConstant, Literal: v, Type: t}
}
