package analyzer

import "github.com/blockwarp/tw-compiler/internal/lattice"

// addAtom computes the set of possible result atoms for a+b where a and b
// range over the single atoms of the groups implied by the lattice.Type
// arguments, following IEEE-754 sign/zero/infinity rules (spec §4.4 Design
// Notes). It is the teacher's expressions_operators.go dynamic-type-switch
// dispatch pattern, adapted: instead of switching on two concrete runtime
// Object types, it switches on the Cartesian product of lattice atom groups
// and unions every reachable outcome atom.
func addAtom(a, b lattice.Type) lattice.Type {
	var out lattice.Type

	// Any NaN operand taints the result.
	if lattice.IsSometimes(a, lattice.NaN) || lattice.IsSometimes(b, lattice.NaN) {
		out |= lattice.NaN
	}

	// +Inf with -Inf (either order) is NaN; a same-signed infinity dominates.
	if lattice.IsSometimes(a, lattice.PosInf) && lattice.IsSometimes(b, lattice.NegInf) {
		out |= lattice.NaN
	}
	if lattice.IsSometimes(a, lattice.NegInf) && lattice.IsSometimes(b, lattice.PosInf) {
		out |= lattice.NaN
	}
	if lattice.IsSometimes(a, lattice.PosInf) && lattice.IsSometimes(b, lattice.Pos|lattice.AnyZero|lattice.PosInf) {
		out |= lattice.PosInf
	}
	if lattice.IsSometimes(b, lattice.PosInf) && lattice.IsSometimes(a, lattice.Pos|lattice.AnyZero|lattice.PosInf) {
		out |= lattice.PosInf
	}
	if lattice.IsSometimes(a, lattice.NegInf) && lattice.IsSometimes(b, lattice.Neg|lattice.AnyZero|lattice.NegInf) {
		out |= lattice.NegInf
	}
	if lattice.IsSometimes(b, lattice.NegInf) && lattice.IsSometimes(a, lattice.Neg|lattice.AnyZero|lattice.NegInf) {
		out |= lattice.NegInf
	}

	// Finite + finite: sign/zero case analysis over REAL x REAL.
	if lattice.IsSometimes(a, lattice.Real) && lattice.IsSometimes(b, lattice.Real) {
		fract := lattice.IsSometimes(a, lattice.Fract) || lattice.IsSometimes(b, lattice.Fract)

		if lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Pos|lattice.AnyZero) {
			out |= pickReal(fract, lattice.PosInt, lattice.PosFract)
		}
		if lattice.IsSometimes(b, lattice.Pos) && lattice.IsSometimes(a, lattice.Pos|lattice.AnyZero) {
			out |= pickReal(fract, lattice.PosInt, lattice.PosFract)
		}
		if lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Neg|lattice.AnyZero) {
			out |= pickReal(fract, lattice.NegInt, lattice.NegFract)
		}
		if lattice.IsSometimes(b, lattice.Neg) && lattice.IsSometimes(a, lattice.Neg|lattice.AnyZero) {
			out |= pickReal(fract, lattice.NegInt, lattice.NegFract)
		}
		if lattice.IsSometimes(a, lattice.AnyZero) && lattice.IsSometimes(b, lattice.AnyZero) {
			out |= lattice.Zero | lattice.NegZero
		}
		// Opposite signs (pos+neg or neg+pos) may cancel to zero of either
		// sign, or leave a residual of either sign, depending on magnitude —
		// conservatively all of POS, NEG, and both zeros.
		if lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Neg) {
			out |= lattice.Pos | lattice.Neg | lattice.Zero | lattice.NegZero
		}
		if lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Pos) {
			out |= lattice.Pos | lattice.Neg | lattice.Zero | lattice.NegZero
		}
	}

	return out
}

func pickReal(fract bool, intAtom, fractAtom lattice.Type) lattice.Type {
	if fract {
		return intAtom | fractAtom
	}
	return intAtom
}

// negate computes the sign-flipped group of t (used to reduce subtraction to
// addition: a-b ≡ a+(-b)).
func negate(t lattice.Type) lattice.Type {
	var out lattice.Type
	flip := func(from, to lattice.Type) {
		if lattice.IsSometimes(t, from) {
			out |= to
		}
	}
	flip(lattice.PosInt, lattice.NegInt)
	flip(lattice.PosFract, lattice.NegFract)
	flip(lattice.PosInf, lattice.NegInf)
	flip(lattice.NegInt, lattice.PosInt)
	flip(lattice.NegFract, lattice.PosFract)
	flip(lattice.NegInf, lattice.PosInf)
	flip(lattice.Zero, lattice.NegZero)
	flip(lattice.NegZero, lattice.Zero)
	flip(lattice.NaN, lattice.NaN)
	return out
}

func subAtom(a, b lattice.Type) lattice.Type {
	return addAtom(a, negate(b))
}

// mulAtom implements OP_MUL's case analysis: sign-of-product rules plus
// ZERO*INF => NAN and the usual infinity-absorption and fractional
// propagation.
func mulAtom(a, b lattice.Type) lattice.Type {
	var out lattice.Type

	if lattice.IsSometimes(a, lattice.NaN) || lattice.IsSometimes(b, lattice.NaN) {
		out |= lattice.NaN
	}
	if lattice.IsSometimes(a, lattice.AnyZero) && lattice.IsSometimes(b, lattice.Inf) {
		out |= lattice.NaN
	}
	if lattice.IsSometimes(b, lattice.AnyZero) && lattice.IsSometimes(a, lattice.Inf) {
		out |= lattice.NaN
	}

	fract := lattice.IsSometimes(a, lattice.Fract) || lattice.IsSometimes(b, lattice.Fract)
	samesign := (lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Pos)) ||
		(lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Neg))
	oppsign := (lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Neg)) ||
		(lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Pos))

	if lattice.IsSometimes(a, lattice.Inf) || lattice.IsSometimes(b, lattice.Inf) {
		if samesign {
			out |= lattice.PosInf
		}
		if oppsign {
			out |= lattice.NegInf
		}
	}
	if lattice.IsSometimes(a, lattice.Real) && lattice.IsSometimes(b, lattice.Real) {
		if samesign {
			out |= pickReal(fract, lattice.PosInt, lattice.PosFract)
		}
		if oppsign {
			out |= pickReal(fract, lattice.NegInt, lattice.NegFract)
		}
		if lattice.IsSometimes(a, lattice.AnyZero) || lattice.IsSometimes(b, lattice.AnyZero) {
			out |= lattice.Zero | lattice.NegZero
		}
	}
	return out
}

// divAtom implements OP_DIV's case analysis: REAL/ZERO => NAN (0/0) or an
// infinity of the appropriate sign, tiny/large => a signed zero, and the
// ordinary sign-of-quotient rule otherwise. Division result is always
// fractional-capable regardless of operand integrality (spec: "fractional
// bits propagate iff either operand could be fractional" does not hold for
// division the way it does for +-*, so DIV conservatively includes FRACT
// whenever the quotient could be non-integral).
func divAtom(a, b lattice.Type) lattice.Type {
	var out lattice.Type

	if lattice.IsSometimes(a, lattice.NaN) || lattice.IsSometimes(b, lattice.NaN) {
		out |= lattice.NaN
	}
	if lattice.IsSometimes(b, lattice.AnyZero) {
		if lattice.IsSometimes(a, lattice.AnyZero) || lattice.IsSometimes(a, lattice.Inf) {
			out |= lattice.NaN
		}
		if lattice.IsSometimes(a, lattice.Pos) {
			out |= lattice.PosInf | lattice.NegInf
		}
		if lattice.IsSometimes(a, lattice.Neg) {
			out |= lattice.PosInf | lattice.NegInf
		}
	}
	if lattice.IsSometimes(a, lattice.Inf) && lattice.IsSometimes(b, lattice.Real) {
		samesign := (lattice.IsSometimes(a, lattice.PosInf) && lattice.IsSometimes(b, lattice.Pos)) ||
			(lattice.IsSometimes(a, lattice.NegInf) && lattice.IsSometimes(b, lattice.Neg))
		if samesign {
			out |= lattice.PosInf
		} else {
			out |= lattice.NegInf
		}
	}
	if lattice.IsSometimes(a, lattice.Real) && lattice.IsSometimes(b, lattice.Real) &&
		!lattice.IsSometimes(b, lattice.AnyZero) {
		samesign := (lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Pos)) ||
			(lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Neg))
		oppsign := (lattice.IsSometimes(a, lattice.Pos) && lattice.IsSometimes(b, lattice.Neg)) ||
			(lattice.IsSometimes(a, lattice.Neg) && lattice.IsSometimes(b, lattice.Pos))
		if samesign {
			out |= lattice.PosInt | lattice.PosFract | lattice.Zero
		}
		if oppsign {
			out |= lattice.NegInt | lattice.NegFract | lattice.NegZero
		}
		if lattice.IsSometimes(a, lattice.AnyZero) {
			out |= lattice.Zero | lattice.NegZero
		}
	}
	return out
}
