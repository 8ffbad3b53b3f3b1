// Package lattice implements the compiler's numeric type lattice (spec §3,
// §4.1): a bitset of disjoint atoms over which join is bitwise union and meet
// is bitwise intersection. It is the C1 component.
//
// The atom/union-of-atoms shape mirrors the teacher's typesystem.Kind
// sum-type (internal/typesystem/kinds.go: KStar/KWildcard/KVar/KArrow, each
// satisfying a small closed interface with Equal/String) but flattened into a
// single integer type per §9's explicit preference for "an opcode enum + typed
// payload tables rather than dynamic dispatch" — a join-semilattice over twelve
// disjoint atoms is better served by bit arithmetic than by an interface
// hierarchy.
package lattice

import "math"

// Type is an element of the lattice: a bitset over the atoms below.
type Type uint32

// Disjoint atoms (§3). Each literal value belongs to exactly one.
const (
	PosInt Type = 1 << iota
	PosFract
	PosInf
	NegInt
	NegFract
	NegInf
	Zero
	NegZero
	NaN
	Boolean
	String
	StringNum
)

// Bottom is the empty type (no runtime value satisfies it); it is the
// identity element for Join.
const Bottom Type = 0

// Any is the top element: the union of every atom above. It is the identity
// element for Meet and the default/unanalyzed type for fresh nodes.
const Any Type = PosInt | PosFract | PosInf | NegInt | NegFract | NegInf |
	Zero | NegZero | NaN | Boolean | String | StringNum

// Derived groups (§3), unions of atoms kept as named constants for
// readability in the analyzer's case analysis.
const (
	Pos              = PosInt | PosFract | PosInf
	Neg              = NegInt | NegFract | NegInf
	AnyZero          = Zero | NegZero
	Inf              = PosInf | NegInf
	Fract            = PosFract | NegFract
	Real             = Pos | Neg | AnyZero // non-NaN, infinities included (Pos/Neg carry them)
	Number           = Real | Inf          // every number atom except NaN
	NumberOrNaN      = Number | NaN
	Int              = PosInt | NegInt
	// NumberInterpretable is the implementation-defined subset of types that
	// coerce to a finite number "without surprise": numbers themselves, plus
	// strings that are known to parse as numbers. Booleans are excluded: while
	// the host coerces true/false to 1/0, that coercion is surprising enough
	// (spec calls out string<->number, not bool<->number, as the hard case)
	// that the code generator never treats it as a safe numeric fast path.
	NumberInterpretable = NumberOrNaN | StringNum
)

// Join is the lattice's binary union (⊔): the least upper bound of a and b.
func Join(a, b Type) Type { return a | b }

// Meet is the lattice's binary intersection (⊓): the greatest lower bound.
func Meet(a, b Type) Type { return a & b }

// IsAlways reports whether every value described by t is also described by T
// (t is a subset of T): t & T == t.
func IsAlways(t, T Type) bool { return t&T == t }

// IsSometimes reports whether some value described by t is also described by
// T (t and T overlap): t & T != 0. A Bottom t is never "sometimes" anything.
func IsSometimes(t, T Type) bool { return t&T != 0 }

// NumberType classifies a float64 literal into its single lattice atom,
// per §4.1: NaN, ±Infinity, ±0, and otherwise integer-vs-fractional by sign.
func NumberType(n float64) Type {
	switch {
	case math.IsNaN(n):
		return NaN
	case math.IsInf(n, 1):
		return PosInf
	case math.IsInf(n, -1):
		return NegInf
	case n == 0:
		if math.Signbit(n) {
			return NegZero
		}
		return Zero
	case n > 0:
		if n == math.Trunc(n) {
			return PosInt
		}
		return PosFract
	default: // n < 0
		if n == math.Trunc(n) {
			return NegInt
		}
		return NegFract
	}
}
