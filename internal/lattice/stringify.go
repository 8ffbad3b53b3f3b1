package lattice

import "strings"

// namedAtoms lists every single-bit atom in a fixed order, for String() and
// for test enumeration (§8 property 5 iterates "|atoms|" explicitly).
var namedAtoms = []struct {
	bit  Type
	name string
}{
	{PosInt, "POS_INT"},
	{PosFract, "POS_FRACT"},
	{PosInf, "POS_INF"},
	{NegInt, "NEG_INT"},
	{NegFract, "NEG_FRACT"},
	{NegInf, "NEG_INF"},
	{Zero, "ZERO"},
	{NegZero, "NEG_ZERO"},
	{NaN, "NAN"},
	{Boolean, "BOOLEAN"},
	{String, "STRING"},
	{StringNum, "STRING_NUM"},
}

// Atoms returns the fixed-order slice of single-bit atoms composing the
// lattice. Used by the lattice package's property tests to enumerate the
// lattice's finite height.
func Atoms() []Type {
	bits := make([]Type, len(namedAtoms))
	for i, a := range namedAtoms {
		bits[i] = a.bit
	}
	return bits
}

// String renders t as a readable union of named groups/atoms, preferring the
// largest recognizable named group (mirrors how a human reads "NUMBER" rather
// than eight separate atom names). Used wherever a Type is formatted with %s
// or %v, such as ImpossibleCastError's message and test failure output.
func (t Type) String() string {
	if t == Bottom {
		return "BOTTOM"
	}
	if t == Any {
		return "ANY"
	}

	var parts []string
	remaining := t

	// Largest named groups first so common cases read compactly.
	groups := []struct {
		bit  Type
		name string
	}{
		{NumberInterpretable, "NUMBER_INTERPRETABLE"},
		{NumberOrNaN, "NUMBER_OR_NAN"},
		{Number, "NUMBER"},
		{Real, "REAL"},
		{Pos, "POS"},
		{Neg, "NEG"},
		{Inf, "INF"},
		{AnyZero, "ANY_ZERO"},
		{Fract, "FRACT"},
	}
	for _, g := range groups {
		if remaining&g.bit == g.bit {
			parts = append(parts, g.name)
			remaining &^= g.bit
		}
	}
	for _, a := range namedAtoms {
		if remaining&a.bit != 0 {
			parts = append(parts, a.name)
			remaining &^= a.bit
		}
	}
	return strings.Join(parts, "|")
}
