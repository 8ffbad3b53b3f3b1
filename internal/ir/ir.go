package ir

import (
	"fmt"

	"github.com/blockwarp/tw-compiler/internal/lattice"
)

// Input is an expression node (§3): an opcode, an inputs map keyed by input
// name (e.g. "NUM1"/"NUM2" for OP_ADD, "VALUE" for a cast), a refined result
// Type, and a Yields flag for inputs that can themselves suspend
// (COMPATIBILITY_LAYER reads, chiefly).
type Input struct {
	Op     InputOp
	Inputs map[string]Node
	Type   lattice.Type
	Yields bool

	// Literal holds the constant's value for OpConstant: a float64, string,
	// or bool. Nil for every other opcode.
	Literal any

	// Field carries small non-Input configuration a front-end attaches to a
	// node (e.g. the variable id for VAR_GET, the scope "target"/"stage", the
	// extension op name for COMPATIBILITY_LAYER). Optional.
	Field map[string]string
}

// Node is any IR tree element reachable from an inputs map: either an
// *Input, a *Stack (nested statement list, e.g. an IF_ELSE branch), or nil
// (an absent optional input).
type Node interface {
	isNode()
}

func (*Input) isNode() {}
func (*Stack) isNode() {}

// Block is a single statement within a Stack (§3, "Stack (statement)").
type Block struct {
	Op     StackOp
	Inputs map[string]Node
	Yields bool

	Field map[string]string

	// annotations recorded by the analyzer (§3, "metadata only"); see
	// Annotations below.
	entryState any
	exitState  any
}

func (b *Block) isNode() {}

// Stack is an ordered sequence of stack blocks (§3).
type Stack struct {
	Blocks []*Block
}

// EntryState and ExitState expose the entry/exit TypeState snapshots the analyzer (C4)
// recorded on a Block, typed as `any` here to avoid an import cycle with
// internal/typestate (the analyzer package depends on both ir and typestate;
// ir must not depend back on typestate). Callers type-assert to
// *typestate.State.
func (b *Block) EntryState() any { return b.entryState }
func (b *Block) ExitState() any  { return b.exitState }

// SetEntryState and SetExitState are called only by the analyzer.
func (b *Block) SetEntryState(s any) { b.entryState = s }
func (b *Block) SetExitState(s any)  { b.exitState = s }

// Script is one compiled unit: either the entry script of a hat block, or a
// procedure definition (§3).
type Script struct {
	TopBlockID string
	Body       *Stack

	IsProcedure   bool
	ProcedureCode string // signature string, e.g. "move %n steps"
	ArgumentNames []string

	IsWarp     bool
	Yields     bool
	WarpTimer  bool
	DependedProcedures []string // procedure variants this script calls

	// compiled holds the cache slot for the compiled function (§3); nil until
	// codegen has produced one. Typed `any` for the same reason as
	// Block.entryState: codegen depends on ir, not vice versa.
	compiled any
}

func (s *Script) Compiled() any      { return s.compiled }
func (s *Script) SetCompiled(v any) { s.compiled = v }

// IR bundles one entry Script plus every procedure variant it (transitively)
// depends on (§3).
type IR struct {
	Entry      *Script
	Procedures map[string]*Script // variant key -> procedure Script
}

// MalformedIRError reports an unknown opcode or arity mismatch (§7).
type MalformedIRError struct {
	Opcode string
	Reason string
}

func (e *MalformedIRError) Error() string {
	return fmt.Sprintf("malformed IR: opcode %s: %s", e.Opcode, e.Reason)
}

// ImpossibleCastError reports ToType called with an unsupported target (§7).
type ImpossibleCastError struct {
	Target lattice.Type
}

func (e *ImpossibleCastError) Error() string {
	return fmt.Sprintf("impossible cast: no CAST_* opcode wraps target type %s", e.Target)
}

// MissingProcedureError reports a referenced procedure variant absent from
// ir.Procedures (§7).
type MissingProcedureError struct {
	Variant string
}

func (e *MissingProcedureError) Error() string {
	return fmt.Sprintf("dependency missing: procedure variant %q not found", e.Variant)
}

// castTargets maps a lattice target type to the CAST_* opcode that produces
// it, per §4.2. Only whole-type casts the spec names are supported; ToType on
// any other target is an ImpossibleCastError.
var castTargets = map[lattice.Type]InputOp{
	lattice.Boolean:     OpCastBoolean,
	lattice.Number:      OpCastNumber,
	lattice.NumberOrNaN: OpCastNumberOrNaN,
	lattice.Int:         OpCastNumberIndex,
	lattice.String:      OpCastString,
}

// ToType returns target wrapped so that its result is always within T,
// per §4.2: if target is already IsAlways(T), it is returned unchanged;
// otherwise a new CAST_* node wraps it. On a CONSTANT, the cast instead
// happens at build time, replacing the stored literal (constant folding).
func ToType(target *Input, T lattice.Type) (*Input, error) {
	if lattice.IsAlways(target.Type, T) {
		return target, nil
	}

	op, ok := castTargets[T]
	if !ok {
		return nil, &ImpossibleCastError{Target: T}
	}

	if target.Op == OpConstant {
		folded, err := foldConstantCast(target, op)
		if err == nil {
			return folded, nil
		}
		// Fall through to a wrapping cast node if foldConstantCast has no
		// rule for op; every opcode in castTargets has one, so a CONSTANT
		// is always folded here (a non-numeric literal cast to an index
		// folds to 0).
	}

	return &Input{
		Op:     op,
		Inputs: map[string]Node{"VALUE": target},
		Type:   T,
	}, nil
}

// IsConstant reports whether target is a CONSTANT whose literal equals v
// (§4.2). Numeric v is compared after coercing the stored literal to a
// number, matching host dynamic-typing semantics (coercion lives in
// runtimeval, imported here only for this comparison).
func IsConstant(target *Input, v any) bool {
	if target.Op != OpConstant {
		return false
	}
	switch want := v.(type) {
	case float64:
		lit := toNumberLiteral(target.Literal)
		return lit == want
	case bool:
		b, ok := target.Literal.(bool)
		return ok && b == want
	case string:
		s, ok := target.Literal.(string)
		return ok && s == want
	default:
		return false
	}
}
