// Package analyzer implements C4: a monotone dataflow fixed-point pass over
// an IR (internal/ir), threading a TypeState (internal/typestate) through
// straight-line code, branches, and loops, and recording per-block
// entry/exit snapshots the rewriter (C5) later reads (spec §4.4).
//
// This replaces the funxy teacher's Hindley-Milner-style static type
// inference (its internal/analyzer was a unification-based solver over
// declarations, instances, and patterns — see DESIGN.md for why none of that
// machinery transfers). What does transfer is the teacher's
// SemanticAnalyzerProcessor shape: a struct with one exported entry method,
// walking a tree and accumulating results into fields the caller reads back
// (internal/analyzer/processor.go in the teacher repo, before this package
// was rewritten) — mirrored here as the Analyzer struct and its Analyze
// method.
package analyzer

import (
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/lattice"
	"github.com/blockwarp/tw-compiler/internal/typestate"
)

// Summary is a procedure's recorded effect: which variables it may have
// mutated (argument types are not recorded). The spec leaves procedures
// "non-summarizing" for this version (§4.4: "the design leaves a hook for
// summary-based refinement") — Summaries is always empty in this
// implementation, and PROCEDURE_CALL always clears state at the call site.
// The field exists so a future refinement can populate it without changing
// the Analyzer's public shape.
type Summary struct {
	Mutates []string
}

// Analyzer runs the fixed-point analysis over one IR, in the order §4.4
// mandates: every depended procedure first (fresh state each), then the
// entry script.
type Analyzer struct {
	Summaries map[string]*Summary
}

// New returns an Analyzer ready to run.
func New() *Analyzer {
	return &Analyzer{Summaries: make(map[string]*Summary)}
}

// Analyze runs C4 over the whole IR: dependency-ordered procedures, then the
// entry script. It never errors (spec §7: "Analyzer is infallible").
func (a *Analyzer) Analyze(program *ir.IR) {
	for _, variant := range program.Entry.DependedProcedures {
		if proc, ok := program.Procedures[variant]; ok {
			a.analyzeScript(proc, program)
		}
	}
	a.analyzeScript(program.Entry, program)
}

func (a *Analyzer) analyzeScript(script *ir.Script, program *ir.IR) {
	state := typestate.New()
	for _, name := range script.ArgumentNames {
		state.Set(name, lattice.Any)
	}
	a.analyzeStack(script.Body, state, program)
}

// analyzeStack threads state through an ordered sequence of blocks,
// recording each block's entry/exit snapshot.
func (a *Analyzer) analyzeStack(stack *ir.Stack, state *typestate.State, program *ir.IR) {
	if stack == nil {
		return
	}
	for _, block := range stack.Blocks {
		block.SetEntryState(state.Clone())
		a.analyzeBlock(block, state, program)
		joinExit(block, state)
	}
}

// joinExit records block's exit state, joining with any prior recorded exit
// (a block revisited during loop fixed-point iteration accumulates rather
// than overwrites — spec §3: "exit state (joined if revisited)").
func joinExit(block *ir.Block, state *typestate.State) {
	if prev, ok := block.ExitState().(*typestate.State); ok {
		merged := prev.Clone()
		merged.Or(state)
		block.SetExitState(merged)
		return
	}
	block.SetExitState(state.Clone())
}

// analyzeBlock dispatches on the block's StackOp and mutates state in place
// per §4.4's case analysis.
func (a *Analyzer) analyzeBlock(block *ir.Block, state *typestate.State, program *ir.IR) {
	switch block.Op {
	case ir.OpVarSet:
		if v, ok := block.Field["var"]; ok {
			if val, ok := block.Inputs["VALUE"].(*ir.Input); ok {
				t := a.analyzeInput(val, state, program)
				state.Set(v, t)
				return
			}
		}
		state.Clear()

	case ir.OpIfElse:
		thenClone := state.Clone()
		if thenStack, ok := block.Inputs["THEN"].(*ir.Stack); ok {
			a.analyzeStack(thenStack, thenClone, program)
		}
		if elseStack, ok := block.Inputs["ELSE"].(*ir.Stack); ok {
			a.analyzeStack(elseStack, state, program)
		}
		state.Or(thenClone)

	case ir.OpWhile, ir.OpRepeat, ir.OpFor:
		a.analyzeLoop(block, state, program)

	case ir.OpProcedureCall:
		variant, _ := block.Field["variant"]
		if summary, ok := a.Summaries[variant]; ok {
			for _, v := range summary.Mutates {
				state.Set(v, lattice.Any)
			}
			return
		}
		state.Clear()

	default:
		if block.Yields || mayReachUserCode(block.Op) {
			state.Clear()
		}
	}
}

// mayReachUserCode reports whether a stack opcode can hand control to
// observer-visible user code even without its own Yields flag set (spec
// §4.4: "Any other command whose yields flag is set, or COMPATIBILITY_LAYER
// that may reach user code: state.clear()").
func mayReachUserCode(op ir.StackOp) bool {
	switch op {
	case ir.OpCompatibilityLayerCommand, ir.OpAddonCall, ir.OpEventBroadcastAndWait:
		return true
	default:
		return false
	}
}

// analyzeLoop implements the fixed-point loop rule (§4.4): copy state,
// analyze the body on the copy, state.or(copy), repeat until Or reports no
// change. A loop whose head yields is cleared once instead (further
// iteration is pointless once state is already top for mutated variables).
func (a *Analyzer) analyzeLoop(block *ir.Block, state *typestate.State, program *ir.IR) {
	body, _ := block.Inputs["BODY"].(*ir.Stack)

	if block.Yields {
		state.Clear()
		block.SetEntryState(state.Clone())
		a.analyzeStack(body, state, program)
		return
	}

	const maxIterations = 64 // |atoms|*|vars| bound in practice; a hard stop guards malformed IR.
	for i := 0; i < maxIterations; i++ {
		copyState := state.Clone()
		a.analyzeStack(body, copyState, program)
		if !state.Or(copyState) {
			break
		}
	}
}

// analyzeInput computes an Input's refined type by the case analysis of
// §4.4, recursing into sub-inputs first.
func (a *Analyzer) analyzeInput(in *ir.Input, state *typestate.State, program *ir.IR) lattice.Type {
	switch in.Op {
	case ir.OpConstant:
		return in.Type

	case ir.OpVarGet:
		v := in.Field["var"]
		t := state.Get(v)
		in.Type = t
		return t

	case ir.OpCastNumber:
		target := a.inputOf(in, "VALUE", state, program)
		if lattice.IsSometimes(target, lattice.Number) {
			t := lattice.Meet(target, lattice.NumberOrNaN)
			if lattice.IsSometimes(t, lattice.NaN) {
				t = (t &^ lattice.NaN) | lattice.Zero
			}
			in.Type = t
			return t
		}
		in.Type = lattice.Number
		return lattice.Number

	case ir.OpCastNumberOrNaN:
		target := a.inputOf(in, "VALUE", state, program)
		if lattice.IsSometimes(target, lattice.NumberOrNaN) {
			t := lattice.Meet(target, lattice.NumberOrNaN)
			in.Type = t
			return t
		}
		in.Type = lattice.NumberOrNaN
		return lattice.NumberOrNaN

	case ir.OpCastBoolean:
		a.inputOf(in, "VALUE", state, program)
		in.Type = lattice.Boolean
		return lattice.Boolean

	case ir.OpCastNumberIndex:
		a.inputOf(in, "VALUE", state, program)
		in.Type = lattice.Int
		return lattice.Int

	case ir.OpCastString:
		a.inputOf(in, "VALUE", state, program)
		in.Type = lattice.String
		return lattice.String

	case ir.OpAdd:
		a1 := a.inputOf(in, "NUM1", state, program)
		b1 := a.inputOf(in, "NUM2", state, program)
		t := addAtom(a1, b1)
		in.Type = t
		return t

	case ir.OpSub:
		a1 := a.inputOf(in, "NUM1", state, program)
		b1 := a.inputOf(in, "NUM2", state, program)
		t := subAtom(a1, b1)
		in.Type = t
		return t

	case ir.OpMul:
		a1 := a.inputOf(in, "NUM1", state, program)
		b1 := a.inputOf(in, "NUM2", state, program)
		t := mulAtom(a1, b1)
		in.Type = t
		return t

	case ir.OpDiv:
		a1 := a.inputOf(in, "NUM1", state, program)
		b1 := a.inputOf(in, "NUM2", state, program)
		t := divAtom(a1, b1)
		in.Type = t
		return t

	case ir.OpMod:
		a.inputOf(in, "NUM1", state, program)
		a.inputOf(in, "NUM2", state, program)
		in.Type = lattice.NumberOrNaN
		return lattice.NumberOrNaN

	case ir.OpAnd, ir.OpOr, ir.OpNot, ir.OpEq, ir.OpLt, ir.OpGt:
		for _, child := range in.Inputs {
			a.analyzeNode(child, state, program)
		}
		in.Type = lattice.Boolean
		return lattice.Boolean

	case ir.OpLen, ir.OpListLength:
		for _, child := range in.Inputs {
			a.analyzeNode(child, state, program)
		}
		t := lattice.PosInt | lattice.Zero
		in.Type = t
		return t

	case ir.OpAbs:
		a.inputOf(in, "NUM", state, program)
		t := lattice.Number &^ lattice.Neg
		in.Type = t
		return t

	case ir.OpFloor, ir.OpCeil, ir.OpRound:
		a.inputOf(in, "NUM", state, program)
		t := lattice.Number &^ lattice.Fract
		in.Type = t
		return t

	case ir.OpSqrt:
		a.inputOf(in, "NUM", state, program)
		in.Type = lattice.NumberOrNaN
		return lattice.NumberOrNaN

	default:
		for _, child := range in.Inputs {
			a.analyzeNode(child, state, program)
		}
		return in.Type
	}
}

// inputOf analyzes a named sub-input and returns its refined type, or ANY if
// the named input is absent or not an *Input (malformed IR is tolerated per
// §7: "the node's previous type is retained").
func (a *Analyzer) inputOf(parent *ir.Input, name string, state *typestate.State, program *ir.IR) lattice.Type {
	child, ok := parent.Inputs[name].(*ir.Input)
	if !ok {
		return lattice.Any
	}
	return a.analyzeInput(child, state, program)
}

// analyzeNode dispatches a generic Node (either an *Input expression or a
// nested *Stack, e.g. inside OP_AND's short-circuit operands — which this
// lattice treats as plain expressions with no control-flow effect on
// TypeState).
func (a *Analyzer) analyzeNode(n ir.Node, state *typestate.State, program *ir.IR) {
	switch v := n.(type) {
	case *ir.Input:
		a.analyzeInput(v, state, program)
	case *ir.Stack:
		a.analyzeStack(v, state, program)
	}
}
