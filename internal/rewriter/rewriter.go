// Package rewriter implements C5: a second IR pass that reads the
// entry/exit TypeState annotations C4 recorded and drops cast nodes the
// analysis proved redundant (spec §4.5).
//
// Grounded on the teacher's tree-rewriting idiom in internal/backend's
// constant-folding helpers (a bottom-up recursive walk returning a possibly
// different node) adapted to IR's flat opcode+inputs-map shape instead of
// the teacher's typed-AST-node hierarchy.
package rewriter

import (
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/lattice"
	"github.com/blockwarp/tw-compiler/internal/typestate"
)

// castTargetTypes maps a CAST_* opcode to the lattice type it guarantees,
// the inverse of the mapping ir.ToType uses to pick an opcode from a target
// type.
var castTargetTypes = map[ir.InputOp]lattice.Type{
	ir.OpCastBoolean:     lattice.Boolean,
	ir.OpCastNumber:      lattice.Number,
	ir.OpCastNumberOrNaN: lattice.NumberOrNaN,
	ir.OpCastNumberIndex: lattice.Int,
	ir.OpCastString:      lattice.String,
}

// Rewriter walks an already-analyzed IR and eliminates redundant casts.
type Rewriter struct{}

// New returns a Rewriter.
func New() *Rewriter { return &Rewriter{} }

// Rewrite mutates program's entry script and every procedure in place,
// replacing CAST_T(x) nodes with x wherever C4 proved x already satisfies T.
// Idempotent: a second Rewrite call on an already-rewritten tree is a no-op
// (spec §8 property 6).
func (r *Rewriter) Rewrite(program *ir.IR) {
	for _, proc := range program.Procedures {
		r.rewriteStack(proc.Body, typestate.New())
	}
	r.rewriteStack(program.Entry.Body, typestate.New())
}

// rewriteStack walks a Stack's blocks in order, re-deriving the "current
// state" at each boundary from the block's recorded entry annotation (spec
// §4.5: "reads annotations to reset at block boundaries").
func (r *Rewriter) rewriteStack(stack *ir.Stack, state *typestate.State) {
	if stack == nil {
		return
	}
	for _, block := range stack.Blocks {
		if entry, ok := block.EntryState().(*typestate.State); ok {
			state = entry
		}
		r.rewriteBlockInputs(block, state)
		r.rewriteNested(block, state)
	}
}

// rewriteNested recurses into any nested Stack a control-flow block carries
// (THEN/ELSE/BODY), so casts inside branches and loop bodies are rewritten
// too.
func (r *Rewriter) rewriteNested(block *ir.Block, state *typestate.State) {
	for _, node := range block.Inputs {
		if nested, ok := node.(*ir.Stack); ok {
			r.rewriteStack(nested, state)
		}
	}
}

// rewriteBlockInputs rewrites every top-level Input a Block carries (its
// arguments), replacing each with the result of rewriteInput.
func (r *Rewriter) rewriteBlockInputs(block *ir.Block, state *typestate.State) {
	for key, node := range block.Inputs {
		if in, ok := node.(*ir.Input); ok {
			block.Inputs[key] = r.rewriteInput(in, state)
		}
	}
}

// rewriteInput recurses bottom-up (spec §4.5: "recurses into each input
// subtree ... then for cast opcodes"): children are rewritten first, then if
// this node is a cast whose inner value is already within the cast's target
// type, the inner node is returned in its place. Every surviving input's
// Type field is refreshed from the node itself (it already carries the
// analyzer's result from C4; this pass does not re-run analysis, only
// reads it).
func (r *Rewriter) rewriteInput(in *ir.Input, state *typestate.State) *ir.Input {
	for key, child := range in.Inputs {
		if ci, ok := child.(*ir.Input); ok {
			in.Inputs[key] = r.rewriteInput(ci, state)
		} else if cs, ok := child.(*ir.Stack); ok {
			r.rewriteStack(cs, state)
		}
	}

	target, isCast := castTargetTypes[in.Op]
	if !isCast {
		return in
	}
	inner, ok := in.Inputs["VALUE"].(*ir.Input)
	if !ok {
		return in
	}
	if lattice.IsAlways(inner.Type, target) {
		return inner
	}
	return in
}
