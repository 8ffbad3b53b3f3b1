// Package codegen implements C6: it lowers a rewritten IR (internal/ir) into
// an executable Go closure (spec §4.6's "function factory" — see Design
// Notes below for why this targets closures rather than the reference
// host's textual function-factory string + eval).
//
// Grounded on the teacher's bytecode compiler shape
// (internal/vm/compiler_scope.go's scope/local-pool bookkeeping,
// internal/vm/vm_ops.go's opcode-dispatch switch) adapted: instead of
// emitting bytecode for a stack VM, Compile walks the IR once and builds a
// tree of Go closures directly — the "codegen" step and the "execution"
// step are the same recursive descent, which is the idiomatic Go analogue
// of a tree-walking compile-to-closures strategy the teacher itself uses
// for its treewalk backend (internal/backend/treewalk.go) rather than its
// VM for simpler cases.
//
// Design Notes (departure from the textual spec): spec §4.6 describes
// emitting a JS source string handed to an eval-like host facility. This
// implementation instead compiles straight to native Go closures executed
// cooperatively on goroutines (internal/thread), with `yield` modelled as a
// channel handoff rather than a JS generator. Spec §9 explicitly allows
// this: "(a) emit coroutine/generator code in a target that supports it ...
// the specification does not require source text." Retirement, warp
// suppression and the per-opcode lowering rules of §4.6 are kept; the
// representation of "the emitted function" changes from text to a closure
// value. Script.Yields is not consulted: loops and waits decide at run time
// (Thread.InWarp) whether to yield, and a yielding construct inside a script
// whose Yields flag is false compiles without error.
package codegen

import (
	"context"

	"github.com/blockwarp/tw-compiler/internal/config"
	"github.com/blockwarp/tw-compiler/internal/hostbridge"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
	"github.com/blockwarp/tw-compiler/internal/thread"
)

// ScriptFunc is the compiled form of a Script: the "plain function or
// yielding generator-style function" of spec §4.6, unified into one shape
// since yielding is a goroutine-level concern (internal/thread.Thread.Yield)
// rather than a distinct Go function signature.
type ScriptFunc func(ctx context.Context, env *Env) error

// CompiledProcedure pairs a procedure's ScriptFunc with the yields/warp
// flags PROCEDURE_CALL lowering needs (spec §4.6 "PROCEDURE_CALL: ... if the
// callee yields prefix the call with yield*").
type CompiledProcedure struct {
	Func       ScriptFunc
	Yields     bool
	IsWarp     bool
	ArgNames   []string
	ProcedureCode string
}

// Env is the runtime environment a compiled ScriptFunc closes over: the
// thread handle, the resolved target/stage/runtime triple the factory
// preamble binds (spec §4.6: "target = thread.target, runtime =
// target.runtime, stage = runtime.stageTarget()"), the procedure table for
// PROCEDURE_CALL, and the current procedure-argument bindings.
type Env struct {
	Thread  *thread.Thread
	Target  hostbridge.Target
	Stage   hostbridge.Target
	Runtime hostbridge.Runtime

	Procedures map[string]*CompiledProcedure
	Args       map[string]runtimeval.Value

	// descendedIntoModulo mirrors the teacher-grounded compiler flag of the
	// same name in spec §4.6's Arithmetic rule: set after evaluating a MOD
	// input, consulted by a following motion setter to decide whether to
	// clear target.interpolationData.
	descendedIntoModulo bool
}

func (e *Env) child(args map[string]runtimeval.Value) *Env {
	return &Env{
		Thread: e.Thread, Target: e.Target, Stage: e.Stage, Runtime: e.Runtime,
		Procedures: e.Procedures, Args: args,
	}
}

// Generator compiles IR into ScriptFuncs.
type Generator struct {
	// currentVariant tracks which procedure (by variant key) is currently
	// being compiled, so recursive PROCEDURE_CALL lowering (spec §4.6:
	// "direct recursion ... yields first") can detect self-calls without a
	// full call graph.
	currentVariant string
}

// New returns a Generator.
func New() *Generator { return &Generator{} }

// Compile lowers the entry Script into a ScriptFunc (spec §6 "compile(script,
// ir, target) → factory function"). Use CompileProcedure for a procedure
// Script instead, so self-recursive PROCEDURE_CALL lowering can see its own
// variant key.
func (g *Generator) Compile(script *ir.Script, procedures map[string]*CompiledProcedure) (ScriptFunc, error) {
	g.currentVariant = ""
	return g.compile(script, procedures)
}

// CompileProcedure lowers one procedure Script, identified by its variant
// key in the IR's Procedures map, so a PROCEDURE_CALL block referencing that
// same variant (spec §4.6 direct recursion) is recognized as a self-call.
func (g *Generator) CompileProcedure(variant string, script *ir.Script, procedures map[string]*CompiledProcedure) (ScriptFunc, error) {
	g.currentVariant = variant
	return g.compile(script, procedures)
}

func (g *Generator) compile(script *ir.Script, procedures map[string]*CompiledProcedure) (ScriptFunc, error) {
	body, err := g.compileStack(script.Body)
	if err != nil {
		return nil, err
	}

	yields := script.Yields
	isProcedure := script.IsProcedure

	return func(ctx context.Context, env *Env) error {
		env.Procedures = procedures
		err := body(ctx, env)
		if err != nil && err != errStopScript {
			return err
		}
		if !isProcedure {
			env.Thread.Retire()
		}
		_ = yields // not checked: the compiled body yields according to Thread.InWarp, whatever script.Yields says.
		return nil
	}, nil
}

// helperName documents which scopedEval helper (spec §4.6) a given Go
// function stands in for, purely for diagnostics (internal/diag logs this
// name instead of the literal emitted call spec's textual target would
// have produced).
type helperName = string

const (
	hnToBoolean      helperName = config.HelperToBoolean
	hnMod            helperName = config.HelperMod
	hnCompareEqual   helperName = config.HelperCompareEqual
	hnCompareLess    helperName = config.HelperCompareLessThan
	hnCompareGreater helperName = config.HelperCompareGreater
)
