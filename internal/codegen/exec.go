package codegen

import (
	"context"
	"fmt"

	"github.com/blockwarp/tw-compiler/internal/hostbridge"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// stackFunc is a compiled Stack: an ordered sequence of compiled blocks.
type stackFunc func(ctx context.Context, env *Env) error

// compileStack compiles every block of stack in order into one stackFunc.
// A nil stack compiles to a no-op, matching an empty CONTROL_IF_ELSE arm
// (spec §4.6 "CONTROL_IF_ELSE: omit the else arm when empty").
func (g *Generator) compileStack(stack *ir.Stack) (stackFunc, error) {
	if stack == nil {
		return func(context.Context, *Env) error { return nil }, nil
	}
	compiled := make([]stackFunc, 0, len(stack.Blocks))
	for _, block := range stack.Blocks {
		bf, err := g.compileBlock(block)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, bf)
	}
	return func(ctx context.Context, env *Env) error {
		for _, bf := range compiled {
			if err := bf(ctx, env); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// compileBlock compiles a single statement opcode. Unknown opcodes are a
// MalformedIRError at compile time (spec §7).
func (g *Generator) compileBlock(block *ir.Block) (stackFunc, error) {
	switch block.Op {
	case ir.OpVarSet:
		return g.compileVarSet(block)

	case ir.OpIfElse:
		return g.compileIfElse(block)

	case ir.OpWhile, ir.OpWaitUntil:
		return g.compileWhileLike(block)

	case ir.OpRepeat:
		return g.compileRepeat(block)

	case ir.OpFor:
		return g.compileFor(block)

	case ir.OpWait:
		return g.compileWait(block)

	case ir.OpStopScript:
		return g.compileStopScript(block)

	case ir.OpListAdd, ir.OpListInsert, ir.OpListReplace, ir.OpListDelete, ir.OpListDeleteAll:
		return g.compileListCommand(block)

	case ir.OpMotionSetXY, ir.OpMotionXSet, ir.OpMotionYSet, ir.OpMotionXYSet:
		return g.compileMotionSetter(block)

	case ir.OpLooksShow, ir.OpLooksHide:
		return g.compileLooksVisibility(block)

	case ir.OpPenDown, ir.OpPenUp:
		return g.compilePen(block)

	case ir.OpEventBroadcast:
		return g.compileEventBroadcast(block)

	case ir.OpVarShow, ir.OpVarHide, ir.OpListShow, ir.OpListHide:
		return g.compileMonitorVisibility(block)

	case ir.OpStopAll, ir.OpCloneDelete:
		return func(ctx context.Context, env *Env) error {
			env.Thread.Retire()
			if env.Runtime != nil {
				env.Runtime.StopAll()
			}
			return nil
		}, nil

	case ir.OpEventBroadcastAndWait:
		return g.compileBroadcastAndWait(block)

	case ir.OpProcedureCall:
		return g.compileProcedureCall(block)

	case ir.OpVisualReport:
		return g.compileVisualReport(block)

	case ir.OpCompatibilityLayerCommand, ir.OpAddonCall:
		return g.compileCompatibilityCommand(block)

	case ir.OpDebugger, ir.OpNop:
		return func(context.Context, *Env) error { return nil }, nil

	default:
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "no codegen lowering rule registered"}
	}
}

func (g *Generator) compileVarSet(block *ir.Block) (stackFunc, error) {
	name, ok := block.Field["var"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"var\" field"}
	}
	valIn, ok := block.Inputs["VALUE"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing VALUE input"}
	}
	valFn, err := g.compileInput(valIn)
	if err != nil {
		return nil, err
	}
	scope := block.Field["scope"]
	return func(ctx context.Context, env *Env) error {
		v, err := valFn(ctx, env)
		if err != nil {
			return err
		}
		setVariable(env, scope, name, v)
		return nil
	}, nil
}

func setVariable(env *Env, scope, name string, v runtimeval.Value) {
	target := env.Target
	if scope == "stage" {
		target = env.Stage
	}
	if target == nil {
		return
	}
	vars := target.Variables()
	cell, ok := vars[name]
	if !ok {
		cell = &hostbridge.Variable{Name: name}
		vars[name] = cell
	}
	cell.Value = v
}

func getVariable(env *Env, scope, name string) runtimeval.Value {
	target := env.Target
	if scope == "stage" {
		target = env.Stage
	}
	if target == nil {
		return runtimeval.String("")
	}
	if cell, ok := target.Variables()[name]; ok {
		if v, ok := cell.Value.(runtimeval.Value); ok {
			return v
		}
	}
	return runtimeval.String("")
}

// compileIfElse implements CONTROL_IF_ELSE: omit the else arm when empty
// (spec §4.6).
func (g *Generator) compileIfElse(block *ir.Block) (stackFunc, error) {
	condIn, ok := block.Inputs["CONDITION"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing CONDITION input"}
	}
	condFn, err := g.compileInput(condIn)
	if err != nil {
		return nil, err
	}
	var thenFn, elseFn stackFunc
	if thenStack, ok := block.Inputs["THEN"].(*ir.Stack); ok {
		thenFn, err = g.compileStack(thenStack)
		if err != nil {
			return nil, err
		}
	} else {
		thenFn = func(context.Context, *Env) error { return nil }
	}
	if elseStack, ok := block.Inputs["ELSE"].(*ir.Stack); ok {
		elseFn, err = g.compileStack(elseStack)
		if err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context, env *Env) error {
		cond, err := condFn(ctx, env)
		if err != nil {
			return err
		}
		if runtimeval.ToBoolean(literalOf(cond)) {
			return thenFn(ctx, env)
		}
		if elseFn != nil {
			return elseFn(ctx, env)
		}
		return nil
	}, nil
}

// yieldIfNotWarp implements the warp-mode suppression rule (spec §4.6 Yield
// discipline / §5): a non-warp script yields every loop iteration; in warp
// mode it never yields. There is no "stuck" check: a warp-mode loop runs to
// completion without handing control back to the scheduler.
func yieldIfNotWarp(env *Env) error {
	if env.Thread.InWarp() {
		return nil
	}
	return env.Thread.Yield()
}

// compileWhileLike implements CONTROL_WHILE and CONTROL_WAIT_UNTIL, which
// share the same "loop until condition, yield each iteration unless in warp
// mode" shape (spec §4.6).
func (g *Generator) compileWhileLike(block *ir.Block) (stackFunc, error) {
	condIn, ok := block.Inputs["CONDITION"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing CONDITION input"}
	}
	condFn, err := g.compileInput(condIn)
	if err != nil {
		return nil, err
	}
	invert := block.Op == ir.OpWaitUntil // WAIT_UNTIL loops while NOT condition
	var bodyFn stackFunc
	if block.Op == ir.OpWhile {
		bodyStack, _ := block.Inputs["BODY"].(*ir.Stack)
		bodyFn, err = g.compileStack(bodyStack)
		if err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context, env *Env) error {
		for {
			cond, err := condFn(ctx, env)
			if err != nil {
				return err
			}
			truth := runtimeval.ToBoolean(literalOf(cond))
			if invert {
				if truth {
					return nil
				}
			} else if !truth {
				return nil
			}
			if bodyFn != nil {
				if err := bodyFn(ctx, env); err != nil {
					return err
				}
			}
			if err := yieldIfNotWarp(env); err != nil {
				return err
			}
		}
	}, nil
}

// compileRepeat implements CONTROL_REPEAT: `for (i = N; i >= 0.5; i--)`
// using a fresh local (spec §4.6).
func (g *Generator) compileRepeat(block *ir.Block) (stackFunc, error) {
	countIn, ok := block.Inputs["TIMES"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing TIMES input"}
	}
	countFn, err := g.compileInput(countIn)
	if err != nil {
		return nil, err
	}
	bodyStack, _ := block.Inputs["BODY"].(*ir.Stack)
	bodyFn, err := g.compileStack(bodyStack)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, env *Env) error {
		n, err := countFn(ctx, env)
		if err != nil {
			return err
		}
		i := runtimeval.ToNumber(literalOf(n))
		for i >= 0.5 {
			if err := bodyFn(ctx, env); err != nil {
				return err
			}
			if err := yieldIfNotWarp(env); err != nil {
				return err
			}
			i--
		}
		return nil
	}, nil
}

// compileFor implements CONTROL_FOR: local init 0, `< count` increment,
// writes to the loop variable, then recurses into body (spec §4.6).
func (g *Generator) compileFor(block *ir.Block) (stackFunc, error) {
	countIn, ok := block.Inputs["COUNT"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing COUNT input"}
	}
	countFn, err := g.compileInput(countIn)
	if err != nil {
		return nil, err
	}
	varName, ok := block.Field["var"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"var\" field"}
	}
	scope := block.Field["scope"]
	bodyStack, _ := block.Inputs["BODY"].(*ir.Stack)
	bodyFn, err := g.compileStack(bodyStack)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, env *Env) error {
		n, err := countFn(ctx, env)
		if err != nil {
			return err
		}
		count := runtimeval.ToNumber(literalOf(n))
		for i := 0.0; i < count; {
			i++
			setVariable(env, scope, varName, runtimeval.Number(i))
			if err := bodyFn(ctx, env); err != nil {
				return err
			}
			if err := yieldIfNotWarp(env); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// compileWait implements CONTROL_WAIT: set thread.timer, request a redraw,
// always yield once, loop while the timer hasn't elapsed issuing yields
// (spec §4.6).
func (g *Generator) compileWait(block *ir.Block) (stackFunc, error) {
	durIn, ok := block.Inputs["DURATION"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing DURATION input"}
	}
	durFn, err := g.compileInput(durIn)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, env *Env) error {
		d, err := durFn(ctx, env)
		if err != nil {
			return err
		}
		seconds := runtimeval.ToNumber(literalOf(d))
		env.Thread.SetTimer(seconds)
		if env.Runtime != nil {
			env.Runtime.RequestRedraw()
		}
		if err := env.Thread.Yield(); err != nil {
			return err
		}
		for env.Thread.TimerValue() > 0 {
			env.Thread.SetTimer(env.Thread.TimerValue() - tickSeconds)
			if err := env.Thread.Yield(); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// tickSeconds approximates one scheduler tick's wall-clock advance for
// CONTROL_WAIT's countdown; the out-of-scope runtime owns the real clock and
// would drive this through Thread instead in a full integration.
const tickSeconds = 1.0 / 30.0

// compileStopScript implements CONTROL_STOP_SCRIPT: inside a procedure,
// return; otherwise retire() then return (spec §4.6).
func (g *Generator) compileStopScript(block *ir.Block) (stackFunc, error) {
	insideProcedure := g.currentVariant != ""
	return func(ctx context.Context, env *Env) error {
		if !insideProcedure {
			env.Thread.Retire()
		}
		return errStopScript
	}, nil
}

// errStopScript is a sentinel the compiled Stack loop must treat as a clean
// early return, not a propagating failure; the ScriptFunc wrapper built in
// codegen.go special-cases it, and since every compiled procedure is such a
// wrapper, a stop inside a callee ends only that callee.
var errStopScript = fmt.Errorf("stop script")
