package codegen

import (
	"context"

	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// compileProcedureCall implements PROCEDURE_CALL (spec §4.6): direct
// recursion (same procedure code, non-warp) yields first; if the callee
// yields, the call is effectively a `yield*` (modelled here as the callee
// running on the same goroutine and issuing its own Yield calls, which
// already propagate through the shared Thread); arguments are lowered in
// order; an empty-bodied callee emits nothing.
func (g *Generator) compileProcedureCall(block *ir.Block) (stackFunc, error) {
	variant, ok := block.Field["variant"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"variant\" field"}
	}

	argFns := make(map[string]inputFunc)
	for key, node := range block.Inputs {
		in, ok := node.(*ir.Input)
		if !ok {
			continue
		}
		fn, err := g.compileInput(in)
		if err != nil {
			return nil, err
		}
		argFns[key] = fn
	}

	isSelfRecursion := variant == g.currentVariant

	return func(ctx context.Context, env *Env) error {
		proc, ok := env.Procedures[variant]
		if !ok {
			return &ir.MissingProcedureError{Variant: variant}
		}
		if proc.Func == nil {
			return nil // empty-bodied callee emits nothing.
		}

		if isSelfRecursion && !proc.IsWarp {
			if err := env.Thread.Yield(); err != nil {
				return err
			}
		}

		args := make(map[string]runtimeval.Value, len(argFns))
		for _, name := range proc.ArgNames {
			if fn, ok := argFns[name]; ok {
				v, err := fn(ctx, env)
				if err != nil {
					return err
				}
				args[name] = v
			}
		}

		childEnv := env.child(args)
		if proc.IsWarp {
			env.Thread.EnterWarp()
			defer env.Thread.ExitWarp()
		}
		return proc.Func(ctx, childEnv)
	}, nil
}

// compileBroadcastAndWait implements EVENT_BROADCAST_AND_WAIT: emits
// `yield* waitThreads(startHats(...))` in the textual target. startHats and
// waitThreads are runtime responsibilities (spec §4.7); the compiler's
// obligation is to start the hats through the "events" extension handle and
// then yield until the returned handle reports completion.
func (g *Generator) compileBroadcastAndWait(block *ir.Block) (stackFunc, error) {
	eventName, ok := block.Field["event"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"event\" field"}
	}
	return func(ctx context.Context, env *Env) error {
		if env.Runtime == nil {
			return nil
		}
		handle, ok := env.Runtime.ExtensionHandle("events")
		if !ok {
			return env.Thread.Yield()
		}
		started, err := handle.Call(ctx, "startHats", map[string]interface{}{"event": eventName})
		if err != nil {
			return err
		}
		for {
			if err := env.Thread.Yield(); err != nil {
				return err
			}
			done, err := handle.Call(ctx, "waitThreads", map[string]interface{}{"threads": started})
			if err != nil {
				return err
			}
			if b, ok := done.(bool); ok && b {
				return nil
			}
			if done == nil {
				return nil
			}
		}
	}, nil
}

// compileVisualReport implements VISUAL_REPORT: capture the result in a
// local; if not undefined, call runtime.visualReport(topBlockId, value)
// (spec §4.6).
func (g *Generator) compileVisualReport(block *ir.Block) (stackFunc, error) {
	valIn, ok := block.Inputs["VALUE"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing VALUE input"}
	}
	valFn, err := g.compileInput(valIn)
	if err != nil {
		return nil, err
	}
	topBlockID := block.Field["topBlockId"]
	return func(ctx context.Context, env *Env) error {
		v, err := valFn(ctx, env)
		if err != nil {
			return err
		}
		if env.Runtime != nil {
			env.Runtime.VisualReport(topBlockID, v)
		}
		return nil
	}, nil
}

// compileCompatibilityInput implements COMPATIBILITY_LAYER used as an Input
// (spec §3): a host callback read into a value, with the same yielding shim
// dispatch as the statement form.
func (g *Generator) compileCompatibilityInput(in *ir.Input) (inputFunc, error) {
	opcode, ok := in.Field["op"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"op\" field"}
	}
	argFns := make(map[string]inputFunc)
	for key, node := range in.Inputs {
		child, ok := node.(*ir.Input)
		if !ok {
			continue
		}
		fn, err := g.compileInput(child)
		if err != nil {
			return nil, err
		}
		argFns[key] = fn
	}
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		args := make(map[string]interface{}, len(argFns))
		for name, fn := range argFns {
			v, err := fn(ctx, env)
			if err != nil {
				return nil, err
			}
			args[name] = literalOf(v)
		}
		if env.Runtime == nil {
			return runtimeval.String(""), nil
		}
		handle, ok := env.Runtime.ExtensionHandle(opcode)
		if !ok {
			fn, ok := env.Runtime.OpcodeFunction(opcode)
			if !ok {
				return runtimeval.String(""), nil
			}
			result, err := fn(ctx, args)
			if err != nil {
				return nil, err
			}
			if err := env.Thread.Yield(); err != nil {
				return nil, err
			}
			return toRuntimeValue(result), nil
		}
		result, err := handle.Call(ctx, opcode, args)
		if err != nil {
			return nil, err
		}
		if err := env.Thread.Yield(); err != nil {
			return nil, err
		}
		return toRuntimeValue(result), nil
	}, nil
}

// toRuntimeValue wraps a raw host-callback result into a runtimeval.Value,
// defaulting to its string coercion when the host returned something that
// isn't already a Value (numbers, bools, nil).
func toRuntimeValue(v interface{}) runtimeval.Value {
	if rv, ok := v.(runtimeval.Value); ok {
		return rv
	}
	switch t := v.(type) {
	case float64:
		return runtimeval.Number(t)
	case bool:
		return runtimeval.Bool(t)
	case string:
		return runtimeval.String(t)
	case nil:
		return runtimeval.String("")
	default:
		return runtimeval.String(runtimeval.ToStringVal(v))
	}
}

// compileCompatibilityCommand implements COMPATIBILITY_LAYER / ADDON_CALL as
// statements: yields into the runtime shim with inputs/fields supplied as a
// map (spec §4.6). Always clears analyzer state at the call site (handled
// at the analyzer level, spec §4.4); here it is simply a yielding call
// through the extension handle.
func (g *Generator) compileCompatibilityCommand(block *ir.Block) (stackFunc, error) {
	opcode, ok := block.Field["op"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"op\" field"}
	}
	argFns := make(map[string]inputFunc)
	for key, node := range block.Inputs {
		in, ok := node.(*ir.Input)
		if !ok {
			continue
		}
		fn, err := g.compileInput(in)
		if err != nil {
			return nil, err
		}
		argFns[key] = fn
	}
	return func(ctx context.Context, env *Env) error {
		args := make(map[string]interface{}, len(argFns))
		for name, fn := range argFns {
			v, err := fn(ctx, env)
			if err != nil {
				return err
			}
			args[name] = literalOf(v)
		}
		if env.Runtime == nil {
			return env.Thread.Yield()
		}
		if block.Op == ir.OpAddonCall {
			if fn, ok := env.Runtime.AddonBlock(opcode); ok {
				if _, err := fn(ctx, args); err != nil {
					return err
				}
				return env.Thread.Yield()
			}
		}
		handle, ok := env.Runtime.ExtensionHandle(opcode)
		if !ok {
			if fn, ok := env.Runtime.OpcodeFunction(opcode); ok {
				if _, err := fn(ctx, args); err != nil {
					return err
				}
			}
			return env.Thread.Yield()
		}
		if _, err := handle.Call(ctx, opcode, args); err != nil {
			return err
		}
		return env.Thread.Yield()
	}, nil
}
