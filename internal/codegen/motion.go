package codegen

import (
	"context"

	"github.com/blockwarp/tw-compiler/internal/hostbridge"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// compileMotionSetter shares the MOD-then-motion-setter interpolation-data
// rule across MOTION_SET_XY/X_SET/Y_SET/XY_SET (spec §4.6 Arithmetic:
// "descendedIntoModulo is set so that a following MOTION_{X,Y,XY}_SET clears
// target.interpolationData").
func (g *Generator) compileMotionSetter(block *ir.Block) (stackFunc, error) {
	var xFn, yFn inputFunc
	var err error
	if xIn, ok := block.Inputs["X"].(*ir.Input); ok {
		xFn, err = g.compileInput(xIn)
		if err != nil {
			return nil, err
		}
	}
	if yIn, ok := block.Inputs["Y"].(*ir.Input); ok {
		yFn, err = g.compileInput(yIn)
		if err != nil {
			return nil, err
		}
	}
	op := block.Op
	return func(ctx context.Context, env *Env) error {
		t := env.Target
		if t == nil {
			return nil
		}
		switch op {
		case ir.OpMotionSetXY:
			if xFn == nil || yFn == nil {
				return &ir.MalformedIRError{Opcode: string(op), Reason: "missing X or Y input"}
			}
			xv, err := xFn(ctx, env)
			if err != nil {
				return err
			}
			yv, err := yFn(ctx, env)
			if err != nil {
				return err
			}
			t.SetXY(runtimeval.ToNumber(literalOf(xv)), runtimeval.ToNumber(literalOf(yv)))
		case ir.OpMotionXSet:
			if xFn == nil {
				return &ir.MalformedIRError{Opcode: string(op), Reason: "missing X input"}
			}
			xv, err := xFn(ctx, env)
			if err != nil {
				return err
			}
			t.SetXY(runtimeval.ToNumber(literalOf(xv)), t.Y())
		case ir.OpMotionYSet:
			if yFn == nil {
				return &ir.MalformedIRError{Opcode: string(op), Reason: "missing Y input"}
			}
			yv, err := yFn(ctx, env)
			if err != nil {
				return err
			}
			t.SetXY(t.X(), runtimeval.ToNumber(literalOf(yv)))
		case ir.OpMotionXYSet:
			if xFn == nil || yFn == nil {
				return &ir.MalformedIRError{Opcode: string(op), Reason: "missing X or Y input"}
			}
			xv, err := xFn(ctx, env)
			if err != nil {
				return err
			}
			yv, err := yFn(ctx, env)
			if err != nil {
				return err
			}
			t.SetXY(runtimeval.ToNumber(literalOf(xv)), runtimeval.ToNumber(literalOf(yv)))
		}
		if env.descendedIntoModulo {
			t.ClearInterpolationData()
			env.descendedIntoModulo = false
		}
		return nil
	}, nil
}

// compileLooksVisibility implements LOOKS_SHOW/LOOKS_HIDE.
func (g *Generator) compileLooksVisibility(block *ir.Block) (stackFunc, error) {
	visible := block.Op == ir.OpLooksShow
	return func(ctx context.Context, env *Env) error {
		if env.Target != nil {
			env.Target.SetVisible(visible)
		}
		return nil
	}, nil
}

// compilePen implements PEN_DOWN/PEN_UP by delegating to the pen extension
// handle (spec §4.7 lists "ext_pen" among the extension handles a compiled
// script may call through), since pen state itself lives outside the
// narrow Target contract.
func (g *Generator) compilePen(block *ir.Block) (stackFunc, error) {
	opcode := "pen_penDown"
	if block.Op == ir.OpPenUp {
		opcode = "pen_penUp"
	}
	return func(ctx context.Context, env *Env) error {
		if env.Runtime == nil {
			return nil
		}
		handle, ok := env.Runtime.ExtensionHandle("pen")
		if !ok {
			return nil
		}
		_, err := handle.Call(ctx, opcode, nil)
		return err
	}, nil
}

// compileEventBroadcast implements EVENT_BROADCAST: fire-and-forget, no
// yield (contrast with EVENT_BROADCAST_AND_WAIT).
func (g *Generator) compileEventBroadcast(block *ir.Block) (stackFunc, error) {
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
			return nil
		}
		_, err := handle.Call(ctx, "startHats", map[string]interface{}{"event": eventName})
		return err
	}, nil
}

// compileMonitorVisibility implements VAR_SHOW/VAR_HIDE/LIST_SHOW/LIST_HIDE.
// The compiled script has no monitor layout of its own; it reports the
// requested visibility to the runtime the same way it reports any other
// monitor value change (spec §4.7: "runtime.monitorChangeBlock").
func (g *Generator) compileMonitorVisibility(block *ir.Block) (stackFunc, error) {
	name, ok := block.Field["var"]
	if !ok {
		name = block.Field["list"]
	}
	visible := block.Op == ir.OpVarShow || block.Op == ir.OpListShow
	return func(ctx context.Context, env *Env) error {
		if env.Runtime != nil {
			env.Runtime.MonitorChangeBlock(name, visible)
		}
		return nil
	}, nil
}

// compileMotionReader implements MOTION_X/MOTION_Y/MOTION_DIRECTION/
// LOOKS_SIZE/LOOKS_COSTUME_NUMBER.
func (g *Generator) compileMotionReader(in *ir.Input) (inputFunc, error) {
	op := in.Op
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		t := env.Target
		if t == nil {
			return runtimeval.Number(0), nil
		}
		switch op {
		case ir.OpMotionX:
			return runtimeval.Number(t.X()), nil
		case ir.OpMotionY:
			return runtimeval.Number(t.Y()), nil
		case ir.OpMotionDirection:
			return runtimeval.Number(t.Direction()), nil
		case ir.OpLooksSize:
			return runtimeval.Number(t.Size()), nil
		case ir.OpLooksCostumeNum:
			return runtimeval.Number(float64(t.CurrentCostume() + 1)), nil
		default:
			return nil, &ir.MalformedIRError{Opcode: string(op), Reason: "not a motion/looks reader"}
		}
	}, nil
}

// compileSensingOf implements SENSING_OF's stage-folding and
// sprite-lookup-dedup rules (spec §4.6): whether the target name is the
// constant "_stage_" is decided once at compile time; for the stage each call
// then reads runtime.GetTargetForStage(), skipping the name lookup; otherwise the sprite is
// looked up by name once per call (no cross-call caching, since sprites can
// be renamed or removed between calls), then the requested property is read
// off it — either one of the fixed built-in properties, or, for anything
// else, a user variable resolved via LookupVariableByNameAndType.
func (g *Generator) compileSensingOf(in *ir.Input) (inputFunc, error) {
	object, ok := in.Field["object"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"object\" field"}
	}
	property, ok := in.Field["property"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"property\" field"}
	}
	isStage := object == "_stage_"

	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		if env.Runtime == nil {
			return runtimeval.Number(0), nil
		}
		var t hostbridge.Target
		if isStage {
			t = env.Runtime.GetTargetForStage()
		} else {
			found, ok := env.Runtime.GetSpriteTargetByName(object)
			if !ok {
				return runtimeval.Number(0), nil
			}
			t = found
		}
		if t == nil {
			return runtimeval.Number(0), nil
		}
		switch property {
		case "x position":
			return runtimeval.Number(t.X()), nil
		case "y position":
			return runtimeval.Number(t.Y()), nil
		case "direction":
			return runtimeval.Number(t.Direction()), nil
		case "costume number":
			return runtimeval.Number(float64(t.CurrentCostume() + 1)), nil
		case "size":
			return runtimeval.Number(t.Size()), nil
		default:
			v, ok := t.LookupVariableByNameAndType(property, "")
			if !ok {
				return runtimeval.String(""), nil
			}
			if val, ok := v.Value.(runtimeval.Value); ok {
				return val, nil
			}
			return runtimeval.String(""), nil
		}
	}, nil
}
