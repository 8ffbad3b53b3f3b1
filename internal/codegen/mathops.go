package codegen

import (
	"context"
	"math"

	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// compileMathOp implements the unary math opcodes (OP_ABS/FLOOR/CEIL/SQRT/
// trig/log/ROUND) and OP_RANDOM (spec §3, §4.4: "OP_ABS -> NUMBER minus NEG
// bits", "OP_SQRT -> NUMBER_OR_NAN"). OP_TAN defers to runtimeval.Tan for
// the exact-±Inf-at-the-asymptote behavior (spec §8 property list).
func (g *Generator) compileMathOp(in *ir.Input) (inputFunc, error) {
	if in.Op == ir.OpRandom {
		return g.compileRandom(in)
	}

	inner, err := g.compileChild(in, "VALUE")
	if err != nil {
		return nil, err
	}
	op := in.Op
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		v, err := inner(ctx, env)
		if err != nil {
			return nil, err
		}
		n := runtimeval.ToNumber(literalOf(v))
		var r float64
		switch op {
		case ir.OpAbs:
			r = math.Abs(n)
		case ir.OpFloor:
			r = math.Floor(n)
		case ir.OpCeil:
			r = math.Ceil(n)
		case ir.OpSqrt:
			r = math.Sqrt(n)
		case ir.OpSin:
			r = math.Sin(n * math.Pi / 180)
		case ir.OpCos:
			r = math.Cos(n * math.Pi / 180)
		case ir.OpTan:
			r = runtimeval.Tan(n)
		case ir.OpAsin:
			r = math.Asin(n) * 180 / math.Pi
		case ir.OpAcos:
			r = math.Acos(n) * 180 / math.Pi
		case ir.OpAtan:
			r = math.Atan(n) * 180 / math.Pi
		case ir.OpLn:
			r = math.Log(n)
		case ir.OpLog10:
			r = math.Log10(n)
		case ir.OpPowE:
			r = math.Exp(n)
		case ir.OpPow10:
			r = math.Pow(10, n)
		case ir.OpRound:
			r = math.Round(n)
		default:
			return nil, &ir.MalformedIRError{Opcode: string(op), Reason: "not a unary math opcode"}
		}
		return runtimeval.Number(r), nil
	}, nil
}

// compileRandom implements OP_RANDOM's integer/float split: if both operands
// are written as integer literals/values the result is drawn from
// runtimeval.RandomInt (inclusive integer range), otherwise from
// RandomFloat.
func (g *Generator) compileRandom(in *ir.Input) (inputFunc, error) {
	fromFn, err := g.compileChild(in, "FROM")
	if err != nil {
		return nil, err
	}
	toFn, err := g.compileChild(in, "TO")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		from, err := fromFn(ctx, env)
		if err != nil {
			return nil, err
		}
		to, err := toFn(ctx, env)
		if err != nil {
			return nil, err
		}
		fn := runtimeval.ToNumber(literalOf(from))
		tn := runtimeval.ToNumber(literalOf(to))
		if fn == math.Trunc(fn) && tn == math.Trunc(tn) {
			return runtimeval.Number(float64(runtimeval.RandomInt(int(fn), int(tn)))), nil
		}
		return runtimeval.Number(runtimeval.RandomFloat(fn, tn)), nil
	}, nil
}

// compileProcedureArg implements PROCEDURE_ARG_STRING_NUMBER/BOOLEAN: reads
// the named argument out of the active Env's Args binding, which
// PROCEDURE_CALL fills by argument name (spec §4.6). A missing argument
// reads as "" (or false for a boolean argument).
func (g *Generator) compileProcedureArg(in *ir.Input) (inputFunc, error) {
	name, ok := in.Field["name"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"name\" field"}
	}
	isBoolean := in.Op == ir.OpProcedureArgBoolean
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		v, ok := env.Args[name]
		if !ok {
			if isBoolean {
				return runtimeval.Bool(false), nil
			}
			return runtimeval.String(""), nil
		}
		return v, nil
	}, nil
}
