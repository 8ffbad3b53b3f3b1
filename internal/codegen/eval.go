package codegen

import (
	"context"
	"strconv"

	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/lattice"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// inputFunc is a compiled Input: evaluates to a runtime Value.
type inputFunc func(ctx context.Context, env *Env) (runtimeval.Value, error)

// literalOf unwraps a Value to the bare Go value runtimeval's coercion
// helpers expect (they operate on `any` literals, mirroring CAST_* targets
// rather than on the Value interface, since the cast opcodes are themselves
// untyped with respect to Value's Kind).
func literalOf(v runtimeval.Value) any {
	switch x := v.(type) {
	case runtimeval.Number:
		return float64(x)
	case runtimeval.String:
		return string(x)
	case runtimeval.Bool:
		return bool(x)
	default:
		return nil
	}
}

// compileInput dispatches on an Input's opcode after rewrite (C5 has
// already dropped redundant casts and fixed every surviving node's Type).
// Per §4.6's lowering table; unknown opcodes are a MalformedIRError.
func (g *Generator) compileInput(in *ir.Input) (inputFunc, error) {
	switch in.Op {
	case ir.OpConstant:
		return g.compileConstant(in)

	case ir.OpVarGet:
		name, ok := in.Field["var"]
		if !ok {
			return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"var\" field"}
		}
		scope := in.Field["scope"]
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			return getVariable(env, scope, name), nil
		}, nil

	case ir.OpCastBoolean:
		inner, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := inner(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Bool(runtimeval.ToBoolean(literalOf(v))), nil
		}, nil

	case ir.OpCastNumber:
		inner, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := inner(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Number(runtimeval.ToNumber(literalOf(v))), nil
		}, nil

	case ir.OpCastNumberOrNaN:
		inner, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := inner(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Number(runtimeval.ToNumberOrNaN(literalOf(v))), nil
		}, nil

	case ir.OpCastNumberIndex:
		inner, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := inner(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Number(float64(runtimeval.ToNumberIndex(literalOf(v)))), nil
		}, nil

	case ir.OpCastString:
		inner, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := inner(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.String(runtimeval.ToStringVal(literalOf(v))), nil
		}, nil

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return g.compileArithmetic(in)

	case ir.OpMod:
		return g.compileMod(in)

	case ir.OpAnd, ir.OpOr, ir.OpNot:
		return g.compileLogic(in)

	case ir.OpEq, ir.OpLt, ir.OpGt:
		return g.compileComparison(in)

	case ir.OpListGet, ir.OpListLength, ir.OpListContains, ir.OpListIndexOf, ir.OpListContents:
		return g.compileListOp(in)

	case ir.OpJoin, ir.OpLen, ir.OpLetterOf, ir.OpContains:
		return g.compileStringOp(in)

	case ir.OpAbs, ir.OpFloor, ir.OpCeil, ir.OpSqrt, ir.OpSin, ir.OpCos, ir.OpTan,
		ir.OpAsin, ir.OpAcos, ir.OpAtan, ir.OpLn, ir.OpLog10, ir.OpPowE, ir.OpPow10,
		ir.OpRound, ir.OpRandom:
		return g.compileMathOp(in)

	case ir.OpMotionX, ir.OpMotionY, ir.OpMotionDirection, ir.OpLooksSize, ir.OpLooksCostumeNum:
		return g.compileMotionReader(in)

	case ir.OpSensingOf:
		return g.compileSensingOf(in)

	case ir.OpProcedureArgStringNumber, ir.OpProcedureArgBoolean:
		return g.compileProcedureArg(in)

	case ir.OpCompatibilityLayer:
		return g.compileCompatibilityInput(in)

	default:
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "no codegen lowering rule registered"}
	}
}

func (g *Generator) compileChild(parent *ir.Input, name string) (inputFunc, error) {
	child, ok := parent.Inputs[name].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(parent.Op), Reason: "missing " + name + " input"}
	}
	return g.compileInput(child)
}

// compileConstant implements CONSTANT lowering (spec §4.6): numbers
// stringified numerically (handled here simply by holding the typed Go
// value, since this backend has no textual stage to special-case -0 for),
// booleans and strings held as-is.
func (g *Generator) compileConstant(in *ir.Input) (inputFunc, error) {
	var v runtimeval.Value
	switch lit := in.Literal.(type) {
	case float64:
		v = runtimeval.Number(lit)
	case string:
		v = runtimeval.String(lit)
	case bool:
		v = runtimeval.Bool(lit)
	default:
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "literal has unsupported Go type"}
	}
	return func(context.Context, *Env) (runtimeval.Value, error) {
		return v, nil
	}, nil
}

// compileArithmetic implements OP_ADD/SUB/MUL/DIV: straight Go arithmetic
// on numeric coercions of both operands (spec §4.6 "Arithmetic: straight
// operators with numeric coercions of operands").
func (g *Generator) compileArithmetic(in *ir.Input) (inputFunc, error) {
	lhs, err := g.compileChild(in, "NUM1")
	if err != nil {
		return nil, err
	}
	rhs, err := g.compileChild(in, "NUM2")
	if err != nil {
		return nil, err
	}
	op := in.Op
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		a, err := lhs(ctx, env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(ctx, env)
		if err != nil {
			return nil, err
		}
		an := runtimeval.ToNumber(literalOf(a))
		bn := runtimeval.ToNumber(literalOf(b))
		var result float64
		switch op {
		case ir.OpAdd:
			result = an + bn
		case ir.OpSub:
			result = an - bn
		case ir.OpMul:
			result = an * bn
		case ir.OpDiv:
			result = an / bn
		}
		return runtimeval.Number(result), nil
	}, nil
}

// compileMod implements OP_MOD via the mod helper, and sets
// env.descendedIntoModulo so a following motion setter clears
// interpolationData (spec §4.6).
func (g *Generator) compileMod(in *ir.Input) (inputFunc, error) {
	lhs, err := g.compileChild(in, "NUM1")
	if err != nil {
		return nil, err
	}
	rhs, err := g.compileChild(in, "NUM2")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		a, err := lhs(ctx, env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(ctx, env)
		if err != nil {
			return nil, err
		}
		env.descendedIntoModulo = true
		an := runtimeval.ToNumber(literalOf(a))
		bn := runtimeval.ToNumber(literalOf(b))
		return runtimeval.Number(runtimeval.Mod(an, bn)), nil
	}, nil
}

func (g *Generator) compileLogic(in *ir.Input) (inputFunc, error) {
	switch in.Op {
	case ir.OpNot:
		operand, err := g.compileChild(in, "OPERAND")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			v, err := operand(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Bool(!runtimeval.ToBoolean(literalOf(v))), nil
		}, nil
	default:
		lhs, err := g.compileChild(in, "OPERAND1")
		if err != nil {
			return nil, err
		}
		rhs, err := g.compileChild(in, "OPERAND2")
		if err != nil {
			return nil, err
		}
		isAnd := in.Op == ir.OpAnd
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			a, err := lhs(ctx, env)
			if err != nil {
				return nil, err
			}
			b, err := rhs(ctx, env)
			if err != nil {
				return nil, err
			}
			at := runtimeval.ToBoolean(literalOf(a))
			bt := runtimeval.ToBoolean(literalOf(b))
			if isAnd {
				return runtimeval.Bool(at && bt), nil
			}
			return runtimeval.Bool(at || bt), nil
		}, nil
	}
}

// compileComparison implements EQ/LT/GT lowering (spec §4.6 and §8 property
// 9): numeric comparison when both sides are always numeric (tracked via
// the rewritten node's lattice Type, set by C4/C5), lowercase string
// comparison when either side is never numeric, else the compareEqual/
// compareLessThan/compareGreaterThan helper for the mixed case.
func (g *Generator) compileComparison(in *ir.Input) (inputFunc, error) {
	lhsNode, ok := in.Inputs["OPERAND1"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing OPERAND1 input"}
	}
	rhsNode, ok := in.Inputs["OPERAND2"].(*ir.Input)
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing OPERAND2 input"}
	}
	lhs, err := g.compileInput(lhsNode)
	if err != nil {
		return nil, err
	}
	rhs, err := g.compileInput(rhsNode)
	if err != nil {
		return nil, err
	}

	lhsNumeric := lattice.IsAlways(lhsNode.Type, lattice.NumberInterpretable) || (in.Op == ir.OpEq && isSafeNumericConstant(lhsNode))
	rhsNumeric := lattice.IsAlways(rhsNode.Type, lattice.NumberInterpretable) || (in.Op == ir.OpEq && isSafeNumericConstant(rhsNode))
	bothNumeric := lhsNumeric && rhsNumeric
	eitherNeverNumeric := !lattice.IsSometimes(lhsNode.Type, lattice.NumberInterpretable) ||
		!lattice.IsSometimes(rhsNode.Type, lattice.NumberInterpretable)

	op := in.Op
	return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
		a, err := lhs(ctx, env)
		if err != nil {
			return nil, err
		}
		b, err := rhs(ctx, env)
		if err != nil {
			return nil, err
		}
		switch {
		case bothNumeric:
			an := runtimeval.ToNumber(literalOf(a))
			bn := runtimeval.ToNumber(literalOf(b))
			return runtimeval.Bool(numericCompare(op, an, bn)), nil
		case eitherNeverNumeric:
			as := lowerString(a)
			bs := lowerString(b)
			switch op {
			case ir.OpEq:
				return runtimeval.Bool(as == bs), nil
			case ir.OpLt:
				return runtimeval.Bool(as < bs), nil
			default:
				return runtimeval.Bool(as > bs), nil
			}
		default:
			switch op {
			case ir.OpEq:
				return runtimeval.Bool(runtimeval.CompareEqual(a, b)), nil
			case ir.OpLt:
				return runtimeval.Bool(runtimeval.CompareLessThan(a, b)), nil
			default:
				return runtimeval.Bool(runtimeval.CompareGreaterThan(a, b)), nil
			}
		}
	}, nil
}

func numericCompare(op ir.InputOp, a, b float64) bool {
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpLt:
		return a < b
	default:
		return a > b
	}
}

func lowerString(v runtimeval.Value) string {
	s := runtimeval.ToStringVal(literalOf(v))
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// isSafeNumericConstant implements the "safe constant" rule for EQ (spec
// §4.6): a non-zero constant whose stringified numeric round-trip equals
// the original literal.
func isSafeNumericConstant(in *ir.Input) bool {
	if in.Op != ir.OpConstant {
		return false
	}
	lit, ok := in.Literal.(string)
	if !ok {
		return false
	}
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil || n == 0 {
		return false
	}
	return runtimeval.ToStringVal(n) == lit
}
