package codegen

import (
	"context"
	"strings"

	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// compileStringOp implements OP_JOIN/LEN/LETTER_OF/CONTAINS (spec §3, §4.4:
// "OP_LEN -> POS_INT∪ZERO").
func (g *Generator) compileStringOp(in *ir.Input) (inputFunc, error) {
	switch in.Op {
	case ir.OpJoin:
		aFn, err := g.compileChild(in, "STRING1")
		if err != nil {
			return nil, err
		}
		bFn, err := g.compileChild(in, "STRING2")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			a, err := aFn(ctx, env)
			if err != nil {
				return nil, err
			}
			b, err := bFn(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.String(runtimeval.ToStringVal(literalOf(a)) + runtimeval.ToStringVal(literalOf(b))), nil
		}, nil

	case ir.OpLen:
		strFn, err := g.compileChild(in, "STRING")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			s, err := strFn(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Number(float64(len([]rune(runtimeval.ToStringVal(literalOf(s)))))), nil
		}, nil

	case ir.OpLetterOf:
		idxFn, err := g.compileChild(in, "INDEX")
		if err != nil {
			return nil, err
		}
		strFn, err := g.compileChild(in, "STRING")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			idx, err := idxFn(ctx, env)
			if err != nil {
				return nil, err
			}
			s, err := strFn(ctx, env)
			if err != nil {
				return nil, err
			}
			runes := []rune(runtimeval.ToStringVal(literalOf(s)))
			n := runtimeval.ToNumberIndex(literalOf(idx))
			if n < 1 || n > len(runes) {
				return runtimeval.String(""), nil
			}
			return runtimeval.String(string(runes[n-1])), nil
		}, nil

	case ir.OpContains:
		hayFn, err := g.compileChild(in, "STRING1")
		if err != nil {
			return nil, err
		}
		needleFn, err := g.compileChild(in, "STRING2")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			hay, err := hayFn(ctx, env)
			if err != nil {
				return nil, err
			}
			needle, err := needleFn(ctx, env)
			if err != nil {
				return nil, err
			}
			h := strings.ToLower(runtimeval.ToStringVal(literalOf(hay)))
			n := strings.ToLower(runtimeval.ToStringVal(literalOf(needle)))
			return runtimeval.Bool(strings.Contains(h, n)), nil
		}, nil

	default:
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "not a string opcode"}
	}
}
