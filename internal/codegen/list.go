package codegen

import (
	"context"

	"github.com/blockwarp/tw-compiler/internal/hostbridge"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/runtimeval"
)

// compileListOp adds LIST_GET/LENGTH/CONTAINS/INDEX_OF/CONTENTS lowering
// (spec §3, §4.6). LIST_GET's "last" fast path (spec §8 property 10) is
// expressed here as the Go-native equivalent of the `?? ""` null-coalescing
// emission the textual backend would produce: a direct slice index with a
// bounds check, bypassing the general listGet helper when the index is the
// constant "last".
func (g *Generator) compileListOp(in *ir.Input) (inputFunc, error) {
	name, ok := in.Field["list"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "missing \"list\" field"}
	}
	scope := in.Field["scope"]

	switch in.Op {
	case ir.OpListLength:
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			l := resolveList(env, scope, name)
			if l == nil {
				return runtimeval.Number(0), nil
			}
			return runtimeval.Number(float64(len(l.Items))), nil
		}, nil

	case ir.OpListContents:
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			l := resolveList(env, scope, name)
			if l == nil {
				return runtimeval.String(""), nil
			}
			return runtimeval.String(runtimeval.ListContents(l)), nil
		}, nil

	case ir.OpListGet:
		idxFn, err := g.compileChild(in, "INDEX")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			l := resolveList(env, scope, name)
			if l == nil {
				return runtimeval.String(""), nil
			}
			idx, err := idxFn(ctx, env)
			if err != nil {
				return nil, err
			}
			if s, ok := idx.(runtimeval.String); ok && string(s) == "last" {
				if n := len(l.Items); n > 0 {
					return l.Items[n-1], nil
				}
				return runtimeval.String(""), nil
			}
			return runtimeval.ListGet(l, literalOf(idx)), nil
		}, nil

	case ir.OpListContains:
		valFn, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			l := resolveList(env, scope, name)
			if l == nil {
				return runtimeval.Bool(false), nil
			}
			v, err := valFn(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Bool(runtimeval.ListContains(l, v)), nil
		}, nil

	case ir.OpListIndexOf:
		valFn, err := g.compileChild(in, "VALUE")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, env *Env) (runtimeval.Value, error) {
			l := resolveList(env, scope, name)
			if l == nil {
				return runtimeval.Number(0), nil
			}
			v, err := valFn(ctx, env)
			if err != nil {
				return nil, err
			}
			return runtimeval.Number(float64(runtimeval.ListIndexOf(l, v))), nil
		}, nil

	default:
		return nil, &ir.MalformedIRError{Opcode: string(in.Op), Reason: "not a list opcode"}
	}
}

func resolveList(env *Env, scope, name string) *runtimeval.List {
	target := env.Target
	if scope == "stage" {
		target = env.Stage
	}
	if target == nil {
		return nil
	}
	cell, ok := target.Lists()[name]
	if !ok {
		return nil
	}
	l, ok := cell.Value.(*runtimeval.List)
	if !ok {
		l = &runtimeval.List{}
		cell.Value = l
	}
	return l
}

// touchListMonitor invalidates a list's monitor after a write (spec §5
// "Shared-resource policy"), mirroring the same-named field on ListCell.
func touchListMonitor(cell *hostbridge.ListCell) {
	cell.MonitorUpToDate = false
}

// compileListCommand implements the LIST_{ADD,INSERT,REPLACE,DELETE,
// DELETE_ALL} stack opcodes (spec §3), each invalidating the list's monitor
// after mutating it.
func (g *Generator) compileListCommand(block *ir.Block) (stackFunc, error) {
	name, ok := block.Field["list"]
	if !ok {
		return nil, &ir.MalformedIRError{Opcode: string(block.Op), Reason: "missing \"list\" field"}
	}
	scope := block.Field["scope"]
	op := block.Op

	var valueFn, indexFn inputFunc
	var err error
	if v, ok := block.Inputs["VALUE"].(*ir.Input); ok {
		valueFn, err = g.compileInput(v)
		if err != nil {
			return nil, err
		}
	}
	if idx, ok := block.Inputs["INDEX"].(*ir.Input); ok {
		indexFn, err = g.compileInput(idx)
		if err != nil {
			return nil, err
		}
	}

	return func(ctx context.Context, env *Env) error {
		target := env.Target
		if scope == "stage" {
			target = env.Stage
		}
		if target == nil {
			return nil
		}
		cell, ok := target.Lists()[name]
		if !ok {
			return nil
		}
		l, ok := cell.Value.(*runtimeval.List)
		if !ok {
			l = &runtimeval.List{}
			cell.Value = l
		}

		var value runtimeval.Value
		var index runtimeval.Value
		var rerr error
		if valueFn != nil {
			if value, rerr = valueFn(ctx, env); rerr != nil {
				return rerr
			}
		}
		if indexFn != nil {
			if index, rerr = indexFn(ctx, env); rerr != nil {
				return rerr
			}
		}

		switch op {
		case ir.OpListAdd:
			l.Items = append(l.Items, value)
		case ir.OpListInsert:
			runtimeval.ListInsert(l, literalOf(index), value)
		case ir.OpListReplace:
			runtimeval.ListReplace(l, literalOf(index), value)
		case ir.OpListDelete:
			runtimeval.ListDelete(l, literalOf(index))
		case ir.OpListDeleteAll:
			l.Items = l.Items[:0]
		}
		touchListMonitor(cell)
		return nil
	}, nil
}
