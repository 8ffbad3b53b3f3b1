package cache

import (
	"context"
	"testing"

	"github.com/blockwarp/tw-compiler/internal/ir"
)

func sampleProgram() *ir.IR {
	return &ir.IR{
		Entry: &ir.Script{
			TopBlockID: "b1",
			Body: &ir.Stack{
				Blocks: []*ir.Block{
					{
						Op: ir.OpVarSet,
						Field: map[string]string{"var": "x"},
						Inputs: map[string]ir.Node{
							"VALUE": &ir.Input{Op: ir.OpConstant, Literal: 3.0},
						},
					},
				},
			},
		},
		Procedures: map[string]*ir.Script{},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	program := sampleProgram()
	hash, err := HashProgram(program)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if _, ok, err := c.Get(context.Background(), hash); err != nil || ok {
		t.Fatalf("expected miss before Put, got ok=%v err=%v", ok, err)
	}

	if err := c.Put(context.Background(), hash, program); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(context.Background(), hash)
	if err != nil || !ok {
		t.Fatalf("expected hit after Put, got ok=%v err=%v", ok, err)
	}
	block := got.Entry.Body.Blocks[0]
	if block.Op != ir.OpVarSet || block.Field["var"] != "x" {
		t.Fatalf("round-tripped program mismatch: %#v", block)
	}
}

func TestHashIsStableAcrossIdenticalPrograms(t *testing.T) {
	a, err := HashProgram(sampleProgram())
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := HashProgram(sampleProgram())
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical programs to hash identically, got %s vs %s", a, b)
	}
}
