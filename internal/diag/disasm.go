package diag

import (
	"fmt"
	"strings"

	"github.com/blockwarp/tw-compiler/internal/ir"
)

// Disassemble renders script's IR tree as an indented textual dump, the
// same shape the teacher's internal/vm/disasm.go produces for bytecode
// (one line per node, annotated with its opcode), adapted from a flat
// offset-addressed instruction stream to a recursive tree since this
// compiler's unit of disassembly is a Node, not a Chunk offset.
func Disassemble(script *ir.Script, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	disassembleStack(&sb, script.Body, 0)
	return sb.String()
}

func disassembleStack(sb *strings.Builder, stack *ir.Stack, depth int) {
	if stack == nil {
		return
	}
	for _, block := range stack.Blocks {
		disassembleBlock(sb, block, depth)
	}
}

func disassembleBlock(sb *strings.Builder, block *ir.Block, depth int) {
	indent(sb, depth)
	fmt.Fprintf(sb, "%s\n", block.Op)
	for name, node := range block.Inputs {
		disassembleNode(sb, name, node, depth+1)
	}
}

func disassembleNode(sb *strings.Builder, label string, node ir.Node, depth int) {
	switch n := node.(type) {
	case *ir.Input:
		indent(sb, depth)
		fmt.Fprintf(sb, "%s: %s\n", label, n.Op)
		for key, child := range n.Inputs {
			disassembleNode(sb, key, child, depth+1)
		}
	case *ir.Stack:
		indent(sb, depth)
		fmt.Fprintf(sb, "%s:\n", label)
		disassembleStack(sb, n, depth+1)
	}
}

func indent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}
