// Command twc is a small demonstration CLI for the compiler core: it reads a
// gob-encoded IR program (the same on-disk shape internal/cache persists),
// compiles it, and prints a disassembly of the compiled entry script plus
// whatever diagnostics the run emitted.
//
// Grounded on the teacher's cmd/funxy/main.go flag-handling shape (a chain of
// handleXxx() bool checks, a top-level panic recovery wrapper) scaled down
// to this core's much narrower surface: there is no source language to lex
// or parse here, only an IR to compile.
package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"flag"
	"fmt"
	"os"

	"github.com/blockwarp/tw-compiler/internal/config"
	"github.com/blockwarp/tw-compiler/internal/diag"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/pkg/compiler"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		irPath     = flag.String("ir", "", "path to a gob-encoded ir.IR program (required)")
		configPath = flag.String("config", "", "optional YAML compiler options file")
		debug      = flag.Bool("debug", false, "emit one diagnostic line per compiled script/procedure")
	)
	flag.Parse()

	if *irPath == "" {
		fmt.Fprintln(os.Stderr, "usage: twc -ir <program.ir> [-config options.yaml] [-debug]")
		os.Exit(1)
	}

	opts, err := config.LoadOptions(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	if *debug {
		opts.Debug = true
	}

	program, err := loadProgram(*irPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	c, err := compiler.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	defer c.Close()

	result, err := c.Compile(context.Background(), program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %s\n", err)
		os.Exit(1)
	}

	if result.CacheHit {
		fmt.Println("# served from compiled-factory cache")
	}
	fmt.Print(diag.Disassemble(program.Entry, "<entry>"))
	for variant, script := range program.Procedures {
		fmt.Print(diag.Disassemble(script, variant))
	}
	fmt.Printf("compiled %d procedure(s)\n", len(result.Procedures))
}

func loadProgram(path string) (*ir.IR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var program ir.IR
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&program); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &program, nil
}
