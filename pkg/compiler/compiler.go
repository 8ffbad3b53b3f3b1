// Package compiler is the public entry point spec §6 describes:
// "compile(script, ir, target) → factory function". It wires
// internal/pipeline's Analyze->Rewrite->Codegen stages behind a small
// exported surface so a host embedding this module never needs to reach
// into internal/.
//
// Grounded on the teacher's pkg/cli/entry.go and pkg/embed/vm.go, which play
// the same role for the teacher's own bytecode VM: a thin public wrapper
// that owns configuration, diagnostics wiring, and error formatting so
// internal/ packages stay free to change shape.
package compiler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blockwarp/tw-compiler/internal/cache"
	"github.com/blockwarp/tw-compiler/internal/codegen"
	"github.com/blockwarp/tw-compiler/internal/config"
	"github.com/blockwarp/tw-compiler/internal/diag"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/pipeline"
)

// Factory is the compiled entry point a host instantiates per thread (spec
// §6: "the caller registers the returned factory ... then instantiates per
// thread").
type Factory = codegen.ScriptFunc

// Env is the runtime environment a Factory closes over (spec §4.7's
// target/stage/runtime triple).
type Env = codegen.Env

// CompiledProcedure is one compiled procedure variant's entry, keyed by its
// procedure key in Result.Procedures.
type CompiledProcedure = codegen.CompiledProcedure

// Result is the outcome of a single Compile call.
type Result struct {
	Entry      Factory
	Procedures map[string]*CompiledProcedure
	CacheHit   bool
}

// Compiler holds the long-lived state a host should reuse across Compile
// calls: the options it was configured with, an optional compiled-factory
// cache, and a diagnostics logger (spec §10/§11).
type Compiler struct {
	opts   config.CompilerOptions
	cache  *cache.Cache
	logger *diag.Logger
}

// New builds a Compiler from opts. If opts.CacheDir is non-empty, a SQLite
// compiled-factory cache (internal/cache) is opened at that path; an empty
// CacheDir disables caching entirely (spec §11/§12).
func New(opts config.CompilerOptions) (*Compiler, error) {
	c := &Compiler{opts: opts, logger: diag.NewLogger(opts.Debug, opts.ColorDiagnostics)}
	if opts.CacheDir != "" {
		ch, err := cache.Open(opts.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("compiler: open cache: %w", err)
		}
		c.cache = ch
	}
	return c, nil
}

// Close releases the Compiler's cache handle, if any.
func (c *Compiler) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// Compile lowers program into a Factory plus its procedure table (spec §6).
// Each call is tagged with a fresh correlation id (spec §11) that appears in
// every diagnostic line this call emits.
func (c *Compiler) Compile(ctx context.Context, program *ir.IR) (*Result, error) {
	correlationID := uuid.NewString()
	p := pipeline.New(pipeline.Options{Cache: c.cache, Logger: c.logger, CorrelationID: correlationID})

	res, err := p.Run(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("compiler: compile %s: %w", correlationID, err)
	}
	return &Result{Entry: res.Entry, Procedures: res.Procedures, CacheHit: res.CacheHit}, nil
}
