// Package diag implements the compiler's diagnostics surface (spec §6
// "Diagnostics", §10 AMBIENT STACK): one log line per compiled script or
// procedure when runtime.debug is true, colorized only on a real terminal.
//
// Grounded on the teacher's internal/evaluator/builtins_term.go color
// detection (isatty.IsTerminal / isatty.IsCygwinTerminal double-check) and
// internal/vm/debugger.go's OnStop callback-field idiom, generalized here
// into a func-literal TestObserver hook rather than a method on a struct
// type, per spec §10's explicit note ("a TestObserver hook (func literal,
// not an interface)").
package diag

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// TestObserver, when non-nil, is invoked once per compiled script/procedure
// in addition to (or instead of, when Logger.Out is nil) the normal log
// line — mirroring the teacher's Debugger.OnStop field, which lets tests
// observe internal events without the debugger owning a full interface.
var TestObserver func(event Event)

// Event is one compiled-script/procedure diagnostic record (spec §6).
type Event struct {
	CorrelationID string
	Name          string // script's ProcedureCode, or "<entry>" for the top script.
	NodeCount     int    // number of IR nodes compiled into the closure tree.
	Duration      time.Duration
	Yields        bool
	IsWarp        bool
}

// approxClosureBytes estimates the emitted closure tree's footprint from its
// node count, for the humanized size line spec §11 calls for ("e.g.
// 1.8kB"). Each compiled node captures roughly one inputFunc/stackFunc
// closure plus its argument slice; 96 bytes is a conservative per-node
// estimate on a 64-bit runtime.
func approxClosureBytes(nodeCount int) uint64 {
	const bytesPerNode = 96
	return uint64(nodeCount) * bytesPerNode
}

// Logger writes one diagnostic line per Event to Out, colorized when Out is
// a real terminal (spec §10, grounded on builtins_term.go's detectColorLevel
// double-check of isatty.IsTerminal and isatty.IsCygwinTerminal).
type Logger struct {
	Out     io.Writer
	Enabled bool
	color   bool
}

// NewLogger returns a Logger writing to os.Stderr, with color auto-detected
// the same way the teacher's term builtins detect it, unless force overrides
// the detection (nil means auto).
func NewLogger(enabled bool, force *bool) *Logger {
	color := detectColor(os.Stderr)
	if force != nil {
		color = *force
	}
	return &Logger{Out: os.Stderr, Enabled: enabled, color: color}
}

func detectColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Emit writes ev as one log line (spec §6 Diagnostics) carrying the
// correlation id, a script/generator label, the name/code, an estimated
// closure size and the compile duration; no source or dump of the compiled
// code is written. If set, TestObserver receives ev first.
func (l *Logger) Emit(ev Event) {
	if TestObserver != nil {
		TestObserver(ev)
	}
	if l == nil || !l.Enabled || l.Out == nil {
		return
	}
	label := "script"
	if ev.Yields {
		label = "generator"
	}
	warp := ""
	if ev.IsWarp {
		warp = " warp"
	}
	line := fmt.Sprintf("[compile %s] %s %q: ~%s, %s%s\n",
		ev.CorrelationID, label, ev.Name, humanize.Bytes(approxClosureBytes(ev.NodeCount)), ev.Duration, warp)
	if l.color {
		line = "\x1b[36m" + line + "\x1b[0m"
	}
	fmt.Fprint(l.Out, line)
}
