// Package thread implements the cooperative scheduling primitives the
// generated code assumes (spec §5): a Thread is one running script,
// suspended and resumed only at explicit yield points.
//
// The spec's reference host lowers scripts to JS generator functions driven
// by an external step loop. This implementation instead compiles a script
// to a Go closure run on its own goroutine, with `yield` modelled as a
// channel handoff back to the scheduler — the alternative target spec §9's
// Design Notes explicitly sanctions ("emit coroutine/generator code in a
// target that supports it ... the specification does not require source
// text"). The State enum, retirement semantics, and frame-depth guard are
// grounded on the teacher's VM struct (internal/vm/vm.go: CallFrame,
// MaxFrameCount, errStackOverflow) — adapted from a bytecode interpreter's
// call stack to a single-script cooperative fiber's status and yield count.
package thread

import (
	"context"
	"errors"
)

// State is a Thread's lifecycle status.
type State int

const (
	StateRunning State = iota
	StateYielded
	StateDone
)

// ErrRetired is returned by Yield when the thread has been cancelled and
// must stop promptly (spec §5 "Cancellation").
var ErrRetired = errors.New("thread retired")

// MaxYieldsWithoutProgress is a limit named after the teacher's MaxFrameCount
// recursion guard. Neither Thread nor Scheduler reads it: there is no "stuck"
// detection, and a warp-mode loop that never terminates runs forever.
const MaxYieldsWithoutProgress = 1_000_000

// Thread is one running script instance: the generated closure's view of
// its own cooperative-scheduling handle.
type Thread struct {
	Target interface{} // *hostbridge.Target; typed any to avoid an import cycle (codegen depends on both thread and hostbridge).

	ctx    context.Context
	resume chan struct{}
	yield  chan struct{}

	state     State
	warpDepth int
	timer     float64 // CONTROL_WAIT deadline, seconds, set by the generated body.
}

// New creates a Thread bound to ctx; cancelling ctx retires the thread at
// its next Yield call.
func New(ctx context.Context, target interface{}) *Thread {
	return &Thread{
		Target: target,
		ctx:    ctx,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
		state:  StateRunning,
	}
}

// Yield implements the generated body's cooperative suspension point. It
// blocks until the scheduler's next Tick resumes it, or returns ErrRetired if the
// thread's context was cancelled meanwhile (spec §5 "Cancellation": "honors
// cooperative retirement by returning promptly").
func (t *Thread) Yield() error {
	t.state = StateYielded
	t.yield <- struct{}{}
	select {
	case <-t.resume:
		t.state = StateRunning
		return nil
	case <-t.ctx.Done():
		return ErrRetired
	}
}

// Retire marks the thread DONE; called by the generated body's `retire()`
// helper call (spec §4.6 CONTROL_STOP_ALL / CLONE_DELETE / non-procedure
// script tail).
func (t *Thread) Retire() {
	t.state = StateDone
}

// CurrentState reports the thread's current lifecycle status.
func (t *Thread) CurrentState() State { return t.state }

// EnterWarp and ExitWarp track nested warp-mode scope, mirroring
// script.isWarp composing across PROCEDURE_CALL into a warp procedure
// (spec §4.6 PROCEDURE_CALL: "direct recursion ... non-warp").
func (t *Thread) EnterWarp() { t.warpDepth++ }
func (t *Thread) ExitWarp()  { t.warpDepth-- }
func (t *Thread) InWarp() bool { return t.warpDepth > 0 }

// SetTimer and TimerValue back CONTROL_WAIT's `thread.timer` field (spec §4.6).
func (t *Thread) SetTimer(seconds float64) { t.timer = seconds }
func (t *Thread) TimerValue() float64      { return t.timer }

// Scheduler drives registered scripts: each Tick resumes a yielded thread's
// goroutine and blocks until it yields again or finishes. A script's body is
// the generated closure, run on its own goroutine from the moment Start
// registers it.
type Scheduler struct {
	threads []*runningScript
}

type runningScript struct {
	thread *Thread
	done   chan error
	started bool
	body    func(*Thread) error
}

// NewScheduler returns an empty Scheduler; scripts are registered with
// Start.
func NewScheduler() *Scheduler { return &Scheduler{} }

// Start registers body to run cooperatively under t, launching its goroutine
// immediately; the goroutine blocks at body's first Yield (or exits at once
// if body never yields).
func (s *Scheduler) Start(t *Thread, body func(*Thread) error) {
	rs := &runningScript{thread: t, done: make(chan error, 1), body: body}
	s.threads = append(s.threads, rs)
	go func() {
		rs.done <- body(t)
		close(t.yield)
	}()
}

// Tick advances every non-DONE thread by one cooperative step. A thread
// just registered by Start is already running toward its first Yield (or an
// immediate return, for a script with no yields at all); later ticks first
// signal resume, then wait for the next yield or completion. Returns the
// number of threads still alive.
func (s *Scheduler) Tick() int {
	alive := 0
	remaining := s.threads[:0]
	for _, rs := range s.threads {
		if rs.thread.CurrentState() == StateDone {
			continue
		}

		if rs.started {
			select {
			case rs.thread.resume <- struct{}{}:
			case <-rs.done:
				// Body already returned (e.g. Yield saw a cancelled ctx).
				rs.thread.Retire()
				continue
			}
		}
		rs.started = true

		select {
		case _, ok := <-rs.thread.yield:
			if !ok {
				// Channel closed: body returned without a final Yield.
				rs.thread.Retire()
				<-rs.done
				continue
			}
			remaining = append(remaining, rs)
			alive++
		case err := <-rs.done:
			_ = err
			rs.thread.Retire()
		}
	}
	s.threads = remaining
	return alive
}
