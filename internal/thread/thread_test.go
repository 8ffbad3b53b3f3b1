package thread

import (
	"context"
	"testing"
)

func TestSchedulerRunsNonYieldingScriptToCompletion(t *testing.T) {
	th := New(context.Background(), nil)
	sched := NewScheduler()
	ran := false
	sched.Start(th, func(t *Thread) error {
		ran = true
		t.Retire()
		return nil
	})
	alive := sched.Tick()
	if alive != 0 {
		t.Errorf("alive = %d, want 0 for a script with no yields", alive)
	}
	if !ran {
		t.Error("body never ran")
	}
	if th.CurrentState() != StateDone {
		t.Error("thread should be DONE")
	}
}

func TestSchedulerStepsYieldingScript(t *testing.T) {
	th := New(context.Background(), nil)
	sched := NewScheduler()
	steps := 0
	sched.Start(th, func(t *Thread) error {
		for i := 0; i < 3; i++ {
			steps++
			if err := t.Yield(); err != nil {
				return err
			}
		}
		t.Retire()
		return nil
	})

	for i := 0; i < 3; i++ {
		alive := sched.Tick()
		if i < 2 && alive != 1 {
			t.Errorf("tick %d: alive = %d, want 1", i, alive)
		}
	}
	if steps != 3 {
		t.Errorf("steps = %d, want 3", steps)
	}
}

func TestThreadYieldReturnsErrRetiredAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	th := New(ctx, nil)
	sched := NewScheduler()
	errCh := make(chan error, 1)
	sched.Start(th, func(t *Thread) error {
		err := t.Yield()
		errCh <- err
		return err
	})
	sched.Tick() // drain to first yield
	cancel()
	sched.Tick() // resumes; ctx already cancelled so Yield should return ErrRetired
	if got := <-errCh; got != ErrRetired {
		t.Errorf("Yield after cancel = %v, want ErrRetired", got)
	}
}
