package pipeline

import (
	"context"
	"testing"

	"github.com/blockwarp/tw-compiler/internal/cache"
	"github.com/blockwarp/tw-compiler/internal/codegen"
	"github.com/blockwarp/tw-compiler/internal/hostbridge"
	"github.com/blockwarp/tw-compiler/internal/ir"
	"github.com/blockwarp/tw-compiler/internal/thread"
)

// stubTarget is a minimal hostbridge.Target double exercising only what a
// single VAR_SET block touches (spec §4.7).
type stubTarget struct {
	vars  map[string]*hostbridge.Variable
	lists map[string]*hostbridge.ListCell
}

func newStubTarget() *stubTarget {
	return &stubTarget{vars: map[string]*hostbridge.Variable{}, lists: map[string]*hostbridge.ListCell{}}
}

func (s *stubTarget) Runtime() hostbridge.Runtime                       { return nil }
func (s *stubTarget) Variables() map[string]*hostbridge.Variable        { return s.vars }
func (s *stubTarget) Lists() map[string]*hostbridge.ListCell            { return s.lists }
func (s *stubTarget) X() float64                                        { return 0 }
func (s *stubTarget) Y() float64                                        { return 0 }
func (s *stubTarget) Direction() float64                                { return 90 }
func (s *stubTarget) Size() float64                                     { return 100 }
func (s *stubTarget) CurrentCostume() int                               { return 0 }
func (s *stubTarget) Costumes() []string                                { return nil }
func (s *stubTarget) SetXY(x, y float64)                                {}
func (s *stubTarget) SetDirection(deg float64)                          {}
func (s *stubTarget) SetSize(pct float64)                               {}
func (s *stubTarget) SetCostume(v interface{})                          {}
func (s *stubTarget) SetRotationStyle(style string)                     {}
func (s *stubTarget) GoBackwardLayers(n int)                            {}
func (s *stubTarget) GoForwardLayers(n int)                             {}
func (s *stubTarget) GoToBack()                                         {}
func (s *stubTarget) GoToFront()                                        {}
func (s *stubTarget) SetVisible(visible bool)                           {}
func (s *stubTarget) SetEffect(name string, value float64)              {}
func (s *stubTarget) ClearEffects()                                     {}
func (s *stubTarget) Effects() map[string]float64                       { return nil }
func (s *stubTarget) IsTouchingObject(name string) bool                 { return false }
func (s *stubTarget) IsTouchingColor(color int) bool                    { return false }
func (s *stubTarget) ColorIsTouchingColor(a, b int) bool                { return false }
func (s *stubTarget) LookupVariableByNameAndType(name, kind string) (*hostbridge.Variable, bool) {
	return nil, false
}
func (s *stubTarget) ClearInterpolationData() {}

type stubRuntime struct{}

func (stubRuntime) StageTarget() hostbridge.Target                  { return nil }
func (stubRuntime) GetTargetForStage() hostbridge.Target            { return nil }
func (stubRuntime) GetSpriteTargetByName(string) (hostbridge.Target, bool) { return nil, false }
func (stubRuntime) IODevices() hostbridge.IODevices                 { return nil }
func (stubRuntime) MonitorChangeBlock(string, interface{})          {}
func (stubRuntime) VisualReport(string, interface{})                {}
func (stubRuntime) RequestRedraw()                                  {}
func (stubRuntime) StopAll()                                        {}
func (stubRuntime) StopForTarget(hostbridge.Target)                 {}
func (stubRuntime) DisposeTarget(hostbridge.Target)                 {}
func (stubRuntime) ExtensionHandle(string) (hostbridge.ExtensionHandle, bool) {
	return nil, false
}
func (stubRuntime) OpcodeFunction(string) (func(context.Context, map[string]interface{}) (interface{}, error), bool) {
	return nil, false
}
func (stubRuntime) AddonBlock(string) (func(context.Context, map[string]interface{}) (interface{}, error), bool) {
	return nil, false
}
func (stubRuntime) Debug() bool { return false }

func singleVarSetProgram() *ir.IR {
	return &ir.IR{
		Entry: &ir.Script{
			TopBlockID: "b1",
			Body: &ir.Stack{
				Blocks: []*ir.Block{
					{
						Op:    ir.OpVarSet,
						Field: map[string]string{"var": "x"},
						Inputs: map[string]ir.Node{
							"VALUE": &ir.Input{Op: ir.OpConstant, Literal: 5.0},
						},
					},
				},
			},
		},
		Procedures: map[string]*ir.Script{},
	}
}

func TestRunCompilesAndExecutesEntryScript(t *testing.T) {
	p := New(Options{})
	program := singleVarSetProgram()

	result, err := p.Run(context.Background(), program)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CacheHit {
		t.Fatal("expected a cache miss with no cache configured")
	}

	target := newStubTarget()
	th := thread.New(context.Background(), nil)
	sched := thread.NewScheduler()
	sched.Start(th, func(thr *thread.Thread) error {
		env := &codegen.Env{Thread: thr, Target: target, Stage: target, Runtime: stubRuntime{}}
		return result.Entry(context.Background(), env)
	})
	sched.Tick()

	v, ok := target.vars["x"]
	if !ok {
		t.Fatal("expected variable \"x\" to be set")
	}
	if v.Value == nil {
		t.Fatal("expected a non-nil value for \"x\"")
	}
}

func TestRunPopulatesCacheOnMissAndHitsOnSecondRun(t *testing.T) {
	c, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()

	p := New(Options{Cache: c})
	program := singleVarSetProgram()

	first, err := p.Run(context.Background(), program)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.CacheHit {
		t.Fatal("expected a miss on the first run")
	}

	second, err := p.Run(context.Background(), singleVarSetProgram())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("expected a hit on the second run of a structurally identical program")
	}
}
