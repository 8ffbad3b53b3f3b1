package codegen

import (
	"context"

	"github.com/blockwarp/tw-compiler/internal/hostbridge"
)

// fakeTarget is a minimal hostbridge.Target double for codegen tests.
type fakeTarget struct {
	vars             map[string]*hostbridge.Variable
	lists            map[string]*hostbridge.ListCell
	x, y, dir, size  float64
	costume          int
	visible          bool
	interpCleared    bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		vars:  map[string]*hostbridge.Variable{},
		lists: map[string]*hostbridge.ListCell{},
		size:  100,
	}
}

func (f *fakeTarget) Runtime() hostbridge.Runtime                  { return nil }
func (f *fakeTarget) Variables() map[string]*hostbridge.Variable  { return f.vars }
func (f *fakeTarget) Lists() map[string]*hostbridge.ListCell      { return f.lists }
func (f *fakeTarget) X() float64                                   { return f.x }
func (f *fakeTarget) Y() float64                                   { return f.y }
func (f *fakeTarget) Direction() float64                           { return f.dir }
func (f *fakeTarget) Size() float64                                { return f.size }
func (f *fakeTarget) CurrentCostume() int                          { return f.costume }
func (f *fakeTarget) Costumes() []string                           { return nil }
func (f *fakeTarget) SetXY(x, y float64)                           { f.x, f.y = x, y }
func (f *fakeTarget) SetDirection(deg float64)                     { f.dir = deg }
func (f *fakeTarget) SetSize(pct float64)                          { f.size = pct }
func (f *fakeTarget) SetCostume(v interface{})                     {}
func (f *fakeTarget) SetRotationStyle(style string)                {}
func (f *fakeTarget) GoBackwardLayers(n int)                       {}
func (f *fakeTarget) GoForwardLayers(n int)                        {}
func (f *fakeTarget) GoToBack()                                    {}
func (f *fakeTarget) GoToFront()                                   {}
func (f *fakeTarget) SetVisible(visible bool)                      { f.visible = visible }
func (f *fakeTarget) SetEffect(name string, value float64)         {}
func (f *fakeTarget) ClearEffects()                                {}
func (f *fakeTarget) Effects() map[string]float64                  { return nil }
func (f *fakeTarget) IsTouchingObject(name string) bool            { return false }
func (f *fakeTarget) IsTouchingColor(color int) bool                { return false }
func (f *fakeTarget) ColorIsTouchingColor(a, b int) bool            { return false }
func (f *fakeTarget) LookupVariableByNameAndType(name, kind string) (*hostbridge.Variable, bool) {
	v, ok := f.vars[name]
	return v, ok
}
func (f *fakeTarget) ClearInterpolationData() { f.interpCleared = true }

// fakeRuntime is a minimal hostbridge.Runtime double; every method is a
// harmless no-op/zero-value unless a test overrides the relevant field.
type fakeRuntime struct {
	debug          bool
	monitorCalls   []string
	visualReports  []interface{}
	redrawRequests int
}

func (r *fakeRuntime) StageTarget() hostbridge.Target { return nil }
func (r *fakeRuntime) GetTargetForStage() hostbridge.Target { return nil }
func (r *fakeRuntime) GetSpriteTargetByName(name string) (hostbridge.Target, bool) { return nil, false }
func (r *fakeRuntime) IODevices() hostbridge.IODevices { return nil }
func (r *fakeRuntime) MonitorChangeBlock(id string, value interface{}) {
	r.monitorCalls = append(r.monitorCalls, id)
}
func (r *fakeRuntime) VisualReport(topBlockID string, value interface{}) {
	r.visualReports = append(r.visualReports, value)
}
func (r *fakeRuntime) RequestRedraw() { r.redrawRequests++ }
func (r *fakeRuntime) StopAll()       {}
func (r *fakeRuntime) StopForTarget(t hostbridge.Target) {}
func (r *fakeRuntime) DisposeTarget(t hostbridge.Target) {}
func (r *fakeRuntime) ExtensionHandle(name string) (hostbridge.ExtensionHandle, bool) {
	return nil, false
}
func (r *fakeRuntime) OpcodeFunction(opcode string) (func(ctx context.Context, args map[string]interface{}) (interface{}, error), bool) {
	return nil, false
}
func (r *fakeRuntime) AddonBlock(name string) (func(ctx context.Context, args map[string]interface{}) (interface{}, error), bool) {
	return nil, false
}
func (r *fakeRuntime) Debug() bool { return r.debug }
