// Package hostbridge declares the narrow contract the generated code
// depends on but never implements (spec §4.7, C7): target/stage state,
// variable and list cells, and the runtime/IO surface a compiled script
// reads or calls into. The compiler core only consumes these interfaces;
// the out-of-scope VM/runtime (spec §1) supplies concrete implementations.
//
// Grounded on the teacher's globals/builtin dispatch shape
// (internal/evaluator's MethodTable + PushCall/PopCall convention for
// dynamic lookups) generalized from a general-purpose language's method
// table to the fixed Scratch-host surface §4.7 enumerates.
package hostbridge

import "context"

// Variable is a single variable or list cell (spec §4.7: "target.variables[id]
// / stage.variables[id] each has {value, isCloud, name}").
type Variable struct {
	Value   interface{}
	IsCloud bool
	Name    string
}

// ListCell extends Variable with the monitor-freshness flag lists carry
// (spec §4.7: "Lists add _monitorUpToDate to the same shape").
type ListCell struct {
	Variable
	MonitorUpToDate bool
}

// Target is one sprite or the stage (spec §4.7's target surface).
type Target interface {
	Runtime() Runtime
	Variables() map[string]*Variable
	Lists() map[string]*ListCell

	X() float64
	Y() float64
	Direction() float64
	Size() float64
	CurrentCostume() int
	Costumes() []string
	SetXY(x, y float64)
	SetDirection(deg float64)
	SetSize(pct float64)
	SetCostume(indexOrName interface{})
	SetRotationStyle(style string)
	GoBackwardLayers(n int)
	GoForwardLayers(n int)
	GoToBack()
	GoToFront()
	SetVisible(visible bool)
	SetEffect(name string, value float64)
	ClearEffects()
	Effects() map[string]float64

	IsTouchingObject(name string) bool
	IsTouchingColor(color int) bool
	ColorIsTouchingColor(a, b int) bool

	LookupVariableByNameAndType(name, kind string) (*Variable, bool)

	// InterpolationData is cleared by the code generator after any command
	// that descends into a MOD helper call immediately followed by a motion
	// setter (spec §4.6 "Arithmetic": "a flag descendedIntoModulo is set so
	// that a following MOTION_{X,Y,XY}_SET clears target.interpolationData").
	ClearInterpolationData()
}

// IODevices is the subset of runtime IO the compiled sensing/control
// opcodes may read (spec §4.7: "ioDevices.{keyboard,mouse,clock,userData,cloud}").
type IODevices interface {
	Keyboard() KeyboardDevice
	Mouse() MouseDevice
	Clock() ClockDevice
	UserData() UserDataDevice
	Cloud() CloudDevice
}

type KeyboardDevice interface{ IsKeyPressed(key string) bool }
type MouseDevice interface {
	X() float64
	Y() float64
	IsDown() bool
}
type ClockDevice interface{ ProjectTimer() float64 }
type UserDataDevice interface{ Username() string }
type CloudDevice interface{ Enabled() bool }

// ExtensionHandle represents a resolved `ext_scratch3_*`/`ext_pen`/addon
// block handle (spec §4.7: "ext_scratch3_* extension handles, ext_pen").
type ExtensionHandle interface {
	Call(ctx context.Context, opcode string, args map[string]interface{}) (interface{}, error)
}

// Runtime is the shared project-level surface (spec §4.7's runtime symbols).
type Runtime interface {
	StageTarget() Target
	GetTargetForStage() Target
	GetSpriteTargetByName(name string) (Target, bool)

	IODevices() IODevices
	MonitorChangeBlock(id string, value interface{})
	VisualReport(topBlockID string, value interface{})
	RequestRedraw()

	StopAll()
	StopForTarget(t Target)
	DisposeTarget(t Target)

	ExtensionHandle(name string) (ExtensionHandle, bool)
	OpcodeFunction(opcode string) (func(ctx context.Context, args map[string]interface{}) (interface{}, error), bool)
	AddonBlock(name string) (func(ctx context.Context, args map[string]interface{}) (interface{}, error), bool)

	// Debug gates the diagnostics the compiler's external interface
	// requires (spec §6 "Diagnostics": "when runtime.debug is true the
	// compiler emits one log line per compiled script/procedure").
	Debug() bool
}
