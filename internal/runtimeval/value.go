// Package runtimeval models the host's dynamically-typed values and its
// coercion/comparison rules (string<->number, NaN, ±0, ±Infinity — spec §1).
// These are the concrete Go implementations behind the helper names the code
// generator emits calls to (§4.6's scopedEval helper list): toBoolean,
// compareEqual, mod, listGet, and so on.
//
// The Value interface and its concrete number/string/bool/list variants
// mirror the teacher's evaluator.Object interface (internal/evaluator/object.go:
// Type()/Inspect()/Hash()) and its primitive types (object_primitives.go:
// Boolean/Integer/Float/Nil) — adapted from a general-purpose language's
// object model down to the four dynamic kinds a Scratch-like surface language
// actually has: number, string, boolean, and list.
package runtimeval

import "fmt"

// Kind identifies a Value's dynamic type at runtime.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindList
)

// Value is any value the generated code can hold in a local or a variable
// slot.
type Value interface {
	Kind() Kind
	Inspect() string
}

// Number is a host-level float64, the single numeric representation (no
// separate int/float split at runtime — matches the lattice's view that
// POS_INT vs POS_FRACT is a refinement of one underlying number kind).
type Number float64

func (Number) Kind() Kind           { return KindNumber }
func (n Number) Inspect() string    { return fmt.Sprintf("%v", float64(n)) }

// String is a host-level string.
type String string

func (String) Kind() Kind        { return KindString }
func (s String) Inspect() string { return string(s) }

// Bool is a host-level boolean.
type Bool bool

func (Bool) Kind() Kind        { return KindBool }
func (b Bool) Inspect() string { return fmt.Sprintf("%t", bool(b)) }

// List is a mutable, 1-indexed (at the surface-language level; 0-indexed in
// this slice) sequence of Values, mirroring a Scratch list's observable
// shape (§4.7: "target.variables[id] ... Lists add _monitorUpToDate").
type List struct {
	Items          []Value
	MonitorUpToDate bool
}

func (*List) Kind() Kind { return KindList }
func (l *List) Inspect() string {
	return fmt.Sprintf("list(%d items)", len(l.Items))
}

// Touch invalidates the list's monitor, per §5 "Shared-resource policy":
// "List monitors are invalidated by setting _monitorUpToDate = false after
// any write." Every helper that mutates a List must call this.
func (l *List) Touch() { l.MonitorUpToDate = false }
