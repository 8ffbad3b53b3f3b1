package runtimeval

import (
	"math"
	"testing"
)

func TestModFlooredSign(t *testing.T) {
	if got := Mod(-1, 4); got != 3 {
		t.Errorf("Mod(-1,4) = %v, want 3", got)
	}
	if got := Mod(1, -4); got != -3 {
		t.Errorf("Mod(1,-4) = %v, want -3", got)
	}
}

func TestListGetLastFastPath(t *testing.T) {
	l := &List{Items: []Value{Number(1), Number(2), Number(3)}}
	if got := ListGet(l, "last"); got != Value(Number(3)) {
		t.Errorf("ListGet(last) = %v, want 3", got)
	}
}

func TestListInsertAndDelete(t *testing.T) {
	l := &List{Items: []Value{Number(1), Number(2)}}
	ListInsert(l, 1.0, Number(0))
	if len(l.Items) != 3 || l.Items[0] != Value(Number(0)) {
		t.Errorf("after insert at 1: %v", l.Items)
	}
	ListDelete(l, "last")
	if len(l.Items) != 2 {
		t.Errorf("after delete last: %v", l.Items)
	}
}

func TestListContentsSingleCharJoin(t *testing.T) {
	l := &List{Items: []Value{String("a"), String("b"), String("c")}}
	if got := ListContents(l); got != "abc" {
		t.Errorf("ListContents = %q, want abc", got)
	}
	l2 := &List{Items: []Value{String("ab"), String("cd")}}
	if got := ListContents(l2); got != "ab,cd" {
		t.Errorf("ListContents = %q, want ab,cd", got)
	}
}

func TestCompareEqualNumericStrings(t *testing.T) {
	if !CompareEqual(String("5"), Number(5)) {
		t.Error(`"5" should compare equal to 5`)
	}
	if !CompareEqual(String("Hello"), String("hello")) {
		t.Error("string compare should be case-insensitive")
	}
}

func TestTanAtAsymptote(t *testing.T) {
	if got := Tan(90); !math.IsInf(got, 1) {
		t.Errorf("Tan(90) = %v, want +Inf", got)
	}
	if got := Tan(270); !math.IsInf(got, -1) {
		t.Errorf("Tan(270) = %v, want -Inf", got)
	}
}

func TestLimitPrecisionMasksFloatError(t *testing.T) {
	got := LimitPrecision(0.1 + 0.2)
	if got != 0.3 {
		t.Errorf("LimitPrecision(0.1+0.2) = %v, want 0.3", got)
	}
}

func TestColorToList(t *testing.T) {
	got := ColorToList(0xFF8000)
	want := [3]float64{255, 128, 0}
	if got != want {
		t.Errorf("ColorToList(0xFF8000) = %v, want %v", got, want)
	}
}
