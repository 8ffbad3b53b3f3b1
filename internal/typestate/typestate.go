// Package typestate implements C3: a mapping from variable id to lattice
// element, threaded through the analyzer and rewriter. Shaped after the
// teacher's persistent_map.go / environment.go pattern of a small mutable
// map wrapper with explicit clone semantics (internal/evaluator/environment.go
// clones its bindings at closure-capture time the same way TypeState clones
// at branch/loop boundaries) — but TypeState additionally reports whether a
// mutation changed anything, since the analyzer's fixed-point loop (§4.4)
// depends on that boolean to detect convergence.
package typestate

import "github.com/blockwarp/tw-compiler/internal/lattice"

// State maps a variable id to its currently-known lattice element. A missing
// key means "unknown", which Get reports as lattice.Any (§3: "get returns ANY
// if absent") rather than Bottom — Bottom would mean "no value is possible",
// which is never sound for a variable that does exist.
type State struct {
	vars map[string]lattice.Type
}

// New creates an empty TypeState (every variable reads as lattice.Any).
func New() *State {
	return &State{vars: make(map[string]lattice.Type)}
}

// Get returns the currently-known type of v, or lattice.Any if v has never
// been set in this state.
func (s *State) Get(v string) lattice.Type {
	if t, ok := s.vars[v]; ok {
		return t
	}
	return lattice.Any
}

// Set records that v now has type t, returning whether this changed the
// stored value (used by VAR_SET's changed-flag in §4.4).
func (s *State) Set(v string, t lattice.Type) bool {
	old, had := s.vars[v]
	if had && old == t {
		return false
	}
	s.vars[v] = t
	return true
}

// Clone returns an independent deep copy, for cloning at branch/loop
// boundaries (§3 "Lifecycle").
func (s *State) Clone() *State {
	cp := make(map[string]lattice.Type, len(s.vars))
	for k, v := range s.vars {
		cp[k] = v
	}
	return &State{vars: cp}
}

// Or merges other into s in place: for each key present in either side, s's
// value becomes the bitwise union of both sides' values; a key present in
// only one of the two states is promoted to lattice.Any on the merged state,
// since a branch that never reaches an assignment leaves that variable's
// type genuinely unconstrained by this merge (§3's "later revision" choice,
// see DESIGN.md's Open Question resolution). Returns whether s changed.
func (s *State) Or(other *State) bool {
	changed := false

	for k, v := range other.vars {
		mine, had := s.vars[k]
		if !had {
			// Present only on other's side: promote to ANY rather than simply
			// adopting v, since on s's branch this variable could hold
			// whatever it held on entry to the join, which we no longer track.
			if s.setUnlessAny(k, lattice.Any) {
				changed = true
			}
			continue
		}
		joined := lattice.Join(mine, v)
		if joined != mine {
			s.vars[k] = joined
			changed = true
		}
	}
	for k := range s.vars {
		if _, inOther := other.vars[k]; !inOther {
			if s.setUnlessAny(k, lattice.Any) {
				changed = true
			}
		}
	}
	return changed
}

// setUnlessAny sets vars[k]=val only if that differs from the current value,
// reporting whether it changed. Small helper to keep Or's two symmetric loops
// free of duplicated change-detection logic.
func (s *State) setUnlessAny(k string, val lattice.Type) bool {
	old, had := s.vars[k]
	if had && old == val {
		return false
	}
	s.vars[k] = val
	return true
}

// Clear resets every tracked variable to lattice.Any (used around yields and
// opaque calls, §5). Returns whether anything was non-ANY beforehand.
func (s *State) Clear() bool {
	changed := false
	for k, v := range s.vars {
		if v != lattice.Any {
			changed = true
		}
		s.vars[k] = lattice.Any
	}
	return changed
}

// Keys returns the variable ids currently tracked (non-ANY or explicitly
// set), primarily for deterministic diagnostic dumps.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	return keys
}
