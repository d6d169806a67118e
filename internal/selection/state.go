package selection

import (
	"encoding/json"
	"sort"
)

// Mark is the selection state of one org unit. Units whose parent is not
// selected are Unrevealed and carry no entry in a State.
type Mark uint8

const (
	Unrevealed Mark = iota
	Unselected
	Selected
)

// Revealed reports whether the unit is rendered, selected or not
func (m Mark) Revealed() bool { return m != Unrevealed }

func (m Mark) Selected() bool { return m == Selected }

func (m Mark) String() string {
	switch m {
	case Unselected:
		return "unselected"
	case Selected:
		return "selected"
	default:
		return "unrevealed"
	}
}

func revealed(selected bool) Mark {
	if selected {
		return Selected
	}
	return Unselected
}

// State is an immutable snapshot of every revealed unit
type State struct {
	marks map[string]Mark
}

// Mark returns the mark of id, Unrevealed when it has no entry
func (s State) Mark(id string) Mark {
	return s.marks[id]
}

// Len counts revealed units
func (s State) Len() int { return len(s.marks) }

// IDs returns the revealed ids, sorted
func (s State) IDs() []string {
	ids := make([]string, 0, len(s.marks))
	for id := range s.marks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns the id → selected mapping of revealed units
func (s State) Entries() map[string]bool {
	out := make(map[string]bool, len(s.marks))
	for id, m := range s.marks {
		out[id] = m.Selected()
	}
	return out
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

// edit copies the marks so the receiver stays untouched
func (s State) edit() map[string]Mark {
	next := make(map[string]Mark, len(s.marks)+4)
	for id, m := range s.marks {
		next[id] = m
	}
	return next
}

// FromEntries builds a state from an id → selected mapping
func FromEntries(entries map[string]bool) State {
	marks := make(map[string]Mark, len(entries))
	for id, selected := range entries {
		marks[id] = revealed(selected)
	}
	return State{marks: marks}
}
