// Package selection owns which org units are selected and keeps the
// parent/child cascade consistent after every toggle.
package selection

import (
	"errors"
	"fmt"
	"time"

	"library-assessment/internal/model"
	"library-assessment/internal/orgunit"
)

var ErrUnknownUnit = errors.New("unknown org unit")

// Listener receives the full state after every mutation
type Listener func(State)

// Store is the single writer of the selection state
type Store struct {
	tree     *orgunit.Tree
	state    State
	loadedAt time.Time
	loaded   bool
	listener Listener
}

// NewStore creates a store over an empty tree
func NewStore(listener Listener) *Store {
	return &Store{
		tree:     orgunit.Empty(),
		state:    State{marks: map[string]Mark{}},
		listener: listener,
	}
}

// Load installs a freshly loaded tree. The state is reset to one unselected
// entry per institution, but only when loadedAt differs from the last load.
func (s *Store) Load(tree *orgunit.Tree, loadedAt time.Time) bool {
	if s.loaded && s.loadedAt.Equal(loadedAt) {
		return false
	}

	marks := make(map[string]Mark, len(tree.InstitutionIDs()))
	for _, id := range tree.InstitutionIDs() {
		marks[id] = Unselected
	}

	s.tree = tree
	s.loadedAt = loadedAt
	s.loaded = true
	s.commit(State{marks: marks})
	return true
}

// LoadedAt returns the timestamp of the tree in use, zero before any load
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

func (s *Store) Tree() *orgunit.Tree { return s.tree }

// Snapshot returns the current state. It is never mutated afterwards.
func (s *Store) Snapshot() State { return s.state }

// ToggleInstitution flips an institution. Selecting it reveals its campuses
// as unselected; unselecting it removes its campuses and their libraries.
func (s *Store) ToggleInstitution(id string) (State, error) {
	return s.toggle(id, model.LevelInstitution)
}

// ToggleCampus flips a campus. Selecting it reveals its libraries as
// unselected; unselecting it removes them.
func (s *Store) ToggleCampus(id string) (State, error) {
	return s.toggle(id, model.LevelCampus)
}

// ToggleLibrary flips a library
func (s *Store) ToggleLibrary(id string) (State, error) {
	return s.toggle(id, model.LevelLibrary)
}

// Toggle flips id at the given level
func (s *Store) Toggle(level model.Level, id string) (State, error) {
	return s.toggle(id, level)
}

func (s *Store) toggle(id string, level model.Level) (State, error) {
	unit, ok := s.tree.Unit(id)
	if !ok || unit.Level != level {
		return s.state, fmt.Errorf("%w: %s %s", ErrUnknownUnit, level, id)
	}

	current := s.state.Mark(id)
	if !current.Revealed() {
		// not rendered while the parent is unselected
		return s.state, nil
	}

	marks := s.state.edit()
	selecting := !current.Selected()
	marks[id] = revealed(selecting)

	for _, childID := range unit.Children {
		if selecting {
			marks[childID] = Unselected
			continue
		}
		delete(marks, childID)
		for _, grandchildID := range s.tree.Children(childID) {
			delete(marks, grandchildID)
		}
	}

	s.commit(State{marks: marks})
	return s.state, nil
}

// SelectedLibraries returns the selected library ids in tree order
func (s *Store) SelectedLibraries() []string {
	var ids []string
	for _, id := range s.tree.LibraryIDs() {
		if s.state.Mark(id).Selected() {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) commit(next State) {
	s.state = next
	if s.listener != nil {
		s.listener(next)
	}
}

// CheckCascade verifies the cascade invariant of state against tree: a
// selected parent has an entry for each child, any other parent has none.
func CheckCascade(tree *orgunit.Tree, state State) error {
	var errs []error
	for _, instID := range tree.InstitutionIDs() {
		if !state.Mark(instID).Revealed() {
			errs = append(errs, fmt.Errorf("institution %s has no entry", instID))
		}
		errs = append(errs, checkChildren(tree, state, instID)...)
		for _, campusID := range tree.Children(instID) {
			errs = append(errs, checkChildren(tree, state, campusID)...)
		}
	}
	for _, id := range state.IDs() {
		if _, ok := tree.Unit(id); !ok {
			errs = append(errs, fmt.Errorf("entry %s is not in the tree", id))
		}
	}
	return errors.Join(errs...)
}

func checkChildren(tree *orgunit.Tree, state State, parentID string) []error {
	var errs []error
	parentSelected := state.Mark(parentID).Selected()
	for _, childID := range tree.Children(parentID) {
		has := state.Mark(childID).Revealed()
		switch {
		case parentSelected && !has:
			errs = append(errs, fmt.Errorf("%s is selected but child %s has no entry", parentID, childID))
		case !parentSelected && has:
			errs = append(errs, fmt.Errorf("%s is not selected but child %s has an entry", parentID, childID))
		}
	}
	return errs
}
