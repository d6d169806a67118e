// Package orgunit indexes the institution → campus → library forest.
package orgunit

import (
	"errors"
	"fmt"

	"library-assessment/internal/model"
)

var (
	ErrEmptyID     = errors.New("org unit id is empty")
	ErrDuplicateID = errors.New("duplicate org unit id")
)

// Unit is a level-independent view of one node of the tree
type Unit struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Level    model.Level `json:"level"`
	ParentID string      `json:"parentId,omitempty"`
	Children []string    `json:"children,omitempty"`
}

// Tree is an immutable, indexed org-unit forest. Ids are unique across levels.
type Tree struct {
	institutions []model.Institution
	units        map[string]Unit
	roots        []string
	libraries    []string
}

// New indexes institutions; the input slice is copied
func New(institutions []model.Institution) (*Tree, error) {
	t := &Tree{
		institutions: cloneInstitutions(institutions),
		units:        make(map[string]Unit),
	}

	var errs []error
	add := func(u Unit) {
		if u.ID == "" {
			errs = append(errs, fmt.Errorf("%w: %s %q", ErrEmptyID, u.Level, u.Name))
			return
		}
		if prev, exists := t.units[u.ID]; exists {
			errs = append(errs, fmt.Errorf("%w: %s used by %s %q and %s %q", ErrDuplicateID, u.ID, prev.Level, prev.Name, u.Level, u.Name))
			return
		}
		t.units[u.ID] = u
	}

	for _, inst := range t.institutions {
		campusIDs := make([]string, 0, len(inst.Campuses))
		for _, campus := range inst.Campuses {
			campusIDs = append(campusIDs, campus.ID)
			libraryIDs := make([]string, 0, len(campus.Libraries))
			for _, lib := range campus.Libraries {
				libraryIDs = append(libraryIDs, lib.ID)
				t.libraries = append(t.libraries, lib.ID)
				add(Unit{ID: lib.ID, Name: lib.Name, Level: model.LevelLibrary, ParentID: campus.ID})
			}
			add(Unit{ID: campus.ID, Name: campus.Name, Level: model.LevelCampus, ParentID: inst.ID, Children: libraryIDs})
		}
		t.roots = append(t.roots, inst.ID)
		add(Unit{ID: inst.ID, Name: inst.Name, Level: model.LevelInstitution, Children: campusIDs})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// Empty returns a tree without units
func Empty() *Tree {
	return &Tree{units: map[string]Unit{}}
}

// Unit looks up a node by id
func (t *Tree) Unit(id string) (Unit, bool) {
	u, ok := t.units[id]
	return u, ok
}

// Children returns the ordered child ids of a node
func (t *Tree) Children(id string) []string {
	return t.units[id].Children
}

// InstitutionIDs returns the top-level ids in load order
func (t *Tree) InstitutionIDs() []string {
	return t.roots
}

// LibraryIDs returns every library id in tree order
func (t *Tree) LibraryIDs() []string {
	return t.libraries
}

// Institutions returns a copy of the nested forest
func (t *Tree) Institutions() []model.Institution {
	return cloneInstitutions(t.institutions)
}

func (t *Tree) Len() int { return len(t.units) }

func cloneInstitutions(in []model.Institution) []model.Institution {
	out := make([]model.Institution, len(in))
	for i, inst := range in {
		out[i] = model.Institution{ID: inst.ID, Name: inst.Name, Campuses: make([]model.Campus, len(inst.Campuses))}
		for j, campus := range inst.Campuses {
			libs := make([]model.Library, len(campus.Libraries))
			copy(libs, campus.Libraries)
			out[i].Campuses[j] = model.Campus{ID: campus.ID, Name: campus.Name, Libraries: libs}
		}
	}
	return out
}
