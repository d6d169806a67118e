package selection

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-assessment/internal/model"
	"library-assessment/internal/orgunit"
)

func newTree(t *testing.T) *orgunit.Tree {
	t.Helper()
	tree, err := orgunit.New([]model.Institution{
		{ID: "I1", Name: "University", Campuses: []model.Campus{
			{ID: "C1", Name: "Main", Libraries: []model.Library{{ID: "La", Name: "Law"}, {ID: "Lb", Name: "Biology"}}},
			{ID: "C2", Name: "North", Libraries: []model.Library{{ID: "Lc", Name: "Chemistry"}}},
		}},
		{ID: "I2", Name: "College", Campuses: []model.Campus{
			{ID: "C3", Name: "Downtown", Libraries: []model.Library{{ID: "Ld", Name: "Design"}}},
		}},
	})
	require.NoError(t, err)
	return tree
}

var loadTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func assertEntries(t *testing.T, want map[string]bool, got State) {
	t.Helper()
	if diff := cmp.Diff(want, got.Entries()); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleScenario(t *testing.T) {
	store := NewStore(nil)
	store.Load(newTree(t), loadTime)

	state, err := store.ToggleInstitution("I1")
	require.NoError(t, err)
	assertEntries(t, map[string]bool{"I1": true, "I2": false, "C1": false, "C2": false}, state)

	state, err = store.ToggleCampus("C1")
	require.NoError(t, err)
	assertEntries(t, map[string]bool{"I1": true, "I2": false, "C1": true, "C2": false, "La": false, "Lb": false}, state)

	state, err = store.ToggleLibrary("La")
	require.NoError(t, err)
	assertEntries(t, map[string]bool{"I1": true, "I2": false, "C1": true, "C2": false, "La": true, "Lb": false}, state)
	assert.Equal(t, []string{"La"}, store.SelectedLibraries())

	state, err = store.ToggleInstitution("I1")
	require.NoError(t, err)
	assertEntries(t, map[string]bool{"I1": false, "I2": false}, state)
	assert.Empty(t, store.SelectedLibraries())
	assert.Equal(t, Unrevealed, state.Mark("La"))
}

func TestCampusUncheckRemovesLibraries(t *testing.T) {
	store := NewStore(nil)
	store.Load(newTree(t), loadTime)

	_, _ = store.ToggleInstitution("I1")
	_, _ = store.ToggleCampus("C2")
	_, _ = store.ToggleLibrary("Lc")
	state, err := store.ToggleCampus("C2")
	require.NoError(t, err)

	assert.Equal(t, Unselected, state.Mark("C2"))
	assert.Equal(t, Unrevealed, state.Mark("Lc"))
}

func TestToggleUnrevealedUnitIsIgnored(t *testing.T) {
	calls := 0
	store := NewStore(func(State) { calls++ })
	store.Load(newTree(t), loadTime)
	require.Equal(t, 1, calls)

	before := store.Snapshot()
	state, err := store.ToggleCampus("C1")
	require.NoError(t, err)
	assertEntries(t, before.Entries(), state)

	_, err = store.ToggleLibrary("La")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestToggleUnknownUnit(t *testing.T) {
	store := NewStore(nil)
	store.Load(newTree(t), loadTime)

	_, err := store.ToggleInstitution("nope")
	assert.True(t, errors.Is(err, ErrUnknownUnit))

	// right id, wrong level
	_, err = store.ToggleCampus("I1")
	assert.True(t, errors.Is(err, ErrUnknownUnit))
}

func TestListenerReceivesEveryMutation(t *testing.T) {
	var seen []State
	store := NewStore(func(s State) { seen = append(seen, s) })
	store.Load(newTree(t), loadTime)
	_, _ = store.ToggleInstitution("I2")
	_, _ = store.ToggleCampus("C3")

	require.Len(t, seen, 3)
	assertEntries(t, map[string]bool{"I1": false, "I2": false}, seen[0])
	assertEntries(t, map[string]bool{"I1": false, "I2": true, "C3": true, "Ld": false}, seen[2])
}

func TestSnapshotsAreNotMutated(t *testing.T) {
	store := NewStore(nil)
	store.Load(newTree(t), loadTime)

	old := store.Snapshot()
	_, _ = store.ToggleInstitution("I1")

	assertEntries(t, map[string]bool{"I1": false, "I2": false}, old)
	assert.Equal(t, 4, store.Snapshot().Len())
}

func TestLoadIsIdempotentPerTimestamp(t *testing.T) {
	tree := newTree(t)
	store := NewStore(nil)

	assert.True(t, store.Load(tree, loadTime))
	_, _ = store.ToggleInstitution("I1")
	first := store.Snapshot()

	assert.False(t, store.Load(tree, loadTime))
	assertEntries(t, first.Entries(), store.Snapshot())

	assert.True(t, store.Load(tree, loadTime.Add(time.Minute)))
	assertEntries(t, map[string]bool{"I1": false, "I2": false}, store.Snapshot())
}

func TestResetTwiceGivesIdenticalState(t *testing.T) {
	a := NewStore(nil)
	b := NewStore(nil)
	a.Load(newTree(t), loadTime)
	b.Load(newTree(t), loadTime)
	b.Load(newTree(t), loadTime)

	assertEntries(t, a.Snapshot().Entries(), b.Snapshot())
}

func TestReloadDiscardsStaleIDs(t *testing.T) {
	store := NewStore(nil)
	store.Load(newTree(t), loadTime)
	_, _ = store.ToggleInstitution("I1")
	_, _ = store.ToggleCampus("C1")

	smaller, err := orgunit.New([]model.Institution{{ID: "I9", Name: "Other"}})
	require.NoError(t, err)
	store.Load(smaller, loadTime.Add(time.Hour))

	assertEntries(t, map[string]bool{"I9": false}, store.Snapshot())
	require.NoError(t, CheckCascade(smaller, store.Snapshot()))
}

func TestCascadeInvariantHoldsForRandomToggles(t *testing.T) {
	tree := newTree(t)
	ids := map[model.Level][]string{
		model.LevelInstitution: {"I1", "I2"},
		model.LevelCampus:      {"C1", "C2", "C3"},
		model.LevelLibrary:     {"La", "Lb", "Lc", "Ld"},
	}
	levels := []model.Level{model.LevelInstitution, model.LevelCampus, model.LevelLibrary}

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		store := NewStore(nil)
		store.Load(tree, loadTime)
		for step := 0; step < 40; step++ {
			level := levels[rng.Intn(len(levels))]
			id := ids[level][rng.Intn(len(ids[level]))]
			_, err := store.Toggle(level, id)
			require.NoError(t, err)
			require.NoError(t, CheckCascade(tree, store.Snapshot()), "run %d step %d toggling %s %s", run, step, level, id)
		}
	}
}

func TestCheckCascadeReportsViolations(t *testing.T) {
	tree := newTree(t)
	bad := FromEntries(map[string]bool{"I1": false, "I2": true, "C1": false})

	err := CheckCascade(tree, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "C1")
	assert.Contains(t, err.Error(), "C3")
}

func TestMarshalJSONUsesEntries(t *testing.T) {
	data, err := FromEntries(map[string]bool{"I1": true}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"I1": true}`, string(data))
}
