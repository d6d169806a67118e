package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	desc, ok := Describe(CirculationByPatronGroup)
	require.True(t, ok)
	assert.Equal(t, FamilyCirculation, desc.Family)
	assert.Equal(t, "circulation-by-patron-group.csv", desc.FileName)
	assert.False(t, desc.Drillable())

	_, ok = Describe(ReportType("unknown"))
	assert.False(t, ok)
}

func TestReportTypesOrder(t *testing.T) {
	var types []ReportType
	for _, d := range ReportTypes() {
		types = append(types, d.Type)
	}
	assert.Equal(t, []ReportType{
		CollectionsByLCCNumber,
		CollectionsByMaterialType,
		CirculationByLCCNumber,
		CirculationByMaterialType,
		CirculationByPatronGroup,
	}, types)
}

func TestResourcePath(t *testing.T) {
	collections, _ := Describe(CollectionsByLCCNumber)
	circulation, _ := Describe(CirculationByLCCNumber)
	r := DateRange{From: "2024-01-01", To: "2024-01-31"}

	assert.Equal(t, "assessment/collections-by-lcc-number", collections.ResourcePath(r))
	assert.Equal(t, "assessment/circulation-by-lcc-number?from=2024-01-01&to=2024-01-31", circulation.ResourcePath(r))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"institutions": LevelInstitution,
		"campus":       LevelCampus,
		"libraries":    LevelLibrary,
	} {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseLevel("floor")
	assert.False(t, ok)
	assert.Equal(t, "campus", LevelCampus.String())
}
