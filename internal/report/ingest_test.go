package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-assessment/internal/model"
	"library-assessment/pkg/utils"
)

const lccPayload = `{
  "loadedAt": "2024-03-01T09:00:00Z",
  "from": "2024-01-01",
  "to": "2024-01-31",
  "records": [
    {"letter": "q", "caption": " Science ", "counts": {"L1": {"loans": 3}},
     "subclasses": [{"letters": "QA", "caption": "Mathematics", "counts": {"L1": {"loans": 2}}}]},
    {"letter": "R", "caption": "Medicine", "counts": {}}
  ]
}`

func TestDecodeClassificationReport(t *testing.T) {
	ds, err := DecodeReport(strings.NewReader(lccPayload), model.CirculationByLCCNumber)
	require.NoError(t, err)

	assert.Equal(t, model.CirculationByLCCNumber, ds.Type)
	assert.True(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Equal(ds.LoadedAt))
	assert.Equal(t, model.DateRange{From: "2024-01-01", To: "2024-01-31"}, ds.Range)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Q", ds.Classes[0].Code)
	assert.Equal(t, "Science", ds.Classes[0].Caption)
	require.Len(t, ds.Classes[0].Subclasses, 1)
	assert.Equal(t, "QA", ds.Classes[0].Subclasses[0].Code)
	assert.NotNil(t, ds.Classes[1].Counts)
	assert.Empty(t, ds.Named)
}

func TestDecodeNamedReportFromBareArray(t *testing.T) {
	payload := `[{"name": "Book", "counts": {"L1": {"titles": 4, "volumes": 6}}}]`

	ds, err := DecodeReport(strings.NewReader(payload), model.CollectionsByMaterialType)
	require.NoError(t, err)

	require.Len(t, ds.Named, 1)
	assert.Equal(t, "Book", ds.Named[0].Name)
	assert.Equal(t, int64(6), ds.Named[0].Counts["L1"]["volumes"])
}

func TestDecodeReportRejectsInvalidRows(t *testing.T) {
	payload := `[{"letter": "Q1", "counts": {"L1": {"loans": -1}}, "subclasses": [{"letters": "QA", "subclasses": [{"letters": "QAA"}]}]}]`

	_, err := DecodeReport(strings.NewReader(payload), model.CirculationByLCCNumber)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
	assert.Contains(t, err.Error(), "1-3 letters")
	assert.Contains(t, err.Error(), "negative")
	assert.Contains(t, err.Error(), "nested")
}

func TestDecodeReportNormalizesDateRange(t *testing.T) {
	padded := `{"from": " 2024-01-01", "to": "2024-01-31 ", "records": [{"name": "Book", "counts": {}}]}`
	ds, err := DecodeReport(strings.NewReader(padded), model.CirculationByMaterialType)
	require.NoError(t, err)
	assert.Equal(t, model.DateRange{From: "2024-01-01", To: "2024-01-31"}, ds.Range)

	inverted := `{"from": "2024-12-31", "to": "2024-01-01", "records": []}`
	_, err = DecodeReport(strings.NewReader(inverted), model.CirculationByMaterialType)
	assert.True(t, errors.Is(err, utils.ErrInvalidDateRange))
}

func TestDecodeReportUnknownType(t *testing.T) {
	_, err := DecodeReport(strings.NewReader(`[]`), model.ReportType("nope"))
	assert.True(t, errors.Is(err, ErrUnknownReport))
}

func TestDecodeReportMalformedJSON(t *testing.T) {
	_, err := DecodeReport(strings.NewReader(`{"records": [`), model.CirculationByPatronGroup)
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
}

func TestNamedRowsNeedAName(t *testing.T) {
	desc, _ := model.Describe(model.CirculationByPatronGroup)
	err := ValidateRecords(desc, []model.ReportRecord{{ID: "g1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestDecodeOrgUnits(t *testing.T) {
	payload := `{"loadedAt": "2024-03-01T09:00:00Z", "institutions": [
	  {"id": "I1", "name": "University", "campuses": [{"id": "C1", "name": "Main", "libraries": [{"id": "La", "name": "Law"}]}]}
	]}`

	snap, tree, err := DecodeOrgUnits(strings.NewReader(payload))
	require.NoError(t, err)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Equal(t, []string{"La"}, tree.LibraryIDs())
}

func TestDecodeOrgUnitsDuplicateIDs(t *testing.T) {
	payload := `[{"id": "X", "name": "A", "campuses": [{"id": "X", "name": "B"}]}]`

	_, _, err := DecodeOrgUnits(strings.NewReader(payload))
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
}

func TestLoadFilesUseModTimeWhenUnstamped(t *testing.T) {
	dir := t.TempDir()
	orgPath := filepath.Join(dir, "org.json")
	reportPath := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(orgPath, []byte(`[{"id": "I1", "name": "U"}]`), 0o644))
	require.NoError(t, os.WriteFile(reportPath, []byte(`[{"name": "Faculty", "counts": {}}]`), 0o644))

	snap, tree, err := LoadOrgUnitsFile(orgPath)
	require.NoError(t, err)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Equal(t, []string{"I1"}, tree.InstitutionIDs())

	ds, err := LoadReportFile(reportPath, model.CirculationByPatronGroup)
	require.NoError(t, err)
	assert.False(t, ds.LoadedAt.IsZero())

	_, err = LoadReportFile(filepath.Join(dir, "missing.json"), model.CirculationByPatronGroup)
	assert.Error(t, err)
}
