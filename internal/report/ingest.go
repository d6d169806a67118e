package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"library-assessment/internal/model"
	"library-assessment/internal/orgunit"
	"library-assessment/pkg/utils"
)

var ErrUnknownReport = errors.New("unknown report type")

// Dataset is the decoded, immutable count table of one report load
type Dataset struct {
	Type     model.ReportType
	LoadedAt time.Time
	Range    model.DateRange
	Classes  []model.ClassificationNode // classification reports
	Named    []model.NamedNode          // material type and patron group reports
}

// Len counts the top-level rows
func (d Dataset) Len() int {
	if len(d.Classes) > 0 {
		return len(d.Classes)
	}
	return len(d.Named)
}

// NewDataset validates and converts a report snapshot
func NewDataset(t model.ReportType, snap model.ReportSnapshot) (Dataset, error) {
	desc, ok := model.Describe(t)
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownReport, t)
	}
	if err := ValidateRecords(desc, snap.Records); err != nil {
		return Dataset{}, err
	}

	rng, err := utils.NormalizeDateRange(model.DateRange{From: snap.From, To: snap.To})
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", t, err)
	}

	ds := Dataset{
		Type:     t,
		LoadedAt: snap.LoadedAt,
		Range:    rng,
	}
	if desc.Shape == model.ShapeClassification {
		ds.Classes = toClassificationNodes(snap.Records)
	} else {
		ds.Named = toNamedNodes(snap.Records)
	}
	return ds, nil
}

// DecodeReport reads a report snapshot from r. A bare JSON array of records is
// accepted as well as the {"records": [...]} envelope.
func DecodeReport(r io.Reader, t model.ReportType) (Dataset, error) {
	snap, err := decodeReportSnapshot(r)
	if err != nil {
		return Dataset{}, err
	}
	return NewDataset(t, snap)
}

// DecodeOrgUnits reads an org-unit snapshot from r and indexes it
func DecodeOrgUnits(r io.Reader) (model.OrgUnitSnapshot, *orgunit.Tree, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.OrgUnitSnapshot{}, nil, fmt.Errorf("failed to read org units: %w", err)
	}

	var snap model.OrgUnitSnapshot
	if len(raw) > 0 && firstNonSpace(raw) == '[' {
		err = json.Unmarshal(raw, &snap.Institutions)
	} else {
		err = json.Unmarshal(raw, &snap)
	}
	if err != nil {
		return model.OrgUnitSnapshot{}, nil, fmt.Errorf("%w: org units: %w", ErrInvalidSnapshot, err)
	}

	tree, err := orgunit.New(snap.Institutions)
	if err != nil {
		return model.OrgUnitSnapshot{}, nil, fmt.Errorf("%w: org units: %w", ErrInvalidSnapshot, err)
	}
	return snap, tree, nil
}

// LoadOrgUnitsFile reads an org-unit snapshot from disk. A zero loadedAt is
// replaced by the file modification time.
func LoadOrgUnitsFile(path string) (model.OrgUnitSnapshot, *orgunit.Tree, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.OrgUnitSnapshot{}, nil, fmt.Errorf("failed to open org units file: %w", err)
	}
	defer file.Close()

	snap, tree, err := DecodeOrgUnits(file)
	if err != nil {
		return snap, nil, err
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = modTime(file)
	}
	return snap, tree, nil
}

// LoadReportFile reads a report snapshot from disk
func LoadReportFile(path string, t model.ReportType) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	snap, err := decodeReportSnapshot(file)
	if err != nil {
		return Dataset{}, err
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = modTime(file)
	}
	return NewDataset(t, snap)
}

func decodeReportSnapshot(r io.Reader) (model.ReportSnapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.ReportSnapshot{}, fmt.Errorf("failed to read report: %w", err)
	}

	var snap model.ReportSnapshot
	if len(raw) > 0 && firstNonSpace(raw) == '[' {
		err = json.Unmarshal(raw, &snap.Records)
	} else {
		err = json.Unmarshal(raw, &snap)
	}
	if err != nil {
		return model.ReportSnapshot{}, fmt.Errorf("%w: report: %w", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

func modTime(file *os.File) time.Time {
	if info, err := file.Stat(); err == nil {
		return info.ModTime().UTC()
	}
	return time.Now().UTC()
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
