package model

import (
	"fmt"
	"net/url"
)

// ReportType names one of the available reports
type ReportType string

const (
	CollectionsByLCCNumber    ReportType = "collections-by-lcc-number"
	CollectionsByMaterialType ReportType = "collections-by-material-type"
	CirculationByLCCNumber    ReportType = "circulation-by-lcc-number"
	CirculationByMaterialType ReportType = "circulation-by-material-type"
	CirculationByPatronGroup  ReportType = "circulation-by-patron-group"
)

// Family groups reports by their sub-dimension catalog
type Family string

const (
	FamilyCollections Family = "collections"
	FamilyCirculation Family = "circulation"
)

// RowShape tells how the rows of a report are labelled
type RowShape int

const (
	ShapeClassification RowShape = iota // letter/letters + caption, drillable
	ShapeNamed                          // name only
)

// ReportDescriptor describes how a report is loaded, aggregated and exported
type ReportDescriptor struct {
	Type      ReportType `json:"type"`
	Family    Family     `json:"family"`
	Title     string     `json:"title"`
	Shape     RowShape   `json:"shape"`
	Dated     bool       `json:"dated"`     // accepts a from/to range
	KeyColumn string     `json:"keyColumn"` // CSV key column of named reports
	FileName  string     `json:"fileName"`
}

var reportDescriptors = []ReportDescriptor{
	{Type: CollectionsByLCCNumber, Family: FamilyCollections, Title: "Collections by LCC Number", Shape: ShapeClassification, KeyColumn: "main_class_letter"},
	{Type: CollectionsByMaterialType, Family: FamilyCollections, Title: "Collections by Material Type", Shape: ShapeNamed, KeyColumn: "material_type"},
	{Type: CirculationByLCCNumber, Family: FamilyCirculation, Title: "Circulation by LCC Number", Shape: ShapeClassification, Dated: true, KeyColumn: "main_class_letter"},
	{Type: CirculationByMaterialType, Family: FamilyCirculation, Title: "Circulation by Material Type", Shape: ShapeNamed, Dated: true, KeyColumn: "material_type"},
	{Type: CirculationByPatronGroup, Family: FamilyCirculation, Title: "Circulation by Patron Group", Shape: ShapeNamed, Dated: true, KeyColumn: "patron_group"},
}

func init() {
	for i := range reportDescriptors {
		reportDescriptors[i].FileName = string(reportDescriptors[i].Type) + ".csv"
	}
}

// ReportTypes lists every report in display order
func ReportTypes() []ReportDescriptor {
	out := make([]ReportDescriptor, len(reportDescriptors))
	copy(out, reportDescriptors)
	return out
}

// Describe looks up the descriptor of a report type
func Describe(t ReportType) (ReportDescriptor, bool) {
	for _, d := range reportDescriptors {
		if d.Type == t {
			return d, true
		}
	}
	return ReportDescriptor{}, false
}

// ResourcePath is the backend path the collaborator loads the report from
func (d ReportDescriptor) ResourcePath(r DateRange) string {
	path := "assessment/" + string(d.Type)
	if !d.Dated {
		return path
	}
	q := url.Values{}
	q.Set("from", r.From)
	q.Set("to", r.To)
	return fmt.Sprintf("%s?%s", path, q.Encode())
}

func (d ReportDescriptor) Drillable() bool {
	return d.Shape == ShapeClassification
}
