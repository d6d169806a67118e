package report

import (
	"strings"

	"library-assessment/internal/model"
)

// Row is one x-axis entry of a chart: a main class, subclass, material type
// or patron group.
type Row struct {
	Key     string           // label and CSV key
	Caption string           // tooltip, empty for named rows
	Counts  model.CountTable // library id → counts
}

// ClassRows turns classification nodes into rows, label = code, tooltip = caption
func ClassRows(nodes []model.ClassificationNode) []Row {
	rows := make([]Row, len(nodes))
	for i, n := range nodes {
		rows[i] = Row{Key: n.Code, Caption: n.Caption, Counts: n.Counts}
	}
	return rows
}

// NamedRows turns material type or patron group nodes into rows
func NamedRows(nodes []model.NamedNode) []Row {
	rows := make([]Row, len(nodes))
	for i, n := range nodes {
		rows[i] = Row{Key: n.Name, Counts: n.Counts}
	}
	return rows
}

// Tooltip is the caption of a row, falling back to its key
func (r Row) Tooltip() string {
	if r.Caption != "" {
		return r.Caption
	}
	return r.Key
}

// toClassificationNodes maps raw records to main classes and their subclasses
func toClassificationNodes(records []model.ReportRecord) []model.ClassificationNode {
	nodes := make([]model.ClassificationNode, len(records))
	for i, rec := range records {
		nodes[i] = model.ClassificationNode{
			Code:    classCode(rec),
			Caption: strings.TrimSpace(rec.Caption),
			Counts:  normalizeCounts(rec.Counts),
		}
		if len(rec.Subclasses) > 0 {
			nodes[i].Subclasses = make([]model.ClassificationNode, len(rec.Subclasses))
			for j, sub := range rec.Subclasses {
				nodes[i].Subclasses[j] = model.ClassificationNode{
					Code:    classCode(sub),
					Caption: strings.TrimSpace(sub.Caption),
					Counts:  normalizeCounts(sub.Counts),
				}
			}
		}
	}
	return nodes
}

func toNamedNodes(records []model.ReportRecord) []model.NamedNode {
	nodes := make([]model.NamedNode, len(records))
	for i, rec := range records {
		nodes[i] = model.NamedNode{
			ID:     rec.ID,
			Name:   strings.TrimSpace(rec.Name),
			Counts: normalizeCounts(rec.Counts),
		}
	}
	return nodes
}

// classCode prefers letters (subclass) over letter (main class)
func classCode(rec model.ReportRecord) string {
	code := rec.Letters
	if code == "" {
		code = rec.Letter
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeCounts never returns nil so lookups on missing libraries stay safe
func normalizeCounts(in model.CountTable) model.CountTable {
	out := make(model.CountTable, len(in))
	for lib, rec := range in {
		if rec == nil {
			continue
		}
		copied := make(model.CountRecord, len(rec))
		for kind, n := range rec {
			copied[kind] = n
		}
		out[lib] = copied
	}
	return out
}
