package model

import "time"

// CountRecord maps a count kind (titles, volumes, a circulation type) to a count
type CountRecord map[string]int64

// CountTable maps a library id to the counts recorded for it
type CountTable map[string]CountRecord

// ClassificationNode is one LCC main class or subclass
type ClassificationNode struct {
	Code       string               `json:"code"`    // 1-3 letters
	Caption    string               `json:"caption"` // displayed as tooltip
	Counts     CountTable           `json:"counts"`
	Subclasses []ClassificationNode `json:"subclasses,omitempty"` // empty at subclass level
}

// NamedNode is one material type or patron group row
type NamedNode struct {
	ID     string     `json:"id,omitempty"`
	Name   string     `json:"name"`
	Counts CountTable `json:"counts"`
}

// ReportRecord is a raw row of a report load response. Classification rows
// carry letter (main class) or letters (subclass), named rows carry name.
type ReportRecord struct {
	ID         string         `json:"id,omitempty"`
	Letter     string         `json:"letter,omitempty"`
	Letters    string         `json:"letters,omitempty"`
	Caption    string         `json:"caption,omitempty"`
	Name       string         `json:"name,omitempty"`
	Counts     CountTable     `json:"counts"`
	Subclasses []ReportRecord `json:"subclasses,omitempty"`
}

// ReportSnapshot is the report load response delivered by the platform
type ReportSnapshot struct {
	LoadedAt time.Time      `json:"loadedAt"`
	From     string         `json:"from,omitempty"`
	To       string         `json:"to,omitempty"`
	Records  []ReportRecord `json:"records"`
}

// DateRange bounds circulation reports, dates are YYYY-MM-DD
type DateRange struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// IsZero reports whether no bound is set
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}
