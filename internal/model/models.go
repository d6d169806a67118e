package model

import "time"

// Level identifies the depth of an organizational unit
type Level int

const (
	LevelInstitution Level = iota
	LevelCampus
	LevelLibrary
)

func (l Level) String() string {
	switch l {
	case LevelInstitution:
		return "institution"
	case LevelCampus:
		return "campus"
	case LevelLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// ParseLevel maps the plural route segment or singular name to a Level
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "institution", "institutions":
		return LevelInstitution, true
	case "campus", "campuses":
		return LevelCampus, true
	case "library", "libraries":
		return LevelLibrary, true
	}
	return 0, false
}

// Library is a leaf organizational unit, the only level that carries counts
type Library struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Campus groups libraries
type Campus struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Libraries []Library `json:"libraries" yaml:"libraries"`
}

// Institution is a top-level organizational unit
type Institution struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Campuses []Campus `json:"campuses" yaml:"campuses"`
}

// OrgUnitSnapshot is the org-unit load response delivered by the platform
type OrgUnitSnapshot struct {
	LoadedAt     time.Time     `json:"loadedAt"`
	Institutions []Institution `json:"institutions"`
}
