package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"library-assessment/internal/model"
	"library-assessment/internal/session"
)

// Profile replays the choices a user makes in the report pane
type Profile struct {
	ReportType    model.ReportType `yaml:"reportType"`
	DateRange     model.DateRange  `yaml:"dateRange"`
	CountKind     string           `yaml:"countKind"`
	SubDimensions []string         `yaml:"subDimensions"`
	Toggles       []Toggle         `yaml:"toggles"`
	Drill         string           `yaml:"drill"`
	Catalogs      *ProfileCatalogs `yaml:"catalogs"`
}

// Toggle is one click on an org unit checkbox
type Toggle struct {
	Level string `yaml:"level"`
	ID    string `yaml:"id"`
}

type ProfileCatalogs struct {
	CollectionTypes  []model.CatalogEntry `yaml:"collectionTypes"`
	CirculationTypes []model.CatalogEntry `yaml:"circulationTypes"`
}

func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &p, nil
}

// SessionOptions returns the catalog overrides of the profile
func (p *Profile) SessionOptions() []session.Option {
	if p.Catalogs == nil {
		return nil
	}
	catalogs := model.DefaultCatalogs()
	if len(p.Catalogs.CollectionTypes) > 0 {
		catalogs.CollectionTypes = model.NewCatalog(p.Catalogs.CollectionTypes...)
	}
	if len(p.Catalogs.CirculationTypes) > 0 {
		catalogs.CirculationTypes = model.NewCatalog(p.Catalogs.CirculationTypes...)
	}
	return []session.Option{session.WithCatalogs(catalogs)}
}

// ApplySettings sets the report options and replays the toggles in order
func (p *Profile) ApplySettings(s *session.Session) error {
	if p.ReportType != "" {
		if err := s.SetReportType(p.ReportType); err != nil {
			return err
		}
	}
	if !p.DateRange.IsZero() {
		if _, err := s.SetDateRange(p.DateRange); err != nil {
			return err
		}
	}
	if p.CountKind != "" {
		if err := s.SetCountKind(p.CountKind); err != nil {
			return err
		}
	}
	if p.SubDimensions != nil {
		if _, err := s.SetSubDimensions(p.SubDimensions); err != nil {
			return err
		}
	}

	for i, t := range p.Toggles {
		level, ok := model.ParseLevel(t.Level)
		if !ok {
			return fmt.Errorf("toggle %d: unknown level %q", i, t.Level)
		}
		if _, err := s.Toggle(level, t.ID); err != nil {
			return fmt.Errorf("toggle %d: %w", i, err)
		}
	}
	return nil
}

// ApplyDrill enters the configured main class once the report is loaded
func (p *Profile) ApplyDrill(s *session.Session) error {
	if p.Drill == "" {
		return nil
	}
	_, err := s.DrillCode(p.Drill)
	return err
}
