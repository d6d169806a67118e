// Package session ties the selection store, the loaded datasets and the
// drill controller of one report pane together behind a single writer.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"library-assessment/internal/metrics"
	"library-assessment/internal/model"
	"library-assessment/internal/orgunit"
	"library-assessment/internal/pkg/logger"
	"library-assessment/internal/report"
	"library-assessment/internal/selection"
	"library-assessment/pkg/utils"
)

var (
	ErrNotLoaded           = errors.New("report not yet loaded")
	ErrUnknownSubDimension = errors.New("unknown sub-dimension")
	ErrRangeMismatch       = errors.New("report loaded for another date range")
)

const module = "session"

// Option configures a Session
type Option func(*Session)

func WithLogger(l logger.ILogger) Option {
	return func(s *Session) { s.logger = l }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithCatalogs replaces the built-in sub-dimension catalogs
func WithCatalogs(c model.Catalogs) Option {
	return func(s *Session) { s.catalogs = c }
}

// WithReportType sets the report shown first
func WithReportType(t model.ReportType) Option {
	return func(s *Session) { s.reportType = t }
}

// Session is the state of one report pane. All methods are safe for
// concurrent use; mutations are serialized.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	catalogs  model.Catalogs
	logger    logger.ILogger
	recorder  metrics.Recorder

	store         *selection.Store
	datasets      map[model.ReportType]report.Dataset
	reportType    model.ReportType
	subDimensions []string
	countKind     string
	dateRange     model.DateRange
	drill         report.DrillController
}

func New(id string, opts ...Option) *Session {
	s := &Session{
		id:         id,
		createdAt:  time.Now().UTC(),
		catalogs:   model.DefaultCatalogs(),
		logger:     logger.NewNop(),
		recorder:   metrics.Nop{},
		datasets:   make(map[model.ReportType]report.Dataset),
		reportType: model.CollectionsByLCCNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := model.Describe(s.reportType); !ok {
		s.reportType = model.CollectionsByLCCNumber
	}

	s.store = selection.NewStore(nil)
	s.subDimensions = s.catalogs.CirculationTypes.Keys()
	if keys := s.catalogs.CollectionTypes.Keys(); len(keys) > 0 {
		s.countKind = keys[0]
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Catalogs() model.Catalogs { return s.catalogs }

// LoadOrgUnits installs an org-unit tree. A tree with the timestamp already
// in use is ignored and false is returned.
func (s *Session) LoadOrgUnits(tree *orgunit.Tree, loadedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("load_org_units", time.Now(), nil)

	changed := s.store.Load(tree, loadedAt)
	if changed {
		s.logger.Info(module, "org units loaded", map[string]interface{}{
			"session_id":   s.id,
			"loaded_at":    loadedAt,
			"institutions": len(tree.InstitutionIDs()),
			"libraries":    len(tree.LibraryIDs()),
		})
	}
	return changed
}

// LoadReport installs a report dataset. A dataset with the timestamp already
// held for its type is ignored. A new dataset for the active report resets
// the drill-down.
func (s *Session) LoadReport(ds report.Dataset) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("load_report", start, err) }(time.Now())

	desc, ok := model.Describe(ds.Type)
	if !ok {
		return false, fmt.Errorf("%w: %s", report.ErrUnknownReport, ds.Type)
	}
	if desc.Dated {
		if ds.Range, err = utils.NormalizeDateRange(ds.Range); err != nil {
			return false, fmt.Errorf("%s: %w", ds.Type, err)
		}
		switch {
		case ds.Range.IsZero():
			ds.Range = s.dateRange
		case s.dateRange.IsZero():
			s.setDateRange(ds.Range)
		case s.dateRange != ds.Range:
			return false, fmt.Errorf("%w: %s has %s..%s, session uses %s..%s",
				ErrRangeMismatch, ds.Type, ds.Range.From, ds.Range.To, s.dateRange.From, s.dateRange.To)
		}
	}

	if prev, ok := s.datasets[ds.Type]; ok && prev.LoadedAt.Equal(ds.LoadedAt) {
		return false, nil
	}
	s.datasets[ds.Type] = ds
	if ds.Type == s.reportType {
		s.drill.Reset()
	}

	s.logger.Info(module, "report loaded", map[string]interface{}{
		"session_id":  s.id,
		"report_type": ds.Type,
		"loaded_at":   ds.LoadedAt,
		"rows":        ds.Len(),
	})
	return true, nil
}

// DateRange returns the range dated reports are loaded for
func (s *Session) DateRange() model.DateRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dateRange
}

// Toggle flips an org unit and returns the new selection state
func (s *Session) Toggle(level model.Level, id string) (state selection.State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("toggle_"+level.String(), start, err) }(time.Now())

	state, err = s.store.Toggle(level, id)
	if err != nil {
		return state, err
	}
	s.logger.Debug(module, "org unit toggled", map[string]interface{}{
		"session_id": s.id,
		"level":      level.String(),
		"unit_id":    id,
		"selected":   state.Mark(id).Selected(),
	})
	return state, nil
}

func (s *Session) ToggleInstitution(id string) (selection.State, error) {
	return s.Toggle(model.LevelInstitution, id)
}

func (s *Session) ToggleCampus(id string) (selection.State, error) {
	return s.Toggle(model.LevelCampus, id)
}

func (s *Session) ToggleLibrary(id string) (selection.State, error) {
	return s.Toggle(model.LevelLibrary, id)
}

// Selection returns the current selection state
func (s *Session) Selection() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// SetReportType switches the active report. Switching resets the drill-down.
func (s *Session) SetReportType(t model.ReportType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := model.Describe(t); !ok {
		return fmt.Errorf("%w: %s", report.ErrUnknownReport, t)
	}
	if t != s.reportType {
		s.reportType = t
		s.drill.Reset()
	}
	return nil
}

// ToggleSubDimension adds or removes a circulation type. Added keys take
// their catalog position.
func (s *Session) ToggleSubDimension(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := s.catalogs.CirculationTypes
	if !catalog.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubDimension, key)
	}

	next := make([]string, 0, len(s.subDimensions)+1)
	removed := false
	for _, k := range s.subDimensions {
		if k == key {
			removed = true
			continue
		}
		next = append(next, k)
	}
	if !removed {
		next = append(next, key)
		sort.SliceStable(next, func(i, j int) bool {
			return catalog.Position(next[i]) < catalog.Position(next[j])
		})
	}
	s.subDimensions = next
	return copyStrings(next), nil
}

// SetSubDimensions replaces the active circulation types, keeping the given
// order. Duplicates are dropped.
func (s *Session) SetSubDimensions(keys []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	seen := make(map[string]bool, len(keys))
	next := make([]string, 0, len(keys))
	for _, k := range keys {
		if !s.catalogs.CirculationTypes.Has(k) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownSubDimension, k))
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		next = append(next, k)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	s.subDimensions = next
	return copyStrings(next), nil
}

// SetCountKind selects the titles or volumes series of collection reports
func (s *Session) SetCountKind(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.catalogs.CollectionTypes.Has(kind) {
		return fmt.Errorf("%w: %s", ErrUnknownSubDimension, kind)
	}
	s.countKind = kind
	return nil
}

// SetDateRange changes the range of the circulation reports. A different
// range resets the drill-down and drops dated datasets of the old range.
func (s *Session) SetDateRange(r model.DateRange) (model.DateRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := utils.NormalizeDateRange(r)
	if err != nil {
		return s.dateRange, err
	}
	s.setDateRange(r)
	return r, nil
}

func (s *Session) setDateRange(r model.DateRange) {
	if r == s.dateRange {
		return
	}
	s.dateRange = r
	s.drill.Reset()
	for t, ds := range s.datasets {
		if desc, _ := model.Describe(t); desc.Dated && ds.Range != r {
			delete(s.datasets, t)
		}
	}
}

// Drill enters the main class at index of the active classification report.
// Outside the top level, or on a named report, nothing changes.
func (s *Session) Drill(index int) (state report.DrillState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("drill", start, err) }(time.Now())

	ds, desc, err := s.active()
	if err != nil {
		return s.drill.State(), err
	}
	if desc.Drillable() {
		s.drill.Drill(ds.Classes, index)
	}
	return s.drill.State(), nil
}

// DrillCode enters the main class with the given code
func (s *Session) DrillCode(code string) (state report.DrillState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("drill", start, err) }(time.Now())

	ds, desc, err := s.active()
	if err != nil {
		return s.drill.State(), err
	}
	if desc.Drillable() {
		s.drill.DrillCode(ds.Classes, code)
	}
	return s.drill.State(), nil
}

// Back returns to the main classes
func (s *Session) Back() report.DrillState {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("back", time.Now(), nil)

	s.drill.Back()
	return s.drill.State()
}

// SeriesView is the chart of the active report
type SeriesView struct {
	Report    model.ReportDescriptor `json:"report"`
	Drill     report.DrillState      `json:"drill"`
	KeyColumn string                 `json:"keyColumn"`
	LoadedAt  time.Time              `json:"loadedAt"`
	DateRange model.DateRange        `json:"dateRange"`
	Data      report.ReportSeries    `json:"data"`
	ColorBy   ColorBy                `json:"colorBy"`
	Colors    []report.Color         `json:"colors"`
}

// ColorBy tells whether Colors is indexed by row or by series
type ColorBy string

const (
	ColorByRow    ColorBy = "row"
	ColorBySeries ColorBy = "series"
)

// Series aggregates the active report over the selected libraries
func (s *Session) Series() (view SeriesView, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("series", start, err) }(time.Now())

	return s.series()
}

func (s *Session) series() (SeriesView, error) {
	ds, desc, err := s.active()
	if err != nil {
		return SeriesView{}, err
	}

	var rows []report.Row
	keyColumn := desc.KeyColumn
	if desc.Drillable() {
		rows = report.ClassRows(s.drill.Rows(ds.Classes))
		keyColumn = s.drill.KeyColumn()
	} else {
		rows = report.NamedRows(ds.Named)
	}

	selected := s.store.SelectedLibraries()
	var (
		rs      report.ReportSeries
		colorBy ColorBy
		colors  []report.Color
	)
	// collections charts have one series and colour each bar
	if desc.Family == model.FamilyCollections {
		rs = report.AggregateCountKind(selected, rows, s.countKind, s.catalogs.CollectionTypes)
		colorBy, colors = ColorByRow, report.Palette(len(rs.Labels))
	} else {
		rs = report.Aggregate(selected, rows, s.subDimensions, s.catalogs.CirculationTypes)
		colorBy, colors = ColorBySeries, report.Palette(len(rs.Series))
	}

	return SeriesView{
		Report:    desc,
		Drill:     s.drill.State(),
		KeyColumn: keyColumn,
		LoadedAt:  ds.LoadedAt,
		DateRange: ds.Range,
		Data:      rs,
		ColorBy:   colorBy,
		Colors:    colors,
	}, nil
}

// ExportView is the delimited-text form of the active chart
type ExportView struct {
	Report     model.ReportDescriptor `json:"report"`
	DrillLevel report.Level           `json:"drillLevel"`
	FileName   string                 `json:"fileName"`
	Table      report.Table           `json:"table"`
}

func (s *Session) Export() (view ExportView, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func(start time.Time) { s.observe("export", start, err) }(time.Now())

	sv, err := s.series()
	if err != nil {
		return ExportView{}, err
	}
	return ExportView{
		Report:     sv.Report,
		DrillLevel: sv.Drill.Level,
		FileName:   sv.Report.FileName,
		Table:      report.BuildTable(sv.Report, sv.KeyColumn, sv.Data),
	}, nil
}

// DatasetStatus describes one loaded report
type DatasetStatus struct {
	Type      model.ReportType `json:"type"`
	LoadedAt  time.Time        `json:"loadedAt"`
	DateRange model.DateRange  `json:"dateRange"`
	Rows      int              `json:"rows"`
}

// View is a copy of the whole session state
type View struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"createdAt"`
	OrgUnitsLoadedAt  time.Time         `json:"orgUnitsLoadedAt"`
	Selection         selection.State   `json:"selection"`
	SelectedLibraries []string          `json:"selectedLibraries"`
	ReportType        model.ReportType  `json:"reportType"`
	SubDimensions     []string          `json:"subDimensions"`
	CountKind         string            `json:"countKind"`
	DateRange         model.DateRange   `json:"dateRange"`
	Drill             report.DrillState `json:"drill"`
	Datasets          []DatasetStatus   `json:"datasets"`
	PendingPath       string            `json:"pendingPath,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:                s.id,
		CreatedAt:         s.createdAt,
		OrgUnitsLoadedAt:  s.store.LoadedAt(),
		Selection:         s.store.Snapshot(),
		SelectedLibraries: s.store.SelectedLibraries(),
		ReportType:        s.reportType,
		SubDimensions:     copyStrings(s.subDimensions),
		CountKind:         s.countKind,
		DateRange:         s.dateRange,
		Drill:             s.drill.State(),
		Datasets:          make([]DatasetStatus, 0, len(s.datasets)),
	}
	for _, desc := range model.ReportTypes() {
		ds, ok := s.datasets[desc.Type]
		if !ok {
			continue
		}
		v.Datasets = append(v.Datasets, DatasetStatus{
			Type:      ds.Type,
			LoadedAt:  ds.LoadedAt,
			DateRange: ds.Range,
			Rows:      ds.Len(),
		})
	}
	if _, ok := s.datasets[s.reportType]; !ok {
		desc, _ := model.Describe(s.reportType)
		v.PendingPath = desc.ResourcePath(s.dateRange)
	}
	return v
}

func (s *Session) active() (report.Dataset, model.ReportDescriptor, error) {
	desc, _ := model.Describe(s.reportType)
	ds, ok := s.datasets[s.reportType]
	if !ok {
		return report.Dataset{}, desc, fmt.Errorf("%w: %s", ErrNotLoaded, s.reportType)
	}
	return ds, desc, nil
}

func (s *Session) observe(operation string, start time.Time, err error) {
	s.recorder.Observe(operation, err == nil, time.Since(start))
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
