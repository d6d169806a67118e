package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-assessment/internal/api/handler"
	"library-assessment/internal/metrics"
	"library-assessment/internal/model"
	"library-assessment/internal/session"
	"library-assessment/internal/store"
	"library-assessment/pkg/router"
	"library-assessment/pkg/utils"
)

const orgUnits = `{"loadedAt": "2024-03-01T09:00:00Z", "institutions": [
  {"id": "I1", "name": "University", "campuses": [
    {"id": "C1", "name": "Main", "libraries": [{"id": "La", "name": "Law"}, {"id": "Lb", "name": "Biology"}]}
  ]}
]}`

const collectionsLCC = `{"loadedAt": "2024-03-01T10:00:00Z", "records": [
  {"letter": "Q", "caption": "Science", "counts": {"La": {"titles": 3, "volumes": 4}, "Lb": {"titles": 1}},
   "subclasses": [{"letters": "QA", "caption": "Mathematics", "counts": {"La": {"titles": 2}}}]},
  {"letter": "R", "caption": "Medicine", "counts": {"Lb": {"titles": 6}}}
]}`

const circulationGroups = `{"loadedAt": "2024-03-01T10:00:00Z", "from": "2024-01-01", "to": "2024-01-31", "records": [
  {"name": "Faculty", "counts": {"La": {"loans": 5, "returns": 2}}},
  {"name": "Student", "counts": {"Lb": {"loans": 9}}}
]}`

type testServer struct {
	t      *testing.T
	router *router.Router
	db     *store.DB
	repo   *session.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	collector := metrics.NewCollector()
	repo := session.NewRepository(session.RepositoryConfig{
		Hydrate:  handler.Hydrator(db),
		Recorder: collector,
	})
	h := handler.New(handler.Deps{
		Sessions: repo,
		DB:       db,
		Output:   utils.NewOutputManager(t.TempDir()),
		Recorder: collector,
	})

	r := router.New(router.WithColor(false))
	RegisterRoutes(r, h, collector.Handler())
	return &testServer{t: t, router: r, db: db, repo: repo}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession() string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/sessions", "")
	require.Equal(ts.t, http.StatusCreated, rec.Code)
	var view session.View
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCollectionsFlow(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/v1/sessions/" + id

	rec := ts.do(http.MethodGet, base+"/series", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPut, base+"/org-units", orgUnits)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[handler.LoadResponse](t, rec).Changed)

	rec = ts.do(http.MethodPut, base+"/reports/collections-by-lcc-number", collectionsLCC)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[handler.LoadResponse](t, rec).Rows)

	for _, p := range []string{"/institutions/I1/toggle", "/campuses/C1/toggle", "/libraries/La/toggle"} {
		rec = ts.do(http.MethodPost, base+p, "")
		require.Equal(t, http.StatusOK, rec.Code, p)
	}
	assert.Equal(t, map[string]bool{"I1": true, "C1": true, "La": true, "Lb": false}, decode[map[string]bool](t, rec))

	rec = ts.do(http.MethodGet, base+"/series", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[session.SeriesView](t, rec)
	assert.Equal(t, []string{"Q", "R"}, view.Data.Labels)
	assert.Equal(t, []int64{3, 0}, view.Data.Series[0].Values)
	assert.Equal(t, "hsl(0, 100%, 70%, 0.5)", view.Colors[0].Background)

	rec = ts.do(http.MethodPost, base+"/drill", `{"code": "Q"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, base+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "subclass_letter,caption,titles\nQA,Mathematics,2\n", rec.Body.String())

	rec = ts.do(http.MethodPost, base+"/back", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, base+"/export?save=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[handler.ExportFileResponse](t, rec)
	assert.Equal(t, 2, saved.Export.RowCount)
	assert.Equal(t, "/api/v1/exports/"+id+"/collections-by-lcc-number.csv", saved.DownloadURL)

	rec = ts.do(http.MethodGet, saved.DownloadURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "main_class_letter,caption,titles\nQ,Science,3\nR,Medicine,0\n", rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/v1/exports?session="+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Export](t, rec), 2)

	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `assessment_exports_total{report_type="collections-by-lcc-number"} 2`)
}

func TestCirculationFlowAndHydration(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/v1/sessions/" + id

	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/org-units", orgUnits).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/report-type", `{"reportType": "circulation-by-patron-group"}`).Code)
	rec := ts.do(http.MethodPut, base+"/reports/circulation-by-patron-group", circulationGroups)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, p := range []string{"/institutions/I1/toggle", "/campuses/C1/toggle", "/libraries/La/toggle", "/libraries/Lb/toggle"} {
		require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+p, "").Code, p)
	}

	rec = ts.do(http.MethodPut, base+"/sub-dimensions", `{"keys": ["returns", "loans"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, base+"/sub-dimensions/returns/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"loans"}, decode[handler.SubDimensionsResponse](t, rec).Keys)

	rec = ts.do(http.MethodGet, base+"/export?format=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decode[session.ExportView](t, rec)
	assert.Equal(t, []string{"patron_group", "loans"}, exported.Table.Header)
	assert.Equal(t, [][]string{{"Faculty", "5"}, {"Student", "9"}}, exported.Table.Rows)

	// a new range drops the dataset, going back restores it from the store
	rec = ts.do(http.MethodPut, base+"/date-range", `{"from": "2024-02-01", "to": "2024-02-29"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodGet, base+"/series", "").Code)

	rec = ts.do(http.MethodPut, base+"/date-range", `{"from": "2024-01-01", "to": "2024-01-31"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, base+"/series", "").Code)

	// new sessions start from the stored org units
	other := ts.createSession()
	rec = ts.do(http.MethodGet, "/api/v1/sessions/"+other+"/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"I1": false}, decode[map[string]bool](t, rec))
}

func TestRepeatedOrgUnitLoadIsStoredOnce(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/v1/sessions/" + ts.createSession()

	rec := ts.do(http.MethodPut, base+"/org-units", orgUnits)
	require.Equal(t, http.StatusOK, rec.Code)
	first, err := ts.db.LatestSnapshot(context.Background(), store.KindOrgUnits, "", model.DateRange{})
	require.NoError(t, err)

	rec = ts.do(http.MethodPut, base+"/org-units", orgUnits)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handler.LoadResponse](t, rec).Changed)

	latest, err := ts.db.LatestSnapshot(context.Background(), store.KindOrgUnits, "", model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}

func TestUnrangedCirculationReportIsStoredForSessionRange(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/v1/sessions/" + ts.createSession()
	january := model.DateRange{From: "2024-01-01", To: "2024-01-31"}

	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/report-type", `{"reportType": "circulation-by-patron-group"}`).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/date-range", `{"from": "2024-01-01", "to": "2024-01-31"}`).Code)
	rec := ts.do(http.MethodPut, base+"/reports/circulation-by-patron-group",
		`{"loadedAt": "2024-03-01T10:00:00Z", "records": [{"name": "Faculty", "counts": {"La": {"loans": 5}}}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := ts.db.LatestSnapshot(context.Background(), store.KindReport, model.CirculationByPatronGroup, january)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/date-range", `{"from": "2024-02-01", "to": "2024-02-29"}`).Code)
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodGet, base+"/series", "").Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, base+"/date-range", `{"from": "2024-01-01", "to": "2024-01-31"}`).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, base+"/series", "").Code)
}

func TestInvertedReportRangeIsRejected(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/v1/sessions/" + ts.createSession()

	rec := ts.do(http.MethodPut, base+"/reports/circulation-by-patron-group",
		`{"from": "2024-12-31", "to": "2024-01-01", "records": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/v1/sessions/" + id

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusNotFound},
		{"unknown unit", http.MethodPost, base + "/libraries/Lx/toggle", "", http.StatusNotFound},
		{"unknown level", http.MethodPost, base + "/floors/F1/toggle", "", http.StatusNotFound},
		{"unknown report", http.MethodPut, base + "/reports/bogus", `[]`, http.StatusBadRequest},
		{"invalid snapshot", http.MethodPut, base + "/reports/collections-by-lcc-number", `[{"letter": "Q9"}]`, http.StatusBadRequest},
		{"empty body", http.MethodPut, base + "/org-units", "", http.StatusBadRequest},
		{"bad json", http.MethodPut, base + "/count-kind", `{`, http.StatusBadRequest},
		{"unknown count kind", http.MethodPut, base + "/count-kind", `{"countKind": "pages"}`, http.StatusBadRequest},
		{"bad range", http.MethodPut, base + "/date-range", `{"from": "2024-02-01"}`, http.StatusBadRequest},
		{"drill without report", http.MethodPost, base + "/drill", `{"index": 0}`, http.StatusConflict},
		{"drill without target", http.MethodPost, base + "/drill", `{}`, http.StatusBadRequest},
		{"missing export", http.MethodGet, "/api/v1/exports/" + id + "/none.csv", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/v1/sessions", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base, "").Code)
}

func TestCatalogsAndSwagger(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/catalogs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Reports          []map[string]interface{} `json:"reports"`
		CirculationTypes []map[string]string      `json:"circulationTypes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Reports, 5)
	assert.Equal(t, "loans", body.CirculationTypes[0]["key"])

	rec = ts.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Library Assessment API")
}
