package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollectorExposesObservations(t *testing.T) {
	c := NewCollector()

	c.Observe("toggle", true, time.Millisecond)
	c.Observe("toggle", true, time.Millisecond)
	c.Observe("drill", false, time.Millisecond)
	c.Observe("", true, time.Millisecond)
	c.SessionsActive(3)
	c.ExportWritten("circulation-by-lcc-number", 12)

	body := scrape(t, c)
	assert.Contains(t, body, `assessment_operations_total{operation="toggle",status="success"} 2`)
	assert.Contains(t, body, `assessment_operations_total{operation="drill",status="error"} 1`)
	assert.Contains(t, body, `assessment_sessions_active 3`)
	assert.Contains(t, body, `assessment_exports_total{report_type="circulation-by-lcc-number"} 1`)
	assert.Contains(t, body, `assessment_export_rows_total{report_type="circulation-by-lcc-number"} 12`)
	assert.NotContains(t, body, `operation=""`)
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.Observe("toggle", true, 0)
	r.SessionsActive(1)
	r.ExportWritten("x", 1)
}
