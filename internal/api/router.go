package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "library-assessment/docs"
	"library-assessment/internal/api/handler"
	"library-assessment/pkg/router"
)

// RegisterRoutes wires the assessment API. metrics may be nil.
func RegisterRoutes(r *router.Router, h *handler.Handler, metrics http.Handler) {
	r.POST("/api/v1/sessions", h.CreateSession)
	// More specific routes first
	r.PUT("/api/v1/sessions/*/org-units", h.PutOrgUnits)
	r.PUT("/api/v1/sessions/*/reports/*", h.PutReport)
	r.GET("/api/v1/sessions/*/selection", h.GetSelection)
	r.PUT("/api/v1/sessions/*/report-type", h.PutReportType)
	r.PUT("/api/v1/sessions/*/count-kind", h.PutCountKind)
	r.PUT("/api/v1/sessions/*/date-range", h.PutDateRange)
	r.PUT("/api/v1/sessions/*/sub-dimensions", h.PutSubDimensions)
	r.POST("/api/v1/sessions/*/sub-dimensions/*/toggle", h.ToggleSubDimension)
	r.POST("/api/v1/sessions/*/*/*/toggle", h.ToggleUnit)
	r.POST("/api/v1/sessions/*/drill", h.Drill)
	r.POST("/api/v1/sessions/*/back", h.Back)
	r.GET("/api/v1/sessions/*/series", h.GetSeries)
	r.GET("/api/v1/sessions/*/export", h.Export)
	// Generic session routes last
	r.GET("/api/v1/sessions/*", h.GetSession)
	r.DELETE("/api/v1/sessions/*", h.DeleteSession)

	r.GET("/api/v1/exports", h.ListExports)
	r.GET("/api/v1/exports/*/*", h.DownloadExport)
	r.GET("/api/v1/catalogs", h.GetCatalogs)
	r.GET("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if metrics != nil {
		r.Mount("/metrics", metrics)
	}
}
