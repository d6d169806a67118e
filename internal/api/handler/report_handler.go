package handler

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"library-assessment/internal/model"
	"library-assessment/internal/store"
	"library-assessment/pkg/router"
)

// GetSeries returns the chart of the active report
// @Summary Get the chart series
// @Description Sums the counts of the selected libraries per row and sub-dimension.
// @Tags reports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.SeriesView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Report not yet loaded"
// @Router /sessions/{id}/series [get]
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := s.Series()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ExportFileResponse describes an export written to the export directory
type ExportFileResponse struct {
	Export      store.Export `json:"export"`
	DownloadURL string       `json:"downloadUrl"`
	FileSize    int64        `json:"fileSize"`
}

// Export writes the active chart as CSV
// @Summary Export the chart
// @Description Streams the CSV by default, returns the table with format=json, or writes the file for later download with save=true.
// @Tags reports
// @Produce text/csv
// @Produce json
// @Param id path string true "Session ID"
// @Param format query string false "csv (default) or json"
// @Param save query bool false "Write the file to the export directory"
// @Success 200 {object} ExportFileResponse
// @Failure 409 {object} ErrorResponse "Report not yet loaded"
// @Router /sessions/{id}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := router.Param(r, 0)
	s, err := h.sessions.Get(sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := s.Export()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	record := store.Export{
		SessionID:  sessionID,
		ReportType: view.Report.Type,
		DrillLevel: string(view.DrillLevel),
		RowCount:   len(view.Table.Rows),
	}

	switch {
	case query.Get("save") == "true":
		if h.exports == nil {
			h.writeError(w, r, fmt.Errorf("export directory is not configured"))
			return
		}
		result, err := h.exports.WriteFile(sessionID, view.FileName, view.Table)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		record.Path = result.Path
		record.CreatedAt = result.ExportedAt
		if record.ID, err = h.db.SaveExport(r.Context(), record); err != nil {
			h.writeError(w, r, err)
			return
		}
		size, _ := h.output.GetFileSize(result.Path)
		h.recorder.ExportWritten(string(view.Report.Type), result.RecordCount)
		writeJSON(w, http.StatusOK, ExportFileResponse{
			Export:      record,
			DownloadURL: h.output.GetDownloadURL(sessionID, view.FileName),
			FileSize:    size,
		})

	case query.Get("format") == "json":
		writeJSON(w, http.StatusOK, view)

	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.FileName))
		n, err := view.Table.WriteCSV(w)
		if err != nil {
			h.logger.Error(module, "csv export interrupted", map[string]interface{}{
				"session_id": sessionID,
				"error":      err,
			})
			return
		}
		if _, err := h.db.SaveExport(r.Context(), record); err != nil {
			h.logger.Warn(module, "failed to record export", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		h.recorder.ExportWritten(string(view.Report.Type), n)
	}
}

// ListExports returns the recorded exports
// @Summary List exports
// @Tags reports
// @Produce json
// @Param session query string false "Only exports of this session"
// @Param limit query int false "Maximum number of rows (default 100)"
// @Success 200 {array} store.Export
// @Failure 500 {object} ErrorResponse
// @Router /exports [get]
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	exports, err := h.db.ListExports(r.Context(), r.URL.Query().Get("session"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exports)
}

// DownloadExport serves a file written with save=true
// @Summary Download an export
// @Tags reports
// @Produce text/csv
// @Param session path string true "Session ID"
// @Param file path string true "File name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /exports/{session}/{file} [get]
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	if h.output == nil {
		h.writeError(w, r, fmt.Errorf("%w: export directory is not configured", errNotFound))
		return
	}
	fileName := router.Param(r, 1)
	path, err := h.output.LookupFilePath(router.Param(r, 0), fileName)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: export %s", errNotFound, fileName)
		}
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", h.output.GetContentType(fileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	http.ServeFile(w, r, path)
}

// CatalogsResponse lists the reports and sub-dimension catalogs
type CatalogsResponse struct {
	Reports          []model.ReportDescriptor `json:"reports"`
	CollectionTypes  model.Catalog            `json:"collectionTypes"`
	CirculationTypes model.Catalog            `json:"circulationTypes"`
}

// GetCatalogs lists the available reports and sub-dimensions
// @Summary Get catalogs
// @Tags reports
// @Produce json
// @Success 200 {object} CatalogsResponse
// @Router /catalogs [get]
func (h *Handler) GetCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs := h.sessions.Catalogs()
	writeJSON(w, http.StatusOK, CatalogsResponse{
		Reports:          model.ReportTypes(),
		CollectionTypes:  catalogs.CollectionTypes,
		CirculationTypes: catalogs.CirculationTypes,
	})
}
