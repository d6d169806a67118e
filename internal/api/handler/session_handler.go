package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"library-assessment/internal/model"
	"library-assessment/internal/report"
	"library-assessment/internal/store"
	"library-assessment/pkg/router"
)

// CreateSession starts a new report session
// @Summary Create a session
// @Description Start a report session hydrated from the latest stored snapshots
// @Tags sessions
// @Produce json
// @Success 201 {object} session.View
// @Failure 500 {object} ErrorResponse
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(module, "session created", map[string]interface{}{"session_id": s.ID()})
	writeJSON(w, http.StatusCreated, s.View())
}

// GetSession returns the full state of a session
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.View
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DeleteSession drops a session
// @Summary Delete a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(router.Param(r, 0)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadResponse tells whether a load replaced the session data
type LoadResponse struct {
	Changed  bool      `json:"changed"`
	LoadedAt time.Time `json:"loadedAt"`
	Rows     int       `json:"rows"`
}

// PutOrgUnits installs an org-unit load response
// @Summary Load org units
// @Description Replace the institution/campus/library tree. A snapshot with the timestamp already in use is ignored.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param snapshot body model.OrgUnitSnapshot true "Org-unit load response"
// @Success 200 {object} LoadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/org-units [put]
func (h *Handler) PutOrgUnits(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	payload, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	snap, tree, err := report.DecodeOrgUnits(bytes.NewReader(payload))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = time.Now().UTC()
	}

	changed := s.LoadOrgUnits(tree, snap.LoadedAt)
	if changed {
		if _, err := h.db.SaveSnapshot(r.Context(), store.Snapshot{
			Kind:     store.KindOrgUnits,
			LoadedAt: snap.LoadedAt,
			Payload:  payload,
		}); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, LoadResponse{
		Changed:  changed,
		LoadedAt: snap.LoadedAt,
		Rows:     len(tree.InstitutionIDs()),
	})
}

// PutReport installs a report load response
// @Summary Load a report
// @Description Replace the count table of one report type. A snapshot with the timestamp already held is ignored.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param type path string true "Report type"
// @Param snapshot body model.ReportSnapshot true "Report load response"
// @Success 200 {object} LoadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/reports/{type} [put]
func (h *Handler) PutReport(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reportType := model.ReportType(router.Param(r, 1))
	payload, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ds, err := report.DecodeReport(bytes.NewReader(payload), reportType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ds.LoadedAt.IsZero() {
		ds.LoadedAt = time.Now().UTC()
	}

	changed, err := s.LoadReport(ds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if changed {
		// a dated snapshot without from/to was loaded for the session's range
		rng := ds.Range
		if desc, _ := model.Describe(ds.Type); desc.Dated && rng.IsZero() {
			rng = s.DateRange()
		}
		if _, err := h.db.SaveSnapshot(r.Context(), store.Snapshot{
			Kind:       store.KindReport,
			ReportType: ds.Type,
			LoadedAt:   ds.LoadedAt,
			Range:      rng,
			Payload:    payload,
		}); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, LoadResponse{Changed: changed, LoadedAt: ds.LoadedAt, Rows: ds.Len()})
}

// ToggleUnit flips an institution, campus or library
// @Summary Toggle an org unit
// @Description Selecting a unit reveals its children unselected; unselecting removes its descendants.
// @Tags selection
// @Produce json
// @Param id path string true "Session ID"
// @Param level path string true "institutions, campuses or libraries"
// @Param unit path string true "Org unit ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/{level}/{unit}/toggle [post]
func (h *Handler) ToggleUnit(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	level, ok := model.ParseLevel(router.Param(r, 1))
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: unknown level %q", errNotFound, router.Param(r, 1)))
		return
	}

	state, err := s.Toggle(level, router.Param(r, 2))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetSelection returns the selection state
// @Summary Get the selection
// @Tags selection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/selection [get]
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Selection())
}

type ReportTypeRequest struct {
	ReportType model.ReportType `json:"reportType"`
}

// PutReportType switches the active report
// @Summary Set the report type
// @Tags settings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body ReportTypeRequest true "Report type"
// @Success 200 {object} session.View
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/report-type [put]
func (h *Handler) PutReportType(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ReportTypeRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := s.SetReportType(req.ReportType); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type CountKindRequest struct {
	CountKind string `json:"countKind"`
}

// PutCountKind picks titles or volumes for collection reports
// @Summary Set the count kind
// @Tags settings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body CountKindRequest true "Count kind"
// @Success 200 {object} session.View
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/count-kind [put]
func (h *Handler) PutCountKind(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req CountKindRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := s.SetCountKind(req.CountKind); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// PutDateRange changes the range of the circulation reports
// @Summary Set the date range
// @Description Resets the drill-down; stored circulation snapshots for the new range are restored.
// @Tags settings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body model.DateRange true "Date range"
// @Success 200 {object} session.View
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/date-range [put]
func (h *Handler) PutDateRange(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.DateRange
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	dateRange, err := s.SetDateRange(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := restoreDated(r.Context(), h.db, s, dateRange); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type SubDimensionsRequest struct {
	Keys []string `json:"keys"`
}

type SubDimensionsResponse struct {
	Keys []string `json:"keys"`
}

// PutSubDimensions replaces the active circulation types
// @Summary Set the sub-dimensions
// @Tags settings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body SubDimensionsRequest true "Circulation type keys in series order"
// @Success 200 {object} SubDimensionsResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/sub-dimensions [put]
func (h *Handler) PutSubDimensions(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req SubDimensionsRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	keys, err := s.SetSubDimensions(req.Keys)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SubDimensionsResponse{Keys: keys})
}

// ToggleSubDimension adds or removes one circulation type
// @Summary Toggle a sub-dimension
// @Tags settings
// @Produce json
// @Param id path string true "Session ID"
// @Param key path string true "Circulation type key"
// @Success 200 {object} SubDimensionsResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/sub-dimensions/{key}/toggle [post]
func (h *Handler) ToggleSubDimension(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	keys, err := s.ToggleSubDimension(router.Param(r, 1))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SubDimensionsResponse{Keys: keys})
}

// DrillRequest selects a main class by chart index or by class code
type DrillRequest struct {
	Index *int   `json:"index,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Drill enters a main class of the active classification report
// @Summary Drill into a main class
// @Description Ignored when already drilled or when the report has no classification rows.
// @Tags drill
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body DrillRequest true "Main class index or code"
// @Success 200 {object} report.DrillState
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/drill [post]
func (h *Handler) Drill(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req DrillRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var state report.DrillState
	switch {
	case req.Code != "":
		state, err = s.DrillCode(req.Code)
	case req.Index != nil:
		state, err = s.Drill(*req.Index)
	default:
		err = fmt.Errorf("%w: index or code is required", errBadRequest)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Back returns to the main classes
// @Summary Leave the drill-down
// @Tags drill
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} report.DrillState
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/back [post]
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Back())
}
