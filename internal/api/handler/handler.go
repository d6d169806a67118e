package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"library-assessment/internal/metrics"
	"library-assessment/internal/pkg/logger"
	"library-assessment/internal/report"
	"library-assessment/internal/selection"
	"library-assessment/internal/session"
	"library-assessment/internal/store"
	"library-assessment/pkg/utils"
)

const module = "api"

// Handler serves the assessment API over a session repository
type Handler struct {
	sessions *session.Repository
	db       *store.DB
	output   *utils.OutputManager
	exports  *report.ExportManager
	recorder metrics.Recorder
	logger   logger.ILogger
	maxBody  int64
}

type Deps struct {
	Sessions       *session.Repository
	DB             *store.DB
	Output         *utils.OutputManager
	Recorder       metrics.Recorder
	Logger         logger.ILogger
	MaxUploadBytes int
}

func New(d Deps) *Handler {
	h := &Handler{
		sessions: d.Sessions,
		db:       d.DB,
		output:   d.Output,
		recorder: d.Recorder,
		logger:   d.Logger,
		maxBody:  int64(d.MaxUploadBytes),
	}
	if h.recorder == nil {
		h.recorder = metrics.Nop{}
	}
	if h.logger == nil {
		h.logger = logger.NewNop()
	}
	if h.maxBody <= 0 {
		h.maxBody = 32 << 20
	}
	if h.output != nil {
		h.exports = report.NewExportManager(h.output)
	}
	return h
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(module, "request failed", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err,
		})
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, selection.ErrUnknownUnit),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotLoaded),
		errors.Is(err, session.ErrRangeMismatch):
		return http.StatusConflict
	case errors.Is(err, report.ErrUnknownReport),
		errors.Is(err, report.ErrInvalidSnapshot),
		errors.Is(err, session.ErrUnknownSubDimension),
		errors.Is(err, utils.ErrInvalidDateRange),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// readBody reads the whole request body, bounded by the upload limit
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", errBadRequest)
	}
	return data, nil
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	data, err := h.readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", errBadRequest, err)
	}
	return nil
}
