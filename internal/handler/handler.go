// Package handler exposes the tracker as a local JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/session"
	"github.com/pavelanni/examtracker/internal/tracker"
)

// ImportLedger remembers which backup files were already imported.
type ImportLedger interface {
	GetImportedFileHash(name string) (string, error)
	SetImportedFileHash(name, hash string) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	tracker *tracker.Tracker
	clock   clock.Clock
	imports ImportLedger
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New creates a new Handler. imports may be nil, which disables duplicate upload detection.
func New(t *tracker.Tracker, c clock.Clock, imports ImportLedger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tracker:  t,
		clock:    c,
		imports:  imports,
		logger:   logger,
		sessions: make(map[string]*session.Session),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/subjects", h.handleListSubjects)
		r.Post("/subjects", h.handleCreateSubject)
		r.Get("/subjects/{subjectID}", h.handleGetSubject)
		r.Patch("/subjects/{subjectID}", h.handleUpdateSubject)
		r.Delete("/subjects/{subjectID}", h.handleDeleteSubject)
		r.Get("/subjects/{subjectID}/exams", h.handleSubjectExams)
		r.Get("/subjects/{subjectID}/stats", h.handleSubjectStats)
		r.Get("/subjects/{subjectID}/notes", h.handleSubjectNotes)

		r.Get("/exams", h.handleListExams)
		r.Post("/exams", h.handleCreateExam)
		r.Get("/exams/{examID}", h.handleGetExam)
		r.Patch("/exams/{examID}", h.handleUpdateExam)
		r.Delete("/exams/{examID}", h.handleDeleteExam)
		r.Get("/exams/{examID}/analysis", h.handleExamAnalysis)

		r.Get("/exams/{examID}/session", h.handleSessionState)
		r.Post("/exams/{examID}/session/{action}", h.handleSessionAction)
		r.Put("/exams/{examID}/review", h.handleReview)

		r.Get("/stats", h.handleOverallStats)
		r.Get("/dashboard", h.handleDashboard)

		r.Get("/export", h.handleExport)
		r.Get("/export.xlsx", h.handleExportXLSX)
		r.Post("/import", h.handleImport)
		r.Delete("/data", h.handleClearAll)

		r.Get("/prefs", h.handleGetPrefs)
		r.Post("/prefs/theme/toggle", h.handleToggleTheme)
		r.Put("/prefs/accent", h.handleSetAccent)
	})
}

type subjectRequest struct {
	Name *string `json:"name"`
}

func (h *Handler) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Subjects())
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	s, err := h.tracker.CreateSubject(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	s, err := h.tracker.Subject(chi.URLParam(r, "subjectID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.tracker.UpdateSubject(chi.URLParam(r, "subjectID"), model.SubjectPatch{Name: req.Name})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteSubject(chi.URLParam(r, "subjectID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.pruneSessions()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubjectExams(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subjectID")
	if _, err := h.tracker.Subject(id); err != nil {
		h.writeError(w, err)
		return
	}
	exams := h.tracker.ExamsBySubject(id)
	if exams == nil {
		exams = []model.Exam{}
	}
	writeJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleSubjectStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.tracker.SubjectStats(chi.URLParam(r, "subjectID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) handleSubjectNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subjectID")
	if _, err := h.tracker.Subject(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.NotesBySubject(id))
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Exams())
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var in model.CreateExamInput
	if !h.decode(w, r, &in) {
		return
	}
	e, err := h.tracker.CreateExam(in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.tracker.Exam(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type examRequest struct {
	Name          *string  `json:"name"`
	TotalMaxMarks *float64 `json:"totalMaxMarks"`
	NegativeMark  *float64 `json:"negativeMark"`
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TotalMaxMarks != nil && *req.TotalMaxMarks <= 0 {
		h.writeError(w, apperrors.NewValidationError("totalMaxMarks", "must be greater than 0", *req.TotalMaxMarks))
		return
	}
	if req.NegativeMark != nil && *req.NegativeMark < 0 {
		h.writeError(w, apperrors.NewValidationError("negativeMark", "must be at least 0", *req.NegativeMark))
		return
	}
	id := chi.URLParam(r, "examID")
	patch := model.ExamPatch{Name: req.Name, TotalMaxMarks: req.TotalMaxMarks, NegativeMark: req.NegativeMark}
	if err := h.tracker.UpdateExam(id, patch); err != nil {
		h.writeError(w, err)
		return
	}
	h.handleGetExam(w, r)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "examID")
	if err := h.tracker.DeleteExam(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.dropSession(id)
	w.WriteHeader(http.StatusNoContent)
}

type analysisResponse struct {
	analytics.Analysis
	InsightText []string `json:"insightText"`
}

func (h *Handler) handleExamAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.tracker.ExamAnalysis(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := analysisResponse{Analysis: a}
	for _, in := range a.Insights {
		resp.InsightText = append(resp.InsightText, i18n.Td(r.Context(), in.MessageID, in.Data))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleOverallStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.OverallStats())
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f := analytics.Filter{SubjectIDs: r.URL.Query()["subject"]}
	if days := r.URL.Query().Get("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			h.writeError(w, apperrors.NewValidationError("days", "must be a non-negative integer", days))
			return
		}
		f.Days = n
	}
	writeJSON(w, http.StatusOK, h.tracker.Dashboard(f))
}

// decode reads a JSON request body into dst, writing a 400 response on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Error  string                     `json:"error"`
	Fields apperrors.ValidationErrors `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		one  *apperrors.ValidationError
		many apperrors.ValidationErrors
		imp  *apperrors.ImportError
	)
	switch {
	case errors.As(err, &one):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Fields: apperrors.ValidationErrors{*one}})
	case errors.As(err, &many):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Fields: many})
	case errors.As(err, &imp):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrPaused),
		errors.Is(err, apperrors.ErrNotActive):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
