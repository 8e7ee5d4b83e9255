package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/session"
)

type sessionState struct {
	Exam            model.Exam     `json:"exam"`
	Current         model.Question `json:"current"`
	Index           int            `json:"index"`
	Paused          bool           `json:"paused"`
	Finished        bool           `json:"finished"`
	ExamElapsed     time.Duration  `json:"examElapsed"`
	QuestionElapsed time.Duration  `json:"questionElapsed"`
	Grid            []session.Slot `json:"grid"`
}

func stateOf(s *session.Session) sessionState {
	return sessionState{
		Exam:            s.Exam(),
		Current:         s.Current(),
		Index:           s.Index(),
		Paused:          s.Paused(),
		Finished:        s.Finished(),
		ExamElapsed:     s.ExamElapsed(),
		QuestionElapsed: s.QuestionElapsed(),
		Grid:            s.Grid(),
	}
}

// sessionFor returns the live session of an exam, opening one if needed.
// The caller must hold h.mu.
func (h *Handler) sessionFor(examID string) (*session.Session, error) {
	if s, ok := h.sessions[examID]; ok {
		return s, nil
	}
	s, err := session.Open(h.tracker, h.clock, examID)
	if err != nil {
		return nil, err
	}
	h.sessions[examID] = s
	return s, nil
}

func (h *Handler) dropSession(examID string) {
	h.mu.Lock()
	delete(h.sessions, examID)
	h.mu.Unlock()
}

// pruneSessions drops every live session whose exam no longer exists.
func (h *Handler) pruneSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.sessions {
		if _, err := h.tracker.Exam(id); errors.Is(err, apperrors.ErrNotFound) {
			delete(h.sessions, id)
		}
	}
}

func (h *Handler) dropAllSessions() {
	h.mu.Lock()
	h.sessions = make(map[string]*session.Session)
	h.mu.Unlock()
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.sessionFor(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

type actionRequest struct {
	Number  int     `json:"number"`
	Seconds float64 `json:"seconds"`
}

func (h *Handler) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	action := chi.URLParam(r, "action")
	if action == "navigate" || action == "adjust" || action == "renumber" {
		if !h.decode(w, r, &req) {
			return
		}
	}

	examID := chi.URLParam(r, "examID")
	h.mu.Lock()
	defer h.mu.Unlock()
	s, err := h.sessionFor(examID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	switch action {
	case "navigate":
		err = s.Navigate(req.Number)
	case "next":
		_, err = s.Next()
	case "previous":
		err = s.Previous()
	case "pause":
		err = s.Pause()
	case "resume":
		err = s.Resume()
	case "finish":
		err = s.Finish()
	case "adjust":
		if math.Abs(req.Seconds) > session.MaxAdjust.Seconds() {
			err = &apperrors.ValidationError{Field: "seconds", Message: "must be within 24h", Value: req.Seconds, Rule: "max"}
			break
		}
		err = s.AdjustTime(time.Duration(req.Seconds * float64(time.Second)))
	case "renumber":
		err = s.Renumber(req.Number)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	state := stateOf(s)
	if s.Finished() {
		delete(h.sessions, examID)
		h.logger.Info("exam finished via API", "exam", examID)
	}
	writeJSON(w, http.StatusOK, state)
}

type reviewEdit struct {
	Index    int     `json:"index"`
	Status   *string `json:"status"`
	Marks    *string `json:"marks"`
	MaxMarks *string `json:"maxMarks"`
	Note     *string `json:"note"`
}

type reviewRequest struct {
	Edits []reviewEdit `json:"edits"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	rv, err := session.NewReview(h.tracker, chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	n := len(rv.Questions())
	for _, e := range req.Edits {
		if e.Index < 0 || e.Index >= n {
			h.writeError(w, apperrors.NewValidationError("index", "no such question", e.Index))
			return
		}
		// Max marks first so a status change resolves against the new maximum.
		if e.MaxMarks != nil {
			if err := rv.SetMaxMarks(e.Index, *e.MaxMarks); err != nil {
				h.writeError(w, err)
				return
			}
		}
		if e.Marks != nil {
			if err := rv.SetMarks(e.Index, *e.Marks); err != nil {
				h.writeError(w, err)
				return
			}
		}
		if e.Status != nil {
			if err := rv.SetStatus(e.Index, model.QuestionStatus(*e.Status)); err != nil {
				h.writeError(w, err)
				return
			}
		}
		if e.Note != nil {
			rv.SetNote(e.Index, *e.Note)
		}
	}
	if err := rv.Save(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv.Exam())
}
