package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
)

// Review is the scoring pass over a finished exam. Edits are made on a copy and only
// reach the store on Save.
type Review struct {
	store Store
	exam  model.Exam
}

// NewReview loads a completed or already reviewed exam for scoring.
func NewReview(store Store, examID string) (*Review, error) {
	exam, err := store.Exam(examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == model.ExamActive {
		return nil, fmt.Errorf("review exam %s: %w", examID, apperrors.ErrInvalidTransition)
	}
	return &Review{store: store, exam: exam}, nil
}

// Exam returns the exam being reviewed, including unsaved edits.
func (r *Review) Exam() model.Exam {
	return r.exam.Clone()
}

// Questions returns the edited question list.
func (r *Review) Questions() []model.Question {
	return model.CloneQuestions(r.exam.Questions)
}

// MaxMark resolves the maximum mark of question i against the current edits.
func (r *Review) MaxMark(i int) float64 {
	return analytics.MaxMarkFor(r.exam, r.exam.Questions[i])
}

// SetStatus records the outcome of question i and fills in default marks.
func (r *Review) SetStatus(i int, status model.QuestionStatus) error {
	if !status.Valid() {
		return apperrors.NewValidationError("status", "unknown question status", status)
	}
	analytics.ApplyReviewStatus(r.exam, &r.exam.Questions[i], status)
	return nil
}

// SetMarks parses text as the marks awarded to question i. Empty text means zero.
func (r *Review) SetMarks(i int, text string) error {
	q := &r.exam.Questions[i]
	text = strings.TrimSpace(text)
	if text == "" {
		q.Marks = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return apperrors.NewValidationError("marks", "must be a number", text)
	}
	q.Marks = v
	return nil
}

// SetMaxMarks parses text as the explicit maximum mark of question i. Empty text
// removes the override.
func (r *Review) SetMaxMarks(i int, text string) error {
	q := &r.exam.Questions[i]
	text = strings.TrimSpace(text)
	if text == "" {
		q.MaxMarks = nil
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return apperrors.NewValidationError("maxMarks", "must be a number", text)
	}
	if v <= 0 {
		return apperrors.NewValidationError("maxMarks", "must be greater than 0", text)
	}
	q.MaxMarks = &v
	return nil
}

// SetNote replaces the revision note of question i.
func (r *Review) SetNote(i int, note string) {
	r.exam.Questions[i].Note = note
}

// Save writes the edited questions back and marks the exam reviewed.
func (r *Review) Save() error {
	if err := r.store.ReviewExam(r.exam.ID, r.Questions()); err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	exam, err := r.store.Exam(r.exam.ID)
	if err != nil {
		return err
	}
	r.exam = exam
	return nil
}
