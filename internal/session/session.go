// Package session drives one exam while it is being taken: the question being timed,
// navigation between question numbers, pause and resume, manual time nudges and
// finishing. It also holds the review pass over a finished exam.
package session

import (
	"fmt"
	"time"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
)

// DefaultGridSize is the number of grid slots shown for exams without a question count.
// Unlimited exams may also jump at most this far past their highest question number.
const DefaultGridSize = 90

// MaxAdjust bounds a single manual time adjustment.
const MaxAdjust = 24 * time.Hour

// Store is the slice of the tracker a session needs.
type Store interface {
	Exam(id string) (model.Exam, error)
	AppendQuestion(examID string, overrides model.QuestionPatch) (model.Question, error)
	PatchQuestionAt(examID string, index int, patch model.QuestionPatch) error
	UpdateExam(examID string, patch model.ExamPatch) error
	CompleteExam(examID string) error
	ReviewExam(examID string, questions []model.Question) error
}

// Session is the running state of one active exam.
type Session struct {
	store  Store
	clock  clock.Clock
	examID string

	exam      model.Exam
	current   int
	viewStart time.Time
	finished  bool
}

// Open attaches a session to an active exam. An empty exam gets question 1; otherwise
// the most recently appended question is focused.
func Open(store Store, c clock.Clock, examID string) (*Session, error) {
	exam, err := store.Exam(examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamActive {
		return nil, fmt.Errorf("open exam %s (%s): %w", examID, exam.Status, apperrors.ErrInvalidTransition)
	}

	s := &Session{store: store, clock: c, examID: examID, exam: exam}
	if len(exam.Questions) == 0 {
		if _, err := store.AppendQuestion(examID, model.QuestionPatch{}); err != nil {
			return nil, fmt.Errorf("create first question: %w", err)
		}
		if err := s.reload(); err != nil {
			return nil, err
		}
	}
	s.current = len(s.exam.Questions) - 1
	s.viewStart = c.Now()
	return s, nil
}

// ExamID returns the id of the exam the session drives.
func (s *Session) ExamID() string {
	return s.examID
}

// Exam returns a copy of the session's view of the exam.
func (s *Session) Exam() model.Exam {
	return s.exam.Clone()
}

// Current returns the focused question.
func (s *Session) Current() model.Question {
	return s.exam.Questions[s.current]
}

// Index returns the log position of the focused question.
func (s *Session) Index() int {
	return s.current
}

// Paused reports whether the exam timer is stopped.
func (s *Session) Paused() bool {
	return s.exam.Paused()
}

// Finished reports whether Finish has completed the exam.
func (s *Session) Finished() bool {
	return s.finished
}

// Settle adds the time since the view start to the focused question.
// Calling it twice in a row adds only the gap between the calls.
func (s *Session) Settle() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.Paused() {
		return nil
	}
	return s.settle()
}

func (s *Session) settle() error {
	now := s.clock.Now()
	elapsed := now.Sub(s.viewStart)
	q := s.exam.Questions[s.current]
	if elapsed == 0 && q.TimeSpent != nil {
		return nil
	}
	spent := q.Spent() + elapsed
	if err := s.store.PatchQuestionAt(s.examID, s.current, model.QuestionPatch{TimeSpent: &spent}); err != nil {
		return fmt.Errorf("settle question %d: %w", q.Number, err)
	}
	s.exam.Questions[s.current].TimeSpent = &spent
	s.viewStart = now
	return nil
}

// Navigate focuses question n, creating it when the exam has none with that number.
// It does nothing while paused.
func (s *Session) Navigate(n int) error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.Paused() {
		return nil
	}
	if err := s.checkNumber(n); err != nil {
		return err
	}
	if err := s.settle(); err != nil {
		return err
	}

	idx, ok := findByNumber(s.exam.Questions, n)
	if !ok {
		if _, err := s.store.AppendQuestion(s.examID, model.QuestionPatch{Number: &n}); err != nil {
			return fmt.Errorf("create question %d: %w", n, err)
		}
		if err := s.reload(); err != nil {
			return err
		}
		idx = len(s.exam.Questions) - 1
	}
	s.current = idx
	s.viewStart = s.clock.Now()
	return nil
}

// Next moves to the following question number. When the exam has a question count and
// the focused question is at or past it, Next finishes the exam instead and reports true.
func (s *Session) Next() (bool, error) {
	if err := s.checkActive(); err != nil {
		return false, err
	}
	if s.Paused() {
		return false, nil
	}
	number := s.Current().Number
	if limit := s.exam.Config.QuestionCount; limit != nil && number >= *limit {
		if err := s.Finish(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, s.Navigate(number + 1)
}

// Previous moves to the preceding question number, if there is one.
func (s *Session) Previous() error {
	number := s.Current().Number
	if number <= 1 {
		return nil
	}
	return s.Navigate(number - 1)
}

// Pause settles the focused question and stops the exam timer.
func (s *Session) Pause() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.Paused() {
		return nil
	}
	if err := s.settle(); err != nil {
		return err
	}
	now := s.clock.Now()
	if err := s.store.UpdateExam(s.examID, model.ExamPatch{PauseStartTime: &now}); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	s.exam.PauseStartTime = &now
	return nil
}

// Resume restarts the timer. The exam start moves forward by the paused interval so the
// overall elapsed time excludes it.
func (s *Session) Resume() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if !s.Paused() {
		return nil
	}
	now := s.clock.Now()
	start := s.exam.StartTime.Add(now.Sub(*s.exam.PauseStartTime))
	if err := s.store.UpdateExam(s.examID, model.ExamPatch{StartTime: &start, ClearPause: true}); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	s.exam.StartTime = start
	s.exam.PauseStartTime = nil
	s.viewStart = now
	return nil
}

// Finish completes the exam. At least one question must exist.
func (s *Session) Finish() error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if len(s.exam.Questions) == 0 {
		return apperrors.ErrNoQuestions
	}
	if !s.Paused() {
		if err := s.settle(); err != nil {
			return err
		}
	}
	if err := s.store.CompleteExam(s.examID); err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	s.finished = true
	return s.reload()
}

// AdjustTime nudges the focused question's time by d, never below zero. The exam start
// moves by the opposite of the delta actually applied.
func (s *Session) AdjustTime(d time.Duration) error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.Paused() {
		return apperrors.ErrPaused
	}
	if d > MaxAdjust || d < -MaxAdjust {
		return &apperrors.ValidationError{Field: "adjust", Message: "must be within 24h", Value: d.String(), Rule: "max"}
	}
	if err := s.settle(); err != nil {
		return err
	}

	old := s.Current().Spent()
	spent := max(old+d, 0)
	applied := spent - old
	start := s.exam.StartTime.Add(-applied)

	if err := s.store.PatchQuestionAt(s.examID, s.current, model.QuestionPatch{TimeSpent: &spent}); err != nil {
		return fmt.Errorf("adjust time: %w", err)
	}
	if err := s.store.UpdateExam(s.examID, model.ExamPatch{StartTime: &start}); err != nil {
		return fmt.Errorf("adjust time: %w", err)
	}
	s.exam.Questions[s.current].TimeSpent = &spent
	s.exam.StartTime = start
	return nil
}

// Renumber changes the focused question's number. Numbers already used by another
// question are rejected.
func (s *Session) Renumber(n int) error {
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.Paused() {
		return apperrors.ErrPaused
	}
	if err := s.checkNumber(n); err != nil {
		return err
	}
	for i, q := range s.exam.Questions {
		if i != s.current && q.Number == n {
			return apperrors.NewValidationError("number", fmt.Sprintf("question %d already exists", n), n)
		}
	}
	if err := s.store.PatchQuestionAt(s.examID, s.current, model.QuestionPatch{Number: &n}); err != nil {
		return fmt.Errorf("renumber: %w", err)
	}
	s.exam.Questions[s.current].Number = n
	return nil
}

// ExamElapsed is the overall exam timer reading. It is frozen while paused.
func (s *Session) ExamElapsed() time.Duration {
	if s.exam.PauseStartTime != nil {
		return s.exam.PauseStartTime.Sub(s.exam.StartTime)
	}
	if s.finished && s.exam.EndTime != nil {
		return s.exam.EndTime.Sub(s.exam.StartTime)
	}
	return s.clock.Now().Sub(s.exam.StartTime)
}

// QuestionElapsed is the focused question's timer reading.
func (s *Session) QuestionElapsed() time.Duration {
	spent := s.Current().Spent()
	if s.Paused() || s.finished {
		return spent
	}
	return spent + s.clock.Now().Sub(s.viewStart)
}

// Slot is one cell of the question grid.
type Slot struct {
	Number int    `json:"number"`
	State  string `json:"state"`
	Active bool   `json:"active"`
}

// Slot states besides the question statuses.
const (
	SlotUnvisited = "unvisited"
	SlotVisited   = "visited"
)

// Grid lists every question slot from 1 to the question count (or DefaultGridSize),
// extended to cover the highest number used.
func (s *Session) Grid() []Slot {
	size := DefaultGridSize
	if s.exam.Config.QuestionCount != nil {
		size = *s.exam.Config.QuestionCount
	}
	for _, q := range s.exam.Questions {
		size = max(size, q.Number)
	}
	size = min(size, model.MaxQuestions)

	active := s.Current().Number
	slots := make([]Slot, size)
	for i := range slots {
		n := i + 1
		slots[i] = Slot{Number: n, State: SlotUnvisited, Active: n == active}
		if idx, ok := findByNumber(s.exam.Questions, n); ok {
			if st := s.exam.Questions[idx].Status; st != model.StatusUnattempted {
				slots[i].State = string(st)
			} else {
				slots[i].State = SlotVisited
			}
		}
	}
	return slots
}

// numberLimit is the highest question number the session accepts: the question count
// when set, otherwise DefaultGridSize past the highest number in use. Numbers already
// in the log stay reachable.
func (s *Session) numberLimit() int {
	highest := 0
	for _, q := range s.exam.Questions {
		highest = max(highest, q.Number)
	}
	limit := max(DefaultGridSize, highest+DefaultGridSize)
	if c := s.exam.Config.QuestionCount; c != nil {
		limit = max(*c, highest)
	}
	return min(limit, model.MaxQuestions)
}

func (s *Session) checkNumber(n int) error {
	if n < 1 {
		return apperrors.NewValidationError("number", "question number must be at least 1", n)
	}
	if limit := s.numberLimit(); n > limit {
		return &apperrors.ValidationError{
			Field:   "number",
			Message: fmt.Sprintf("question number must be at most %d", limit),
			Value:   n,
			Rule:    "max",
		}
	}
	return nil
}

func (s *Session) checkActive() error {
	if s.finished {
		return apperrors.ErrNotActive
	}
	return nil
}

func (s *Session) reload() error {
	exam, err := s.store.Exam(s.examID)
	if err != nil {
		return fmt.Errorf("reload exam: %w", err)
	}
	s.exam = exam
	return nil
}

func findByNumber(qs []model.Question, n int) (int, bool) {
	for i, q := range qs {
		if q.Number == n {
			return i, true
		}
	}
	return -1, false
}
