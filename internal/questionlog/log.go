// Package questionlog maintains the ordered question attempts of a single exam.
//
// Insertion order is creation order, not question-number order: a user may jump to
// question 7 before answering question 2.
package questionlog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
)

// Log is an append-mostly, patchable sequence of questions.
type Log struct {
	questions []model.Question
	clock     clock.Clock
}

// New wraps questions in a Log. The slice is owned by the Log afterwards.
func New(questions []model.Question, c clock.Clock) *Log {
	return &Log{questions: questions, clock: c}
}

// Questions returns the underlying questions.
func (l *Log) Questions() []model.Question {
	return l.questions
}

// Len returns the number of questions in the log.
func (l *Log) Len() int {
	return len(l.questions)
}

// At returns the question at index i.
func (l *Log) At(i int) model.Question {
	l.mustIndex(i)
	return l.questions[i]
}

// Append adds a new question and returns it.
//
// The number is taken from overrides when set, otherwise it is 1 for an empty log and
// one past the last appended question. An unsettled last question is settled as
// now minus its start time before the new one is added.
func (l *Log) Append(overrides model.QuestionPatch) model.Question {
	now := l.clock.Now()

	number := 1
	if n := len(l.questions); n > 0 {
		last := &l.questions[n-1]
		number = last.Number + 1
		if last.TimeSpent == nil {
			spent := now.Sub(last.StartTime)
			last.TimeSpent = &spent
		}
	}
	if overrides.Number != nil {
		number = *overrides.Number
	}

	q := model.Question{
		ID:        uuid.NewString(),
		Number:    number,
		StartTime: now,
		Status:    model.StatusUnattempted,
	}
	overrides.Apply(&q)

	l.questions = append(l.questions, q)
	return q
}

// PatchAt merges patch into the question at index i. Number uniqueness is not checked.
func (l *Log) PatchAt(i int, patch model.QuestionPatch) {
	l.mustIndex(i)
	patch.Apply(&l.questions[i])
}

// FindByNumber returns the index of the first question with the given number.
func (l *Log) FindByNumber(number int) (int, bool) {
	for i, q := range l.questions {
		if q.Number == number {
			return i, true
		}
	}
	return -1, false
}

// MaxNumber returns the highest question number, or 0 for an empty log.
func (l *Log) MaxNumber() int {
	max := 0
	for _, q := range l.questions {
		if q.Number > max {
			max = q.Number
		}
	}
	return max
}

// SettleLast sets the last question's time to now minus its start if it has none.
func (l *Log) SettleLast() {
	n := len(l.questions)
	if n == 0 {
		return
	}
	last := &l.questions[n-1]
	if last.TimeSpent == nil {
		spent := l.clock.Now().Sub(last.StartTime)
		last.TimeSpent = &spent
	}
}

// TotalTime sums the settled time of every question.
func (l *Log) TotalTime() time.Duration {
	var total time.Duration
	for _, q := range l.questions {
		total += q.Spent()
	}
	return total
}

func (l *Log) mustIndex(i int) {
	if i < 0 || i >= len(l.questions) {
		panic(fmt.Sprintf("questionlog: index %d out of range [0,%d)", i, len(l.questions)))
	}
}
