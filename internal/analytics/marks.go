// Package analytics derives scores, timing statistics and aggregates from exams.
// Every function is pure: results depend only on the arguments.
package analytics

import "github.com/pavelanni/examtracker/internal/model"

// DefaultMaxMark is the per-question maximum when nothing else determines it.
const DefaultMaxMark = 4.0

// MaxMarkFor resolves the maximum mark of q. The first rule that applies wins:
// an explicit positive question maximum, the marks of the enclosing section, an even
// share of the exam total, and finally DefaultMaxMark.
func MaxMarkFor(exam model.Exam, q model.Question) float64 {
	if q.MaxMarks != nil && *q.MaxMarks > 0 {
		return *q.MaxMarks
	}
	if s, ok := exam.SectionFor(q.Number); ok && s.Marks > 0 {
		return s.Marks
	}
	if exam.TotalMaxMarks != nil {
		count := len(exam.Questions)
		if exam.Config.QuestionCount != nil {
			count = *exam.Config.QuestionCount
		}
		if count > 0 {
			return *exam.TotalMaxMarks / float64(count)
		}
	}
	return DefaultMaxMark
}

// ApplyReviewStatus sets the status of q and adjusts its marks to match:
// a correct answer with no marks earns the maximum, an incorrect one carries the
// negative mark (or loses any positive marks), and an unattempted one earns nothing.
func ApplyReviewStatus(exam model.Exam, q *model.Question, status model.QuestionStatus) {
	q.Status = status
	switch status {
	case model.StatusCorrect:
		if q.Marks == 0 {
			q.Marks = MaxMarkFor(exam, *q)
		}
	case model.StatusIncorrect:
		if exam.Config.NegativeMark > 0 {
			q.Marks = -exam.Config.NegativeMark
		} else if q.Marks > 0 {
			q.Marks = 0
		}
	case model.StatusUnattempted:
		q.Marks = 0
	}
}

// BuildSections lays out section inputs back to back starting at question 1.
func BuildSections(inputs []model.SectionInput, newID func() string) []model.Section {
	if len(inputs) == 0 {
		return nil
	}
	sections := make([]model.Section, 0, len(inputs))
	next := 1
	for _, in := range inputs {
		sections = append(sections, model.Section{
			ID:            newID(),
			Name:          in.Name,
			Count:         in.Count,
			Marks:         in.Marks,
			StartQuestion: next,
			EndQuestion:   next + in.Count - 1,
		})
		next += in.Count
	}
	return sections
}

// SectionTotals returns the number of questions across sections and, when every
// section carries marks, the implied exam maximum.
func SectionTotals(sections []model.Section) (count int, maxMarks float64, allMarked bool) {
	allMarked = len(sections) > 0
	for _, s := range sections {
		count += s.Count
		maxMarks += float64(s.Count) * s.Marks
		if s.Marks <= 0 {
			allMarked = false
		}
	}
	return count, maxMarks, allMarked
}
