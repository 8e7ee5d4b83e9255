package model

import "time"

// QuestionPatch carries independently optional question fields. Nil fields are left alone.
type QuestionPatch struct {
	Number    *int
	StartTime *time.Time
	TimeSpent *time.Duration
	Status    *QuestionStatus
	Marks     *float64
	MaxMarks  *float64
	Note      *string
}

// Apply merges the set fields of p into q.
func (p QuestionPatch) Apply(q *Question) {
	if p.Number != nil {
		q.Number = *p.Number
	}
	if p.StartTime != nil {
		q.StartTime = *p.StartTime
	}
	if p.TimeSpent != nil {
		d := *p.TimeSpent
		q.TimeSpent = &d
	}
	if p.Status != nil {
		q.Status = *p.Status
	}
	if p.Marks != nil {
		q.Marks = *p.Marks
	}
	if p.MaxMarks != nil {
		m := *p.MaxMarks
		q.MaxMarks = &m
	}
	if p.Note != nil {
		q.Note = *p.Note
	}
}

// ExamPatch carries independently optional exam fields.
type ExamPatch struct {
	Name           *string
	StartTime      *time.Time
	PauseStartTime *time.Time
	// ClearPause removes PauseStartTime; it wins over PauseStartTime.
	ClearPause    bool
	TotalMaxMarks *float64
	QuestionCount *int
	NegativeMark  *float64
}

// Apply merges the set fields of p into e.
func (p ExamPatch) Apply(e *Exam) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.PauseStartTime != nil {
		t := *p.PauseStartTime
		e.PauseStartTime = &t
	}
	if p.ClearPause {
		e.PauseStartTime = nil
	}
	if p.TotalMaxMarks != nil {
		m := *p.TotalMaxMarks
		e.TotalMaxMarks = &m
	}
	if p.QuestionCount != nil {
		n := *p.QuestionCount
		e.Config.QuestionCount = &n
	}
	if p.NegativeMark != nil {
		e.Config.NegativeMark = *p.NegativeMark
	}
}

// SubjectPatch carries independently optional subject fields.
type SubjectPatch struct {
	Name *string
}

// Apply merges the set fields of p into s.
func (p SubjectPatch) Apply(s *Subject) {
	if p.Name != nil {
		s.Name = *p.Name
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
