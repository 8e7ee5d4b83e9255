package model

import (
	"strings"
	"time"
)

// ExamStatus represents the lifecycle stage of an exam.
type ExamStatus string

const (
	// ExamActive is an exam that is being taken and timed.
	ExamActive ExamStatus = "active"
	// ExamCompleted is a finished exam awaiting review.
	ExamCompleted ExamStatus = "completed"
	// ExamReviewed is an exam whose questions have been scored.
	ExamReviewed ExamStatus = "reviewed"
)

// QuestionStatus represents the outcome recorded for a question attempt.
type QuestionStatus string

const (
	StatusUnattempted   QuestionStatus = "unattempted"
	StatusCorrect       QuestionStatus = "correct"
	StatusIncorrect     QuestionStatus = "incorrect"
	StatusReviewLater   QuestionStatus = "review_later"
	StatusEvaluateLater QuestionStatus = "evaluate_later"
)

// Valid reports whether s is one of the known question statuses.
func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusUnattempted, StatusCorrect, StatusIncorrect, StatusReviewLater, StatusEvaluateLater:
		return true
	}
	return false
}

// MaxQuestions bounds the question count and the question numbers of an exam.
const MaxQuestions = 10000

// Subject is a named group of exams.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is one numbered attempt within an exam.
type Question struct {
	ID        string         `json:"id"`
	Number    int            `json:"number"`
	StartTime time.Time      `json:"startTime"`
	TimeSpent *time.Duration `json:"timeSpent"`
	Status    QuestionStatus `json:"status"`
	Marks     float64        `json:"marks"`
	MaxMarks  *float64       `json:"maxMarks,omitempty"`
	Note      string         `json:"note"`
}

// Spent returns the settled time of the question, or zero if unsettled.
func (q Question) Spent() time.Duration {
	if q.TimeSpent == nil {
		return 0
	}
	return *q.TimeSpent
}

// Section is a contiguous range of question numbers with its own marking weight.
type Section struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	Marks         float64 `json:"marks"`
	StartQuestion int     `json:"startQuestion"`
	EndQuestion   int     `json:"endQuestion"`
}

// Contains reports whether the question number falls in the section.
func (s Section) Contains(number int) bool {
	return number >= s.StartQuestion && number <= s.EndQuestion
}

// ExamConfig holds per-exam settings chosen at creation.
type ExamConfig struct {
	QuestionCount *int    `json:"questionCount"` // nil means unlimited
	NegativeMark  float64 `json:"negativeMark,omitempty"`
}

// Exam is one timed practice session.
type Exam struct {
	ID             string        `json:"id"`
	SubjectID      string        `json:"subjectId"`
	SubjectName    string        `json:"subjectName"`
	Name           string        `json:"name"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        *time.Time    `json:"endTime"`
	Status         ExamStatus    `json:"status"`
	Questions      []Question    `json:"questions"`
	TotalTime      time.Duration `json:"totalTime"`
	Config         ExamConfig    `json:"config"`
	Sections       []Section     `json:"sections"`
	TotalMaxMarks  *float64      `json:"totalMaxMarks,omitempty"`
	PauseStartTime *time.Time    `json:"pauseStartTime,omitempty"`
}

// Paused reports whether the exam timer is currently paused.
func (e Exam) Paused() bool {
	return e.PauseStartTime != nil
}

// DisplayName returns the exam name, falling back to "<subject> Practice".
func (e Exam) DisplayName() string {
	if strings.TrimSpace(e.Name) != "" {
		return e.Name
	}
	return e.SubjectName + " Practice"
}

// SectionFor returns the section containing the question number, if any.
func (e Exam) SectionFor(number int) (Section, bool) {
	for _, s := range e.Sections {
		if s.Contains(number) {
			return s, true
		}
	}
	return Section{}, false
}

// Clone returns a deep copy of the exam.
func (e Exam) Clone() Exam {
	c := e
	c.Questions = CloneQuestions(e.Questions)
	if e.Sections != nil {
		c.Sections = append([]Section(nil), e.Sections...)
	}
	c.EndTime = clonePtr(e.EndTime)
	c.TotalMaxMarks = clonePtr(e.TotalMaxMarks)
	c.PauseStartTime = clonePtr(e.PauseStartTime)
	c.Config.QuestionCount = clonePtr(e.Config.QuestionCount)
	return c
}

// CloneQuestions returns a deep copy of a question list.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.TimeSpent = clonePtr(q.TimeSpent)
		q.MaxMarks = clonePtr(q.MaxMarks)
		out[i] = q
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Note is a revision note attached to a reviewed question.
type Note struct {
	ExamID         string         `json:"examId"`
	ExamDate       time.Time      `json:"examDate"`
	QuestionNumber int            `json:"questionNumber"`
	Note           string         `json:"note"`
	Status         QuestionStatus `json:"status"`
}
