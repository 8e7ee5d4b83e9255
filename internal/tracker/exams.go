package tracker

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/questionlog"
)

// CreateExam starts a new active exam. When sections are given they are laid out from
// question 1, the question count becomes their total, and the exam maximum is derived
// from them unless set explicitly.
func (t *Tracker) CreateExam(in model.CreateExamInput) (model.Exam, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	si, err := t.subjectIndex(in.SubjectID)
	if err != nil {
		return model.Exam{}, err
	}
	if in.SubjectName == "" {
		in.SubjectName = t.subjects[si].Name
	}
	if err := t.validateStruct(in); err != nil {
		return model.Exam{}, err
	}

	now := t.clock.Now()
	exam := model.Exam{
		ID:            uuid.NewString(),
		SubjectID:     in.SubjectID,
		SubjectName:   in.SubjectName,
		Name:          in.Name,
		StartTime:     now,
		Status:        model.ExamActive,
		Questions:     []model.Question{},
		Config:        model.ExamConfig{QuestionCount: in.QuestionCount, NegativeMark: in.NegativeMark},
		Sections:      analytics.BuildSections(in.Sections, uuid.NewString),
		TotalMaxMarks: in.TotalMaxMarks,
	}
	if len(exam.Sections) > 0 {
		count, total, allMarked := analytics.SectionTotals(exam.Sections)
		if count > model.MaxQuestions {
			return model.Exam{}, &apperrors.ValidationError{
				Field:   "sections",
				Message: fmt.Sprintf("sections hold %d questions, at most %d allowed", count, model.MaxQuestions),
				Value:   count,
				Rule:    "max",
			}
		}
		exam.Config.QuestionCount = &count
		if exam.TotalMaxMarks == nil && allMarked {
			exam.TotalMaxMarks = &total
		}
	}
	if exam.Sections == nil {
		exam.Sections = []model.Section{}
	}

	t.exams = append(t.exams, exam)
	t.save(SlotExams)
	t.logger.Info("exam started", "id", exam.ID, "subject", exam.SubjectName)
	return exam.Clone(), nil
}

// Exam returns a copy of the exam with the given id.
func (t *Tracker) Exam(id string) (model.Exam, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(id)
	if err != nil {
		return model.Exam{}, err
	}
	return t.exams[i].Clone(), nil
}

// Exams returns copies of all exams in creation order.
func (t *Tracker) Exams() []model.Exam {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneExams(t.exams)
}

// ExamsBySubject returns the exams of a subject, newest first.
func (t *Tracker) ExamsBySubject(subjectID string) []model.Exam {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.Exam
	for _, e := range t.exams {
		if e.SubjectID == subjectID {
			out = append(out, e.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.Exam) int {
		return b.StartTime.Compare(a.StartTime)
	})
	return out
}

// UpdateExam applies patch to an exam.
func (t *Tracker) UpdateExam(id string, patch model.ExamPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(id)
	if err != nil {
		return err
	}
	patch.Apply(&t.exams[i])
	t.save(SlotExams)
	return nil
}

// DeleteExam removes an exam.
func (t *Tracker) DeleteExam(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(id)
	if err != nil {
		return err
	}
	t.exams = append(t.exams[:i], t.exams[i+1:]...)
	t.save(SlotExams)
	t.logger.Info("exam deleted", "id", id)
	return nil
}

// AppendQuestion adds a question to an active exam.
func (t *Tracker) AppendQuestion(examID string, overrides model.QuestionPatch) (model.Question, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.activeExam(examID)
	if err != nil {
		return model.Question{}, err
	}
	log := questionlog.New(e.Questions, t.clock)
	q := log.Append(overrides)
	e.Questions = log.Questions()
	t.save(SlotExams)
	return q, nil
}

// PatchQuestionAt merges patch into the question at position index of an exam.
// It panics if index is out of range.
func (t *Tracker) PatchQuestionAt(examID string, index int, patch model.QuestionPatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(examID)
	if err != nil {
		return err
	}
	questionlog.New(t.exams[i].Questions, t.clock).PatchAt(index, patch)
	t.save(SlotExams)
	return nil
}

// CompleteExam finishes an active exam: the last question is settled if needed, the
// total time is summed and the pause, if any, is dropped.
func (t *Tracker) CompleteExam(examID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.activeExam(examID)
	if err != nil {
		return err
	}
	if len(e.Questions) == 0 {
		return apperrors.ErrNoQuestions
	}
	log := questionlog.New(e.Questions, t.clock)
	log.SettleLast()

	now := t.clock.Now()
	e.Questions = log.Questions()
	e.TotalTime = log.TotalTime()
	e.EndTime = &now
	e.Status = model.ExamCompleted
	e.PauseStartTime = nil
	t.save(SlotExams)
	t.logger.Info("exam completed", "id", e.ID, "questions", len(e.Questions), "total_time", e.TotalTime)
	return nil
}

// ReviewExam stores the scored questions of a finished exam. A completed exam becomes
// reviewed unless some question is still waiting for evaluation; a reviewed exam stays
// reviewed.
func (t *Tracker) ReviewExam(examID string, questions []model.Question) error {
	for _, q := range questions {
		if !q.Status.Valid() {
			return apperrors.NewValidationError("status", "unknown question status", q.Status)
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(examID)
	if err != nil {
		return err
	}
	e := &t.exams[i]
	if e.Status == model.ExamActive {
		return fmt.Errorf("review exam %s: %w", examID, apperrors.ErrInvalidTransition)
	}
	e.Questions = model.CloneQuestions(questions)
	wasReviewed := e.Status == model.ExamReviewed
	e.Status = model.ExamReviewed
	for _, q := range questions {
		if !wasReviewed && q.Status == model.StatusEvaluateLater {
			e.Status = model.ExamCompleted
			break
		}
	}
	t.save(SlotExams)
	t.logger.Info("exam reviewed", "id", e.ID, "status", e.Status)
	return nil
}

func (t *Tracker) activeExam(id string) (*model.Exam, error) {
	i, err := t.examIndex(id)
	if err != nil {
		return nil, err
	}
	e := &t.exams[i]
	if e.Status != model.ExamActive {
		return nil, fmt.Errorf("exam %s is %s: %w", id, e.Status, apperrors.ErrInvalidTransition)
	}
	return e, nil
}

func (t *Tracker) examIndex(id string) (int, error) {
	for i, e := range t.exams {
		if e.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("exam %s: %w", id, apperrors.ErrNotFound)
}

func cloneExams(exams []model.Exam) []model.Exam {
	out := make([]model.Exam, len(exams))
	for i, e := range exams {
		out[i] = e.Clone()
	}
	return out
}
