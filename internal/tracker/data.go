package tracker

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
)

// OverallSummary is the overall statistics with the most practiced subject resolved
// to its name.
type OverallSummary struct {
	analytics.OverallStats
	MostPracticedSubject string `json:"mostPracticedSubject"`
}

// SubjectStats aggregates the reviewed exams of a subject.
func (t *Tracker) SubjectStats(subjectID string) (analytics.SubjectStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.subjectIndex(subjectID); err != nil {
		return analytics.SubjectStats{}, err
	}
	return analytics.Subject(subjectID, t.exams), nil
}

// OverallStats aggregates every reviewed exam.
func (t *Tracker) OverallStats() OverallSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := analytics.Overall(t.exams)
	return OverallSummary{OverallStats: st, MostPracticedSubject: t.subjectName(st.MostPracticedSubjectID)}
}

// Dashboard computes the filtered analytics dashboard.
func (t *Tracker) Dashboard(f analytics.Filter) analytics.Dashboard {
	t.mu.Lock()
	defer t.mu.Unlock()
	return analytics.BuildDashboard(t.exams, f, t.clock.Now())
}

// ExamAnalysis computes the detailed analysis of one exam.
func (t *Tracker) ExamAnalysis(examID string) (analytics.Analysis, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.examIndex(examID)
	if err != nil {
		return analytics.Analysis{}, err
	}
	return analytics.Analyze(t.exams[i].Clone()), nil
}

// NotesBySubject collects the non-empty question notes of a subject's exams, newest
// exam first and in question order within an exam.
func (t *Tracker) NotesBySubject(subjectID string) []model.Note {
	t.mu.Lock()
	defer t.mu.Unlock()

	exams := make([]model.Exam, 0)
	for _, e := range t.exams {
		if e.SubjectID == subjectID {
			exams = append(exams, e)
		}
	}
	slices.SortStableFunc(exams, func(a, b model.Exam) int {
		return b.StartTime.Compare(a.StartTime)
	})

	notes := []model.Note{}
	for _, e := range exams {
		for _, q := range e.Questions {
			if q.Note == "" {
				continue
			}
			notes = append(notes, model.Note{
				ExamID:         e.ID,
				ExamDate:       e.StartTime,
				QuestionNumber: q.Number,
				Note:           q.Note,
				Status:         q.Status,
			})
		}
	}
	return notes
}

// Export returns a backup of all subjects and exams.
func (t *Tracker) Export() model.Backup {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.Backup{
		Subjects:   append([]model.Subject{}, t.subjects...),
		Exams:      cloneExams(t.exams),
		ExportDate: t.clock.Now(),
		Version:    model.BackupVersion,
	}
}

type importDoc struct {
	Subjects *[]model.Subject `json:"subjects"`
	Exams    *[]model.Exam    `json:"exams"`
	Version  string           `json:"version"`
}

// Import loads a backup document. Replace overwrites everything; merge appends the
// incoming records without checking for duplicates. Nothing changes unless the whole
// document parses.
func (t *Tracker) Import(data []byte, mode model.ImportMode) error {
	if mode != model.ImportReplace && mode != model.ImportMerge {
		return &apperrors.ValidationError{Field: "mode", Message: "must be replace or merge", Value: mode, Rule: "oneof"}
	}
	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &apperrors.ImportError{Err: err}
	}
	if doc.Subjects == nil || doc.Exams == nil {
		return &apperrors.ImportError{Err: errors.New("subjects and exams are required")}
	}
	subjects, exams := *doc.Subjects, *doc.Exams
	for i := range exams {
		if exams[i].Questions == nil {
			exams[i].Questions = []model.Question{}
		}
		if exams[i].Sections == nil {
			exams[i].Sections = []model.Section{}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch mode {
	case model.ImportReplace:
		t.subjects = append([]model.Subject{}, subjects...)
		t.exams = exams
	case model.ImportMerge:
		t.subjects = append(t.subjects, subjects...)
		t.exams = append(t.exams, exams...)
	}
	t.save(SlotSubjects)
	t.save(SlotExams)
	t.logger.Info("data imported", "mode", mode, "version", doc.Version,
		"subjects", len(subjects), "exams", len(exams))
	return nil
}

// ClearAll deletes every subject and exam. Preferences are kept.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subjects = []model.Subject{}
	t.exams = []model.Exam{}
	t.save(SlotSubjects)
	t.save(SlotExams)
	t.logger.Info("all data cleared")
}

func (t *Tracker) subjectName(id string) string {
	if id == "" {
		return ""
	}
	i, err := t.subjectIndex(id)
	if err != nil {
		return ""
	}
	return t.subjects[i].Name
}
