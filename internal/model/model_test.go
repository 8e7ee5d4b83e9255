package model

import (
	"testing"
	"time"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		exam Exam
		want string
	}{
		{"named", Exam{Name: "Mock 3", SubjectName: "Physics"}, "Mock 3"},
		{"blank", Exam{Name: "  ", SubjectName: "Physics"}, "Physics Practice"},
		{"empty", Exam{SubjectName: "Biology"}, "Biology Practice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.exam.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSectionFor(t *testing.T) {
	e := Exam{Sections: []Section{
		{Name: "A", StartQuestion: 1, EndQuestion: 10},
		{Name: "B", StartQuestion: 11, EndQuestion: 15},
	}}
	if s, ok := e.SectionFor(11); !ok || s.Name != "B" {
		t.Errorf("SectionFor(11) = %v, %v; want B", s.Name, ok)
	}
	if _, ok := e.SectionFor(16); ok {
		t.Error("SectionFor(16): expected no section")
	}
}

func TestCloneIsDeep(t *testing.T) {
	spent := 5 * time.Second
	e := Exam{
		Questions:     []Question{{Number: 1, TimeSpent: &spent, MaxMarks: Ptr(4.0)}},
		Sections:      []Section{{Name: "A"}},
		TotalMaxMarks: Ptr(100.0),
		Config:        ExamConfig{QuestionCount: Ptr(10)},
	}
	c := e.Clone()

	*c.Questions[0].TimeSpent = time.Minute
	*c.Questions[0].MaxMarks = 1
	c.Sections[0].Name = "changed"
	*c.TotalMaxMarks = 1
	*c.Config.QuestionCount = 1

	if *e.Questions[0].TimeSpent != 5*time.Second || *e.Questions[0].MaxMarks != 4 {
		t.Error("Clone shares question pointers")
	}
	if e.Sections[0].Name != "A" || *e.TotalMaxMarks != 100 || *e.Config.QuestionCount != 10 {
		t.Error("Clone shares exam fields")
	}
}

func TestExamPatchClearPauseWins(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	e := Exam{PauseStartTime: &now}
	ExamPatch{PauseStartTime: &now, ClearPause: true, NegativeMark: Ptr(0.5)}.Apply(&e)
	if e.Paused() {
		t.Error("ClearPause: exam still paused")
	}
	if e.Config.NegativeMark != 0.5 {
		t.Errorf("NegativeMark = %v, want 0.5", e.Config.NegativeMark)
	}
}

func TestQuestionPatchLeavesUnsetFields(t *testing.T) {
	q := Question{Number: 3, Status: StatusCorrect, Marks: 4, Note: "keep"}
	QuestionPatch{Marks: Ptr(2.0)}.Apply(&q)
	if q.Number != 3 || q.Status != StatusCorrect || q.Note != "keep" || q.Marks != 2 {
		t.Errorf("Apply = %+v", q)
	}
	if !StatusEvaluateLater.Valid() || QuestionStatus("skipped").Valid() {
		t.Error("Valid() mismatch")
	}
}
