package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/session"
	"github.com/pavelanni/examtracker/internal/store"
	"github.com/pavelanni/examtracker/internal/tracker"
)

func run(t *testing.T, db, stdin string, args ...string) string {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--db", db, "--log-level", "error"))
	require.NoError(t, cmd.Execute(), "examtracker %v", args)
	return out.String()
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")

	run(t, db, "", "subject", "add", "Physics")
	assert.Contains(t, run(t, db, "", "subject", "list"), "Physics")

	out := run(t, db, "n\nn\n", "exam", "start", "physics", "--questions", "2", "--negative-mark", "1")
	examID := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	require.NotEmpty(t, examID)
	assert.Contains(t, out, "Exam finished.")
	assert.Contains(t, run(t, db, "", "exam", "list"), "Completed")

	out = run(t, db, "c\nn\ni\nt misread\ns\n", "review", examID[:8])
	assert.Contains(t, out, "Review saved.")

	out = run(t, db, "", "exam", "show", examID)
	assert.Contains(t, out, "Focus on reducing negative marking errors")

	assert.Contains(t, run(t, db, "", "subject", "notes", "Physics"), "misread")
	assert.Contains(t, run(t, db, "", "stats"), "most practiced: Physics")

	backup := filepath.Join(dir, "backup.json")
	run(t, db, "", "export", "-o", backup)
	assert.Contains(t, run(t, db, "", "prefs"), "last export:")

	run(t, db, "", "clear", "--yes")
	assert.Empty(t, strings.TrimSpace(run(t, db, "", "subject", "list")))

	assert.Contains(t, run(t, db, "", "import", backup, "--mode", "replace"), "subjects: 1  exams: 1")
	assert.Empty(t, run(t, db, "", "import", backup), "unchanged backup is skipped")
	assert.Contains(t, run(t, db, "", "import", backup, "--force"), "subjects: 2  exams: 2")

	xlsx := filepath.Join(dir, "report.xlsx")
	run(t, db, "", "export", "--format", "xlsx", "-o", xlsx)
	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func storedExam(t *testing.T, db, id string) model.Exam {
	t.Helper()
	st, err := store.New(db)
	require.NoError(t, err)
	defer st.Close()
	e, err := tracker.New(st, clock.System{}, slog.New(slog.NewTextHandler(io.Discard, nil))).Exam(id)
	require.NoError(t, err)
	return e
}

func TestPracticeQuitPausesExam(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	run(t, db, "", "subject", "add", "Physics")

	out := run(t, db, "n\nq\n", "exam", "start", "Physics")
	examID := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	e := storedExam(t, db, examID)
	assert.True(t, e.Paused(), "quitting pauses the exam")
	assert.Equal(t, model.ExamActive, e.Status)

	run(t, db, "", "practice", examID)
	assert.True(t, storedExam(t, db, examID).Paused(), "end of input pauses too")

	out = run(t, db, "s\nf\n", "practice", examID)
	assert.Contains(t, out, "Exam finished.")
	e = storedExam(t, db, examID)
	assert.Equal(t, model.ExamCompleted, e.Status)
	assert.False(t, e.Paused())
}

func TestClearNeedsConfirmation(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"clear", "--db", filepath.Join(t.TempDir(), "test.db")})
	assert.Error(t, cmd.Execute())
}

func TestPrefs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	out := run(t, db, "", "prefs", "--theme", "dark", "--accent", "teal")
	assert.Contains(t, out, "theme: dark")
	assert.Contains(t, out, "accent: teal")

	out = run(t, db, "", "prefs")
	assert.Contains(t, out, "theme: dark", "preferences persist")
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		raw     string
		want    model.SectionInput
		wantErr bool
	}{
		{raw: "Physics:30:4", want: model.SectionInput{Name: "Physics", Count: 30, Marks: 4}},
		{raw: "Reading:10", want: model.SectionInput{Name: "Reading", Count: 10}},
		{raw: "Physics", wantErr: true},
		{raw: "Physics:x", wantErr: true},
		{raw: "Physics:3:y", wantErr: true},
		{raw: "a:1:2:3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSection(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type memStore map[string][]byte

func (m memStore) Load(slot string) ([]byte, bool, error) {
	data, ok := m[slot]
	return data, ok, nil
}

func (m memStore) Save(slot string, data []byte) error {
	m[slot] = data
	return nil
}

func TestPracticeStep(t *testing.T) {
	c := clock.NewManual(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	tr := tracker.New(memStore{}, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sub, err := tr.CreateSubject("Physics")
	require.NoError(t, err)
	exam, err := tr.CreateExam(model.CreateExamInput{SubjectID: sub.ID})
	require.NoError(t, err)
	s, err := session.Open(tr, c, exam.ID)
	require.NoError(t, err)

	step := func(line string) (bool, error) {
		return practiceStep(s, strings.Fields(line))
	}

	quit, err := step("")
	assert.False(t, quit)
	assert.NoError(t, err)

	_, err = step("g 5")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Current().Number)

	_, err = step("g")
	assert.True(t, apperrors.IsValidation(err))
	_, err = step("r x")
	assert.True(t, apperrors.IsValidation(err))
	_, err = step("jump")
	assert.True(t, userError(err))

	_, err = step("s")
	require.NoError(t, err)
	assert.True(t, s.Paused())
	_, err = step("+")
	assert.ErrorIs(t, err, apperrors.ErrPaused)
	_, err = step("s")
	require.NoError(t, err)
	assert.False(t, s.Paused())

	c.Advance(10 * time.Second)
	_, err = step("+")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, s.QuestionElapsed())

	quit, err = step("q")
	assert.True(t, quit)
	assert.NoError(t, err)

	_, err = step("f")
	require.NoError(t, err)
	assert.True(t, s.Finished())
}
