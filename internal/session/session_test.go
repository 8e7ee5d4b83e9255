package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/tracker"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type memStore map[string][]byte

func (m memStore) Load(slot string) ([]byte, bool, error) {
	data, ok := m[slot]
	return data, ok, nil
}

func (m memStore) Save(slot string, data []byte) error {
	m[slot] = data
	return nil
}

type fixture struct {
	tr    *tracker.Tracker
	clock *clock.Manual
	exam  model.Exam
}

func newFixture(t *testing.T, in model.CreateExamInput) *fixture {
	t.Helper()
	c := clock.NewManual(t0)
	tr := tracker.New(memStore{}, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s, err := tr.CreateSubject("Physics")
	require.NoError(t, err)
	in.SubjectID = s.ID
	e, err := tr.CreateExam(in)
	require.NoError(t, err)
	return &fixture{tr: tr, clock: c, exam: e}
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := Open(f.tr, f.clock, f.exam.ID)
	require.NoError(t, err)
	return s
}

func (f *fixture) stored(t *testing.T) model.Exam {
	t.Helper()
	e, err := f.tr.Exam(f.exam.ID)
	require.NoError(t, err)
	return e
}

func totalSpent(e model.Exam) time.Duration {
	var d time.Duration
	for _, q := range e.Questions {
		d += q.Spent()
	}
	return d
}

func numbers(e model.Exam) []int {
	var out []int
	for _, q := range e.Questions {
		out = append(out, q.Number)
	}
	return out
}

func TestOpenCreatesFirstQuestion(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)

	assert.Equal(t, 1, s.Current().Number)
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, []int{1}, numbers(f.stored(t)))
	assert.False(t, s.Paused())
}

func TestOpenFocusesLastAppended(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	require.NoError(t, s.Navigate(5))
	require.NoError(t, s.Navigate(2))

	again := f.open(t)
	assert.Equal(t, 2, again.Current().Number)
	assert.Len(t, again.Exam().Questions, 3)
}

func TestOpenRejectsFinishedExam(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	require.NoError(t, s.Finish())

	_, err := Open(f.tr, f.clock, f.exam.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = Open(f.tr, f.clock, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOpenPausedExamStaysPaused(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(10 * time.Second)
	require.NoError(t, s.Pause())

	again := f.open(t)
	assert.True(t, again.Paused())
	f.clock.Advance(time.Minute)
	require.NoError(t, again.Resume())
	assert.Equal(t, 10*time.Second, again.ExamElapsed())
}

func TestTimeIsConservedAcrossNavigation(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)

	steps := []struct {
		wait   time.Duration
		target int
	}{
		{30 * time.Second, 2},
		{45 * time.Second, 7},
		{5 * time.Second, 2},
		{20 * time.Second, 3},
		{70 * time.Second, 1},
	}
	for _, st := range steps {
		f.clock.Advance(st.wait)
		require.NoError(t, s.Navigate(st.target))
	}
	f.clock.Advance(15 * time.Second)
	require.NoError(t, s.Settle())

	e := f.stored(t)
	assert.Equal(t, f.clock.Now().Sub(e.StartTime), totalSpent(e))
	assert.Equal(t, []int{1, 2, 7, 3}, numbers(e))
	assert.Equal(t, 65*time.Second, e.Questions[1].Spent(), "time accumulates on revisits")
}

func TestSettleIsIdempotent(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(12 * time.Second)

	require.NoError(t, s.Settle())
	first := f.stored(t).Questions[0].Spent()
	require.NoError(t, s.Settle())
	assert.Equal(t, first, f.stored(t).Questions[0].Spent())
	assert.Equal(t, 12*time.Second, first)

	f.clock.Advance(time.Second)
	require.NoError(t, s.Settle())
	assert.Equal(t, 13*time.Second, f.stored(t).Questions[0].Spent())
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)

	f.clock.Advance(30 * time.Second)
	require.NoError(t, s.Pause())
	assert.True(t, s.Paused())

	f.clock.Advance(5 * time.Minute)
	assert.Equal(t, 30*time.Second, s.ExamElapsed(), "exam timer frozen while paused")
	assert.Equal(t, 30*time.Second, s.QuestionElapsed())

	require.NoError(t, s.Navigate(2), "navigation is ignored while paused")
	assert.Equal(t, 1, s.Current().Number)
	assert.ErrorIs(t, s.AdjustTime(30*time.Second), apperrors.ErrPaused)
	assert.ErrorIs(t, s.Renumber(4), apperrors.ErrPaused)

	require.NoError(t, s.Resume())
	assert.False(t, s.Paused())
	e := f.stored(t)
	assert.Equal(t, t0.Add(5*time.Minute), e.StartTime)
	assert.Nil(t, e.PauseStartTime)

	f.clock.Advance(10 * time.Second)
	require.NoError(t, s.Navigate(2))
	e = f.stored(t)
	assert.Equal(t, 40*time.Second, e.Questions[0].Spent())
	assert.Equal(t, f.clock.Now().Sub(e.StartTime), totalSpent(e))
}

func TestZeroLengthPauseChangesNothing(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(20 * time.Second)
	require.NoError(t, s.Settle())
	before := f.stored(t)

	require.NoError(t, s.Pause())
	require.NoError(t, s.Resume())

	after := f.stored(t)
	assert.Equal(t, before.StartTime, after.StartTime)
	assert.Equal(t, before.Questions, after.Questions)
}

func TestNavigateNumbering(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)

	require.NoError(t, s.Navigate(7))
	finished, err := s.Next()
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, 8, s.Current().Number)

	require.NoError(t, s.Previous())
	assert.Equal(t, 7, s.Current().Number)
	assert.Len(t, s.Exam().Questions, 3, "existing question is focused, not recreated")

	require.NoError(t, s.Navigate(1))
	require.NoError(t, s.Previous())
	assert.Equal(t, 1, s.Current().Number)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, s.Navigate(0), &verr)
}

func TestNextFinishesAtQuestionCount(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{QuestionCount: model.Ptr(3)})
	s := f.open(t)

	for want := 2; want <= 3; want++ {
		f.clock.Advance(10 * time.Second)
		finished, err := s.Next()
		require.NoError(t, err)
		require.False(t, finished)
		require.Equal(t, want, s.Current().Number)
	}

	f.clock.Advance(10 * time.Second)
	finished, err := s.Next()
	require.NoError(t, err)
	assert.True(t, finished)
	assert.True(t, s.Finished())

	e := f.stored(t)
	assert.Equal(t, model.ExamCompleted, e.Status)
	assert.Equal(t, []int{1, 2, 3}, numbers(e))
	assert.Equal(t, 30*time.Second, e.TotalTime)
	require.NotNil(t, e.EndTime)
	assert.Equal(t, f.clock.Now(), *e.EndTime)

	_, err = s.Next()
	assert.ErrorIs(t, err, apperrors.ErrNotActive)
}

func TestAdjustTimeRoundTrip(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(50 * time.Second)
	require.NoError(t, s.Settle())
	before := f.stored(t)

	require.NoError(t, s.AdjustTime(30*time.Second))
	mid := f.stored(t)
	assert.Equal(t, 80*time.Second, mid.Questions[0].Spent())
	assert.Equal(t, before.StartTime.Add(-30*time.Second), mid.StartTime)
	assert.Equal(t, 80*time.Second, s.ExamElapsed())

	require.NoError(t, s.AdjustTime(-30*time.Second))
	after := f.stored(t)
	assert.Equal(t, before.Questions[0].Spent(), after.Questions[0].Spent())
	assert.Equal(t, before.StartTime, after.StartTime)
}

func TestAdjustTimeClampsAtZero(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(10 * time.Second)

	require.NoError(t, s.AdjustTime(-30*time.Second))
	e := f.stored(t)
	assert.Equal(t, time.Duration(0), e.Questions[0].Spent())
	assert.Equal(t, t0.Add(10*time.Second), e.StartTime, "only the applied 10s shifts the start")
	assert.Equal(t, f.clock.Now().Sub(e.StartTime), totalSpent(e))
}

func TestRenumber(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	require.NoError(t, s.Navigate(2))

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, s.Renumber(1), &verr, "collision rejected")
	assert.ErrorAs(t, s.Renumber(0), &verr)

	require.NoError(t, s.Renumber(2), "keeping its own number is fine")
	require.NoError(t, s.Renumber(12))
	assert.Equal(t, 12, s.Current().Number)
	assert.Equal(t, []int{1, 12}, numbers(f.stored(t)))

	finished, err := s.Next()
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, 13, s.Current().Number)
}

func TestFinishWhilePaused(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(25 * time.Second)
	require.NoError(t, s.Pause())
	f.clock.Advance(time.Hour)

	require.NoError(t, s.Finish())
	e := f.stored(t)
	assert.Equal(t, model.ExamCompleted, e.Status)
	assert.Equal(t, 25*time.Second, e.TotalTime)
	assert.False(t, e.Paused())
	assert.ErrorIs(t, s.Pause(), apperrors.ErrNotActive)
}

func TestQuestionElapsed(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(8 * time.Second)
	assert.Equal(t, 8*time.Second, s.QuestionElapsed())
	require.NoError(t, s.Navigate(2))
	f.clock.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, s.QuestionElapsed())
	require.NoError(t, s.Navigate(1))
	f.clock.Advance(2 * time.Second)
	assert.Equal(t, 10*time.Second, s.QuestionElapsed())
}

func TestGrid(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{QuestionCount: model.Ptr(5)})
	s := f.open(t)
	require.NoError(t, s.Navigate(3))

	grid := s.Grid()
	require.Len(t, grid, 5)
	assert.Equal(t, Slot{Number: 1, State: SlotVisited}, grid[0])
	assert.Equal(t, Slot{Number: 2, State: SlotUnvisited}, grid[1])
	assert.Equal(t, Slot{Number: 3, State: SlotVisited, Active: true}, grid[2])

	unlimited := newFixture(t, model.CreateExamInput{}).open(t)
	assert.Len(t, unlimited.Grid(), DefaultGridSize)
	require.NoError(t, unlimited.Navigate(95))
	assert.Len(t, unlimited.Grid(), 95, "grid grows to the highest number")
}

func TestNavigateBounds(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{QuestionCount: model.Ptr(3)})
	s := f.open(t)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, s.Navigate(20_000_000), &verr)
	assert.Equal(t, "max", verr.Rule)
	assert.ErrorAs(t, s.Navigate(4), &verr)
	assert.ErrorAs(t, s.Renumber(4), &verr)
	require.NoError(t, s.Navigate(3))
	assert.Equal(t, []int{1, 3}, numbers(f.stored(t)))
	assert.Len(t, s.Grid(), 3)

	unlimited := newFixture(t, model.CreateExamInput{}).open(t)
	assert.ErrorAs(t, unlimited.Navigate(DefaultGridSize+2), &verr)
	require.NoError(t, unlimited.Navigate(DefaultGridSize+1))
	require.NoError(t, unlimited.Navigate(2*DefaultGridSize+1), "the limit moves with the highest number")
	assert.ErrorAs(t, unlimited.Navigate(model.MaxQuestions+1), &verr)
}

func TestAdjustTimeBounds(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, s.AdjustTime(MaxAdjust+time.Second), &verr)
	assert.ErrorAs(t, s.AdjustTime(-MaxAdjust-time.Second), &verr)
	assert.Equal(t, t0, f.stored(t).StartTime, "rejected adjustment changes nothing")
	require.NoError(t, s.AdjustTime(MaxAdjust))
}

func TestPausedAcrossReopenConservesTime(t *testing.T) {
	f := newFixture(t, model.CreateExamInput{})
	s := f.open(t)
	f.clock.Advance(30 * time.Second)
	require.NoError(t, s.Navigate(2))
	f.clock.Advance(20 * time.Second)
	require.NoError(t, s.Pause())

	f.clock.Advance(10 * time.Minute)
	reopened := f.open(t)
	require.True(t, reopened.Paused())
	assert.Equal(t, 2, reopened.Current().Number)
	require.NoError(t, reopened.Resume())
	f.clock.Advance(5 * time.Second)
	require.NoError(t, reopened.Finish())

	e := f.stored(t)
	assert.Equal(t, 55*time.Second, totalSpent(e))
	assert.Equal(t, 55*time.Second, e.TotalTime)
	assert.Equal(t, 55*time.Second, e.EndTime.Sub(e.StartTime))
}
