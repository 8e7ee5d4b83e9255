package questionlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examtracker/internal/clock"
	"github.com/pavelanni/examtracker/internal/model"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestLog(t *testing.T) (*Log, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(t0)
	return New(nil, c), c
}

func TestAppendNumbering(t *testing.T) {
	l, c := newTestLog(t)

	q1 := l.Append(model.QuestionPatch{})
	assert.Equal(t, 1, q1.Number)
	assert.Equal(t, model.StatusUnattempted, q1.Status)
	assert.Nil(t, q1.TimeSpent)
	assert.Equal(t, t0, q1.StartTime)
	assert.NotEmpty(t, q1.ID)

	c.Advance(10 * time.Second)
	q2 := l.Append(model.QuestionPatch{})
	assert.Equal(t, 2, q2.Number)

	// Jump ahead, then continue from the last appended number, not the max.
	l.Append(model.QuestionPatch{Number: model.Ptr(9)})
	l.Append(model.QuestionPatch{Number: model.Ptr(4)})
	q := l.Append(model.QuestionPatch{})
	assert.Equal(t, 5, q.Number)
	assert.Equal(t, 9, l.MaxNumber())
}

func TestAppendBackfillsUnsettledLast(t *testing.T) {
	l, c := newTestLog(t)
	l.Append(model.QuestionPatch{})
	c.Advance(42 * time.Second)
	l.Append(model.QuestionPatch{})

	first := l.At(0)
	require.NotNil(t, first.TimeSpent)
	assert.Equal(t, 42*time.Second, *first.TimeSpent)

	// A settled question is not overwritten.
	l.PatchAt(1, model.QuestionPatch{TimeSpent: model.Ptr(5 * time.Second)})
	c.Advance(time.Minute)
	l.Append(model.QuestionPatch{})
	assert.Equal(t, 5*time.Second, *l.At(1).TimeSpent)
}

func TestAppendOverridesApplyLast(t *testing.T) {
	l, _ := newTestLog(t)
	q := l.Append(model.QuestionPatch{
		Number: model.Ptr(3),
		Status: model.Ptr(model.StatusReviewLater),
		Note:   model.Ptr("tricky"),
	})
	assert.Equal(t, 3, q.Number)
	assert.Equal(t, model.StatusReviewLater, q.Status)
	assert.Equal(t, "tricky", q.Note)
}

func TestFindByNumberAndMax(t *testing.T) {
	l, _ := newTestLog(t)
	_, ok := l.FindByNumber(1)
	assert.False(t, ok)
	assert.Equal(t, 0, l.MaxNumber())

	l.Append(model.QuestionPatch{Number: model.Ptr(5)})
	l.Append(model.QuestionPatch{Number: model.Ptr(2)})

	i, ok := l.FindByNumber(2)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, 5, l.MaxNumber())
}

func TestPatchAtOutOfRangePanics(t *testing.T) {
	l, _ := newTestLog(t)
	assert.Panics(t, func() { l.PatchAt(0, model.QuestionPatch{}) })
	l.Append(model.QuestionPatch{})
	assert.Panics(t, func() { l.PatchAt(-1, model.QuestionPatch{}) })
	assert.NotPanics(t, func() { l.PatchAt(0, model.QuestionPatch{Note: model.Ptr("x")}) })
}

func TestTotalTime(t *testing.T) {
	l, c := newTestLog(t)
	l.Append(model.QuestionPatch{})
	c.Advance(30 * time.Second)
	l.Append(model.QuestionPatch{})
	c.Advance(15 * time.Second)
	l.SettleLast()
	assert.Equal(t, 45*time.Second, l.TotalTime())

	// Settling again is a no-op.
	c.Advance(time.Hour)
	l.SettleLast()
	assert.Equal(t, 45*time.Second, l.TotalTime())
}
