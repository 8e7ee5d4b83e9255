// Package report renders exams as an Excel workbook.
package report

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/model"
)

// Workbook builds an xlsx file with one summary row per exam and one row per question.
// Sheet names and headers are translated with the localizer in ctx.
func Workbook(ctx context.Context, exams []model.Exam) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	examSheet := i18n.T(ctx, "SheetExams")
	questionSheet := i18n.T(ctx, "SheetQuestions")

	index, err := f.NewSheet(examSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(questionSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	examHeaders := []string{
		"ColExam", "ColSubject", "ColStarted", "ColStatus", "ColQuestions", "ColCorrect",
		"ColIncorrect", "ColMissed", "ColAccuracy", "ColMarks", "ColMaxMarks", "ColScore", "ColTotalTime",
	}
	if err := writeRow(f, examSheet, 1, translate(ctx, examHeaders)); err != nil {
		return nil, err
	}
	questionHeaders := []string{
		"ColExam", "ColSubject", "ColNumber", "ColStatus", "ColMarks", "ColMaxMarks", "ColTimeSpent", "ColNote",
	}
	if err := writeRow(f, questionSheet, 1, translate(ctx, questionHeaders)); err != nil {
		return nil, err
	}

	qrow := 2
	for i, e := range exams {
		st := analytics.Stats(e)
		row := []any{
			e.DisplayName(), e.SubjectName, e.StartTime, i18n.Status(ctx, string(e.Status)),
			st.TotalQuestions, st.Correct, st.Incorrect, st.Missed,
			round(st.Accuracy), st.ObtainedMarks, st.TotalMaxMarks, round(st.ScorePercentage),
			round(st.TotalTime.Seconds()),
		}
		if err := writeRow(f, examSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, q := range e.Questions {
			row := []any{
				e.DisplayName(), e.SubjectName, q.Number, i18n.Status(ctx, string(q.Status)),
				q.Marks, analytics.MaxMarkFor(e, q), round(q.Spent().Seconds()), q.Note,
			}
			if err := writeRow(f, questionSheet, qrow, row); err != nil {
				return nil, err
			}
			qrow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func translate(ctx context.Context, ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = i18n.T(ctx, id)
	}
	return out
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}
