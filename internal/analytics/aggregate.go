package analytics

import (
	"slices"
	"time"

	"github.com/pavelanni/examtracker/internal/model"
)

// SubjectStats aggregates the reviewed exams of one subject.
type SubjectStats struct {
	SubjectID          string        `json:"subjectId"`
	TotalExams         int           `json:"totalExams"`
	TotalQuestions     int           `json:"totalQuestions"`
	Correct            int           `json:"correct"`
	Incorrect          int           `json:"incorrect"`
	Missed             int           `json:"missed"`
	Accuracy           float64       `json:"accuracy"`
	TotalTime          time.Duration `json:"totalTime"`
	AvgTimePerQuestion time.Duration `json:"avgTimePerQuestion"`
	TotalMarks         float64       `json:"totalMarks"`
}

// Subject aggregates the reviewed exams in exams that belong to subjectID.
func Subject(subjectID string, exams []model.Exam) SubjectStats {
	st := SubjectStats{SubjectID: subjectID}
	for _, e := range exams {
		if e.SubjectID != subjectID || e.Status != model.ExamReviewed {
			continue
		}
		st.TotalExams++
		st.TotalQuestions += len(e.Questions)
		st.TotalTime += e.TotalTime
		for _, q := range e.Questions {
			st.TotalMarks += q.Marks
			switch q.Status {
			case model.StatusCorrect:
				st.Correct++
			case model.StatusIncorrect:
				st.Incorrect++
			default:
				st.Missed++
			}
		}
	}
	st.Accuracy = percent(st.Correct, st.TotalQuestions)
	st.AvgTimePerQuestion = average(st.TotalTime, st.TotalQuestions)
	return st
}

// OverallStats aggregates every reviewed exam.
type OverallStats struct {
	TotalExams     int           `json:"totalExams"`
	TotalQuestions int           `json:"totalQuestions"`
	Correct        int           `json:"correct"`
	Accuracy       float64       `json:"accuracy"`
	TotalTime      time.Duration `json:"totalTime"`
	// MostPracticedSubjectID is empty when there are no reviewed exams.
	MostPracticedSubjectID string `json:"mostPracticedSubjectId"`
}

// Overall aggregates the reviewed exams in exams. The most practiced subject is the
// one with the most reviewed exams; ties go to the subject seen first.
func Overall(exams []model.Exam) OverallStats {
	var st OverallStats
	counts := make(map[string]int)
	var order []string
	for _, e := range exams {
		if e.Status != model.ExamReviewed {
			continue
		}
		st.TotalExams++
		st.TotalQuestions += len(e.Questions)
		st.TotalTime += e.TotalTime
		for _, q := range e.Questions {
			if q.Status == model.StatusCorrect {
				st.Correct++
			}
		}
		if _, seen := counts[e.SubjectID]; !seen {
			order = append(order, e.SubjectID)
		}
		counts[e.SubjectID]++
	}
	best := 0
	for _, id := range order {
		if counts[id] > best {
			best = counts[id]
			st.MostPracticedSubjectID = id
		}
	}
	st.Accuracy = percent(st.Correct, st.TotalQuestions)
	return st
}

// Filter narrows the dashboard to some subjects and a recent window.
type Filter struct {
	// SubjectIDs limits the exams to these subjects; empty means all.
	SubjectIDs []string `json:"subjectIds"`
	// Days keeps exams started within the last Days days; 0 means all time.
	Days int `json:"days"`
}

// TrendPoint is the accuracy of one calendar day.
type TrendPoint struct {
	Date      string  `json:"date"`
	Accuracy  float64 `json:"accuracy"`
	Questions int     `json:"questions"`
}

// Distribution counts question outcomes.
type Distribution struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Missed    int `json:"missed"`
}

// SubjectComparison is one subject's row in the dashboard comparison.
type SubjectComparison struct {
	SubjectID   string        `json:"subjectId"`
	SubjectName string        `json:"subjectName"`
	Accuracy    float64       `json:"accuracy"`
	AvgTime     time.Duration `json:"avgTime"`
	Exams       int           `json:"exams"`
}

// Dashboard is the filtered multi-exam view.
type Dashboard struct {
	Stats        OverallStats        `json:"stats"`
	Trend        []TrendPoint        `json:"trend"`
	Distribution Distribution        `json:"distribution"`
	Subjects     []SubjectComparison `json:"subjects"`
}

// FilterExams returns the reviewed exams matching f, oldest first.
func FilterExams(exams []model.Exam, f Filter, now time.Time) []model.Exam {
	var cutoff time.Time
	if f.Days > 0 {
		cutoff = now.Add(-time.Duration(f.Days) * 24 * time.Hour)
	}
	var out []model.Exam
	for _, e := range exams {
		if e.Status != model.ExamReviewed {
			continue
		}
		if len(f.SubjectIDs) > 0 && !slices.Contains(f.SubjectIDs, e.SubjectID) {
			continue
		}
		if f.Days > 0 && e.StartTime.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b model.Exam) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

// BuildDashboard computes the dashboard over the exams matching f.
func BuildDashboard(exams []model.Exam, f Filter, now time.Time) Dashboard {
	filtered := FilterExams(exams, f, now)
	d := Dashboard{
		Stats:    Overall(filtered),
		Trend:    []TrendPoint{},
		Subjects: []SubjectComparison{},
	}

	type tally struct {
		name           string
		correct, total int
		time           time.Duration
		exams          int
	}
	days := make(map[string]*tally)
	var dayOrder []string
	subjects := make(map[string]*tally)
	var subjectOrder []string

	for _, e := range filtered {
		date := e.StartTime.Format(time.DateOnly)
		day, ok := days[date]
		if !ok {
			day = &tally{}
			days[date] = day
			dayOrder = append(dayOrder, date)
		}
		sub, ok := subjects[e.SubjectID]
		if !ok {
			sub = &tally{name: e.SubjectName}
			subjects[e.SubjectID] = sub
			subjectOrder = append(subjectOrder, e.SubjectID)
		}
		sub.exams++

		for _, q := range e.Questions {
			day.total++
			sub.total++
			sub.time += q.Spent()
			switch q.Status {
			case model.StatusCorrect:
				day.correct++
				sub.correct++
				d.Distribution.Correct++
			case model.StatusIncorrect:
				d.Distribution.Incorrect++
			default:
				d.Distribution.Missed++
			}
		}
	}

	for _, date := range dayOrder {
		t := days[date]
		d.Trend = append(d.Trend, TrendPoint{
			Date:      date,
			Accuracy:  round1(percent(t.correct, t.total)),
			Questions: t.total,
		})
	}
	for _, id := range subjectOrder {
		t := subjects[id]
		d.Subjects = append(d.Subjects, SubjectComparison{
			SubjectID:   id,
			SubjectName: t.name,
			Accuracy:    round1(percent(t.correct, t.total)),
			AvgTime:     average(t.time, t.total),
			Exams:       t.exams,
		})
	}
	return d
}
