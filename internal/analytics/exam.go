package analytics

import (
	"slices"
	"time"

	"github.com/pavelanni/examtracker/internal/model"
)

// SlowAnswerFactor flags incorrect answers taking this many times longer than correct ones.
const SlowAnswerFactor = 1.5

// ExamStats summarizes one exam.
type ExamStats struct {
	TotalQuestions int `json:"totalQuestions"`
	Correct        int `json:"correct"`
	Incorrect      int `json:"incorrect"`
	// Missed counts every question that is neither correct nor incorrect.
	Missed        int `json:"missed"`
	Unattempted   int `json:"unattempted"`
	ReviewLater   int `json:"reviewLater"`
	EvaluateLater int `json:"evaluateLater"`

	Accuracy        float64 `json:"accuracy"`
	ObtainedMarks   float64 `json:"obtainedMarks"`
	TotalMaxMarks   float64 `json:"totalMaxMarks"`
	ScorePercentage float64 `json:"scorePercentage"`

	TotalTime        time.Duration `json:"totalTime"`
	AverageTime      time.Duration `json:"averageTime"`
	Fastest          time.Duration `json:"fastest"`
	Slowest          time.Duration `json:"slowest"`
	Median           time.Duration `json:"median"`
	AvgCorrectTime   time.Duration `json:"avgCorrectTime"`
	AvgIncorrectTime time.Duration `json:"avgIncorrectTime"`
}

// SlowOnIncorrect reports whether incorrect answers take notably longer than correct ones.
func (s ExamStats) SlowOnIncorrect() bool {
	return float64(s.AvgIncorrectTime) > float64(s.AvgCorrectTime)*SlowAnswerFactor
}

// Stats computes the summary of exam.
func Stats(exam model.Exam) ExamStats {
	st := ExamStats{TotalQuestions: len(exam.Questions)}
	if exam.TotalMaxMarks != nil {
		st.TotalMaxMarks = *exam.TotalMaxMarks
	}

	var sum, correctTime, incorrectTime time.Duration
	times := make([]time.Duration, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		spent := q.Spent()
		times = append(times, spent)
		sum += spent
		st.ObtainedMarks += q.Marks

		switch q.Status {
		case model.StatusCorrect:
			st.Correct++
			correctTime += spent
		case model.StatusIncorrect:
			st.Incorrect++
			incorrectTime += spent
		default:
			st.Missed++
			switch q.Status {
			case model.StatusReviewLater:
				st.ReviewLater++
			case model.StatusEvaluateLater:
				st.EvaluateLater++
			default:
				st.Unattempted++
			}
		}
	}

	st.TotalTime = exam.TotalTime
	if st.TotalTime == 0 {
		st.TotalTime = sum
	}
	st.Accuracy = percent(st.Correct, st.TotalQuestions)
	if st.TotalMaxMarks > 0 {
		st.ScorePercentage = st.ObtainedMarks / st.TotalMaxMarks * 100
	} else {
		st.ScorePercentage = st.Accuracy
	}
	st.AverageTime = average(st.TotalTime, st.TotalQuestions)
	st.AvgCorrectTime = average(correctTime, st.Correct)
	st.AvgIncorrectTime = average(incorrectTime, st.Incorrect)

	if len(times) > 0 {
		slices.Sort(times)
		st.Fastest = times[0]
		st.Slowest = times[len(times)-1]
		st.Median = times[len(times)/2]
	}
	return st
}

// MarksBreakdown splits obtained marks into gains, penalties and unrealized potential.
type MarksBreakdown struct {
	PositiveMarks float64 `json:"positiveMarks"`
	NegativeMarks float64 `json:"negativeMarks"`
	// LostPotential is what attempted but not fully correct questions could still have earned.
	LostPotential float64 `json:"lostPotential"`
	// MissedPotential is the maximum of the unattempted questions.
	MissedPotential float64 `json:"missedPotential"`
}

// Marks computes the marks breakdown of exam.
func Marks(exam model.Exam) MarksBreakdown {
	var b MarksBreakdown
	for _, q := range exam.Questions {
		if q.Marks > 0 {
			b.PositiveMarks += q.Marks
		} else {
			b.NegativeMarks += q.Marks
		}

		maxMark := MaxMarkFor(exam, q)
		if q.Status == model.StatusUnattempted {
			b.MissedPotential += maxMark
			continue
		}
		earned := max(q.Marks, 0)
		if earned < maxMark {
			b.LostPotential += maxMark - earned
		}
	}
	return b
}

// SectionStats is the result of one section.
type SectionStats struct {
	Name          string  `json:"name"`
	StartQuestion int     `json:"startQuestion"`
	EndQuestion   int     `json:"endQuestion"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Missed        int     `json:"missed"`
	ObtainedMarks float64 `json:"obtainedMarks"`
	MaxMarks      float64 `json:"maxMarks"`
}

// Sections computes per-section results in section order. Questions outside every
// section are not counted.
func Sections(exam model.Exam) []SectionStats {
	out := make([]SectionStats, 0, len(exam.Sections))
	for _, s := range exam.Sections {
		ss := SectionStats{
			Name:          s.Name,
			StartQuestion: s.StartQuestion,
			EndQuestion:   s.EndQuestion,
			MaxMarks:      float64(s.Count) * s.Marks,
		}
		for _, q := range exam.Questions {
			if !s.Contains(q.Number) {
				continue
			}
			ss.ObtainedMarks += q.Marks
			switch q.Status {
			case model.StatusCorrect:
				ss.Correct++
			case model.StatusIncorrect:
				ss.Incorrect++
			default:
				ss.Missed++
			}
		}
		out = append(out, ss)
	}
	return out
}

// Analysis bundles everything the exam detail view shows.
type Analysis struct {
	Exam     model.Exam     `json:"exam"`
	Stats    ExamStats      `json:"stats"`
	Marks    MarksBreakdown `json:"marks"`
	Sections []SectionStats `json:"sections"`
	Insights []Insight      `json:"insights"`
}

// Analyze computes the full analysis of exam.
func Analyze(exam model.Exam) Analysis {
	st := Stats(exam)
	return Analysis{
		Exam:     exam,
		Stats:    st,
		Marks:    Marks(exam),
		Sections: Sections(exam),
		Insights: Insights(st),
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func average(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}
