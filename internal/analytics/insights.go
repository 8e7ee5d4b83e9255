package analytics

import "math"

// Insight message IDs. They are translation keys; Data carries the template values.
const (
	InsightScore        = "InsightScore"
	InsightScoreMarks   = "InsightScoreMarks"
	InsightSpeed        = "InsightSpeed"
	InsightSpeedSlow    = "InsightSpeedSlow"
	InsightFocusMissed  = "InsightFocusMissed"
	InsightFocusErrors  = "InsightFocusErrors"
	InsightFocusPerfect = "InsightFocusPerfect"
)

// Insight is one line of feedback on an exam.
type Insight struct {
	MessageID string         `json:"messageId"`
	Data      map[string]any `json:"data,omitempty"`
}

// Insights returns the score, speed and focus feedback for an exam summary.
func Insights(st ExamStats) []Insight {
	score := Insight{MessageID: InsightScore, Data: map[string]any{
		"Score":    round1(st.ScorePercentage),
		"Correct":  st.Correct,
		"Total":    st.TotalQuestions,
		"Accuracy": round1(st.Accuracy),
	}}
	if st.TotalMaxMarks > 0 {
		score.MessageID = InsightScoreMarks
		score.Data["Obtained"] = st.ObtainedMarks
		score.Data["Max"] = st.TotalMaxMarks
	}

	speed := Insight{MessageID: InsightSpeed, Data: map[string]any{
		"Correct":   round1(st.AvgCorrectTime.Seconds()),
		"Incorrect": round1(st.AvgIncorrectTime.Seconds()),
	}}
	if st.SlowOnIncorrect() {
		speed.MessageID = InsightSpeedSlow
	}

	var focus Insight
	switch {
	case st.Missed > 0:
		focus = Insight{MessageID: InsightFocusMissed, Data: map[string]any{"Count": st.Missed}}
	case st.Incorrect > 0:
		focus = Insight{MessageID: InsightFocusErrors}
	default:
		focus = Insight{MessageID: InsightFocusPerfect}
	}

	return []Insight{score, speed, focus}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
