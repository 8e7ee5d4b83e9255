package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examtracker/internal/analytics"
	appI18n "github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/model"
)

func examCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Manage exams",
	}

	start := &cobra.Command{
		Use:   "start SUBJECT",
		Short: "Start a new exam and enter the practice loop",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runExamStart),
	}
	sf := start.Flags()
	sf.String("name", "", "Exam name (defaults to \"<subject> Practice\")")
	sf.Int("questions", 0, "Number of questions (0 = unlimited)")
	sf.Float64("negative-mark", 0, "Penalty for an incorrect answer")
	sf.Float64("total-marks", 0, "Maximum marks for the whole exam")
	sf.StringArray("section", nil, "Section as NAME:COUNT[:MARKS] (repeatable, in order)")
	sf.Bool("detach", false, "Create the exam without entering the practice loop")

	list := &cobra.Command{
		Use:   "list",
		Short: "List exams, newest first",
		Args:  cobra.NoArgs,
		RunE:  withApp(runExamList),
	}
	list.Flags().String("subject", "", "Only exams of this subject")

	show := &cobra.Command{
		Use:   "show EXAM",
		Short: "Show the analysis of an exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			e, err := findExam(a, args[0])
			if err != nil {
				return err
			}
			an, err := a.tracker.ExamAnalysis(e.ID)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), a, an)
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename EXAM NAME",
		Short: "Rename an exam",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			e, err := findExam(a, args[0])
			if err != nil {
				return err
			}
			return a.tracker.UpdateExam(e.ID, model.ExamPatch{Name: &args[1]})
		}),
	}

	del := &cobra.Command{
		Use:   "delete EXAM",
		Short: "Delete an exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			e, err := findExam(a, args[0])
			if err != nil {
				return err
			}
			return a.tracker.DeleteExam(e.ID)
		}),
	}

	for _, c := range []*cobra.Command{start, list, show, rename, del} {
		addCommonFlags(c.Flags())
		cmd.AddCommand(c)
	}
	return cmd
}

func runExamStart(cmd *cobra.Command, a *app, args []string) error {
	s, err := findSubject(a, args[0])
	if err != nil {
		return err
	}
	in := model.CreateExamInput{
		SubjectID:    s.ID,
		Name:         a.v.GetString("name"),
		NegativeMark: a.v.GetFloat64("negative-mark"),
	}
	if n := a.v.GetInt("questions"); n != 0 {
		in.QuestionCount = &n
	}
	if m := a.v.GetFloat64("total-marks"); m != 0 {
		in.TotalMaxMarks = &m
	}
	sections, err := cmd.Flags().GetStringArray("section")
	if err != nil {
		return err
	}
	for _, raw := range sections {
		si, err := parseSection(raw)
		if err != nil {
			return err
		}
		in.Sections = append(in.Sections, si)
	}

	e, err := a.tracker.CreateExam(in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	if a.v.GetBool("detach") {
		return nil
	}
	return practiceLoop(cmd, a, e.ID)
}

// parseSection reads a NAME:COUNT[:MARKS] section flag.
func parseSection(raw string) (model.SectionInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.SectionInput{}, fmt.Errorf("section %q: want NAME:COUNT[:MARKS]", raw)
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.SectionInput{}, fmt.Errorf("section %q: count: %w", raw, err)
	}
	si := model.SectionInput{Name: parts[0], Count: count}
	if len(parts) == 3 {
		if si.Marks, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return model.SectionInput{}, fmt.Errorf("section %q: marks: %w", raw, err)
		}
	}
	return si, nil
}

func runExamList(cmd *cobra.Command, a *app, _ []string) error {
	var exams []model.Exam
	if ref := a.v.GetString("subject"); ref != "" {
		s, err := findSubject(a, ref)
		if err != nil {
			return err
		}
		exams = a.tracker.ExamsBySubject(s.ID)
	} else {
		all := a.tracker.Exams()
		for i := len(all) - 1; i >= 0; i-- {
			exams = append(exams, all[i])
		}
	}

	now := a.clock.Now()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range exams {
		result := ""
		if e.Status == model.ExamReviewed {
			result = fmt.Sprintf("%.1f%%", analytics.Stats(e).Accuracy)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.DisplayName(),
			humanize.RelTime(e.StartTime, now, "ago", "from now"),
			appI18n.Status(a.ctx, string(e.Status)),
			appI18n.Tp(a.ctx, "QuestionsCount", len(e.Questions)),
			result)
	}
	return tw.Flush()
}

func printAnalysis(w io.Writer, a *app, an analytics.Analysis) {
	e, st := an.Exam, an.Stats
	fmt.Fprintf(w, "%s (%s)\n", e.DisplayName(), appI18n.Status(a.ctx, string(e.Status)))
	fmt.Fprintf(w, "%s: %d  %s: %d  %s: %d  %s: %.1f%%\n",
		appI18n.T(a.ctx, "ColCorrect"), st.Correct,
		appI18n.T(a.ctx, "ColIncorrect"), st.Incorrect,
		appI18n.T(a.ctx, "ColMissed"), st.Missed,
		appI18n.T(a.ctx, "ColAccuracy"), st.Accuracy)
	fmt.Fprintf(w, "%s: %s  avg %s  fastest %s  slowest %s  median %s\n",
		appI18n.T(a.ctx, "ColTotalTime"), fmtDuration(st.TotalTime),
		fmtDuration(st.AverageTime), fmtDuration(st.Fastest),
		fmtDuration(st.Slowest), fmtDuration(st.Median))
	fmt.Fprintf(w, "%s: %s / %s  (+%s %s)\n",
		appI18n.T(a.ctx, "ColMarks"),
		humanize.Ftoa(st.ObtainedMarks), humanize.Ftoa(st.TotalMaxMarks),
		humanize.Ftoa(an.Marks.PositiveMarks), humanize.Ftoa(an.Marks.NegativeMarks))

	if len(an.Sections) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, s := range an.Sections {
			fmt.Fprintf(tw, "%s\t%d-%d\t%d/%d/%d\t%s/%s\n", s.Name, s.StartQuestion, s.EndQuestion,
				s.Correct, s.Incorrect, s.Missed,
				humanize.Ftoa(s.ObtainedMarks), humanize.Ftoa(s.MaxMarks))
		}
		tw.Flush()
	}

	if e.Status == model.ExamReviewed {
		fmt.Fprintln(w)
		for _, in := range an.Insights {
			fmt.Fprintln(w, "- "+appI18n.Td(a.ctx, in.MessageID, in.Data))
		}
	}
}

// findExam resolves an exam by id or unique id prefix.
func findExam(a *app, ref string) (model.Exam, error) {
	if e, err := a.tracker.Exam(ref); err == nil {
		return e, nil
	}
	var match []model.Exam
	for _, e := range a.tracker.Exams() {
		if strings.HasPrefix(e.ID, ref) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return model.Exam{}, fmt.Errorf("exam %q: not found", ref)
	case 1:
		return match[0], nil
	}
	return model.Exam{}, fmt.Errorf("exam %q: ambiguous, %d matches", ref, len(match))
}
