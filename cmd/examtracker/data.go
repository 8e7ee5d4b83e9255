package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examtracker/internal/analytics"
	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/report"
	"github.com/pavelanni/examtracker/internal/tracker"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show overall or per-subject statistics of reviewed exams",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			out := cmd.OutOrStdout()
			if ref := a.v.GetString("subject"); ref != "" {
				s, err := findSubject(a, ref)
				if err != nil {
					return err
				}
				st, err := a.tracker.SubjectStats(s.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\nexams: %d  questions: %d  correct: %d  incorrect: %d  missed: %d\n",
					s.Name, st.TotalExams, st.TotalQuestions, st.Correct, st.Incorrect, st.Missed)
				fmt.Fprintf(out, "accuracy: %.1f%%  time: %s  avg/question: %s  marks: %s\n",
					st.Accuracy, fmtDuration(st.TotalTime), fmtDuration(st.AvgTimePerQuestion),
					humanize.Ftoa(st.TotalMarks))
				return nil
			}
			st := a.tracker.OverallStats()
			fmt.Fprintf(out, "exams: %d  questions: %d  correct: %d  accuracy: %.1f%%  time: %s\n",
				st.TotalExams, st.TotalQuestions, st.Correct, st.Accuracy, fmtDuration(st.TotalTime))
			if st.MostPracticedSubject != "" {
				fmt.Fprintf(out, "most practiced: %s\n", st.MostPracticedSubject)
			}
			return nil
		}),
	}
	cmd.Flags().String("subject", "", "Limit to one subject")
	addCommonFlags(cmd.Flags())
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show accuracy trend, outcome distribution and subject comparison",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			refs, err := cmd.Flags().GetStringArray("subject")
			if err != nil {
				return err
			}
			f := analytics.Filter{Days: a.v.GetInt("days")}
			for _, ref := range refs {
				s, err := findSubject(a, ref)
				if err != nil {
					return err
				}
				f.SubjectIDs = append(f.SubjectIDs, s.ID)
			}
			if f.Days < 0 {
				return fmt.Errorf("days must not be negative")
			}

			if a.v.GetBool("json") {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.tracker.Dashboard(f))
			}
			printDashboard(cmd.OutOrStdout(), a.tracker.Dashboard(f))
			return nil
		}),
	}
	fl := cmd.Flags()
	fl.StringArray("subject", nil, "Limit to these subjects (repeatable)")
	fl.Int("days", 0, "Only exams started in the last N days (0 = all time)")
	fl.Bool("json", false, "Print the dashboard as JSON")
	addCommonFlags(fl)
	return cmd
}

func printDashboard(w io.Writer, d analytics.Dashboard) {
	fmt.Fprintf(w, "exams: %d  questions: %d  accuracy: %.1f%%  time: %s\n",
		d.Stats.TotalExams, d.Stats.TotalQuestions, d.Stats.Accuracy, fmtDuration(d.Stats.TotalTime))
	fmt.Fprintf(w, "correct: %d  incorrect: %d  missed: %d\n\n",
		d.Distribution.Correct, d.Distribution.Incorrect, d.Distribution.Missed)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range d.Trend {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%d\n", p.Date, p.Accuracy, p.Questions)
	}
	tw.Flush()
	fmt.Fprintln(w)
	for _, s := range d.Subjects {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%s\t%d\n", s.SubjectName, s.Accuracy, fmtDuration(s.AvgTime), s.Exams)
	}
	tw.Flush()
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all data as a JSON backup or an xlsx report",
		Args:  cobra.NoArgs,
		RunE:  withApp(runExport),
	}
	f := cmd.Flags()
	f.String("format", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(f)
	return cmd
}

func runExport(cmd *cobra.Command, a *app, _ []string) error {
	var data []byte
	var err error
	switch format := a.v.GetString("format"); format {
	case "json":
		data, err = json.MarshalIndent(a.tracker.Export(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		data = append(data, '\n')
	case "xlsx":
		data, err = report.Workbook(a.ctx, a.tracker.Exams())
		if err != nil {
			return fmt.Errorf("build workbook: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want json or xlsx)", format)
	}

	outPath := a.v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if err := a.db.SetLastExport(a.clock.Now()); err != nil {
		slog.Warn("failed to record export time", "error", err)
	}
	return nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runImport),
	}
	f := cmd.Flags()
	f.String("mode", string(model.ImportMerge), "How to combine with existing data (merge, replace)")
	f.Bool("force", false, "Import even if this file was already imported")
	addCommonFlags(f)
	return cmd
}

func runImport(cmd *cobra.Command, a *app, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	hash := sha256sum(data)
	storedHash, err := a.db.GetImportedFileHash(key)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash && !a.v.GetBool("force") {
		slog.Info("backup unchanged since last import, skipping", "path", path)
		return nil
	}

	if err := a.tracker.Import(data, model.ImportMode(a.v.GetString("mode"))); err != nil {
		return err
	}
	if err := a.db.SetImportedFileHash(key, hash); err != nil {
		return fmt.Errorf("record import for %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "subjects: %d  exams: %d\n", len(a.tracker.Subjects()), len(a.tracker.Exams()))
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the theme and accent color",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			switch theme := a.v.GetString("theme"); theme {
			case "":
			case tracker.ThemeLight, tracker.ThemeDark:
				if a.tracker.Theme() != theme {
					a.tracker.ToggleTheme()
				}
			default:
				return &apperrors.ValidationError{Field: "theme", Message: "must be light or dark", Value: theme, Rule: "oneof"}
			}
			if accent := a.v.GetString("accent"); accent != "" {
				if err := a.tracker.SetAccent(accent); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "theme: %s\naccent: %s\n", a.tracker.Theme(), a.tracker.Accent())
			if last, err := a.db.LastExport(); err == nil && !last.IsZero() {
				fmt.Fprintf(out, "last export: %s\n", humanize.RelTime(last, a.clock.Now(), "ago", "from now"))
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.String("theme", "", "Color theme (light, dark)")
	f.String("accent", "", "Accent color (blue, purple, green, indigo, orange, pink, red, teal)")
	addCommonFlags(f)
	return cmd
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every subject and exam",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if !a.v.GetBool("yes") {
				return fmt.Errorf("refusing to delete all data without --yes")
			}
			a.tracker.ClearAll()
			return nil
		}),
	}
	cmd.Flags().Bool("yes", false, "Confirm deleting all data")
	addCommonFlags(cmd.Flags())
	return cmd
}
