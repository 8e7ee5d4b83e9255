package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appI18n "github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/model"
)

func subjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Manage subjects",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a subject",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := a.tracker.CreateSubject(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.ID)
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subjects with their exam counts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range a.tracker.Subjects() {
				n := len(a.tracker.ExamsBySubject(s.ID))
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, appI18n.Tp(a.ctx, "ExamsCount", n))
			}
			return tw.Flush()
		}),
	}

	rename := &cobra.Command{
		Use:   "rename SUBJECT NAME",
		Short: "Rename a subject",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := findSubject(a, args[0])
			if err != nil {
				return err
			}
			_, err = a.tracker.UpdateSubject(s.ID, model.SubjectPatch{Name: &args[1]})
			return err
		}),
	}

	del := &cobra.Command{
		Use:   "delete SUBJECT",
		Short: "Delete a subject and all of its exams",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := findSubject(a, args[0])
			if err != nil {
				return err
			}
			return a.tracker.DeleteSubject(s.ID)
		}),
	}

	notes := &cobra.Command{
		Use:   "notes SUBJECT",
		Short: "Show revision notes collected during reviews",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s, err := findSubject(a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			notes := a.tracker.NotesBySubject(s.ID)
			if len(notes) == 0 {
				fmt.Fprintln(out, appI18n.T(a.ctx, "NoNotes"))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, n := range notes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					n.ExamDate.Local().Format("2006-01-02"),
					appI18n.Td(a.ctx, "QuestionN", map[string]any{"Number": n.QuestionNumber}),
					appI18n.Status(a.ctx, string(n.Status)),
					n.Note)
			}
			return tw.Flush()
		}),
	}

	for _, c := range []*cobra.Command{add, list, rename, del, notes} {
		addCommonFlags(c.Flags())
		cmd.AddCommand(c)
	}
	return cmd
}

// findSubject resolves a subject by id or, failing that, by case-insensitive name.
func findSubject(a *app, ref string) (model.Subject, error) {
	if s, err := a.tracker.Subject(ref); err == nil {
		return s, nil
	}
	for _, s := range a.tracker.Subjects() {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return model.Subject{}, fmt.Errorf("subject %q: not found", ref)
}
