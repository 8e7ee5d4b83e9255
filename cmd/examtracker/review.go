package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examtracker/internal/apperrors"
	appI18n "github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/session"
)

var reviewStatuses = map[string]model.QuestionStatus{
	"c": model.StatusCorrect,
	"i": model.StatusIncorrect,
	"u": model.StatusUnattempted,
	"l": model.StatusReviewLater,
	"e": model.StatusEvaluateLater,
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review EXAM",
		Short: "Score the questions of a finished exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			e, err := findExam(a, args[0])
			if err != nil {
				return err
			}
			rv, err := session.NewReview(a.tracker, e.ID)
			if err != nil {
				return err
			}
			return reviewLoop(cmd, a, rv)
		}),
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

// reviewLoop walks the questions of rv in insertion order. Nothing is stored until
// the user saves; quitting or end of input discards unsaved edits.
func reviewLoop(cmd *cobra.Command, a *app, rv *session.Review) error {
	n := len(rv.Questions())
	if n == 0 {
		return apperrors.ErrNoQuestions
	}
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	prompt := interactive(in)
	if prompt {
		fmt.Fprintln(out, appI18n.T(a.ctx, "ReviewHelp"))
	}

	reader := bufio.NewReader(in)
	i := 0
	for {
		if prompt {
			printReviewLine(out, a, rv, i)
			fmt.Fprint(out, "> ")
		}
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		cmdName, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if status, ok := reviewStatuses[cmdName]; ok {
			err = rv.SetStatus(i, status)
		} else {
			switch cmdName {
			case "":
			case "m":
				err = rv.SetMarks(i, rest)
			case "x":
				err = rv.SetMaxMarks(i, rest)
			case "t":
				rv.SetNote(i, strings.TrimSpace(rest))
			case "n":
				i = min(i+1, n-1)
			case "p":
				i = max(i-1, 0)
			case "s":
				if err = rv.Save(); err == nil {
					fmt.Fprintln(out, appI18n.T(a.ctx, "ReviewSaved"))
				}
			case "q":
				return nil
			default:
				err = apperrors.NewValidationError("command", "unknown command", cmdName)
			}
		}
		if err != nil {
			if !userError(err) {
				return err
			}
			fmt.Fprintln(out, err)
		}
	}
}

func printReviewLine(w io.Writer, a *app, rv *session.Review, i int) {
	q := rv.Questions()[i]
	line := fmt.Sprintf("%s  %s  %s  %s/%s",
		appI18n.Td(a.ctx, "QuestionN", map[string]any{"Number": q.Number}),
		fmtDuration(q.Spent()),
		appI18n.Status(a.ctx, string(q.Status)),
		humanize.Ftoa(q.Marks), humanize.Ftoa(rv.MaxMark(i)))
	if q.Note != "" {
		line += "  " + q.Note
	}
	fmt.Fprintln(w, line)
}
