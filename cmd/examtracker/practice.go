package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pavelanni/examtracker/internal/apperrors"
	appI18n "github.com/pavelanni/examtracker/internal/i18n"
	"github.com/pavelanni/examtracker/internal/session"
)

const adjustStep = 30 * time.Second

func practiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice EXAM",
		Short: "Resume the practice loop of an active exam",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			e, err := findExam(a, args[0])
			if err != nil {
				return err
			}
			return practiceLoop(cmd, a, e.ID)
		}),
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

// interactive reports whether r is a terminal, in which case prompts and help are shown.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// practiceLoop drives an exam from line commands. Quitting or end of input pauses the
// exam so the time away is not counted; the next run resumes it with "s".
func practiceLoop(cmd *cobra.Command, a *app, examID string) error {
	s, err := session.Open(a.tracker, a.clock, examID)
	if err != nil {
		return err
	}
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	prompt := interactive(in)
	if prompt {
		fmt.Fprintln(out, appI18n.T(a.ctx, "PracticeHelp"))
	}

	reader := bufio.NewReader(in)
	for !s.Finished() {
		if prompt {
			printSessionLine(out, a, s)
			fmt.Fprint(out, "> ")
		}
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return s.Pause()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		quit, err := practiceStep(s, strings.Fields(line))
		if err != nil {
			if !userError(err) {
				return err
			}
			fmt.Fprintln(out, err)
			continue
		}
		if quit {
			return s.Pause()
		}
	}

	fmt.Fprintln(out, appI18n.T(a.ctx, "ExamFinished"))
	fmt.Fprintf(out, "%s: %s\n", appI18n.T(a.ctx, "ColTotalTime"), fmtDuration(s.Exam().TotalTime))
	return nil
}

// practiceStep applies one command line to the session.
func practiceStep(s *session.Session, fields []string) (quit bool, err error) {
	if len(fields) == 0 {
		return false, nil
	}
	arg := func() (int, error) {
		if len(fields) < 2 {
			return 0, apperrors.NewValidationError("number", "is required", "")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, apperrors.NewValidationError("number", "must be an integer", fields[1])
		}
		return n, nil
	}

	switch fields[0] {
	case "n":
		_, err = s.Next()
	case "p":
		err = s.Previous()
	case "g":
		var n int
		if n, err = arg(); err == nil {
			err = s.Navigate(n)
		}
	case "+":
		err = s.AdjustTime(adjustStep)
	case "-":
		err = s.AdjustTime(-adjustStep)
	case "r":
		var n int
		if n, err = arg(); err == nil {
			err = s.Renumber(n)
		}
	case "s":
		if s.Paused() {
			err = s.Resume()
		} else {
			err = s.Pause()
		}
	case "f":
		err = s.Finish()
	case "q":
		return true, nil
	default:
		err = apperrors.NewValidationError("command", "unknown command", fields[0])
	}
	return false, err
}

func printSessionLine(w io.Writer, a *app, s *session.Session) {
	status := appI18n.Td(a.ctx, "QuestionN", map[string]any{"Number": s.Current().Number})
	if s.Paused() {
		status += " [" + appI18n.T(a.ctx, "Paused") + "]"
	}
	fmt.Fprintf(w, "%s  %s / %s\n", status, fmtDuration(s.QuestionElapsed()), fmtDuration(s.ExamElapsed()))
}

// userError reports whether err is something the user can correct and retry.
func userError(err error) bool {
	return apperrors.IsValidation(err) ||
		errors.Is(err, apperrors.ErrPaused) ||
		errors.Is(err, apperrors.ErrNotFound)
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
