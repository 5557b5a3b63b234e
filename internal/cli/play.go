package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/codequiz/internal/app"
	"github.com/gokatarajesh/codequiz/internal/config"
	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/logging"
	"github.com/gokatarajesh/codequiz/internal/quiz"
	"github.com/gokatarajesh/codequiz/internal/quiz/ai"
	"github.com/gokatarajesh/codequiz/internal/session"
)

// NewPlayCmd builds the subcommand that runs one quiz in the terminal.
func NewPlayCmd() *cobra.Command {
	var qc quiz.Config
	var difficulty, mode string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a generated quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			qc.Difficulty = quiz.Difficulty(difficulty)
			qc.Mode = quiz.Mode(mode)
			if err := qc.Validate(); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Name, cfg.Env, cfg.LogLevel)

			generator, err := ai.New(app.AIConfig(cfg.AI), logger)
			if err != nil {
				return err
			}
			orchestrator := fetch.NewOrchestrator(generator, nil, fetch.Options{TickInterval: cfg.Quiz.ProgressTick}, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := session.Options{
				FeedbackDelay:  cfg.Quiz.FeedbackDelay,
				NoticeDuration: cfg.Quiz.NoticeDuration,
				FetchTimeout:   cfg.Quiz.FetchTimeout,
			}
			return Play(ctx, orchestrator, qc, opts, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&qc.Language, "language", "", "programming language, e.g. Go")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(quiz.DifficultyBeginner), "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&mode, "mode", string(quiz.ModeDefault), "default or prompt")
	cmd.Flags().StringVar(&qc.Topic, "topic", "", "free-text topic (prompt mode)")
	return cmd
}

// Play drives one session from a line-oriented terminal until the player
// quits, input ends or ctx is cancelled.
func Play(ctx context.Context, fetcher session.Fetcher, qc quiz.Config, opts session.Options, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	changed := make(chan struct{}, 1)
	opts.Notify = func(session.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	ctrl := session.NewController(uuid.New(), qc, fetcher, opts, logger)
	defer ctrl.Close()

	t := &terminal{ctrl: ctrl, in: bufio.NewScanner(in), out: out, asked: -1, shown: -1, progress: -1}
	if err := ctrl.Start(nil); err != nil {
		return err
	}
	fmt.Fprintln(out, qc.Title())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}

		done, err := t.step(ctrl.Snapshot())
		if err != nil || done {
			return err
		}
	}
}

type terminal struct {
	ctrl     *session.Controller
	in       *bufio.Scanner
	out      io.Writer
	asked    int
	shown    int
	progress int
}

// step renders snap and, when input is needed, reads it. It reports true
// once the player is finished.
func (t *terminal) step(snap session.Snapshot) (bool, error) {
	switch snap.Phase {
	case session.PhaseLoading:
		if snap.Progress != t.progress {
			t.progress = snap.Progress
			fmt.Fprintf(t.out, "%s... %d%%\n", snap.LoadingText, snap.Progress)
		}

	case session.PhaseInProgress:
		if t.asked == snap.CurrentIndex {
			return false, nil
		}
		t.asked = snap.CurrentIndex
		t.printQuestion(snap)
		return t.answer()

	case session.PhaseFeedback:
		if t.shown == snap.CurrentIndex || snap.Feedback == nil {
			return false, nil
		}
		t.shown = snap.CurrentIndex
		if snap.Feedback.Correct {
			fmt.Fprintln(t.out, "Correct!")
		} else {
			fmt.Fprintf(t.out, "Incorrect. The correct answer was %s: %s\n", snap.Feedback.CorrectAnswer, snap.Feedback.CorrectOption)
		}

	case session.PhaseCompleted:
		t.printReview(snap.Review)
		return t.offerRestart("Play again?")

	case session.PhaseErrored:
		if snap.Error != nil {
			fmt.Fprintln(t.out, snap.Error.Message)
		}
		return t.offerRestart("Try again?")
	}
	return false, nil
}

func (t *terminal) printQuestion(snap session.Snapshot) {
	fmt.Fprintf(t.out, "\n%s\n%s\n", snap.Counter, snap.CurrentQuestion.Question)
	for _, opt := range snap.CurrentQuestion.Options {
		fmt.Fprintf(t.out, "  %s\n", opt)
	}
}

func (t *terminal) answer() (bool, error) {
	for {
		fmt.Fprint(t.out, "Your answer (A-D): ")
		line, ok := t.readLine()
		if !ok {
			return true, nil
		}
		if line == "" {
			if _, err := t.ctrl.Advance(); err != nil {
				fmt.Fprintln(t.out, quiz.AsError(err).Message)
			}
			continue
		}
		if _, err := t.ctrl.Select(line); err != nil {
			fmt.Fprintln(t.out, "Please choose A, B, C or D.")
			continue
		}
		if _, err := t.ctrl.Advance(); err != nil {
			return false, err
		}
		return false, nil
	}
}

func (t *terminal) printReview(review *session.Summary) {
	if review == nil {
		return
	}
	fmt.Fprintf(t.out, "\nQuiz complete! Score: %d/%d. %s\n", review.Score, review.Total, review.Verdict)
	for _, item := range review.Items {
		mark := "x"
		if item.Correct {
			mark = "ok"
		}
		chosen := item.Chosen
		if chosen == "" {
			chosen = "-"
		}
		fmt.Fprintf(t.out, "[%s] %d. %s (yours: %s, correct: %s)\n", mark, item.Index+1, item.Question, chosen, item.CorrectAnswer)
	}
}

func (t *terminal) offerRestart(prompt string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	line, ok := t.readLine()
	if !ok || !strings.EqualFold(line, "y") {
		return true, nil
	}
	t.asked, t.shown, t.progress = -1, -1, -1
	if err := t.ctrl.Restart(nil); err != nil {
		return false, err
	}
	return false, nil
}

func (t *terminal) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}
