package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var quizID, preset string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if preset != "" {
				cfg.Policy = config.PolicyConfig{Preset: preset}
			}
			if quizID == "" {
				quizID = cfg.Quiz.Default
			}
			if quizID == "" {
				quizID = "general"
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := connectBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			// the terminal belongs to the player; keep service logs out of it
			service, err := buildService(cfg, b, zap.NewNop())
			if err != nil {
				return err
			}
			return runPlay(ctx, service, quizID, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id to play (defaults to quiz.default)")
	cmd.Flags().StringVar(&preset, "policy", "", "policy preset: strict, practice or timed")
	return cmd
}

func runPlay(ctx context.Context, service *app.QuizService, quizID string, in io.Reader, out io.Writer) error {
	sessionID, _, err := service.Start(ctx, quizID)
	if err != nil {
		return err
	}
	defer service.End(ctx, sessionID)

	lines := bufio.NewScanner(in)
	for {
		snap, err := service.Snapshot(ctx, sessionID)
		if err != nil {
			return err
		}

		if snap.Completed {
			fmt.Fprintf(out, "\n%s\nYour score: %d out of %d (%d%%)\n", snap.ResultMessage, snap.Score, snap.Total, snap.Percent)
			fmt.Fprint(out, "[r]estart or [q]uit: ")
			if !lines.Scan() {
				return lines.Err()
			}
			switch strings.TrimSpace(lines.Text()) {
			case "r":
				_, _ = service.Restart(ctx, sessionID)
			case "q":
				return nil
			}
			continue
		}

		renderQuestion(out, snap)
		fmt.Fprint(out, prompt(snap))
		if !lines.Scan() {
			return lines.Err()
		}
		input := strings.TrimSpace(lines.Text())

		switch {
		case input == "q":
			return nil
		case input == "n":
			if _, err := service.Advance(ctx, sessionID); errors.Is(err, domain.ErrInvalidState) {
				fmt.Fprintln(out, "Answer the question first.")
			}
		case input == "r":
			snap, err := service.Retry(ctx, sessionID)
			if errors.Is(err, domain.ErrInvalidState) {
				switch {
				case snap.Locked && snap.LockedUntil != nil:
					fmt.Fprintf(out, "Options are locked for another %s.\n", time.Until(*snap.LockedUntil).Round(100*time.Millisecond))
				case snap.CanSelect:
					// the lock already expired and re-enabled the options
				default:
					fmt.Fprintln(out, "Retry is not available.")
				}
			}
		default:
			n, convErr := strconv.Atoi(input)
			if convErr != nil || snap.Question == nil || n < 1 || n > len(snap.Question.Options) {
				fmt.Fprintln(out, "Unrecognised input.")
				continue
			}
			if _, err := service.Select(ctx, sessionID, snap.Question.Options[n-1]); err != nil {
				fmt.Fprintln(out, "Options are locked until you continue.")
				continue
			}
			sub, after, err := service.Submit(ctx, sessionID)
			if err != nil {
				continue
			}
			renderFeedback(out, sub, after)
		}
	}
}

func renderQuestion(out io.Writer, snap domain.Snapshot) {
	var bar strings.Builder
	for _, r := range snap.Results {
		switch r {
		case domain.Correct:
			bar.WriteString("[+]")
		case domain.Incorrect:
			bar.WriteString("[x]")
		default:
			bar.WriteString("[ ]")
		}
	}
	fmt.Fprintf(out, "\n%s  %d / %d\n", bar.String(), snap.Index+1, snap.Total)
	if snap.Question == nil {
		return
	}
	fmt.Fprintln(out, snap.Question.Text)
	if snap.Question.Code != "" {
		fmt.Fprintf(out, "    %s\n", snap.Question.Code)
	}
	for i, opt := range snap.Question.Options {
		marker := " "
		if opt == snap.Selected {
			marker = "*"
		}
		fmt.Fprintf(out, " %s%d) %s\n", marker, i+1, opt)
	}
}

func renderFeedback(out io.Writer, sub domain.Submission, snap domain.Snapshot) {
	if sub.Correct {
		fmt.Fprintf(out, "%s *confetti*\n", sub.Feedback.Badge)
		return
	}
	fmt.Fprintf(out, "%s That's not quite right. *shake*\n", sub.Feedback.Badge)
	if snap.Hint != "" {
		fmt.Fprintf(out, "Hint: %s\n", snap.Hint)
	}
}

func prompt(snap domain.Snapshot) string {
	switch {
	case snap.CanSelect:
		return fmt.Sprintf("Choose 1-%d ([q]uit): ", len(snap.Question.Options))
	case snap.CanRetry:
		return "[r]etry, [n]ext or [q]uit: "
	case snap.Locked:
		return "[n]ext, [r]etry once unlocked, or [q]uit: "
	default:
		return "[n]ext or [q]uit: "
	}
}
