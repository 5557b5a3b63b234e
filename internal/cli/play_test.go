package cli

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/quiz"
	"github.com/gokatarajesh/codequiz/internal/session"
)

type fetcherFunc func(ctx context.Context, cfg quiz.Config, report func(fetch.Status)) (quiz.Set, error)

func (f fetcherFunc) Fetch(ctx context.Context, cfg quiz.Config, report func(fetch.Status)) (quiz.Set, error) {
	return f(ctx, cfg, report)
}

var goQuiz = quiz.Config{Language: "Go", Difficulty: quiz.DifficultyBeginner, Mode: quiz.ModeDefault}

func playOptions() session.Options {
	return session.Options{FeedbackDelay: 150 * time.Millisecond, NoticeDuration: time.Second}
}

func runPlay(t *testing.T, f session.Fetcher, input string) string {
	t.Helper()
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := Play(ctx, f, goQuiz, playOptions(), strings.NewReader(input), &out, zerolog.Nop())
	require.NoError(t, err)
	return out.String()
}

func TestPlayFullQuiz(t *testing.T) {
	f := fetcherFunc(func(_ context.Context, _ quiz.Config, report func(fetch.Status)) (quiz.Set, error) {
		report(fetch.Status{Loading: true, Progress: 40})
		return quiz.Set{
			{Question: "Which keyword starts a goroutine?", Options: []string{"A. go", "B. async", "C. spawn", "D. thread"}, CorrectAnswer: "A"},
			{Question: "Zero value of a map?", Options: []string{"A. {}", "B. nil", "C. 0", "D. empty"}, CorrectAnswer: "B"},
		}, nil
	})

	out := runPlay(t, f, "\na\nB\nn\n")

	assert.Contains(t, out, "Default Quiz: Go - Beginner")
	assert.Contains(t, out, "Question 1 of 2")
	assert.Contains(t, out, session.NoticeSelectFirst)
	assert.Contains(t, out, "Correct!")
	assert.Contains(t, out, "Score: 2/2. Perfect!")
	assert.Contains(t, out, "Play again? [y/N]")
}

func TestPlayReportsFailureAndRetries(t *testing.T) {
	var calls atomic.Int32
	f := fetcherFunc(func(context.Context, quiz.Config, func(fetch.Status)) (quiz.Set, error) {
		if calls.Add(1) == 1 {
			return nil, &quiz.Error{Kind: quiz.KindTransport, Status: 429, Message: "API error: 429 - Resource has been exhausted"}
		}
		return quiz.Set{
			{Question: "Q?", Options: []string{"A. a", "B. b", "C. c", "D. d"}, CorrectAnswer: "C"},
		}, nil
	})

	out := runPlay(t, f, "y\nA\nn\n")

	assert.Contains(t, out, "Failed to load quiz: API error: 429 - Resource has been exhausted")
	assert.Contains(t, out, "Try again? [y/N]")
	assert.Contains(t, out, "Incorrect. The correct answer was C: C. c")
	assert.Contains(t, out, "Score: 0/1. Keep practicing!")
	assert.Equal(t, int32(2), calls.Load())
}

func TestPlayRejectsUnknownLetter(t *testing.T) {
	f := fetcherFunc(func(context.Context, quiz.Config, func(fetch.Status)) (quiz.Set, error) {
		return quiz.Set{
			{Question: "Q?", Options: []string{"A. a", "B. b", "C. c", "D. d"}, CorrectAnswer: "D"},
		}, nil
	})

	out := runPlay(t, f, "E\nD\n")
	assert.Contains(t, out, "Please choose A, B, C or D.")
	assert.Contains(t, out, "Score: 1/1. Perfect!")
}

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := make([]string, 0, 2)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "play")
}
