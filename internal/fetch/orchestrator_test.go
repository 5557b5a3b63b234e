package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/codequiz/internal/metrics"
	"github.com/gokatarajesh/codequiz/internal/quiz"
)

type mockGenerator struct {
	mock.Mock
	delay time.Duration
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type statusRecorder struct {
	mu     sync.Mutex
	status []Status
}

func (r *statusRecorder) report(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, s)
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.status...)
}

func quizReply(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"question":"Q%d","options":["A. a","B. b","C. c","D. d"],"correctAnswer":"A"}`, i+1))
	}
	return "Here is your quiz!\n```json\n[" + strings.Join(items, ",") + "]\n```\nEnjoy."
}

var pythonBeginner = quiz.Config{Language: "Python", Difficulty: quiz.DifficultyBeginner, Mode: quiz.ModeDefault}

func newTestOrchestrator(gen *mockGenerator, m *metrics.Metrics, tick time.Duration) *Orchestrator {
	return NewOrchestrator(gen, m, Options{TickInterval: tick, Intn: func(int) int { return 9 }}, zerolog.Nop())
}

func TestFetchSuccess(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, quiz.BuildPrompt(pythonBeginner)).Return(quizReply(5), nil).Once()
	m := metrics.New(prometheus.NewRegistry())
	rec := &statusRecorder{}

	set, err := newTestOrchestrator(gen, m, time.Hour).Fetch(context.Background(), pythonBeginner, rec.report)
	require.NoError(t, err)
	assert.Len(t, set, 5)
	gen.AssertExpectations(t)

	status := rec.all()
	require.NotEmpty(t, status)
	assert.Equal(t, Status{Loading: true}, status[0])
	last := status[len(status)-1]
	assert.False(t, last.Loading)
	assert.Equal(t, 100, last.Progress)
	assert.Nil(t, last.Err)
	assert.Len(t, last.Quiz, 5)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("ok")))
}

func TestFetchTransportError(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", &quiz.Error{
		Kind:    quiz.KindTransport,
		Status:  429,
		Message: "API error: 429 - Resource has been exhausted",
	}).Once()
	rec := &statusRecorder{}

	set, err := newTestOrchestrator(gen, nil, time.Hour).Fetch(context.Background(), pythonBeginner, rec.report)
	assert.Nil(t, set)
	require.Error(t, err)
	assert.Equal(t, quiz.KindTransport, quiz.KindOf(err))
	assert.Contains(t, err.Error(), "429")

	last := rec.all()[len(rec.all())-1]
	assert.False(t, last.Loading)
	require.NotNil(t, last.Err)
	assert.Equal(t, 429, last.Err.Status)
}

func TestFetchNoJSONIsParseError(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("I cannot help with that request.", nil).Once()

	_, err := newTestOrchestrator(gen, nil, time.Hour).Fetch(context.Background(), pythonBeginner, nil)
	require.Error(t, err)
	assert.Equal(t, quiz.KindParse, quiz.KindOf(err))
	assert.Equal(t, "I cannot help with that request.", quiz.AsError(err).Detail)
}

func TestFetchDistinguishesStructureAndEmpty(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("```json\n[]\n```", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(`[{"question":"q","options":["A"],"correctAnswer":"A"}]`, nil).Once()
	orch := newTestOrchestrator(gen, nil, time.Hour)

	_, err := orch.Fetch(context.Background(), pythonBeginner, nil)
	assert.ErrorIs(t, err, quiz.ErrEmptyQuiz)

	_, err = orch.Fetch(context.Background(), pythonBeginner, nil)
	assert.ErrorIs(t, err, quiz.ErrBadOptions)
	assert.Equal(t, quiz.KindStructure, quiz.KindOf(err))
}

func TestFetchRejectsConfigWithoutCalling(t *testing.T) {
	gen := &mockGenerator{}
	m := metrics.New(prometheus.NewRegistry())
	rec := &statusRecorder{}

	_, err := newTestOrchestrator(gen, m, time.Hour).Fetch(context.Background(),
		quiz.Config{Language: "Go", Difficulty: quiz.DifficultyBeginner, Mode: quiz.ModePrompt}, rec.report)
	require.Error(t, err)
	assert.Equal(t, quiz.KindConfig, quiz.KindOf(err))
	assert.Contains(t, err.Error(), "topic")
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationAttempts.WithLabelValues("config")))
	var sample dto.Metric
	require.NoError(t, m.GenerationDuration.Write(&sample))
	assert.Zero(t, sample.GetHistogram().GetSampleCount())

	status := rec.all()
	require.Len(t, status, 1)
	assert.False(t, status[0].Loading)
}

func TestFetchProgressStaysBelowNinety(t *testing.T) {
	gen := &mockGenerator{delay: 80 * time.Millisecond}
	gen.On("Generate", mock.Anything, mock.Anything).Return(quizReply(1), nil).Once()
	rec := &statusRecorder{}

	_, err := newTestOrchestrator(gen, nil, time.Millisecond).Fetch(context.Background(), pythonBeginner, rec.report)
	require.NoError(t, err)

	status := rec.all()
	hundred := -1
	prev := 0
	for i, s := range status {
		if s.Progress == 100 {
			if hundred < 0 {
				hundred = i
			}
			continue
		}
		assert.Less(t, s.Progress, 90)
		assert.GreaterOrEqual(t, s.Progress, prev)
		prev = s.Progress
		assert.Equal(t, -1, hundred, "tick reported after completion")
	}
	assert.Equal(t, progressCeiling, prev)
}
