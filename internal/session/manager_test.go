package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/metrics"
	"github.com/gokatarajesh/codequiz/internal/quiz"
)

func TestManagerRejectsInvalidConfig(t *testing.T) {
	m := NewManager(newGatedFetcher(), nil, ManagerOptions{}, zerolog.Nop())

	_, err := m.Create(context.Background(), "client", quiz.Config{Mode: quiz.ModeDefault})
	require.Error(t, err)
	assert.Equal(t, quiz.KindConfig, quiz.KindOf(err))
	assert.Zero(t, m.Len())
}

func TestManagerOneAttemptPerClient(t *testing.T) {
	g := newGatedFetcher()
	m := NewManager(g, fetch.NewMemoryGuard(), ManagerOptions{}, zerolog.Nop())
	ctx := context.Background()

	first, err := m.Create(ctx, "client", goBeginner)
	require.NoError(t, err)
	<-g.calls

	_, err = m.Create(ctx, "client", goBeginner)
	assert.ErrorIs(t, err, fetch.ErrAttemptInFlight)

	other, err := m.Create(ctx, "other", goBeginner)
	require.NoError(t, err)
	<-g.calls

	g.replies <- sampleSet("A")
	g.replies <- sampleSet("B")
	waitPhase(t, first, PhaseInProgress)
	waitPhase(t, other, PhaseInProgress)

	require.Eventually(t, func() bool {
		_, err := m.Restart(ctx, first.ID())
		return err == nil
	}, time.Second, 2*time.Millisecond)
	<-g.calls
	assert.Equal(t, PhaseLoading, first.Snapshot().Phase)

	_, err = m.Create(ctx, "client", goBeginner)
	assert.ErrorIs(t, err, fetch.ErrAttemptInFlight)

	g.replies <- sampleSet("C")
	waitPhase(t, first, PhaseInProgress)
}

func TestManagerGetAndDelete(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	f := fetcherFunc(func(context.Context, quiz.Config, func(fetch.Status)) (quiz.Set, error) {
		return sampleSet("A"), nil
	})
	m := NewManager(f, nil, ManagerOptions{Session: Options{Metrics: met}}, zerolog.Nop())

	ctrl, err := m.Create(context.Background(), "client", goBeginner)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.SessionsActive))

	got, err := m.Get(ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)

	require.NoError(t, m.Delete(ctrl.ID()))
	assert.Equal(t, 0.0, testutil.ToFloat64(met.SessionsActive))

	_, err = m.Get(ctrl.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(ctrl.ID()), ErrSessionNotFound)
	_, err = m.Restart(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	f := fetcherFunc(func(context.Context, quiz.Config, func(fetch.Status)) (quiz.Set, error) {
		return sampleSet("A"), nil
	})
	var closed []uuid.UUID
	m := NewManager(f, nil, ManagerOptions{
		IdleTTL: time.Minute,
		OnClose: func(id uuid.UUID) { closed = append(closed, id) },
	}, zerolog.Nop())

	ctrl, err := m.Create(context.Background(), "client", goBeginner)
	require.NoError(t, err)
	waitPhase(t, ctrl, PhaseInProgress)

	assert.Zero(t, m.Sweep())
	assert.Empty(t, closed)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, m.Len())
	assert.Equal(t, []uuid.UUID{ctrl.ID()}, closed)

	_, err = ctrl.Select("A")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestManagerRunClosesSessionsOnShutdown(t *testing.T) {
	g := newGatedFetcher()
	closed := make(chan uuid.UUID, 1)
	m := NewManager(g, nil, ManagerOptions{
		SweepInterval: time.Hour,
		OnClose:       func(id uuid.UUID) { closed <- id },
	}, zerolog.Nop())

	ctrl, err := m.Create(context.Background(), "client", goBeginner)
	require.NoError(t, err)
	<-g.calls

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()
	cancel()

	require.NoError(t, <-errCh)
	assert.Zero(t, m.Len())
	assert.Equal(t, ctrl.ID(), <-closed)
	_, err = ctrl.Advance()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
