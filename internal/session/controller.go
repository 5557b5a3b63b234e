package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/metrics"
	"github.com/gokatarajesh/codequiz/internal/quiz"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSessionBusy   = errors.New("session is still loading")
)

// Fetcher produces a validated quiz for a config.
type Fetcher interface {
	Fetch(ctx context.Context, cfg quiz.Config, report func(fetch.Status)) (quiz.Set, error)
}

// Options configures controllers created by a Manager.
type Options struct {
	FeedbackDelay  time.Duration
	NoticeDuration time.Duration
	// FetchTimeout bounds a single attempt; zero means no bound.
	FetchTimeout time.Duration
	// Notify receives every snapshot change. It runs with the session lock
	// held and must not call back into the Controller.
	Notify  func(Snapshot)
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.FeedbackDelay <= 0 {
		o.FeedbackDelay = 1200 * time.Millisecond
	}
	if o.NoticeDuration <= 0 {
		o.NoticeDuration = 2 * time.Second
	}
	return o
}

// Controller owns one session. Commands and timer/fetch callbacks are
// serialized by mu; callbacks from a superseded attempt are dropped by epoch.
type Controller struct {
	id      uuid.UUID
	cfg     quiz.Config
	fetcher Fetcher
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time

	mu            sync.Mutex
	state         State
	epoch         uint64
	inFlight      bool
	closed        bool
	cancelFetch   context.CancelFunc
	feedbackTimer *time.Timer
	noticeTimer   *time.Timer
	lastActive    time.Time
}

func NewController(id uuid.UUID, cfg quiz.Config, fetcher Fetcher, opts Options, logger zerolog.Logger) *Controller {
	c := &Controller{
		id:      id,
		cfg:     cfg,
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("component", "quiz_session").Str("session_id", id.String()).Logger(),
		now:     time.Now,
		state:   NewState(),
	}
	c.lastActive = c.now()
	return c
}

func (c *Controller) ID() uuid.UUID       { return c.id }
func (c *Controller) Config() quiz.Config { return c.cfg }

// Start launches a fetch attempt. done runs once the attempt has finished,
// whether it succeeded, failed or was superseded.
func (c *Controller) Start(done func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}
	if c.inFlight {
		return ErrSessionBusy
	}

	c.epoch++
	epoch := c.epoch
	c.stopTimersLocked()
	c.state = NewState()
	c.inFlight = true
	c.lastActive = c.now()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.opts.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancelFetch = cancel
	c.notifyLocked()

	go c.runFetch(ctx, cancel, epoch, done)
	return nil
}

// Restart discards the current state and starts a new attempt.
func (c *Controller) Restart(done func()) error {
	return c.Start(done)
}

func (c *Controller) runFetch(ctx context.Context, cancel context.CancelFunc, epoch uint64, done func()) {
	defer func() {
		cancel()
		if done != nil {
			done()
		}
	}()

	set, err := c.fetcher.Fetch(ctx, c.cfg, func(st fetch.Status) {
		if st.Loading {
			c.dispatchFor(epoch, Progressed{Percent: st.Progress})
		}
	})

	var final Action = Loaded{Quiz: set}
	if err != nil {
		final = Failed{Err: quiz.AsError(err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.logger.Debug().Uint64("epoch", epoch).Msg("stale fetch result dropped")
		return
	}
	c.inFlight = false
	c.cancelFetch = nil
	c.applyLocked(epoch, final)
}

// Select records option as the answer to the current question.
func (c *Controller) Select(option string) (Snapshot, error) {
	return c.dispatch(SelectAnswer{Option: option})
}

// Advance locks the current answer. Feedback is shown for FeedbackDelay
// before the next question (or the summary) appears.
func (c *Controller) Advance() (Snapshot, error) {
	return c.dispatch(Advance{})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newSnapshot(c.id, c.cfg, c.state)
}

// Subscribe hands the current snapshot to fn while holding the session lock,
// so no Notify call can run between fn reading the snapshot and returning.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(newSnapshot(c.id, c.cfg, c.state))
}

// Close stops timers and cancels any running attempt. Later callbacks are
// ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.stopTimersLocked()
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// IdleSince reports when the session last saw a command, and whether an
// attempt is running.
func (c *Controller) IdleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive, c.inFlight
}

func (c *Controller) dispatch(a Action) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newSnapshot(c.id, c.cfg, c.state), ErrSessionClosed
	}
	c.lastActive = c.now()
	err := c.applyLocked(c.epoch, a)
	return newSnapshot(c.id, c.cfg, c.state), err
}

func (c *Controller) dispatchFor(epoch uint64, a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || epoch != c.epoch {
		return
	}
	c.applyLocked(epoch, a)
}

func (c *Controller) applyLocked(epoch uint64, a Action) error {
	prev := c.state
	next, effect, err := Reduce(c.state, a)
	c.state = next

	switch effect {
	case EffectScheduleFeedback:
		c.feedbackTimer = c.scheduleLocked(c.feedbackTimer, epoch, c.opts.FeedbackDelay, FeedbackElapsed{})
	case EffectScheduleNoticeClear:
		c.noticeTimer = c.scheduleLocked(c.noticeTimer, epoch, c.opts.NoticeDuration, NoticeExpired{})
	case EffectCompleted:
		c.opts.Metrics.SessionCompleted(next.Score, len(next.Quiz))
		c.logger.Info().Int("score", next.Score).Int("total", len(next.Quiz)).Msg("quiz completed")
	}

	if changed(prev, next) {
		c.notifyLocked()
	}
	return err
}

func (c *Controller) scheduleLocked(prev *time.Timer, epoch uint64, d time.Duration, a Action) *time.Timer {
	if prev != nil {
		prev.Stop()
	}
	return time.AfterFunc(d, func() { c.dispatchFor(epoch, a) })
}

func (c *Controller) stopTimersLocked() {
	for _, t := range []*time.Timer{c.feedbackTimer, c.noticeTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.feedbackTimer, c.noticeTimer = nil, nil
}

func (c *Controller) notifyLocked() {
	if c.opts.Notify != nil {
		c.opts.Notify(newSnapshot(c.id, c.cfg, c.state))
	}
}

func changed(a, b State) bool {
	if a.Phase != b.Phase || a.Progress != b.Progress || a.Index != b.Index ||
		a.Score != b.Score || a.Notice != b.Notice || a.Err != b.Err || len(a.Answers) != len(b.Answers) {
		return true
	}
	for k, v := range b.Answers {
		if a.Answers[k] != v {
			return true
		}
	}
	return false
}
