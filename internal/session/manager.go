package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/fetch"
	"github.com/gokatarajesh/codequiz/internal/quiz"
)

var ErrSessionNotFound = errors.New("session not found")

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Session Options
	// IdleTTL is how long an untouched session is kept; zero keeps sessions
	// until deleted.
	IdleTTL       time.Duration
	SweepInterval time.Duration
	// OnClose runs after a session is removed, whether deleted, swept or
	// closed at shutdown.
	OnClose func(id uuid.UUID)
}

type entry struct {
	ctrl      *Controller
	clientKey string
}

// Manager keeps the live sessions of this process and enforces one running
// generation per client through a fetch.Guard.
type Manager struct {
	fetcher Fetcher
	guard   fetch.Guard
	opts    ManagerOptions
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

func NewManager(fetcher Fetcher, guard fetch.Guard, opts ManagerOptions, logger zerolog.Logger) *Manager {
	if guard == nil {
		guard = fetch.NewMemoryGuard()
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &Manager{
		fetcher:  fetcher,
		guard:    guard,
		opts:     opts,
		logger:   logger.With().Str("component", "session_manager").Logger(),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Create validates cfg, registers a new session and starts its first fetch.
func (m *Manager) Create(ctx context.Context, clientKey string, cfg quiz.Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	release, err := m.guard.Acquire(ctx, clientKey)
	if err != nil {
		return nil, err
	}

	ctrl := NewController(uuid.New(), cfg, m.fetcher, m.opts.Session, m.logger)
	if err := ctrl.Start(release); err != nil {
		release()
		return nil, fmt.Errorf("start session: %w", err)
	}

	m.mu.Lock()
	m.sessions[ctrl.ID()] = &entry{ctrl: ctrl, clientKey: clientKey}
	m.mu.Unlock()

	m.opts.Session.Metrics.SessionOpened()
	m.logger.Info().
		Str("session_id", ctrl.ID().String()).
		Str("language", cfg.Language).
		Str("difficulty", string(cfg.Difficulty)).
		Str("mode", string(cfg.Mode)).
		Msg("session created")
	return ctrl, nil
}

func (m *Manager) Get(id uuid.UUID) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.ctrl, nil
}

// Restart re-runs generation for an existing session with its original
// config.
func (m *Manager) Restart(ctx context.Context, id uuid.UUID) (*Controller, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	release, err := m.guard.Acquire(ctx, e.clientKey)
	if err != nil {
		return nil, err
	}
	if err := e.ctrl.Restart(release); err != nil {
		release()
		return nil, err
	}
	m.logger.Info().Str("session_id", id.String()).Msg("session restarted")
	return e.ctrl, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.release(id, e)
	return nil
}

func (m *Manager) release(id uuid.UUID, e *entry) {
	e.ctrl.Close()
	m.opts.Session.Metrics.SessionClosed()
	if m.opts.OnClose != nil {
		m.opts.OnClose(id)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than IdleTTL and returns how many
// were removed. Sessions with a running attempt are kept.
func (m *Manager) Sweep() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTTL)

	var stale []uuid.UUID
	m.mu.RLock()
	for id, e := range m.sessions {
		last, busy := e.ctrl.IdleSince()
		if !busy && last.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if m.Delete(id) == nil {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("idle sessions swept")
	}
	return removed
}

// Run sweeps idle sessions until ctx is cancelled, then closes every
// remaining session.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for id, e := range sessions {
		m.release(id, e)
	}
}
