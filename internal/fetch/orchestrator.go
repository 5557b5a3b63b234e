package fetch

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/metrics"
	"github.com/gokatarajesh/codequiz/internal/quiz"
	"github.com/gokatarajesh/codequiz/internal/quiz/ai"
)

// progressCeiling is the highest value the synthetic ticker may report.
const progressCeiling = 89

// Status is the orchestrator's view of one attempt.
type Status struct {
	Loading  bool
	Progress int
	Err      *quiz.Error
	Quiz     quiz.Set
}

// Options tunes the synthetic progress ticker.
type Options struct {
	TickInterval time.Duration
	// Intn returns a value in [0, n); defaults to math/rand/v2.
	Intn func(n int) int
}

// Orchestrator runs one generation attempt end to end:
// prompt -> generator -> extractor -> validator.
type Orchestrator struct {
	generator ai.Generator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	tick      time.Duration
	intn      func(int) int
}

func NewOrchestrator(generator ai.Generator, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Orchestrator {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	intn := opts.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return &Orchestrator{
		generator: generator,
		metrics:   m,
		logger:    logger.With().Str("component", "quiz_fetch").Logger(),
		tick:      tick,
		intn:      intn,
	}
}

// Fetch validates cfg, makes exactly one generator call and turns its reply
// into a quiz.Set. report receives every status change; the last report always
// has Loading=false. Errors are *quiz.Error.
func (o *Orchestrator) Fetch(ctx context.Context, cfg quiz.Config, report func(Status)) (quiz.Set, error) {
	if report == nil {
		report = func(Status) {}
	}

	if err := cfg.Validate(); err != nil {
		qe := quiz.AsError(err)
		o.metrics.RejectAttempt(string(qe.Kind))
		report(Status{Err: qe})
		return nil, qe
	}

	tracker := &progressTracker{report: report, intn: o.intn}
	report(Status{Loading: true})
	stop := tracker.run(ctx, o.tick)

	started := time.Now()
	raw, err := o.generator.Generate(ctx, quiz.BuildPrompt(cfg))
	stop()
	report(Status{Loading: true, Progress: 100})

	var set quiz.Set
	if err == nil {
		set, err = o.ingest(raw)
	}
	elapsed := time.Since(started)

	if err != nil {
		qe := quiz.AsError(err)
		o.metrics.ObserveGeneration(string(qe.Kind), elapsed)
		o.logger.Warn().
			Err(qe).
			Str("kind", string(qe.Kind)).
			Int("status", qe.Status).
			Str("language", cfg.Language).
			Dur("elapsed", elapsed).
			Msg("quiz generation failed")
		report(Status{Progress: 100, Err: qe})
		return nil, qe
	}

	o.metrics.ObserveGeneration("ok", elapsed)
	o.logger.Info().
		Int("questions", len(set)).
		Str("language", cfg.Language).
		Str("difficulty", string(cfg.Difficulty)).
		Dur("elapsed", elapsed).
		Msg("quiz generated")
	report(Status{Progress: 100, Quiz: set})
	return set, nil
}

func (o *Orchestrator) ingest(raw string) (quiz.Set, error) {
	o.logger.Debug().Str("raw", raw).Msg("raw generator output")

	text := quiz.ExtractJSON(raw)
	parsed, err := quiz.ParseJSON(text)
	if err != nil {
		o.logger.Warn().Err(err).Str("text", text).Msg("problematic quiz JSON")
		return nil, err
	}
	return quiz.Validate(parsed)
}

type progressTracker struct {
	mu      sync.Mutex
	value   int
	stopped bool
	report  func(Status)
	intn    func(int) int
}

// run ticks until the returned stop func is called. stop does not wait for the
// goroutine, but no tick is reported after it returns.
func (p *progressTracker) run(ctx context.Context, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.step()
			}
		}
	}()

	return func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		cancel()
	}
}

func (p *progressTracker) step() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.value >= progressCeiling {
		return
	}
	p.value += p.intn(10) + 1
	if p.value > progressCeiling {
		p.value = progressCeiling
	}
	p.report(Status{Loading: true, Progress: p.value})
}
