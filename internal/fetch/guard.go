package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrAttemptInFlight is returned when the same client already has a
// generation running.
var ErrAttemptInFlight = errors.New("a quiz is already being generated for this client")

// Guard allows at most one in-flight attempt per key.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, ErrAttemptInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// unlockScript deletes the key only if we still own it.
const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// RedisGuard shares the in-flight lock across replicas. The TTL bounds how
// long a crashed holder can block its client.
type RedisGuard struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "attempt_guard").Logger(),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("quiz:attempt:%s", key)
	lockValue := uuid.NewString()

	acquired, err := g.redis.SetNX(ctx, lockKey, lockValue, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	if !acquired {
		return nil, ErrAttemptInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := g.redis.Eval(releaseCtx, unlockScript, []string{lockKey}, lockValue).Err(); err != nil {
				g.logger.Warn().Err(err).Str("key", lockKey).Msg("release attempt lock failed")
			}
		})
	}, nil
}
