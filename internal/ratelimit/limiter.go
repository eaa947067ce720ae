package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/logger"
)

const (
	DEFAULT_REDIS_KEY_PREFIX = "ff-chain-events:ratelimit:"
	DEFAULT_IDLE_TTL         = 10 * time.Minute
	HEALTH_CHECK_INTERVAL    = 10 * time.Second
)

// Config holds the per-key rate limit settings
type Config struct {
	RequestsPerSecond float64
	Burst             int
	RedisKeyPrefix    string
	// IdleTTL is how long the local limiter of an idle key is kept
	IdleTTL time.Duration
}

// Limiter rate limits requests per key, typically the client IP
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit_limiter.go -package=mocks -mock_names=Limiter=MockLimiter
type Limiter interface {
	// Allow reports whether a request for key may proceed. When it may not,
	// retryAfter is how long the caller should wait
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	// Close stops the background health check
	Close()
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiter uses the distributed Redis limiter while Redis is reachable and
// a per-process token bucket per key otherwise
type limiter struct {
	cfg         Config
	redisLimit  redis_rate.Limit
	redis       adapter.RedisClient
	distributed adapter.RedisRateLimiter
	clock       adapter.Clock

	redisAvailable atomic.Bool

	mu        sync.Mutex
	local     map[string]*localLimiter
	lastSweep time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewLimiter creates a limiter. redisClient may be nil for a process-local limiter
func NewLimiter(cfg Config, redisClient adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive")
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RequestsPerSecond))
	}
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = DEFAULT_REDIS_KEY_PREFIX
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DEFAULT_IDLE_TTL
	}

	l := &limiter{
		cfg:        cfg,
		redisLimit: redisLimit(cfg),
		redis:      redisClient,
		clock:      clock,
		local:      make(map[string]*localLimiter),
		lastSweep:  clock.Now(),
		stop:       make(chan struct{}),
	}

	if redisClient != nil {
		l.distributed = redisClient.NewRateLimiter()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, rate limiting locally", zap.Error(err))
		} else {
			l.redisAvailable.Store(true)
		}

		go l.monitorRedisHealth()
	}

	logger.Info("Rate limiter initialized",
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst),
		zap.Bool("distributed", l.redisAvailable.Load()))

	return l, nil
}

// redisLimit converts a possibly fractional rate into a redis_rate limit
func redisLimit(cfg Config) redis_rate.Limit {
	if cfg.RequestsPerSecond >= 1 {
		return redis_rate.Limit{
			Rate:   int(cfg.RequestsPerSecond),
			Burst:  cfg.Burst,
			Period: time.Second,
		}
	}
	return redis_rate.Limit{
		Rate:   1,
		Burst:  cfg.Burst,
		Period: time.Duration(float64(time.Second) / cfg.RequestsPerSecond),
	}
}

func (l *limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.redisAvailable.Load() {
		res, err := l.distributed.Allow(ctx, l.cfg.RedisKeyPrefix+key, l.redisLimit)
		if err == nil {
			if res.Allowed > 0 {
				return true, 0, nil
			}
			return false, res.RetryAfter, nil
		}
		if ctx.Err() != nil {
			return false, 0, ctx.Err()
		}

		l.redisAvailable.Store(false)
		logger.Warn("Redis rate limiter error, falling back to local", zap.Error(err))
	}

	return l.allowLocal(key)
}

func (l *limiter) allowLocal(key string) (bool, time.Duration, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	entry, ok := l.local[key]
	if !ok {
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.local[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops the local limiters of idle keys. Must be called with mu held
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	for key, entry := range l.local {
		if now.Sub(entry.lastSeen) >= l.cfg.IdleTTL {
			delete(l.local, key)
		}
	}
	l.lastSweep = now
}

func (l *limiter) monitorRedisHealth() {
	ticker := l.clock.NewTicker(HEALTH_CHECK_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx)
		cancel()

		available := err == nil
		if was := l.redisAvailable.Swap(available); !was && available {
			logger.Info("Redis connection restored, rate limiting is distributed again")
		}
	}
}

func (l *limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stop)
	})
}
