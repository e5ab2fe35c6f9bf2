package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"relay/pkg/metrics"
)

// Limiter is a process-wide token bucket shared by every outbound send.
// The bucket holds a single token, so permits are evenly spaced 1/PerSecond
// apart and no rolling one-second window ever sees more than PerSecond.
type Limiter struct {
	limiter   *rate.Limiter
	perSecond int
}

type Config struct {
	PerSecond int
}

func DefaultConfig() Config {
	return Config{
		PerSecond: 25,
	}
}

func New(cfg Config) (*Limiter, error) {
	if cfg.PerSecond <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", cfg.PerSecond)
	}
	return &Limiter{
		limiter:   rate.NewLimiter(rate.Limit(cfg.PerSecond), 1),
		perSecond: cfg.PerSecond,
	}, nil
}

// Wait blocks until a permit is available or ctx is done. It is safe for
// concurrent use; each successful call consumes exactly one permit.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := l.limiter.Wait(ctx)
	metrics.ObserveRateLimitWait(time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (l *Limiter) PerSecond() int {
	return l.perSecond
}
