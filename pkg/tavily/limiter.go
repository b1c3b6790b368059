package tavily

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiter paces requests to the API. It backs off by half on 429 and
// recovers by 20% per success, never above the configured rate or below a
// quarter of it.
type limiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

func newLimiter(perSec float64) *limiter {
	r := rate.Limit(perSec)
	if perSec <= 0 {
		r = rate.Inf
	}
	return &limiter{
		limiter:     rate.NewLimiter(r, 1),
		maxRate:     r,
		minRate:     r / 4,
		currentRate: r,
	}
}

// Wait blocks until the limiter allows a request.
func (l *limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *limiter) onSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentRate == rate.Inf || l.currentRate >= l.maxRate {
		return
	}
	next := l.currentRate * 1.2
	if next > l.maxRate {
		next = l.maxRate
	}
	l.currentRate = next
	l.limiter.SetLimit(next)
}

func (l *limiter) onRateLimit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentRate == rate.Inf {
		return
	}
	next := l.currentRate * 0.5
	if next < l.minRate {
		next = l.minRate
	}
	l.currentRate = next
	l.limiter.SetLimit(next)
	zap.L().Warn("tavily: reducing request rate after 429",
		zap.Float64("new_rate", float64(next)),
	)
}

// Limit returns the current rate limit.
func (l *limiter) Limit() rate.Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentRate
}
