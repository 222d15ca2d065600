// Package ratelimit enforces each provider's configured requests-per-
// minute budget. It generalizes the per-IP token-bucket visitor map
// pattern into a per-provider-id map, since providers (not callers) are
// the resource whose budget is exhausted.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/axgate/llmgw/pkg/safego"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces rpm_limit per provider id. A provider configured with
// rpm_limit == 0 is never throttled: TryAcquire always reports true for
// it and no visitor entry is created.
type Limiter struct {
	mu       sync.Mutex
	visitors map[uint]*visitor
	logger   *zap.Logger
}

// NewLimiter starts the limiter and its background visitor-cleanup loop.
// stop, when closed, ends the cleanup goroutine.
func NewLimiter(logger *zap.Logger, stop <-chan struct{}) *Limiter {
	l := &Limiter{
		visitors: make(map[uint]*visitor),
		logger:   logger,
	}
	safego.Go(logger, "ratelimit-cleanup", func() { l.cleanupLoop(stop) })
	return l
}

func (l *Limiter) cleanupLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for id, v := range l.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(l.visitors, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// TryAcquire reports whether a call to providerID is allowed right now
// under its rpm_limit, tuned so the sustained rate approximates
// rpmLimit/60 requests per second with a one-second burst allowance.
// rpmLimit <= 0 means unlimited.
func (l *Limiter) TryAcquire(providerID uint, rpmLimit int) bool {
	if rpmLimit <= 0 {
		return true
	}

	l.mu.Lock()
	v, ok := l.visitors[providerID]
	if !ok {
		rps := float64(rpmLimit) / 60.0
		burst := rpmLimit / 60
		if burst < 1 {
			burst = 1
		}
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		l.visitors[providerID] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow()
}
