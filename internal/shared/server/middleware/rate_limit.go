package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"portal-web/internal/shared/metrics"
	"portal-web/internal/shared/server/respond"
	"portal-web/internal/shared/telemetry"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	// LoginRateLimitGroup throttles credential endpoints per client address.
	LoginRateLimitGroup = "LOGIN"
)

// RateLimitRule is a token bucket refilled at Rate tokens per second up to Burst.
// A rule with a non-positive Rate or Burst never throttles.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) disabled() bool { return r.Rate <= 0 || r.Burst <= 0 }

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter holds one token bucket per principal and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{buckets: make(map[string]*rateBucket), now: now}
}

// RateLimit throttles requests per principal and group. Requests whose group has no rule
// pass through. Credential requests are keyed by client address, everything else by the
// signed-in user when there is one.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		d := cfg.Limiter.Allow(principalFor(c, group)+"|"+group, rule)
		if d.Allowed {
			c.Next()
			return
		}
		metrics.IncRateLimited(group)
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later", gin.H{
			"retryAfterMs": d.RetryAfter.Milliseconds(),
			"group":        group,
		})
	}
}

func principalFor(c *gin.Context, group string) string {
	if group != LoginRateLimitGroup {
		if id := strings.TrimSpace(UserIDFromContext(c)); id != "" {
			return id
		}
	}
	return strings.TrimSpace(c.ClientIP())
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Allow takes one token from the bucket for key.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) Decision {
	if l == nil || rule.disabled() {
		return Decision{Allowed: true}
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.Rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true}
	}
	wait := math.Ceil((1-b.tokens)/rule.Rate*1000) * float64(time.Millisecond)
	retry := time.Duration(wait)
	if retry <= 0 {
		retry = time.Second
	}
	return Decision{RetryAfter: retry}
}

// Prune drops buckets untouched for longer than idle. A dropped bucket starts full on its
// next request, so idle should exceed the slowest rule's refill time.
func (l *RateLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes idle buckets every interval until ctx is done.
func (l *RateLimiter) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(idle); n > 0 {
				telemetry.Info("ratelimit.pruned", map[string]any{"buckets": n})
			}
		}
	}
}
