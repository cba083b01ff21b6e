// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

const (
	backendRedis = "redis"
	backendLocal = "local"

	bucketIdle = 10 * time.Minute
)

// KeyFunc names the caller a request is counted against.
type KeyFunc func(*http.Request) string

// Policy is a named request budget. The name prefixes every counter key so
// the global and auth budgets never share a bucket.
type Policy struct {
	Name  string
	Limit redis_rate.Limit
	Key   KeyFunc
}

// RateLimiter enforces one Policy against the shared Redis store and falls
// back to per-process token buckets while Redis is unreachable.
type RateLimiter struct {
	policy  Policy
	shared  *redis_rate.Limiter
	local   *localBuckets
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRateLimiter(
	rdb *redis.Client,
	policy Policy,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RateLimiter {
	if policy.Key == nil {
		policy.Key = KeyByIP
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RateLimiter{
		policy:  policy,
		shared:  redis_rate.NewLimiter(rdb),
		local:   &localBuckets{buckets: make(map[string]*bucket)},
		metrics: m,
		logger:  logger,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "throttle:" + rl.policy.Name + ":" + rl.policy.Key(r)

		res, backend := rl.decide(r, key)
		allowed := res.Allowed > 0
		rl.metrics.ObserveThrottle(rl.policy.Name, allowed, backend)

		writeLimitHeaders(w.Header(), res)

		if !allowed {
			retry := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			core.JSON(w, http.StatusTooManyRequests, core.Response{
				Message: fmt.Sprintf("too many requests, retry in %ds", retry),
				Code:    "RATE_LIMITED",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) decide(r *http.Request, key string) (*redis_rate.Result, string) {
	res, err := rl.shared.Allow(r.Context(), key, rl.policy.Limit)
	if err == nil {
		return res, backendRedis
	}

	rl.logger.Debug("rate limit store unavailable, using local buckets",
		"policy", rl.policy.Name,
		"error", err,
	)
	return rl.local.allow(key, rl.policy.Limit, time.Now()), backendLocal
}

// KeyByIP counts requests per client address.
func KeyByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// KeyByIPAndRoute counts requests per client address and route shape, used
// on anonymous endpoints such as login where no session exists yet.
func KeyByIPAndRoute(r *http.Request) string {
	return KeyByIP(r) + ":route:" + routeShape(r.URL.Path)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// routeShape collapses ids in a path so /users/<a>/role and /users/<b>/role
// share one budget.
func routeShape(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if uuid.Validate(seg) == nil {
			segments[i] = "{id}"
			continue
		}
		if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func writeLimitHeaders(h http.Header, res *redis_rate.Result) {
	limit := res.Limit
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// localBuckets mirrors redis_rate's GCRA with x/time/rate token buckets.
// Idle buckets are swept on access.
type localBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return &redis_rate.Result{Limit: limit, Allowed: 1, RetryAfter: -1}
	}
	interval := limit.Period / time.Duration(limit.Rate)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > bucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > bucketIdle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(interval), limit.Burst)}
		l.buckets[key] = b
	}
	b.seen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}

	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	res.ResetAfter = time.Duration(limit.Burst-res.Remaining) * interval
	return res
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: time.Minute}
}

func PerSecond(requests, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: time.Second}
}
