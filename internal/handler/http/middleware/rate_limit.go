package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/config"
	"github.com/cmlabs-hris/collab-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/jwt"
	"golang.org/x/time/rate"
)

// KeyExtractor groups requests for rate limiting.
type KeyExtractor func(*http.Request) string

// UserKey keys by the authenticated user and falls back to the client IP.
func UserKey(r *http.Request) string {
	if claims, err := jwt.ClaimsFromContext(r.Context()); err == nil {
		return "user:" + claims.UserID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type rateLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every five minutes.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit allows cfg.InviteRequests per cfg.InviteWindow for each key, with
// bursts up to cfg.InviteBurst.
func RateLimit(cfg config.RateLimitConfig, keyFn KeyExtractor) func(http.Handler) http.Handler {
	burst := cfg.InviteBurst
	if burst <= 0 {
		burst = cfg.InviteRequests
	}

	rl := &rateLimiter{
		rate:        rate.Limit(float64(cfg.InviteRequests) / cfg.InviteWindow.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			limiter := rl.getLimiter(key)

			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.InviteRequests))
				w.Header().Set("X-RateLimit-Window", cfg.InviteWindow.String())

				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
