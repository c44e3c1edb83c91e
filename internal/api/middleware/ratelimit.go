package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/docqr/docqr/internal/api/response"
	"github.com/docqr/docqr/internal/ratelimit"
)

// Limit configures one rate-limited route. Zero fields take the defaults
// "default", 60 attempts, 1 minute.
type Limit struct {
	Key          string
	MaxAttempts  int
	DecayMinutes int
}

func (l Limit) withDefaults() Limit {
	if l.Key == "" {
		l.Key = "default"
	}
	if l.MaxAttempts <= 0 {
		l.MaxAttempts = 60
	}
	if l.DecayMinutes <= 0 {
		l.DecayMinutes = 1
	}
	return l
}

func (l Limit) decay() time.Duration {
	return time.Duration(l.DecayMinutes) * time.Minute
}

// RateLimit is middleware that counts requests per route key, client IP and
// user (or "guest") and rejects with 429 once MaxAttempts is reached within
// the decay window. Store errors let the request through.
func RateLimit(store ratelimit.Store, limit Limit, opts ...Option) func(http.Handler) http.Handler {
	limit = limit.withDefaults()
	o := newOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r, limit.Key)

			d, err := decide(r.Context(), store, limit, key, o)
			if err != nil {
				Logger(r.Context()).Warn("rate limit store unavailable, allowing request", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit.MaxAttempts))

			if !d.allowed {
				o.rateLimited(limit.Key)
				h.Set("X-RateLimit-Remaining", "0")
				h.Set("Retry-After", strconv.Itoa(d.retryAfter))
				response.ErrRetryAfter(w, http.StatusTooManyRequests, fmt.Sprintf(MsgTooManyRequests, d.retryAfter), d.retryAfter)
				return
			}

			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, limit.MaxAttempts-d.attempts)))
			next.ServeHTTP(w, r)
		})
	}
}

type decision struct {
	allowed    bool
	attempts   int
	retryAfter int
}

func decide(parent context.Context, store ratelimit.Store, limit Limit, key string, o *options) (decision, error) {
	ctx, cancel := o.context(parent)
	defer cancel()

	tooMany, err := store.TooManyAttempts(ctx, key, limit.MaxAttempts)
	if err != nil {
		return decision{}, err
	}
	if tooMany {
		return decision{retryAfter: retryAfter(ctx, store, limit, key)}, nil
	}

	attempts, err := store.Hit(ctx, key, limit.decay())
	if err != nil {
		return decision{}, err
	}
	// A concurrent request may have taken the last slot between the check
	// and the increment.
	if attempts > limit.MaxAttempts {
		return decision{retryAfter: retryAfter(ctx, store, limit, key)}, nil
	}

	return decision{allowed: true, attempts: attempts}, nil
}

func retryAfter(ctx context.Context, store ratelimit.Store, limit Limit, key string) int {
	available, err := store.AvailableIn(ctx, key)
	if err != nil {
		available = limit.decay()
	}
	return int(math.Ceil(available.Seconds()))
}

func limiterKey(r *http.Request, bucket string) string {
	user := "guest"
	if identity := GetIdentity(r.Context()); identity != nil {
		user = strconv.FormatInt(identity.UserID, 10)
	}
	return bucket + ":" + ClientIP(r) + ":" + user
}
