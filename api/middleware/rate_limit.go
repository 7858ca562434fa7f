package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitRecorder counts rejected requests per limiter scope.
type RateLimitRecorder interface {
	IncRateLimited(scope string)
}

// RateLimitPolicy is a fixed-window budget shared by every request of one actor.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Limit  int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && p.Limit > 0
}

func (p RateLimitPolicy) scope(actor string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "api"
	}
	return name + ":" + actor
}

// RateLimit throttles callers per actor: the authenticated user id when present,
// otherwise the client IP. Limiter outages fail open.
func RateLimit(policy RateLimitPolicy, limiter fixedWindowLimiter, recorder RateLimitRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor := actorKey(r)
			allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope(actor), int64(policy.Limit), policy.Window)
			if err != nil {
				if logg != nil {
					logg.Error(logg.WithField(ctx, "policy", policy.Name), "rate limiter unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if recorder != nil {
					recorder.IncRateLimited(policy.Name)
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.Name,
						"actor":          actor,
						"attempts":       count,
						"limit":          policy.Limit,
						"window_seconds": int(policy.Window.Seconds()),
					}), "api.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorKey(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + clientIP(r)
}
