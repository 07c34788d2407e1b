// Package middleware applies per-client request budgets to HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"estatehub/internal/platform/privacy"
	"estatehub/internal/ratelimit/metrics"
	"estatehub/internal/ratelimit/models"
	"estatehub/pkg/platform/circuit"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Limiter is a sliding-window bucket store.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	limiter  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	policies map[models.EndpointClass]models.Policy
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Middleware)

// WithFallback checks fallback whenever limiter errors, and keeps using it
// while breaker is open.
func WithFallback(fallback Limiter, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

// New builds the middleware. Classes without a policy are not limited.
// Without a fallback, store errors let the request through.
func New(limiter Limiter, policies map[models.EndpointClass]models.Policy, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Middleware {
	mw := &Middleware{
		limiter:  limiter,
		policies: policies,
		metrics:  m,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(mw)
	}
	return mw
}

// RateLimit limits requests per client IP for class. Write budgets only count
// unsafe methods. A nil Middleware passes every request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		policy, ok := m.policies[class]
		if !ok || policy.Limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if class == models.ClassWrite && isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = "unknown"
			}
			key := models.NewKey(models.KeyPrefixIP, ip, class)

			result, degraded, err := m.check(ctx, key.String(), policy)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"class", string(class),
					"ip_prefix", privacy.AnonymizeIP(ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			if !result.Allowed {
				m.metrics.IncrementRejected(string(class))
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"ip_prefix", privacy.AnonymizeIP(ip),
					"retry_after", result.RetryAfter,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store, switching to the fallback when the
// primary errors or the breaker is open.
func (m *Middleware) check(ctx context.Context, key string, policy models.Policy) (*models.Result, bool, error) {
	result, err := m.limiter.Allow(ctx, key, policy.Limit, policy.Window)
	if err != nil {
		m.metrics.IncrementStoreErrors()
	}
	if m.fallback == nil {
		return result, false, err
	}

	usePrimary, transition := m.breaker.Observe(err)
	switch transition {
	case circuit.Opened:
		m.logger.WarnContext(ctx, "rate limit store unavailable, using fallback", "breaker", m.breaker.Name(), "error", err)
	case circuit.Closed:
		m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
	case circuit.NoChange:
	}
	if usePrimary {
		return result, false, nil
	}

	result, err = m.fallback.Allow(ctx, key, policy.Limit, policy.Window)
	return result, true, err
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
