package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"estatehub/internal/ratelimit/metrics"
	"estatehub/internal/ratelimit/models"
	"estatehub/internal/ratelimit/store/bucket"
	"estatehub/pkg/platform/circuit"
	"estatehub/pkg/requestcontext"
)

type MiddlewareSuite struct {
	suite.Suite
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.metrics = metrics.New(prometheus.NewRegistry())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("redis unavailable")
}

type recordingLimiter struct {
	keys []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (*models.Result, error) {
	l.keys = append(l.keys, key)
	return &models.Result{Allowed: true, Limit: limit, Remaining: limit - 1}, nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func (s *MiddlewareSuite) handler(limiter Limiter, class models.EndpointClass, limit int) http.Handler {
	mw := New(limiter, map[models.EndpointClass]models.Policy{
		class: {Limit: limit, Window: time.Minute},
	}, s.logger, s.metrics)
	return mw.RateLimit(class)(okHandler)
}

func request(method, ip string) *http.Request {
	req := httptest.NewRequest(method, "/properties", nil)
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

func (s *MiddlewareSuite) TestRejectsOverLimit() {
	h := s.handler(bucket.NewInMemoryBucketStore(), models.ClassAuth, 2)

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))

	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	s.NotEmpty(rec.Header().Get("Retry-After"))

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(false, body["success"])
	s.Equal("rate_limit_exceeded", body["error"])
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues("auth")))
}

func (s *MiddlewareSuite) TestClientsHaveSeparateBudgets() {
	h := s.handler(bucket.NewInMemoryBucketStore(), models.ClassAuth, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
	s.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "198.51.100.1"))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MiddlewareSuite) TestWriteClassIgnoresSafeMethods() {
	limiter := &recordingLimiter{}
	h := s.handler(limiter, models.ClassWrite, 1)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(method, "203.0.113.7"))
		s.Equal(http.StatusOK, rec.Code)
	}
	s.Empty(limiter.keys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodDelete, "203.0.113.7"))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal([]string{"ip:203.0.113.7:write"}, limiter.keys)
}

func (s *MiddlewareSuite) TestFailsOpenOnStoreError() {
	h := s.handler(failingLimiter{}, models.ClassAuth, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))

	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Header().Get("X-RateLimit-Limit"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StoreErrors))
}

type flakyLimiter struct {
	fail bool
	next Limiter
}

func (l *flakyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if l.fail {
		return nil, errors.New("redis unavailable")
	}
	return l.next.Allow(ctx, key, limit, window)
}

func (s *MiddlewareSuite) TestFallbackWhenPrimaryFails() {
	primary := &flakyLimiter{fail: true, next: bucket.NewInMemoryBucketStore()}
	breaker := circuit.New("ratelimit", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	mw := New(primary, map[models.EndpointClass]models.Policy{
		models.ClassAuth: {Limit: 2, Window: time.Minute},
	}, s.logger, s.metrics, WithFallback(bucket.NewInMemoryBucketStore(), breaker))
	h := mw.RateLimit(models.ClassAuth)(okHandler)

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("degraded", rec.Header().Get("X-RateLimit-Status"))
	}
	s.Equal(circuit.StateOpen, breaker.State())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
	s.Equal(http.StatusTooManyRequests, rec.Code, "fallback still enforces the budget")

	primary.fail = false
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodPost, "198.51.100.1"))
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Header().Get("X-RateLimit-Status"))
	s.Equal(circuit.StateClosed, breaker.State())
}

func (s *MiddlewareSuite) TestMissingClientIPUsesSharedBucket() {
	limiter := &recordingLimiter{}
	h := s.handler(limiter, models.ClassAuth, 5)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal([]string{"ip:unknown:auth"}, limiter.keys)
}

func (s *MiddlewareSuite) TestPassThrough() {
	s.Run("nil middleware", func() {
		var mw *Middleware
		rec := httptest.NewRecorder()
		mw.RateLimit(models.ClassAuth)(okHandler).ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("class without policy", func() {
		limiter := &recordingLimiter{}
		mw := New(limiter, nil, s.logger, s.metrics)
		rec := httptest.NewRecorder()
		mw.RateLimit(models.ClassWrite)(okHandler).ServeHTTP(rec, request(http.MethodPost, "203.0.113.7"))
		s.Equal(http.StatusOK, rec.Code)
		s.Empty(limiter.keys)
	})
}
