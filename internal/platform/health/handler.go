// Package health serves the liveness, readiness and status probes.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"estatehub/pkg/platform/httputil"
)

// Version is stamped with -ldflags at build time.
var Version = "dev"

// CheckFunc probes one dependency and returns nil when it is usable.
type CheckFunc func(ctx context.Context) error

const checkTimeout = 2 * time.Second

const (
	statusUp   = "up"
	statusDown = "down"
)

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Handler owns the registered dependency checks.
type Handler struct {
	environment string
	started     time.Time
	now         func() time.Time

	mu     sync.RWMutex
	checks []namedCheck
}

func New(environment string) *Handler {
	return &Handler{environment: environment, started: time.Now(), now: time.Now}
}

// RegisterCheck adds or replaces the check called name.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.checks {
		if h.checks[i].name == name {
			h.checks[i].fn = check
			return
		}
	}
	h.checks = append(h.checks, namedCheck{name: name, fn: check})
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HandleStatus)
		r.Get("/live", h.HandleLiveness)
		r.Get("/ready", h.HandleReadiness)
	})
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness answers 200 while the process can serve HTTP at all.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness probes every dependency in parallel and answers 503 when
// any of them is down.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.probe(r.Context())
	code := http.StatusOK
	if resp.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, resp)
}

func (h *Handler) probe(ctx context.Context) ReadinessResponse {
	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			start := h.now()
			err := c.fn(ctx)
			res := CheckResult{Status: statusUp, LatencyMS: h.now().Sub(start).Milliseconds()}
			if err != nil {
				res.Status, res.Error = statusDown, err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // checks report through results

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]CheckResult, len(checks))}
	for i, c := range checks {
		resp.Checks[c.name] = results[i]
		if results[i].Status == statusDown {
			resp.Status = "not_ready"
		}
	}
	return resp
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Timestamp     string   `json:"timestamp"`
	Dependencies  []string `json:"dependencies,omitempty"`
}

// HandleStatus reports build and uptime details without probing dependencies.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	deps := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		deps = append(deps, c.name)
	}
	h.mu.RUnlock()

	now := h.now()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Dependencies:  deps,
	})
}
