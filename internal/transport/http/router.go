// Package httptransport assembles the HTTP surface: shared middleware,
// operational endpoints, platform administration and tenant-scoped routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accesshandler "estatehub/internal/access/handler"
	accessmiddleware "estatehub/internal/access/middleware"
	"estatehub/internal/platform/health"
	ratelimitmw "estatehub/internal/ratelimit/middleware"
	ratelimitmodels "estatehub/internal/ratelimit/models"
	propertyhandler "estatehub/internal/property/handler"
	tenanthandler "estatehub/internal/tenant/handler"
	"estatehub/internal/tenant/resolver"
	"estatehub/pkg/platform/middleware/request"
)

// AdminPrefix is served without tenant resolution.
const AdminPrefix = "/admin"

const maxBodyBytes = 1 << 20

// Deps are the components the router mounts. Health, MetricsHandler and
// RateLimit are optional.
type Deps struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	TrustProxy     bool
	RequestMetrics *request.Metrics
	Health         *health.Handler
	MetricsHandler http.Handler
	RateLimit      *ratelimitmw.Middleware

	Resolver   *resolver.Resolver
	Access     *accessmiddleware.Middleware
	Tenants    *tenanthandler.Handler
	Properties *propertyhandler.Handler
	Users      *accesshandler.Handler
}

// NewRouter wires all endpoints with the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.ClientIP(d.TrustProxy))
	r.Use(request.Logger(d.Logger))
	r.Use(request.Instrument(d.RequestMetrics))
	r.Use(request.Timeout(timeout))
	r.Use(request.ContentTypeJSON)
	r.Use(request.BodyLimit(maxBodyBytes))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(d.RateLimit.RateLimit(ratelimitmodels.ClassAuth))
		d.Users.RegisterAuth(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Access.RequireAdmin)
		d.Tenants.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Resolver.Middleware(AdminPrefix))
		r.Use(d.RateLimit.RateLimit(ratelimitmodels.ClassWrite))
		d.Tenants.RegisterPublic(r)
		d.Properties.Register(r, d.Access.Permit)
		d.Users.Register(r, d.Access.Permit)
	})

	return r
}
