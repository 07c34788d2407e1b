// Package middleware authenticates bearer callers and enforces role permissions.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"estatehub/internal/access/guard"
	"estatehub/internal/access/models"
	"estatehub/internal/tenant/resolver"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/platform/middleware/auth"
	"estatehub/pkg/requestcontext"
)

// Authenticator loads the active user behind a verified token subject.
type Authenticator interface {
	Authenticate(ctx context.Context, userID id.UserID) (*models.User, error)
}

type principalKey struct{}

// WithPrincipal attaches a private copy of user to ctx.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user.Clone())
}

// Principal returns a copy of the authenticated user, if any.
func Principal(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*models.User)
	if !ok || u == nil {
		return nil, false
	}
	return u.Clone(), true
}

type Middleware struct {
	validator auth.Validator
	users     Authenticator
	logger    *slog.Logger
}

func New(validator auth.Validator, users Authenticator, logger *slog.Logger) *Middleware {
	return &Middleware{validator: validator, users: users, logger: logger}
}

// Authenticate verifies the bearer token and loads the caller. Missing,
// unknown and inactive users are rejected with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	load := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := m.users.Authenticate(ctx, requestcontext.UserID(ctx))
		if err != nil {
			m.logger.WarnContext(ctx, "unauthorized access - principal rejected",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, user)))
	})
	return auth.RequireBearer(m.validator, m.logger)(load)
}

// Permit authenticates the caller and requires action on resource within the
// resolved tenant.
func (m *Middleware) Permit(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tenant, err := resolver.Require(ctx)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			user, _ := Principal(ctx)
			if err := guard.AuthorizeTenant(user, tenant.ID, resource, models.Action(action)); err != nil {
				m.logger.WarnContext(ctx, "permission denied",
					"user_id", user.ID.String(),
					"tenant_id", tenant.ID.String(),
					"resource", resource,
					"action", action,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RequireAdmin authenticates the caller and lets only super admins through.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, _ := Principal(ctx)
		if err := guard.AuthorizeAdmin(user); err != nil {
			m.logger.WarnContext(ctx, "admin access denied",
				"user_id", user.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
