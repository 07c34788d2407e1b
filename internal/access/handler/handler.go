package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatehub/internal/access/models"
	"estatehub/internal/access/service"
	tenantmodels "estatehub/internal/tenant/models"
	"estatehub/internal/tenant/resolver"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Service defines the user operations used by the HTTP layer.
type Service interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	CreateUser(ctx context.Context, tenant *tenantmodels.Tenant, cmd *service.CreateUserCommand) (*models.User, error)
	ListUsers(ctx context.Context, tenant *tenantmodels.Tenant, page, limit int) ([]*models.User, int, error)
}

// Permit returns middleware allowing only callers holding action on resource.
type Permit func(resource, action string) func(http.Handler) http.Handler

type Handler struct {
	service     Service
	logger      *slog.Logger
	maxPageSize int
}

func New(service Service, logger *slog.Logger, maxPageSize int) *Handler {
	return &Handler{service: service, logger: logger, maxPageSize: maxPageSize}
}

// RegisterAuth mounts the tenant-agnostic login route.
func (h *Handler) RegisterAuth(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the tenant-scoped user routes.
func (h *Handler) Register(r chi.Router, permit Permit) {
	r.With(permit(models.ResourceUsers, string(models.ActionRead))).Get("/users", h.HandleListUsers)
	r.With(permit(models.ResourceUsers, string(models.ActionCreate))).Post("/users", h.HandleCreateUser)
}

// HandleLogin exchanges email and password for a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toLoginResponse(res))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	page, limit, err := httputil.PageParams(r, h.maxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	users, total, err := h.service.ListUsers(ctx, tenant, page, limit)
	if err != nil {
		h.logFailure(ctx, "list users failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePage(w, toUserResponses(users), httputil.NewPagination(page, limit, total))
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.CreateUser(ctx, tenant, req.ToCommand())
	if err != nil {
		h.logFailure(ctx, "create user failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) logFailure(ctx context.Context, msg string, tenant *tenantmodels.Tenant, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID.String(),
	)
}

func requireTenant(w http.ResponseWriter, r *http.Request) (*tenantmodels.Tenant, bool) {
	tenant, err := resolver.Require(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return tenant, true
}
