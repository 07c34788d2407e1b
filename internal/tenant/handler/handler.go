package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatehub/internal/tenant/models"
	"estatehub/internal/tenant/readmodels"
	"estatehub/internal/tenant/resolver"
	"estatehub/internal/tenant/service"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Service defines the interface for tenant administration.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	CreateTenant(ctx context.Context, cmd *service.CreateTenantCommand) (*service.CreatedTenant, error)
	ListTenants(ctx context.Context, page, limit int) ([]*models.Tenant, int, error)
	GetTenant(ctx context.Context, tenantID id.TenantID) (*readmodels.TenantDetails, error)
	UpdateTenant(ctx context.Context, tenantID id.TenantID, cmd *service.UpdateTenantCommand) (*models.Tenant, error)
	ChangeStatus(ctx context.Context, tenantID id.TenantID, status models.Status) (*models.Tenant, error)
	Dashboard(ctx context.Context) (*readmodels.Dashboard, error)
}

type Handler struct {
	service     Service
	logger      *slog.Logger
	maxPageSize int
}

func New(service Service, logger *slog.Logger, maxPageSize int) *Handler {
	return &Handler{service: service, logger: logger, maxPageSize: maxPageSize}
}

// Register mounts the platform administration routes. Callers guard them with
// bearer auth and the super_admin check.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/tenants", h.HandleCreateTenant)
	r.Get("/admin/tenants", h.HandleListTenants)
	r.Get("/admin/tenants/{id}", h.HandleGetTenant)
	r.Put("/admin/tenants/{id}", h.HandleUpdateTenant)
	r.Patch("/admin/tenants/{id}/status", h.HandleChangeStatus)
	r.Get("/admin/dashboard", h.HandleDashboard)
}

// RegisterPublic mounts tenant-scoped public routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/tenants/config", h.HandleGetConfig)
}

// HandleCreateTenant creates a tenant and its initial administrator.
func (h *Handler) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.CreateTenant(ctx, req.ToCommand())
	if err != nil {
		h.logger.ErrorContext(ctx, "create tenant failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, toTenantCreateResponse(created))
}

// HandleListTenants returns tenants, newest first.
func (h *Handler) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	page, limit, err := httputil.PageParams(r, h.maxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenants, total, err := h.service.ListTenants(ctx, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tenants failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePage(w, toTenantResponses(tenants), httputil.NewPagination(page, limit, total))
}

// HandleGetTenant returns tenant metadata with counts.
func (h *Handler) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}

	res, err := h.service.GetTenant(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get tenant failed", "error", err, "request_id", requestID, "tenant_id", tenantID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toTenantDetailsResponse(res))
}

// HandleUpdateTenant applies a partial update to a tenant.
func (h *Handler) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.UpdateTenant(ctx, tenantID, req.ToCommand())
	if err != nil {
		h.logger.ErrorContext(ctx, "update tenant failed", "error", err, "request_id", requestID, "tenant_id", tenantID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toTenantResponse(tenant))
}

// HandleChangeStatus moves a tenant between active, inactive, suspended and trial.
func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenantID, ok := parseTenantID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.ChangeStatus(ctx, tenantID, models.Status(req.Status))
	if err != nil {
		h.logger.ErrorContext(ctx, "change tenant status failed", "error", err, "request_id", requestID, "tenant_id", tenantID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toTenantResponse(tenant))
}

// HandleDashboard returns platform-wide counts.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	d, err := h.service.Dashboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toDashboardResponse(d))
}

// HandleGetConfig returns the public storefront configuration of the resolved tenant.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	tenant, err := resolver.Require(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, toPublicConfigResponse(tenant))
}

func parseTenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return id.TenantID{}, false
	}
	return tenantID, true
}
