package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
	"estatehub/internal/property/service"
	tenantmodels "estatehub/internal/tenant/models"
	"estatehub/internal/tenant/resolver"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Service defines the catalog operations used by the HTTP layer.
type Service interface {
	List(ctx context.Context, tenant *tenantmodels.Tenant, q service.ListQuery) (*query.Result, error)
	Featured(ctx context.Context, tenant *tenantmodels.Tenant, limit int) ([]*models.Property, error)
	Get(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) (*models.Property, error)
	GetBySlug(ctx context.Context, tenant *tenantmodels.Tenant, slug string) (*models.Property, error)
	Create(ctx context.Context, tenant *tenantmodels.Tenant, cmd *service.CreatePropertyCommand) (*models.Property, error)
	Update(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID, cmd *service.UpdatePropertyCommand) (*models.Property, error)
	Delete(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error
	Favorite(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error
	Contact(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error
	Summary(ctx context.Context, tenant *tenantmodels.Tenant) (*service.Summary, error)
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

// Register mounts the catalog routes. Reads and interactions are public;
// mutations and the analytics summary go through permit.
func (h *Handler) Register(r chi.Router, permit Permit) {
	r.Get("/properties", h.HandleList)
	r.Get("/properties/featured", h.HandleFeatured)
	r.Get("/properties/slug/{slug}", h.HandleGetBySlug)
	r.Get("/properties/{id}", h.HandleGet)
	r.Post("/properties/{id}/favorite", h.HandleFavorite)
	r.Post("/properties/{id}/contact", h.HandleContact)

	r.With(permit("properties", "create")).Post("/properties", h.HandleCreate)
	r.With(permit("properties", "update")).Put("/properties/{id}", h.HandleUpdate)
	r.With(permit("properties", "delete")).Delete("/properties/{id}", h.HandleDelete)
	r.With(permit("analytics", "read")).Get("/analytics/summary", h.HandleSummary)
}

// HandleList runs a filtered, sorted, paginated catalog query.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	q, err := parseListQuery(r, h.maxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.List(ctx, tenant, q)
	if err != nil {
		h.logFailure(ctx, "list properties failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePage(w, toPropertyResponses(res.Items), httputil.NewPagination(q.Page.Number, q.Page.Limit, res.Total))
}

// HandleFeatured returns up to twelve featured active listings.
func (h *Handler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	limit := service.MaxFeatured
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.Validation("invalid limit", map[string]string{"limit": "limit must be a positive integer"}))
			return
		}
		limit = n
	}

	items, err := h.service.Featured(ctx, tenant, limit)
	if err != nil {
		h.logFailure(ctx, "list featured properties failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toPropertyResponses(items))
}

// HandleGet returns one listing and counts a view.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	propertyID, ok := parsePropertyID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(ctx, tenant, propertyID)
	if err != nil {
		h.logFailure(ctx, "get property failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toPropertyResponse(p))
}

// HandleGetBySlug returns one listing by slug and counts a view.
func (h *Handler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetBySlug(ctx, tenant, chi.URLParam(r, "slug"))
	if err != nil {
		h.logFailure(ctx, "get property by slug failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toPropertyResponse(p))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreatePropertyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, tenant, req.ToCommand())
	if err != nil {
		h.logFailure(ctx, "create property failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, toPropertyResponse(p))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	propertyID, ok := parsePropertyID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdatePropertyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Update(ctx, tenant, propertyID, req.ToCommand())
	if err != nil {
		h.logFailure(ctx, "update property failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toPropertyResponse(p))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	propertyID, ok := parsePropertyID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, tenant, propertyID); err != nil {
		h.logFailure(ctx, "delete property failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"id": propertyID.String()})
}

func (h *Handler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	h.handleInteraction(w, r, "favorite property failed", h.service.Favorite)
}

func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	h.handleInteraction(w, r, "contact about property failed", h.service.Contact)
}

func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request, failure string,
	fn func(context.Context, *tenantmodels.Tenant, id.PropertyID) error,
) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	propertyID, ok := parsePropertyID(w, r)
	if !ok {
		return
	}

	if err := fn(ctx, tenant, propertyID); err != nil {
		h.logFailure(ctx, failure, tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusAccepted, map[string]string{"id": propertyID.String()})
}

// HandleSummary returns the tenant's analytics totals and most viewed listings.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(ctx, tenant)
	if err != nil {
		h.logFailure(ctx, "analytics summary failed", tenant, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, toSummaryResponse(summary))
}

// logFailure logs at error level only for unexpected failures; client errors are warnings.
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

func parsePropertyID(w http.ResponseWriter, r *http.Request) (id.PropertyID, bool) {
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return id.PropertyID{}, false
	}
	return propertyID, true
}
