// Package service implements the tenant-scoped property catalog: queries,
// mutations under plan limits and feature gates, and analytics interactions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"estatehub/internal/platform/events"
	"estatehub/internal/property/analytics"
	propertymetrics "estatehub/internal/property/metrics"
	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
	propertystore "estatehub/internal/property/store/property"
	"estatehub/internal/tenant/limits"
	tenantmodels "estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/platform/tx"
)

// Store is the catalog's storage boundary. Every method is tenant-scoped.
type Store interface {
	Create(ctx context.Context, p *models.Property) error
	Update(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) error
	FindByID(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error)
	FindBySlug(ctx context.Context, tenantID id.TenantID, slug string) (*models.Property, error)
	SlugsWithPrefix(ctx context.Context, tenantID id.TenantID, base string) ([]string, error)
	List(ctx context.Context, tenantID id.TenantID, f query.Filter, s query.Sort, p query.Page) (*query.Result, error)
	Totals(ctx context.Context, tenantID id.TenantID, top int) (*propertystore.Totals, error)
}

// QuotaEnforcer is satisfied by *limits.Guard.
type QuotaEnforcer interface {
	Enforce(ctx context.Context, tenant *tenantmodels.Tenant, kind tenantmodels.LimitKey) error
}

// Recorder is satisfied by *analytics.Counter.
type Recorder interface {
	RecordView(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID)
	RecordViews(ctx context.Context, tenantID id.TenantID, ids []id.PropertyID)
	RecordFavorite(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID)
	RecordLead(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID)
}

var _ Recorder = (*analytics.Counter)(nil)

const (
	MaxFeatured = 12
	topViewed   = 5
)

type Service struct {
	store      Store
	quota      QuotaEnforcer
	recorder   Recorder
	tx         tx.Runner
	publisher  events.Publisher
	logger     *slog.Logger
	metrics    *propertymetrics.Metrics
	tracer     tracer.Tracer
	now        func() time.Time
	batchViews bool
}

func New(store Store, quota QuotaEnforcer, recorder Recorder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		quota:    quota,
		recorder: recorder,
		tx:       tx.NewMemory(),
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List runs a catalog query for the tenant.
func (s *Service) List(ctx context.Context, tenant *tenantmodels.Tenant, q ListQuery) (res *query.Result, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPropertyList,
		tracer.String(tracer.AttrTenantID, tenant.ID.String()),
		tracer.String(tracer.AttrSortField, string(q.Sort.Field)+":"+string(q.Sort.Direction)),
		tracer.Int(tracer.AttrPage, q.Page.Number),
	)
	defer func() { span.End(err) }()

	start := time.Now()
	res, err = s.store.List(ctx, tenant.ID, q.Filter, q.Sort, q.Page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	s.metrics.ObserveQuery(start, res.Total)
	span.SetAttributes(
		tracer.Int(tracer.AttrResultCount, len(res.Items)),
		tracer.Int(tracer.AttrResultTotal, res.Total),
	)

	if s.batchViews && len(res.Items) > 0 {
		ids := make([]id.PropertyID, len(res.Items))
		for i, p := range res.Items {
			ids[i] = p.ID
		}
		s.recorder.RecordViews(ctx, tenant.ID, ids)
	}
	return res, nil
}

// Featured returns the tenant's newest featured active listings.
func (s *Service) Featured(ctx context.Context, tenant *tenantmodels.Tenant, limit int) ([]*models.Property, error) {
	if limit <= 0 || limit > MaxFeatured {
		limit = MaxFeatured
	}
	featured := true
	res, err := s.store.List(ctx, tenant.ID,
		query.Filter{Status: models.StatusActive, Featured: &featured},
		query.DefaultSort,
		query.Page{Number: 1, Limit: limit},
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list featured properties")
	}
	return res.Items, nil
}

// Get returns one listing and counts a view.
func (s *Service) Get(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) (p *models.Property, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPropertyGet, tracer.String(tracer.AttrTenantID, tenant.ID.String()))
	defer func() { span.End(err) }()

	p, err = s.store.FindByID(ctx, tenant.ID, propertyID)
	if err != nil {
		return nil, wrapPropertyErr(err, "failed to get property")
	}
	s.recorder.RecordView(ctx, tenant.ID, p.ID)
	return p, nil
}

// GetBySlug returns one listing by its tenant-scoped slug and counts a view.
func (s *Service) GetBySlug(ctx context.Context, tenant *tenantmodels.Tenant, slug string) (*models.Property, error) {
	p, err := s.store.FindBySlug(ctx, tenant.ID, slug)
	if err != nil {
		return nil, wrapPropertyErr(err, "failed to get property")
	}
	s.recorder.RecordView(ctx, tenant.ID, p.ID)
	return p, nil
}

// Create validates and inserts a listing. The quota check, slug derivation
// and insert share one unit of work.
func (s *Service) Create(ctx context.Context, tenant *tenantmodels.Tenant, cmd *CreatePropertyCommand) (p *models.Property, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPropertyCreate, tracer.String(tracer.AttrTenantID, tenant.ID.String()))
	defer func() { span.End(err) }()

	now := s.now()
	p = &models.Property{
		ID:           id.NewPropertyID(),
		TenantID:     tenant.ID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		PropertyType: cmd.PropertyType,
		Purpose:      cmd.Purpose,
		Status:       cmd.Status,
		Featured:     cmd.Featured,
		Tags:         models.NormalizeTags(cmd.Tags),
		Pricing:      cmd.Pricing,
		Location:     cmd.Location,
		Features:     cmd.Features,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if p.Pricing.Currency == "" {
		p.Pricing.Currency = tenant.Business.DefaultCurrency
	}
	if err := p.Validate(now); err != nil {
		return nil, err
	}
	if err := s.requireFeatures(tenant, p, nil); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.quota.Enforce(ctx, tenant, tenantmodels.LimitProperties); err != nil {
			return err
		}
		slug, err := s.uniqueSlug(ctx, tenant.ID, slugFromTitle(p.Title))
		if err != nil {
			return err
		}
		p.Slug = slug
		return s.store.Create(ctx, p)
	})
	if err != nil {
		return nil, wrapPropertyErr(err, "failed to create property")
	}

	s.metrics.IncrementCreated()
	s.emit(ctx, events.PropertyCreated, p, map[string]any{"slug": p.Slug})
	return p, nil
}

// Update applies a partial update, re-validating the merged listing and
// re-deriving the slug when the title changes.
func (s *Service) Update(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID, cmd *UpdatePropertyCommand) (*models.Property, error) {
	if cmd.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}

	var updated *models.Property
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, tenant.ID, propertyID)
		if err != nil {
			return err
		}
		next := current.Clone()
		cmd.applyTo(next)
		now := s.now()
		if err := next.Validate(now); err != nil {
			return err
		}
		if err := s.requireFeatures(tenant, next, current); err != nil {
			return err
		}

		if base := slugFromTitle(next.Title); !ownsBase(current.Slug, base) {
			if err := tx.Lock(ctx, limits.LockKey(tenant.ID, tenantmodels.LimitProperties)); err != nil {
				return err
			}
			slug, err := s.uniqueSlug(ctx, tenant.ID, base)
			if err != nil {
				return err
			}
			next.Slug = slug
		}
		next.UpdatedAt = now
		if err := s.store.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, wrapPropertyErr(err, "failed to update property")
	}

	s.emit(ctx, events.PropertyUpdated, updated, map[string]any{"fields": cmd.ChangedFields()})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error {
	var deleted *models.Property
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.store.FindByID(ctx, tenant.ID, propertyID)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, tenant.ID, propertyID); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return wrapPropertyErr(err, "failed to delete property")
	}

	s.metrics.IncrementDeleted()
	s.emit(ctx, events.PropertyDeleted, deleted, nil)
	return nil
}

// Favorite counts a favorite for an existing listing.
func (s *Service) Favorite(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error {
	if _, err := s.store.FindByID(ctx, tenant.ID, propertyID); err != nil {
		return wrapPropertyErr(err, "failed to favorite property")
	}
	s.recorder.RecordFavorite(ctx, tenant.ID, propertyID)
	return nil
}

// Contact counts a lead for an existing listing. No lead record is stored.
func (s *Service) Contact(ctx context.Context, tenant *tenantmodels.Tenant, propertyID id.PropertyID) error {
	if _, err := s.store.FindByID(ctx, tenant.ID, propertyID); err != nil {
		return wrapPropertyErr(err, "failed to contact about property")
	}
	s.recorder.RecordLead(ctx, tenant.ID, propertyID)
	return nil
}

// Summary returns counter totals and the most viewed listings. Requires the analytics feature.
func (s *Service) Summary(ctx context.Context, tenant *tenantmodels.Tenant) (*Summary, error) {
	if err := limits.RequireFeature(tenant, tenantmodels.FeatureAnalytics); err != nil {
		return nil, err
	}
	totals, err := s.store.Totals(ctx, tenant.ID, topViewed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analytics summary")
	}
	top := totals.TopViewed
	if top == nil {
		top = []*models.Property{}
	}
	return &Summary{
		Properties: totals.Properties,
		Views:      totals.Views,
		Leads:      totals.Leads,
		Favorites:  totals.Favorites,
		TopViewed:  top,
	}, nil
}

// requireFeatures checks plan-gated attributes. On update, prev is the stored
// listing; attributes it already carried are not re-checked.
func (s *Service) requireFeatures(tenant *tenantmodels.Tenant, p, prev *models.Property) error {
	if p.Featured && (prev == nil || !prev.Featured) {
		if err := limits.RequireFeature(tenant, tenantmodels.FeatureFeaturedListings); err != nil {
			return err
		}
	}
	if p.UsesSecondaryCurrencies() && (prev == nil || !sameSecondary(p, prev)) {
		if err := limits.RequireFeature(tenant, tenantmodels.FeatureMultiCurrency); err != nil {
			return err
		}
	}
	return nil
}

func sameSecondary(a, b *models.Property) bool {
	if len(a.Pricing.Secondary) != len(b.Pricing.Secondary) {
		return false
	}
	for cur, v := range a.Pricing.Secondary {
		if w, ok := b.Pricing.Secondary[cur]; !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func (s *Service) emit(ctx context.Context, eventType string, p *models.Property, data map[string]any) {
	s.logger.InfoContext(ctx, eventType,
		"log_type", "audit",
		"tenant_id", p.TenantID.String(),
		"property_id", p.ID.String(),
	)
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.New(ctx, eventType, "property", p.ID.String(), p.TenantID.String(), data))
	}
}

func wrapPropertyErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "property not found")
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.New(dErrors.CodeConflict, "property slug already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
