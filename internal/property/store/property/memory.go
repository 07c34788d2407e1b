package property

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// InMemory stores properties per tenant for development and tests.
// Stored values are copies; callers never share a pointer with the store.
type InMemory struct {
	mu         sync.RWMutex
	byTenant   map[id.TenantID]map[id.PropertyID]*models.Property
	slugsIndex map[id.TenantID]map[string]id.PropertyID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byTenant:   make(map[id.TenantID]map[id.PropertyID]*models.Property),
		slugsIndex: make(map[id.TenantID]map[string]id.PropertyID),
	}
}

// Create inserts p, failing with sentinel.ErrDuplicate when the slug is taken within the tenant.
func (s *InMemory) Create(ctx context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slugsIndex[p.TenantID][p.Slug]; exists {
		return fmt.Errorf("property slug must be unique within tenant: %w", sentinel.ErrDuplicate)
	}
	s.put(p.Clone())
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remove(p.TenantID, p.ID)
	})
	return nil
}

// Update replaces the listing's mutable fields. Analytics counters are kept
// from the stored copy so concurrent increments are not lost.
func (s *InMemory) Update(ctx context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byTenant[p.TenantID][p.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, exists := s.slugsIndex[p.TenantID][p.Slug]; exists && owner != p.ID {
		return fmt.Errorf("property slug must be unique within tenant: %w", sentinel.ErrDuplicate)
	}
	next := p.Clone()
	next.Analytics = prev.Clone().Analytics
	next.CreatedAt = prev.CreatedAt

	s.remove(p.TenantID, p.ID)
	s.put(next)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remove(prev.TenantID, prev.ID)
		s.put(prev)
	})
	return nil
}

func (s *InMemory) Delete(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byTenant[tenantID][propertyID]
	if !ok {
		return ErrNotFound
	}
	s.remove(tenantID, propertyID)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.put(prev)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byTenant[tenantID][propertyID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) FindBySlug(_ context.Context, tenantID id.TenantID, slug string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pid, ok := s.slugsIndex[tenantID][slug]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byTenant[tenantID][pid].Clone(), nil
}

// SlugsWithPrefix returns the tenant's slugs equal to base or starting with base+"-".
func (s *InMemory) SlugsWithPrefix(_ context.Context, tenantID id.TenantID, base string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for slug := range s.slugsIndex[tenantID] {
		if slug == base || strings.HasPrefix(slug, base+"-") {
			out = append(out, slug)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context, tenantID id.TenantID, f query.Filter, sort query.Sort, page query.Page) (*query.Result, error) {
	s.mu.RLock()
	items := make([]*models.Property, 0, len(s.byTenant[tenantID]))
	for _, p := range s.byTenant[tenantID] {
		items = append(items, p.Clone())
	}
	s.mu.RUnlock()

	return query.Apply(items, f, sort, page), nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTenant[tenantID]), nil
}

func (s *InMemory) CountAll(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, items := range s.byTenant {
		n += len(items)
	}
	return n, nil
}

// Increment bumps counter c on one listing under the write lock.
func (s *InMemory) Increment(_ context.Context, tenantID id.TenantID, propertyID id.PropertyID, c Counter, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byTenant[tenantID][propertyID]
	if !ok {
		return ErrNotFound
	}
	apply(p, c, at)
	return nil
}

// IncrementViews bumps views on every listed id owned by the tenant. Unknown ids are skipped.
func (s *InMemory) IncrementViews(_ context.Context, tenantID id.TenantID, ids []id.PropertyID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pid := range ids {
		if p, ok := s.byTenant[tenantID][pid]; ok {
			apply(p, CounterViews, at)
		}
	}
	return nil
}

// Totals sums the tenant's counters and returns its top most-viewed listings.
func (s *InMemory) Totals(_ context.Context, tenantID id.TenantID, top int) (*Totals, error) {
	s.mu.RLock()
	items := make([]*models.Property, 0, len(s.byTenant[tenantID]))
	for _, p := range s.byTenant[tenantID] {
		items = append(items, p.Clone())
	}
	s.mu.RUnlock()

	out := &Totals{Properties: len(items)}
	for _, p := range items {
		out.Views += p.Analytics.Views
		out.Leads += p.Analytics.Leads
		out.Favorites += p.Analytics.Favorites
	}
	byViews := query.Sort{Field: query.FieldViews, Direction: query.Desc}
	slices.SortFunc(items, byViews.Compare)
	out.TopViewed = items[:min(top, len(items))]
	return out, nil
}

func (s *InMemory) put(p *models.Property) {
	if s.byTenant[p.TenantID] == nil {
		s.byTenant[p.TenantID] = make(map[id.PropertyID]*models.Property)
		s.slugsIndex[p.TenantID] = make(map[string]id.PropertyID)
	}
	s.byTenant[p.TenantID][p.ID] = p
	s.slugsIndex[p.TenantID][p.Slug] = p.ID
}

func (s *InMemory) remove(tenantID id.TenantID, propertyID id.PropertyID) {
	p, ok := s.byTenant[tenantID][propertyID]
	if !ok {
		return
	}
	delete(s.slugsIndex[tenantID], p.Slug)
	delete(s.byTenant[tenantID], propertyID)
}
