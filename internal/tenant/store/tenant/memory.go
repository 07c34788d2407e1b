package tenant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// ErrNotFound is returned when a tenant is not found.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores tenants in memory for development and tests.
// Stored values are copies; callers never share a pointer with the store.
type InMemory struct {
	mu        sync.RWMutex
	tenants   map[id.TenantID]*models.Tenant
	slugIdx   map[string]id.TenantID
	domainIdx map[string]id.TenantID
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants:   make(map[id.TenantID]*models.Tenant),
		slugIdx:   make(map[string]id.TenantID),
		domainIdx: make(map[string]id.TenantID),
	}
}

// Create inserts t, failing with sentinel.ErrDuplicate when the slug or domain is taken.
func (s *InMemory) Create(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slugIdx[t.Slug]; exists {
		return fmt.Errorf("tenant slug must be unique: %w", sentinel.ErrDuplicate)
	}
	if t.Domain != nil {
		if _, exists := s.domainIdx[domainKey(*t.Domain)]; exists {
			return fmt.Errorf("tenant domain must be unique: %w", sentinel.ErrDuplicate)
		}
	}

	s.put(t.Clone())
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remove(t.ID)
	})
	return nil
}

// Update replaces the stored tenant, keeping the slug and domain indexes consistent.
func (s *InMemory) Update(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.tenants[t.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, exists := s.slugIdx[t.Slug]; exists && owner != t.ID {
		return fmt.Errorf("tenant slug must be unique: %w", sentinel.ErrDuplicate)
	}
	if t.Domain != nil {
		if owner, exists := s.domainIdx[domainKey(*t.Domain)]; exists && owner != t.ID {
			return fmt.Errorf("tenant domain must be unique: %w", sentinel.ErrDuplicate)
		}
	}

	s.remove(t.ID)
	s.put(t.Clone())
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remove(prev.ID)
		s.put(prev)
	})
	return nil
}

func (s *InMemory) put(t *models.Tenant) {
	s.tenants[t.ID] = t
	s.slugIdx[t.Slug] = t.ID
	if t.Domain != nil {
		s.domainIdx[domainKey(*t.Domain)] = t.ID
	}
}

func (s *InMemory) remove(tenantID id.TenantID) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return
	}
	delete(s.slugIdx, t.Slug)
	if t.Domain != nil {
		delete(s.domainIdx, domainKey(*t.Domain))
	}
	delete(s.tenants, tenantID)
}

// FindByID retrieves a tenant by its ID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenantID]; ok {
		return t.Clone(), nil
	}
	return nil, ErrNotFound
}

// FindBySlug retrieves a tenant by its exact slug.
func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tid, ok := s.slugIdx[slug]; ok {
		return s.tenants[tid].Clone(), nil
	}
	return nil, ErrNotFound
}

// FindByDomain retrieves a tenant by custom domain (case-insensitive).
func (s *InMemory) FindByDomain(_ context.Context, domain string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tid, ok := s.domainIdx[domainKey(domain)]; ok {
		return s.tenants[tid].Clone(), nil
	}
	return nil, ErrNotFound
}

// List returns one page of tenants ordered by creation time (newest first) and the total count.
func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.Tenant, int, error) {
	s.mu.RLock()
	all := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		all = append(all, t)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Tenant) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})

	total := len(all)
	if offset >= total {
		return []*models.Tenant{}, total, nil
	}
	end := min(offset+limit, total)
	out := make([]*models.Tenant, 0, end-offset)
	for _, t := range all[offset:end] {
		out = append(out, t.Clone())
	}
	return out, total, nil
}

// CountByStatus counts tenants per status.
func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, t := range s.tenants {
		counts[t.Status]++
	}
	return counts, nil
}

// TouchActivity records the last time the tenant served a request.
func (s *InMemory) TouchActivity(_ context.Context, tenantID id.TenantID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return ErrNotFound
	}
	touched := t.Clone()
	touched.LastActivityAt = &at
	s.tenants[tenantID] = touched
	return nil
}

func domainKey(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
