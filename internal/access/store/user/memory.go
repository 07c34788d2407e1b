package user

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"estatehub/internal/access/models"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// ErrNotFound is returned when a user is not found.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores users in memory for development and tests.
type InMemory struct {
	mu       sync.RWMutex
	users    map[id.UserID]*models.User
	emailIdx map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[id.UserID]*models.User),
		emailIdx: make(map[string]id.UserID),
	}
}

// Create inserts u, failing with sentinel.ErrDuplicate when the email is taken.
func (s *InMemory) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(u.Email)
	if _, exists := s.emailIdx[email]; exists {
		return fmt.Errorf("user email must be unique: %w", sentinel.ErrDuplicate)
	}
	c := u.Clone()
	c.Email = email
	s.users[u.ID] = c
	s.emailIdx[email] = u.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, u.ID)
		delete(s.emailIdx, email)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.emailIdx[models.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.users[userID].Clone(), nil
}

// ListByTenant returns a page of the tenant's users ordered by creation time, then id.
func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID, offset, limit int) ([]*models.User, int, error) {
	s.mu.RLock()
	members := make([]*models.User, 0)
	for _, u := range s.users {
		if u.BelongsTo(tenantID) {
			members = append(members, u.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(members, func(a, b *models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	total := len(members)
	if offset >= total {
		return []*models.User{}, total, nil
	}
	end := min(offset+limit, total)
	return members[offset:end], total, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.BelongsTo(tenantID) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// ExistsSuperAdmin reports whether any super admin account exists.
func (s *InMemory) ExistsSuperAdmin(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.IsSuperAdmin() {
			return true, nil
		}
	}
	return false, nil
}
