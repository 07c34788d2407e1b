package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

func newTenant(t *testing.T, slug string) *models.Tenant {
	t.Helper()
	tenant, err := models.NewTenant(id.TenantID(uuid.New()), slug, "Tenant "+slug, models.PlanBasic, time.Now())
	require.NoError(t, err)
	return tenant
}

func TestCreate_IndexesSlugAndDomain(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant(t, "acme")
	domain := "Acme.Example.com"
	tenant.Domain = &domain

	require.NoError(t, store.Create(ctx, tenant))

	bySlug, err := store.FindBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, bySlug.ID)

	byDomain, err := store.FindByDomain(ctx, "acme.example.COM")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, byDomain.ID)
}

func TestCreate_DuplicateSlugOrDomain(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	domain := "acme.example.com"
	first := newTenant(t, "acme")
	first.Domain = &domain
	require.NoError(t, store.Create(ctx, first))

	err := store.Create(ctx, newTenant(t, "acme"))
	assert.ErrorIs(t, err, sentinel.ErrDuplicate)

	second := newTenant(t, "other")
	second.Domain = &domain
	err = store.Create(ctx, second)
	assert.ErrorIs(t, err, sentinel.ErrDuplicate)
}

func TestCreate_RolledBackWithUnitOfWork(t *testing.T) {
	store := NewInMemory()
	runner := tx.NewMemory()

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, store.Create(ctx, newTenant(t, "acme")))
		return errors.New("admin creation failed")
	})
	require.Error(t, err)

	_, err = store.FindBySlug(context.Background(), "acme")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFindReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant(t, "acme")
	require.NoError(t, store.Create(ctx, tenant))

	found, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	found.Name = "mutated"
	found.Limits[models.LimitProperties] = 1000

	again, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tenant acme", again.Name)
	assert.Equal(t, 25, again.Limits[models.LimitProperties])
}

func TestUpdate_ReindexesDomain(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant(t, "acme")
	old := "old.example.com"
	tenant.Domain = &old
	require.NoError(t, store.Create(ctx, tenant))

	updated := tenant.Clone()
	next := "new.example.com"
	updated.Domain = &next
	require.NoError(t, store.Update(ctx, updated))

	_, err := store.FindByDomain(ctx, old)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	found, err := store.FindByDomain(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	assert.ErrorIs(t, store.Update(ctx, newTenant(t, "ghost")), sentinel.ErrNotFound)
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	base := time.Now()
	for i, slug := range []string{"aa", "bb", "cc"} {
		tenant := newTenant(t, slug)
		tenant.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, tenant))
	}

	page, total, err := store.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "cc", page[0].Slug)
	assert.Equal(t, "bb", page[1].Slug)

	page, _, err = store.List(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCountByStatusAndTouch(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	active := newTenant(t, "aa")
	suspended := newTenant(t, "bb")
	suspended.Status = models.StatusSuspended
	require.NoError(t, store.Create(ctx, active))
	require.NoError(t, store.Create(ctx, suspended))

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StatusActive])
	assert.Equal(t, 1, counts[models.StatusSuspended])

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.TouchActivity(ctx, active.ID, at))
	found, err := store.FindByID(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastActivityAt)
	assert.Equal(t, at, *found.LastActivityAt)

	assert.ErrorIs(t, store.TouchActivity(ctx, id.TenantID(uuid.New()), at), sentinel.ErrNotFound)
}
