//go:build integration

package tenant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"estatehub/internal/tenant/models"
	tenantstore "estatehub/internal/tenant/store/tenant"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
	"estatehub/pkg/testutil"
	"estatehub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *tenantstore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = tenantstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	t := testutil.NewTenantBuilder().WithSlug("acme").WithDomain("acme-homes.com").
		WithCurrencies("USD", "EUR").Build()
	s.Require().NoError(s.store.Create(ctx, t))

	bySlug, err := s.store.FindBySlug(ctx, "acme")
	s.Require().NoError(err)
	s.Equal(t.ID, bySlug.ID)
	s.Equal(t.Limits, bySlug.Limits)
	s.Equal(t.Features, bySlug.Features)
	s.Equal([]string{"USD", "EUR"}, bySlug.Business.SupportedCurrencies)
	s.True(t.CreatedAt.Equal(bySlug.CreatedAt))

	byDomain, err := s.store.FindByDomain(ctx, "acme-homes.com")
	s.Require().NoError(err)
	s.Equal(t.ID, byDomain.ID)

	_, err = s.store.FindBySlug(ctx, "missing")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestDuplicateSlugAndDomain() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, testutil.NewTenantBuilder().WithSlug("acme").WithDomain("acme.com").Build()))

	err := s.store.Create(ctx, testutil.NewTenantBuilder().WithSlug("acme").Build())
	s.True(errors.Is(err, sentinel.ErrDuplicate))

	err = s.store.Create(ctx, testutil.NewTenantBuilder().WithSlug("other").WithDomain("acme.com").Build())
	s.True(errors.Is(err, sentinel.ErrDuplicate))
	s.Contains(err.Error(), "domain")
}

func (s *PostgresStoreSuite) TestUpdateAndCountByStatus() {
	ctx := context.Background()
	t := testutil.NewTenantBuilder().WithSlug("acme").Build()
	s.Require().NoError(s.store.Create(ctx, t))
	s.Require().NoError(s.store.Create(ctx, testutil.NewTenantBuilder().WithSlug("beta").Build()))

	s.Require().NoError(t.ChangeStatus(models.StatusSuspended, testutil.FixedNow.Add(time.Hour)))
	s.Require().NoError(s.store.Update(ctx, t))

	counts, err := s.store.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[models.StatusActive])
	s.Equal(1, counts[models.StatusSuspended])
}

func (s *PostgresStoreSuite) TestListPaginates() {
	ctx := context.Background()
	for i, slug := range []string{"one", "two", "three"} {
		t := testutil.NewTenantBuilder().WithSlug(slug).Build()
		t.CreatedAt = testutil.FixedNow.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(ctx, t))
	}

	page, total, err := s.store.List(ctx, 0, 2)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 2)
	s.Equal("three", page[0].Slug)

	page, _, err = s.store.List(ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("one", page[0].Slug)
}

func (s *PostgresStoreSuite) TestTouchActivity() {
	ctx := context.Background()
	t := testutil.NewTenantBuilder().WithSlug("acme").Build()
	s.Require().NoError(s.store.Create(ctx, t))

	at := testutil.FixedNow.Add(2 * time.Hour)
	s.Require().NoError(s.store.TouchActivity(ctx, t.ID, at))

	got, err := s.store.FindByID(ctx, t.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastActivityAt)
	s.True(at.Equal(*got.LastActivityAt))
}

func (s *PostgresStoreSuite) TestCreateRolledBackWithTransaction() {
	ctx := context.Background()
	runner := tx.NewPostgres(s.postgres.DB)
	boom := errors.New("boom")

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, testutil.NewTenantBuilder().WithSlug("ghost").Build()); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindBySlug(ctx, "ghost")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
