//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"estatehub/internal/platform/database"
	"estatehub/migrations"
	id "estatehub/pkg/domain"
)

// catalogTables lists module tables in dependency order for truncation.
var catalogTables = []string{"properties", "users", "tenants"}

// PostgresContainer is a migrated catalog database running in Docker.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the embedded migrations
// through the same runner the server uses at startup.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("estatehub_test"),
		postgres.WithUsername("estatehub"),
		postgres.WithPassword("estatehub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		t.Fatalf("postgres dsn: %v", err)
	}

	pool, err := database.New(ctx, database.Config{URL: dsn, MaxOpenConns: 10, MaxIdleConns: 5})
	if err != nil {
		_ = ctr.Terminate(ctx)
		t.Fatalf("connect postgres: %v", err)
	}
	if _, err := pool.Migrate(ctx, migrations.FS); err != nil {
		_ = pool.Close()
		_ = ctr.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	// Shared by the Manager for the whole test binary; Ryuk reaps it on exit.
	return &PostgresContainer{Container: ctr, DSN: dsn, DB: pool.DB()}
}

// TruncateAll empties every catalog table between tests.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	for _, table := range catalogTables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

// CreateTestTenant inserts an active basic tenant and returns its ID.
func (p *PostgresContainer) CreateTestTenant(ctx context.Context, t testing.TB, slug string) id.TenantID {
	t.Helper()
	tenantID := id.NewTenantID()
	if _, err := p.DB.ExecContext(ctx, `
		INSERT INTO tenants (id, slug, name, status, plan, features, limits, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', 'basic', '{}', '{}', NOW(), NOW())`,
		uuid.UUID(tenantID), slug, "Tenant "+slug,
	); err != nil {
		t.Fatalf("insert tenant %s: %v", slug, err)
	}
	return tenantID
}
