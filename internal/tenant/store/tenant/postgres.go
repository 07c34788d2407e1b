package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estatehub/internal/platform/database"
	"estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// PostgresStore persists tenants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const tenantColumns = `id, slug, domain, name, status, plan, features, limits,
	license_expires_at, last_activity_at, branding, contact, business, created_at, updated_at`

// Create inserts a tenant, joining the transaction in ctx when present.
func (s *PostgresStore) Create(ctx context.Context, t *models.Tenant) error {
	docs, err := encodeDocs(t)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.QuerierFor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Slug, t.Domain, t.Name, string(t.Status), string(t.Plan),
		docs.features, docs.limits, t.LicenseExpiresAt, t.LastActivityAt,
		docs.branding, docs.contact, docs.business, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return uniqueViolation(err)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// Update writes every mutable column of t.
func (s *PostgresStore) Update(ctx context.Context, t *models.Tenant) error {
	docs, err := encodeDocs(t)
	if err != nil {
		return err
	}
	query := `
		UPDATE tenants
		SET slug = $2, domain = $3, name = $4, status = $5, plan = $6, features = $7, limits = $8,
			license_expires_at = $9, branding = $10, contact = $11, business = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Slug, t.Domain, t.Name, string(t.Status), string(t.Plan),
		docs.features, docs.limits, t.LicenseExpiresAt,
		docs.branding, docs.contact, docs.business, t.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return uniqueViolation(err)
		}
		return fmt.Errorf("update tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByID retrieves a tenant by its ID.
func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(tenantID))
}

// FindBySlug retrieves a tenant by its exact slug.
func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return s.findOne(ctx, "slug = $1", slug)
}

// FindByDomain retrieves a tenant by custom domain (case-insensitive).
func (s *PostgresStore) FindByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return s.findOne(ctx, "lower(domain) = lower($1)", domain)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where
	t, err := scanTenant(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

// List returns one page of tenants ordered by creation time (newest first) and the total count.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.Tenant, int, error) {
	q := tx.QuerierFor(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC, slug ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Tenant, 0, limit)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tenants: %w", err)
	}
	return out, total, nil
}

// CountByStatus counts tenants per status.
func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := tx.QuerierFor(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM tenants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tenants by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

// TouchActivity records the last time the tenant served a request.
// Concurrent touches keep the latest timestamp.
func (s *PostgresStore) TouchActivity(ctx context.Context, tenantID id.TenantID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET last_activity_at = GREATEST(COALESCE(last_activity_at, $2), $2)
		WHERE id = $1
	`, uuid.UUID(tenantID), at)
	if err != nil {
		return fmt.Errorf("touch tenant activity: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type tenantDocs struct {
	features, limits, branding, contact, business []byte
}

func encodeDocs(t *models.Tenant) (*tenantDocs, error) {
	if t == nil {
		return nil, fmt.Errorf("tenant is required")
	}
	var d tenantDocs
	var err error
	features := t.Features
	if features == nil {
		features = map[models.Feature]bool{}
	}
	limits := t.Limits
	if limits == nil {
		limits = map[models.LimitKey]int{}
	}
	if d.features, err = json.Marshal(features); err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	if d.limits, err = json.Marshal(limits); err != nil {
		return nil, fmt.Errorf("encode limits: %w", err)
	}
	if d.branding, err = json.Marshal(t.Branding); err != nil {
		return nil, fmt.Errorf("encode branding: %w", err)
	}
	if d.contact, err = json.Marshal(t.Contact); err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}
	if d.business, err = json.Marshal(t.Business); err != nil {
		return nil, fmt.Errorf("encode business: %w", err)
	}
	return &d, nil
}

type tenantRow interface {
	Scan(dest ...any) error
}

func scanTenant(row tenantRow) (*models.Tenant, error) {
	var (
		t                                             models.Tenant
		tenantID                                      uuid.UUID
		domain                                        sql.NullString
		status, plan                                  string
		features, limits, branding, contact, business []byte
		licenseExpiresAt, lastActivityAt              sql.NullTime
	)
	if err := row.Scan(&tenantID, &t.Slug, &domain, &t.Name, &status, &plan, &features, &limits,
		&licenseExpiresAt, &lastActivityAt, &branding, &contact, &business, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ID = id.TenantID(tenantID)
	t.Status = models.Status(status)
	t.Plan = models.Plan(plan)
	if domain.Valid {
		t.Domain = &domain.String
	}
	if licenseExpiresAt.Valid {
		t.LicenseExpiresAt = &licenseExpiresAt.Time
	}
	if lastActivityAt.Valid {
		t.LastActivityAt = &lastActivityAt.Time
	}
	for _, doc := range []struct {
		raw  []byte
		dest any
	}{
		{features, &t.Features},
		{limits, &t.Limits},
		{branding, &t.Branding},
		{contact, &t.Contact},
		{business, &t.Business},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return nil, fmt.Errorf("decode tenant document: %w", err)
		}
	}
	if t.Features == nil {
		t.Features = map[models.Feature]bool{}
	}
	if t.Limits == nil {
		t.Limits = map[models.LimitKey]int{}
	}
	return &t, nil
}

func uniqueViolation(err error) error {
	if database.IsUniqueViolation(err, "tenants_domain_key") {
		return fmt.Errorf("tenant domain must be unique: %w", sentinel.ErrDuplicate)
	}
	return fmt.Errorf("tenant slug must be unique: %w", sentinel.ErrDuplicate)
}
