package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"estatehub/internal/access/models"
	"estatehub/internal/platform/database"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, tenant_id, email, name, password_hash, role, permissions, active, created_at, updated_at`

// Create inserts u, joining the transaction in ctx when present.
func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	perms := u.Permissions
	if perms == nil {
		perms = models.Permissions{}
	}
	permissions, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	var tenantID uuid.NullUUID
	if u.TenantID != nil {
		tenantID = uuid.NullUUID{UUID: uuid.UUID(*u.TenantID), Valid: true}
	}
	_, err = tx.QuerierFor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(u.ID), tenantID, models.NormalizeEmail(u.Email), u.Name, u.PasswordHash,
		string(u.Role), permissions, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return fmt.Errorf("user email must be unique: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*models.User, int, error) {
	q := tx.QuerierFor(ctx, s.db)
	var total int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, uuid.UUID(tenantID)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, uuid.UUID(tenantID), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresStore) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var n int
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, uuid.UUID(tenantID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ExistsSuperAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, string(models.RoleSuperAdmin)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check super admin: %w", err)
	}
	return exists, nil
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (*models.User, error) {
	var (
		u           models.User
		userID      uuid.UUID
		tenantID    uuid.NullUUID
		role        string
		permissions []byte
	)
	if err := row.Scan(&userID, &tenantID, &u.Email, &u.Name, &u.PasswordHash, &role,
		&permissions, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	if tenantID.Valid {
		tid := id.TenantID(tenantID.UUID)
		u.TenantID = &tid
	}
	u.Role = models.Role(role)
	u.Permissions = models.Permissions{}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	return &u, nil
}
