package property

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"estatehub/internal/platform/database"
	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
)

// PostgresStore persists properties in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const propertyColumns = `id, tenant_id, slug, title, description, property_type, purpose, status, featured, tags,
	currency, sale_price, rent_price, rent_period, secondary_prices,
	address, neighborhood, city, state, country, lat, lng,
	area, area_unit, bedrooms, bathrooms, parking_spaces, year_built,
	views, leads, favorites, last_view_at, created_at, updated_at`

const effectivePrice = `(CASE WHEN purpose = 'sale' THEN sale_price ELSE rent_price END)`

var sortColumns = map[query.Field]string{
	query.FieldCreatedAt: "created_at",
	query.FieldUpdatedAt: "updated_at",
	query.FieldPrice:     effectivePrice,
	query.FieldTitle:     `LOWER(title) COLLATE "C"`,
	query.FieldArea:      "area",
	query.FieldBedrooms:  "bedrooms",
	query.FieldViews:     "views",
	query.FieldYearBuilt: "year_built",
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Property) error {
	args, err := writeArgs(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)
	`
	args = append(args, p.Analytics.Views, p.Analytics.Leads, p.Analytics.Favorites,
		p.Analytics.LastViewAt, p.CreatedAt, p.UpdatedAt)
	if _, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("property slug must be unique within tenant: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

// Update writes every mutable column. Analytics counters and created_at are never overwritten.
func (s *PostgresStore) Update(ctx context.Context, p *models.Property) error {
	args, err := writeArgs(p)
	if err != nil {
		return err
	}
	args = append(args, p.UpdatedAt)
	query := `
		UPDATE properties
		SET slug = $3, title = $4, description = $5, property_type = $6, purpose = $7, status = $8,
			featured = $9, tags = $10, currency = $11, sale_price = $12, rent_price = $13,
			rent_period = $14, secondary_prices = $15, address = $16, neighborhood = $17,
			city = $18, state = $19, country = $20, lat = $21, lng = $22, area = $23,
			area_unit = $24, bedrooms = $25, bathrooms = $26, parking_spaces = $27,
			year_built = $28, updated_at = $29
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("property slug must be unique within tenant: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("update property: %w", err)
	}
	return expectOneRow(res, "update property")
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) error {
	res, err := tx.QuerierFor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM properties WHERE id = $1 AND tenant_id = $2`,
		uuid.UUID(propertyID), uuid.UUID(tenantID))
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return expectOneRow(res, "delete property")
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) (*models.Property, error) {
	return s.findOne(ctx, "id = $2", uuid.UUID(tenantID), uuid.UUID(propertyID))
}

func (s *PostgresStore) FindBySlug(ctx context.Context, tenantID id.TenantID, slug string) (*models.Property, error) {
	return s.findOne(ctx, "slug = $2", uuid.UUID(tenantID), slug)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, tenantID uuid.UUID, arg any) (*models.Property, error) {
	q := `SELECT ` + propertyColumns + ` FROM properties WHERE tenant_id = $1 AND ` + where
	p, err := scanProperty(tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, q, tenantID, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SlugsWithPrefix(ctx context.Context, tenantID id.TenantID, base string) ([]string, error) {
	rows, err := tx.QuerierFor(ctx, s.db).QueryContext(ctx,
		`SELECT slug FROM properties WHERE tenant_id = $1 AND (slug = $2 OR slug LIKE $3 ESCAPE '\') ORDER BY slug`,
		uuid.UUID(tenantID), base, escapeLike(base)+"-%")
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}

// List evaluates the filter in SQL. Ordering matches query.Sort.Compare:
// NULLS LAST in both directions and id ascending as the tie-break.
func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, f query.Filter, sort query.Sort, page query.Page) (*query.Result, error) {
	where, args := filterClause(tenantID, f)
	q := tx.QuerierFor(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count properties: %w", err)
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	dir := "ASC"
	if sort.Direction == query.Desc {
		dir = "DESC"
	}
	stmt := fmt.Sprintf(`SELECT %s FROM properties WHERE %s ORDER BY %s %s NULLS LAST, id ASC LIMIT $%d OFFSET $%d`,
		propertyColumns, where, column, dir, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Property, 0, page.Limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return &query.Result{Items: items, Total: total}, nil
}

func filterClause(tenantID id.TenantID, f query.Filter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{uuid.UUID(tenantID)}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.PropertyType != "" {
		add("property_type = ?", string(f.PropertyType))
	}
	if f.Purpose != "" {
		add("purpose = ?", string(f.Purpose))
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Featured != nil {
		add("featured = ?", *f.Featured)
	}
	if f.MinBedrooms != nil {
		add("bedrooms >= ?", *f.MinBedrooms)
	}
	if f.MinPrice != nil {
		add(effectivePrice+" >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(effectivePrice+" <= ?", *f.MaxPrice)
	}
	if f.City != "" {
		add(`city ILIKE ? ESCAPE '\'`, "%"+escapeLike(f.City)+"%")
	}
	if f.Search != "" {
		add(`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\' OR address ILIKE ? ESCAPE '\'
			OR neighborhood ILIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS tag WHERE tag ILIKE ? ESCAPE '\'))`,
			"%"+escapeLike(f.Search)+"%")
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PostgresStore) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var n int
	err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties WHERE tenant_id = $1`, uuid.UUID(tenantID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := tx.QuerierFor(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return n, nil
}

// Increment bumps one counter with a single atomic UPDATE.
func (s *PostgresStore) Increment(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, c Counter, at time.Time) error {
	var set string
	switch c {
	case CounterViews:
		set = "views = views + 1, last_view_at = $3"
	case CounterLeads:
		set = "leads = leads + 1"
	case CounterFavorites:
		set = "favorites = favorites + 1"
	default:
		return fmt.Errorf("unknown counter %q: %w", c, sentinel.ErrInvalidInput)
	}
	args := []any{uuid.UUID(tenantID), uuid.UUID(propertyID)}
	if c == CounterViews {
		args = append(args, at)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE properties SET `+set+` WHERE tenant_id = $1 AND id = $2`, args...)
	if err != nil {
		return fmt.Errorf("increment %s: %w", c, err)
	}
	return expectOneRow(res, "increment "+string(c))
}

// IncrementViews bumps views on all ids in one statement.
func (s *PostgresStore) IncrementViews(ctx context.Context, tenantID id.TenantID, ids []id.PropertyID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, pid := range ids {
		raw[i] = pid.String()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE properties SET views = views + 1, last_view_at = $3 WHERE tenant_id = $1 AND id = ANY($2::uuid[])`,
		uuid.UUID(tenantID), raw, at)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (s *PostgresStore) Totals(ctx context.Context, tenantID id.TenantID, top int) (*Totals, error) {
	q := tx.QuerierFor(ctx, s.db)
	out := &Totals{}
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(views), 0), COALESCE(SUM(leads), 0), COALESCE(SUM(favorites), 0)
		FROM properties WHERE tenant_id = $1
	`, uuid.UUID(tenantID)).Scan(&out.Properties, &out.Views, &out.Leads, &out.Favorites)
	if err != nil {
		return nil, fmt.Errorf("sum analytics: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE tenant_id = $1 ORDER BY views DESC, id ASC LIMIT $2`,
		uuid.UUID(tenantID), top)
	if err != nil {
		return nil, fmt.Errorf("top viewed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out.TopViewed = append(out.TopViewed, p)
	}
	return out, rows.Err()
}

func expectOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// writeArgs returns the parameters $1..$28 shared by insert and update.
func writeArgs(p *models.Property) ([]any, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsDoc, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	secondary := p.Pricing.Secondary
	if secondary == nil {
		secondary = map[string]decimal.Decimal{}
	}
	secondaryDoc, err := json.Marshal(secondary)
	if err != nil {
		return nil, fmt.Errorf("encode secondary prices: %w", err)
	}
	var lat, lng *float64
	if c := p.Location.Coordinates; c != nil {
		lat, lng = &c.Lat, &c.Lng
	}
	return []any{
		uuid.UUID(p.ID), uuid.UUID(p.TenantID), p.Slug, p.Title, p.Description,
		string(p.PropertyType), string(p.Purpose), string(p.Status), p.Featured, tagsDoc,
		p.Pricing.Currency, nullDecimal(p.Pricing.SalePrice), nullDecimal(p.Pricing.RentPrice),
		nullString(string(p.Pricing.RentPeriod)), secondaryDoc,
		p.Location.Address, p.Location.Neighborhood, p.Location.City, p.Location.State, p.Location.Country,
		lat, lng,
		p.Features.Area, nullString(string(p.Features.AreaUnit)), p.Features.Bedrooms, p.Features.Bathrooms,
		p.Features.ParkingSpaces, p.Features.YearBuilt,
	}, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type propertyRow interface {
	Scan(dest ...any) error
}

func scanProperty(row propertyRow) (*models.Property, error) {
	var (
		p                                  models.Property
		propertyID, tenantID               uuid.UUID
		propertyType, purpose, status      string
		tagsDoc, secondaryDoc              []byte
		salePrice, rentPrice               decimal.NullDecimal
		rentPeriod, areaUnit               sql.NullString
		lat, lng, area                     sql.NullFloat64
		bedrooms, bathrooms, parking, year sql.NullInt64
		lastViewAt                         sql.NullTime
	)
	if err := row.Scan(&propertyID, &tenantID, &p.Slug, &p.Title, &p.Description,
		&propertyType, &purpose, &status, &p.Featured, &tagsDoc,
		&p.Pricing.Currency, &salePrice, &rentPrice, &rentPeriod, &secondaryDoc,
		&p.Location.Address, &p.Location.Neighborhood, &p.Location.City, &p.Location.State, &p.Location.Country,
		&lat, &lng, &area, &areaUnit, &bedrooms, &bathrooms, &parking, &year,
		&p.Analytics.Views, &p.Analytics.Leads, &p.Analytics.Favorites, &lastViewAt,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PropertyID(propertyID)
	p.TenantID = id.TenantID(tenantID)
	p.PropertyType = models.Type(propertyType)
	p.Purpose = models.Purpose(purpose)
	p.Status = models.Status(status)
	p.Pricing.RentPeriod = models.RentPeriod(rentPeriod.String)
	p.Features.AreaUnit = models.AreaUnit(areaUnit.String)
	if salePrice.Valid {
		p.Pricing.SalePrice = &salePrice.Decimal
	}
	if rentPrice.Valid {
		p.Pricing.RentPrice = &rentPrice.Decimal
	}
	if lat.Valid && lng.Valid {
		p.Location.Coordinates = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if area.Valid {
		p.Features.Area = &area.Float64
	}
	p.Features.Bedrooms = intPtr(bedrooms)
	p.Features.Bathrooms = intPtr(bathrooms)
	p.Features.ParkingSpaces = intPtr(parking)
	p.Features.YearBuilt = intPtr(year)
	if lastViewAt.Valid {
		p.Analytics.LastViewAt = &lastViewAt.Time
	}
	if len(tagsDoc) > 0 {
		if err := json.Unmarshal(tagsDoc, &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if len(secondaryDoc) > 0 && string(secondaryDoc) != "{}" {
		if err := json.Unmarshal(secondaryDoc, &p.Pricing.Secondary); err != nil {
			return nil, fmt.Errorf("decode secondary prices: %w", err)
		}
	}
	return &p, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
