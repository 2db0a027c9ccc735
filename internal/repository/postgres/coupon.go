package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/promoforge/coupon-service/internal/domain"
	"github.com/promoforge/coupon-service/internal/repository"
	apperrors "github.com/promoforge/coupon-service/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repository needs. It is also satisfied
// by pgxmock, which the tests use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository implements repository.CouponRepository using PostgreSQL.
// The details payload is stored as schema-less JSONB.
type CouponRepository struct {
	db DB
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(db DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create inserts a new coupon into the database.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	detailsJSON, err := json.Marshal(c.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO coupons (id, type, details, expiration_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.Type,
		detailsJSON,
		c.ExpirationDate,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.InvalidInput("coupon id already exists")
		}
		return fmt.Errorf("insert coupon: %w", err)
	}

	return nil
}

// GetByID retrieves a coupon by its ID.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	query := `
		SELECT id, type, details, expiration_date, created_at, updated_at
		FROM coupons
		WHERE id = $1`

	var (
		c           domain.Coupon
		detailsJSON []byte
	)

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Type,
		&detailsJSON,
		&c.ExpirationDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan coupon: %w", err)
	}

	if err := unmarshalDetails(detailsJSON, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// List returns coupons matching the given filter with the total count.
// Results are ordered by creation time ascending so that pages follow
// catalog insertion order.
func (r *CouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, *filter.Type)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, type, details, expiration_date, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM coupons
		%s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var (
		coupons    []domain.Coupon
		totalCount int
	)

	for rows.Next() {
		var (
			c           domain.Coupon
			detailsJSON []byte
		)

		if err := rows.Scan(
			&c.ID,
			&c.Type,
			&detailsJSON,
			&c.ExpirationDate,
			&c.CreatedAt,
			&c.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan coupon row: %w", err)
		}

		if err := unmarshalDetails(detailsJSON, &c); err != nil {
			return nil, 0, err
		}

		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupon rows: %w", err)
	}

	if coupons == nil {
		coupons = []domain.Coupon{}
	}

	return coupons, totalCount, nil
}

// ListAll returns the full coupon catalog in creation order. Eligibility
// evaluation depends on this ordering being stable across calls.
func (r *CouponRepository) ListAll(ctx context.Context) ([]domain.Coupon, error) {
	query := `
		SELECT id, type, details, expiration_date, created_at, updated_at
		FROM coupons
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var (
			c           domain.Coupon
			detailsJSON []byte
		)

		if err := rows.Scan(
			&c.ID,
			&c.Type,
			&detailsJSON,
			&c.ExpirationDate,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}

		if err := unmarshalDetails(detailsJSON, &c); err != nil {
			return nil, err
		}

		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}

	if coupons == nil {
		coupons = []domain.Coupon{}
	}

	return coupons, nil
}

// Update modifies an existing coupon in the database.
func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	detailsJSON, err := json.Marshal(c.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE coupons
		SET type = $1, details = $2, expiration_date = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query,
		c.Type,
		detailsJSON,
		c.ExpirationDate,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", c.ID)
	}

	return nil
}

// Delete removes a coupon by its ID.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM coupons WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("coupon", id)
	}

	return nil
}

// unmarshalDetails decodes the JSONB details column into the coupon. A NULL
// column yields an empty mapping, never nil, so detail lookups stay safe.
func unmarshalDetails(data []byte, c *domain.Coupon) error {
	if data != nil {
		if err := json.Unmarshal(data, &c.Details); err != nil {
			return fmt.Errorf("unmarshal details: %w", err)
		}
	}
	if c.Details == nil {
		c.Details = domain.Details{}
	}
	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
