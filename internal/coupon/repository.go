package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/db"
)

var ErrCouponExhausted = apperr.Conflict("coupon usage limit reached")

type Repository interface {
	// GetActiveByCode returns an active coupon; inactive coupons are
	// reported as not found.
	GetActiveByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUsage bumps usage_count only while it stays within the cap.
	// It reports false when the cap was already reached.
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetActiveByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT id, code, COALESCE(description, ''), discount_type, discount_value,
		       min_purchase, max_discount, starts_at, ends_at, usage_cap, usage_count,
		       active, created_at, updated_at
		FROM coupons
		WHERE code = $1 AND active
	`

	var c Coupon
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.DiscountType,
		&c.Value,
		&c.MinPurchase,
		&c.MaxDiscount,
		&c.StartsAt,
		&c.EndsAt,
		&c.UsageCap,
		&c.UsageCount,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Coupon", "code", code)
		}
		return nil, fmt.Errorf("repository: failed to select coupon %s: %w", code, err)
	}

	return &c, nil
}

func (r *postgresRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	conn := db.Conn(ctx, r.db)

	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE code = $1 AND active AND (usage_cap IS NULL OR usage_count < usage_cap)
	`

	cmdTag, err := conn.Exec(ctx, query, code)
	if err != nil {
		return false, fmt.Errorf("repository: failed to increment usage of coupon %s: %w", code, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	err = conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM coupons WHERE code = $1 AND active)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check coupon %s: %w", code, err)
	}
	if !exists {
		return false, apperr.NotFound("Coupon", "code", code)
	}

	return false, nil
}
