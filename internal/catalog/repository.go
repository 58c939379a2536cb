package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/db"
)

// Repository is the read/stock-mutation view of the catalog used by the
// cart and order engines.
type Repository interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	// DecrementStock subtracts quantity only if enough stock remains. It
	// reports false, without error, when the condition did not hold.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	query := `
		SELECT v.id, v.product_id, p.name, s.name, COALESCE(v.color, ''), COALESCE(v.sku, ''),
		       v.stock, v.stock_minimum,
		       COALESCE(p.offer_price, p.price) + COALESCE(v.price_addon, 0),
		       v.active AND p.active
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		JOIN sizes s ON s.id = v.size_id
		WHERE v.id = $1
	`

	var v Variant
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.ProductID,
		&v.ProductName,
		&v.SizeName,
		&v.Color,
		&v.SKU,
		&v.Stock,
		&v.StockMinimum,
		&v.UnitPrice,
		&v.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Variant", "id", id)
		}
		return nil, fmt.Errorf("repository: failed to select variant %s: %w", id, err)
	}

	return &v, nil
}

func (r *postgresRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE product_variants
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, quantity, id)
	if err != nil {
		return false, fmt.Errorf("repository: failed to decrement stock of variant %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("variant_id", id).Int("quantity", quantity).Msg("repository: conditional stock decrement affected no rows")
		return false, nil
	}

	return true, nil
}

func (r *postgresRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE product_variants
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("repository: failed to increment stock of variant %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("Variant", "id", id)
	}

	return nil
}
