package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/db"
)

var ErrCartNotFound = apperr.New(apperr.KindNotFound, "cart not found")

// Repository persists carts and their items. The Get* cart lookups lock the
// cart row for the rest of the surrounding transaction.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	GetBySession(ctx context.Context, token string) (*Cart, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// Create inserts c unless the owner already has a cart. It reports
	// whether a row was written.
	Create(ctx context.Context, c *Cart) (bool, error)
	AssignToUser(ctx context.Context, cartID, userID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID, updatedAt, expiresAt time.Time) error
	Delete(ctx context.Context, cartID uuid.UUID) error

	GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const selectCart = `SELECT id, session_token, user_id, created_at, updated_at, expires_at FROM carts `

func (r *postgresRepository) getOne(ctx context.Context, where string, arg any) (*Cart, error) {
	conn := db.Conn(ctx, r.db)

	var c Cart
	err := conn.QueryRow(ctx, selectCart+where+" FOR UPDATE", arg).Scan(
		&c.ID,
		&c.SessionToken,
		&c.UserID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart: %w", err)
	}

	items, err := r.listItems(ctx, conn, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items

	return &c, nil
}

func (r *postgresRepository) listItems(ctx context.Context, conn db.Querier, cartID uuid.UUID) ([]Item, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.variant_id, p.name, s.name, COALESCE(v.color, ''),
		       ci.quantity, ci.unit_price, ci.added_at, ci.updated_at
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		JOIN sizes s ON s.id = v.size_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id
	`

	rows, err := conn.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items of cart %s: %w", cartID, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID,
			&it.CartID,
			&it.VariantID,
			&it.ProductName,
			&it.SizeName,
			&it.Color,
			&it.Quantity,
			&it.UnitPrice,
			&it.AddedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error during cart item iteration: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

func (r *postgresRepository) GetBySession(ctx context.Context, token string) (*Cart, error) {
	return r.getOne(ctx, "WHERE session_token = $1", token)
}

func (r *postgresRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	return r.getOne(ctx, "WHERE user_id = $1", userID)
}

func (r *postgresRepository) Create(ctx context.Context, c *Cart) (bool, error) {
	query := `
		INSERT INTO carts (id, session_token, user_id, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, c.ID, c.SessionToken, c.UserID, c.CreatedAt, c.UpdatedAt, c.ExpiresAt)
	if err != nil {
		if db.IsValueTooLong(err) {
			return false, db.ErrValueTooLong(err)
		}
		return false, fmt.Errorf("repository: failed to insert cart: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

func (r *postgresRepository) AssignToUser(ctx context.Context, cartID, userID uuid.UUID) error {
	query := `UPDATE carts SET user_id = $1, session_token = NULL, updated_at = NOW() WHERE id = $2`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, userID, cartID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Duplicate("user %s already has a cart", userID)
		}
		return fmt.Errorf("repository: failed to assign cart %s: %w", cartID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *postgresRepository) Touch(ctx context.Context, cartID uuid.UUID, updatedAt, expiresAt time.Time) error {
	query := `UPDATE carts SET updated_at = $1, expires_at = $2 WHERE id = $3`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, updatedAt, expiresAt, cartID)
	if err != nil {
		return fmt.Errorf("repository: failed to touch cart %s: %w", cartID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart %s: %w", cartID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *postgresRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	query := `
		SELECT id, cart_id, variant_id, quantity, unit_price, added_at, updated_at
		FROM cart_items
		WHERE id = $1
	`

	var it Item
	err := db.Conn(ctx, r.db).QueryRow(ctx, query, itemID).Scan(
		&it.ID,
		&it.CartID,
		&it.VariantID,
		&it.Quantity,
		&it.UnitPrice,
		&it.AddedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Cart item", "id", itemID)
		}
		return nil, fmt.Errorf("repository: failed to select cart item %s: %w", itemID, err)
	}
	return &it, nil
}

func (r *postgresRepository) InsertItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, unit_price, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Conn(ctx, r.db).Exec(ctx, query,
		item.ID, item.CartID, item.VariantID, item.Quantity, item.UnitPrice, item.AddedAt, item.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Duplicate("variant %s is already in cart %s", item.VariantID, item.CartID)
		}
		return fmt.Errorf("repository: failed to insert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, item *Item) error {
	query := `UPDATE cart_items SET quantity = $1, unit_price = $2, updated_at = $3 WHERE id = $4`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, item.Quantity, item.UnitPrice, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %s: %w", item.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("Cart item", "id", item.ID)
	}
	return nil
}

func (r *postgresRepository) MoveItem(ctx context.Context, itemID, cartID uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, `UPDATE cart_items SET cart_id = $1 WHERE id = $2`, cartID, itemID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Duplicate("cart %s already holds the variant of item %s", cartID, itemID)
		}
		return fmt.Errorf("repository: failed to move cart item %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("Cart item", "id", itemID)
	}
	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %s: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("Cart item", "id", itemID)
	}
	return nil
}

func (r *postgresRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	if _, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("repository: failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
