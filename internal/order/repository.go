package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/db"
)

// Filter narrows List. Zero Limit means no limit.
type Filter struct {
	UserID      uuid.NullUUID
	Statuses    []Status
	Limit       int
	Offset      int
	OldestFirst bool
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// LockByID is GetByID holding the row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	conn := db.Conn(ctx, r.db)

	queryOrder := `
		INSERT INTO orders (
			id, number, user_id, status, subtotal, shipping_cost, discount, total, coupon_code,
			shipping_address, shipping_city, shipping_postal_code, contact_phone, notes,
			payment_method, payment_reference, placed_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), $15, $16, $17, $18)
	`
	_, err := conn.Exec(ctx, queryOrder,
		o.ID,
		o.Number,
		o.UserID,
		string(o.Status),
		o.Subtotal,
		o.ShippingCost,
		o.Discount,
		o.Total,
		o.CouponCode,
		o.ShippingAddress,
		o.ShippingCity,
		o.ShippingPostalCode,
		o.ContactPhone,
		o.Notes,
		string(o.PaymentMethod),
		o.PaymentReference,
		o.PlacedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn().Err(err).Str("number", o.Number).Msg("repository: order number collision")
			return apperr.Duplicate("order number %s already exists", o.Number)
		}
		if db.IsValueTooLong(err) {
			return db.ErrValueTooLong(err)
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryLine := `
		INSERT INTO order_lines (
			id, order_id, position, variant_id, quantity, unit_price, subtotal,
			product_name, size_name, color, sku
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))
	`
	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		_, err = conn.Exec(ctx, queryLine,
			l.ID,
			o.ID,
			i,
			l.VariantID,
			l.Quantity,
			l.UnitPrice,
			l.Subtotal,
			l.ProductName,
			l.SizeName,
			l.Color,
			l.SKU,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.ID, err)
		}
	}

	return nil
}

const selectOrder = `
	SELECT id, number, user_id, status, subtotal, shipping_cost, discount, total, coupon_code,
	       shipping_address, shipping_city, COALESCE(shipping_postal_code, ''),
	       COALESCE(contact_phone, ''), COALESCE(notes, ''), payment_method, payment_reference,
	       placed_at, updated_at, shipped_at, delivered_at
	FROM orders
`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.Number,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Discount,
		&o.Total,
		&o.CouponCode,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingPostalCode,
		&o.ContactPhone,
		&o.Notes,
		&o.PaymentMethod,
		&o.PaymentReference,
		&o.PlacedAt,
		&o.UpdatedAt,
		&o.ShippedAt,
		&o.DeliveredAt,
	)
}

func (r *postgresRepository) getOne(ctx context.Context, where, field string, arg any) (*Order, error) {
	conn := db.Conn(ctx, r.db)

	var o Order
	if err := scanOrder(conn.QueryRow(ctx, selectOrder+where, arg), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Order", field, arg)
		}
		return nil, fmt.Errorf("repository: failed to select order by %s %v: %w", field, arg, err)
	}

	orders := []Order{o}
	if err := r.loadLines(ctx, conn, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "WHERE id = $1", "id", id)
}

func (r *postgresRepository) LockByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, "WHERE id = $1 FOR UPDATE", "id", id)
}

func (r *postgresRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, "WHERE number = $1", "number", number)
}

func (r *postgresRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check order number %s: %w", number, err)
	}
	return exists, nil
}

func (r *postgresRepository) List(ctx context.Context, f Filter) ([]Order, error) {
	conn := db.Conn(ctx, r.db)

	var (
		sb    strings.Builder
		conds []string
		args  []any
	)
	sb.WriteString(selectOrder)

	if f.UserID.Valid {
		args = append(args, f.UserID.UUID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if f.OldestFirst {
		sb.WriteString(" ORDER BY placed_at ASC, id")
	} else {
		sb.WriteString(" ORDER BY placed_at DESC, id")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.loadLines(ctx, conn, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadLines fills Lines of every order with a single query.
func (r *postgresRepository) loadLines(ctx context.Context, conn db.Querier, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID.String()
		index[orders[i].ID] = i
		orders[i].Lines = make([]Line, 0)
	}

	query := `
		SELECT id, order_id, variant_id, quantity, unit_price, subtotal, product_name,
		       COALESCE(size_name, ''), COALESCE(color, ''), COALESCE(sku, '')
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.VariantID,
			&l.Quantity,
			&l.UnitPrice,
			&l.Subtotal,
			&l.ProductName,
			&l.SizeName,
			&l.Color,
			&l.SKU,
		); err != nil {
			return fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order lines: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2, shipped_at = $3, delivered_at = $4
		WHERE id = $5
	`

	cmdTag, err := db.Conn(ctx, r.db).Exec(ctx, query, string(o.Status), o.UpdatedAt, o.ShippedAt, o.DeliveredAt, o.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %s: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("Order", "id", o.ID)
	}
	return nil
}
