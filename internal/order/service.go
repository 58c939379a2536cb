package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
	"github.com/vasiliy-maslov/shop-service/internal/db"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

const (
	maxNumberAttempts = 5
	defaultListLimit  = 20
	maxListLimit      = 100
	recentLimit       = 10
)

type CreateRequest struct {
	ShippingAddress    string
	ShippingCity       string
	ShippingPostalCode string
	ContactPhone       string
	Notes              string
	PaymentMethod      PaymentMethod
	CouponCode         string
}

type ListRequest struct {
	Status Status // empty means any
	Limit  int
	Offset int
}

type Service interface {
	CreateFromCart(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Order, error)
	CancelByUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error)
	ChangeStatusAdmin(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)

	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error)
	GetByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Order, error)

	Get(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, req ListRequest) ([]Order, error)
	ListPending(ctx context.Context) ([]Order, error)
	ListRecent(ctx context.Context) ([]Order, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

// CartStore is the part of the cart storage checkout needs.
type CartStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}

type Inventory interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type Coupons interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*coupon.ValidationResult, error)
	Redeem(ctx context.Context, code string) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Option func(*service)

func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *service) {
		if g != nil {
			s.numbers = g
		}
	}
}

func WithShippingCost(cost decimal.Decimal) Option {
	return func(s *service) {
		s.shippingCost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	orders       Repository
	stats        StatsRepository
	carts        CartStore
	inventory    Inventory
	coupons      Coupons
	users        UserLookup
	tx           db.Transactor
	numbers      NumberGenerator
	shippingCost decimal.Decimal
	now          func() time.Time
}

func NewService(
	orders Repository,
	stats StatsRepository,
	carts CartStore,
	inventory Inventory,
	coupons Coupons,
	users UserLookup,
	tx db.Transactor,
	opts ...Option,
) Service {
	s := &service{
		orders:       orders,
		stats:        stats,
		carts:        carts,
		inventory:    inventory,
		coupons:      coupons,
		users:        users,
		tx:           tx,
		numbers:      RandomNumberGenerator{},
		shippingCost: decimal.Zero,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateCreateRequest(req *CreateRequest) error {
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.ShippingCity = strings.TrimSpace(req.ShippingCity)
	req.ShippingPostalCode = strings.TrimSpace(req.ShippingPostalCode)
	req.ContactPhone = strings.TrimSpace(req.ContactPhone)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.ShippingAddress == "" {
		return apperr.BadRequest("shipping address is required")
	}
	if req.ShippingCity == "" {
		return apperr.BadRequest("shipping city is required")
	}
	if req.PaymentMethod == "" {
		return apperr.BadRequest("payment method is required")
	}
	if !req.PaymentMethod.Valid() {
		return apperr.BadRequest("unknown payment method %q", req.PaymentMethod)
	}
	return nil
}

func (s *service) CreateFromCart(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Order, error) {
	if err := validateCreateRequest(&req); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: invalid checkout request")
		return nil, err
	}

	var (
		created  *Order
		lowStock []catalog.Variant
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lowStock = lowStock[:0]
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		c, err := s.carts.GetByUser(ctx, userID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return apperr.CartEmpty("cannot place an order with an empty cart")
		}

		variants := make(map[uuid.UUID]*catalog.Variant, len(c.Items))
		for _, it := range c.Items {
			v, err := s.inventory.GetVariant(ctx, it.VariantID)
			if err != nil {
				return err
			}
			if !v.HasStock(it.Quantity) {
				return apperr.InsufficientStock(v.ID, it.Quantity, v.Stock)
			}
			variants[it.VariantID] = v
		}

		now := s.now()
		o, err := s.newOrder(ctx, u, req, now)
		if err != nil {
			return err
		}

		for _, it := range c.Items {
			v := variants[it.VariantID]
			line, err := NewLine(o.ID, v, it.Quantity)
			if err != nil {
				return fmt.Errorf("service: failed to generate order line id: %w", err)
			}

			ok, err := s.inventory.DecrementStock(ctx, v.ID, it.Quantity)
			if err != nil {
				return fmt.Errorf("service: failed to reserve stock: %w", err)
			}
			if !ok {
				available := 0
				if fresh, err := s.inventory.GetVariant(ctx, v.ID); err == nil {
					available = fresh.Stock
				}
				return apperr.InsufficientStock(v.ID, it.Quantity, available)
			}
			remaining := *v
			remaining.Stock -= it.Quantity
			if remaining.LowStock() {
				lowStock = append(lowStock, remaining)
			}
			o.Lines = append(o.Lines, line)
		}
		o.RecalculateTotals()

		if code := coupon.NormalizeCode(req.CouponCode); code != "" {
			result, err := s.coupons.Validate(ctx, code, o.Subtotal)
			if err != nil {
				return fmt.Errorf("service: failed to validate coupon: %w", err)
			}
			if !result.Valid {
				log.Warn().Str("code", code).Str("reason", string(result.Reason)).Stringer("user_id", userID).Msg("service: checkout rejected because of invalid coupon")
				return apperr.BadRequest("invalid coupon: %s", result.Message)
			}
			if err := s.coupons.Redeem(ctx, code); err != nil {
				return err
			}
			o.Discount = result.Discount
			o.CouponCode = &code
			o.RecalculateTotals()
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		if err := s.carts.ClearItems(ctx, c.ID); err != nil {
			return fmt.Errorf("service: failed to clear cart after checkout: %w", err)
		}

		created = o
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: checkout failed")
		return nil, err
	}

	log.Info().
		Stringer("order_id", created.ID).
		Str("number", created.Number).
		Stringer("user_id", userID).
		Str("total", created.Total.StringFixed(2)).
		Msg("service: order created successfully")
	for _, v := range lowStock {
		log.Warn().
			Stringer("variant_id", v.ID).
			Str("variant", v.Description()).
			Int("stock", v.Stock).
			Int("stock_minimum", v.StockMinimum).
			Msg("service: variant stock at or below minimum")
	}
	return created, nil
}

func (s *service) newOrder(ctx context.Context, u *user.User, req CreateRequest, now time.Time) (*Order, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}
	number, err := s.nextNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	phone := req.ContactPhone
	if phone == "" {
		phone = u.Phone
	}

	return &Order{
		ID:                 id,
		Number:             number,
		UserID:             u.ID,
		Status:             StatusPending,
		ShippingCost:       s.shippingCost,
		Discount:           decimal.Zero,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingPostalCode: req.ShippingPostalCode,
		ContactPhone:       phone,
		Notes:              req.Notes,
		PaymentMethod:      req.PaymentMethod,
		PlacedAt:           now,
		UpdatedAt:          now,
		Lines:              make([]Line, 0),
	}, nil
}

func (s *service) nextNumber(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := s.numbers.Generate(now)
		exists, err := s.orders.ExistsByNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("service: failed to check order number: %w", err)
		}
		if !exists {
			return number, nil
		}
		log.Warn().Str("number", number).Int("attempt", attempt+1).Msg("service: generated order number already taken")
	}
	return "", apperr.Duplicate("could not allocate a unique order number after %d attempts", maxNumberAttempts)
}

// transition applies to on a locked order, restoring stock when an open
// order gets cancelled.
func (s *service) transition(ctx context.Context, o *Order, to Status) error {
	from := o.Status
	if err := CanTransition(from, to); err != nil {
		log.Warn().
			Stringer("order_id", o.ID).
			Stringer("current_status", from).
			Stringer("new_status", to).
			Msg("service: invalid status transition attempt")
		return err
	}

	if to == StatusCancelled && !o.IsFinalized() {
		for _, l := range o.Lines {
			if err := s.inventory.IncrementStock(ctx, l.VariantID, l.Quantity); err != nil {
				return fmt.Errorf("service: failed to restore stock for variant %s: %w", l.VariantID, err)
			}
		}
	}

	now := s.now()
	switch to {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	}
	o.Status = to
	o.UpdatedAt = now

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("old_status", from).Stringer("new_status", to).Msg("service: order status updated successfully")
	return nil
}

func (s *service) CancelByUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	var result *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			log.Warn().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: user tried to cancel a foreign order")
			return apperr.NotFound("Order", "id", orderID)
		}
		if !o.CanBeCancelledByUser() {
			return apperr.BadRequest("order cannot be cancelled in status %s", o.Status)
		}
		if err := s.transition(ctx, o, StatusCancelled); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ChangeStatusAdmin(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	if newStatus == "" {
		return nil, apperr.BadRequest("new status is required")
	}
	if !newStatus.Valid() {
		return nil, apperr.BadRequest("unknown order status %q", newStatus)
	}

	var result *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, o, newStatus); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("Order", "id", orderID)
	}
	return o, nil
}

func (s *service) GetByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*Order, error) {
	o, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("Order", "number", number)
	}
	return o, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orders.List(ctx, Filter{UserID: uuid.NullUUID{UUID: userID, Valid: true}})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("service: order not found by id")
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperr.BadRequest("order number is required")
	}

	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to fetch order by number: %w", err)
	}
	return o, nil
}

func (s *service) List(ctx context.Context, req ListRequest) ([]Order, error) {
	f := Filter{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, apperr.BadRequest("unknown order status %q", req.Status)
		}
		f.Statuses = []Status{req.Status}
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		return nil, apperr.BadRequest("offset cannot be negative")
	}

	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListPending(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx, Filter{
		Statuses:    []Status{StatusPending, StatusConfirmed},
		OldestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list pending orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListRecent(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx, Filter{Limit: recentLimit})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list recent orders: %w", err)
	}
	return orders, nil
}

// CountByStatus reports a count for every known status, zero included.
func (s *service) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	counts, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count orders: %w", err)
	}

	result := make(map[Status]int64, len(Statuses))
	for _, st := range Statuses {
		result[st] = counts[st]
	}
	return result, nil
}
