package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/catalog"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPaid,
	StatusPreparing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMercadoPago    PaymentMethod = "MERCADO_PAGO"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentMercadoPago, PaymentCashOnDelivery:
		return true
	}
	return false
}

// Line is an immutable snapshot of a purchased variant.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ProductName string          `json:"product_name"`
	SizeName    string          `json:"size_name,omitempty"`
	Color       string          `json:"color,omitempty"`
	SKU         string          `json:"sku,omitempty"`
}

// NewLine snapshots v at its current price.
func NewLine(orderID uuid.UUID, v *catalog.Variant, quantity int) (Line, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Line{}, err
	}
	l := Line{
		ID:          id,
		OrderID:     orderID,
		VariantID:   v.ID,
		ProductName: v.ProductName,
		SizeName:    v.SizeName,
		Color:       v.Color,
		SKU:         v.SKU,
		UnitPrice:   v.UnitPrice,
	}
	l.SetQuantity(quantity)
	return l, nil
}

func (l *Line) SetQuantity(quantity int) {
	l.Quantity = quantity
	l.recompute()
}

func (l *Line) SetPrice(price decimal.Decimal) {
	l.UnitPrice = price
	l.recompute()
}

func (l *Line) recompute() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

type Order struct {
	ID                 uuid.UUID       `json:"id"`
	Number             string          `json:"number"`
	UserID             uuid.UUID       `json:"user_id"`
	Status             Status          `json:"status"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	CouponCode         *string         `json:"coupon_code,omitempty"`
	ShippingAddress    string          `json:"shipping_address"`
	ShippingCity       string          `json:"shipping_city"`
	ShippingPostalCode string          `json:"shipping_postal_code,omitempty"`
	ContactPhone       string          `json:"contact_phone,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	PaymentReference   *string         `json:"payment_reference,omitempty"`
	PlacedAt           time.Time       `json:"placed_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	ShippedAt          *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	Lines              []Line          `json:"lines"`
}

// RecalculateTotals derives subtotal and total from the lines, the shipping
// cost and the discount already set on the order.
func (o *Order) RecalculateTotals() {
	subtotal := decimal.Zero
	for i := range o.Lines {
		subtotal = subtotal.Add(o.Lines[i].Subtotal)
	}
	o.Subtotal = subtotal.Round(2)
	o.Total = o.Subtotal.Add(o.ShippingCost).Sub(o.Discount).Round(2)
}

func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// CanBeCancelledByUser reports whether the customer may still cancel.
func (o *Order) CanBeCancelledByUser() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// IsFinalized reports whether the order reached a terminal status.
func (o *Order) IsFinalized() bool {
	return o.Status.Terminal()
}
