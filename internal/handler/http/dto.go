package http

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

// Money always leaves the service with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

type CartItemResponse struct {
	ID          uuid.UUID `json:"id"`
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SizeName    string    `json:"size_name"`
	Color       string    `json:"color,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
	AddedAt     time.Time `json:"added_at"`
}

type CartResponse struct {
	ID            uuid.UUID          `json:"id"`
	UserID        *uuid.UUID         `json:"user_id,omitempty"`
	SessionToken  *string            `json:"session_token,omitempty"`
	Items         []CartItemResponse `json:"items"`
	Total         string             `json:"total"`
	ItemCount     int                `json:"item_count"`
	DistinctItems int                `json:"distinct_items"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Expired       bool               `json:"expired"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toCartResponse(c *cart.Cart) CartResponse {
	resp := CartResponse{
		ID:            c.ID,
		SessionToken:  c.SessionToken,
		Items:         make([]CartItemResponse, 0, len(c.Items)),
		Total:         money(c.Total()),
		ItemCount:     c.ItemCount(),
		DistinctItems: c.DistinctCount(),
		ExpiresAt:     c.ExpiresAt,
		Expired:       c.IsExpired(time.Now()),
		UpdatedAt:     c.UpdatedAt,
	}
	if c.UserID.Valid {
		id := c.UserID.UUID
		resp.UserID = &id
	}
	for i := range c.Items {
		it := &c.Items[i]
		resp.Items = append(resp.Items, CartItemResponse{
			ID:          it.ID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			SizeName:    it.SizeName,
			Color:       it.Color,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			Subtotal:    money(it.Subtotal()),
			AddedAt:     it.AddedAt,
		})
	}
	return resp
}

type CouponSummaryResponse struct {
	Code         string    `json:"code"`
	Description  string    `json:"description,omitempty"`
	DiscountType string    `json:"discount_type"`
	Value        string    `json:"value"`
	MinPurchase  *string   `json:"min_purchase,omitempty"`
	MaxDiscount  *string   `json:"max_discount,omitempty"`
	EndsAt       time.Time `json:"ends_at"`
}

type CouponValidationResponse struct {
	Valid    bool                   `json:"valid"`
	Reason   string                 `json:"reason,omitempty"`
	Message  string                 `json:"message"`
	Discount string                 `json:"discount"`
	Coupon   *CouponSummaryResponse `json:"coupon,omitempty"`
}

func toCouponSummary(s *coupon.Summary) *CouponSummaryResponse {
	if s == nil {
		return nil
	}
	return &CouponSummaryResponse{
		Code:         s.Code,
		Description:  s.Description,
		DiscountType: s.DiscountType.String(),
		Value:        money(s.Value),
		MinPurchase:  nullMoney(s.MinPurchase),
		MaxDiscount:  nullMoney(s.MaxDiscount),
		EndsAt:       s.EndsAt,
	}
}

func toCouponValidationResponse(res *coupon.ValidationResult) CouponValidationResponse {
	return CouponValidationResponse{
		Valid:    res.Valid,
		Reason:   string(res.Reason),
		Message:  res.Message,
		Discount: money(res.Discount),
		Coupon:   toCouponSummary(res.Coupon),
	}
}

type OrderLineResponse struct {
	ID          uuid.UUID `json:"id"`
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	SizeName    string    `json:"size_name,omitempty"`
	Color       string    `json:"color,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
}

type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Number             string              `json:"number"`
	UserID             uuid.UUID           `json:"user_id"`
	Status             string              `json:"status"`
	Subtotal           string              `json:"subtotal"`
	ShippingCost       string              `json:"shipping_cost"`
	Discount           string              `json:"discount"`
	Total              string              `json:"total"`
	CouponCode         *string             `json:"coupon_code,omitempty"`
	ShippingAddress    string              `json:"shipping_address"`
	ShippingCity       string              `json:"shipping_city"`
	ShippingPostalCode string              `json:"shipping_postal_code,omitempty"`
	ContactPhone       string              `json:"contact_phone,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	PaymentMethod      string              `json:"payment_method"`
	ItemCount          int                 `json:"item_count"`
	Lines              []OrderLineResponse `json:"lines"`
	PlacedAt           time.Time           `json:"placed_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ShippedAt          *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID,
		Number:             o.Number,
		UserID:             o.UserID,
		Status:             o.Status.String(),
		Subtotal:           money(o.Subtotal),
		ShippingCost:       money(o.ShippingCost),
		Discount:           money(o.Discount),
		Total:              money(o.Total),
		CouponCode:         o.CouponCode,
		ShippingAddress:    o.ShippingAddress,
		ShippingCity:       o.ShippingCity,
		ShippingPostalCode: o.ShippingPostalCode,
		ContactPhone:       o.ContactPhone,
		Notes:              o.Notes,
		PaymentMethod:      string(o.PaymentMethod),
		ItemCount:          o.ItemCount(),
		Lines:              make([]OrderLineResponse, 0, len(o.Lines)),
		PlacedAt:           o.PlacedAt,
		UpdatedAt:          o.UpdatedAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ID:          l.ID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			SizeName:    l.SizeName,
			Color:       l.Color,
			SKU:         l.SKU,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			Subtotal:    money(l.Subtotal),
		})
	}
	return resp
}

func toOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}
