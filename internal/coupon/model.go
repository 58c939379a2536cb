package coupon

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

func (t DiscountType) String() string {
	return string(t)
}

// Reason explains why a coupon was rejected.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonCodeRequired      Reason = "CODE_REQUIRED"
	ReasonInvalidAmount     Reason = "INVALID_AMOUNT"
	ReasonNotFound          Reason = "NOT_FOUND"
	ReasonBelowMinimum      Reason = "BELOW_MINIMUM"
	ReasonUsageLimitReached Reason = "USAGE_LIMIT_REACHED"
	ReasonNotStarted        Reason = "NOT_STARTED"
	ReasonExpired           Reason = "EXPIRED"
	ReasonInvalid           Reason = "INVALID"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID           uuid.UUID           `json:"id"`
	Code         string              `json:"code"`
	Description  string              `json:"description,omitempty"`
	DiscountType DiscountType        `json:"discount_type"`
	Value        decimal.Decimal     `json:"value"`
	MinPurchase  decimal.NullDecimal `json:"min_purchase"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
	StartsAt     time.Time           `json:"starts_at"`
	EndsAt       time.Time           `json:"ends_at"`
	UsageCap     *int                `json:"usage_cap,omitempty"`
	UsageCount   int                 `json:"usage_count"`
	Active       bool                `json:"active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) meetsMinimum(amount decimal.Decimal) bool {
	return !c.MinPurchase.Valid || amount.GreaterThanOrEqual(c.MinPurchase.Decimal)
}

func (c *Coupon) hasUsesLeft() bool {
	return c.UsageCap == nil || c.UsageCount < *c.UsageCap
}

func (c *Coupon) inWindow(now time.Time) bool {
	return !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}

// IsValid reports whether the coupon can be applied to amount at now.
func (c *Coupon) IsValid(amount decimal.Decimal, now time.Time) bool {
	return c.Active && c.inWindow(now) && c.meetsMinimum(amount) && c.hasUsesLeft()
}

// RejectReason returns the first failed condition, checked in the order
// minimum purchase, usage cap, validity window.
func (c *Coupon) RejectReason(amount decimal.Decimal, now time.Time) Reason {
	switch {
	case !c.Active:
		return ReasonNotFound
	case !c.meetsMinimum(amount):
		return ReasonBelowMinimum
	case !c.hasUsesLeft():
		return ReasonUsageLimitReached
	case now.Before(c.StartsAt):
		return ReasonNotStarted
	case now.After(c.EndsAt):
		return ReasonExpired
	case !c.IsValid(amount, now):
		return ReasonInvalid
	default:
		return ReasonNone
	}
}

// Discount computes the discount for amount, rounded to cents. The caller
// is expected to have checked validity first. The result never exceeds
// amount.
func (c *Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		d = amount.Mul(c.Value).Div(hundred)
		if c.MaxDiscount.Valid && d.GreaterThan(c.MaxDiscount.Decimal) {
			d = c.MaxDiscount.Decimal
		}
	case DiscountFixed:
		d = c.Value
	default:
		return decimal.Zero
	}
	return decimal.Min(d, amount).Round(2)
}

// Summary is the client-facing projection of a coupon.
type Summary struct {
	Code         string              `json:"code"`
	Description  string              `json:"description,omitempty"`
	DiscountType DiscountType        `json:"discount_type"`
	Value        decimal.Decimal     `json:"value"`
	MinPurchase  decimal.NullDecimal `json:"min_purchase"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
	EndsAt       time.Time           `json:"ends_at"`
}

func (c *Coupon) Summary() *Summary {
	return &Summary{
		Code:         c.Code,
		Description:  c.Description,
		DiscountType: c.DiscountType,
		Value:        c.Value,
		MinPurchase:  c.MinPurchase,
		MaxDiscount:  c.MaxDiscount,
		EndsAt:       c.EndsAt,
	}
}

// ValidationResult is returned for every validation attempt; business
// rejections are reported through Valid and Reason, never as errors.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Reason   Reason          `json:"reason,omitempty"`
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
	Coupon   *Summary        `json:"coupon,omitempty"`
}

func rejected(reason Reason, message string) *ValidationResult {
	return &ValidationResult{Reason: reason, Message: message, Discount: decimal.Zero}
}

func (r Reason) message(c *Coupon) string {
	switch r {
	case ReasonCodeRequired:
		return "coupon code is required"
	case ReasonInvalidAmount:
		return "amount must be greater than zero"
	case ReasonNotFound:
		return "coupon not found or inactive"
	case ReasonBelowMinimum:
		return "minimum purchase of " + c.MinPurchase.Decimal.StringFixed(2) + " required"
	case ReasonUsageLimitReached:
		return "coupon usage limit reached"
	case ReasonNotStarted:
		return "coupon is not active yet"
	case ReasonExpired:
		return "coupon has expired"
	default:
		return "coupon is not valid"
	}
}
