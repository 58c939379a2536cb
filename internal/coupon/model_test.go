package coupon_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func intPtr(v int) *int {
	return &v
}

func baseCoupon() coupon.Coupon {
	return coupon.Coupon{
		Code:         "SAVE10",
		DiscountType: coupon.DiscountPercentage,
		Value:        dec("10"),
		StartsAt:     fixedNow.Add(-24 * time.Hour),
		EndsAt:       fixedNow.Add(24 * time.Hour),
		Active:       true,
	}
}

func TestCoupon_Discount(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *coupon.Coupon)
		amount string
		want   string
	}{
		{name: "percentage", amount: "200.00", want: "20"},
		{name: "percentage_rounds_half_up", mutate: func(c *coupon.Coupon) { c.Value = dec("15") }, amount: "10.03", want: "1.5"},
		{
			name:   "percentage_clamped_to_max",
			mutate: func(c *coupon.Coupon) { c.Value = dec("20"); c.MaxDiscount = nullDec("100") },
			amount: "1000",
			want:   "100",
		},
		{
			name:   "fixed",
			mutate: func(c *coupon.Coupon) { c.DiscountType = coupon.DiscountFixed; c.Value = dec("15") },
			amount: "40",
			want:   "15",
		},
		{
			name:   "fixed_clamped_to_amount",
			mutate: func(c *coupon.Coupon) { c.DiscountType = coupon.DiscountFixed; c.Value = dec("15") },
			amount: "9.99",
			want:   "9.99",
		},
		{
			name:   "percentage_over_hundred_clamped_to_amount",
			mutate: func(c *coupon.Coupon) { c.Value = dec("150") },
			amount: "40",
			want:   "40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got := c.Discount(dec(tt.amount))
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCoupon_RejectReason(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *coupon.Coupon)
		amount string
		want   coupon.Reason
	}{
		{name: "valid", amount: "100", want: coupon.ReasonNone},
		{name: "inactive", mutate: func(c *coupon.Coupon) { c.Active = false }, amount: "100", want: coupon.ReasonNotFound},
		{name: "below_minimum", mutate: func(c *coupon.Coupon) { c.MinPurchase = nullDec("50") }, amount: "49.99", want: coupon.ReasonBelowMinimum},
		{name: "minimum_inclusive", mutate: func(c *coupon.Coupon) { c.MinPurchase = nullDec("50") }, amount: "50", want: coupon.ReasonNone},
		{
			name:   "cap_reached",
			mutate: func(c *coupon.Coupon) { c.UsageCap = intPtr(3); c.UsageCount = 3 },
			amount: "100",
			want:   coupon.ReasonUsageLimitReached,
		},
		{name: "not_started", mutate: func(c *coupon.Coupon) { c.StartsAt = fixedNow.Add(time.Minute) }, amount: "100", want: coupon.ReasonNotStarted},
		{name: "expired", mutate: func(c *coupon.Coupon) { c.EndsAt = fixedNow.Add(-time.Minute) }, amount: "100", want: coupon.ReasonExpired},
		{
			name: "minimum_checked_before_cap_and_window",
			mutate: func(c *coupon.Coupon) {
				c.MinPurchase = nullDec("50")
				c.UsageCap = intPtr(1)
				c.UsageCount = 1
				c.EndsAt = fixedNow.Add(-time.Minute)
			},
			amount: "10",
			want:   coupon.ReasonBelowMinimum,
		},
		{
			name: "cap_checked_before_window",
			mutate: func(c *coupon.Coupon) {
				c.UsageCap = intPtr(1)
				c.UsageCount = 1
				c.EndsAt = fixedNow.Add(-time.Minute)
			},
			amount: "100",
			want:   coupon.ReasonUsageLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			assert.Equal(t, tt.want, c.RejectReason(dec(tt.amount), fixedNow))
			assert.Equal(t, tt.want == coupon.ReasonNone, c.IsValid(dec(tt.amount), fixedNow))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", coupon.NormalizeCode("  save10 "))
	assert.Equal(t, "", coupon.NormalizeCode("   "))
}
