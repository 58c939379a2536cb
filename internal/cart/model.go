package cart

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTTL is the sliding expiration applied on every cart mutation.
const DefaultTTL = 7 * 24 * time.Hour

// Cart belongs to either an anonymous session or a user, never both.
type Cart struct {
	ID           uuid.UUID     `json:"id"`
	SessionToken *string       `json:"session_token,omitempty"`
	UserID       uuid.NullUUID `json:"user_id"`
	Items        []Item        `json:"items"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

type Item struct {
	ID          uuid.UUID       `json:"id"`
	CartID      uuid.UUID       `json:"cart_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	SizeName    string          `json:"size_name"`
	Color       string          `json:"color,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	AddedAt     time.Time       `json:"added_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (i *Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total is the sum of line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total.Round(2)
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) DistinctCount() int {
	return len(c.Items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c *Cart) FindByVariant(variantID uuid.UUID) *Item {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) findItem(itemID uuid.UUID) *Item {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Identity is the resolved caller. A non-nil UserID wins over the session.
type Identity struct {
	SessionToken string
	UserID       uuid.UUID
}

func (id Identity) IsUser() bool {
	return id.UserID != uuid.Nil
}

// OwnedBy reports whether the cart belongs to the caller.
func (c *Cart) OwnedBy(id Identity) bool {
	if id.IsUser() {
		return c.UserID.Valid && c.UserID.UUID == id.UserID
	}
	return id.SessionToken != "" && c.SessionToken != nil && *c.SessionToken == id.SessionToken
}
