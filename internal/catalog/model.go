package catalog

import (
	"strings"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Variant is a purchasable product/size/color combination as seen by the
// cart and order engines.
type Variant struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SizeName     string          `json:"size_name"`
	Color        string          `json:"color,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Stock        int             `json:"stock"`
	StockMinimum int             `json:"stock_minimum"`
	UnitPrice    decimal.Decimal `json:"unit_price"` // product final price + variant addon
	Active       bool            `json:"active"`
}

func (v *Variant) HasStock(quantity int) bool {
	return v.Stock >= quantity
}

func (v *Variant) LowStock() bool {
	return v.Stock <= v.StockMinimum
}

func (v *Variant) Description() string {
	var sb strings.Builder
	sb.WriteString(v.ProductName)
	if v.SizeName != "" {
		sb.WriteString(" - Size: ")
		sb.WriteString(v.SizeName)
	}
	if v.Color != "" {
		sb.WriteString(" - Color: ")
		sb.WriteString(v.Color)
	}
	return sb.String()
}
