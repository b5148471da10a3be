package products

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Product is one sellable apparel item, always attached to a category. The
// category is the unit of fine-grained access control: what a user may do
// with a product follows from their grant on its category.
type Product struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"category_id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	PriceCents   int64     `json:"price_cents"`
	PriceDisplay string    `json:"price_display"`
	Stock        int32     `json:"stock"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders cents as a grouped decimal string for list payloads.
func FormatPrice(cents int64) string {
	return pricePrinter.Sprintf("%.2f", float64(cents)/100)
}
