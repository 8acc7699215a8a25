// Package pricing derives the display price block of a catalog product.
package pricing

import (
	"math"

	"github.com/sashvara/storefront_api/internal/models"
)

// Product-level fields probed for a price, in order, when no variant carries one.
var priceFields = []string{
	"sell_price", "sellPrice", "selling_price", "sellingPrice",
	"sale_price", "salePrice",
	"price", "price_value", "priceValue", "final_price", "finalPrice",
	"discounted_price", "discountedPrice",
	"base_price", "basePrice",
	"amount", "value", "priceObj.amount",
	"pricing.price", "pricing.final", "pricing.amount",
	"prices.0.amount", "prices.0.value",
	"price.amount", "price.value",
	"displayPrice", "display_price",
	"default_variant.price", "options.0.price", "priceRange.minVariantPrice.amount",
	"mrp", "list_price", "listPrice", "compare_at_price", "compareAtPrice",
	"sample.price", "sample.sell_price", "sample.selling_price",
}

// Product-level fields probed for a list price when the canonical variant has none.
var mrpFields = []string{
	"mrp", "MRP", "list_price", "listPrice", "compare_at_price", "compareAtPrice",
	"pricing.mrp", "pricing.list",
	"prices.0.mrp", "prices.0.list",
	"sample.mrp", "sample.mrp_price",
}

// Display is the resolved price block shown for a product.
// DisplayMrp is nil unless it is strictly greater than DisplayPrice.
type Display struct {
	DisplayPrice    *float64 `json:"displayPrice"`
	DisplayMrp      *float64 `json:"displayMrp"`
	DiscountPercent *int     `json:"discountPercent,omitempty"`
	SizesAvailable  []string `json:"sizesAvailable"`
}

// Resolve computes the display block for p. It has no side effects.
func Resolve(p *models.Product) Display {
	d := Display{SizesAvailable: sizes(p.Variants)}

	canonical := p.CheapestVariant()

	var price *float64
	if canonical != nil {
		price = firstSet(canonical.SellPrice, canonical.MRP)
	}
	if price == nil {
		price = probe(p.Extra, priceFields)
	}
	if price == nil {
		return d
	}
	d.DisplayPrice = price

	var mrp *float64
	if canonical != nil && canonical.MRP != nil {
		mrp = canonical.MRP
	} else {
		mrp = probe(p.Extra, mrpFields)
	}
	if mrp != nil && *mrp > *price {
		d.DisplayMrp = mrp
		pct := DiscountPercent(*mrp, *price)
		d.DiscountPercent = &pct
	}
	return d
}

// DiscountPercent is round((mrp - price) / mrp * 100). Callers ensure mrp > 0.
func DiscountPercent(mrp, price float64) int {
	if mrp <= 0 {
		return 0
	}
	return int(math.Round((mrp - price) / mrp * 100))
}

func probe(fields map[string]any, paths []string) *float64 {
	if len(fields) == 0 {
		return nil
	}
	for _, path := range paths {
		v, ok := models.LookupPath(fields, path)
		if !ok {
			continue
		}
		if f := models.NumberPtr(v); f != nil {
			return f
		}
	}
	return nil
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func sizes(variants []models.Variant) []string {
	out := make([]string, 0, len(variants))
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Size == "" || seen[v.Size] {
			continue
		}
		seen[v.Size] = true
		out = append(out, v.Size)
	}
	return out
}
