package models

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Defaults applied to imported rows that leave the field blank.
const (
	DefaultImportCategory = "Uncategorized"
	DefaultImportGender   = "unisex"
)

// ErrImportMissingProductID rejects rows that cannot be upserted.
var ErrImportMissingProductID = errors.New("row has no product_id")

// ProductFromImport normalizes one row of a catalog export. Keys are trimmed,
// the truncated "categor" column is read as category, and a row with
// top-level size/mrp/sell_price but no variants becomes a single variant.
// Every variant lacking a sell price falls back to its MRP.
func ProductFromImport(row map[string]any) (Product, error) {
	doc := make(map[string]any, len(row))
	for k, v := range row {
		key := strings.TrimSpace(k)
		if key == "categor" {
			if _, exists := doc["category"]; exists {
				continue
			}
			key = "category"
		}
		doc[key] = v
	}

	p := ProductFromDocument(doc)
	p.ProductID = strings.TrimSpace(p.ProductID)
	if p.ProductID == "" {
		return Product{}, ErrImportMissingProductID
	}
	p.ProductName = strings.TrimSpace(p.ProductName)
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		p.Category = DefaultImportCategory
	}
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	if p.Gender == "" {
		p.Gender = DefaultImportGender
	}

	if len(p.Variants) == 0 {
		if v, ok := flatRowVariant(doc); ok {
			p.Variants = []Variant{v}
		}
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID.IsZero() {
			v.ID = primitive.NewObjectID()
		}
		v.Size = NormalizeSize(v.Size)
		if v.SellPrice == nil && v.MRP != nil {
			v.SellPrice = Float(*v.MRP)
		}
	}

	// Flat price columns were folded into the variant.
	for _, k := range []string{"size", "mrp", "sell_price", "stock"} {
		delete(p.Extra, k)
	}
	return p, nil
}

func flatRowVariant(doc map[string]any) (Variant, bool) {
	size := asString(doc["size"])
	mrp := NumberPtr(doc["mrp"])
	sell := NumberPtr(doc["sell_price"])
	if strings.TrimSpace(size) == "" && mrp == nil && sell == nil {
		return Variant{}, false
	}
	v := Variant{Size: size, MRP: mrp, SellPrice: sell}
	if n, ok := ToNumber(doc["stock"]); ok && n > 0 {
		v.Stock = int(n)
	}
	return v, true
}
