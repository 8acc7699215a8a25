package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog entry in its canonical shape.
// Legacy documents are coalesced into this shape by ProductFromDocument.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProductID   string             `bson:"product_id" json:"product_id"`
	Slug        string             `bson:"slug,omitempty" json:"slug,omitempty"`
	ProductName string             `bson:"product_name" json:"product_name"`
	Category    string             `bson:"category" json:"category"`
	Colour      string             `bson:"colour,omitempty" json:"colour,omitempty"`
	Gender      string             `bson:"gender" json:"gender"`
	Collection  string             `bson:"collection,omitempty" json:"collection,omitempty"`
	Images      []string           `bson:"images" json:"images"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Metadata    map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	NewArrival  bool               `bson:"newArrival" json:"newArrival"`
	BestSeller  bool               `bson:"bestSeller" json:"bestSeller"`
	SoldCount   int                `bson:"soldCount" json:"soldCount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Extra keeps stored fields outside the canonical shape (legacy price
	// fields and the like). It is never written back.
	Extra map[string]any `bson:"-" json:"-"`
}

// Variant is a purchasable size/price combination of a product.
type Variant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Size       string             `bson:"size" json:"size"`
	MRP        *float64           `bson:"mrp,omitempty" json:"mrp"`
	SellPrice  *float64           `bson:"sell_price,omitempty" json:"sell_price"`
	Stock      int                `bson:"stock" json:"stock"`
	Attributes map[string]any     `bson:"attributes,omitempty" json:"attributes,omitempty"`
}

// CheapestVariant returns the variant with the lowest sell price, falling back
// to its MRP when the sell price is absent. Variants without either compare as
// +Inf. Ties keep the first variant encountered. Returns nil for no variants.
func (p *Product) CheapestVariant() *Variant {
	var best *Variant
	bestPrice := math.Inf(1)
	for i := range p.Variants {
		v := &p.Variants[i]
		price := v.ListPrice()
		if best == nil || price < bestPrice {
			best = v
			bestPrice = price
		}
	}
	return best
}

// ListPrice is the price a variant is ranked by: sell price, then MRP, then +Inf.
func (v *Variant) ListPrice() float64 {
	if v.SellPrice != nil {
		return *v.SellPrice
	}
	if v.MRP != nil {
		return *v.MRP
	}
	return math.Inf(1)
}

// Identifiers lists every value the product can be looked up by.
func (p *Product) Identifiers() []string {
	ids := make([]string, 0, 3)
	if !p.ID.IsZero() {
		ids = append(ids, p.ID.Hex())
	}
	if p.ProductID != "" {
		ids = append(ids, p.ProductID)
	}
	if p.Slug != "" {
		ids = append(ids, p.Slug)
	}
	return ids
}

// Float returns a pointer to f. Handy for optional prices.
func Float(f float64) *float64 {
	return &f
}
