package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProductFromDocument_CanonicalShape(t *testing.T) {
	id := primitive.NewObjectID()
	doc := bson.M{
		"_id":          id,
		"product_id":   "SV-001",
		"product_name": "Linen Kurta",
		"gender":       "women",
		"images":       bson.A{" https://cdn/a.jpg ", "", bson.M{"url": "https://cdn/b.jpg"}, bson.M{"src": "https://cdn/c.jpg"}},
		"variants": bson.A{
			bson.M{"size": " m ", "mrp": int32(999), "sell_price": 799.0, "stock": int32(4)},
		},
		"price": "₹ 1,299",
	}

	p := ProductFromDocument(doc)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, "SV-001", p.ProductID)
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg", "https://cdn/c.jpg"}, p.Images)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "M", p.Variants[0].Size)
	assert.Equal(t, 999.0, *p.Variants[0].MRP)
	assert.Equal(t, 799.0, *p.Variants[0].SellPrice)
	assert.Equal(t, 4, p.Variants[0].Stock)
	assert.Equal(t, "₹ 1,299", p.Extra["price"])
}

func TestProductFromDocument_FlattenedLegacyKeys(t *testing.T) {
	doc := map[string]any{
		"product_id":            "LEG-1",
		"images/10":             "https://cdn/10.jpg",
		"images/2":              "https://cdn/2.jpg",
		"images/0":              "https://cdn/0.jpg",
		"variants/1/variant_size": "l",
		"variants/1/list_price": "1,099",
		"variants/1/price":      "1099",
		"variants/0/title":      "m",
		"variants/0/mrp":        "999",
		"variants/0/sell_price": "799",
		"variants/0/attributes/fabric": "linen",
	}

	p := ProductFromDocument(doc)

	assert.Equal(t, []string{"https://cdn/0.jpg", "https://cdn/2.jpg", "https://cdn/10.jpg"}, p.Images)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "M", p.Variants[0].Size)
	assert.Equal(t, 799.0, *p.Variants[0].SellPrice)
	assert.Equal(t, "linen", p.Variants[0].Attributes["fabric"])
	assert.Equal(t, "L", p.Variants[1].Size)
	assert.Equal(t, 1099.0, *p.Variants[1].MRP)
	assert.Equal(t, 1099.0, *p.Variants[1].SellPrice)
	assert.NotContains(t, p.Extra, "images/0")
	assert.NotContains(t, p.Extra, "variants/0/title")
}

func TestProductFromDocument_ArrayWinsOverFlattened(t *testing.T) {
	doc := bson.M{
		"images":   bson.A{"https://cdn/array.jpg"},
		"images/0": "https://cdn/flat.jpg",
	}
	p := ProductFromDocument(doc)
	assert.Equal(t, []string{"https://cdn/array.jpg"}, p.Images)
	assert.Empty(t, p.Variants)
}

func TestProductFromDocument_BsonD(t *testing.T) {
	doc := bson.M{
		"variants": bson.A{bson.D{{Key: "size", Value: "xl"}, {Key: "sell_price", Value: int64(1500)}}},
		"pricing":  bson.D{{Key: "price", Value: 10}},
	}
	p := ProductFromDocument(doc)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "XL", p.Variants[0].Size)
	assert.Nil(t, p.Variants[0].MRP)

	v, ok := LookupPath(p.Extra, "pricing.price")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestLookupPath(t *testing.T) {
	doc := map[string]any{
		"prices": []any{map[string]any{"amount": "499"}},
		"sample": map[string]any{"mrp": nil},
	}

	v, ok := LookupPath(doc, "prices.0.amount")
	require.True(t, ok)
	assert.Equal(t, "499", v)

	_, ok = LookupPath(doc, "prices.1.amount")
	assert.False(t, ok)
	_, ok = LookupPath(doc, "sample.mrp")
	assert.False(t, ok)
	_, ok = LookupPath(doc, "missing.path")
	assert.False(t, ok)
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"int32", int32(7), 7, true},
		{"rupee string", "₹1,299.50", 1299.5, true},
		{"rs prefix", "Rs. 500", 500, true},
		{"rs prefix no space", "Rs.1299", 1299, true},
		{"rs prefix grouped", "Rs.1,299", 1299, true},
		{"rs prefix with paise", "Rs.1,299.75", 1299.75, true},
		{"leading dot", ".5", 0.5, true},
		{"negative leading dot", "-.5", -0.5, true},
		{"negative", "-20", -20, true},
		{"empty", "", 0, false},
		{"letters", "N/A", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"object amount", map[string]any{"amount": "250"}, 250, true},
		{"object mrp fallback", bson.M{"currency": "INR", "mrp": 900}, 900, true},
		{"decimal128", mustDecimal(t, "349.99"), 349.99, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCheapestVariant(t *testing.T) {
	p := Product{Variants: []Variant{
		{Size: "S"},
		{Size: "M", SellPrice: Float(799)},
		{Size: "L", MRP: Float(799)},
		{Size: "XL", SellPrice: Float(899)},
	}}
	best := p.CheapestVariant()
	require.NotNil(t, best)
	assert.Equal(t, "M", best.Size)

	assert.Nil(t, (&Product{}).CheapestVariant())
}

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}
