package service

import (
	"strings"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

// ProductInput is the payload for creating a product.
type ProductInput struct {
	ProductID   string         `json:"product_id" validate:"required"`
	ProductName string         `json:"product_name" validate:"required"`
	Category    string         `json:"category" validate:"required"`
	Gender      string         `json:"gender" validate:"required"`
	Variants    []VariantInput `json:"variants" validate:"required,dive"`
	Slug        string         `json:"slug"`
	Colour      string         `json:"colour"`
	Collection  string         `json:"collection"`
	Images      []string       `json:"images"`
	Metadata    map[string]any `json:"metadata"`
	NewArrival  bool           `json:"newArrival"`
	BestSeller  bool           `json:"bestSeller"`
}

// VariantInput is one variant in a create or update payload.
type VariantInput struct {
	Size       string         `json:"size" validate:"required"`
	MRP        *float64       `json:"mrp" validate:"omitempty,gte=0"`
	SellPrice  *float64       `json:"sell_price" validate:"omitempty,gte=0"`
	Stock      int            `json:"stock" validate:"gte=0"`
	Attributes map[string]any `json:"attributes"`
}

func (in *ProductInput) trim() {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.Category = strings.TrimSpace(in.Category)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Colour = strings.TrimSpace(in.Colour)
	in.Collection = strings.TrimSpace(in.Collection)
	for i := range in.Variants {
		in.Variants[i].Size = strings.TrimSpace(in.Variants[i].Size)
	}
}

// ProductPatch is the set of fields an update may touch. Anything else in the
// request body is ignored.
type ProductPatch struct {
	ProductName   *string         `json:"product_name"`
	Category      *string         `json:"category"`
	Colour        *string         `json:"colour"`
	Gender        *string         `json:"gender"`
	Slug          *string         `json:"slug"`
	ProductID     *string         `json:"product_id"`
	Collection    *string         `json:"collection"`
	Metadata      map[string]any  `json:"metadata"`
	NewArrival    *bool           `json:"newArrival"`
	BestSeller    *bool           `json:"bestSeller"`
	Variants      *[]VariantInput `json:"variants"`
	Images        []string        `json:"images"`
	ReplaceImages bool            `json:"replaceImages"`
}

// toSet builds the $set document for the patch against the current product.
// Variants are replaced wholesale; images are appended unless ReplaceImages.
func (p ProductPatch) toSet(current *models.Product) (bson.M, error) {
	set := bson.M{}
	strField := func(key string, v *string) error {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		if s == "" && (key == "product_name" || key == "product_id" || key == "category" || key == "gender") {
			return utils.ValidationError("Missing required field: %s", key)
		}
		set[key] = s
		return nil
	}
	for _, f := range []struct {
		key string
		v   *string
	}{
		{"product_name", p.ProductName},
		{"category", p.Category},
		{"colour", p.Colour},
		{"product_id", p.ProductID},
		{"collection", p.Collection},
	} {
		if err := strField(f.key, f.v); err != nil {
			return nil, err
		}
	}
	if p.Gender != nil {
		if err := strField("gender", p.Gender); err != nil {
			return nil, err
		}
		set["gender"] = strings.ToLower(set["gender"].(string))
	}
	if p.Slug != nil {
		if s := slug.Make(*p.Slug); s != "" {
			set["slug"] = s
		}
	}
	if p.Metadata != nil {
		set["metadata"] = p.Metadata
	}
	if p.NewArrival != nil {
		set["newArrival"] = *p.NewArrival
	}
	if p.BestSeller != nil {
		set["bestSeller"] = *p.BestSeller
	}

	if p.Variants != nil {
		in := ProductInput{Variants: *p.Variants}
		in.trim()
		if len(in.Variants) == 0 {
			return nil, utils.ValidationError("%s", ErrNoVariants)
		}
		for i := range in.Variants {
			if err := validateInput(in.Variants[i]); err != nil {
				return nil, err
			}
		}
		set["variants"] = buildVariants(in.Variants)
	}

	images := cleanImages(p.Images)
	switch {
	case p.ReplaceImages:
		set["images"] = images
	case len(images) > 0:
		set["images"] = append(append([]string{}, current.Images...), images...)
	}
	return set, nil
}

func buildVariants(in []VariantInput) []models.Variant {
	out := make([]models.Variant, 0, len(in))
	for _, v := range in {
		out = append(out, models.Variant{
			ID:         primitive.NewObjectID(),
			Size:       models.NormalizeSize(v.Size),
			MRP:        v.MRP,
			SellPrice:  v.SellPrice,
			Stock:      v.Stock,
			Attributes: v.Attributes,
		})
	}
	return out
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if s := strings.TrimSpace(img); s != "" {
			out = append(out, s)
		}
	}
	return out
}
