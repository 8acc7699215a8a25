package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/cache"
	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/pricing"
	"github.com/sashvara/storefront_api/internal/repository"
	"github.com/sashvara/storefront_api/internal/utils"
)

// ErrNoVariants rejects a product without variants.
var ErrNoVariants = errors.New("Product must have at least one variant")

// ProductStore is the persistence the catalog needs.
type ProductStore interface {
	Find(ctx context.Context, q repository.ProductQuery) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindOneBy(ctx context.Context, field, value string) (*models.Product, error)
	FindByVariantID(ctx context.Context, id primitive.ObjectID) (*models.Product, *models.Variant, error)
	Insert(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductLookupCache caches products by the identifier they were requested with.
type ProductLookupCache interface {
	Get(ctx context.Context, identifier string) (*models.Product, error)
	Set(ctx context.Context, identifier string, p *models.Product) error
	Invalidate(ctx context.Context, products ...*models.Product) error
}

// ProductView is a product with its resolved price block.
type ProductView struct {
	models.Product
	Display pricing.Display `json:"display"`
}

// NewProductView attaches the display block to p.
func NewProductView(p *models.Product) ProductView {
	return ProductView{Product: *p, Display: pricing.Resolve(p)}
}

// ProductList is a catalog page.
type ProductList struct {
	Items   []ProductView
	Filters map[string]string
}

// VariantView pairs a variant with its owning product.
type VariantView struct {
	Product ProductView     `json:"product"`
	Variant *models.Variant `json:"variant"`
}

// CatalogService provides catalog reads and admin writes.
type CatalogService struct {
	store    ProductStore
	cache    ProductLookupCache
	maxLimit int
}

// NewCatalogService constructs a CatalogService. cache may be nil.
func NewCatalogService(store ProductStore, cache ProductLookupCache, maxLimit int) *CatalogService {
	if maxLimit < 1 {
		maxLimit = 1
	}
	return &CatalogService{store: store, cache: cache, maxLimit: maxLimit}
}

// List returns products matching the listing parameters.
func (s *CatalogService) List(ctx context.Context, params url.Values) (*ProductList, error) {
	q := repository.BuildProductQuery(params, s.maxLimit)
	products, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, utils.UpstreamError("Failed to fetch products", err)
	}
	return &ProductList{Items: views(products), Filters: q.Applied}, nil
}

// Search returns products matching q. A blank q returns no products without
// touching the store.
func (s *CatalogService) Search(ctx context.Context, params url.Values) ([]ProductView, string, error) {
	q, text, ok := repository.BuildSearchQuery(params, s.maxLimit)
	if !ok {
		return []ProductView{}, "", nil
	}
	products, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, text, utils.UpstreamError("Failed to search products", err)
	}
	return views(products), text, nil
}

// Collection returns a curated collection by name.
func (s *CatalogService) Collection(ctx context.Context, name, limit string) ([]ProductView, error) {
	q, ok := repository.BuildCollectionQuery(name, limit, s.maxLimit)
	if !ok {
		return nil, utils.NotFoundError(errors.New("Collection not found"))
	}
	products, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, utils.UpstreamError("Failed to fetch collection", err)
	}
	return views(products), nil
}

// BySlug returns a product by exact slug.
func (s *CatalogService) BySlug(ctx context.Context, slugValue string) (*ProductView, error) {
	p, err := s.store.FindOneBy(ctx, "slug", strings.TrimSpace(slugValue))
	if err != nil {
		return nil, mapProductErr(err)
	}
	v := NewProductView(p)
	return &v, nil
}

// ByVariant returns the product owning a variant.
func (s *CatalogService) ByVariant(ctx context.Context, variantID string) (*VariantView, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(variantID))
	if err != nil {
		return nil, utils.ValidationError("Invalid variant id")
	}
	p, v, err := s.store.FindByVariantID(ctx, oid)
	if err != nil {
		return nil, mapProductErr(err)
	}
	return &VariantView{Product: NewProductView(p), Variant: v}, nil
}

// Get resolves one opaque identifier to a product.
func (s *CatalogService) Get(ctx context.Context, identifier string) (*ProductView, error) {
	p, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	v := NewProductView(p)
	return &v, nil
}

// Create validates and stores a new product.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*ProductView, error) {
	in.trim()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Variants) == 0 {
		return nil, utils.ValidationError("%s", ErrNoVariants)
	}

	now := time.Now().UTC()
	p := &models.Product{
		ProductID:   in.ProductID,
		Slug:        in.Slug,
		ProductName: in.ProductName,
		Category:    in.Category,
		Colour:      in.Colour,
		Gender:      strings.ToLower(in.Gender),
		Collection:  in.Collection,
		Images:      cleanImages(in.Images),
		Variants:    buildVariants(in.Variants),
		Metadata:    in.Metadata,
		NewArrival:  in.NewArrival,
		BestSeller:  in.BestSeller,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.ProductName)
	} else {
		p.Slug = slug.Make(p.Slug)
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, mapProductErr(err)
	}
	// Its identifiers may still be cached against a lower-precedence match.
	s.invalidate(ctx, p)
	log.Info().Str("product_id", p.ProductID).Str("id", p.ID.Hex()).Msg("product created")
	v := NewProductView(p)
	return &v, nil
}

// Update applies a whitelisted patch to the product named by identifier.
func (s *CatalogService) Update(ctx context.Context, identifier string, patch ProductPatch) (*ProductView, error) {
	current, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	set, err := patch.toSet(current)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		v := NewProductView(current)
		return &v, nil
	}

	updated, err := s.store.Update(ctx, current.ID, set)
	if err != nil {
		return nil, mapProductErr(err)
	}
	s.invalidate(ctx, current, updated)
	v := NewProductView(updated)
	return &v, nil
}

// Delete removes the product named by identifier.
func (s *CatalogService) Delete(ctx context.Context, identifier string) error {
	current, err := s.Resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, current.ID); err != nil {
		return mapProductErr(err)
	}
	s.invalidate(ctx, current)
	log.Info().Str("product_id", current.ProductID).Msg("product deleted")
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, products ...*models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, products...); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate product cache")
	}
}

func views(products []models.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, NewProductView(&products[i]))
	}
	return out
}

// mapProductErr turns repository errors into client-facing ones.
func mapProductErr(err error) error {
	var appErr *utils.AppError
	var dupErr *utils.DuplicateKeyError
	switch {
	case errors.As(err, &appErr), errors.As(err, &dupErr):
		return err
	case errors.Is(err, utils.ErrProductNotFound), errors.Is(err, utils.ErrVariantNotFound):
		return utils.NotFoundError(err)
	default:
		return utils.UpstreamError("Product store unavailable", err)
	}
}

func cacheMiss(err error) bool {
	return cache.IsMiss(err)
}
