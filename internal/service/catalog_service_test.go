package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %v", err)
	assert.Equal(t, status, appErr.Status)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func validInput() ProductInput {
	return ProductInput{
		ProductID:   "SV-100",
		ProductName: "Silk Kurta Set",
		Category:    "Kurta",
		Gender:      "Women",
		Variants: []VariantInput{
			{Size: " m ", MRP: models.Float(999), SellPrice: models.Float(799), Stock: 3},
			{Size: "l", MRP: models.Float(999), SellPrice: models.Float(849)},
		},
		Images: []string{" https://cdn/a.jpg ", "", "https://cdn/b.jpg"},
	}
}

func TestResolve_Precedence(t *testing.T) {
	byID := &models.Product{ID: primitive.NewObjectID(), ProductID: "A-1", Slug: "a"}
	// product_id that happens to look like another product's ObjectID
	shadow := &models.Product{ID: primitive.NewObjectID(), ProductID: byID.ID.Hex(), Slug: "shadow"}
	bySlug := &models.Product{ID: primitive.NewObjectID(), ProductID: "B-1", Slug: "summer"}
	byPID := &models.Product{ID: primitive.NewObjectID(), ProductID: "summer", Slug: "other"}

	store := &fakeProductStore{products: []*models.Product{byID, shadow, bySlug, byPID}}
	svc := NewCatalogService(store, nil, 500)
	ctx := context.Background()

	p, err := svc.Resolve(ctx, byID.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, byID.ID, p.ID)

	p, err = svc.Resolve(ctx, "summer")
	require.NoError(t, err)
	assert.Equal(t, byPID.ID, p.ID, "product_id wins over slug")

	p, err = svc.Resolve(ctx, "shadow")
	require.NoError(t, err)
	assert.Equal(t, shadow.ID, p.ID)

	_, err = svc.Resolve(ctx, "0123456789abcdef01234567")
	requireAppError(t, err, http.StatusNotFound, "Product not found")

	_, err = svc.Resolve(ctx, "not-an-id")
	requireAppError(t, err, http.StatusNotFound, "")
}

func TestResolve_UsesCache(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "C-1", Slug: "c"}
	store := &fakeProductStore{products: []*models.Product{p}}
	c := newFakeProductCache()
	svc := NewCatalogService(store, c, 500)

	_, err := svc.Resolve(context.Background(), "C-1")
	require.NoError(t, err)
	require.Contains(t, c.entries, "C-1")

	store.products = nil
	got, err := svc.Resolve(context.Background(), "C-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreate_EvictsShadowedCacheEntry(t *testing.T) {
	older := &models.Product{ID: primitive.NewObjectID(), ProductID: "B-1", Slug: "abc"}
	store := &fakeProductStore{products: []*models.Product{older}}
	c := newFakeProductCache()
	svc := NewCatalogService(store, c, 500)
	ctx := context.Background()

	p, err := svc.Resolve(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, older.ID, p.ID)
	require.Contains(t, c.entries, "abc")

	in := validInput()
	in.ProductID = "abc"
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)

	p, err = svc.Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID, "new product_id wins over the cached slug match")
}

func TestCreate_MissingGender(t *testing.T) {
	in := validInput()
	in.Gender = "  "
	_, err := NewCatalogService(&fakeProductStore{}, nil, 500).Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "Missing required field: gender")
}

func TestCreate_MissingVariants(t *testing.T) {
	in := validInput()
	in.Variants = nil
	_, err := NewCatalogService(&fakeProductStore{}, nil, 500).Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "Missing required field: variants")

	in.Variants = []VariantInput{}
	_, err = NewCatalogService(&fakeProductStore{}, nil, 500).Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "Product must have at least one variant")
}

func TestCreate_DuplicateProductID(t *testing.T) {
	store := &fakeProductStore{}
	svc := NewCatalogService(store, nil, 500)

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput())
	var dup *utils.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Duplicate key: product_id", dup.Error())
}

func TestCreate_NormalizesFields(t *testing.T) {
	v, err := NewCatalogService(&fakeProductStore{}, nil, 500).Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "women", v.Gender)
	assert.Equal(t, "silk-kurta-set", v.Slug)
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, v.Images)
	require.Len(t, v.Variants, 2)
	assert.Equal(t, "M", v.Variants[0].Size)
	assert.False(t, v.Variants[0].ID.IsZero())
	require.NotNil(t, v.Display.DisplayPrice)
	assert.Equal(t, 799.0, *v.Display.DisplayPrice)
	assert.Equal(t, []string{"M", "L"}, v.Display.SizesAvailable)
}

func TestUpdate_ImagesAppendOrReplace(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "U-1", Slug: "u", Images: []string{"one"}}
	store := &fakeProductStore{products: []*models.Product{p}}
	c := newFakeProductCache()
	svc := NewCatalogService(store, c, 500)
	ctx := context.Background()

	v, err := svc.Update(ctx, "U-1", ProductPatch{Images: []string{"two"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, v.Images)
	assert.Contains(t, c.invalidated, "U-1")

	v, err = svc.Update(ctx, "U-1", ProductPatch{Images: []string{"three"}, ReplaceImages: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"three"}, v.Images)
}

func TestUpdate_RejectsEmptyVariants(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "U-2"}
	svc := NewCatalogService(&fakeProductStore{products: []*models.Product{p}}, nil, 500)

	empty := []VariantInput{}
	_, err := svc.Update(context.Background(), "U-2", ProductPatch{Variants: &empty})
	requireAppError(t, err, http.StatusBadRequest, "Product must have at least one variant")
}

func TestUpdate_IgnoresUnlistedFieldsAndNormalizes(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "U-3"}
	store := &fakeProductStore{products: []*models.Product{p}}
	svc := NewCatalogService(store, nil, 500)

	gender := " MEN "
	s := "New Name!"
	_, err := svc.Update(context.Background(), "U-3", ProductPatch{Gender: &gender, Slug: &s})
	require.NoError(t, err)
	assert.Equal(t, "men", store.lastSet["gender"])
	assert.Equal(t, "new-name", store.lastSet["slug"])
	assert.NotContains(t, store.lastSet, "soldCount")
}

func TestDelete(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "D-1"}
	svc := NewCatalogService(&fakeProductStore{products: []*models.Product{p}}, nil, 500)

	require.NoError(t, svc.Delete(context.Background(), "D-1"))
	err := svc.Delete(context.Background(), "D-1")
	requireAppError(t, err, http.StatusNotFound, "Product not found")
}

func TestSearch_BlankQueryDoesNotHitStore(t *testing.T) {
	store := &fakeProductStore{}
	items, q, err := NewCatalogService(store, nil, 500).Search(context.Background(), url.Values{"q": {"  "}})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Empty(t, q)
	assert.Zero(t, store.findCalls)
}

func TestByVariant(t *testing.T) {
	vid := primitive.NewObjectID()
	p := &models.Product{ID: primitive.NewObjectID(), ProductID: "V-1", Variants: []models.Variant{{ID: vid, Size: "S", SellPrice: models.Float(100)}}}
	svc := NewCatalogService(&fakeProductStore{products: []*models.Product{p}}, nil, 500)

	_, err := svc.ByVariant(context.Background(), "nope")
	requireAppError(t, err, http.StatusBadRequest, "Invalid variant id")

	v, err := svc.ByVariant(context.Background(), vid.Hex())
	require.NoError(t, err)
	assert.Equal(t, "S", v.Variant.Size)

	_, err = svc.ByVariant(context.Background(), primitive.NewObjectID().Hex())
	requireAppError(t, err, http.StatusNotFound, "Variant not found")
}

func TestCollection_Unknown(t *testing.T) {
	_, err := NewCatalogService(&fakeProductStore{}, nil, 500).Collection(context.Background(), "clearance", "")
	requireAppError(t, err, http.StatusNotFound, "Collection not found")
}
