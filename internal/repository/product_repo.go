package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

// ProductCollection is the collection holding the catalog.
const ProductCollection = "products"

// ProductRepository handles data access for catalog products. Every read is
// passed through models.ProductFromDocument so callers only ever see the
// canonical shape.
type ProductRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductCollection)}
}

// Find runs a built catalog query.
func (r *ProductRepository) Find(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	opts := options.Find().SetSort(q.Sort)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, models.ProductFromDocument(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// FindByID looks a product up by its ObjectID.
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindOneBy looks a product up by an exact field value.
func (r *ProductRepository) FindOneBy(ctx context.Context, field, value string) (*models.Product, error) {
	return r.findOne(ctx, bson.D{{Key: field, Value: value}})
}

// FindByVariantID returns the owning product together with the matched variant.
func (r *ProductRepository) FindByVariantID(ctx context.Context, variantID primitive.ObjectID) (*models.Product, *models.Variant, error) {
	p, err := r.findOne(ctx, bson.D{{Key: "variants._id", Value: variantID}})
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			return nil, nil, utils.ErrVariantNotFound
		}
		return nil, nil, err
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return p, &p.Variants[i], nil
		}
	}
	return nil, nil, utils.ErrVariantNotFound
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.D) (*models.Product, error) {
	var doc bson.M
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	p := models.ProductFromDocument(doc)
	return &p, nil
}

// Insert stores a new product and sets its ID. A unique index violation is
// returned as *utils.DuplicateKeyError.
func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if dup, ok := asDuplicateKey(err); ok {
			return dup
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update applies set to the product and returns the updated document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bson.M
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrProductNotFound
	}
	if err != nil {
		if dup, ok := asDuplicateKey(err); ok {
			return nil, dup
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	p := models.ProductFromDocument(doc)
	return &p, nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

// UpsertByProductID replaces the product with the same product_id, or
// inserts it. Used by the catalog import. Reports whether a new document was
// created.
func (r *ProductRepository) UpsertByProductID(ctx context.Context, p *models.Product) (bool, error) {
	now := time.Now().UTC()
	p.UpdatedAt = now

	set := bson.M{
		"product_name": p.ProductName,
		"category":     p.Category,
		"colour":       p.Colour,
		"gender":       p.Gender,
		"collection":   p.Collection,
		"images":       p.Images,
		"variants":     p.Variants,
		"newArrival":   p.NewArrival,
		"bestSeller":   p.BestSeller,
		"updatedAt":    now,
	}
	if p.Slug != "" {
		set["slug"] = p.Slug
	}
	if p.Metadata != nil {
		set["metadata"] = p.Metadata
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now, "soldCount": 0},
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "product_id", Value: p.ProductID}}, update, options.Update().SetUpsert(true))
	if err != nil {
		if dup, ok := asDuplicateKey(err); ok {
			return false, dup
		}
		return false, fmt.Errorf("upsert product %s: %w", p.ProductID, err)
	}
	return res.UpsertedCount > 0, nil
}
