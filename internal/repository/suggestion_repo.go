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

// SuggestionCollection is the collection holding user suggestions.
const SuggestionCollection = "user_suggestions"

// Fields never returned from admin listings.
var suggestionPrivateFields = bson.D{
	{Key: "user_ip", Value: 0},
	{Key: "user_agent", Value: 0},
	{Key: "voters", Value: 0},
}

// SuggestionRepository handles data access for user suggestions.
type SuggestionRepository struct {
	coll *mongo.Collection
}

// NewSuggestionRepository creates a new SuggestionRepository.
func NewSuggestionRepository(db *mongo.Database) *SuggestionRepository {
	return &SuggestionRepository{coll: db.Collection(SuggestionCollection)}
}

// Insert stores a new suggestion and sets its ID.
func (r *SuggestionRepository) Insert(ctx context.Context, s *models.Suggestion) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.Voters == nil {
		s.Voters = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert suggestion: %w", err)
	}
	return nil
}

// ExistsRecent reports whether ip submitted the same text (case-insensitive)
// since the given time.
func (r *SuggestionRepository) ExistsRecent(ctx context.Context, ip, text string, since time.Time) (bool, error) {
	filter := bson.D{
		{Key: "user_ip", Value: ip},
		{Key: "suggestion", Value: exactMatch(text)},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check recent suggestion: %w", err)
	}
	return n > 0, nil
}

// Popular returns approved suggestions by votes, newest first among equals.
// An empty category or "all" matches every category.
func (r *SuggestionRepository) Popular(ctx context.Context, category string, limit int64) ([]models.Suggestion, error) {
	filter := bson.D{{Key: "status", Value: models.SuggestionApproved}}
	if category != "" && category != "all" {
		filter = append(filter, bson.E{Key: "category", Value: category})
	}
	opts := options.Find().
		SetSort(rankedSuggestionSort()).
		SetLimit(limit).
		SetProjection(suggestionPrivateFields)
	return r.find(ctx, filter, opts)
}

// rankedSuggestionSort orders public listings by votes, newest first on ties.
func rankedSuggestionSort() bson.D {
	return bson.D{{Key: "votes", Value: -1}, {Key: "created_at", Value: -1}}
}

// Search matches approved suggestions containing q literally.
func (r *SuggestionRepository) Search(ctx context.Context, q string, limit int64) ([]models.Suggestion, error) {
	filter := bson.D{
		{Key: "status", Value: models.SuggestionApproved},
		{Key: "suggestion", Value: containsMatch(q)},
	}
	opts := options.Find().
		SetSort(rankedSuggestionSort()).
		SetLimit(limit).
		SetProjection(suggestionPrivateFields)
	return r.find(ctx, filter, opts)
}

// ListAll returns one page of every suggestion, newest first, with the total.
func (r *SuggestionRepository) ListAll(ctx context.Context, page, limit int64) ([]models.Suggestion, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count suggestions: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetProjection(suggestionPrivateFields)
	items, err := r.find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus sets the moderation status and returns the updated suggestion.
func (r *SuggestionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SuggestionStatus) (*models.Suggestion, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(suggestionPrivateFields)
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}

	var s models.Suggestion
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update suggestion status: %w", err)
	}
	return &s, nil
}

// Vote applies delta once per ip. The voter check and the increment happen in
// a single conditional update, so concurrent votes from one ip count once.
// A second vote returns utils.ErrAlreadyVoted.
func (r *SuggestionRepository) Vote(ctx context.Context, id primitive.ObjectID, ip string, delta int) (*models.Suggestion, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(suggestionPrivateFields)

	var s models.Suggestion
	err := r.coll.FindOneAndUpdate(ctx, voteFilter(id, ip), voteUpdate(ip, delta, time.Now().UTC()), opts).Decode(&s)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("vote suggestion: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("check suggestion: %w", err)
	}
	if n == 0 {
		return nil, utils.ErrSuggestionNotFound
	}
	return nil, utils.ErrAlreadyVoted
}

func voteFilter(id primitive.ObjectID, ip string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "voters", Value: bson.D{{Key: "$ne", Value: ip}}},
	}
}

func voteUpdate(ip string, delta int, now time.Time) bson.D {
	return bson.D{
		{Key: "$inc", Value: bson.D{{Key: "votes", Value: delta}}},
		{Key: "$addToSet", Value: bson.D{{Key: "voters", Value: ip}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}
}

func (r *SuggestionRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]models.Suggestion, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find suggestions: %w", err)
	}
	items := []models.Suggestion{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return items, nil
}
