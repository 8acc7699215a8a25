package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

// SuggestionWindow is how long the same text from the same source is refused.
const SuggestionWindow = 24 * time.Hour

const (
	popularSuggestionLimit = 10
	searchSuggestionLimit  = 5
	adminSuggestionLimit   = 20
	maxPublicSuggestions   = 50
)

// SuggestionStore is the persistence suggestions need.
type SuggestionStore interface {
	Insert(ctx context.Context, s *models.Suggestion) error
	ExistsRecent(ctx context.Context, ip, text string, since time.Time) (bool, error)
	Popular(ctx context.Context, category string, limit int64) ([]models.Suggestion, error)
	Search(ctx context.Context, q string, limit int64) ([]models.Suggestion, error)
	ListAll(ctx context.Context, page, limit int64) ([]models.Suggestion, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SuggestionStatus) (*models.Suggestion, error)
	Vote(ctx context.Context, id primitive.ObjectID, ip string, delta int) (*models.Suggestion, error)
}

// SubmissionClaimer reserves an (ip, text) pair for the submission window.
type SubmissionClaimer interface {
	Claim(ctx context.Context, ip, text string) (bool, error)
	Release(ctx context.Context, ip, text string) error
}

// SuggestionInput is a new suggestion from the storefront.
type SuggestionInput struct {
	Suggestion string `json:"suggestion" validate:"required,max=100"`
	Category   string `json:"category"`
}

// SuggestionCreated is the public view of a stored suggestion.
type SuggestionCreated struct {
	ID         string                  `json:"id"`
	Suggestion string                  `json:"suggestion"`
	Category   string                  `json:"category"`
	Status     models.SuggestionStatus `json:"status"`
}

// SuggestionPage is one page of the admin listing.
type SuggestionPage struct {
	Items []models.Suggestion
	Page  int
	Limit int
	Total int
}

// SuggestionService handles suggestion submission, voting and moderation.
type SuggestionService struct {
	store SuggestionStore
	guard SubmissionClaimer
	now   func() time.Time
}

// NewSuggestionService constructs a SuggestionService. guard may be nil, in
// which case duplicates are detected from the store alone.
func NewSuggestionService(store SuggestionStore, guard SubmissionClaimer) *SuggestionService {
	return &SuggestionService{store: store, guard: guard, now: time.Now}
}

// Submit stores a suggestion unless the same source sent the same text
// within SuggestionWindow.
func (s *SuggestionService) Submit(ctx context.Context, in SuggestionInput, ip, userAgent string) (*SuggestionCreated, error) {
	in.Suggestion = strings.TrimSpace(in.Suggestion)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = "other"
	}
	if !models.ValidSuggestionCategory(in.Category) {
		return nil, utils.ValidationError("Invalid category: %s", in.Category)
	}

	claimed, err := s.claim(ctx, ip, in.Suggestion)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, utils.ConflictError("You have already submitted this suggestion recently", nil)
	}

	now := s.now().UTC()
	sg := &models.Suggestion{
		Suggestion: in.Suggestion,
		Category:   in.Category,
		UserIP:     ip,
		UserAgent:  userAgent,
		Status:     models.SuggestionPending,
		Voters:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Insert(ctx, sg); err != nil {
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, ip, in.Suggestion); relErr != nil {
				log.Warn().Err(relErr).Msg("failed to release suggestion claim")
			}
		}
		return nil, utils.UpstreamError("Failed to save suggestion", err)
	}
	return &SuggestionCreated{ID: sg.ID.Hex(), Suggestion: sg.Suggestion, Category: sg.Category, Status: sg.Status}, nil
}

// claim reserves the pair in Redis, falling back to a store lookup of the
// same window when Redis is unavailable.
func (s *SuggestionService) claim(ctx context.Context, ip, text string) (bool, error) {
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, ip, text)
		if err == nil {
			return ok, nil
		}
		log.Warn().Err(err).Msg("submission guard unavailable, checking store")
	}
	exists, err := s.store.ExistsRecent(ctx, ip, text, s.now().Add(-SuggestionWindow))
	if err != nil {
		return false, utils.UpstreamError("Failed to save suggestion", err)
	}
	return !exists, nil
}

// Popular lists approved suggestions by votes. limit defaults to 10.
func (s *SuggestionService) Popular(ctx context.Context, category, limit string) ([]models.Suggestion, error) {
	items, err := s.store.Popular(ctx, strings.TrimSpace(category), publicLimit(limit, popularSuggestionLimit))
	if err != nil {
		return nil, utils.UpstreamError("Failed to fetch suggestions", err)
	}
	return items, nil
}

// Search lists approved suggestions containing q. Blank q returns nothing;
// limit defaults to 5.
func (s *SuggestionService) Search(ctx context.Context, q, limit string) ([]models.Suggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Suggestion{}, nil
	}
	items, err := s.store.Search(ctx, q, publicLimit(limit, searchSuggestionLimit))
	if err != nil {
		return nil, utils.UpstreamError("Failed to search suggestions", err)
	}
	return items, nil
}

// Vote records one up or down vote per source IP.
func (s *SuggestionService) Vote(ctx context.Context, id, action, ip string) (*models.Suggestion, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, utils.ValidationError("Invalid suggestion id")
	}
	var delta int
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "upvote":
		delta = 1
	case "downvote":
		delta = -1
	default:
		return nil, utils.ValidationError("Invalid action. Use upvote or downvote")
	}

	sg, err := s.store.Vote(ctx, oid, ip, delta)
	switch {
	case err == nil:
		return sg, nil
	case errors.Is(err, utils.ErrAlreadyVoted):
		return nil, utils.ConflictError(err.Error(), err)
	case errors.Is(err, utils.ErrSuggestionNotFound):
		return nil, utils.NotFoundError(err)
	default:
		return nil, utils.UpstreamError("Failed to record vote", err)
	}
}

// ListAll returns one admin page.
func (s *SuggestionService) ListAll(ctx context.Context, page, limit int) (*SuggestionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = adminSuggestionLimit
	}
	if limit > 100 {
		limit = 100
	}
	items, total, err := s.store.ListAll(ctx, int64(page), int64(limit))
	if err != nil {
		return nil, utils.UpstreamError("Failed to fetch suggestions", err)
	}
	return &SuggestionPage{Items: items, Page: page, Limit: limit, Total: int(total)}, nil
}

// SetStatus moderates a suggestion.
func (s *SuggestionService) SetStatus(ctx context.Context, id, status string) (*models.Suggestion, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, utils.ValidationError("Invalid suggestion id")
	}
	st := models.SuggestionStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, utils.ValidationError("Invalid status. Use pending, approved or rejected")
	}
	sg, err := s.store.UpdateStatus(ctx, oid, st)
	if errors.Is(err, utils.ErrSuggestionNotFound) {
		return nil, utils.NotFoundError(err)
	}
	if err != nil {
		return nil, utils.UpstreamError("Failed to update suggestion", err)
	}
	return sg, nil
}

// publicLimit parses a listing limit; anything but a positive integer yields
// def. The result is capped at maxPublicSuggestions.
func publicLimit(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		n = def
	}
	return min(n, maxPublicSuggestions)
}
