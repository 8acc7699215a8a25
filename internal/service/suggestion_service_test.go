package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

func TestSuggestionSubmit_DuplicateWithinWindow(t *testing.T) {
	svc := NewSuggestionService(newFakeSuggestionStore(), &fakeClaimer{})
	ctx := context.Background()

	created, err := svc.Submit(ctx, SuggestionInput{Suggestion: " Linen sarees "}, "1.2.3.4", "ua")
	require.NoError(t, err)
	assert.Equal(t, "Linen sarees", created.Suggestion)
	assert.Equal(t, "other", created.Category)
	assert.Equal(t, models.SuggestionPending, created.Status)

	_, err = svc.Submit(ctx, SuggestionInput{Suggestion: "Linen sarees"}, "1.2.3.4", "ua")
	requireAppError(t, err, http.StatusConflict, "")

	_, err = svc.Submit(ctx, SuggestionInput{Suggestion: "Linen sarees"}, "5.6.7.8", "ua")
	require.NoError(t, err)
}

func TestSuggestionSubmit_FallsBackToStore(t *testing.T) {
	store := newFakeSuggestionStore()
	svc := NewSuggestionService(store, &fakeClaimer{err: errors.New("redis down")})
	ctx := context.Background()

	_, err := svc.Submit(ctx, SuggestionInput{Suggestion: "Anklets"}, "1.2.3.4", "")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SuggestionInput{Suggestion: "Anklets"}, "1.2.3.4", "")
	requireAppError(t, err, http.StatusConflict, "")
}

func TestSuggestionSubmit_Validation(t *testing.T) {
	svc := NewSuggestionService(newFakeSuggestionStore(), nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SuggestionInput{Suggestion: "   "}, "ip", "")
	requireAppError(t, err, http.StatusBadRequest, "Missing required field: suggestion")

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Submit(ctx, SuggestionInput{Suggestion: string(long)}, "ip", "")
	requireAppError(t, err, http.StatusBadRequest, "suggestion must be at most 100")

	_, err = svc.Submit(ctx, SuggestionInput{Suggestion: "ok", Category: "vibes"}, "ip", "")
	requireAppError(t, err, http.StatusBadRequest, "Invalid category: vibes")
}

func TestSuggestionVote_OncePerIPUnderConcurrency(t *testing.T) {
	store := newFakeSuggestionStore()
	id := primitive.NewObjectID()
	require.NoError(t, store.Insert(context.Background(), &models.Suggestion{ID: id, Suggestion: "x", Status: models.SuggestionApproved}))
	svc := NewSuggestionService(store, nil)

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Vote(context.Background(), id.Hex(), "upvote", "9.9.9.9")
			mu.Lock()
			defer mu.Unlock()
			var appErr *utils.AppError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &appErr) && appErr.Status == http.StatusConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, store.items[id].Votes)
}

func TestSuggestionVote_Errors(t *testing.T) {
	store := newFakeSuggestionStore()
	id := primitive.NewObjectID()
	require.NoError(t, store.Insert(context.Background(), &models.Suggestion{ID: id, Suggestion: "x"}))
	svc := NewSuggestionService(store, nil)
	ctx := context.Background()

	_, err := svc.Vote(ctx, id.Hex(), "sideways", "ip")
	requireAppError(t, err, http.StatusBadRequest, "Invalid action. Use upvote or downvote")

	_, err = svc.Vote(ctx, "bad", "upvote", "ip")
	requireAppError(t, err, http.StatusBadRequest, "Invalid suggestion id")

	_, err = svc.Vote(ctx, primitive.NewObjectID().Hex(), "upvote", "ip")
	requireAppError(t, err, http.StatusNotFound, "Suggestion not found")

	s, err := svc.Vote(ctx, id.Hex(), "downvote", "ip")
	require.NoError(t, err)
	assert.Equal(t, -1, s.Votes)

	_, err = svc.Vote(ctx, id.Hex(), "upvote", "ip")
	requireAppError(t, err, http.StatusConflict, "You have already voted on this suggestion")
}

func TestSuggestionSearch_BlankSkipsStore(t *testing.T) {
	store := newFakeSuggestionStore()
	items, err := NewSuggestionService(store, nil).Search(context.Background(), " ", "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, store.searchCalls)
}

func TestSuggestionListingLimits(t *testing.T) {
	store := newFakeSuggestionStore()
	svc := NewSuggestionService(store, nil)
	ctx := context.Background()

	for _, limit := range []string{"", "3", "0", "abc", "500"} {
		_, err := svc.Popular(ctx, "all", limit)
		require.NoError(t, err)
		_, err = svc.Search(ctx, "saree", limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{10, 5, 3, 3, 10, 5, 10, 5, 50, 50}, store.limits)
}

func TestSuggestionSetStatus(t *testing.T) {
	store := newFakeSuggestionStore()
	id := primitive.NewObjectID()
	require.NoError(t, store.Insert(context.Background(), &models.Suggestion{ID: id, Suggestion: "x", Status: models.SuggestionPending}))
	svc := NewSuggestionService(store, nil)

	_, err := svc.SetStatus(context.Background(), id.Hex(), "maybe")
	requireAppError(t, err, http.StatusBadRequest, "")

	s, err := svc.SetStatus(context.Background(), id.Hex(), "Approved")
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionApproved, s.Status)
}
