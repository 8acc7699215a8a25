package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/internal/utils"
)

// SuggestionHandler handles storefront suggestions.
type SuggestionHandler struct {
	suggestions *service.SuggestionService
}

// NewSuggestionHandler constructs a SuggestionHandler.
func NewSuggestionHandler(suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

// Submit stores a new suggestion.
func (h *SuggestionHandler) Submit(c *gin.Context) {
	var in service.SuggestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	created, err := h.suggestions.Submit(c.Request.Context(), in, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Suggestion submitted successfully", created)
}

// Popular lists approved suggestions by votes.
func (h *SuggestionHandler) Popular(c *gin.Context) {
	items, err := h.suggestions.Popular(c.Request.Context(), c.Query("category"), c.Query("limit"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.List(c, items, len(items), nil, nil)
}

// Search lists approved suggestions matching q.
func (h *SuggestionHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	items, err := h.suggestions.Search(c.Request.Context(), q, c.Query("limit"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var query *string
	if q != "" {
		query = &q
	}
	utils.List(c, items, len(items), nil, query)
}

type voteRequest struct {
	Action string `json:"action"`
}

// Vote records one vote per source IP.
func (h *SuggestionHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	s, err := h.suggestions.Vote(c.Request.Context(), c.Param("id"), req.Action, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Vote recorded", gin.H{"id": s.ID.Hex(), "votes": s.Votes})
}

// ListAll returns one page of every suggestion for moderation.
func (h *SuggestionHandler) ListAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	res, err := h.suggestions.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "", res.Items, res.Page, res.Limit, res.Total)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus moderates a suggestion.
func (h *SuggestionHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	s, err := h.suggestions.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Suggestion updated", s)
}
