package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ListResponse is the envelope for collections. Data is always present, so
// an empty result serializes as [] rather than being dropped.
type ListResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Filters interface{} `json:"filters,omitempty"`
	Query   *string     `json:"query,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// List writes a collection response carrying total and, when given, the
// echoed filters or search query.
func List(c *gin.Context, data interface{}, total int, filters interface{}, query *string) {
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Code:    http.StatusOK,
		Data:    data,
		Total:   total,
		Filters: filters,
		Query:   query,
		Meta:    newMeta(c),
	})
}

// SuccessWithPagination writes a success response with pagination metadata.
func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, page, limit, totalItems int) {
	// safety defaults
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	totalPages := (totalItems + limit - 1) / limit
	meta := newMeta(c)
	meta.Pagination = &Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
	c.JSON(code, ListResponse{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Total:   totalItems,
		Meta:    meta,
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// RespondError maps err onto the error envelope. AppErrors keep their status
// and message; anything else is logged and reported as a generic 500.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", getRequestID(c)).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		Error(c, appErr.Status, appErr.Code, appErr.Message)
		return
	}
	var dupErr *DuplicateKeyError
	if errors.As(err, &dupErr) {
		Error(c, http.StatusConflict, CodeConflict, dupErr.Error())
		return
	}
	log.Error().Err(err).Str("request_id", getRequestID(c)).Str("path", c.Request.URL.Path).Msg("unhandled error")
	Error(c, http.StatusInternalServerError, CodeUpstream, "Internal server error")
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
