package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/internal/utils"
)

// OrderHandler handles checkout quotes and orders.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Quote prices a cart.
func (h *OrderHandler) Quote(c *gin.Context) {
	var in service.QuoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	q, err := h.orders.Quote(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", q)
}

// CreateOrder places an order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var in service.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	o, err := h.orders.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Order placed successfully", o)
}

// ListOrders returns recent orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.List(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.List(c, orders, len(orders), nil, nil)
}

// GetOrder returns one order.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", o)
}

// UpdateOrderStatus transitions an order.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var in service.StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Order updated successfully", o)
}
