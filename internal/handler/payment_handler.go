package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/internal/utils"
)

// PaymentHandler handles gateway order creation and checkout callbacks.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder creates a gateway order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var in service.GatewayOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	res, err := h.payments.CreateOrder(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Payment order created", res)
}

// VerifyPayment checks a checkout callback signature. A mismatch answers
// {success:false, status:"failure"}.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var in service.VerifyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, utils.ValidationError("Invalid request body"))
		return
	}
	res, err := h.payments.Verify(c.Request.Context(), in)
	if errors.Is(err, service.ErrSignatureMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"status":  "failure",
			"code":    http.StatusBadRequest,
			"message": err.Error(),
			"error":   utils.ErrorInfo{Code: utils.CodeVerification, Message: err.Error()},
		})
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Payment verified", res)
}
