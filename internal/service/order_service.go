package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/checkout"
	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

const (
	defaultOrderListLimit = 50
	maxOrderListLimit     = 200
	defaultCountry        = "India"
)

// OrderStore is the persistence orders need.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, limit int64) ([]models.Order, error)
	SetGatewayOrder(ctx context.Context, id primitive.ObjectID, gatewayOrderID string) error
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string, amountPaid float64) (bool, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, note string) (*models.Order, error)
}

// CartLine is one cart entry in a checkout request.
type CartLine struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Qty   int     `json:"qty" validate:"min=1"`
	Size  string  `json:"size"`
	Image string  `json:"image"`
}

// QuoteInput is the payload for pricing a cart.
type QuoteInput struct {
	CartItems     []CartLine `json:"cartItems" validate:"required,min=1,dive"`
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
	DiscountCode  string     `json:"discountCode"`
}

// OrderInput is the payload for placing an order. Client-sent totals are not
// part of it; the snapshot is always computed here.
type OrderInput struct {
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required"`
	Country   string `json:"country"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Address   string `json:"address" validate:"required"`
	Apartment string `json:"apartment"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required"`
	QuoteInput
}

// StatusInput is the payload for an order status transition.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// OrderService places and tracks orders.
type OrderService struct {
	store      OrderStore
	calculator *checkout.Calculator
	currency   string
}

// NewOrderService constructs an OrderService.
func NewOrderService(store OrderStore, calculator *checkout.Calculator, currency string) *OrderService {
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{store: store, calculator: calculator, currency: currency}
}

// Quote prices a cart without storing anything.
func (s *OrderService) Quote(_ context.Context, in QuoteInput) (*checkout.Quote, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.quote(in)
}

func (s *OrderService) quote(in QuoteInput) (*checkout.Quote, error) {
	lines := make([]checkout.Line, 0, len(in.CartItems))
	for _, item := range in.CartItems {
		lines = append(lines, checkout.Line{Price: item.Price, Qty: item.Qty})
	}
	q, err := s.calculator.Quote(lines, models.PaymentMethod(in.PaymentMethod), in.DiscountCode)
	if errors.Is(err, checkout.ErrUnknownPaymentMethod) {
		return nil, utils.ValidationError("Invalid payment method: %s", in.PaymentMethod)
	}
	return q, err
}

// Create validates the order, computes its financial snapshot and stores it.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*models.Order, error) {
	trimOrderInput(&in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	q, err := s.quote(in.QuoteInput)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := models.OrderStatusUnpaid
	if q.PaymentMethod == models.PaymentMethodCOD {
		status = models.OrderStatusPending
	}

	items := make([]models.CartItem, 0, len(in.CartItems))
	for _, l := range in.CartItems {
		items = append(items, models.CartItem{Name: l.Name, Price: l.Price, Qty: l.Qty, Size: models.NormalizeSize(l.Size), Image: l.Image})
	}

	o := &models.Order{
		Email:             in.Email,
		Phone:             in.Phone,
		Country:           in.Country,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Address:           in.Address,
		Apartment:         in.Apartment,
		City:              in.City,
		State:             in.State,
		Pincode:           in.Pincode,
		CartItems:         items,
		PaymentMethod:     q.PaymentMethod,
		Currency:          s.currency,
		Subtotal:          q.Subtotal,
		ShippingCost:      q.ShippingCost,
		CouponDiscount:    q.CouponDiscount,
		PaymentAdjustment: q.PaymentAdjustment,
		TaxIncluded:       q.TaxIncluded,
		Total:             q.Total,
		AmountDue:         q.AmountDue,
		DiscountCode:      q.CouponCode,
		DiscountPercent:   q.CouponPercent,
		Status:            status,
		TrackingHistory:   []models.TrackingEvent{{TS: now, Text: "Order placed"}},
		PlacedAt:          &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Insert(ctx, o); err != nil {
		return nil, utils.UpstreamError("Failed to place order", err)
	}
	log.Info().Str("order_id", o.ID.Hex()).Str("method", string(o.PaymentMethod)).Float64("total", o.Total).Msg("order placed")
	return o, nil
}

// List returns recent orders, newest first.
func (s *OrderService) List(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	if limit > maxOrderListLimit {
		limit = maxOrderListLimit
	}
	orders, err := s.store.List(ctx, int64(limit))
	if err != nil {
		return nil, utils.UpstreamError("Failed to fetch orders", err)
	}
	return orders, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	return o, nil
}

// UpdateStatus moves a non-terminal order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, in StatusInput) (*models.Order, error) {
	oid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !status.Valid() {
		return nil, utils.ValidationError("Invalid status: %s", in.Status)
	}
	o, err := s.store.UpdateStatus(ctx, oid, status, strings.TrimSpace(in.Note))
	if err != nil {
		return nil, mapOrderErr(err)
	}
	log.Info().Str("order_id", id).Str("status", string(status)).Msg("order status updated")
	return o, nil
}

func parseOrderID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, utils.ValidationError("Invalid order id")
	}
	return oid, nil
}

func mapOrderErr(err error) error {
	var appErr *utils.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, utils.ErrOrderNotFound):
		return utils.NotFoundError(err)
	default:
		return utils.UpstreamError("Order store unavailable", err)
	}
}

func trimOrderInput(in *OrderInput) {
	for _, f := range []*string{
		&in.Email, &in.Phone, &in.Country, &in.FirstName, &in.LastName, &in.Address,
		&in.Apartment, &in.City, &in.State, &in.Pincode, &in.PaymentMethod, &in.DiscountCode,
	} {
		*f = strings.TrimSpace(*f)
	}
	for i := range in.CartItems {
		in.CartItems[i].Name = strings.TrimSpace(in.CartItems[i].Name)
	}
	if in.Country == "" {
		in.Country = defaultCountry
	}
	in.PaymentMethod = strings.ToLower(in.PaymentMethod)
}

// formatAmount renders an amount for mail bodies.
func formatAmount(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}
