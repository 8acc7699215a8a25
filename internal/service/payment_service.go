package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/checkout"
	"github.com/sashvara/storefront_api/internal/utils"
	"github.com/sashvara/storefront_api/pkg/razorpay"
)

// Gateway creates orders on the payment provider.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
}

// GatewayOrderInput asks for a gateway order either for a stored order
// (OrderID) or for a raw amount in major units.
type GatewayOrderInput struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
}

// GatewayOrderResult is what the checkout widget needs to open.
type GatewayOrderResult struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"keyId"`
	ForOrder string `json:"forOrder,omitempty"`
}

// VerifyInput is the gateway's checkout callback.
type VerifyInput struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
	OrderID          string `json:"orderId"`
}

// VerifyResult reports a verification outcome.
type VerifyResult struct {
	Status    string `json:"status"`
	OrderID   string `json:"orderId,omitempty"`
	PaymentID string `json:"paymentId"`
	Applied   bool   `json:"applied"`
}

// ErrSignatureMismatch is returned when the callback signature does not verify.
var ErrSignatureMismatch = errors.New("Payment verification failed")

// PaymentService creates gateway orders and verifies payment callbacks.
type PaymentService struct {
	gateway  Gateway
	orders   OrderStore
	notifier OrderNotifier
	secret   string
	currency string
}

// NewPaymentService constructs a PaymentService. notifier may be nil.
func NewPaymentService(gateway Gateway, orders OrderStore, notifier OrderNotifier, secret, currency string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{gateway: gateway, orders: orders, notifier: notifier, secret: secret, currency: currency}
}

// CreateOrder creates a gateway order. For a stored order the amount due is
// taken from the order, never from the request.
func (s *PaymentService) CreateOrder(ctx context.Context, in GatewayOrderInput) (*GatewayOrderResult, error) {
	req := razorpay.OrderRequest{Currency: strings.ToUpper(strings.TrimSpace(in.Currency))}
	if req.Currency == "" {
		req.Currency = s.currency
	}

	var orderID primitive.ObjectID
	receiptRef := strings.TrimSpace(in.Receipt)
	if id := strings.TrimSpace(in.OrderID); id != "" {
		oid, err := parseOrderID(id)
		if err != nil {
			return nil, err
		}
		o, err := s.orders.FindByID(ctx, oid)
		if err != nil {
			return nil, mapOrderErr(err)
		}
		if !o.PaymentMethod.RequiresGateway() {
			return nil, utils.ValidationError("Order does not require online payment")
		}
		if o.Status.Terminal() {
			return nil, utils.ConflictError("Order is already "+string(o.Status), nil)
		}
		orderID = oid
		req.Amount = checkout.ToMinor(o.AmountDue)
		req.Currency = o.Currency
		req.Notes = map[string]string{"orderId": oid.Hex()}
		if receiptRef == "" {
			receiptRef = oid.Hex()
		}
	} else {
		if in.Amount <= 0 {
			return nil, utils.ValidationError("Amount must be greater than 0")
		}
		req.Amount = checkout.ToMinor(in.Amount)
	}
	if req.Amount <= 0 {
		return nil, utils.ValidationError("Amount must be greater than 0")
	}

	receipt, err := utils.GenerateReceipt(receiptRef)
	if err != nil {
		return nil, utils.UpstreamError("Failed to create payment order", err)
	}
	req.Receipt = receipt

	gwOrder, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, utils.UpstreamError("Failed to create payment order", err)
	}

	res := &GatewayOrderResult{
		OrderID:  gwOrder.ID,
		Amount:   gwOrder.Amount,
		Currency: gwOrder.Currency,
		Receipt:  gwOrder.Receipt,
		KeyID:    s.gateway.KeyID(),
	}
	if !orderID.IsZero() {
		res.ForOrder = orderID.Hex()
		if err := s.orders.SetGatewayOrder(ctx, orderID, gwOrder.ID); err != nil {
			log.Error().Err(err).Str("order_id", orderID.Hex()).Msg("failed to record gateway order")
			return nil, utils.UpstreamError("Failed to create payment order", err)
		}
	}
	log.Info().Str("gateway_order_id", gwOrder.ID).Int64("amount", gwOrder.Amount).Msg("gateway order created")
	return res, nil
}

// Verify checks the callback signature and, when an order is named, marks it
// paid. Repeated callbacks for an already-paid order succeed without side
// effects; the confirmation mail goes out only on the first.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	in.Signature = strings.TrimSpace(in.Signature)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	payload := utils.PaymentSignaturePayload(in.GatewayOrderID, in.GatewayPaymentID)
	if !utils.VerifySignature(payload, in.Signature, s.secret) {
		log.Warn().Str("gateway_order_id", in.GatewayOrderID).Msg("payment signature mismatch")
		return nil, ErrSignatureMismatch
	}

	res := &VerifyResult{Status: "success", PaymentID: in.GatewayPaymentID}
	if strings.TrimSpace(in.OrderID) == "" {
		return res, nil
	}

	oid, err := parseOrderID(in.OrderID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	// Only a gateway order created for this order can settle it.
	if !o.PaymentMethod.RequiresGateway() || o.GatewayOrderID == "" || o.GatewayOrderID != in.GatewayOrderID {
		log.Warn().Str("order_id", oid.Hex()).Str("gateway_order_id", in.GatewayOrderID).Msg("gateway order does not belong to order")
		return nil, ErrSignatureMismatch
	}

	applied, err := s.orders.MarkPaid(ctx, oid, in.GatewayPaymentID, o.AmountDue)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	res.OrderID = oid.Hex()
	res.Applied = applied
	if !applied {
		log.Info().Str("order_id", oid.Hex()).Msg("payment already recorded")
		return res, nil
	}

	log.Info().Str("order_id", oid.Hex()).Str("payment_id", in.GatewayPaymentID).Msg("order marked paid")
	if s.notifier != nil {
		paid, err := s.orders.FindByID(ctx, oid)
		if err == nil {
			err = s.notifier.OrderPaid(ctx, paid)
		}
		if err != nil {
			log.Error().Err(err).Str("order_id", oid.Hex()).Msg("failed to send payment confirmation")
		}
	}
	return res, nil
}
