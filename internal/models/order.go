package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusUnpaid    OrderStatus = "unpaid"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusUnpaid, OrderStatusPaid, OrderStatusConfirmed,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentMethod enumerates checkout payment options.
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodPartialCOD PaymentMethod = "partialcod"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodUPI || m == PaymentMethodCOD || m == PaymentMethodPartialCOD
}

// RequiresGateway reports whether part of the total is collected online.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodUPI || m == PaymentMethodPartialCOD
}

// CartItem is a snapshot of a purchased line at order time.
type CartItem struct {
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Qty   int     `bson:"qty" json:"qty"`
	Size  string  `bson:"size,omitempty" json:"size,omitempty"`
	Image string  `bson:"image,omitempty" json:"image,omitempty"`
}

// TrackingEvent is one entry in an order's tracking history.
type TrackingEvent struct {
	TS   time.Time `bson:"ts" json:"ts"`
	Text string    `bson:"text" json:"text"`
}

// Order is a submitted checkout with its financial snapshot.
type Order struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`

	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`
	Country   string `bson:"country" json:"country"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Address   string `bson:"address" json:"address"`
	Apartment string `bson:"apartment,omitempty" json:"apartment,omitempty"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state"`
	Pincode   string `bson:"pincode" json:"pincode"`

	CartItems []CartItem `bson:"cartItems" json:"cartItems"`

	PaymentMethod  PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	PaymentID      string        `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	GatewayOrderID string        `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	AmountPaid     float64       `bson:"amountPaid" json:"amountPaid"`
	Currency       string        `bson:"currency" json:"currency"`

	Subtotal          float64 `bson:"subtotal" json:"subtotal"`
	ShippingCost      float64 `bson:"shippingCost" json:"shippingCost"`
	CouponDiscount    float64 `bson:"couponDiscount" json:"couponDiscount"`
	PaymentAdjustment float64 `bson:"paymentAdjustment" json:"paymentAdjustment"`
	TaxIncluded       float64 `bson:"taxIncluded" json:"taxIncluded"`
	Total             float64 `bson:"total" json:"total"`
	AmountDue         float64 `bson:"amountDue" json:"amountDue"`
	DiscountCode      string  `bson:"discountCode,omitempty" json:"discountCode,omitempty"`
	DiscountPercent   float64 `bson:"discountPercent" json:"discountPercent"`

	Status          OrderStatus     `bson:"status" json:"status"`
	TrackingHistory []TrackingEvent `bson:"trackingHistory" json:"trackingHistory"`

	PlacedAt    *time.Time `bson:"placedAt,omitempty" json:"placedAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name.
func (o *Order) FullName() string {
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}
