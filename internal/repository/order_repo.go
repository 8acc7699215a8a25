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

// OrderCollection is the collection holding orders.
const OrderCollection = "orders"

// Payable statuses a verified payment may move to paid.
var payableStatuses = bson.A{models.OrderStatusPending, models.OrderStatusUnpaid}

// Statuses that accept no further transitions.
var terminalStatuses = bson.A{models.OrderStatusDelivered, models.OrderStatusCancelled}

// OrderRepository handles data access for orders.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrderCollection)}
}

// Insert stores a new order and sets its ID.
func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FindByID returns an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

// List returns the newest orders first.
func (r *OrderRepository) List(ctx context.Context, limit int64) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// SetGatewayOrder records the payment gateway order created for an order.
func (r *OrderRepository) SetGatewayOrder(ctx context.Context, id primitive.ObjectID, gatewayOrderID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.M{"$set": bson.M{"gatewayOrderId": gatewayOrderID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set gateway order: %w", err)
	}
	if res.MatchedCount == 0 {
		return utils.ErrOrderNotFound
	}
	return nil
}

// MarkPaid moves a pending or unpaid order to paid in one conditional update.
// applied is false when the order exists but was already past those states,
// which makes repeated verification callbacks harmless.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string, amountPaid float64) (applied bool, err error) {
	now := time.Now().UTC()
	filter, update := markPaidFilter(id), markPaidUpdate(paymentID, amountPaid, now)

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func markPaidFilter(id primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: bson.D{{Key: "$in", Value: payableStatuses}}},
	}
}

func markPaidUpdate(paymentID string, amountPaid float64, now time.Time) bson.D {
	return bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: models.OrderStatusPaid},
			{Key: "paymentId", Value: paymentID},
			{Key: "amountPaid", Value: amountPaid},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$push", Value: bson.D{
			{Key: "trackingHistory", Value: models.TrackingEvent{TS: now, Text: "Payment received"}},
		}},
	}
}

// UpdateStatus transitions a non-terminal order and appends a tracking entry.
// A terminal order is reported as a conflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, note string) (*models.Order, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.Order
	err := r.coll.FindOneAndUpdate(ctx, statusFilter(id), statusUpdate(status, note, now), opts).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return nil, utils.ConflictError(fmt.Sprintf("Order is already %s", existing.Status), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &o, nil
}

func statusFilter(id primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: bson.D{{Key: "$nin", Value: terminalStatuses}}},
	}
}

func statusUpdate(status models.OrderStatus, note string, now time.Time) bson.D {
	set := bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: now},
	}
	switch status {
	case models.OrderStatusDelivered:
		set = append(set, bson.E{Key: "deliveredAt", Value: now})
	case models.OrderStatusCancelled:
		set = append(set, bson.E{Key: "cancelledAt", Value: now})
	}
	text := "Status changed to " + string(status)
	if note != "" {
		text += ": " + note
	}
	return bson.D{
		{Key: "$set", Value: set},
		{Key: "$push", Value: bson.D{
			{Key: "trackingHistory", Value: models.TrackingEvent{TS: now, Text: text}},
		}},
	}
}
