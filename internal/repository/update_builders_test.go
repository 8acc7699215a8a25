package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

func TestVoteFilter_ExcludesPriorVoter(t *testing.T) {
	id := primitive.NewObjectID()
	f := voteFilter(id, "10.0.0.1")

	assert.Equal(t, bson.D{
		{Key: "_id", Value: id},
		{Key: "voters", Value: bson.D{{Key: "$ne", Value: "10.0.0.1"}}},
	}, f)
}

func TestVoteUpdate_IncrementsAndRecordsVoter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := voteUpdate("10.0.0.1", -1, now)

	inc, ok := lookup(u, "$inc")
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "votes", Value: -1}}, inc)

	add, ok := lookup(u, "$addToSet")
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "voters", Value: "10.0.0.1"}}, add)
}

func TestMarkPaidFilter_OnlyPayableStatuses(t *testing.T) {
	id := primitive.NewObjectID()
	f := markPaidFilter(id)

	status, ok := lookup(f, "status")
	require.True(t, ok)
	in := status.(bson.D)[0]
	assert.Equal(t, "$in", in.Key)
	assert.ElementsMatch(t, bson.A{models.OrderStatusPending, models.OrderStatusUnpaid}, in.Value)
}

func TestMarkPaidUpdate(t *testing.T) {
	now := time.Now().UTC()
	u := markPaidUpdate("pay_123", 211.45, now)

	set, _ := lookup(u, "$set")
	st, _ := lookup(set.(bson.D), "status")
	assert.Equal(t, models.OrderStatusPaid, st)
	pid, _ := lookup(set.(bson.D), "paymentId")
	assert.Equal(t, "pay_123", pid)

	push, _ := lookup(u, "$push")
	ev, _ := lookup(push.(bson.D), "trackingHistory")
	assert.Equal(t, models.TrackingEvent{TS: now, Text: "Payment received"}, ev)
}

func TestStatusUpdate_StampsTerminalTimes(t *testing.T) {
	now := time.Now().UTC()

	set, _ := lookup(statusUpdate(models.OrderStatusDelivered, "", now), "$set")
	at, ok := lookup(set.(bson.D), "deliveredAt")
	require.True(t, ok)
	assert.Equal(t, now, at)

	u := statusUpdate(models.OrderStatusCancelled, "customer request", now)
	set, _ = lookup(u, "$set")
	_, ok = lookup(set.(bson.D), "cancelledAt")
	assert.True(t, ok)
	push, _ := lookup(u, "$push")
	ev, _ := lookup(push.(bson.D), "trackingHistory")
	assert.Equal(t, "Status changed to cancelled: customer request", ev.(models.TrackingEvent).Text)

	set, _ = lookup(statusUpdate(models.OrderStatusShipped, "", now), "$set")
	_, ok = lookup(set.(bson.D), "deliveredAt")
	assert.False(t, ok)
}

func TestStatusFilter_ExcludesTerminal(t *testing.T) {
	f := statusFilter(primitive.NewObjectID())
	status, _ := lookup(f, "status")
	nin := status.(bson.D)[0]
	assert.Equal(t, "$nin", nin.Key)
	assert.ElementsMatch(t, bson.A{models.OrderStatusDelivered, models.OrderStatusCancelled}, nin.Value)
}

func TestAsDuplicateKey(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: sashvara.products index: product_id_1 dup key: { product_id: "SKU-1" }`,
	}}}

	dup, ok := asDuplicateKey(err)
	require.True(t, ok)
	assert.Equal(t, "product_id", dup.Key)
	assert.Equal(t, "Duplicate key: product_id", dup.Error())
	assert.True(t, errors.Is(dup, utils.ErrDuplicateKey))

	_, ok = asDuplicateKey(errors.New("boom"))
	assert.False(t, ok)
}

func TestRankedSuggestionSort_VotesThenNewest(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "votes", Value: -1}, {Key: "created_at", Value: -1}}, rankedSuggestionSort())
}
