package repository

import (
	"context"
	"errors"
	"time"

	"order-fulfillment-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// MongoInventoryLedger owns the per-product quantity counters.
type MongoInventoryLedger struct {
	col *mongo.Collection
}

func NewMongoInventoryLedger(db *mongo.Database) *MongoInventoryLedger {
	return &MongoInventoryLedger{col: db.Collection("inventory")}
}

// Reserve decrements quantity by qty iff the current quantity covers it.
// The filter and $inc run as one FindOneAndUpdate, so concurrent requests
// can never drive the counter negative. Returns the record after the
// decrement so callers can watch the reorder point.
func (m *MongoInventoryLedger) Reserve(ctx context.Context, productID string, qty int) (*model.InventoryRecord, error) {
	filter := bson.M{
		"product_id": productID,
		"quantity":   bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"quantity": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec model.InventoryRecord
	err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		// Either the record is missing or the stock is short. One extra
		// lookup tells the caller which.
		cnt, cntErr := m.col.CountDocuments(ctx, bson.M{"product_id": productID})
		if cntErr != nil {
			return nil, cntErr
		}
		if cnt == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Release returns qty units to the record, compensating a reservation made
// earlier in the same logical operation.
func (m *MongoInventoryLedger) Release(ctx context.Context, productID string, qty int) error {
	update := bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"product_id": productID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoInventoryLedger) FindByProductID(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := m.col.FindOne(ctx, bson.M{"product_id": productID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
