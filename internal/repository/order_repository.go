package repository

import (
	"context"
	"errors"
	"time"

	"order-fulfillment-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("not found")

// Mongo implementation of the order store.
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *MongoOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoOrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"user_id": userID, "idempotency_key": key}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStatus moves the order to status and stamps updated_at. completedAt
// is only written when non-nil (the delivered transition).
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, completedAt *time.Time) error {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if completedAt != nil {
		set["completed_at"] = *completedAt
	}

	res, err := m.col.UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"user_id": userID})
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"status": status})
}

func (m *MongoOrderRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
