package repository

import (
	"context"

	"order-fulfillment-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProductRepository is the catalog-facing side of order creation. The
// catalog itself is maintained elsewhere; this service only reads it.
type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection("products")}
}

func (m *MongoProductRepository) FindByProductID(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := m.col.FindOne(ctx, bson.M{"product_id": productID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
