// Package reconcile keeps a durable log of stock decrements that failed after
// an order was accepted, and serves it to operators for manual correction.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "stock_reconciliation"

var ErrEntryNotFound = errors.New("reconciliation entry not found")

// Entry is one failed decrement awaiting manual correction.
type Entry struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID        string             `bson:"order_id" json:"orderId"`
	OrderReference string             `bson:"order_reference" json:"orderReference"`
	ProductID      string             `bson:"product_id" json:"productId"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Reason         string             `bson:"reason" json:"reason"`
	FailedAt       time.Time          `bson:"failed_at" json:"failedAt"`
	Resolved       bool               `bson:"resolved" json:"resolved"`
	ResolvedAt     *time.Time         `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}

type MongoRecorder struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoRecorder(db *mongo.Database) *MongoRecorder {
	return &MongoRecorder{
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

func (m *MongoRecorder) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_reference", Value: 1}}},
		{Keys: bson.D{{Key: "resolved", Value: 1}, {Key: "failed_at", Value: 1}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// RecordDecrementFailure satisfies checkout.FailureRecorder.
func (m *MongoRecorder) RecordDecrementFailure(ctx context.Context, f checkout.DecrementFailure) error {
	failedAt := f.FailedAt
	if failedAt.IsZero() {
		failedAt = m.now()
	}
	entry := Entry{
		OrderID:        f.OrderID,
		OrderReference: f.OrderReference,
		ProductID:      f.ProductID,
		Quantity:       f.Quantity,
		Reason:         f.Reason,
		FailedAt:       failedAt.UTC(),
	}
	if _, err := m.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record decrement failure: %w", err)
	}
	return nil
}

// Pending lists unresolved entries, oldest first.
func (m *MongoRecorder) Pending(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "failed_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := m.collection.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode pending entries: %w", err)
	}
	return entries, nil
}

func (m *MongoRecorder) Resolve(ctx context.Context, id primitive.ObjectID) error {
	now := m.now().UTC()
	update := bson.M{"$set": bson.M{"resolved": true, "resolved_at": now}}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id, "resolved": false}, update)
	if err != nil {
		return fmt.Errorf("failed to resolve entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEntryNotFound
	}
	return nil
}
