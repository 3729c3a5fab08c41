// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 10 * time.Second

// MongoDBWriter stores records as documents in a collection.
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBWriter connects to the URI and binds database/collection.
func NewMongoDBWriter(uri, database, collection string) (*MongoDBWriter, error) {
	if database == "" {
		database = "chromepuppet"
	}
	if collection == "" {
		collection = "records"
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	return &MongoDBWriter{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Write inserts the batch as individual documents with a created_at
// stamp.
func (w *MongoDBWriter) Write(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	now := time.Now()
	for _, r := range records {
		doc := bson.M{"created_at": now}
		for k, v := range r {
			doc[k] = v
		}
		docs = append(docs, doc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	if _, err := w.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// Flush is a no-op; inserts are immediate.
func (w *MongoDBWriter) Flush() error { return nil }

// Close disconnects the client.
func (w *MongoDBWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client = nil
	return err
}
