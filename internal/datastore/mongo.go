package datastore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore writes documents to a MongoDB database.
type MongoStore struct {
	uri      string
	database string
	client   *mongo.Client
	db       *mongo.Database
}

// NewMongoStore creates a MongoStore; no connection is made until Connect.
func NewMongoStore(uri, database string) *MongoStore {
	return &MongoStore{uri: uri, database: database}
}

// Connect dials the server and pings the primary.
func (m *MongoStore) Connect(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	m.client = client
	m.db = client.Database(m.database)
	return nil
}

// InsertDocuments inserts docs with a single InsertMany call.
func (m *MongoStore) InsertDocuments(ctx context.Context, collection string, docs []Document) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	batch := make([]any, len(docs))
	for i, doc := range docs {
		batch[i] = doc
	}

	if _, err := m.db.Collection(collection).InsertMany(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

// EnsureIndexes creates an ascending language index and a text index on title.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(BooksCollection).Indexes().CreateMany(ctx, bookIndexes())
	if err != nil {
		return fmt.Errorf("failed to create book indexes: %w", err)
	}
	return nil
}

func bookIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "language", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}}},
	}
}

// Close disconnects the client.
func (m *MongoStore) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
