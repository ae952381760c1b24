package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/warehouse/internal/repository"
)

const (
	collectionName = "ledger_documents"
	defaultKey     = "warehouse_app_v2"
)

type ledgerRecord struct {
	Key       string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoDBRepository keeps the ledger document as a single MongoDB record.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	key      string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: collectionName,
		key:      defaultKey,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Load returns the stored document, or repository.ErrNotFound.
func (r *MongoDBRepository) Load(ctx context.Context) ([]byte, error) {
	var record ledgerRecord
	err := r.collection().FindOne(ctx, bson.M{"_id": r.key}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger document: %w", err)
	}
	return []byte(record.Payload), nil
}

// Save replaces the stored document. Last write wins.
func (r *MongoDBRepository) Save(ctx context.Context, payload []byte) error {
	record := ledgerRecord{
		Key:       r.key,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection().ReplaceOne(ctx, bson.M{"_id": r.key}, record, opts); err != nil {
		return fmt.Errorf("failed to save ledger document: %w", err)
	}
	return nil
}

// Clear deletes the stored document.
func (r *MongoDBRepository) Clear(ctx context.Context) error {
	if _, err := r.collection().DeleteOne(ctx, bson.M{"_id": r.key}); err != nil {
		return fmt.Errorf("failed to clear ledger document: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
