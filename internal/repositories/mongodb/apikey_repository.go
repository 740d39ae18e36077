package mongodb

import (
	"context"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure APIKeyRepository implements the interface
var _ repositories.APIKeyRepository = (*APIKeyRepository)(nil)

// APIKeyRepository handles MongoDB operations for dashboard credentials
type APIKeyRepository struct {
	collection *mongo.Collection
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *mongo.Database) *APIKeyRepository {
	return &APIKeyRepository{
		collection: db.Collection("apiKeys"),
	}
}

// Create assigns an id if missing and inserts the key
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, key)
	return err
}

// FindByKey finds a credential by its secret value
func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&apiKey)
	if err != nil {
		return nil, mapErr(err)
	}
	return &apiKey, nil
}

// FindByID finds a credential by id
func (r *APIKeyRepository) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&apiKey)
	if err != nil {
		return nil, mapErr(err)
	}
	return &apiKey, nil
}

// FindAll returns every credential, newest first
func (r *APIKeyRepository) FindAll(ctx context.Context) ([]*models.APIKey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var keys []*models.APIKey
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &keys); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}
	return keys, nil
}

// Delete revokes a credential
func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// TouchLastUsed records that the credential was just used
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{"lastUsed": at}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
