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

// Compile-time check to ensure ActivityRepository implements the interface
var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

// ActivityRepository handles MongoDB operations for the activity log
type ActivityRepository struct {
	collection *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		collection: db.Collection("activities"),
	}
}

// Create assigns an id if missing and inserts the record
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// FindByLink returns the most recent record with that dedupe key
func (r *ActivityRepository) FindByLink(ctx context.Context, link string) (*models.Activity, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var activity models.Activity
	err := r.collection.FindOne(ctx, bson.M{"link": link}, opts).Decode(&activity)
	if err != nil {
		return nil, mapErr(err)
	}
	return &activity, nil
}

// FindByMessageID finds the record created for a source message
func (r *ActivityRepository) FindByMessageID(ctx context.Context, messageID string) (*models.Activity, error) {
	var activity models.Activity
	err := r.collection.FindOne(ctx, bson.M{"messageId": messageID}).Decode(&activity)
	if err != nil {
		return nil, mapErr(err)
	}
	return &activity, nil
}

// Delete removes a record by id (reversal path only)
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// FindRecent returns the latest N records, newest first
func (r *ActivityRepository) FindRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	return r.findMany(ctx, bson.M{}, opts)
}

// FindAll returns the full history, newest first
func (r *ActivityRepository) FindAll(ctx context.Context) ([]*models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return r.findMany(ctx, bson.M{}, opts)
}

// Count returns the total number of records
func (r *ActivityRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// CountActiveUsersSince counts distinct users with an activity since the
// given time
func (r *ActivityRepository) CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error) {
	values, err := r.collection.Distinct(ctx, "userId", bson.M{
		"timestamp": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, err
	}
	return int64(len(values)), nil
}

func (r *ActivityRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Activity, error) {
	var activities []*models.Activity
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	return activities, nil
}
