package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for the user ledger
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// FindByID finds a user by Discord id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

// FindByAPIKey finds the user that linked the given API key
func (r *UserRepository) FindByAPIKey(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"linkedApiKey": key}).Decode(&user)
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

// FindAll retrieves all users ordered by points descending
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "points", Value: -1}})
	return r.findMany(ctx, bson.M{}, opts)
}

// FindTop retrieves the top N users by points
func (r *UserRepository) FindTop(ctx context.Context, limit int) ([]*models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}}).
		SetLimit(int64(limit))
	return r.findMany(ctx, bson.M{}, opts)
}

// FindInVoice retrieves all users currently in a voice channel
func (r *UserRepository) FindInVoice(ctx context.Context) ([]*models.User, error) {
	return r.findMany(ctx, bson.M{"inVoiceChannel": true}, options.Find())
}

// Upsert creates the user with a zero balance if absent, otherwise refreshes
// the profile mirror only
func (r *UserRepository) Upsert(ctx context.Context, id, username string, discriminator, avatar *string) (*models.User, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":      username,
			"discriminator": discriminator,
			"avatar":        avatar,
			"updatedAt":     now,
		},
		"$setOnInsert": bson.M{
			"points":           0,
			"dailyLinksPosted": 0,
			"inVoiceChannel":   false,
			"createdAt":        now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPoints writes the balance and lastPointEarned together
func (r *UserRepository) SetPoints(ctx context.Context, id string, points int, earnedAt *time.Time) error {
	update := bson.M{"$set": bson.M{
		"points":          points,
		"lastPointEarned": earnedAt,
		"updatedAt":       time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

// UpdateVoiceStatus records a voice session boundary; lastVoicePointEarned is
// cleared on every boundary so accrual always restarts from the new session
func (r *UserRepository) UpdateVoiceStatus(ctx context.Context, id string, inVoice bool, channelName *string, joinedAt *time.Time) error {
	update := bson.M{"$set": bson.M{
		"inVoiceChannel":       inVoice,
		"voiceChannelName":     channelName,
		"voiceJoinedAt":        joinedAt,
		"lastVoicePointEarned": nil,
		"updatedAt":            time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

// SetLastVoicePoint advances (or clears) the voice accrual reference point
func (r *UserRepository) SetLastVoicePoint(ctx context.Context, id string, t *time.Time) error {
	update := bson.M{"$set": bson.M{
		"lastVoicePointEarned": t,
		"updatedAt":            time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

// AdjustDailyLinks adds delta to the daily counter, clamped at zero. The
// caller serializes writes per user, so read-then-write is safe here.
func (r *UserRepository) AdjustDailyLinks(ctx context.Context, id string, delta int) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := user.DailyLinksPosted + delta
	if next < 0 {
		next = 0
	}
	update := bson.M{"$set": bson.M{
		"dailyLinksPosted": next,
		"updatedAt":        time.Now(),
	}}
	if err := r.updateOne(ctx, id, update); err != nil {
		return nil, err
	}
	user.DailyLinksPosted = next
	return user, nil
}

// ResetDailyLinksIfDue zeroes the counter iff the rolling 24h window elapsed
func (r *UserRepository) ResetDailyLinksIfDue(ctx context.Context, id string, now time.Time) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.LastDailyReset != nil && now.Sub(*user.LastDailyReset) < 24*time.Hour {
		return user, nil
	}
	update := bson.M{"$set": bson.M{
		"dailyLinksPosted": 0,
		"lastDailyReset":   now,
		"updatedAt":        time.Now(),
	}}
	if err := r.updateOne(ctx, id, update); err != nil {
		return nil, err
	}
	user.DailyLinksPosted = 0
	user.LastDailyReset = &now
	return user, nil
}

// LinkAPIKey stores the key on the user. Uniqueness across users is the login
// flow's responsibility.
func (r *UserRepository) LinkAPIKey(ctx context.Context, id, key string) error {
	update := bson.M{"$set": bson.M{
		"linkedApiKey": key,
		"updatedAt":    time.Now(),
	}}
	return r.updateOne(ctx, id, update)
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// SumPoints returns the sum of all point balances
func (r *UserRepository) SumPoints(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$points"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (r *UserRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.User, error) {
	var users []*models.User
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// mapErr translates driver errors: missing documents become ErrNotFound,
// everything else is tagged as a store fault.
func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	return apperrors.New(apperrors.ErrStore, "mongodb operation failed", err)
}
