package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
)

// ErrNotFound is returned by every implementation when the requested row does
// not exist. Mutations on unknown ids fail with it rather than upserting.
var ErrNotFound = errors.New("record not found")

// UserRepository is the per-user ledger: points balance, cooldown state, daily
// link counters and the current voice session.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByAPIKey(ctx context.Context, key string) (*models.User, error)
	// FindAll returns every user ordered by points descending.
	FindAll(ctx context.Context) ([]*models.User, error)
	FindTop(ctx context.Context, limit int) ([]*models.User, error)
	FindInVoice(ctx context.Context) ([]*models.User, error)
	// Upsert creates the user with a zero balance if absent, otherwise
	// refreshes only the mutable profile mirror.
	Upsert(ctx context.Context, id, username string, discriminator, avatar *string) (*models.User, error)
	// SetPoints writes the balance and lastPointEarned together. earnedAt may
	// be nil to clear or restore a previous value.
	SetPoints(ctx context.Context, id string, points int, earnedAt *time.Time) error
	// UpdateVoiceStatus records a session boundary. joinedAt is required when
	// inVoice is true. lastVoicePointEarned is cleared on every boundary.
	UpdateVoiceStatus(ctx context.Context, id string, inVoice bool, channelName *string, joinedAt *time.Time) error
	SetLastVoicePoint(ctx context.Context, id string, t *time.Time) error
	// AdjustDailyLinks adds delta to the daily counter, clamped at zero.
	AdjustDailyLinks(ctx context.Context, id string, delta int) (*models.User, error)
	// ResetDailyLinksIfDue zeroes the counter iff the rolling 24h window has
	// elapsed (or was never started) and returns the current row either way.
	ResetDailyLinksIfDue(ctx context.Context, id string, now time.Time) (*models.User, error)
	LinkAPIKey(ctx context.Context, id, key string) error
	Count(ctx context.Context) (int64, error)
	SumPoints(ctx context.Context) (int64, error)
}

// ActivityRepository is the append-only log of point transactions.
type ActivityRepository interface {
	// Create assigns an id if the record has none and persists it.
	Create(ctx context.Context, activity *models.Activity) error
	// FindByLink returns the most recent record with that dedupe key across
	// all users. Dedupe is global: a link rewarded for anyone is spent.
	FindByLink(ctx context.Context, link string) (*models.Activity, error)
	FindByMessageID(ctx context.Context, messageID string) (*models.Activity, error)
	Delete(ctx context.Context, id string) error
	FindRecent(ctx context.Context, limit int) ([]*models.Activity, error)
	FindAll(ctx context.Context) ([]*models.Activity, error)
	Count(ctx context.Context) (int64, error)
	// CountActiveUsersSince counts distinct users with at least one activity
	// at or after the given time.
	CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error)
}

// APIKeyRepository is the credential store behind the /login flow and the
// dashboard key management endpoints.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	FindByKey(ctx context.Context, key string) (*models.APIKey, error)
	FindByID(ctx context.Context, id string) (*models.APIKey, error)
	FindAll(ctx context.Context) ([]*models.APIKey, error)
	Delete(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}
