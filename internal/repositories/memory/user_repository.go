package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
)

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository is the process-local ledger backend. Data is lost on
// restart; it exists for development and tests.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUserRepository creates an empty in-memory ledger
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*models.User),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) FindByAPIKey(ctx context.Context, key string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.LinkedAPIKey != nil && *user.LinkedAPIKey == key {
			return cloneUser(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedByPoints(), nil
}

func (r *UserRepository) FindTop(ctx context.Context, limit int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := r.sortedByPoints()
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (r *UserRepository) FindInVoice(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := []*models.User{}
	for _, user := range r.users {
		if user.InVoiceChannel {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (r *UserRepository) Upsert(ctx context.Context, id, username string, discriminator, avatar *string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user, ok := r.users[id]
	if !ok {
		user = &models.User{
			ID:        id,
			CreatedAt: now,
		}
		r.users[id] = user
	}
	user.Username = username
	user.Discriminator = discriminator
	user.Avatar = avatar
	user.UpdatedAt = now
	return cloneUser(user), nil
}

func (r *UserRepository) SetPoints(ctx context.Context, id string, points int, earnedAt *time.Time) error {
	return r.mutate(id, func(user *models.User) {
		user.Points = points
		user.LastPointEarned = copyTime(earnedAt)
	})
}

func (r *UserRepository) UpdateVoiceStatus(ctx context.Context, id string, inVoice bool, channelName *string, joinedAt *time.Time) error {
	return r.mutate(id, func(user *models.User) {
		user.InVoiceChannel = inVoice
		user.VoiceChannelName = copyString(channelName)
		user.VoiceJoinedAt = copyTime(joinedAt)
		user.LastVoicePointEarned = nil
	})
}

func (r *UserRepository) SetLastVoicePoint(ctx context.Context, id string, t *time.Time) error {
	return r.mutate(id, func(user *models.User) {
		user.LastVoicePointEarned = copyTime(t)
	})
}

func (r *UserRepository) AdjustDailyLinks(ctx context.Context, id string, delta int) (*models.User, error) {
	var updated *models.User
	err := r.mutate(id, func(user *models.User) {
		user.DailyLinksPosted += delta
		if user.DailyLinksPosted < 0 {
			user.DailyLinksPosted = 0
		}
		updated = cloneUser(user)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *UserRepository) ResetDailyLinksIfDue(ctx context.Context, id string, now time.Time) (*models.User, error) {
	var updated *models.User
	err := r.mutate(id, func(user *models.User) {
		if user.LastDailyReset == nil || now.Sub(*user.LastDailyReset) >= 24*time.Hour {
			user.DailyLinksPosted = 0
			reset := now
			user.LastDailyReset = &reset
		}
		updated = cloneUser(user)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *UserRepository) LinkAPIKey(ctx context.Context, id, key string) error {
	return r.mutate(id, func(user *models.User) {
		linked := key
		user.LinkedAPIKey = &linked
	})
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *UserRepository) SumPoints(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, user := range r.users {
		total += int64(user.Points)
	}
	return total, nil
}

// mutate runs fn against the live row under the write lock and bumps
// UpdatedAt
func (r *UserRepository) mutate(id string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) sortedByPoints() []*models.User {
	users := make([]*models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Points > users[j].Points
	})
	return users
}

// cloneUser returns a deep copy so callers never alias the stored row
func cloneUser(u *models.User) *models.User {
	c := *u
	c.Discriminator = copyString(u.Discriminator)
	c.Avatar = copyString(u.Avatar)
	c.LastPointEarned = copyTime(u.LastPointEarned)
	c.LastDailyReset = copyTime(u.LastDailyReset)
	c.LinkedAPIKey = copyString(u.LinkedAPIKey)
	c.VoiceChannelName = copyString(u.VoiceChannelName)
	c.VoiceJoinedAt = copyTime(u.VoiceJoinedAt)
	c.LastVoicePointEarned = copyTime(u.LastVoicePointEarned)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
