package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/google/uuid"
)

// Compile-time check to ensure ActivityRepository implements the interface
var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

// ActivityRepository is the process-local activity log backend
type ActivityRepository struct {
	mu         sync.RWMutex
	activities map[string]*models.Activity
}

// NewActivityRepository creates an empty in-memory log
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{
		activities: make(map[string]*models.Activity),
	}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	r.activities[activity.ID] = cloneActivity(activity)
	return nil
}

func (r *ActivityRepository) FindByLink(ctx context.Context, link string) (*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *models.Activity
	for _, activity := range r.activities {
		if activity.Link != link {
			continue
		}
		if latest == nil || activity.Timestamp.After(latest.Timestamp) {
			latest = activity
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	return cloneActivity(latest), nil
}

func (r *ActivityRepository) FindByMessageID(ctx context.Context, messageID string) (*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, activity := range r.activities {
		if activity.MessageID != nil && *activity.MessageID == messageID {
			return cloneActivity(activity), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activities[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.activities, id)
	return nil
}

func (r *ActivityRepository) FindRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	activities := r.sortedByTimestamp()
	if limit < len(activities) {
		activities = activities[:limit]
	}
	return activities, nil
}

func (r *ActivityRepository) FindAll(ctx context.Context) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedByTimestamp(), nil
}

func (r *ActivityRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.activities)), nil
}

func (r *ActivityRepository) CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, activity := range r.activities {
		if !activity.Timestamp.Before(since) {
			seen[activity.UserID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (r *ActivityRepository) sortedByTimestamp() []*models.Activity {
	activities := make([]*models.Activity, 0, len(r.activities))
	for _, activity := range r.activities {
		activities = append(activities, cloneActivity(activity))
	}
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	return activities
}

func cloneActivity(a *models.Activity) *models.Activity {
	c := *a
	c.MessageID = copyString(a.MessageID)
	return &c
}
