package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories/memory"
)

func TestGetStatsAggregates(t *testing.T) {
	users := memory.NewUserRepository()
	activities := memory.NewActivityRepository()
	status := NewBotStatusTracker()
	svc := NewStatsService(users, activities, status, NewCacheService(nil))
	ctx := context.Background()

	for i, id := range []string{"u1", "u2", "u3"} {
		_, err := users.Upsert(ctx, id, id, nil, nil)
		require.NoError(t, err)
		require.NoError(t, users.SetPoints(ctx, id, i+1, nil))
	}
	now := time.Now()
	require.NoError(t, activities.Create(ctx, &models.Activity{
		UserID: "u1", Type: models.ActivityLinkPaste, Link: "pastebin.com/a", Timestamp: now.Add(-time.Hour),
	}))
	require.NoError(t, activities.Create(ctx, &models.Activity{
		UserID: "u2", Type: models.ActivityVoice, Link: "General", Timestamp: now.Add(-30 * time.Hour),
	}))

	status.SetOnline(true)
	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(6), stats.TotalPoints)
	assert.Equal(t, int64(1), stats.ActiveToday)
	assert.Equal(t, int64(2), stats.LinksPosted)
	assert.Equal(t, "online", stats.BotStatus)
	assert.False(t, stats.LastSync.IsZero())
}

func TestBotStatusTracker(t *testing.T) {
	tracker := NewBotStatusTracker()

	state, lastSync := tracker.Status()
	assert.Equal(t, "offline", state)
	assert.True(t, lastSync.IsZero())

	tracker.SetOnline(true)
	state, lastSync = tracker.Status()
	assert.Equal(t, "online", state)
	assert.False(t, lastSync.IsZero())

	before := lastSync
	tracker.Touch()
	_, after := tracker.Status()
	assert.False(t, after.Before(before))

	tracker.SetOnline(false)
	state, _ = tracker.Status()
	assert.Equal(t, "offline", state)
}
