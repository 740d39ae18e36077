package services

import (
	"context"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
)

// StatsService aggregates the dashboard overview numbers
type StatsService struct {
	userRepo     repositories.UserRepository
	activityRepo repositories.ActivityRepository
	status       *BotStatusTracker
	cache        *CacheService
}

// NewStatsService creates a new StatsService
func NewStatsService(userRepo repositories.UserRepository, activityRepo repositories.ActivityRepository, status *BotStatusTracker, cache *CacheService) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		status:       status,
		cache:        cache,
	}
}

// GetStats computes the dashboard aggregates. The bot status fields are read
// live even on a cache hit so a disconnect shows up immediately.
func (s *StatsService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if s.cache.Get(ctx, "stats", &stats) {
		stats.BotStatus, stats.LastSync = s.status.Status()
		return &stats, nil
	}

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalPoints, err := s.userRepo.SumPoints(ctx)
	if err != nil {
		return nil, err
	}
	activeToday, err := s.activityRepo.CountActiveUsersSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	linksPosted, err := s.activityRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats = models.DashboardStats{
		TotalUsers:  totalUsers,
		TotalPoints: totalPoints,
		ActiveToday: activeToday,
		LinksPosted: linksPosted,
	}
	s.cache.Set(ctx, "stats", stats)
	stats.BotStatus, stats.LastSync = s.status.Status()
	return &stats, nil
}
