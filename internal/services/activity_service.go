package services

import (
	"context"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
)

// ActivityService handles the read side of the activity log
type ActivityService struct {
	activityRepo repositories.ActivityRepository
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repositories.ActivityRepository) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
	}
}

// GetRecentActivities retrieves the latest N activities, newest first
func (s *ActivityService) GetRecentActivities(ctx context.Context, limit int) ([]*models.Activity, error) {
	return s.activityRepo.FindRecent(ctx, limit)
}

// GetAllActivities retrieves the full activity history, newest first
func (s *ActivityService) GetAllActivities(ctx context.Context) ([]*models.Activity, error) {
	return s.activityRepo.FindAll(ctx)
}
