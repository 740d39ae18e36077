package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/pkg/logger"
)

// UserService handles the read side of the user ledger for the dashboard
type UserService struct {
	userRepo   repositories.UserRepository
	apiKeyRepo repositories.APIKeyRepository
	cache      *CacheService
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, apiKeyRepo repositories.APIKeyRepository, cache *CacheService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		apiKeyRepo: apiKeyRepo,
		cache:      cache,
	}
}

// GetLeaderboard retrieves all users ordered by points descending
func (s *UserService) GetLeaderboard(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if s.cache.Get(ctx, "leaderboard", &users) {
		return users, nil
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, "leaderboard", users)
	return users, nil
}

// GetTopUsers retrieves the top N users by points
func (s *UserService) GetTopUsers(ctx context.Context, limit int) ([]*models.User, error) {
	return s.userRepo.FindTop(ctx, limit)
}

// GetUserByAPIKey retrieves the user linked to the given key and records the
// key usage.
func (s *UserService) GetUserByAPIKey(ctx context.Context, key string) (*models.User, error) {
	user, err := s.userRepo.FindByAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.apiKeyRepo.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up api key: %w", err)
		}
		// Linked key was revoked after linking; the user row still
		// references it
		return nil, repositories.ErrNotFound
	}
	if err := s.apiKeyRepo.TouchLastUsed(ctx, apiKey.ID, time.Now()); err != nil {
		logger.Warnf("failed to touch api key %s: %v", apiKey.ID, err)
	}
	return user, nil
}
