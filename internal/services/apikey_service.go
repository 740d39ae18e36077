package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/internal/utils"
)

// APIKeyService manages dashboard credentials
type APIKeyService struct {
	apiKeyRepo repositories.APIKeyRepository
}

// NewAPIKeyService creates a new APIKeyService
func NewAPIKeyService(apiKeyRepo repositories.APIKeyRepository) *APIKeyService {
	return &APIKeyService{
		apiKeyRepo: apiKeyRepo,
	}
}

// CreateKey generates and stores a new credential
func (s *APIKeyService) CreateKey(ctx context.Context) (*models.APIKey, error) {
	secret, err := utils.GenerateAPIKeySecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	key := &models.APIKey{
		Key:       secret,
		CreatedAt: time.Now(),
	}
	if err := s.apiKeyRepo.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// GetAllKeys retrieves every credential, newest first
func (s *APIKeyService) GetAllKeys(ctx context.Context) ([]*models.APIKey, error) {
	return s.apiKeyRepo.FindAll(ctx)
}

// RevokeKey deletes a credential by id
func (s *APIKeyService) RevokeKey(ctx context.Context, id string) error {
	return s.apiKeyRepo.Delete(ctx, id)
}
