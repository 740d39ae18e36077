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

// Compile-time check to ensure APIKeyRepository implements the interface
var _ repositories.APIKeyRepository = (*APIKeyRepository)(nil)

// APIKeyRepository is the process-local credential store backend
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]*models.APIKey
}

// NewAPIKeyRepository creates an empty in-memory credential store
func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys: make(map[string]*models.APIKey),
	}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	r.keys[key.ID] = cloneKey(key)
	return nil
}

func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.keys {
		if k.Key == key {
			return cloneKey(k), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *APIKeyRepository) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneKey(k), nil
}

func (r *APIKeyRepository) FindAll(ctx context.Context) ([]*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]*models.APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		keys = append(keys, cloneKey(k))
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.keys, id)
	return nil
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return repositories.ErrNotFound
	}
	used := at
	k.LastUsed = &used
	return nil
}

func cloneKey(k *models.APIKey) *models.APIKey {
	c := *k
	c.LastUsed = copyTime(k.LastUsed)
	return &c
}
