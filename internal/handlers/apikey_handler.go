package handlers

import (
	"errors"
	"net/http"

	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/gin-gonic/gin"
)

// APIKeyHandler handles dashboard credential management HTTP requests
type APIKeyHandler struct {
	apiKeyService *services.APIKeyService
}

// NewAPIKeyHandler creates a new APIKeyHandler
func NewAPIKeyHandler(apiKeyService *services.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
	}
}

// CreateKey handles POST /api/keys
func (h *APIKeyHandler) CreateKey(c *gin.Context) {
	key, err := h.apiKeyService.CreateKey(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create key: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, key)
}

// GetAllKeys handles GET /api/keys
func (h *APIKeyHandler) GetAllKeys(c *gin.Context) {
	keys, err := h.apiKeyService.GetAllKeys(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch keys: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// RevokeKey handles DELETE /api/keys/:id
func (h *APIKeyHandler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.apiKeyService.RevokeKey(c, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke key: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}
