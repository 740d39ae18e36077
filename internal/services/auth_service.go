package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kurdishgpt/Slaw/internal/config"
	"github.com/Kurdishgpt/Slaw/internal/utils"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
// Both failures map to the same error so the response leaks nothing.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles the admin dashboard login. The single admin account
// lives in configuration, not in the store.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// Login verifies the admin credentials and returns a signed session token
func (s *AuthService) Login(email, password string) (string, error) {
	if email != s.cfg.Admin.Email {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return utils.GenerateJWT(email, "admin", s.cfg)
}
