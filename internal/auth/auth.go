// Package auth provides API-key issuance and resolution for the HTTP layer.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/store"
)

// HeaderAPIKey is the request header carrying the API key.
const HeaderAPIKey = "X-API-Key"

// UserContext identifies the authenticated caller of a request.
type UserContext struct {
	UserID string
	Label  string
}

// HashKey returns the SHA-256 hex digest of an API key. Only this digest is
// ever stored.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a 32-byte URL-safe random API key.
func GenerateKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// CreateUser creates a user row and returns (userID, apiKey). The key is
// returned exactly once; afterwards only its hash exists.
func CreateUser(ctx context.Context, s store.Store, label string) (string, string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", "", err
	}
	user := &models.User{
		ID:         uuid.New().String(),
		APIKeyHash: HashKey(key),
		Label:      label,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return "", "", fmt.Errorf("failed to create user: %w", err)
	}
	return user.ID, key, nil
}

// Resolve looks up the user for an API key. Returns store.ErrUserNotFound
// for unknown keys.
func Resolve(ctx context.Context, s store.Store, apiKey string) (*UserContext, error) {
	user, err := s.GetUserByKeyHash(ctx, HashKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &UserContext{UserID: user.ID, Label: user.Label}, nil
}
