package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bodima/securestore"
)

const AuthSessionPrefix = "authSession:"

// AuthSessionTTL bounds how long a cached session lives without being refreshed.
const AuthSessionTTL = 24 * time.Hour

// AuthSession caches the identity behind an access token. Sessions are kept
// in the secure store, keyed by the token hash, so a leaked cache never
// exposes raw credentials.
type AuthSession struct {
	UserID        string    `json:"userId"`
	Email         string    `json:"email,omitempty"`
	DeviceName    string    `json:"deviceName,omitempty"`
	TokenHash     string    `json:"tokenHash"`
	Status        string    `json:"status"` // "active" or "revoked"
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// SaveAuthSession stores the session in the secure store with a TTL.
func SaveAuthSession(store *securestore.Store, sessionID string, session AuthSession) error {
	session.LastUpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, AuthSessionPrefix+sessionID, data, AuthSessionTTL); err != nil {
		return fmt.Errorf("failed to save auth session: %w", err)
	}
	return nil
}

// GetAuthSession retrieves the session from the secure store.
func GetAuthSession(store *securestore.Store, sessionID string) (*AuthSession, error) {
	ctx := context.Background()
	data, err := store.Get(ctx, AuthSessionPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// DeleteAuthSession removes a session from the secure store.
func DeleteAuthSession(store *securestore.Store, sessionID string) error {
	ctx := context.Background()
	return store.Delete(ctx, AuthSessionPrefix+sessionID)
}
