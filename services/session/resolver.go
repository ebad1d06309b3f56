package session

import (
	"context"
	"errors"

	"bodima/securestore"
	"bodima/utils"
)

// SecureResolver resolves the acting user from the cached auth session.
type SecureResolver struct {
	Store *securestore.Store
}

// Resolve returns the user id behind the given session, or an error when
// the session is missing, revoked, or carries no user.
func (r *SecureResolver) Resolve(ctx context.Context, sessionID string) (string, error) {
	sess, err := utils.GetAuthSession(r.Store, sessionID)
	if err != nil {
		if errors.Is(err, securestore.ErrNotFound) {
			return "", errors.New("session not found")
		}
		return "", err
	}
	if sess.Status == "revoked" {
		return "", errors.New("session revoked")
	}
	if sess.UserID == "" {
		return "", errors.New("session has no user")
	}
	return sess.UserID, nil
}
