package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bodima/securestore"
	"bodima/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token and caches the resolved
// identity as an auth session in the secure store, keyed by the token hash.
// Downstream handlers read "userID" and "sessionID" from the gin context.
func JWTAuthMiddleware(store *securestore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Recover from unexpected panics.
		defer func() {
			if r := recover(); r != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  500,
				})
			}
		}()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		sessionID := utils.HashToken(tokenString)

		session, err := utils.GetAuthSession(store, sessionID)
		switch {
		case err != nil && errors.Is(err, securestore.ErrNotFound):
			// First sighting of this token: cache the identity.
			newSession := utils.AuthSession{
				UserID:     userID,
				DeviceName: c.GetHeader("User-Agent"),
				TokenHash:  sessionID,
				Status:     "active",
				CreatedAt:  time.Now(),
			}
			if saveErr := utils.SaveAuthSession(store, sessionID, newSession); saveErr != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to establish session",
					"code":  500,
				})
				return
			}
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load session",
				"code":  500,
			})
			return
		case session.Status == "revoked":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Session revoked",
				"code":  0,
			})
			return
		}

		c.Set("userID", userID)
		c.Set("sessionID", sessionID)
		c.Next()
	}
}
