package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/auth"
	"github.com/Negixaab/runningbuddy/pkg/response"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

// Auth verifies the bearer token and stores the caller's user id.
// Browsers cannot set headers on websocket upgrades, so a ?token= query
// parameter is accepted as well.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
