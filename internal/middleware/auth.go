package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adoption-service/internal/identity"
)

const (
	// UserIDKey and RoleKey are the gin context keys set for the
	// authenticated caller.
	UserIDKey = "userID"
	RoleKey   = "userRole"
)

// AuthMiddleware validates the Authorization header against the
// identity service and stores the session on the context.
func AuthMiddleware(verifier identity.SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		session, err := verifier.VerifySession(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, session.UserID)
		c.Set(RoleKey, session.Role)
		c.Next()
	}
}
