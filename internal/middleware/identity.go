package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/repositories"
)

// Identity trusts the numeric identity established by the upstream gateway
// via X-User-ID and resolves it against the user directory. Authentication
// itself happens outside this service.
func Identity(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		userID, err := strconv.Atoi(header)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}

		if _, err := users.GetUser(c.Request.Context(), userID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
