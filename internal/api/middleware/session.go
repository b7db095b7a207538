package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/session"
)

// RequireSession rejects API requests without a valid session
func RequireSession(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.FromGin(c); !ok {
			logger.Debug("Rejecting anonymous API request", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// GetSessionFromContext returns the session of an authenticated request
func GetSessionFromContext(c *gin.Context) (session.Session, bool) {
	return session.FromGin(c)
}
