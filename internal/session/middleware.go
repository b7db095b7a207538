package session

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware resolves the session cookie into a Session on the request
// context. Requests without a usable session pass through anonymously;
// the pages that need one redirect to login themselves.
func Middleware(cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		s, err := FromToken(token)
		if err != nil {
			logger.Debug("Ignoring unreadable session cookie", zap.Error(err))
			c.Next()
			return
		}
		if !s.Valid(time.Now()) {
			logger.Debug("Session expired", zap.String("user_id", s.UserID))
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// FromGin returns the session attached by Middleware
func FromGin(c *gin.Context) (Session, bool) {
	return FromContext(c.Request.Context())
}
