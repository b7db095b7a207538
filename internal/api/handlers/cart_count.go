package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// HandleCartCount handles GET /api/cart/count
func HandleCartCount(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromGin(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		count, ok := d.Counter.Count(sess.UserID)
		if !ok {
			// FetchCart publishes the count
			if _, err := d.Carts.FetchCart(c.Request.Context(), sess); err != nil {
				c.JSON(navigation.StatusFor(err), gin.H{"error": errors.UserMessage(err)})
				return
			}
			count, _ = d.Counter.Count(sess.UserID)
		}

		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// HandleCartCountStream handles GET /api/cart/count/stream. Every change
// of the signed-in user's cart count is pushed as a "count" event.
func HandleCartCountStream(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromGin(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		updates, cancel := d.Counter.Subscribe(sess.UserID)
		defer cancel()

		if _, known := d.Counter.Count(sess.UserID); !known {
			// Publishes the first value to the subscription
			if _, err := d.Carts.FetchCart(c.Request.Context(), sess); err != nil {
				c.JSON(navigation.StatusFor(err), gin.H{"error": errors.UserMessage(err)})
				return
			}
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case count := <-updates:
				c.SSEvent("count", count)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
