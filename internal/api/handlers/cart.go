package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// HandleSetQuantity handles POST /cart/lines/:id
func HandleSetQuantity(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		qty, err := strconv.Atoi(strings.TrimSpace(c.PostForm("qty")))
		if err != nil {
			renderCheckout(c, d, http.StatusUnprocessableEntity, errors.UserMessage(&errors.ErrValidation{Fields: []string{"quantity"}}), nil)
			return
		}

		updateLine(c, d, func(sess session.Session, productID string) error {
			return d.Carts.SetQuantity(c.Request.Context(), sess, productID, qty)
		})
	}
}

// HandleRemoveLine handles POST /cart/lines/:id/remove
func HandleRemoveLine(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		updateLine(c, d, func(sess session.Session, productID string) error {
			return d.Carts.RemoveLine(c.Request.Context(), sess, productID)
		})
	}
}

// updateLine serializes changes to one cart line and returns to checkout
func updateLine(c *gin.Context, d *Deps, op func(sess session.Session, productID string) error) {
	sess := currentSession(c)
	productID := c.Param("id")

	release, err := d.Guard.Acquire(service.LineKey(sess.UserID, productID))
	if err == nil {
		err = op(sess, productID)
		release()
	}
	if err != nil {
		if errors.IsUnauthenticated(err) {
			c.Redirect(http.StatusSeeOther, navigation.LoginURL(navigation.PathCheckout))
			return
		}
		d.Logger.Warn("Failed to update cart line",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		renderCheckout(c, d, navigation.StatusFor(err), errors.UserMessage(err), nil)
		return
	}

	c.Redirect(http.StatusSeeOther, navigation.PathCheckout)
}
