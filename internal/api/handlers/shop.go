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

// HandleShop handles GET /shop
func HandleShop(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Hydrate the header count for signed-in users
		if sess, ok := session.FromGin(c); ok {
			if _, err := d.Carts.FetchCart(c.Request.Context(), sess); err != nil {
				d.Logger.Debug("Failed to load cart for header", zap.Error(err))
			}
		}
		renderShop(c, d, http.StatusOK, "")
	}
}

// HandleAddToCart handles POST /cart/items
func HandleAddToCart(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		productID := strings.TrimSpace(c.PostForm("product_id"))
		if productID == "" {
			renderShop(c, d, http.StatusUnprocessableEntity, errors.UserMessage(&errors.ErrValidation{Fields: []string{"product_id"}}))
			return
		}

		qty := 1
		if raw := c.PostForm("qty"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				renderShop(c, d, http.StatusUnprocessableEntity, errors.UserMessage(&errors.ErrValidation{Fields: []string{"quantity"}}))
				return
			}
			qty = n
		}

		release, err := d.Guard.Acquire(service.LineKey(sess.UserID, productID))
		if err == nil {
			err = d.Carts.AddItem(c.Request.Context(), sess, productID, qty)
			release()
		}
		if err != nil {
			if errors.IsUnauthenticated(err) {
				c.Redirect(http.StatusSeeOther, navigation.LoginURL(navigation.PathShop))
				return
			}
			d.Logger.Warn("Failed to add to cart", zap.String("product_id", productID), zap.Error(err))
			renderShop(c, d, navigation.StatusFor(err), errors.UserMessage(err))
			return
		}

		c.Redirect(http.StatusSeeOther, navigation.PathShop)
	}
}

func renderShop(c *gin.Context, d *Deps, status int, message string) {
	data := d.page(c, "Menu")
	data["Currency"] = d.Flows.Builder().Currency()
	data["Message"] = message

	products, err := d.Carts.Products(c.Request.Context())
	if err != nil {
		d.Logger.Warn("Failed to load catalog", zap.Error(err))
		data["Message"] = errors.UserMessage(err)
		status = navigation.StatusFor(err)
	}
	data["Products"] = products

	c.HTML(status, "shop.html", data)
}
