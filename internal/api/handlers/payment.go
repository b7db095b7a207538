package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
	"github.com/analytica/storefront/internal/session"
)

var providers = []domain.Provider{
	domain.ProviderCard,
	domain.ProviderWallet,
	domain.ProviderBankTransfer,
}

// HandlePaymentPage handles GET /payment?order_id=&amount=&currency=
func HandlePaymentPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.FromGin(c); !ok {
			c.Redirect(http.StatusSeeOther, navigation.LoginURL(c.Request.URL.RequestURI()))
			return
		}

		state, err := navigation.ParseTransferState(c.Request.URL.Query())
		if err != nil {
			// No accepted order to pay for
			c.Redirect(http.StatusSeeOther, navigation.PathCheckout)
			return
		}

		c.HTML(http.StatusOK, navigation.ViewPayment, paymentData(c, d, state, domain.ProviderCard, nil))
	}
}

// HandlePaymentSubmit handles POST /payment
func HandlePaymentSubmit(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)

		if err := c.Request.ParseForm(); err != nil {
			c.Redirect(http.StatusSeeOther, navigation.PathCheckout)
			return
		}
		state, err := navigation.ParseTransferState(c.Request.PostForm)
		if err != nil {
			c.Redirect(http.StatusSeeOther, navigation.PathCheckout)
			return
		}

		provider := domain.Provider(strings.TrimSpace(c.PostForm("provider")))
		details := make(map[string]string)
		for _, p := range providers {
			for _, field := range append(p.RequiredFields(), p.OptionalFields()...) {
				if value := c.PostForm(field); value != "" {
					details[field] = value
				}
			}
		}

		flow := service.ResumePayment(state.OrderID, state.Amount, state.Currency)
		err = d.Flows.SubmitPayment(c.Request.Context(), sess, flow, provider, details)
		if err != nil {
			d.Logger.Info("Payment not completed",
				zap.String("order_id", state.OrderID),
				zap.Error(err),
			)
		} else if _, err := d.Carts.FetchCart(c.Request.Context(), sess); err != nil {
			d.Logger.Debug("Failed to refresh cart after payment", zap.Error(err))
		}

		data := paymentData(c, d, state, flow.Provider, flow.PaymentDetails)
		data["OrderID"] = flow.OrderID
		data["PaymentID"] = flow.PaymentID
		apply(c, d.Nav.ForPayment(flow, err), data)
	}
}

// HandleConfirmation handles GET /confirmation
func HandleConfirmation(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Query("order_id")
		if orderID == "" {
			c.Redirect(http.StatusSeeOther, navigation.PathShop)
			return
		}

		data := d.page(c, "Order confirmed")
		data["OrderID"] = orderID
		data["PaymentID"] = c.Query("payment_id")
		c.HTML(http.StatusOK, navigation.ViewConfirmation, data)
	}
}

func paymentData(c *gin.Context, d *Deps, state navigation.TransferState, provider domain.Provider, details map[string]string) gin.H {
	if details == nil {
		details = map[string]string{}
	}
	data := d.page(c, "Payment")
	data["Transfer"] = state
	data["Provider"] = string(provider)
	data["Details"] = details
	return data
}

