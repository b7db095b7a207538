package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
)

// checkoutFields are the form inputs kept across a failed submit
var checkoutFields = []string{
	"attempt_id",
	"order_type",
	"customer_name",
	"customer_phone",
	"street",
	"house_number",
	"postal_code",
	"city",
	"floor",
	"instructions",
}

// HandleCheckoutPage handles GET /checkout
func HandleCheckoutPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Carts.LoadCart(c.Request.Context(), currentSession(c))
		t := d.Nav.ForCart(navigation.ViewCheckout, navigation.PathCheckout, len(items), err)
		apply(c, t, checkoutData(c, d, items, nil))
	}
}

// HandleCheckoutSubmit handles POST /checkout
func HandleCheckoutSubmit(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		form := make(map[string]string, len(checkoutFields))
		for _, field := range checkoutFields {
			form[field] = c.PostForm(field)
		}

		// Price the order from the cart as it is now
		items, err := d.Carts.LoadCart(c.Request.Context(), sess)
		if err != nil {
			t := d.Nav.ForCart(navigation.ViewCheckout, navigation.PathCheckout, 0, err)
			apply(c, t, checkoutData(c, d, nil, form))
			return
		}

		orderType := domain.OrderType(strings.TrimSpace(form["order_type"]))
		var addr *domain.DeliveryAddress
		if orderType == domain.OrderTypeDelivery {
			addr = &domain.DeliveryAddress{
				CustomerName:  strings.TrimSpace(form["customer_name"]),
				CustomerPhone: strings.TrimSpace(form["customer_phone"]),
				Street:        strings.TrimSpace(form["street"]),
				HouseNumber:   strings.TrimSpace(form["house_number"]),
				PostalCode:    strings.TrimSpace(form["postal_code"]),
				City:          strings.TrimSpace(form["city"]),
				Floor:         strings.TrimSpace(form["floor"]),
				Instructions:  strings.TrimSpace(form["instructions"]),
			}
		}

		// a missing or malformed attempt id starts a new attempt
		attemptID, _ := uuid.Parse(strings.TrimSpace(form["attempt_id"]))
		flow := service.ContinueFlow(attemptID)
		err = d.Flows.SubmitCheckout(c.Request.Context(), sess, flow, items, orderType, addr)
		if err != nil {
			d.Logger.Info("Checkout not completed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
		form["attempt_id"] = flow.AttemptID.String()

		t := d.Nav.ForCheckout(flow, err)
		apply(c, t, checkoutData(c, d, items, form))
	}
}

func checkoutData(c *gin.Context, d *Deps, items []domain.DisplayLineItem, form map[string]string) gin.H {
	if form == nil {
		form = map[string]string{}
	}
	if _, err := uuid.Parse(form["attempt_id"]); err != nil {
		form["attempt_id"] = uuid.New().String()
	}
	builder := d.Flows.Builder()

	data := d.page(c, "Checkout")
	data["Items"] = items
	data["Form"] = form
	data["Currency"] = builder.Currency()
	data["Subtotal"] = builder.Subtotal(items)
	data["Surcharge"] = builder.Surcharge(domain.OrderTypeDelivery)
	data["PickupTotal"] = builder.ComputeTotal(items, domain.OrderTypePickup)
	data["DeliveryTotal"] = builder.ComputeTotal(items, domain.OrderTypeDelivery)
	return data
}

// renderCheckout shows the checkout page with an inline message
func renderCheckout(c *gin.Context, d *Deps, status int, message string, form map[string]string) {
	items, err := d.Carts.LoadCart(c.Request.Context(), currentSession(c))
	if err != nil {
		t := d.Nav.ForCart(navigation.ViewCheckout, navigation.PathCheckout, 0, err)
		apply(c, t, checkoutData(c, d, nil, form))
		return
	}

	data := checkoutData(c, d, items, form)
	data["Message"] = message
	c.HTML(status, navigation.ViewCheckout, data)
}
