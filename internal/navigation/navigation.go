package navigation

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/internal/service"
	"github.com/analytica/storefront/pkg/errors"
)

// Page paths of the storefront
const (
	PathLogin        = "/auth"
	PathShop         = "/shop"
	PathCheckout     = "/checkout"
	PathPayment      = "/payment"
	PathConfirmation = "/confirmation"
)

// Views rendered by the storefront
const (
	ViewCheckout       = "checkout.html"
	ViewCartEmpty      = "cart_empty.html"
	ViewPayment        = "payment.html"
	ViewPaymentSuccess = "payment_success.html"
	ViewConfirmation   = "confirmation.html"
)

// Kind says how a handler carries out a transition
type Kind int

const (
	// Render shows View on the current page
	Render Kind = iota
	// Redirect sends the browser to Location
	Redirect
	// RenderThenRedirect shows View and moves on to Location after Delay
	RenderThenRedirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case RenderThenRedirect:
		return "render_then_redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Transition is the page change that follows a flow outcome
type Transition struct {
	Kind     Kind
	Status   int
	View     string
	Location string
	Message  string
	Delay    time.Duration
}

// Controller maps flow outcomes to page transitions
type Controller struct {
	confirmationDelay time.Duration
}

func NewController(confirmationDelay time.Duration) *Controller {
	return &Controller{confirmationDelay: confirmationDelay}
}

// ForCart decides what a page that hydrates the cart on entry shows
func (c *Controller) ForCart(view, returnTo string, lines int, err error) Transition {
	if err != nil {
		return c.failure(view, returnTo, err)
	}
	if lines == 0 {
		return Transition{Kind: Render, Status: http.StatusOK, View: ViewCartEmpty}
	}
	return Transition{Kind: Render, Status: http.StatusOK, View: view}
}

// ForCheckout decides where a checkout submit leads. An accepted order
// moves on to payment carrying its transfer state.
func (c *Controller) ForCheckout(flow *service.Flow, err error) Transition {
	if err == nil {
		state := TransferState{OrderID: flow.OrderID, Amount: flow.Amount, Currency: flow.Currency}
		return Transition{
			Kind:     Redirect,
			Status:   http.StatusSeeOther,
			Location: PathPayment + "?" + state.Encode(),
		}
	}
	if errors.IsEmptyCart(err) {
		return Transition{Kind: Redirect, Status: http.StatusSeeOther, Location: PathShop}
	}
	return c.failure(ViewCheckout, PathCheckout, err)
}

// ForPayment decides where a payment submit leads. A confirmed payment
// shows a success notice before moving on to the confirmation page.
func (c *Controller) ForPayment(flow *service.Flow, err error) Transition {
	if err == nil {
		q := url.Values{}
		q.Set("order_id", flow.OrderID)
		q.Set("payment_id", flow.PaymentID)
		return Transition{
			Kind:     RenderThenRedirect,
			Status:   http.StatusOK,
			View:     ViewPaymentSuccess,
			Location: PathConfirmation + "?" + q.Encode(),
			Delay:    c.confirmationDelay,
		}
	}
	returnTo := PathPayment
	if flow != nil && flow.OrderID != "" {
		state := TransferState{OrderID: flow.OrderID, Amount: flow.Amount, Currency: flow.Currency}
		returnTo += "?" + state.Encode()
	}
	return c.failure(ViewPayment, returnTo, err)
}

// failure keeps the user on the current step with the error inline,
// unless the session is gone.
func (c *Controller) failure(view, returnTo string, err error) Transition {
	if errors.IsUnauthenticated(err) {
		return Transition{Kind: Redirect, Status: http.StatusSeeOther, Location: LoginURL(returnTo)}
	}
	return Transition{
		Kind:    Render,
		Status:  StatusFor(err),
		View:    view,
		Message: errors.UserMessage(err),
	}
}

// StatusFor is the HTTP status a page or API answer carries for err
func StatusFor(err error) int {
	var (
		invalid  *errors.ErrValidation
		empty    *errors.ErrEmptyCart
		checkout *errors.ErrCheckoutRejected
		payment  *errors.ErrPaymentRejected
		busy     *errors.ErrBusy
		state    *errors.ErrInvalidStateTransition
		unauth   *errors.ErrUnauthenticated
		unavail  *errors.ErrUnavailable
		notFound *errors.ErrNotFound
	)

	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.As(err, &unauth):
		return http.StatusUnauthorized
	case stderrors.As(err, &invalid), stderrors.As(err, &empty), stderrors.As(err, &checkout):
		return http.StatusUnprocessableEntity
	case stderrors.As(err, &payment):
		return http.StatusPaymentRequired
	case stderrors.As(err, &busy), stderrors.As(err, &state):
		return http.StatusConflict
	case stderrors.As(err, &notFound):
		return http.StatusNotFound
	case stderrors.As(err, &unavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LoginURL is the login page that returns to next after signing in.
// Only local paths are accepted as next.
func LoginURL(next string) string {
	if !IsLocalPath(next) {
		return PathLogin
	}
	return PathLogin + "?" + url.Values{"next": {next}}.Encode()
}

// IsLocalPath reports whether p stays on this site
func IsLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

// TransferState is what the payment step needs from the checkout step
type TransferState struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

// Encode renders the state as query parameters
func (s TransferState) Encode() string {
	q := url.Values{}
	q.Set("order_id", s.OrderID)
	q.Set("amount", s.Amount.StringFixed(2))
	q.Set("currency", s.Currency)
	return q.Encode()
}

// ParseTransferState reads the state back from query or form values
func ParseTransferState(values url.Values) (TransferState, error) {
	var missing []string
	orderID := strings.TrimSpace(values.Get("order_id"))
	if orderID == "" {
		missing = append(missing, "order_id")
	}
	rawAmount := strings.TrimSpace(values.Get("amount"))
	if rawAmount == "" {
		missing = append(missing, "amount")
	}
	currency := strings.TrimSpace(values.Get("currency"))
	if currency == "" {
		missing = append(missing, "currency")
	}
	if len(missing) > 0 {
		return TransferState{}, &errors.ErrValidation{Fields: missing}
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil || amount.IsNegative() {
		return TransferState{}, &errors.ErrValidation{Fields: []string{"amount"}}
	}

	return TransferState{
		OrderID:  orderID,
		Amount:   amount,
		Currency: strings.ToUpper(currency),
	}, nil
}
