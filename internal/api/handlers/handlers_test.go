package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/api/middleware"
	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/domain"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/internal/web"
	"github.com/analytica/storefront/pkg/errors"
)

const cookieName = "jwt_token"

type stubShopping struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	products []domain.Product
	cartErr  error
}

func (s *stubShopping) ListProducts(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubShopping) GetCart(context.Context, session.Session) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

func (s *stubShopping) AddToCart(_ context.Context, _ session.Session, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, domain.CartLine{ProductID: productID, Quantity: qty})
	return nil
}

func (s *stubShopping) PutQuantity(_ context.Context, _ session.Session, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = qty
		}
	}
	return nil
}

func (s *stubShopping) DeleteLine(_ context.Context, _ session.Session, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	return nil
}

type stubCheckout struct {
	calls    int
	err      error
	attempts []uuid.UUID
}

func (s *stubCheckout) SubmitOrder(_ context.Context, _ session.Session, order *domain.OrderSubmission) (*domain.OrderConfirmation, error) {
	s.calls++
	s.attempts = append(s.attempts, order.AttemptID)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.OrderConfirmation{OrderID: "o-1", TotalAmount: order.TotalAmount, Currency: order.Currency}, nil
}

type stubPayment struct {
	calls int
	err   error
}

func (s *stubPayment) SubmitPayment(context.Context, session.Session, *domain.PaymentSubmission) (*domain.PaymentReceipt, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PaymentReceipt{PaymentID: "pay-1", Status: "completed"}, nil
}

type stubAuth struct {
	loginErr error
}

func (s *stubAuth) Login(context.Context, string, string) ([]*http.Cookie, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return []*http.Cookie{{Name: cookieName, Value: "issued", Path: "/", HttpOnly: true}}, nil
}

func (s *stubAuth) Register(context.Context, string, string) error { return nil }

func (s *stubAuth) Logout(context.Context, session.Session) ([]*http.Cookie, error) {
	return nil, nil
}

type stubEvents struct {
	mu     sync.Mutex
	events []*domain.FlowEvent
}

func (s *stubEvents) Create(_ context.Context, event *domain.FlowEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubEvents) ListByOrderID(_ context.Context, orderID string) ([]*domain.FlowEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.FlowEvent
	for _, e := range s.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	router   *gin.Engine
	shopping *stubShopping
	checkout *stubCheckout
	payment  *stubPayment
	auth     *stubAuth
	events   *stubEvents
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	f := &fixture{
		shopping: &stubShopping{
			lines: []domain.CartLine{{ProductID: "p1", Quantity: 2}},
			products: []domain.Product{
				{ID: "p1", Name: "Margherita", Price: decimal.RequireFromString("9.50")},
			},
		},
		checkout: &stubCheckout{},
		payment:  &stubPayment{},
		auth:     &stubAuth{},
		events:   &stubEvents{},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	f.token = token

	counter := service.NewCartCounter()
	guard := service.NewInFlight()
	builder := service.NewOrderBuilder(config.OrderConfig{Currency: "EUR", DeliverySurcharge: decimal.RequireFromString("2.50")})
	deps := &Deps{
		Carts:      service.NewCartService(f.shopping, f.shopping, counter, logger),
		Flows:      service.NewOrderFlowService(builder, f.checkout, f.payment, f.events, guard, logger),
		Counter:    counter,
		Guard:      guard,
		Nav:        navigation.NewController(2500 * time.Millisecond),
		Auth:       f.auth,
		CookieName: cookieName,
		Logger:     logger,
	}

	templates, err := web.Templates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(templates)
	router.Use(session.Middleware(cookieName, logger))
	router.GET("/auth", HandleAuthPage(deps))
	router.POST("/auth/login", HandleLogin(deps))
	router.POST("/auth/logout", HandleLogout(deps))
	router.GET("/shop", HandleShop(deps))
	router.POST("/cart/items", HandleAddToCart(deps))
	router.POST("/cart/lines/:id", HandleSetQuantity(deps))
	router.GET("/checkout", HandleCheckoutPage(deps))
	router.POST("/checkout", HandleCheckoutSubmit(deps))
	router.GET("/payment", HandlePaymentPage(deps))
	router.POST("/payment", HandlePaymentSubmit(deps))
	router.GET("/confirmation", HandleConfirmation(deps))
	router.GET("/api/cart/count", HandleCartCount(deps))
	router.GET("/api/orders/:id/events", middleware.RequireSession(logger), HandleOrderEvents(deps))
	f.router = router

	return f
}

func (f *fixture) do(method, target string, form url.Values, signedIn bool) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: f.token})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func deliveryForm() url.Values {
	return url.Values{
		"order_type":     {"delivery"},
		"customer_name":  {"Ada Lovelace"},
		"customer_phone": {"123"},
		"street":         {"Hauptstrasse"},
		"house_number":   {"1"},
		"postal_code":    {"10115"},
		"city":           {"Berlin"},
	}
}

func TestCheckoutPage_AnonymousRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/checkout", nil, false)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth?next=%2Fcheckout", w.Header().Get("Location"))
}

func TestCheckoutPage_RendersTotals(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/checkout", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Margherita")
	assert.Contains(t, body, "19.00 EUR")
	assert.Contains(t, body, "21.50 EUR")
}

func TestCheckoutPage_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.shopping.lines = nil

	w := f.do(http.MethodGet, "/checkout", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your cart is empty")
	assert.Contains(t, w.Body.String(), `href="/shop"`)
}

func TestCheckoutSubmit_SuccessMovesToPayment(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/checkout", deliveryForm(), true)

	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/payment", loc.Path)
	assert.Equal(t, "o-1", loc.Query().Get("order_id"))
	assert.Equal(t, "21.50", loc.Query().Get("amount"))
	assert.Equal(t, "EUR", loc.Query().Get("currency"))
}

func TestCheckoutSubmit_ValidationKeepsForm(t *testing.T) {
	f := newFixture(t)
	form := deliveryForm()
	form.Set("street", "")
	form.Set("city", "")

	w := f.do(http.MethodPost, "/checkout", form, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Please fill in street, city")
	assert.Contains(t, body, `value="Ada Lovelace"`)
	assert.Zero(t, f.checkout.calls)
}

var attemptField = regexp.MustCompile(`name="attempt_id" value="([0-9a-f-]{36})"`)

// renderedAttempt returns the attempt id embedded in a rendered checkout form
func renderedAttempt(t *testing.T, body string) string {
	t.Helper()
	m := attemptField.FindStringSubmatch(body)
	require.Len(t, m, 2, "checkout form carries no attempt id")
	return m[1]
}

func TestCheckoutSubmit_ResubmitSendsSameAttempt(t *testing.T) {
	f := newFixture(t)

	page := f.do(http.MethodGet, "/checkout", nil, true)
	require.Equal(t, http.StatusOK, page.Code)
	attempt := renderedAttempt(t, page.Body.String())

	form := deliveryForm()
	form.Set("attempt_id", attempt)
	for i := 0; i < 2; i++ {
		w := f.do(http.MethodPost, "/checkout", form, true)
		require.Equal(t, http.StatusSeeOther, w.Code)
	}

	require.Len(t, f.checkout.attempts, 2)
	assert.Equal(t, attempt, f.checkout.attempts[0].String())
	assert.Equal(t, attempt, f.checkout.attempts[1].String())
}

func TestCheckoutSubmit_AttemptSurvivesValidationFailure(t *testing.T) {
	f := newFixture(t)
	attempt := uuid.New().String()

	form := deliveryForm()
	form.Set("attempt_id", attempt)
	form.Set("city", "")
	w := f.do(http.MethodPost, "/checkout", form, true)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, attempt, renderedAttempt(t, w.Body.String()))
	assert.Zero(t, f.checkout.calls)
}

func TestCheckoutSubmit_RejectionRendersInline(t *testing.T) {
	f := newFixture(t)
	f.checkout.err = &errors.ErrCheckoutRejected{Message: "Kitchen closed"}

	w := f.do(http.MethodPost, "/checkout", url.Values{"order_type": {"pickup"}}, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Kitchen closed")
	assert.Zero(t, f.payment.calls)

	// a rejected attempt is not replayed by the next submit
	require.Len(t, f.checkout.attempts, 1)
	assert.NotEqual(t, f.checkout.attempts[0].String(), renderedAttempt(t, w.Body.String()))
}

func TestPaymentPage_RequiresTransferState(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/payment", nil, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/payment?order_id=o-1&amount=21.50&currency=EUR", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="order_id" value="o-1"`)
}

func TestPaymentSubmit_SuccessShowsNoticeThenConfirmation(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"order_id":        {"o-1"},
		"amount":          {"21.50"},
		"currency":        {"EUR"},
		"provider":        {"card"},
		"cardholder_name": {"Ada Lovelace"},
		"card_number":     {"4242424242424242"},
		"expiry_month":    {"12"},
		"expiry_year":     {"2030"},
		"cvv":             {"123"},
	}

	w := f.do(http.MethodPost, "/payment", form, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Payment successful")
	assert.Contains(t, body, `http-equiv="refresh" content="3;url=/confirmation?order_id=o-1&amp;payment_id=pay-1"`)
}

func TestPaymentSubmit_FailureKeepsDetails(t *testing.T) {
	f := newFixture(t)
	f.payment.err = &errors.ErrPaymentRejected{Message: "Card declined"}
	form := url.Values{
		"order_id":        {"o-1"},
		"amount":          {"21.50"},
		"currency":        {"EUR"},
		"provider":        {"card"},
		"cardholder_name": {"Ada Lovelace"},
		"card_number":     {"4242424242424242"},
		"expiry_month":    {"12"},
		"expiry_year":     {"2030"},
		"cvv":             {"123"},
	}

	w := f.do(http.MethodPost, "/payment", form, true)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Card declined")
	assert.Contains(t, body, `value="4242424242424242"`)
	assert.Contains(t, body, `name="order_id" value="o-1"`)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/cart/lines/p1", url.Values{"qty": {"0"}}, true)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, f.shopping.lines)

	w = f.do(http.MethodGet, "/api/cart/count", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, w.Body.String())
}

func TestAddToCartUpdatesCount(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/cart/items", url.Values{"product_id": {"p2"}, "qty": {"3"}}, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/shop", w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/api/cart/count", nil, true)
	assert.JSONEq(t, `{"count":5}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/auth/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"secret"},
		"next":     {"/checkout"},
	}, false)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), cookieName+"=issued")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.auth.loginErr = &errors.ErrUnauthenticated{}

	w := f.do(http.MethodPost, "/auth/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"wrong"},
		"next":     {"https://evil.example"},
	}, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
	assert.Contains(t, w.Body.String(), `name="next" value="/shop"`)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/auth/logout", url.Values{}, true)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestShopListsProducts(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/shop", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Margherita")
	assert.Contains(t, w.Body.String(), "9.50 EUR")
	assert.Contains(t, w.Body.String(), `id="cart-count">2<`)
}

func TestOrderEvents(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/checkout", url.Values{"order_type": {"pickup"}}, true)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = f.do(http.MethodGet, "/api/orders/o-1/events", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"event_type":"checkout_submitted"`)

	w = f.do(http.MethodGet, "/api/orders/o-9/events", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, w.Body.String())
}
