package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/api/handlers"
	"github.com/analytica/storefront/internal/api/middleware"
	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment: "test",
		Session:     config.SessionConfig{CookieName: "jwt_token"},
	}
	counter := service.NewCartCounter()
	deps := &handlers.Deps{
		Counter:    counter,
		Guard:      service.NewInFlight(),
		Nav:        navigation.NewController(time.Second),
		CookieName: cfg.Session.CookieName,
		Logger:     zap.NewNop(),
	}

	router, err := NewRouter(cfg, deps, zap.NewNop())
	require.NoError(t, err)
	return router
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)
}

func TestRouter_KeepsClientRequestID(t *testing.T) {
	router := newTestRouter(t)
	id := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_APIRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/cart/count", "/api/cart/count/stream", "/api/orders/o-1/events"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_RootRedirectsToShop(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, navigation.PathShop, w.Header().Get("Location"))
}
