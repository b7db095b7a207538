package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/api/handlers"
	"github.com/analytica/storefront/internal/api/middleware"
	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/internal/web"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps *handlers.Deps, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(templates)

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(loggingMiddleware(logger))
	router.Use(session.Middleware(cfg.Session.CookieName, logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		c.Redirect(302, navigation.PathShop)
	})

	// Pages
	router.GET(navigation.PathLogin, handlers.HandleAuthPage(deps))
	router.POST("/auth/login", handlers.HandleLogin(deps))
	router.POST("/auth/register", handlers.HandleRegister(deps))
	router.POST("/auth/logout", handlers.HandleLogout(deps))

	router.GET(navigation.PathShop, handlers.HandleShop(deps))
	router.POST("/cart/items", handlers.HandleAddToCart(deps))
	router.POST("/cart/lines/:id", handlers.HandleSetQuantity(deps))
	router.POST("/cart/lines/:id/remove", handlers.HandleRemoveLine(deps))

	router.GET(navigation.PathCheckout, handlers.HandleCheckoutPage(deps))
	router.POST(navigation.PathCheckout, handlers.HandleCheckoutSubmit(deps))
	router.GET(navigation.PathPayment, handlers.HandlePaymentPage(deps))
	router.POST(navigation.PathPayment, handlers.HandlePaymentSubmit(deps))
	router.GET(navigation.PathConfirmation, handlers.HandleConfirmation(deps))

	// JSON API used by the page chrome
	apiRoutes := router.Group("/api")
	apiRoutes.Use(middleware.RequireSession(logger))
	{
		apiRoutes.GET("/cart/count", handlers.HandleCartCount(deps))
		apiRoutes.GET("/cart/count/stream", handlers.HandleCartCountStream(deps))
		apiRoutes.GET("/orders/:id/events", handlers.HandleOrderEvents(deps))
	}

	return router, nil
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
