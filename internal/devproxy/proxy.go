package devproxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/config"
)

// Route forwards every path under Prefix to Target with Strip removed
// from the front of the path.
type Route struct {
	Prefix  string
	Service string
	Target  string
	Strip   string
}

// DefaultRoutes is the local development layout of the platform
func DefaultRoutes(cfg *config.Config) []Route {
	s := cfg.Services
	return []Route{
		{Prefix: "/api/auth", Service: "auth", Target: s.AuthURL, Strip: "/api/auth"},
		{Prefix: "/api/login", Service: "auth", Target: s.AuthURL, Strip: "/api"},
		{Prefix: "/api/register", Service: "auth", Target: s.AuthURL, Strip: "/api"},
		{Prefix: "/api/shopping", Service: "shopping", Target: s.ShoppingURL, Strip: "/api/shopping"},
		{Prefix: "/api/products", Service: "shopping", Target: s.ShoppingURL, Strip: "/api"},
		{Prefix: "/api/cart", Service: "shopping", Target: s.ShoppingURL, Strip: "/api"},
		{Prefix: "/api/checkout", Service: "checkout", Target: s.CheckoutURL, Strip: "/api"},
		{Prefix: "/api/payments", Service: "payment", Target: s.PaymentURL, Strip: "/api"},
		{Prefix: "/api/kitchen", Service: "kitchen", Target: s.KitchenURL, Strip: "/api"},
		// served by the storefront itself
		{Prefix: "/api/cart/count", Service: "storefront", Target: cfg.Proxy.StorefrontURL},
		{Prefix: "/api/orders", Service: "storefront", Target: cfg.Proxy.StorefrontURL},
	}
}

type route struct {
	Route
	proxy *httputil.ReverseProxy
}

// Proxy routes requests by longest matching prefix. Paths no route
// claims go to the storefront.
type Proxy struct {
	routes   []route
	fallback *httputil.ReverseProxy
	logger   *zap.Logger
}

// New builds a proxy for routes with fallback as the default origin
func New(routes []Route, fallback string, logger *zap.Logger) (*Proxy, error) {
	p := &Proxy{logger: logger}

	for _, r := range routes {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", r.Prefix)
		}
		if r.Strip != "" && !strings.HasPrefix(r.Prefix, r.Strip) {
			return nil, fmt.Errorf("route %s: strip %q is not a prefix of the route", r.Prefix, r.Strip)
		}
		target, err := parseTarget(r.Target)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", r.Prefix, err)
		}
		p.routes = append(p.routes, route{Route: r, proxy: p.reverseProxy(r.Service, target, r.Strip)})
	}

	sort.SliceStable(p.routes, func(i, j int) bool {
		return len(p.routes[i].Prefix) > len(p.routes[j].Prefix)
	})

	target, err := parseTarget(fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	p.fallback = p.reverseProxy("storefront", target, "")

	return p, nil
}

// Match returns the route claiming path, if any
func (p *Proxy) Match(path string) (Route, bool) {
	if r := p.match(path); r != nil {
		return r.Route, true
	}
	return Route{}, false
}

// match only accepts whole path segments: /api/cart does not claim /api/carts
func (p *Proxy) match(path string) *route {
	for i := range p.routes {
		r := &p.routes[i]
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r
		}
	}
	return nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r := p.match(req.URL.Path); r != nil {
		r.proxy.ServeHTTP(w, req)
		return
	}
	p.fallback.ServeHTTP(w, req)
}

func (p *Proxy) reverseProxy(service string, target *url.URL, strip string) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			path := strings.TrimPrefix(pr.In.URL.Path, strip)
			if path == "" {
				path = "/"
			}
			pr.Out.URL.Path = path
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			noCache(resp.Header)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, req *http.Request, err error) {
			p.logger.Warn("Upstream request failed",
				zap.String("service", service),
				zap.String("path", req.URL.Path),
				zap.Error(err),
			)
			noCache(w.Header())
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintf(w, `{"error":%q}`, service+" service unavailable")
		},
	}
}

// NewRouter wraps the proxy in a gin engine with request logging
func NewRouter(p *Proxy, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(p, logger))
	router.NoRoute(gin.WrapH(p))
	return router
}

// loggingMiddleware logs proxied requests with the service they went to
func loggingMiddleware(p *Proxy, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		service := "storefront"
		if r, ok := p.Match(path); ok {
			service = r.Service
		}
		logger.Info("Proxied request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("service", service),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid target %q: want an http(s) origin", raw)
	}
	return u, nil
}
