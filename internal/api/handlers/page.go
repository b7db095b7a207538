package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/service"
	"github.com/analytica/storefront/internal/session"
)

// AuthBackend is the part of the auth service the pages use
type AuthBackend interface {
	Login(ctx context.Context, email, password string) ([]*http.Cookie, error)
	Register(ctx context.Context, email, password string) error
	Logout(ctx context.Context, sess session.Session) ([]*http.Cookie, error)
}

// Deps holds what the storefront pages are built from
type Deps struct {
	Carts      *service.CartService
	Flows      *service.OrderFlowService
	Counter    *service.CartCounter
	Guard      *service.InFlight
	Nav        *navigation.Controller
	Auth       AuthBackend
	CookieName string
	Logger     *zap.Logger
}

type refresh struct {
	Delay    time.Duration
	Location string
}

// page returns the data every template expects
func (d *Deps) page(c *gin.Context, title string) gin.H {
	data := gin.H{
		"Title":     title,
		"UserID":    "",
		"CartCount": 0,
		"Message":   "",
		"Refresh":   (*refresh)(nil),
	}
	if sess, ok := session.FromGin(c); ok {
		data["UserID"] = sess.UserID
		if count, ok := d.Counter.Count(sess.UserID); ok {
			data["CartCount"] = count
		}
	}
	return data
}

// apply carries out a navigation transition
func apply(c *gin.Context, t navigation.Transition, data gin.H) {
	switch t.Kind {
	case navigation.Redirect:
		c.Redirect(t.Status, t.Location)
	case navigation.RenderThenRedirect:
		data["Refresh"] = &refresh{Delay: t.Delay, Location: t.Location}
		c.HTML(t.Status, t.View, data)
	default:
		if t.Message != "" {
			data["Message"] = t.Message
		}
		c.HTML(t.Status, t.View, data)
	}
}

// currentSession returns the request's session, or the zero session for
// anonymous requests; services reject the latter as unauthenticated.
func currentSession(c *gin.Context) session.Session {
	sess, _ := session.FromGin(c)
	return sess
}
