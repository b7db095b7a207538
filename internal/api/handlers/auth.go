package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// HandleAuthPage handles GET /auth
func HandleAuthPage(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "auth.html", authData(c, d, nextPath(c.Query("next")), ""))
	}
}

// HandleLogin handles POST /auth/login
func HandleLogin(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := nextPath(c.PostForm("next"))
		email := strings.TrimSpace(c.PostForm("email"))
		password := c.PostForm("password")

		if email == "" || password == "" {
			renderAuthError(c, d, next, email, &errors.ErrValidation{Fields: missingCredentials(email, password)})
			return
		}

		cookies, err := d.Auth.Login(c.Request.Context(), email, password)
		if err != nil {
			d.Logger.Info("Login failed", zap.String("email", email), zap.Error(err))
			renderAuthError(c, d, next, email, err)
			return
		}

		// Relay the auth service's session cookie
		for _, cookie := range cookies {
			http.SetCookie(c.Writer, cookie)
		}
		c.Redirect(http.StatusSeeOther, next)
	}
}

// HandleRegister handles POST /auth/register
func HandleRegister(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := nextPath(c.PostForm("next"))
		email := strings.TrimSpace(c.PostForm("email"))
		password := c.PostForm("password")

		if email == "" || password == "" {
			renderAuthError(c, d, next, email, &errors.ErrValidation{Fields: missingCredentials(email, password)})
			return
		}

		if err := d.Auth.Register(c.Request.Context(), email, password); err != nil {
			d.Logger.Info("Registration failed", zap.String("email", email), zap.Error(err))
			renderAuthError(c, d, next, email, err)
			return
		}

		// Sign the new account in right away
		cookies, err := d.Auth.Login(c.Request.Context(), email, password)
		if err != nil {
			d.Logger.Warn("Login after registration failed", zap.String("email", email), zap.Error(err))
			renderAuthError(c, d, next, email, err)
			return
		}
		for _, cookie := range cookies {
			http.SetCookie(c.Writer, cookie)
		}
		c.Redirect(http.StatusSeeOther, next)
	}
}

// HandleLogout handles POST /auth/logout
func HandleLogout(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := session.FromGin(c); ok {
			cookies, err := d.Auth.Logout(c.Request.Context(), sess)
			if err != nil {
				d.Logger.Warn("Logout failed", zap.String("user_id", sess.UserID), zap.Error(err))
			}
			for _, cookie := range cookies {
				http.SetCookie(c.Writer, cookie)
			}
		}

		// Clear the cookie even if the auth service could not be reached
		c.SetCookie(d.CookieName, "", -1, "/", "", false, true)
		c.Redirect(http.StatusSeeOther, navigation.PathLogin)
	}
}

func authData(c *gin.Context, d *Deps, next, email string) gin.H {
	data := d.page(c, "Sign in")
	data["Next"] = next
	data["Email"] = email
	return data
}

func renderAuthError(c *gin.Context, d *Deps, next, email string, err error) {
	data := authData(c, d, next, email)

	var remote *errors.ErrRemote
	status := navigation.StatusFor(err)
	switch {
	case errors.IsUnauthenticated(err):
		data["Message"] = "Invalid email or password"
	case stderrors.As(err, &remote):
		status = remote.StatusCode
		data["Message"] = remote.Message
		if remote.Message == "" {
			data["Message"] = "Could not sign in. Please try again."
		}
	default:
		data["Message"] = errors.UserMessage(err)
	}
	if status < http.StatusBadRequest {
		status = http.StatusBadRequest
	}

	c.HTML(status, "auth.html", data)
}

func missingCredentials(email, password string) []string {
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// nextPath keeps post-login redirects on this site
func nextPath(next string) string {
	if navigation.IsLocalPath(next) {
		return next
	}
	return navigation.PathShop
}
