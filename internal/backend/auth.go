package backend

import (
	"context"
	"net/http"

	"github.com/analytica/storefront/internal/session"
)

// AuthClient forwards credentials to the auth service. The session cookie
// it returns is relayed to the browser untouched.
type AuthClient struct {
	client *Client
}

func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Login returns the cookies the auth service set on success
func (a *AuthClient) Login(ctx context.Context, email, password string) ([]*http.Cookie, error) {
	resp, err := a.client.Execute(ctx, Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   credentialsRequest{Email: email, Password: password},
	}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Cookies, nil
}

// Register creates a regular user account
func (a *AuthClient) Register(ctx context.Context, email, password string) error {
	_, err := a.client.Execute(ctx, Request{
		Method: http.MethodPost,
		Path:   "/register",
		Body:   credentialsRequest{Email: email, Password: password, Role: "user"},
	}, nil)
	return err
}

// Logout returns the cookies that clear the session
func (a *AuthClient) Logout(ctx context.Context, sess session.Session) ([]*http.Cookie, error) {
	resp, err := a.client.Execute(ctx, Request{
		Method:  http.MethodPost,
		Path:    "/logout",
		Session: &sess,
	}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Cookies, nil
}
