package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/session"
	"github.com/analytica/storefront/pkg/errors"
)

// Client is a JSON-over-HTTP client for one backend service. It owns the
// translation of transport failures and non-2xx responses into the
// storefront's error types.
type Client struct {
	service    string
	baseURL    string
	cookieName string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service reachable at baseURL
func NewClient(service, baseURL, cookieName string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		service:    service,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cookieName: cookieName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(zap.String("service", service)),
	}
}

// Request describes one backend call
type Request struct {
	Method  string
	Path    string
	Session *session.Session
	Header  http.Header
	Body    interface{}
}

// Response carries the parts of a successful response callers may need
// besides the decoded body
type Response struct {
	StatusCode int
	Cookies    []*http.Cookie
}

// ErrorResponse is the error body every backend is expected to return
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Execute performs the request and decodes a 2xx JSON body into out.
// Transport failures become *errors.ErrUnavailable, 401 becomes
// *errors.ErrUnauthenticated and any other non-2xx becomes *errors.ErrRemote.
func (c *Client) Execute(ctx context.Context, r Request, out interface{}) (*Response, error) {
	url := c.baseURL + r.Path

	var body io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if r.Session != nil && r.Session.Token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: r.Session.Token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Error(err),
		)
		return nil, &errors.ErrUnavailable{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrUnavailable{Service: c.service, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := decodeErrorMessage(respBody)
		c.logger.Info("Backend returned error status",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &errors.ErrUnauthenticated{Message: message}
		}
		return nil, &errors.ErrRemote{Service: c.service, StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &errors.ErrUnavailable{Service: c.service, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
		}
	}

	return &Response{StatusCode: resp.StatusCode, Cookies: resp.Cookies()}, nil
}

// decodeErrorMessage reads the typed error contract. Bodies that do not
// honor it yield no message; callers fall back to a generic one.
func decodeErrorMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return strings.TrimSpace(errResp.Error)
}
