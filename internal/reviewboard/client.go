// Package reviewboard talks to the Review Board Web API and correlates
// Perforce change lists with review requests.
package reviewboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sallan/RBScript/internal/domain"
	"github.com/sallan/RBScript/internal/terminal"
)

// ErrAuthFailed indicates the server rejected the login.
var ErrAuthFailed = errors.New("authentication failed")

// Credentials supplies the username and password used to log in.
type Credentials interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// APIError is an HTTP error response served by Review Board.
type APIError struct {
	URL        string
	StatusCode int
	Status     string
	Code       int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s (error %d)", e.Status, e.Msg, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

// Client is a Review Board Web API client. On an HTTP 401 it logs in once
// using its Credentials and retries the call.
type Client struct {
	baseURL  string
	http     *http.Client
	cookies  *CookieFile
	creds    Credentials
	logger   *terminal.Logger
	username string
	password string
	loggedIn bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCookies sets the cookie file holding the session.
func WithCookies(cf *CookieFile) Option {
	return func(c *Client) { c.cookies = cf }
}

// WithCredentials sets the source of the login username and password.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithUsername sets the login username so only the password is prompted for.
func WithUsername(username string) Option {
	return func(c *Client) { c.username = username }
}

// New creates a client for the server at serverURL.
func New(serverURL string, logger *terminal.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		http:    http.DefaultClient,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cookies == nil {
		c.cookies = &CookieFile{values: map[string]string{}}
	}
	return c
}

// URL returns the server URL.
func (c *Client) URL() string {
	return c.baseURL
}

// call performs one API request and decodes the JSON reply into target.
// GET sends params as a query string; other methods send them as a form.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, target any) error {
	err := c.do(ctx, method, path, params, target)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && c.creds != nil && !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return domain.ReviewServerError("login to "+c.baseURL, "", err)
		}
		err = c.do(ctx, method, path, params, target)
	}
	if err != nil {
		return domain.ReviewServerError(method+" "+path, "", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, target any) error {
	u := c.baseURL + path
	var body io.Reader
	if len(params) > 0 {
		if method == http.MethodGet {
			u += "?" + params.Encode()
		} else {
			body = strings.NewReader(params.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.authorize(req)

	c.logger.Debugf("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(u, resp, data)
	}
	if target != nil {
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("%s: malformed json response: %w", u, err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if sid := c.cookies.Get(SessionCookie); sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
		return
	}
	if c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

func newAPIError(u string, resp *http.Response, data []byte) *APIError {
	e := &APIError{URL: u, StatusCode: resp.StatusCode, Status: resp.Status}
	var eb errorBody
	if json.Unmarshal(bytes.TrimSpace(data), &eb) == nil {
		e.Code = eb.Err.Code
		e.Msg = eb.Err.Msg
	}
	return e
}

// Login prompts for missing credentials, authenticates against
// /api/session/ with basic auth and saves the session cookie.
func (c *Client) Login(ctx context.Context) error {
	if c.creds == nil {
		return ErrAuthFailed
	}
	c.logger.Logf(terminal.StyleInfo, "Please log in to the Review Board server at %s.", c.baseURL)

	username := c.username
	if username == "" {
		var err error
		if username, err = c.creds.Line("Username: "); err != nil {
			return err
		}
	}
	password, err := c.creds.Password("Password: ")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/session/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(username, password)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var session sessionItem
	if resp.StatusCode != http.StatusOK || json.Unmarshal(data, &session) != nil || !session.Session.Authenticated {
		return fmt.Errorf("%w for %s on %s", ErrAuthFailed, username, c.baseURL)
	}

	c.username = username
	c.password = password
	c.loggedIn = true

	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			c.cookies.Set(SessionCookie, ck.Value)
			if err := c.cookies.Save(); err != nil {
				c.logger.Logf(terminal.StyleWarning, "Could not save session: %v", err)
			}
		}
	}
	return nil
}

// EnsureSession makes sure later calls run authenticated, logging in when
// the server reports the current session as anonymous. Without Credentials
// an anonymous session is left as is.
func (c *Client) EnsureSession(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}
	var session sessionItem
	err := c.do(ctx, http.MethodGet, "/api/session/", nil, &session)

	var apiErr *APIError
	switch {
	case err == nil && session.Session.Authenticated:
		return nil
	case err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized):
		return domain.ReviewServerError("GET /api/session/", "", err)
	case c.creds == nil:
		return nil
	}
	if err := c.Login(ctx); err != nil {
		return domain.ReviewServerError("login to "+c.baseURL, "", err)
	}
	return nil
}

// ReviewRequests lists review requests matching changenum with the given status.
func (c *Client) ReviewRequests(ctx context.Context, changenum, status string) ([]ReviewRequest, error) {
	params := url.Values{"changenum": {changenum}}
	if status != "" {
		params.Set("status", status)
	}
	var list reviewRequestList
	if err := c.call(ctx, http.MethodGet, "/api/review-requests/", params, &list); err != nil {
		return nil, err
	}
	return list.ReviewRequests, nil
}

// ReviewRequest fetches review request id.
func (c *Client) ReviewRequest(ctx context.Context, id string) (ReviewRequest, error) {
	var item reviewRequestItem
	if err := c.call(ctx, http.MethodGet, "/api/review-requests/"+id+"/", nil, &item); err != nil {
		return ReviewRequest{}, err
	}
	return item.ReviewRequest, nil
}

// UpdateReviewRequest sets fields on review request id.
func (c *Client) UpdateReviewRequest(ctx context.Context, id string, fields url.Values) (ReviewRequest, error) {
	var item reviewRequestItem
	if err := c.call(ctx, http.MethodPut, "/api/review-requests/"+id+"/", fields, &item); err != nil {
		return ReviewRequest{}, err
	}
	return item.ReviewRequest, nil
}

// Reviews lists the reviews of review request id with the reviewer expanded.
func (c *Client) Reviews(ctx context.Context, id string) ([]Review, error) {
	var list reviewList
	params := url.Values{"expand": {"user"}, "max-results": {"200"}}
	if err := c.call(ctx, http.MethodGet, "/api/review-requests/"+id+"/reviews/", params, &list); err != nil {
		return nil, err
	}
	return list.Reviews, nil
}

// CreateReview adds a review to review request id.
func (c *Client) CreateReview(ctx context.Context, id string, fields url.Values) (Review, error) {
	var item reviewItem
	if err := c.call(ctx, http.MethodPost, "/api/review-requests/"+id+"/reviews/", fields, &item); err != nil {
		return Review{}, err
	}
	return item.Review, nil
}

// UpdateDraft sets fields on the draft of review request id.
func (c *Client) UpdateDraft(ctx context.Context, id string, fields url.Values) error {
	return c.call(ctx, http.MethodPut, "/api/review-requests/"+id+"/draft/", fields, nil)
}
