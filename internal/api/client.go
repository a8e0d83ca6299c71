// Package api is the authenticated HTTP client for the circles backend.
//
// Every request carries the current bearer token. A 401 triggers a
// single-flight refresh: the first caller to observe it owns the refresh
// call, every concurrent caller parks on a FIFO queue and is replayed with
// the new token once the owner finishes. At most one refresh request is in
// flight process-wide at any time.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ebranlund/circlet/internal/auth"
	"github.com/ebranlund/circlet/internal/logging"
)

// Client issues authenticated requests against the backend.
type Client struct {
	base   string
	http   *http.Client
	tokens *auth.Store

	// onAuthExpired fires when a refresh fails and the session is over.
	onAuthExpired func()

	refreshMu sync.Mutex
	inflight  *refreshAttempt
}

// refreshResult is what a parked caller receives when the owning refresh
// settles.
type refreshResult struct {
	token string
	err   error
}

// refreshAttempt is the in-flight refresh handle. Waiters append in
// arrival order and are woken in the same order.
type refreshAttempt struct {
	waiters []chan refreshResult
}

// New creates a Client. The base URL should not end with a slash.
func New(baseURL string, timeout time.Duration, tokens *auth.Store) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
	}
}

// SetAuthExpiredHandler registers the callback fired when a token refresh
// fails irrecoverably (after the credential has been cleared).
func (c *Client) SetAuthExpiredHandler(fn func()) {
	c.onAuthExpired = fn
}

// do issues one authenticated request, refreshing the token and replaying
// once on 401. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	status, data, err := c.send(ctx, method, path, body, c.tokens.AccessToken())
	if err != nil {
		return &NetworkError{Err: err}
	}

	if status == http.StatusUnauthorized && c.tokens.RefreshToken() != "" {
		token, rerr := c.refreshAccess(ctx)
		if rerr != nil {
			return rerr
		}
		status, data, err = c.send(ctx, method, path, body, token)
		if err != nil {
			return &NetworkError{Err: err}
		}
	}

	if status < 200 || status > 299 {
		return &ServerError{Status: status, Detail: detailFrom(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// send performs a single HTTP round trip. Returns the status code and the
// full response body; err is non-nil only for transport failures.
func (c *Client) send(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// refreshAccess returns a fresh access token, starting a refresh call if
// none is running or parking on the in-flight one otherwise.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.inflight != nil {
		// A refresh is already underway: park in FIFO order.
		w := make(chan refreshResult, 1)
		c.inflight.waiters = append(c.inflight.waiters, w)
		c.refreshMu.Unlock()

		select {
		case r := <-w:
			return r.token, r.err
		case <-ctx.Done():
			return "", &NetworkError{Err: ctx.Err()}
		}
	}
	att := &refreshAttempt{}
	c.inflight = att
	c.refreshMu.Unlock()

	token, err := c.callRefresh(ctx)

	c.refreshMu.Lock()
	waiters := att.waiters
	c.inflight = nil
	c.refreshMu.Unlock()

	// Wake parked callers in arrival order.
	for _, w := range waiters {
		w <- refreshResult{token: token, err: err}
	}
	return token, err
}

// callRefresh performs the actual refresh round trip. On success the
// credential pair is replaced atomically; on failure it is cleared and the
// auth-expired handler fires.
func (c *Client) callRefresh(ctx context.Context) (string, error) {
	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		return "", c.expireSession("no refresh token")
	}

	status, data, err := c.send(ctx, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": refresh}, "")
	if err != nil {
		// Transport failure: the refresh token may still be good, so keep
		// the credential and let the caller retry later.
		return "", &NetworkError{Err: err}
	}
	if status < 200 || status > 299 {
		return "", c.expireSession(fmt.Sprintf("refresh rejected with status %d", status))
	}

	var tr TokenResponse
	if err := json.Unmarshal(data, &tr); err != nil || tr.AccessToken == "" {
		return "", c.expireSession("malformed refresh response")
	}

	c.tokens.Set(auth.Credential{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken})
	logging.Debug("access token refreshed")
	return tr.AccessToken, nil
}

// expireSession clears the credential, notifies the app, and returns the
// AuthError that every queued caller will observe.
func (c *Client) expireSession(reason string) error {
	c.tokens.Clear()
	logging.Warn("session expired", "reason", reason)
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
	return &AuthError{Reason: reason}
}

// detailFrom extracts the server's {"detail": ...} message, falling back
// to the raw body.
func detailFrom(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
