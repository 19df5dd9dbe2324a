// Package api is the HTTP client for the authentication endpoints, used by
// the client-side session store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// DefaultTimeout bounds every request; a slow resolver surfaces as a
// failure, never a hang.
const DefaultTimeout = 10 * time.Second

// ErrUnauthenticated covers every 401 from the server: bad credentials,
// expired token, forged token, deleted user. The client collapses all of
// them to "treat session as absent".
var ErrUnauthenticated = errors.New("api: unauthenticated")

// Client talks to the auth endpoints of a Meridian server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client against the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// NewWithHTTPClient allows injecting the HTTP client, mainly for tests.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("api: login: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		return "", ErrUnauthenticated
	default:
		return "", fmt.Errorf("api: login: unexpected status %d", res.StatusCode)
	}

	var decoded loginResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("api: login: decode: %w", err)
	}
	return decoded.Token, nil
}

type meResponse struct {
	UserID      int64    `json:"userId"`
	Username    string   `json:"username"`
	RoleID      int64    `json:"roleId"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Me resolves the authorization record for a token. Any 401 means the
// session is gone; any other failure is a transport error.
func (c *Client) Me(ctx context.Context, token string) (*authz.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: me: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	default:
		return nil, fmt.Errorf("api: me: unexpected status %d", res.StatusCode)
	}

	var decoded meResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("api: me: decode: %w", err)
	}
	perms, err := authz.SetFromStrings(decoded.Permissions)
	if err != nil {
		return nil, fmt.Errorf("api: me: %w", err)
	}
	return &authz.Record{
		UserID:      decoded.UserID,
		Username:    decoded.Username,
		RoleID:      decoded.RoleID,
		RoleName:    decoded.Role,
		Permissions: perms,
	}, nil
}
