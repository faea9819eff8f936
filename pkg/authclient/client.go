// Package authclient lets other services talk to the auth service with the
// caller's cookies.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var ErrUnauthorized = errors.New("authclient: unauthorized")

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: authServiceURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// RefreshResponse carries the new access token taken from the Set-Cookie
// header of /auth/refresh-token.
type RefreshResponse struct {
	AccessToken string
	Expires     time.Time
	MaxAge      int
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsActive        bool      `json:"is_active"`
	DateOfBirth     *string   `json:"date_of_birth"`
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "auth/refresh-token", &http.Cookie{Name: refreshCookie, Value: refreshToken})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "refresh"); err != nil {
		return nil, err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == accessCookie && ck.Value != "" {
			return &RefreshResponse{AccessToken: ck.Value, Expires: ck.Expires, MaxAge: ck.MaxAge}, nil
		}
	}
	return nil, errors.New("authclient: refresh response without access cookie")
}

func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "user/me", &http.Cookie{Name: accessCookie, Value: accessToken})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "me"); err != nil {
		return nil, err
	}
	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, cookie *http.Cookie) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, op string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s failed with status: %d", op, resp.StatusCode)
	}
	return nil
}
