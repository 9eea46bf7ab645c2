// Package userapi is a client for the remote user API that owns the
// gallery's user records.
package userapi

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
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/types"
)

const (
	listPath       = "/api/users/all"
	adminPath      = "/api/users/admin/"
	tokenSubject   = "useradmin"
	tokenTTL       = time.Minute
	maxErrorBody   = 4 << 10
	breakerTrips   = 5
	breakerTimeout = 30 * time.Second
)

// StatusError reports a non-2xx response from the user API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the user API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secret     []byte
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// NewClient constructs a Client from config.
func NewClient(cfg config.UserAPIConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("user api url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid user api url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		c.secret = []byte(secret)
	}
	if cfg.Breaker {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "user-api",
			Timeout: breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrips
			},
		})
	}
	return c, nil
}

// List fetches every user record.
func (c *Client) List(ctx context.Context) ([]types.User, error) {
	var users []types.User
	if err := c.do(ctx, http.MethodGet, listPath, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

// Update replaces the user identified by user.ID with the given record.
func (c *Client) Update(ctx context.Context, user types.User) error {
	if strings.TrimSpace(user.ID) == "" {
		return errors.New("user id is required")
	}
	body, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return c.do(ctx, http.MethodPut, adminPath+url.PathEscape(user.ID), body, nil)
}

// Delete removes the user with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("user id is required")
	}
	return c.do(ctx, http.MethodDelete, adminPath+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.breaker == nil {
		return c.roundTrip(ctx, method, path, body, out)
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != nil {
		token, err := c.token()
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) token() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}
