// Package cacheclient talks to a remote session cache authority over HTTP.
package cacheclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homeinfo/his/internal/api/middleware"
	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/pkg/apierror"
)

const (
	defaultTimeout = 5 * time.Second
	tokenLifetime  = time.Minute
)

// Client implements ports.SessionCache against a remote cache authority.
// It does not retry; transport failures surface as domain.ErrCacheUnavailable.
type Client struct {
	base    string
	secret  string
	subject string
	http    *http.Client
}

// New returns a Client for the authority at baseURL. A non-empty secret signs
// every request with a short-lived HS256 bearer token.
func New(baseURL, secret, subject string, timeout time.Duration) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("session cache url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:    baseURL,
		secret:  secret,
		subject: subject,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Get(ctx context.Context, token string) (*domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	if err := c.do(ctx, http.MethodGet, token, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

type refreshBody struct {
	End   time.Time `json:"end"`
	Login bool      `json:"login"`
}

func (c *Client) Refresh(ctx context.Context, token string, end time.Time, login bool) (*domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	if err := c.do(ctx, http.MethodPatch, token, refreshBody{End: end, Login: login}, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) Close(ctx context.Context, token string) error {
	var closed struct {
		Closed string `json:"closed"`
	}
	return c.do(ctx, http.MethodDelete, token, nil, &closed)
}

func (c *Client) do(ctx context.Context, method, token string, in, out any) error {
	target, err := url.JoinPath(c.base, url.PathEscape(token))
	if err != nil {
		return fmt.Errorf("session cache url: %w", err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		bearer, err := c.sign()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// decodeError maps the error envelope back to the domain sentinel.
func decodeError(resp *http.Response) error {
	var envelope apierror.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if sentinel := apierror.Sentinel(envelope.Code); sentinel != nil {
			return sentinel
		}
	}
	return fmt.Errorf("%w: status %d", domain.ErrCacheUnavailable, resp.StatusCode)
}

func (c *Client) sign() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    middleware.ServiceIssuer,
		Subject:   c.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	})
	signed, err := token.SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}
