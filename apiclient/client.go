// Package apiclient talks to the claims REST API. Authentication and failure
// policing happen in the HTTP client's transport; this package only speaks
// the API's JSON.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/claims-web/claims"
	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 15 * time.Second
	// Responses larger than this are not read
	maxBodyBytes = 4 << 20
)

// API paths, relative to the base URL
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathClaims   = "/claims"
)

// DefaultRole is the role every self-registered user gets
const DefaultRole = "ROLE_USER"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

// Client is a claims API client. HTTP should carry the gateway transport.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for baseURL whose requests go through transport and
// time out after timeout
func New(baseURL string, transport http.RoundTripper, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Transport: transport, Timeout: timeout},
	}
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	log.Debug().Str("email", req.Email).Msg("[API] sending login request")
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, req, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("[API Login] %w", err)
	}
	if resp.Token == "" {
		return AuthResponse{}, fmt.Errorf("[API Login] %w: response carried no token", apperrors.ErrLoginFailed)
	}
	return resp, nil
}

// Register creates an account. The API may answer with plain text rather
// than a token, in which case the returned token is empty.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	if req.Role == "" {
		req.Role = DefaultRole
	}
	log.Debug().Str("email", req.Email).Msg("[API] sending register request")

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, PathRegister, req, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("[API Register] %w", err)
	}
	return resp, nil
}

func (c *Client) ListClaims(ctx context.Context) ([]claims.Claim, error) {
	var list []claims.Claim
	if err := c.do(ctx, http.MethodGet, PathClaims, nil, &list); err != nil {
		return nil, fmt.Errorf("[API ListClaims] %w", err)
	}
	return list, nil
}

func (c *Client) CreateClaim(ctx context.Context, req claims.CreateRequest) (claims.Claim, error) {
	var created claims.Claim
	if err := c.do(ctx, http.MethodPost, PathClaims, req, &created); err != nil {
		return claims.Claim{}, fmt.Errorf("[API CreateClaim] %w", err)
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrapf(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Wrapf(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 || !isJSON(resp.Header.Get("Content-Type"), data) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrapf(err, "decode response")
	}
	return nil
}

func isJSON(contentType string, data []byte) bool {
	if strings.Contains(contentType, "json") {
		return true
	}
	first := bytes.TrimSpace(data)[0]
	return first == '{' || first == '['
}
