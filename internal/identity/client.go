package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pricing-portal/internal/models"
)

// ErrUnauthorized is returned when the identity service rejects a token.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified caller: an opaque user id and a stored role
// attribute.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Client calls the external identity service that owns tokens and roles.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an identity client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// VerifyToken exchanges a bearer token for the caller's identity. Any
// non-200 response maps to ErrUnauthorized; transport errors are surfaced
// as-is so callers can distinguish an outage from a rejection.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthorized
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}

	return &ident, nil
}
