// Package client provides an HTTP client for the sharebnb REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/sharebnb/internal/listing"
	"github.com/evcraddock/sharebnb/internal/user"
)

// Client is an HTTP client for the sharebnb API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for public endpoints.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d)", strings.Join(e.Messages, "; "), e.Status)
}

// ListListings returns every listing.
func (c *Client) ListListings(ctx context.Context) ([]*listing.Summary, error) {
	var resp struct {
		Listings []*listing.Summary `json:"listings"`
	}
	if err := c.get(ctx, "/listings", &resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

// SearchListings returns listings whose title contains term.
func (c *Client) SearchListings(ctx context.Context, term string) ([]*listing.Summary, error) {
	var resp struct {
		Listings []*listing.Summary `json:"listings"`
	}
	if err := c.get(ctx, "/listings/search?q="+url.QueryEscape(term), &resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

// GetListing returns a listing with its host.
func (c *Client) GetListing(ctx context.Context, id int64) (*listing.Listing, error) {
	var resp struct {
		Listing *listing.Listing `json:"listing"`
	}
	if err := c.get(ctx, fmt.Sprintf("/listings/%d", id), &resp); err != nil {
		return nil, err
	}
	return resp.Listing, nil
}

// GetUser returns a user's profile.
func (c *Client) GetUser(ctx context.Context, id int64) (*user.Profile, error) {
	var resp struct {
		User *user.Profile `json:"user"`
	}
	if err := c.get(ctx, fmt.Sprintf("/users/%d", id), &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Token exchanges credentials for a bearer token.
func (c *Client) Token(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/auth/token", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Health checks that the server is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server reported status %q", resp.Status)
	}
	return nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// decodeError reads the error envelope, whose message is a string or a list.
func decodeError(status int, body []byte) error {
	var env struct {
		Error struct {
			Message json.RawMessage `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &env) == nil && len(env.Error.Message) > 0 {
		var one string
		var many []string
		if json.Unmarshal(env.Error.Message, &one) == nil {
			apiErr.Messages = []string{one}
		} else if json.Unmarshal(env.Error.Message, &many) == nil {
			apiErr.Messages = many
		}
	}
	if len(apiErr.Messages) == 0 {
		apiErr.Messages = []string{"server error: " + http.StatusText(status)}
	}
	return apiErr
}
