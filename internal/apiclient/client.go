// Package apiclient talks to the PopcornON back-office API.  Reads go
// through a query.Client so they are cached and retried per its policy;
// writes are issued as mutations that invalidate the reads they affect.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/khIbrahim/popcornon/internal/failure"
	"github.com/khIbrahim/popcornon/internal/model"
	"github.com/khIbrahim/popcornon/internal/query"
)

// Cache key roots.  Mutations invalidate by these prefixes.
var (
	KeyOverview = query.K("overview")
	KeyActivity = query.K("activity")
	KeyCinemas  = query.K("cinemas")
	KeyMe       = query.K("me")
)

// Client represents a PopcornON API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	queries    *query.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// New creates a client for the API at baseURL.
func New(baseURL string, queries *query.Client, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if queries == nil {
		queries = query.NewClient(query.DefaultPolicy())
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		queries:    queries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Queries returns the query cache backing the client.
func (c *Client) Queries() *query.Client { return c.queries }

// SetToken replaces the bearer token.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doRequest performs an HTTP request and decodes a JSON response into out.
// Any failure to get a 2xx answer is a *TransportError.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, in, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	c.logger.Debug().Str("method", method).Str("url", u).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{StatusCode: resp.StatusCode}
		// a body that is not the standard payload leaves the fallbacks to the formatter
		_ = json.Unmarshal(raw, &te.Payload)
		return te
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Overview returns the admin statistics snapshot.
func (c *Client) Overview(ctx context.Context, weekly bool) (model.Stats, error) {
	key := append(query.K(KeyOverview...), strconv.FormatBool(weekly))
	return query.Fetch(ctx, c.queries, key, func(ctx context.Context) (model.Stats, error) {
		var s model.Stats
		params := url.Values{}
		if weekly {
			params.Set("weekly", "true")
		}
		err := c.doRequest(ctx, http.MethodGet, "/v1/admin/overview", params, nil, &s)
		return s, err
	})
}

// RecentActivity lists the latest partner requests.  An empty status lists
// all of them; limit 0 uses the server default.
func (c *Client) RecentActivity(ctx context.Context, status model.RequestStatus, limit int) ([]model.Activity, error) {
	key := append(query.K(KeyActivity...), string(status), strconv.Itoa(limit))
	return query.Fetch(ctx, c.queries, key, func(ctx context.Context) ([]model.Activity, error) {
		params := url.Values{}
		if status != "" {
			params.Set("status", string(status))
		}
		if limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		var resp itemsResponse[model.Activity]
		err := c.doRequest(ctx, http.MethodGet, "/v1/admin/activity", params, nil, &resp)
		return resp.Items, err
	})
}

// Cinemas lists active cinemas, optionally in one city.
func (c *Client) Cinemas(ctx context.Context, city string) ([]model.Cinema, error) {
	key := append(query.K(KeyCinemas...), city)
	return query.Fetch(ctx, c.queries, key, func(ctx context.Context) ([]model.Cinema, error) {
		params := url.Values{}
		if city != "" {
			params.Set("city", city)
		}
		var resp itemsResponse[model.Cinema]
		err := c.doRequest(ctx, http.MethodGet, "/v1/cinemas", params, nil, &resp)
		return resp.Items, err
	})
}

// Me returns the signed-in account.
func (c *Client) Me(ctx context.Context) (Account, error) {
	return query.Fetch(ctx, c.queries, KeyMe, func(ctx context.Context) (Account, error) {
		var a Account
		err := c.doRequest(ctx, http.MethodGet, "/v1/me", nil, nil, &a)
		return a, err
	})
}

// Login signs in and switches the client to the new session.  Every
// cached query belonged to the previous identity and is dropped.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	s, err := query.Mutate(ctx, c.queries, func(ctx context.Context) (Session, error) {
		var s Session
		in := map[string]string{"email": email, "password": password}
		err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", nil, in, &s)
		return s, err
	})
	if err != nil {
		return Session{}, err
	}
	c.SetToken(s.AccessToken())
	c.queries.Remove(nil)
	return s, nil
}

// Approve accepts a pending partner request.
func (c *Client) Approve(ctx context.Context, id uint64) (model.Activity, error) {
	return c.decide(ctx, id, "approve", KeyOverview, KeyActivity, KeyCinemas)
}

// Reject declines a pending partner request.
func (c *Client) Reject(ctx context.Context, id uint64) (model.Activity, error) {
	return c.decide(ctx, id, "reject", KeyOverview, KeyActivity)
}

func (c *Client) decide(ctx context.Context, id uint64, verb string, invalidate ...query.Key) (model.Activity, error) {
	endpoint := fmt.Sprintf("/v1/admin/partner-requests/%d/%s", id, verb)
	return query.Mutate(ctx, c.queries, func(ctx context.Context) (model.Activity, error) {
		var a model.Activity
		err := c.doRequest(ctx, http.MethodPost, endpoint, nil, nil, &a)
		return a, err
	}, invalidate...)
}

// Archive hides a cinema from the public listing.
func (c *Client) Archive(ctx context.Context, id uint64) error {
	endpoint := fmt.Sprintf("/v1/admin/cinemas/%d/archive", id)
	_, err := query.Mutate(ctx, c.queries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.doRequest(ctx, http.MethodPost, endpoint, nil, nil, nil)
	}, KeyCinemas, KeyOverview)
	return err
}

// Describe formats err the way it is shown to users.
func Describe(err error) string { return failure.Message(err) }
