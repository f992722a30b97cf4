// Package kgclient is a client for the knowledge graph REST server. It
// satisfies source.Source so a builder can run against a remote graph.
package kgclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

const (
	// DefaultBaseURL is where `kg serve` listens by default.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of requests per second.
	DefaultRateLimit = 20.0

	// DefaultSearchLimit caps search results when the caller passes zero.
	DefaultSearchLimit = 50
)

// Client is a rate-limited HTTP client for the knowledge graph server.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

var (
	_ source.Source   = (*Client)(nil)
	_ source.Searcher = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets the server base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRateLimit sets the request rate in requests per second.
// A non-positive value disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new knowledge graph client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a request and decodes a JSON response into out.
// id is attached to any resulting APIError for context.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, id string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return source.Transport(err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, id); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return invalidResponse(path, err)
	}
	return nil
}

// FetchDetails implements source.DetailFetcher.
func (c *Client) FetchDetails(ctx context.Context, ref node.Ref) (node.Node, error) {
	q := url.Values{}
	if ref.Kind != "" && ref.Kind != node.KindNone {
		q.Set("kind", string(ref.Kind))
	}
	var n node.Node
	if err := c.do(ctx, http.MethodGet, "/api/nodes/"+url.PathEscape(ref.ID), q, nil, ref.ID, &n); err != nil {
		return node.Node{}, err
	}
	return n, nil
}

// FetchNeighbors implements source.NeighborLookup.
func (c *Client) FetchNeighbors(ctx context.Context, id string) ([]node.Node, error) {
	return c.FetchNeighborsOfKind(ctx, id, "")
}

// FetchNeighborsOfKind implements source.KindNeighborLookup.
func (c *Client) FetchNeighborsOfKind(ctx context.Context, id string, kind node.Kind) ([]node.Node, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", string(kind))
	}
	var resp apitypes.NodesResponse
	if err := c.do(ctx, http.MethodGet, "/api/nodes/"+url.PathEscape(id)+"/neighbors", q, nil, id, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// FetchPath implements source.PathResolver.
func (c *Client) FetchPath(ctx context.Context, startID, endID string, maxHops int) ([]node.Node, error) {
	q := url.Values{}
	q.Set("start", startID)
	q.Set("end", endID)
	q.Set("max_hops", strconv.Itoa(source.NormalizeHops(maxHops)))

	var resp apitypes.PathResponse
	if err := c.do(ctx, http.MethodGet, "/api/path", q, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Nodes == nil {
		return []node.Node{}, nil
	}
	return resp.Nodes, nil
}

// Search implements source.Searcher.
func (c *Client) Search(ctx context.Context, query string, kind node.Kind, limit int) ([]node.Node, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	if kind != "" {
		q.Set("kind", string(kind))
	}

	var resp apitypes.NodesResponse
	if err := c.do(ctx, http.MethodGet, "/api/search", q, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// Neighborhood asks the server to build a neighborhood in one round trip.
func (c *Client) Neighborhood(ctx context.Context, seeds []node.Ref, maxHops int) (*apitypes.NeighborhoodResponse, error) {
	req := apitypes.NeighborhoodRequest{Seeds: seeds, MaxHops: maxHops}
	var resp apitypes.NeighborhoodResponse
	if err := c.do(ctx, http.MethodPost, "/api/neighborhood", nil, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) (*apitypes.HealthResponse, error) {
	var resp apitypes.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSession starts a server-side selection session.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp apitypes.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", nil, nil, "", &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// SetSelection replaces the session's seeds and returns the display edits.
func (c *Client) SetSelection(ctx context.Context, sessionID string, seeds []node.Ref) (*apitypes.SelectionResponse, error) {
	req := apitypes.SelectionRequest{Seeds: seeds}
	var resp apitypes.SelectionResponse
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/selection"
	if err := c.do(ctx, http.MethodPut, path, nil, req, sessionID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSession ends a session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessionID), nil, nil, sessionID, nil)
}
