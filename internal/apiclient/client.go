// Package apiclient is the request gateway to the referendum REST API and
// the catalogue of domain operations built on it.
//
// Every call goes through one configured http.Client. Before a request is
// sent the bound TokenSource is asked for a bearer token; nothing retries,
// refreshes or backs off, and HTTP errors surface unchanged as *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 4 << 20
	userAgent        = "refclient/1.0"
)

// TokenSource resolves the bearer token for outbound requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client talks to the referendum API.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	tokens  TokenSource
	logger  *slog.Logger
}

// New constructs a Client with no token source bound.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		http:    httpClient,
		baseURL: base,
		logger:  logger,
	}, nil
}

// WithTokenSource returns a copy of the client whose requests carry the
// tokens resolved by ts. The underlying http.Client is shared.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

// send executes req and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	c.authorize(httpReq)

	c.logger.Debug("api request", "method", req.method, "path", req.path)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// authorize attaches the bearer token unless the caller already set an
// explicit Authorization header.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil || req.Header.Get("Authorization") != "" {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON executes req and decodes a JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	data, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func idQuery(key string, id int) url.Values {
	q := url.Values{}
	q.Set(key, fmt.Sprint(id))
	return q
}
