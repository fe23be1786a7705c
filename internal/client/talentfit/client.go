// Package talentfit is the REST gateway to the Talent Fit backend. It maps backend DTOs
// to the domain models and classifies failures into the error taxonomy used by the bot.
package talentfit

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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/metrics"
	"github.com/shopspring/decimal"
)

// DefaultTimeout is the blanket client-side timeout applied to every request.
const DefaultTimeout = 5 * time.Minute

//nolint:gochecknoinits // the backend expects budgets as JSON numbers
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type tokenKey struct{}

// WithToken returns a context whose requests carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// UnauthorizedHook is called after the backend rejected the token of a request.
type UnauthorizedHook func(ctx context.Context)

// Client talks to the Talent Fit backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHook
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics records request durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a gateway for the given base URL. A non-positive timeout
// falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: timeout},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// OnUnauthorized registers the hook invoked on every 401 response.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = hook
}

// errorBody covers the error shapes the backend uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs a request and decodes a JSON response into out when it is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	startTime := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, path, "network", startTime)
		c.log.WarnContext(ctx, "Backend request failed", "method", method, "path", path, "error", err)
		return &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	c.observe(method, path, strconv.Itoa(resp.StatusCode), startTime)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.handleFailure(ctx, method, path, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

func (c *Client) handleFailure(ctx context.Context, method, path string, status int, raw []byte) error {
	var parsed errorBody
	_ = json.Unmarshal(raw, &parsed)
	message := parsed.Message
	if message == "" {
		message = parsed.Error
	}

	apiErr := &APIError{Kind: kindForStatus(status), Status: status, Message: message}
	c.log.InfoContext(ctx, "Backend returned an error", "method", method, "path", path, "status", status,
		"message", message)

	if status == http.StatusUnauthorized {
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook(ctx)
		}
	}

	return apiErr
}

func (c *Client) observe(method, path, status string, startTime time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIRequestDuration.WithLabelValues(method+" "+routeLabel(path), status).
		Observe(time.Since(startTime).Seconds())
}

// routeLabel collapses numeric path segments so ids do not explode label cardinality.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// decodeData unmarshals a payload that may be wrapped as {"data": ...}.
func decodeData(raw json.RawMessage, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		raw = envelope.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// Ping checks that the backend answers at all. Any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind != KindNetwork && apiErr.Kind != KindServer {
		return nil
	}
	return err
}
