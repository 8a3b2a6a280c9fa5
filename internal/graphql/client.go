// Package graphql is the client side of the backend API. Unscoped session operations
// (login, profile, logout) are exported on Client; tenant data operations can only be issued
// through Scoped, which owns tenant attribution.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

// Operation is a named GraphQL document. Feature areas declare their own.
type Operation struct {
	Name  string
	Query string
}

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// NewClient creates a client for the GraphQL endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// execute sends one operation and returns the raw data payload.
func (c *Client) execute(ctx context.Context, token string, op Operation, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(dto.GraphQLRequest{OperationName: op.Name, Query: op.Query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("graphql request failed", zap.String("operation", op.Name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", op.Name, ErrTransport, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("graphql request",
		zap.String("operation", op.Name),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read body: %w", op.Name, ErrTransport, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s: %w: status %d", op.Name, ErrTransport, resp.StatusCode)
	}

	var out dto.GraphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%s: %w", op.Name, ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%s: %w: %w", op.Name, ErrMalformed, err)
	}
	if len(out.Errors) > 0 {
		opErr := newOperationError(op.Name, out.Errors)
		if resp.StatusCode == http.StatusUnauthorized && opErr.Code == "" {
			opErr.Code = dto.CodeUnauthenticated
		}
		return nil, opErr
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", op.Name, ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %w: status %d", op.Name, ErrMalformed, resp.StatusCode)
	}
	if len(out.Data) == 0 || bytes.Equal(out.Data, []byte("null")) {
		return nil, fmt.Errorf("%s: %w: empty data", op.Name, ErrMalformed)
	}
	return out.Data, nil
}
