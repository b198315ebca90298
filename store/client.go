// Package store talks to an Apache Jena Fuseki triplestore: a low-level
// SPARQL client, tenant-aware named graph storage, the catalog queries,
// and result binding parsing.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize caps SPARQL response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// errorBodyLimit caps how much of an error response is kept for messages.
const errorBodyLimit = 2048

// Client is a SPARQL 1.1 protocol client for one Fuseki dataset.
type Client struct {
	queryEndpoint  string
	updateEndpoint string
	dataEndpoint   string
	username       string
	password       string
	httpClient     *http.Client
	logger         *slog.Logger
	metrics        *Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithCredentials sets basic auth credentials for the triplestore.
func WithCredentials(username, password string) ClientOption {
	return func(client *Client) {
		client.username = username
		client.password = password
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// NewClient creates a client for the dataset at baseURL (e.g.
// "http://localhost:3030" with dataset "twins").
func NewClient(baseURL, dataset string, opts ...ClientOption) *Client {
	base := strings.TrimRight(baseURL, "/") + "/" + dataset
	c := &Client{
		queryEndpoint:  base + "/query",
		updateEndpoint: base + "/update",
		dataEndpoint:   base + "/data",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query executes a SPARQL SELECT query and returns the parsed result set.
// The query text is trusted; ad-hoc input goes through Select instead.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	body, err := c.do(req, "query", http.StatusOK)
	if err != nil {
		return nil, err
	}

	results, err := ParseResults(body)
	if err != nil {
		return nil, fmt.Errorf("parse query results: %w", err)
	}
	return results, nil
}

// Select executes an ad-hoc SELECT query: missing PREFIX declarations are
// completed, and anything other than a SELECT is rejected before any
// network traffic.
func (c *Client) Select(ctx context.Context, query string) (*Results, error) {
	completed := CompletePrefixes(query)
	if err := ValidateSelect(completed); err != nil {
		return nil, err
	}
	return c.Query(ctx, completed)
}

// Update executes a SPARQL UPDATE statement.
func (c *Client) Update(ctx context.Context, update string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.updateEndpoint,
		strings.NewReader(update))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-update")

	_, err = c.do(req, "update", http.StatusOK, http.StatusNoContent)
	return err
}

// PutGraph creates or replaces the named graph at graphURI with the given
// Turtle document, via the SPARQL Graph Store protocol.
func (c *Client) PutGraph(ctx context.Context, graphURI, turtle string) error {
	endpoint := c.dataEndpoint + "?graph=" + url.QueryEscape(graphURI)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint,
		strings.NewReader(turtle))
	if err != nil {
		return fmt.Errorf("build graph store request: %w", err)
	}
	req.Header.Set("Content-Type", "text/turtle")

	_, err = c.do(req, "store", http.StatusOK, http.StatusCreated, http.StatusNoContent)
	return err
}

func (c *Client) do(req *http.Request, operation string, okStatuses ...int) ([]byte, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(operation, "error", time.Since(start))
		return nil, fmt.Errorf("sparql %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.metrics.observe(operation, "error", time.Since(start))
		return nil, fmt.Errorf("sparql %s: read response: %w", operation, err)
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			c.metrics.observe(operation, "ok", time.Since(start))
			c.logger.Debug("sparql request completed",
				"operation", operation,
				"status", resp.StatusCode,
				"request_id", requestID,
				"duration", time.Since(start))
			return body, nil
		}
	}

	c.metrics.observe(operation, "error", time.Since(start))
	errBody := string(body)
	if len(errBody) > errorBodyLimit {
		errBody = errBody[:errorBodyLimit]
	}
	c.logger.Error("sparql request failed",
		"operation", operation,
		"status", resp.StatusCode,
		"request_id", requestID)
	return nil, &TransportError{Operation: operation, Status: resp.StatusCode, Body: errBody}
}
