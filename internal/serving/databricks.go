package serving

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
)

// maxResponseBytes caps how much of an invocation body is read.
const maxResponseBytes = 8 << 20

// Config holds configuration for a Databricks model serving endpoint.
type Config struct {
	HTTPClient *http.Client
	Host       string
	Token      string
	Endpoint   string
	Timeout    time.Duration
}

// DatabricksClient implements Endpoint against the serving-endpoints invocation API.
type DatabricksClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
	url        string
}

type invocationRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// NewDatabricksClient creates a client for the endpoint named in config.
func NewDatabricksClient(config Config) (*DatabricksClient, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint name cannot be empty")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("databricks host cannot be empty")
	}

	host := config.Host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid databricks host %q: %w", config.Host, err)
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &DatabricksClient{
		config:     config,
		httpClient: httpClient,
		url:        base.JoinPath("serving-endpoints", config.Endpoint, "invocations").String(),
		logger: slog.Default().With(
			slog.String("component", "serving.databricks"),
			slog.String("endpoint", config.Endpoint),
		),
	}, nil
}

// Query invokes the endpoint once with the full conversation.
func (c *DatabricksClient) Query(ctx context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	queryCtx, cancel := prepareQueryContext(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(invocationRequest{Messages: req.Messages, MaxTokens: req.MaxTokens})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(queryCtx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if queryCtx.Err() != nil {
			return nil, fmt.Errorf("endpoint query timed out: %w", queryCtx.Err())
		}
		return nil, fmt.Errorf("network error calling endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("network error reading endpoint response: %w", err)
	}

	c.logger.DebugContext(ctx, "Endpoint call finished",
		slog.Int("status", resp.StatusCode),
		slog.Int("messages", len(req.Messages)),
		slog.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationError{
			Message: fmt.Sprintf("endpoint rejected credentials: %s", parseErrorBody(resp.StatusCode, body).Message),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, parseErrorBody(resp.StatusCode, body)
	}

	return parseResponse(body)
}
