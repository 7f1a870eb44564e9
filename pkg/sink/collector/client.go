// Package collector ships query records to a remote HTTP collector endpoint
// and reads them back for the admin panel.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ultimatefreight/freightdesk/pkg/sink"
)

const sinkName = "collector"

// Config holds collector client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts events to the collector endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a collector client. A zero Timeout defaults to 10s.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the sink name.
func (c *Client) Name() string {
	return sinkName
}

// Send posts a single event. The body is JSON but sent as text/plain, which
// script-hosted collectors accept without a CORS preflight.
func (c *Client) Send(ctx context.Context, ev sink.Event) error {
	if c.endpoint == "" {
		return sink.ErrNotConfigured
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	req.Header.Set("User-Agent", "freightdesk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sink.Transient(sinkName, sink.CodeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.parseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Fetch lists the events stored at the collector.
func (c *Client) Fetch(ctx context.Context) ([]sink.Event, error) {
	if c.endpoint == "" {
		return nil, sink.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "freightdesk/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sink.Transient(sinkName, sink.CodeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var events []sink.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode collector response: %w", err)
	}
	return events, nil
}

// parseError extracts error information from an HTTP response.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := string(body)
	var simpleErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &simpleErr); err == nil {
		if simpleErr.Error != "" {
			msg = simpleErr.Error
		} else if simpleErr.Message != "" {
			msg = simpleErr.Message
		}
	}

	return sink.HTTPStatus(sinkName, resp.StatusCode, msg)
}

var _ sink.Sink = (*Client)(nil)
