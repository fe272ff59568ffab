// Package render fetches pages through a remote browser-rendering API that
// returns the page converted to Markdown.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config controls the rendering API client.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client implements knowledge.ContentFetcher against the rendering API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a Client. No retry policy is layered on; failures surface to the
// caller immediately.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("render endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type renderRequest struct {
	URL string `json:"url"`
}

type renderResponse struct {
	Success bool     `json:"success"`
	Result  string   `json:"result"`
	Errors  []apiErr `json:"errors"`
}

type apiErr struct {
	Message string `json:"message"`
}

// FetchMarkdown asks the rendering service to load the URL and hand back the
// page body as Markdown.
func (c *Client) FetchMarkdown(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(renderRequest{URL: url})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call render api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read render response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("render api status %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	var parsed renderResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode render response: %w", err)
	}
	if !parsed.Success {
		msg := "unknown error"
		if len(parsed.Errors) > 0 {
			msg = parsed.Errors[0].Message
		}
		return "", fmt.Errorf("render api rejected url: %s", msg)
	}
	if parsed.Result == "" {
		return "", fmt.Errorf("render api returned empty markdown")
	}
	return parsed.Result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
