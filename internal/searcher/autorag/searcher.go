// Package autorag queries a managed retrieval-augmented search endpoint over
// its REST API. The index itself is built out-of-band from the stored
// Markdown blobs.
package autorag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// Config controls the search client.
type Config struct {
	Endpoint   string
	Token      string
	MaxResults int
	Timeout    time.Duration
}

// Searcher implements knowledge.Searcher against the ai-search endpoint.
type Searcher struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a Searcher.
func New(cfg Config) (*Searcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("search endpoint is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Searcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type searchRequest struct {
	Query         string `json:"query"`
	MaxNumResults int    `json:"max_num_results"`
}

type searchResponse struct {
	Success bool         `json:"success"`
	Result  searchResult `json:"result"`
}

type searchResult struct {
	Response string         `json:"response"`
	Data     []searchSource `json:"data"`
}

type searchSource struct {
	Filename string          `json:"filename"`
	Score    float64         `json:"score"`
	Content  []sourceContent `json:"content"`
}

type sourceContent struct {
	Text string `json:"text"`
}

// Search runs the query against the index and maps the answer plus its
// supporting snippets.
func (s *Searcher) Search(ctx context.Context, query string) (knowledge.SearchResult, error) {
	body, err := json.Marshal(searchRequest{Query: query, MaxNumResults: s.cfg.MaxResults})
	if err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("marshal search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("call search api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return knowledge.SearchResult{}, fmt.Errorf("search api status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}
	if !parsed.Success {
		return knowledge.SearchResult{}, fmt.Errorf("search api reported failure")
	}

	sources := make([]knowledge.SearchSource, len(parsed.Result.Data))
	for i, src := range parsed.Result.Data {
		texts := make([]string, len(src.Content))
		for j, c := range src.Content {
			texts[j] = c.Text
		}
		sources[i] = knowledge.SearchSource{
			Filename: src.Filename,
			Score:    src.Score,
			Content:  strings.Join(texts, "\n"),
		}
	}
	return knowledge.SearchResult{
		Response: parsed.Result.Response,
		Sources:  sources,
	}, nil
}
