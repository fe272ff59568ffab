package direct

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchMarkdownConvertsHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>Hello World</h1><p>Some text.</p></body></html>"))
	}))
	defer server.Close()

	fetcher := New(Config{UserAgent: "test-agent", Timeout: 5 * time.Second})
	markdown, err := fetcher.FetchMarkdown(context.Background(), server.URL)
	require.NoError(t, err)
	require.Contains(t, markdown, "# Hello World")
	require.Contains(t, markdown, "Some text.")
}

func TestFetchMarkdownPassesThroughNonHTML(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Already Markdown\n"))
	}))
	defer server.Close()

	fetcher := New(Config{Timeout: 5 * time.Second})
	markdown, err := fetcher.FetchMarkdown(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "# Already Markdown\n", markdown)
}

func TestFetchMarkdownErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := New(Config{Timeout: 5 * time.Second})
	_, err := fetcher.FetchMarkdown(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchMarkdownCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := New(Config{Timeout: 5 * time.Second})
	_, err := fetcher.FetchMarkdown(ctx, "https://example.com")
	require.Error(t, err)
}
