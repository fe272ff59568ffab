package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchMarkdownSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://example.com/article", req.URL)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(renderResponse{Success: true, Result: "# Article\n\nbody"})
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL, Token: "test-token"})
	require.NoError(t, err)

	markdown, err := client.FetchMarkdown(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	require.Equal(t, "# Article\n\nbody", markdown)
}

func TestFetchMarkdownNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.FetchMarkdown(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestFetchMarkdownAPIFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(renderResponse{
			Success: false,
			Errors:  []apiErr{{Message: "navigation timed out"}},
		})
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.FetchMarkdown(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "navigation timed out")
}

func TestFetchMarkdownEmptyResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(renderResponse{Success: true, Result: ""})
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.FetchMarkdown(context.Background(), "https://example.com")
	require.Error(t, err)
}

func TestNewRequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}
