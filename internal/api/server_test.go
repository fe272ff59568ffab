package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/auth"
	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
	publisherMemory "github.com/hmatsu/knowledge-keeper/internal/publisher/memory"
	repoMemory "github.com/hmatsu/knowledge-keeper/internal/repository/memory"
	storageMemory "github.com/hmatsu/knowledge-keeper/internal/storage/memory"
	"github.com/hmatsu/knowledge-keeper/internal/usecase"
)

const testSecret = "test-secret"

type fakeFetcher struct {
	markdown string
	err      error
}

func (f *fakeFetcher) FetchMarkdown(_ context.Context, _ string) (string, error) {
	return f.markdown, f.err
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, _ string) knowledge.Summary {
	return knowledge.Summary{Summary: "a short summary", Tags: []string{"go", "testing"}}
}

type fakeSearcher struct {
	result knowledge.SearchResult
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, _ string) (knowledge.SearchResult, error) {
	return f.result, f.err
}

type fakeIDGen struct {
	ids []string
	n   int
}

func (g *fakeIDGen) NewID() (string, error) {
	if g.n >= len(g.ids) {
		return "", errors.New("out of ids")
	}
	id := g.ids[g.n]
	g.n++
	return id, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type testEnv struct {
	server  *Server
	repo    *repoMemory.Repository
	storage *storageMemory.Store
	fetcher *fakeFetcher
	search  *fakeSearcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repoMemory.New()
	store := storageMemory.New()
	pub := publisherMemory.New()
	fetcher := &fakeFetcher{markdown: "# Saved Page\n\nbody"}
	search := &fakeSearcher{result: knowledge.SearchResult{Response: "found it"}}
	logger := zap.NewNop()
	idGen := &fakeIDGen{ids: []string{
		"0193e4a0-0000-7000-8000-000000000001",
		"0193e4a0-0000-7000-8000-000000000002",
	}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	build := func(requestLogger *zap.Logger) UseCases {
		return UseCases{
			ExtractAndSave:  usecase.NewExtractAndSave(fetcher, fakeSummarizer{}, repo, store, pub, idGen, clock, requestLogger),
			ListKnowledge:   usecase.NewListKnowledge(repo, requestLogger),
			DeleteKnowledge: usecase.NewDeleteKnowledge(repo, store, pub, requestLogger),
			SearchKnowledge: usecase.NewSearchKnowledge(search, requestLogger),
		}
	}
	return &testEnv{
		server:  NewServer(verifier, build, 30*time.Second, logger),
		repo:    repo,
		storage: store,
		fetcher: fetcher,
		search:  search,
	}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authedRequest(t *testing.T, method, target, userID string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	return req
}

func TestServer_CreateItem_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"https://example.com/article"}`))
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var view knowledge.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "https://example.com/article", view.URL)
	require.Equal(t, "Saved Page", view.Title)
	require.Equal(t, "a short summary", view.Summary)
	require.Equal(t, []string{"go", "testing"}, view.Tags)
	require.Equal(t, 1, env.repo.Len())
}

func TestServer_CreateItem_RequiresAuth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/knowledge", bytes.NewBufferString(`{"url":"https://example.com"}`))
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "authentication required")
}

func TestServer_CreateItem_InvalidJSON(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte("{invalid"))
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreateItem_RejectsRelativeURL(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"/relative/path"}`))
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "http or https")
}

func TestServer_CreateItem_DuplicateURL(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body := []byte(`{"url":"https://example.com/article"}`)

	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", body))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already saved")
}

func TestServer_CreateItem_FetchFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fetcher.err = fmt.Errorf("connect: connection refused")
	req := authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"https://example.com/down"}`))
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "failed to fetch content")
	require.Equal(t, 0, env.repo.Len())
}

func TestServer_ListItems_ScopedToUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"https://example.com/a"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodGet, "/v1/knowledge", "user-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing []knowledge.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing, 1)

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodGet, "/v1/knowledge", "user-2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Empty(t, listing)
}

func TestServer_DeleteItem_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"https://example.com/a"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view knowledge.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/v1/knowledge/"+view.ID, "user-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)
	require.Equal(t, 0, env.repo.Len())
}

func TestServer_DeleteItem_InvalidID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/v1/knowledge/not-a-uuid", "user-1", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid item id")
}

func TestServer_DeleteItem_ForeignItemReportsNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge", "user-1", []byte(`{"url":"https://example.com/a"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view knowledge.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/v1/knowledge/"+view.ID, "user-2", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 1, env.repo.Len())
}

func TestServer_Search_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.search.result = knowledge.SearchResult{
		Response: "the captured answer",
		Sources: []knowledge.SearchSource{
			{Filename: "user-1/abc.md", Score: 0.91, Content: "snippet"},
		},
	}
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge/search", "user-1", []byte(`{"query":"what did I save?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	var result knowledge.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "the captured answer", result.Response)
	require.Len(t, result.Sources, 1)
	require.InDelta(t, 0.91, result.Sources[0].Score, 0.0001)
}

func TestServer_Search_EmptyQuery(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/v1/knowledge/search", "user-1", []byte(`{"query":"  "}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "query is required")
}

func TestServer_Healthz_NoAuthRequired(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}
