package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

type fakeFetcher struct {
	markdown string
	err      error
	calls    int
}

func (f *fakeFetcher) FetchMarkdown(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.markdown, nil
}

type fakeSummarizer struct {
	result knowledge.Summary
	calls  int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) knowledge.Summary {
	f.calls++
	return f.result
}

type fakeIDGen struct {
	ids  []string
	next int
}

func (f *fakeIDGen) NewID() (string, error) {
	if f.next >= len(f.ids) {
		return "", errors.New("out of ids")
	}
	id := f.ids[f.next]
	f.next++
	return id, nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

type fakeSearcher struct {
	result knowledge.SearchResult
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, _ string) (knowledge.SearchResult, error) {
	if f.err != nil {
		return knowledge.SearchResult{}, f.err
	}
	return f.result, nil
}

// failingStorage wraps a ContentStorage and injects write/delete failures.
type failingStorage struct {
	saveErr   error
	deleteErr error
}

func (f *failingStorage) SaveMarkdown(_ context.Context, _, _ string) error {
	return f.saveErr
}

func (f *failingStorage) DeleteMarkdown(_ context.Context, _ string) error {
	return f.deleteErr
}
