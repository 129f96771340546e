package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobmatch/internal/errors"
	"jobmatch/internal/extract/extracttest"
	"jobmatch/internal/snapshot"
	"jobmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages  map[string]string
	calls  []string
	onCall func()
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) string {
	f.calls = append(f.calls, url)
	if f.onCall != nil {
		f.onCall()
	}
	return f.pages[url]
}

type fakeAnalyzer struct {
	result types.MatchResult
	calls  []struct{ resume, job string }
}

func (a *fakeAnalyzer) Analyze(_ context.Context, resume, job string) types.MatchResult {
	a.calls = append(a.calls, struct{ resume, job string }{resume, job})
	return a.result
}

func newTestService(f *fakeFetcher, a *fakeAnalyzer, store snapshot.Store) *Service {
	s := NewService(f, a, store, 20, nil)
	n := 0
	s.newID = func() string { n++; return []string{"id-1", "id-2", "id-3"}[n-1] }
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/job", true},
		{"http://example.com", true},
		{"  https://example.com", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"\n\thttp://x", true},
		{"We need a backend engineer", false},
		{"ftp://example.com", false},
		{"example.com/job", false},
		{"see https://example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsURL(tt.input), "IsURL(%q)", tt.input)
	}
}

func TestHandleAnalyzeLiteralText(t *testing.T) {
	fetcher := &fakeFetcher{}
	analyzer := &fakeAnalyzer{result: types.MatchResult{Score: 72, Strengths: []string{"Go"}, MissingSkills: []string{}, Summary: "fit"}}
	svc := newTestService(fetcher, analyzer, nil)

	jd := "We need a backend engineer with 5 years Go experience"
	result, err := svc.HandleAnalyze(context.Background(), jd, "I have 6 years of Go")
	require.NoError(t, err)

	assert.Equal(t, 72, result.Score)
	assert.Empty(t, fetcher.calls, "literal text must not be fetched")
	require.Len(t, analyzer.calls, 1)
	assert.Equal(t, jd, analyzer.calls[0].job)
	assert.Equal(t, "I have 6 years of Go", analyzer.calls[0].resume)
}

func TestHandleAnalyzeURL(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://example.com/job": "Backend Engineer\nGo, Postgres"}}
	analyzer := &fakeAnalyzer{result: types.MatchResult{Score: 64}}
	svc := newTestService(fetcher, analyzer, nil)

	result, err := svc.HandleAnalyze(context.Background(), "  https://example.com/job", "cv")
	require.NoError(t, err)

	assert.Equal(t, 64, result.Score)
	assert.Equal(t, []string{"https://example.com/job"}, fetcher.calls)
	require.Len(t, analyzer.calls, 1)
	assert.Equal(t, "Backend Engineer\nGo, Postgres", analyzer.calls[0].job)
}

func TestHandleAnalyzeFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{}
	analyzer := &fakeAnalyzer{}
	svc := newTestService(fetcher, analyzer, nil)

	_, err := svc.HandleAnalyze(context.Background(), "https://unreachable.invalid/job", "cv")
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeFetch))
	assert.Equal(t, 400, errors.HTTPStatus(err))
	appErr, _ := errors.AsAppError(err)
	assert.Equal(t, FetchFailureMessage, appErr.Message)
	assert.Empty(t, analyzer.calls, "analyzer must not run without job text")
}

func TestHandleAnalyzeValidation(t *testing.T) {
	svc := newTestService(&fakeFetcher{}, &fakeAnalyzer{}, nil)

	for _, tc := range []struct{ jd, cv string }{
		{"", "cv"},
		{"   \n", "cv"},
		{"job", ""},
		{"job", "  "},
	} {
		_, err := svc.HandleAnalyze(context.Background(), tc.jd, tc.cv)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "jd=%q cv=%q", tc.jd, tc.cv)
	}
}

func TestHandleAnalyzePDF(t *testing.T) {
	analyzer := &fakeAnalyzer{result: types.MatchResult{Score: 64, Summary: "decent"}}
	fetcher := &fakeFetcher{}
	svc := newTestService(fetcher, analyzer, nil)

	pdf := extracttest.PDF("Senior Go Engineer", "Kubernetes and Postgres")
	result, err := svc.HandleAnalyzePDF(context.Background(), "We need a backend engineer", pdf)
	require.NoError(t, err)

	assert.Equal(t, 64, result.Score)
	assert.Empty(t, fetcher.calls)
	require.Len(t, analyzer.calls, 1)
	assert.Equal(t, "We need a backend engineer", analyzer.calls[0].job)
	assert.Contains(t, analyzer.calls[0].resume, "Senior Go Engineer")
	assert.Contains(t, analyzer.calls[0].resume, "Kubernetes and Postgres")
}

func TestHandleAnalyzePDFInvalid(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	svc := newTestService(&fakeFetcher{}, analyzer, nil)

	_, err := svc.HandleAnalyzePDF(context.Background(), "job text", []byte("not a pdf"))
	require.Error(t, err)
	assert.Equal(t, 400, errors.HTTPStatus(err))
	assert.Empty(t, analyzer.calls)
}

func TestScrapeAll(t *testing.T) {
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "snap.json"), time.Second, nil)
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://jobs.example.co.uk/1": "Senior Go Engineer\nRemote, full time, competitive salary",
	}}
	analyzer := &fakeAnalyzer{result: types.MatchResult{Score: 80, Strengths: []string{"Go"}, MissingSkills: []string{"Rust"}, Summary: "good"}}
	svc := newTestService(fetcher, analyzer, store)

	snap, err := svc.ScrapeAll(context.Background(), []string{
		"https://jobs.example.co.uk/1",
		"",
		"https://www.gone.example.com/2",
	}, "cv")
	require.NoError(t, err)

	require.Len(t, snap.Jobs, 2)
	assert.Equal(t, 2, snap.TotalJobs)

	ok := snap.Jobs[0]
	assert.Equal(t, "id-1", ok.ID)
	assert.Equal(t, "Senior Go Engineer", ok.Title)
	assert.Equal(t, "example.co.uk", ok.Company)
	assert.Equal(t, 80, ok.MatchScore)
	assert.Equal(t, []string{"Go"}, ok.WhyMatch)
	assert.Equal(t, []string{"Rust"}, ok.MissingKeywords)
	assert.Equal(t, "Senior Go Engineer\nR", ok.Description, "description is cut to the configured length")
	assert.Empty(t, ok.Error)

	failed := snap.Jobs[1]
	assert.Equal(t, 0, failed.MatchScore)
	assert.Equal(t, FetchFailureMessage, failed.Error)
	assert.Equal(t, "example.com", failed.Company)
	assert.Len(t, analyzer.calls, 1, "unreachable pages are not analyzed")

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalJobs)
	assert.Equal(t, "id-2", stored.Jobs[1].ID)
}

func TestScrapeAllCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	store := snapshot.NewFileStore(path, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{pages: map[string]string{"https://a.example.com": "A"}, onCall: cancel}
	svc := newTestService(fetcher, &fakeAnalyzer{}, store)

	_, err := svc.ScrapeAll(ctx, []string{"https://a.example.com", "https://b.example.com"}, "cv")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fetcher.calls, 1, "pass stops between URLs")

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Jobs, "nothing is written after cancellation")
}

func TestScrapeAllValidation(t *testing.T) {
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "snap.json"), time.Second, nil)
	svc := newTestService(&fakeFetcher{}, &fakeAnalyzer{}, store)

	_, err := svc.ScrapeAll(context.Background(), nil, "cv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = svc.ScrapeAll(context.Background(), []string{"https://example.com"}, " ")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestCompanyFromURL(t *testing.T) {
	assert.Equal(t, "example.com", companyFromURL("https://careers.example.com/jobs/42"))
	assert.Equal(t, "example.co.uk", companyFromURL("https://www.example.co.uk/"))
	assert.Equal(t, "localhost", companyFromURL("http://localhost:8080/job"))
	assert.Equal(t, "", companyFromURL("not a url"))
}
