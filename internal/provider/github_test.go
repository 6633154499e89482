package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/time/rate"
)

func TestGitHubRepoStatsAllCallsSucceed(t *testing.T) {
	t.Parallel()

	provider := NewGitHubProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			switch {
			case strings.HasSuffix(req.URL.Path, "/contributors"):
				return jsonResponse(`[{"login":"a"},{"login":"b"},{"login":"c"}]`), nil
			case strings.HasSuffix(req.URL.Path, "/releases"):
				return jsonResponse(`[
					{"name":"v2.0","tag_name":"v2.0.0","published_at":"2025-06-01T00:00:00Z",
					 "assets":[{"download_count":10},{"download_count":5}]},
					{"name":"v1.0","tag_name":"v1.0.0","published_at":"2025-01-01T00:00:00Z","assets":[]}
				]`), nil
			default:
				return jsonResponse(`{"stargazers_count":1200,"forks_count":300,
					"open_issues_count":42,"language":"Go",
					"pushed_at":"2025-08-01T12:00:00Z",
					"html_url":"https://github.com/smartcontractkit/chainlink"}`), nil
			}
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	stats, err := provider.RepoStats(context.Background(), "smartcontractkit", "chainlink")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Stars != 1200 || stats.Forks != 300 || stats.Language != "Go" {
		t.Fatalf("unexpected repo stats: %+v", stats)
	}
	if stats.Contributors != 3 {
		t.Fatalf("expected 3 contributors, got %d", stats.Contributors)
	}
	if stats.LatestRelease == nil || stats.LatestRelease.TagName != "v2.0.0" {
		t.Fatalf("unexpected latest release: %+v", stats.LatestRelease)
	}
	if stats.LatestRelease.DownloadCount != 15 {
		t.Fatalf("expected summed downloads 15, got %d", stats.LatestRelease.DownloadCount)
	}
	if stats.TotalReleases != 2 {
		t.Fatalf("expected 2 releases, got %d", stats.TotalReleases)
	}
}

func TestGitHubRepoStatsDegradesOptionalCalls(t *testing.T) {
	t.Parallel()

	provider := NewGitHubProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/contributors") || strings.HasSuffix(req.URL.Path, "/releases") {
				return &http.Response{
					StatusCode: http.StatusForbidden,
					Body:       io.NopCloser(strings.NewReader("rate limited")),
					Header:     make(http.Header),
				}, nil
			}
			return jsonResponse(`{"stargazers_count":10,"forks_count":1,"open_issues_count":0}`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	stats, err := provider.RepoStats(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Contributors != 0 {
		t.Fatalf("expected contributors to degrade to 0, got %d", stats.Contributors)
	}
	if stats.LatestRelease != nil || stats.TotalReleases != 0 {
		t.Fatalf("expected releases to degrade, got %+v", stats.LatestRelease)
	}
	if stats.Stars != 10 {
		t.Fatalf("unexpected stars: %d", stats.Stars)
	}
	if stats.URL != "https://github.com/owner/repo" {
		t.Fatalf("unexpected fallback URL: %s", stats.URL)
	}
}

func TestGitHubRepoStatsRepoCallRequired(t *testing.T) {
	t.Parallel()

	provider := NewGitHubProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/repos/owner/repo") {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Body:       io.NopCloser(strings.NewReader("not found")),
					Header:     make(http.Header),
				}, nil
			}
			return jsonResponse(`[]`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	_, err := provider.RepoStats(context.Background(), "owner", "repo")
	if err == nil || !strings.Contains(err.Error(), "fetch repository owner/repo") {
		t.Fatalf("expected repository fetch error, got %v", err)
	}
}
