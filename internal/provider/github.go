package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tokenlens/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const githubBaseURL = "https://api.github.com"

// GitHubProvider fetches repository metadata, contributor counts and release
// listings from the GitHub REST API. Unauthenticated access is enough for the
// public repositories the pipeline cares about.
type GitHubProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewGitHubProvider creates a provider kept well under GitHub's 60 req/hour
// unauthenticated budget.
func NewGitHubProvider(tracer trace.Tracer, baseURL string) *GitHubProvider {
	if baseURL == "" {
		baseURL = githubBaseURL
	}
	return &GitHubProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

type githubRepo struct {
	Stars      int       `json:"stargazers_count"`
	Forks      int       `json:"forks_count"`
	OpenIssues int       `json:"open_issues_count"`
	Language   string    `json:"language"`
	PushedAt   time.Time `json:"pushed_at"`
	HTMLURL    string    `json:"html_url"`
}

type githubRelease struct {
	Name        string    `json:"name"`
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []struct {
		DownloadCount int `json:"download_count"`
	} `json:"assets"`
}

// RepoStats issues the repository, contributors and releases calls
// concurrently and joins whatever subset succeeded. The repository call is the
// only required one; contributors degrade to 0 and releases to nil.
func (p *GitHubProvider) RepoStats(ctx context.Context, owner, repo string) (*domain.RepoStats, error) {
	ctx, span := p.tracer.Start(ctx, "github.repo-stats")
	defer span.End()

	base := strings.TrimRight(p.baseURL, "/")

	var (
		repoData     *githubRepo
		repoErr      error
		contributors []json.RawMessage
		contribErr   error
		releases     []githubRelease
		releasesErr  error
	)

	// Tolerant join: every goroutine records its own outcome and returns nil
	// so one failing call never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/repos/%s/%s", base, owner, repo))
		if err != nil {
			repoErr = err
			return nil
		}
		repoData = &githubRepo{}
		repoErr = json.Unmarshal(body, repoData)
		return nil
	})
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/repos/%s/%s/contributors", base, owner, repo))
		if err != nil {
			contribErr = err
			return nil
		}
		contribErr = json.Unmarshal(body, &contributors)
		return nil
	})
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/repos/%s/%s/releases?per_page=10", base, owner, repo))
		if err != nil {
			releasesErr = err
			return nil
		}
		releasesErr = json.Unmarshal(body, &releases)
		return nil
	})
	_ = g.Wait()

	if repoErr != nil || repoData == nil {
		return nil, fmt.Errorf("fetch repository %s/%s: %w", owner, repo, repoErr)
	}

	stats := &domain.RepoStats{
		URL:        fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		Stars:      repoData.Stars,
		Forks:      repoData.Forks,
		OpenIssues: repoData.OpenIssues,
		Language:   repoData.Language,
		LastPush:   repoData.PushedAt.UTC(),
	}
	if repoData.HTMLURL != "" {
		stats.URL = repoData.HTMLURL
	}

	if contribErr == nil {
		stats.Contributors = len(contributors)
	}

	if releasesErr == nil && len(releases) > 0 {
		latest := releases[0]
		downloads := 0
		for _, asset := range latest.Assets {
			downloads += asset.DownloadCount
		}
		stats.LatestRelease = &domain.ReleaseSummary{
			Name:          latest.Name,
			TagName:       latest.TagName,
			PublishedAt:   latest.PublishedAt.UTC(),
			DownloadCount: downloads,
		}
		stats.TotalReleases = len(releases)
	}

	return stats, nil
}

func (p *GitHubProvider) doGet(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
