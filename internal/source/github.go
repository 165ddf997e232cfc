package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	gogithub "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

var repoURLPattern = regexp.MustCompile(`github\.com[:/]([^/\s]+)/([^/\s]+?)(?:\.git)?/?$`)

// ParseRepoURL extracts a RepoRef from an https or ssh GitHub URL.
func ParseRepoURL(rawURL string) (RepoRef, error) {
	m := repoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidRepoURL, rawURL)
	}
	return RepoRef{Owner: m[1], Name: m[2]}, nil
}

// GitHubAdapter implements Adapter over the GitHub REST API.
type GitHubAdapter struct {
	client *gogithub.Client
}

// NewGitHubAdapter creates an adapter. An empty token yields an
// unauthenticated client subject to much lower rate limits.
func NewGitHubAdapter(token string) *GitHubAdapter {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &GitHubAdapter{client: gogithub.NewClient(httpClient)}
}

// NewGitHubAdapterWithBaseURL points the adapter at an alternate API root,
// used by tests against httptest servers.
func NewGitHubAdapterWithBaseURL(token, baseURL string) (*GitHubAdapter, error) {
	a := NewGitHubAdapter(token)
	client, err := a.client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("setting base URL: %w", err)
	}
	a.client = client
	return a, nil
}

func (a *GitHubAdapter) FetchRepository(ctx context.Context, ref RepoRef) (*Repository, error) {
	repo, _, err := a.client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, classify(err)
	}
	return &Repository{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		HTMLURL:       repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

func (a *GitHubAdapter) FetchLanguages(ctx context.Context, ref RepoRef) (map[string]int64, error) {
	langs, _, err := a.client.Repositories.ListLanguages(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, classify(err)
	}
	histogram := make(map[string]int64, len(langs))
	for lang, bytes := range langs {
		histogram[lang] = int64(bytes)
	}
	return histogram, nil
}

func (a *GitHubAdapter) FetchContributors(ctx context.Context, ref RepoRef, page, pageSize int) ([]Contributor, error) {
	opts := &gogithub.ListContributorsOptions{
		ListOptions: gogithub.ListOptions{Page: page, PerPage: pageSize},
	}
	raw, _, err := a.client.Repositories.ListContributors(ctx, ref.Owner, ref.Name, opts)
	if err != nil {
		return nil, classify(err)
	}
	contributors := make([]Contributor, 0, len(raw))
	for _, c := range raw {
		contributors = append(contributors, Contributor{
			Login:         c.GetLogin(),
			AvatarURL:     c.GetAvatarURL(),
			ProfileURL:    c.GetHTMLURL(),
			Contributions: c.GetContributions(),
		})
	}
	return contributors, nil
}

func (a *GitHubAdapter) FetchFirstExisting(ctx context.Context, ref RepoRef, paths []string) (string, bool, error) {
	for _, path := range paths {
		file, _, _, err := a.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, path, nil)
		if err != nil {
			classified := classify(err)
			if errors.Is(classified, ErrRepoNotFound) {
				continue
			}
			return "", false, classified
		}
		if file == nil {
			// Path resolved to a directory.
			continue
		}
		content, err := file.GetContent()
		if err != nil {
			return "", false, fmt.Errorf("decoding %s: %w", path, err)
		}
		return content, true, nil
	}
	return "", false, nil
}

func (a *GitHubAdapter) FetchUserRepositories(ctx context.Context, page, pageSize int) ([]UserRepository, error) {
	opts := &gogithub.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gogithub.ListOptions{Page: page, PerPage: pageSize},
	}
	raw, _, err := a.client.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, classify(err)
	}
	repos := make([]UserRepository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, UserRepository{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			HTMLURL:     r.GetHTMLURL(),
			Private:     r.GetPrivate(),
			Language:    r.GetLanguage(),
		})
	}
	return repos, nil
}

// classify folds go-github errors into the adapter taxonomy.
func classify(err error) error {
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitedError{RetryAfter: time.Until(rateErr.Rate.Reset.Time)}
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		retryAfter := time.Minute
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return &RateLimitedError{RetryAfter: retryAfter}
	}
	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrRepoNotFound, respErr.Message)
		}
		if respErr.Response != nil && respErr.Response.StatusCode < 500 {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
