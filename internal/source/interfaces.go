package source

import "context"

// Adapter is a read-only client over the repository hosting platform.
// All calls may fail with ErrUpstreamUnavailable or *RateLimitedError;
// FetchRepository additionally fails with ErrRepoNotFound when the
// reference cannot be resolved at all.
type Adapter interface {
	// FetchRepository resolves a reference to its metadata.
	FetchRepository(ctx context.Context, ref RepoRef) (*Repository, error)

	// FetchLanguages returns the language to byte-count histogram.
	FetchLanguages(ctx context.Context, ref RepoRef) (map[string]int64, error)

	// FetchContributors returns one page of the contributor list.
	// Pages start at 1; an empty page terminates iteration.
	FetchContributors(ctx context.Context, ref RepoRef, page, pageSize int) ([]Contributor, error)

	// FetchFirstExisting tries the ordered path candidates and returns the
	// decoded content of the first file that exists.
	FetchFirstExisting(ctx context.Context, ref RepoRef, paths []string) (string, bool, error)

	// FetchUserRepositories returns one page of repositories visible to the
	// authenticated identity, most recently updated first.
	FetchUserRepositories(ctx context.Context, page, pageSize int) ([]UserRepository, error)
}
