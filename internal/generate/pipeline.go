package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/sync/errgroup"
)

const (
	contributorPageSize = 100
	maxContributors     = 300
)

// Pipeline assembles context files from a repository snapshot. The four
// generators run concurrently; a generator whose upstream fetch fails
// (after one retry) emits its placeholder variant rather than failing
// the run. Only an unresolvable repository reference is fatal.
type Pipeline struct {
	adapter    source.Adapter
	completer  Completer
	clock      clock.Clock
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. completer may be nil.
func NewPipeline(adapter source.Adapter, completer Completer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		adapter:    adapter,
		completer:  completer,
		clock:      clock.WallClock,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}
}

// Generate resolves repoURL and produces all four default files.
func (p *Pipeline) Generate(ctx context.Context, repoURL string) (*contexts.GenerationResult, error) {
	ref, err := source.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	repo, err := p.fetchRepository(ctx, ref)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Repo: *repo}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.loadLanguages(gctx, ref, snap); return nil })
	g.Go(func() error { p.loadContributors(gctx, ref, snap); return nil })
	g.Go(func() error { p.loadGuidelines(gctx, ref, snap); return nil })
	g.Go(func() error { p.loadBusinessExtra(gctx, snap); return nil })
	// Tasks recover their own failures into placeholder warnings, so the
	// join never reports an error; it is purely a barrier.
	_ = g.Wait()

	return &contexts.GenerationResult{
		Repo: repoRef(repo, repoURL),
		Files: []contexts.File{
			p.fileFor(contexts.KindStack, snap),
			p.fileFor(contexts.KindBusiness, snap),
			p.fileFor(contexts.KindPeople, snap),
			p.fileFor(contexts.KindGuidelines, snap),
		},
	}, nil
}

// GenerateOne re-runs the single generator for kind against a fresh
// snapshot.
func (p *Pipeline) GenerateOne(ctx context.Context, repoURL string, kind contexts.FileKind) (*contexts.File, error) {
	if !contexts.IsDefaultKind(kind) {
		return nil, fmt.Errorf("no generator for kind %q", kind)
	}
	ref, err := source.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	repo, err := p.fetchRepository(ctx, ref)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Repo: *repo}
	switch kind {
	case contexts.KindStack:
		p.loadLanguages(ctx, ref, snap)
	case contexts.KindPeople:
		p.loadContributors(ctx, ref, snap)
	case contexts.KindGuidelines:
		p.loadGuidelines(ctx, ref, snap)
	case contexts.KindBusiness:
		p.loadBusinessExtra(ctx, snap)
	}
	f := p.fileFor(kind, snap)
	return &f, nil
}

func (p *Pipeline) fileFor(kind contexts.FileKind, snap *Snapshot) contexts.File {
	var content string
	switch kind {
	case contexts.KindStack:
		content = RenderStack(snap)
	case contexts.KindBusiness:
		content = RenderBusiness(snap)
	case contexts.KindPeople:
		content = RenderPeople(snap)
	case contexts.KindGuidelines:
		content = RenderGuidelines(snap)
	}
	return contexts.File{
		Name:    contexts.DefaultFilename(kind),
		Kind:    kind,
		Content: content,
	}
}

func (p *Pipeline) fetchRepository(ctx context.Context, ref source.RepoRef) (*source.Repository, error) {
	var repo *source.Repository
	err := p.withRetry(ctx, func() error {
		var err error
		repo, err = p.adapter.FetchRepository(ctx, ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	return repo, nil
}

func (p *Pipeline) loadLanguages(ctx context.Context, ref source.RepoRef, snap *Snapshot) {
	err := p.withRetry(ctx, func() error {
		langs, err := p.adapter.FetchLanguages(ctx, ref)
		if err != nil {
			return err
		}
		snap.Languages = langs
		return nil
	})
	if err != nil {
		p.logger.Warn("language fetch failed", "repo", ref.String(), "error", err)
		snap.LanguagesWarning = "language data could not be fetched; showing placeholder content."
	}
}

func (p *Pipeline) loadContributors(ctx context.Context, ref source.RepoRef, snap *Snapshot) {
	err := p.withRetry(ctx, func() error {
		var all []source.Contributor
		truncated := false
		for page := 1; ; page++ {
			batch, err := p.adapter.FetchContributors(ctx, ref, page, contributorPageSize)
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				break
			}
			all = append(all, batch...)
			if len(all) < maxContributors {
				if len(batch) < contributorPageSize {
					break
				}
				continue
			}
			if len(all) > maxContributors {
				all = all[:maxContributors]
				truncated = true
				break
			}
			// Landed exactly on the cap. A short final page proves the
			// list is complete; otherwise only a further page does.
			if len(batch) == contributorPageSize {
				probe, err := p.adapter.FetchContributors(ctx, ref, page+1, contributorPageSize)
				if err != nil {
					return err
				}
				truncated = len(probe) > 0
			}
			break
		}
		snap.Contributors = all
		snap.ContributorsTruncated = truncated
		return nil
	})
	if err != nil {
		p.logger.Warn("contributor fetch failed", "repo", ref.String(), "error", err)
		snap.Contributors = nil
		snap.ContributorsWarning = "contributor data could not be fetched; showing placeholder content."
	}
}

func (p *Pipeline) loadGuidelines(ctx context.Context, ref source.RepoRef, snap *Snapshot) {
	err := p.withRetry(ctx, func() error {
		content, found, err := p.adapter.FetchFirstExisting(ctx, ref, GuidelinePaths)
		if err != nil {
			return err
		}
		snap.Guidelines = content
		snap.GuidelinesFound = found
		return nil
	})
	if err != nil {
		p.logger.Warn("guideline fetch failed", "repo", ref.String(), "error", err)
		snap.GuidelinesWarning = "guideline files could not be fetched; showing placeholder content."
	}
}

func (p *Pipeline) loadBusinessExtra(ctx context.Context, snap *Snapshot) {
	if p.completer == nil || snap.Repo.Description == "" {
		return
	}
	extra, err := p.completer.Complete(ctx, businessPrompt(snap.Repo.Description))
	if err != nil {
		// Enrichment is best-effort; the plain description still seeds
		// the document.
		p.logger.Warn("completion failed", "repo", snap.Repo.FullName, "error", err)
		return
	}
	snap.BusinessExtra = extra
}

// withRetry runs fn with at most one retry after a short backoff. Only
// recoverable upstream errors are retried; the bound keeps interactive
// creation latency predictable.
func (p *Pipeline) withRetry(ctx context.Context, fn func() error) error {
	err := retry.Call(retry.CallArgs{
		Func:     fn,
		Attempts: 2,
		Delay:    p.retryDelay,
		Clock:    p.clock,
		Stop:     ctx.Done(),
		IsFatalError: func(err error) bool {
			return !source.IsRecoverable(err)
		},
	})
	if err != nil {
		// retry.LastError only unwraps the library's own wrapper errors;
		// fatal errors come back unwrapped and must pass through as-is.
		if retry.IsAttemptsExceeded(err) || retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
			return retry.LastError(err)
		}
		return err
	}
	return nil
}

func repoRef(repo *source.Repository, repoURL string) contexts.RepoRef {
	url := repo.HTMLURL
	if url == "" {
		url = repoURL
	}
	return contexts.RepoRef{
		Owner:         repo.Owner,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		URL:           url,
		DefaultBranch: repo.DefaultBranch,
	}
}
