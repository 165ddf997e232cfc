package contexts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ganot/ctxmarket-mcp/internal/repository"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	"github.com/google/uuid"
)

// Service orchestrates context creation, retrieval, search, editing,
// regeneration and deletion, enforcing ownership and visibility.
type Service struct {
	repo     Repository
	pipeline Pipeline
	logger   *slog.Logger

	mu          sync.Mutex
	createLocks map[string]*sync.Mutex
}

// NewService creates a new context service.
func NewService(repo Repository, pipeline Pipeline, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		pipeline:    pipeline,
		logger:      logger,
		createLocks: make(map[string]*sync.Mutex),
	}
}

// CreateRequest defines context creation inputs.
type CreateRequest struct {
	Name        string
	Description string
	Visibility  Visibility
	RepoURL     string
}

// Create creates a context for owner. When RepoURL is set the generation
// pipeline runs synchronously and the context only becomes visible once
// all four default files are committed.
func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (*Context, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: owner must not be empty", ErrInvalidInput)
	}
	visibility := req.Visibility
	switch visibility {
	case "":
		visibility = VisibilityPublic
	case VisibilityPublic, VisibilityPrivate:
	default:
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, req.Visibility)
	}

	// Serialize creates of the same owner and name so the uniqueness
	// check and the commit can't interleave.
	lock := s.createLock(owner, name)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.GetByName(ctx, owner, name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking name: %w", err)
	}

	now := time.Now()
	c := &Context{
		ID:          uuid.NewString(),
		Owner:       owner,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.RepoURL != "" {
		result, err := s.pipeline.Generate(ctx, req.RepoURL)
		if err != nil {
			return nil, s.mapPipelineError(err)
		}
		repoRef := result.Repo
		c.Repo = &repoRef
		if c.Description == "" {
			c.Description = repoRef.Description
		}
		c.Files = make([]File, 0, len(result.Files))
		for _, f := range result.Files {
			f.CreatedAt = now
			f.UpdatedAt = now
			c.Files = append(c.Files, f)
		}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("creating context: %w", err)
	}

	s.logger.Info("context created", "id", c.ID, "owner", owner, "linked", c.Repo != nil)
	return c, nil
}

// UpdateRequest defines metadata updates. Nil fields keep their
// current values.
type UpdateRequest struct {
	Name        *string
	Description *string
	Visibility  *Visibility
}

// Update changes a context's name, description or visibility. Owner
// only; a rename keeps the per-owner name uniqueness rule.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest, requester string) (*Context, error) {
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		if name != c.Name {
			if _, err := s.repo.GetByName(ctx, c.Owner, name); err == nil {
				return nil, ErrDuplicateName
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("checking name: %w", err)
			}
			c.Name = name
		}
	}
	if req.Description != nil {
		c.Description = strings.TrimSpace(*req.Description)
	}
	if req.Visibility != nil {
		switch *req.Visibility {
		case VisibilityPublic, VisibilityPrivate:
			c.Visibility = *req.Visibility
		default:
			return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, *req.Visibility)
		}
	}

	c.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("updating context: %w", err)
	}
	s.logger.Info("context updated", "id", id)
	return c, nil
}

// Get fetches a context with its files. Private contexts read by a
// non-owner return ErrNotFound so their existence doesn't leak.
func (s *Service) Get(ctx context.Context, id, requester string) (*Context, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting context: %w", err)
	}
	if !c.VisibleTo(requester) {
		return nil, ErrNotFound
	}
	return c, nil
}

// ListFilter selects which contexts List returns.
type ListFilter struct {
	// Public selects every public context.
	Public bool
	// Owner selects every context owned by this user, public or private.
	Owner string
}

// List returns context summaries matching the filter, most recently
// updated first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	var summaries []Summary
	for _, c := range all {
		if (filter.Public && c.Visibility == VisibilityPublic) ||
			(filter.Owner != "" && c.Owner == filter.Owner) {
			summaries = append(summaries, c.Summarize())
		}
	}
	sortSummaries(summaries)
	return summaries, nil
}

// Search matches query case-insensitively against name and description,
// restricted to contexts the requester may see.
func (s *Service) Search(ctx context.Context, query, requester string) ([]Summary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var summaries []Summary
	for _, c := range all {
		if !c.VisibleTo(requester) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) {
			continue
		}
		summaries = append(summaries, c.Summarize())
	}
	sortSummaries(summaries)
	return summaries, nil
}

// UpdateFile overwrites one file's content. Owner only.
func (s *Service) UpdateFile(ctx context.Context, id, filename, content, requester string) (*File, error) {
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	existing := c.FileNamed(filename)
	if existing == nil {
		return nil, ErrFileNotFound
	}
	updated := *existing
	updated.Content = content
	updated.UpdatedAt = time.Now()
	if err := s.repo.PutFile(ctx, id, &updated); err != nil {
		return nil, fmt.Errorf("updating file: %w", err)
	}
	return &updated, nil
}

// AddFileRequest defines inputs for adding a custom file.
type AddFileRequest struct {
	Name    string
	Content string
}

// AddFile adds a custom file to the context. Owner only; filenames are
// unique within a context and the default filenames are reserved.
func (s *Service) AddFile(ctx context.Context, id string, req AddFileRequest, requester string) (*File, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, fmt.Errorf("%w: invalid filename %q", ErrInvalidInput, req.Name)
	}
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if c.FileNamed(name) != nil {
		return nil, fmt.Errorf("%w: file %q already exists", ErrInvalidInput, name)
	}
	for _, kind := range DefaultKinds {
		if name == DefaultFilename(kind) {
			return nil, fmt.Errorf("%w: %q is reserved for a generated file", ErrInvalidInput, name)
		}
	}
	now := time.Now()
	f := &File{
		Name:      name,
		Kind:      KindCustom,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.PutFile(ctx, id, f); err != nil {
		return nil, fmt.Errorf("adding file: %w", err)
	}
	return f, nil
}

// DeleteFile removes a custom file. The four generated files are
// protected; they can be edited or regenerated but never removed.
func (s *Service) DeleteFile(ctx context.Context, id, filename, requester string) error {
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return err
	}
	f := c.FileNamed(filename)
	if f == nil {
		return ErrFileNotFound
	}
	if f.Kind != KindCustom {
		return ErrDefaultFileProtected
	}
	if err := s.repo.DeleteFile(ctx, id, filename); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// RegenerateFile re-runs a single generator against a fresh snapshot and
// unconditionally overwrites the current content, including manual
// edits. Owner only; the context must be linked to a repository.
func (s *Service) RegenerateFile(ctx context.Context, id string, kind FileKind, requester string) (*File, error) {
	if !IsDefaultKind(kind) {
		return nil, fmt.Errorf("%w: kind %q has no generator", ErrInvalidInput, kind)
	}
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if c.Repo == nil {
		return nil, fmt.Errorf("%w: context is not linked to a repository", ErrInvalidInput)
	}

	fresh, err := s.pipeline.GenerateOne(ctx, c.Repo.URL, kind)
	if err != nil {
		return nil, s.mapPipelineError(err)
	}

	now := time.Now()
	fresh.UpdatedAt = now
	if existing := c.FileOfKind(kind); existing != nil {
		fresh.CreatedAt = existing.CreatedAt
	} else {
		fresh.CreatedAt = now
	}
	if err := s.repo.PutFile(ctx, id, fresh); err != nil {
		return nil, fmt.Errorf("writing regenerated file: %w", err)
	}
	s.logger.Info("file regenerated", "id", id, "kind", kind)
	return fresh, nil
}

// ToggleContributor flips the selection marker for one contributor in
// the people file. Owner only.
func (s *Service) ToggleContributor(ctx context.Context, id, login, requester string) (*File, error) {
	c, err := s.getOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	f := c.FileOfKind(KindPeople)
	if f == nil {
		return nil, ErrFileNotFound
	}
	rewritten, found := ToggleSelection(f.Content, login)
	if !found {
		return nil, fmt.Errorf("%w: contributor %q not listed", ErrInvalidInput, login)
	}
	updated := *f
	updated.Content = rewritten
	updated.UpdatedAt = time.Now()
	if err := s.repo.PutFile(ctx, id, &updated); err != nil {
		return nil, fmt.Errorf("toggling contributor: %w", err)
	}
	return &updated, nil
}

// Delete removes a context and all of its files. Owner only.
func (s *Service) Delete(ctx context.Context, id, requester string) error {
	if _, err := s.getOwned(ctx, id, requester); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting context: %w", err)
	}
	s.logger.Info("context deleted", "id", id)
	return nil
}

// ContextsForRepos maps repository URLs to the owner's context IDs, used
// to annotate repository listings.
func (s *Service) ContextsForRepos(ctx context.Context, owner string, repoURLs []string) (map[string]string, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	wanted := make(map[string]struct{}, len(repoURLs))
	for _, u := range repoURLs {
		wanted[u] = struct{}{}
	}
	found := make(map[string]string)
	for _, c := range all {
		if c.Owner != owner || c.Repo == nil {
			continue
		}
		if _, ok := wanted[c.Repo.URL]; ok {
			found[c.Repo.URL] = c.ID
		}
	}
	return found, nil
}

func (s *Service) createLock(owner, name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := owner + "/" + name
	lock, ok := s.createLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.createLocks[key] = lock
	}
	return lock
}

// getOwned loads a context and checks the requester owns it. A stranger
// probing a private context gets ErrNotFound; a non-owner mutating a
// context they can see gets ErrNotAuthorized.
func (s *Service) getOwned(ctx context.Context, id, requester string) (*Context, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting context: %w", err)
	}
	if c.Owner == requester {
		return c, nil
	}
	if c.Visibility == VisibilityPrivate {
		return nil, ErrNotFound
	}
	return nil, ErrNotAuthorized
}

func (s *Service) mapPipelineError(err error) error {
	switch {
	case errors.Is(err, source.ErrInvalidRepoURL):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, source.ErrRepoNotFound):
		return fmt.Errorf("%w: %v", ErrResolutionFailure, err)
	default:
		return err
	}
}

func sortSummaries(summaries []Summary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}
