package contexts

import "context"

// Repository provides persistence for contexts and their files.
type Repository interface {
	// Create persists a context together with all of its initial files.
	// Either everything becomes visible or nothing does.
	Create(ctx context.Context, c *Context) error
	// Update rewrites a context's metadata record. File contents are
	// untouched.
	Update(ctx context.Context, c *Context) error
	Get(ctx context.Context, id string) (*Context, error)
	GetByName(ctx context.Context, owner, name string) (*Context, error)
	List(ctx context.Context) ([]*Context, error)
	// PutFile creates or replaces one file and bumps the context's
	// updated_at. The replacement is atomic with respect to readers.
	PutFile(ctx context.Context, contextID string, f *File) error
	DeleteFile(ctx context.Context, contextID, name string) error
	Delete(ctx context.Context, id string) error
}

// GenerationResult is the outcome of one pipeline run.
type GenerationResult struct {
	Repo  RepoRef
	Files []File
}

// Pipeline turns a repository reference into generated file content.
type Pipeline interface {
	// Generate resolves repoURL and produces the four default files.
	Generate(ctx context.Context, repoURL string) (*GenerationResult, error)
	// GenerateOne re-runs the single generator for a default kind.
	GenerateOne(ctx context.Context, repoURL string, kind FileKind) (*File, error)
}
