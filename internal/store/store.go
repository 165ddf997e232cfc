// Package store persists contexts as one directory per context id:
// a metadata record plus one file per context file. Initial file sets
// are staged and revealed with a single rename; individual file updates
// go through a temporary file and an atomic replace.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/repository"
)

const (
	metadataFile = "metadata.json"
	filesDir     = "files"
	stagingDir   = ".staging"
)

// Store is a filesystem-backed context repository.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	// Staged directories left behind by a crash are garbage, never
	// visible state; clear them on startup.
	if err := os.RemoveAll(filepath.Join(dir, stagingDir)); err != nil {
		return nil, fmt.Errorf("clearing staging: %w", err)
	}
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}, nil
}

type fileMeta struct {
	Name      string            `json:"name"`
	Kind      contexts.FileKind `json:"kind"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type metadata struct {
	ID          string              `json:"id"`
	Owner       string              `json:"owner"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Visibility  contexts.Visibility `json:"visibility"`
	Repo        *contexts.RepoRef   `json:"repo,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Files       []fileMeta          `json:"files"`
}

// Create stages the context directory with every initial file and
// reveals it with one rename, so readers see all files or none.
func (s *Store) Create(ctx context.Context, c *contexts.Context) error {
	target := s.contextDir(c.ID)
	if _, err := os.Stat(target); err == nil {
		return repository.ErrDuplicate
	}

	staged := filepath.Join(s.root, stagingDir, c.ID)
	if err := os.MkdirAll(filepath.Join(staged, filesDir), 0o755); err != nil {
		return fmt.Errorf("staging context: %w", err)
	}
	defer os.RemoveAll(staged)

	for i := range c.Files {
		f := &c.Files[i]
		path := filepath.Join(staged, filesDir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("staging file %s: %w", f.Name, err)
		}
	}
	if err := writeMetadata(filepath.Join(staged, metadataFile), toMetadata(c)); err != nil {
		return err
	}

	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("committing context: %w", err)
	}
	return nil
}

// Update rewrites the metadata record; file contents are untouched.
func (s *Store) Update(ctx context.Context, c *contexts.Context) error {
	lock := s.contextLock(c.ID)
	lock.Lock()
	defer lock.Unlock()

	metaPath := filepath.Join(s.contextDir(c.ID), metadataFile)
	if _, err := readMetadata(metaPath); err != nil {
		return err
	}
	return writeMetadata(metaPath, toMetadata(c))
}

// Get loads a context and all of its file contents.
func (s *Store) Get(ctx context.Context, id string) (*contexts.Context, error) {
	meta, err := readMetadata(filepath.Join(s.contextDir(id), metadataFile))
	if err != nil {
		return nil, err
	}
	c := fromMetadata(meta)
	for i := range c.Files {
		path := filepath.Join(s.contextDir(id), filesDir, c.Files[i].Name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", c.Files[i].Name, err)
		}
		c.Files[i].Content = string(content)
	}
	return c, nil
}

// GetByName finds a context by owner and name.
func (s *Store) GetByName(ctx context.Context, owner, name string) (*contexts.Context, error) {
	ids, err := s.contextIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		meta, err := readMetadata(filepath.Join(s.contextDir(id), metadataFile))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if meta.Owner == owner && meta.Name == name {
			return s.Get(ctx, id)
		}
	}
	return nil, repository.ErrNotFound
}

// List loads every context with its files.
func (s *Store) List(ctx context.Context) ([]*contexts.Context, error) {
	ids, err := s.contextIDs()
	if err != nil {
		return nil, err
	}
	all := make([]*contexts.Context, 0, len(ids))
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Deleted between listing and reading.
				continue
			}
			return nil, err
		}
		all = append(all, c)
	}
	return all, nil
}

// PutFile creates or replaces one file via temp-write-then-rename and
// bumps the context's updated_at. Writers to the same context are
// serialized; different contexts proceed independently.
func (s *Store) PutFile(ctx context.Context, contextID string, f *contexts.File) error {
	lock := s.contextLock(contextID)
	lock.Lock()
	defer lock.Unlock()

	metaPath := filepath.Join(s.contextDir(contextID), metadataFile)
	meta, err := readMetadata(metaPath)
	if err != nil {
		return err
	}

	path := filepath.Join(s.contextDir(contextID), filesDir, f.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(f.Content), 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", f.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing file %s: %w", f.Name, err)
	}

	entry := fileMeta{Name: f.Name, Kind: f.Kind, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}
	replaced := false
	for i := range meta.Files {
		if meta.Files[i].Name == f.Name {
			meta.Files[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		meta.Files = append(meta.Files, entry)
	}
	meta.UpdatedAt = f.UpdatedAt
	return writeMetadata(metaPath, meta)
}

// DeleteFile removes one file from the context.
func (s *Store) DeleteFile(ctx context.Context, contextID, name string) error {
	lock := s.contextLock(contextID)
	lock.Lock()
	defer lock.Unlock()

	metaPath := filepath.Join(s.contextDir(contextID), metadataFile)
	meta, err := readMetadata(metaPath)
	if err != nil {
		return err
	}

	kept := meta.Files[:0]
	found := false
	for _, entry := range meta.Files {
		if entry.Name == name {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return repository.ErrNotFound
	}
	meta.Files = kept
	meta.UpdatedAt = time.Now()

	if err := os.Remove(filepath.Join(s.contextDir(contextID), filesDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing file %s: %w", name, err)
	}
	return writeMetadata(metaPath, meta)
}

// Delete removes the context directory and everything in it.
func (s *Store) Delete(ctx context.Context, id string) error {
	dir := s.contextDir(id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("checking context dir: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting context: %w", err)
	}
	return nil
}

func (s *Store) contextDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) contextIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading store root: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == stagingDir {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

func (s *Store) contextLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func readMetadata(path string) (*metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	return &meta, nil
}

func writeMetadata(path string, meta *metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing metadata: %w", err)
	}
	return nil
}

func toMetadata(c *contexts.Context) *metadata {
	meta := &metadata{
		ID:          c.ID,
		Owner:       c.Owner,
		Name:        c.Name,
		Description: c.Description,
		Visibility:  c.Visibility,
		Repo:        c.Repo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Files:       make([]fileMeta, 0, len(c.Files)),
	}
	for _, f := range c.Files {
		meta.Files = append(meta.Files, fileMeta{
			Name:      f.Name,
			Kind:      f.Kind,
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
		})
	}
	return meta
}

func fromMetadata(meta *metadata) *contexts.Context {
	c := &contexts.Context{
		ID:          meta.ID,
		Owner:       meta.Owner,
		Name:        meta.Name,
		Description: meta.Description,
		Visibility:  meta.Visibility,
		Repo:        meta.Repo,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
		Files:       make([]contexts.File, 0, len(meta.Files)),
	}
	for _, entry := range meta.Files {
		c.Files = append(c.Files, contexts.File{
			Name:      entry.Name,
			Kind:      entry.Kind,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	return c
}
