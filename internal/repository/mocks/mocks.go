package mocks

import (
	"context"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/stretchr/testify/mock"
)

// ContextRepository is a mock for contexts.Repository.
type ContextRepository struct {
	mock.Mock
}

func (m *ContextRepository) Create(ctx context.Context, c *contexts.Context) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContextRepository) Update(ctx context.Context, c *contexts.Context) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContextRepository) Get(ctx context.Context, id string) (*contexts.Context, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contexts.Context); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContextRepository) GetByName(ctx context.Context, owner, name string) (*contexts.Context, error) {
	args := m.Called(ctx, owner, name)
	if c, ok := args.Get(0).(*contexts.Context); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContextRepository) List(ctx context.Context) ([]*contexts.Context, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]*contexts.Context); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContextRepository) PutFile(ctx context.Context, contextID string, f *contexts.File) error {
	args := m.Called(ctx, contextID, f)
	return args.Error(0)
}

func (m *ContextRepository) DeleteFile(ctx context.Context, contextID, name string) error {
	args := m.Called(ctx, contextID, name)
	return args.Error(0)
}

func (m *ContextRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Pipeline is a mock for contexts.Pipeline.
type Pipeline struct {
	mock.Mock
}

func (m *Pipeline) Generate(ctx context.Context, repoURL string) (*contexts.GenerationResult, error) {
	args := m.Called(ctx, repoURL)
	if r, ok := args.Get(0).(*contexts.GenerationResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Pipeline) GenerateOne(ctx context.Context, repoURL string, kind contexts.FileKind) (*contexts.File, error) {
	args := m.Called(ctx, repoURL, kind)
	if f, ok := args.Get(0).(*contexts.File); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}
