package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/mcp"
	"github.com/ganot/ctxmarket-mcp/internal/repository/mocks"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	"github.com/ganot/ctxmarket-mcp/internal/store"
)

// stubAdapter serves a fixed repository listing.
type stubAdapter struct {
	source.Adapter
	repos []source.UserRepository
}

func (a *stubAdapter) FetchUserRepositories(ctx context.Context, page, pageSize int) ([]source.UserRepository, error) {
	if page > 1 {
		return nil, nil
	}
	return a.repos, nil
}

type testEnv struct {
	service *contexts.Service
	store   *store.Store
	session *sdkmcp.ClientSession
}

func newTestEnv(t *testing.T, pipeline contexts.Pipeline, adapter source.Adapter) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	service := contexts.NewService(st, pipeline, nil)

	server := mcp.NewServer(mcp.Config{
		Service:       service,
		Adapter:       adapter,
		AuthEnabled:   false,
		TransportMode: "http",
		LocalUser:     "alice",
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	_, err = server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return &testEnv{service: service, store: st, session: session}
}

func generationResult() *contexts.GenerationResult {
	return &contexts.GenerationResult{
		Repo: contexts.RepoRef{
			Owner:    "alice",
			Name:     "proj",
			FullName: "alice/proj",
			URL:      "https://github.com/alice/proj",
		},
		Files: []contexts.File{
			{Name: "stack.md", Kind: contexts.KindStack, Content: "# Technology Stack"},
			{Name: "business.md", Kind: contexts.KindBusiness, Content: "# Business Logic"},
			{Name: "people.md", Kind: contexts.KindPeople, Content: "# People"},
			{Name: "guidelines.md", Kind: contexts.KindGuidelines, Content: "# Development Guidelines"},
		},
	}
}

func toolText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolsCreateSearchAndGet(t *testing.T) {
	ctx := context.Background()

	pipeline := &mocks.Pipeline{}
	pipeline.On("Generate", mock.Anything, "https://github.com/alice/proj").Return(generationResult(), nil)

	env := newTestEnv(t, pipeline, &stubAdapter{})

	res, err := env.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_context_from_repo",
		Arguments: map[string]any{"repo_url": "https://github.com/alice/proj"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var created contexts.Context
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &created))
	require.Equal(t, "alice", created.Owner)
	require.Equal(t, "proj", created.Name)
	require.Len(t, created.Files, 4)

	res, err = env.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "search_contexts",
		Arguments: map[string]any{"query": "proj"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var search mcp.SearchContextsResult
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &search))
	require.Equal(t, 1, search.Count)
	require.Equal(t, created.ID, search.Results[0].ID)

	res, err = env.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_context_details",
		Arguments: map[string]any{"context_id": created.ID},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var detailed contexts.Context
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &detailed))
	require.Equal(t, "# Technology Stack", detailed.FileNamed("stack.md").Content)
}

func TestToolErrorCarriesCode(t *testing.T) {
	env := newTestEnv(t, &mocks.Pipeline{}, &stubAdapter{})

	res, err := env.session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "get_context_details",
		Arguments: map[string]any{"context_id": "no-such-context"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &apiErr))
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestResourceReadsMatchService(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, &mocks.Pipeline{}, &stubAdapter{})

	now := time.Now()
	seeded := &contexts.Context{
		ID:         "ctx-1",
		Owner:      "alice",
		Name:       "proj",
		Visibility: contexts.VisibilityPublic,
		Files: []contexts.File{
			{Name: "stack.md", Kind: contexts.KindStack, Content: "# Technology Stack\n\ncontent", CreatedAt: now, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.store.Create(ctx, seeded))

	res, err := env.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "context://ctx-1"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Equal(t, "application/json", res.Contents[0].MIMEType)

	var full contexts.Context
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &full))
	require.Equal(t, "ctx-1", full.ID)

	res, err = env.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "context://ctx-1/files/stack.md"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	fetched, err := env.service.Get(ctx, "ctx-1", "alice")
	require.NoError(t, err)
	require.Equal(t, fetched.FileNamed("stack.md").Content, res.Contents[0].Text)
}

func TestResourceHidesPrivateContexts(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, &mocks.Pipeline{}, &stubAdapter{})

	require.NoError(t, env.store.Create(ctx, &contexts.Context{
		ID:         "ctx-secret",
		Owner:      "bob",
		Name:       "secret",
		Visibility: contexts.VisibilityPrivate,
	}))

	// The session runs as alice, so bob's private context reads like a
	// missing resource.
	_, err := env.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "context://ctx-secret"})
	require.Error(t, err)

	_, err = env.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "context://ctx-missing"})
	require.Error(t, err)
}

func TestListUserRepositoriesAnnotatesExisting(t *testing.T) {
	ctx := context.Background()

	pipeline := &mocks.Pipeline{}
	pipeline.On("Generate", mock.Anything, "https://github.com/alice/proj").Return(generationResult(), nil)

	adapter := &stubAdapter{repos: []source.UserRepository{
		{Name: "proj", FullName: "alice/proj", HTMLURL: "https://github.com/alice/proj"},
		{Name: "other", FullName: "alice/other", HTMLURL: "https://github.com/alice/other"},
	}}
	env := newTestEnv(t, pipeline, adapter)

	res, err := env.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_context_from_repo",
		Arguments: map[string]any{"repo_url": "https://github.com/alice/proj"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	res, err = env.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "list_user_repositories",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var listing mcp.ListUserRepositoriesResult
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &listing))
	require.Len(t, listing.Repositories, 2)

	byName := map[string]mcp.RepoWithContext{}
	for _, r := range listing.Repositories {
		byName[r.Name] = r
	}
	require.True(t, byName["proj"].HasContext)
	require.NotEmpty(t, byName["proj"].ContextID)
	require.False(t, byName["other"].HasContext)
}
