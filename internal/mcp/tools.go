package mcp

import (
	"context"
	"encoding/json"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	userRepoPageSize = 100
	maxUserRepos     = 200
)

// The tool names and schemas below are the compatibility surface
// external agents depend on; keep them stable.

type SearchContextsParams struct {
	Query string `json:"query" jsonschema:"search query matched against context names and descriptions"`
}

type SearchContextsResult struct {
	Results []contexts.Summary `json:"results"`
	Count   int                `json:"count"`
}

type GetContextDetailsParams struct {
	ContextID string `json:"context_id" jsonschema:"id of the context to retrieve"`
}

type ListUserRepositoriesParams struct{}

// RepoWithContext is one repository annotated with whether a context
// already exists for it.
type RepoWithContext struct {
	source.UserRepository
	HasContext bool   `json:"has_context"`
	ContextID  string `json:"context_id,omitempty"`
}

type ListUserRepositoriesResult struct {
	Repositories []RepoWithContext `json:"repositories"`
}

type CreateContextFromRepoParams struct {
	RepoURL string `json:"repo_url" jsonschema:"URL of the repository to generate a context from"`
}

func registerTools(server *sdkmcp.Server, svc ContextService, adapter source.Adapter) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_contexts",
		Description: "Search for contexts by name or description",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args SearchContextsParams) (*sdkmcp.CallToolResult, any, error) {
		results, err := svc.Search(ctx, args.Query, getUser(ctx))
		if err != nil {
			return toolError(err)
		}
		return nil, SearchContextsResult{Results: results, Count: len(results)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_context_details",
		Description: "Get detailed information about a specific context, including all of its files",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args GetContextDetailsParams) (*sdkmcp.CallToolResult, any, error) {
		c, err := svc.Get(ctx, args.ContextID, getUser(ctx))
		if err != nil {
			return toolError(err)
		}
		return nil, c, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_user_repositories",
		Description: "List repositories visible to the caller, annotated with whether a context already exists for each",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args ListUserRepositoriesParams) (*sdkmcp.CallToolResult, any, error) {
		repos, err := drainUserRepositories(ctx, adapter)
		if err != nil {
			return toolError(err)
		}
		urls := make([]string, 0, len(repos))
		for _, r := range repos {
			urls = append(urls, r.HTMLURL)
		}
		existing, err := svc.ContextsForRepos(ctx, getUser(ctx), urls)
		if err != nil {
			return toolError(err)
		}
		annotated := make([]RepoWithContext, 0, len(repos))
		for _, r := range repos {
			entry := RepoWithContext{UserRepository: r}
			if id, ok := existing[r.HTMLURL]; ok {
				entry.HasContext = true
				entry.ContextID = id
			}
			annotated = append(annotated, entry)
		}
		return nil, ListUserRepositoriesResult{Repositories: annotated}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_context_from_repo",
		Description: "Create a new context by generating documents from a repository",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args CreateContextFromRepoParams) (*sdkmcp.CallToolResult, any, error) {
		owner := getUser(ctx)
		if owner == "" {
			return toolError(contexts.ErrNotAuthorized)
		}
		ref, err := source.ParseRepoURL(args.RepoURL)
		if err != nil {
			return toolError(contexts.ErrInvalidInput)
		}
		c, err := svc.Create(ctx, owner, contexts.CreateRequest{
			Name:    ref.Name,
			RepoURL: args.RepoURL,
		})
		if err != nil {
			return toolError(err)
		}
		return nil, c, nil
	})
}

// toolError routes business failures through the tool result channel
// and everything else through the transport channel.
func toolError(err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	if apiErr == nil {
		return nil, nil, err
	}
	data, merr := json.Marshal(apiErr)
	if merr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func drainUserRepositories(ctx context.Context, adapter source.Adapter) ([]source.UserRepository, error) {
	var all []source.UserRepository
	for page := 1; len(all) < maxUserRepos; page++ {
		batch, err := adapter.FetchUserRepositories(ctx, page, userRepoPageSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < userRepoPageSize {
			break
		}
	}
	if len(all) > maxUserRepos {
		all = all[:maxUserRepos]
	}
	return all, nil
}
