package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "0.1.0"

// ContextService defines the context operations needed by the protocol
// server. Authorization is enforced by the service; the protocol server
// only supplies the requester identity.
type ContextService interface {
	Create(ctx context.Context, owner string, req contexts.CreateRequest) (*contexts.Context, error)
	Get(ctx context.Context, id, requester string) (*contexts.Context, error)
	Search(ctx context.Context, query, requester string) ([]contexts.Summary, error)
	ContextsForRepos(ctx context.Context, owner string, repoURLs []string) (map[string]string, error)
}

// Config contains server configuration.
type Config struct {
	Service       ContextService
	Adapter       source.Adapter
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	LocalUser     string // identity used when auth is disabled
	Logger        *slog.Logger
}

const serverInstructions = `ctxmarket publishes repository context documents to agents.

Concepts:
- Context: a named collection of markdown files describing one project,
  owned by one user, public or private.
- Files: four generated defaults (stack.md, business.md, people.md,
  guidelines.md) plus any number of custom files.

Resources:
- context://{contextId} — full context (metadata + every file)
- context://{contextId}/files/{filename} — a single file's raw content

Tools:
- search_contexts(query) to discover contexts you may read
- get_context_details(context_id) for metadata plus file listing
- list_user_repositories() to see linkable repositories and which ones
  already have a context
- create_context_from_repo(repo_url) to generate a new context

Tool failures carry a structured error object with a code such as
NOT_FOUND or DUPLICATE_NAME; transport faults surface separately, so
retry those and correct your input on the former.`

// NewServer creates and configures an MCP server with all tools,
// resources and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "ctxmarket",
		Version: serverVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	// Stdio serves a single local identity; HTTP authenticates per
	// request unless auth is disabled.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(localUserMiddleware(cfg.LocalUser))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerResources(server, cfg.Service)
	registerTools(server, cfg.Service, cfg.Adapter)

	return server
}
