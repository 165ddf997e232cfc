package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerResources exposes contexts through the context:// scheme.
// Reading a private context without owning it reports resource-not-found,
// the same answer an unknown id gets.
func registerResources(server *sdkmcp.Server, svc ContextService) {
	server.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "context://{contextId}",
		Name:        "context",
		Description: "Full context: metadata and every file, as JSON",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		uri := req.Params.URI
		id, filename, err := parseContextURI(uri)
		if err != nil || filename != "" {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		c, err := svc.Get(ctx, id, getUser(ctx))
		if err != nil {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	})

	server.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "context://{contextId}/files/{filename}",
		Name:        "context-file",
		Description: "A single context file's raw markdown content",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		uri := req.Params.URI
		id, filename, err := parseContextURI(uri)
		if err != nil || filename == "" {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		c, err := svc.Get(ctx, id, getUser(ctx))
		if err != nil {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		file := c.FileNamed(filename)
		if file == nil {
			return nil, fmt.Errorf("resource not found: %s", uri)
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     file.Content,
			}},
		}, nil
	})
}

// parseContextURI splits a context:// URI into context id and optional
// filename. Valid forms are context://{id} and
// context://{id}/files/{filename}.
func parseContextURI(uri string) (id, filename string, err error) {
	rest, ok := strings.CutPrefix(uri, "context://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("not a context uri: %s", uri)
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		return parts[0], "", nil
	case len(parts) == 3 && parts[1] == "files" && parts[2] != "":
		return parts[0], parts[2], nil
	default:
		return "", "", fmt.Errorf("malformed context uri: %s", uri)
	}
}
