// Package testserver builds a fully wired HTTP server over real storage
// for functional tests: filesystem context store, sqlite-backed tokens
// and the REST surface, with only the generation pipeline substituted.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ganot/ctxmarket-mcp/internal/api"
	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
	"github.com/ganot/ctxmarket-mcp/internal/sqlite"
	"github.com/ganot/ctxmarket-mcp/internal/store"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Store   *store.Store
	Service *contexts.Service
	Tokens  *sqlite.TokenStore
	Token   string
	Login   string
}

// New starts a server with one registered user and an issued token.
func New(t *testing.T, login string, pipeline contexts.Pipeline, adapter source.Adapter) *TestServer {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	tokens := sqlite.NewTokenStore(db)
	require.NoError(t, tokens.EnsureUser(ctx, login, ""))
	token, err := tokens.IssueToken(ctx, login, "functional test")
	require.NoError(t, err)

	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	service := contexts.NewService(st, pipeline, nil)

	restServer := api.NewServer(service, adapter, tokens, "", nil)
	server := httptest.NewServer(restServer.Handler())

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Store:   st,
		Service: service,
		Tokens:  tokens,
		Token:   token,
		Login:   login,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddUser registers another user and returns a token for them.
func (ts *TestServer) AddUser(t *testing.T, login string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ts.Tokens.EnsureUser(ctx, login, ""))
	token, err := ts.Tokens.IssueToken(ctx, login, "functional test")
	require.NoError(t, err)
	return token
}
