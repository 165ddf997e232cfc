package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
)

// Server is the REST surface over the context service. Reads are open
// to anonymous callers; every mutation requires a resolved user.
type Server struct {
	service *contexts.Service
	adapter source.Adapter
	logger  *slog.Logger
	router  *gin.Engine
}

// NewServer builds the router. resolver may be nil, in which case every
// request is treated as localUser.
func NewServer(service *contexts.Service, adapter source.Adapter, resolver UserResolver, localUser string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogging(logger), gin.Recovery())
	router.Use(identity(resolver, localUser))

	s := &Server{
		service: service,
		adapter: adapter,
		logger:  logger,
		router:  router,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/contexts", s.handleListContexts)
		api.POST("/contexts", s.handleCreateContext)
		api.GET("/contexts/:id", s.handleGetContext)
		api.PUT("/contexts/:id", s.handleUpdateContext)
		api.DELETE("/contexts/:id", s.handleDeleteContext)

		api.GET("/contexts/:id/files/:filename", s.handleGetFile)
		api.PUT("/contexts/:id/files/:filename", s.handleUpdateFile)
		api.POST("/contexts/:id/files", s.handleAddFile)
		api.DELETE("/contexts/:id/files/:filename", s.handleDeleteFile)
		api.POST("/contexts/:id/files/:filename/regenerate", s.handleRegenerateFile)
		api.POST("/contexts/:id/contributors/:login/toggle", s.handleToggleContributor)

		api.GET("/search", s.handleSearch)
		api.GET("/user/repositories", s.handleUserRepositories)
	}

	return s
}

// Handler exposes the router for mounting and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
