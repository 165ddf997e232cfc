package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/source"
)

const (
	repoPageSize = 100
	maxRepoPages = 2
)

type createContextRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	RepoURL     string `json:"repo_url"`
}

func (s *Server) handleCreateContext(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	var req createContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	created, err := s.service.Create(c.Request.Context(), owner, contexts.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  contexts.Visibility(req.Visibility),
		RepoURL:     req.RepoURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListContexts(c *gin.Context) {
	filter := contexts.ListFilter{Public: true}
	if c.Query("mine") == "true" {
		login, ok := requireUser(c)
		if !ok {
			return
		}
		filter = contexts.ListFilter{Owner: login}
	}
	summaries, err := s.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contexts": summaries, "count": len(summaries)})
}

func (s *Server) handleGetContext(c *gin.Context) {
	ctx, err := s.service.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctx)
}

type updateContextRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

func (s *Server) handleUpdateContext(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	var visibility *contexts.Visibility
	if req.Visibility != nil {
		v := contexts.Visibility(*req.Visibility)
		visibility = &v
	}
	updated, err := s.service.Update(c.Request.Context(), c.Param("id"), contexts.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  visibility,
	}, login)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteContext(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	if err := s.service.Delete(c.Request.Context(), c.Param("id"), login); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleGetFile serves the raw markdown, the same bytes the
// context://{id}/files/{filename} resource returns.
func (s *Server) handleGetFile(c *gin.Context) {
	ctx, err := s.service.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	file := ctx.FileNamed(c.Param("filename"))
	if file == nil {
		writeError(c, contexts.ErrFileNotFound)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(file.Content))
}

type updateFileRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleUpdateFile(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	file, err := s.service.UpdateFile(c.Request.Context(), c.Param("id"), c.Param("filename"), req.Content, login)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

type addFileRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

func (s *Server) handleAddFile(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	var req addFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	file, err := s.service.AddFile(c.Request.Context(), c.Param("id"), contexts.AddFileRequest{
		Name:    req.Name,
		Content: req.Content,
	}, login)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	if err := s.service.DeleteFile(c.Request.Context(), c.Param("id"), c.Param("filename"), login); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRegenerateFile(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	kind := contexts.FileKind(strings.TrimSuffix(c.Param("filename"), ".md"))
	file, err := s.service.RegenerateFile(c.Request.Context(), c.Param("id"), kind, login)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) handleToggleContributor(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	file, err := s.service.ToggleContributor(c.Request.Context(), c.Param("id"), c.Param("login"), login)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) handleSearch(c *gin.Context) {
	results, err := s.service.Search(c.Request.Context(), c.Query("q"), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type repoWithContext struct {
	source.UserRepository
	HasContext bool   `json:"has_context"`
	ContextID  string `json:"context_id,omitempty"`
}

// handleUserRepositories lists the caller's linkable repositories and
// marks the ones that already have a context.
func (s *Server) handleUserRepositories(c *gin.Context) {
	login, ok := requireUser(c)
	if !ok {
		return
	}
	var repos []source.UserRepository
	for page := 1; page <= maxRepoPages; page++ {
		batch, err := s.adapter.FetchUserRepositories(c.Request.Context(), page, repoPageSize)
		if err != nil {
			writeError(c, err)
			return
		}
		repos = append(repos, batch...)
		if len(batch) < repoPageSize {
			break
		}
	}
	urls := make([]string, 0, len(repos))
	for _, r := range repos {
		urls = append(urls, r.HTMLURL)
	}
	existing, err := s.service.ContextsForRepos(c.Request.Context(), login, urls)
	if err != nil {
		writeError(c, err)
		return
	}
	annotated := make([]repoWithContext, 0, len(repos))
	for _, r := range repos {
		entry := repoWithContext{UserRepository: r}
		if id, ok := existing[r.HTMLURL]; ok {
			entry.HasContext = true
			entry.ContextID = id
		}
		annotated = append(annotated, entry)
	}
	c.JSON(http.StatusOK, gin.H{"repositories": annotated, "count": len(annotated)})
}
