package contexts_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
	"github.com/ganot/ctxmarket-mcp/internal/repository"
	"github.com/ganot/ctxmarket-mcp/internal/repository/mocks"
	"github.com/ganot/ctxmarket-mcp/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func linkedContext(owner string, visibility contexts.Visibility) *contexts.Context {
	now := time.Now()
	c := &contexts.Context{
		ID:         "ctx-1",
		Owner:      owner,
		Name:       "my-project",
		Visibility: visibility,
		Repo: &contexts.RepoRef{
			Owner:    owner,
			Name:     "my-project",
			FullName: owner + "/my-project",
			URL:      "https://github.com/" + owner + "/my-project",
		},
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now,
	}
	for _, kind := range contexts.DefaultKinds {
		c.Files = append(c.Files, contexts.File{
			Name:      contexts.DefaultFilename(kind),
			Kind:      kind,
			Content:   "# " + string(kind),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.CreatedAt,
		})
	}
	return c
}

func TestServiceCreate_GeneratesDefaultFiles(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("GetByName", ctx, "alice", "my-project").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	pipeline := &mocks.Pipeline{}
	pipeline.On("Generate", ctx, "https://github.com/alice/my-project").Return(&contexts.GenerationResult{
		Repo: contexts.RepoRef{
			Owner:    "alice",
			Name:     "my-project",
			FullName: "alice/my-project",
			URL:      "https://github.com/alice/my-project",
		},
		Files: []contexts.File{
			{Name: "stack.md", Kind: contexts.KindStack, Content: "# Stack"},
			{Name: "business.md", Kind: contexts.KindBusiness, Content: "# Business"},
			{Name: "people.md", Kind: contexts.KindPeople, Content: "# People"},
			{Name: "guidelines.md", Kind: contexts.KindGuidelines, Content: "# Guidelines"},
		},
	}, nil)

	svc := contexts.NewService(repo, pipeline, nil)
	created, err := svc.Create(ctx, "alice", contexts.CreateRequest{
		Name:    "my-project",
		RepoURL: "https://github.com/alice/my-project",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice", created.Owner)
	require.Equal(t, contexts.VisibilityPublic, created.Visibility)
	require.Len(t, created.Files, 4)
	for _, f := range created.Files {
		require.False(t, f.CreatedAt.IsZero())
	}
	repo.AssertExpectations(t)
}

func TestServiceCreate_DuplicateName(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("GetByName", ctx, "alice", "taken").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.Create(ctx, "alice", contexts.CreateRequest{Name: "taken"})
	require.ErrorIs(t, err, contexts.ErrDuplicateName)
}

func TestServiceCreate_Validation(t *testing.T) {
	svc := contexts.NewService(&mocks.ContextRepository{}, &mocks.Pipeline{}, nil)

	_, err := svc.Create(context.Background(), "alice", contexts.CreateRequest{Name: "   "})
	require.ErrorIs(t, err, contexts.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "", contexts.CreateRequest{Name: "x"})
	require.ErrorIs(t, err, contexts.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "alice", contexts.CreateRequest{Name: "x", Visibility: "friends-only"})
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceCreate_ConcurrentSameName(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	svc := contexts.NewService(st, &mocks.Pipeline{}, nil)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Create(context.Background(), "alice", contexts.CreateRequest{Name: "proj"})
			errs <- err
		}()
	}

	succeeded := 0
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, contexts.ErrDuplicateName)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestServiceUpdate_Metadata(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)
	repo.On("GetByName", ctx, "alice", "renamed").Return(nil, repository.ErrNotFound)
	repo.On("Update", ctx, mock.MatchedBy(func(c *contexts.Context) bool {
		return c.Name == "renamed" && c.Description == "fresh words" && c.Visibility == contexts.VisibilityPrivate
	})).Return(nil)

	name := "renamed"
	desc := "  fresh words "
	visibility := contexts.VisibilityPrivate
	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	updated, err := svc.Update(ctx, "ctx-1", contexts.UpdateRequest{
		Name:        &name,
		Description: &desc,
		Visibility:  &visibility,
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, "fresh words", updated.Description)
	require.Equal(t, contexts.VisibilityPrivate, updated.Visibility)
	repo.AssertExpectations(t)
}

func TestServiceUpdate_RenameToTakenName(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)
	repo.On("GetByName", ctx, "alice", "taken").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	name := "taken"
	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.Update(ctx, "ctx-1", contexts.UpdateRequest{Name: &name}, "alice")
	require.ErrorIs(t, err, contexts.ErrDuplicateName)
}

func TestServiceUpdate_Validation(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)

	blank := "   "
	_, err := svc.Update(ctx, "ctx-1", contexts.UpdateRequest{Name: &blank}, "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)

	bad := contexts.Visibility("friends-only")
	_, err = svc.Update(ctx, "ctx-1", contexts.UpdateRequest{Visibility: &bad}, "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceUpdate_NonOwner(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	desc := "takeover"
	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.Update(ctx, "ctx-1", contexts.UpdateRequest{Description: &desc}, "bob")
	require.ErrorIs(t, err, contexts.ErrNotAuthorized)
}

func TestServiceGet_PrivateHiddenFromStrangers(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPrivate), nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)

	_, err := svc.Get(ctx, "ctx-1", "bob")
	require.ErrorIs(t, err, contexts.ErrNotFound)

	_, err = svc.Get(ctx, "ctx-1", "")
	require.ErrorIs(t, err, contexts.ErrNotFound)

	got, err := svc.Get(ctx, "ctx-1", "alice")
	require.NoError(t, err)
	require.Equal(t, "ctx-1", got.ID)
}

func TestServiceUpdateFile_NonOwnerOfPublic(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.UpdateFile(ctx, "ctx-1", "stack.md", "edited", "bob")
	require.ErrorIs(t, err, contexts.ErrNotAuthorized)
}

func TestServiceUpdateFile_Owner(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)
	repo.On("PutFile", ctx, "ctx-1", mock.MatchedBy(func(f *contexts.File) bool {
		return f.Name == "stack.md" && f.Content == "edited"
	})).Return(nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	updated, err := svc.UpdateFile(ctx, "ctx-1", "stack.md", "edited", "alice")
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)
	repo.AssertExpectations(t)
}

func TestServiceAddFile_ReservedName(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	c := linkedContext("alice", contexts.VisibilityPublic)
	c.Files = nil
	repo.On("Get", ctx, "ctx-1").Return(c, nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.AddFile(ctx, "ctx-1", contexts.AddFileRequest{Name: "stack.md"}, "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceAddFile_Custom(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)
	repo.On("PutFile", ctx, "ctx-1", mock.MatchedBy(func(f *contexts.File) bool {
		return f.Name == "notes.md" && f.Kind == contexts.KindCustom
	})).Return(nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	f, err := svc.AddFile(ctx, "ctx-1", contexts.AddFileRequest{Name: "notes.md", Content: "hi"}, "alice")
	require.NoError(t, err)
	require.Equal(t, contexts.KindCustom, f.Kind)
}

func TestServiceDeleteFile_DefaultProtected(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(linkedContext("alice", contexts.VisibilityPublic), nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	err := svc.DeleteFile(ctx, "ctx-1", "people.md", "alice")
	require.ErrorIs(t, err, contexts.ErrDefaultFileProtected)
}

func TestServiceDeleteFile_Custom(t *testing.T) {
	ctx := context.Background()

	c := linkedContext("alice", contexts.VisibilityPublic)
	c.Files = append(c.Files, contexts.File{Name: "notes.md", Kind: contexts.KindCustom})

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(c, nil)
	repo.On("DeleteFile", ctx, "ctx-1", "notes.md").Return(nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	require.NoError(t, svc.DeleteFile(ctx, "ctx-1", "notes.md", "alice"))
	repo.AssertExpectations(t)
}

func TestServiceRegenerateFile_OverwritesEdits(t *testing.T) {
	ctx := context.Background()

	c := linkedContext("alice", contexts.VisibilityPublic)
	stack := c.FileOfKind(contexts.KindStack)
	stack.Content = "manually edited"
	originalCreated := stack.CreatedAt

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(c, nil)
	repo.On("PutFile", ctx, "ctx-1", mock.MatchedBy(func(f *contexts.File) bool {
		return f.Content == "# Stack\n\nfresh" && f.CreatedAt.Equal(originalCreated)
	})).Return(nil)

	pipeline := &mocks.Pipeline{}
	pipeline.On("GenerateOne", ctx, c.Repo.URL, contexts.KindStack).Return(&contexts.File{
		Name:    "stack.md",
		Kind:    contexts.KindStack,
		Content: "# Stack\n\nfresh",
	}, nil)

	svc := contexts.NewService(repo, pipeline, nil)
	fresh, err := svc.RegenerateFile(ctx, "ctx-1", contexts.KindStack, "alice")
	require.NoError(t, err)
	require.Equal(t, "# Stack\n\nfresh", fresh.Content)
	repo.AssertExpectations(t)
}

func TestServiceRegenerateFile_CustomKindRejected(t *testing.T) {
	svc := contexts.NewService(&mocks.ContextRepository{}, &mocks.Pipeline{}, nil)
	_, err := svc.RegenerateFile(context.Background(), "ctx-1", contexts.KindCustom, "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceRegenerateFile_UnlinkedContext(t *testing.T) {
	ctx := context.Background()

	c := linkedContext("alice", contexts.VisibilityPublic)
	c.Repo = nil

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(c, nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	_, err := svc.RegenerateFile(ctx, "ctx-1", contexts.KindStack, "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceToggleContributor(t *testing.T) {
	ctx := context.Background()

	c := linkedContext("alice", contexts.VisibilityPublic)
	people := c.FileOfKind(contexts.KindPeople)
	people.Content = "# People\n\n" +
		contexts.ContributorLine("alice", "https://github.com/alice", "https://avatars.example/alice", 42, true) + "\n"

	repo := &mocks.ContextRepository{}
	repo.On("Get", ctx, "ctx-1").Return(c, nil)
	repo.On("PutFile", ctx, "ctx-1", mock.Anything).Return(nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	updated, err := svc.ToggleContributor(ctx, "ctx-1", "alice", "alice")
	require.NoError(t, err)
	require.Empty(t, contexts.SelectedContributors(updated.Content))

	_, err = svc.ToggleContributor(ctx, "ctx-1", "nobody", "alice")
	require.ErrorIs(t, err, contexts.ErrInvalidInput)
}

func TestServiceSearch_RestrictsVisibility(t *testing.T) {
	ctx := context.Background()

	pub := linkedContext("alice", contexts.VisibilityPublic)
	priv := linkedContext("alice", contexts.VisibilityPrivate)
	priv.ID = "ctx-2"
	priv.Name = "my-secret"

	repo := &mocks.ContextRepository{}
	repo.On("List", ctx).Return([]*contexts.Context{pub, priv}, nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)

	results, err := svc.Search(ctx, "my", "bob")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "my-project", results[0].Name)

	results, err = svc.Search(ctx, "my", "alice")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestServiceContextsForRepos(t *testing.T) {
	ctx := context.Background()

	c := linkedContext("alice", contexts.VisibilityPublic)

	repo := &mocks.ContextRepository{}
	repo.On("List", ctx).Return([]*contexts.Context{c}, nil)

	svc := contexts.NewService(repo, &mocks.Pipeline{}, nil)
	found, err := svc.ContextsForRepos(ctx, "alice", []string{c.Repo.URL, "https://github.com/alice/other"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{c.Repo.URL: "ctx-1"}, found)

	found, err = svc.ContextsForRepos(ctx, "bob", []string{c.Repo.URL})
	require.NoError(t, err)
	require.Empty(t, found)
}
