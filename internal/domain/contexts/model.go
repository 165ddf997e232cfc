package contexts

import "time"

// Visibility controls who can read a context.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// FileKind tags a context file with its generation strategy.
type FileKind string

const (
	KindStack      FileKind = "stack"
	KindBusiness   FileKind = "business"
	KindPeople     FileKind = "people"
	KindGuidelines FileKind = "guidelines"
	KindCustom     FileKind = "custom"
)

// DefaultKinds lists the four kinds generated for a linked context, in
// the order their files appear.
var DefaultKinds = []FileKind{KindStack, KindBusiness, KindPeople, KindGuidelines}

// DefaultFilename maps a non-custom kind to its conventional filename.
func DefaultFilename(kind FileKind) string {
	return string(kind) + ".md"
}

// IsDefaultKind reports whether kind is one of the four generated kinds.
func IsDefaultKind(kind FileKind) bool {
	switch kind {
	case KindStack, KindBusiness, KindPeople, KindGuidelines:
		return true
	}
	return false
}

// RepoRef is the optional source-repository reference of a context.
type RepoRef struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
}

// File is one document within a context.
type File struct {
	Name      string    `json:"name"`
	Kind      FileKind  `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Context is a named collection of files describing one project.
type Context struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	Repo        *RepoRef   `json:"repo,omitempty"`
	Files       []File     `json:"files"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// VisibleTo reports whether requester may read the context. An empty
// requester is an anonymous caller.
func (c *Context) VisibleTo(requester string) bool {
	return c.Visibility == VisibilityPublic || c.Owner == requester
}

// FileNamed returns the file with the given name, or nil.
func (c *Context) FileNamed(name string) *File {
	for i := range c.Files {
		if c.Files[i].Name == name {
			return &c.Files[i]
		}
	}
	return nil
}

// FileOfKind returns the file with the given non-custom kind, or nil.
func (c *Context) FileOfKind(kind FileKind) *File {
	for i := range c.Files {
		if c.Files[i].Kind == kind {
			return &c.Files[i]
		}
	}
	return nil
}

// Summary is a lightweight representation for listing and search results.
type Summary struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	RepoURL     string     `json:"repo_url,omitempty"`
	FileCount   int        `json:"file_count"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Summarize projects a context into its listing form.
func (c *Context) Summarize() Summary {
	s := Summary{
		ID:          c.ID,
		Owner:       c.Owner,
		Name:        c.Name,
		Description: c.Description,
		Visibility:  c.Visibility,
		FileCount:   len(c.Files),
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Repo != nil {
		s.RepoURL = c.Repo.URL
	}
	return s
}
