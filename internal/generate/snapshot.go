package generate

import "github.com/ganot/ctxmarket-mcp/internal/source"

// Snapshot is the transient aggregate one generation run works from.
// It is assembled fresh per run and never cached. Sections that could
// not be fetched carry a warning and render as placeholder content.
type Snapshot struct {
	Repo source.Repository

	Languages        map[string]int64
	LanguagesWarning string

	Contributors          []source.Contributor
	ContributorsTruncated bool
	ContributorsWarning   string

	Guidelines        string
	GuidelinesFound   bool
	GuidelinesWarning string

	// BusinessExtra holds optional AI-completed feature notes.
	BusinessExtra string
}
