package generate

import "strings"

// GuidelinePaths are the conventional guideline-file locations, tried in
// order; the first one found wins.
var GuidelinePaths = []string{
	"CONTRIBUTING.md",
	".github/CONTRIBUTING.md",
	"docs/CONTRIBUTING.md",
	"GUIDELINES.md",
}

// RenderGuidelines produces the guidelines document from a snapshot.
func RenderGuidelines(snap *Snapshot) string {
	var b strings.Builder
	b.WriteString("# Development Guidelines\n\n")
	if snap.GuidelinesWarning != "" {
		b.WriteString("> Warning: " + snap.GuidelinesWarning + "\n\n")
	}

	if snap.GuidelinesFound {
		b.WriteString(strings.TrimSpace(snap.Guidelines))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("## Code Style\n\n")
	b.WriteString("_Define coding standards and style guidelines._\n\n")
	b.WriteString("## Development Workflow\n\n")
	b.WriteString("_Describe the development process and workflow._\n\n")
	b.WriteString("## Testing Guidelines\n\n")
	b.WriteString("_Document testing requirements and practices._\n\n")
	b.WriteString("## Review Process\n\n")
	b.WriteString("_Define the code review process._\n")
	return b.String()
}
