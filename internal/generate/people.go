package generate

import (
	"fmt"
	"strings"

	"github.com/ganot/ctxmarket-mcp/internal/domain/contexts"
)

// RenderPeople produces the people document from a snapshot. Every
// contributor starts selected; selection lives only in the rendered
// checkbox markers.
func RenderPeople(snap *Snapshot) string {
	var b strings.Builder
	b.WriteString("# People\n\n")
	if snap.ContributorsWarning != "" {
		b.WriteString("> Warning: " + snap.ContributorsWarning + "\n\n")
	}

	b.WriteString("## Contributors\n\n")
	if len(snap.Contributors) == 0 {
		b.WriteString("_No contributor data was available._\n\n")
	} else {
		for _, c := range snap.Contributors {
			b.WriteString(contexts.ContributorLine(c.Login, c.ProfileURL, c.AvatarURL, c.Contributions, true))
			b.WriteString("\n")
		}
		if snap.ContributorsTruncated {
			fmt.Fprintf(&b, "\n_Contributor list truncated at %d entries._\n", maxContributors)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Team Roles\n\n")
	b.WriteString("_Define roles and responsibilities._\n\n")
	b.WriteString("## Contact Information\n\n")
	b.WriteString("_Add relevant contact information._\n")
	return b.String()
}
