package generate

import "strings"

// BusinessPlaceholder is emitted when the repository has no description.
const BusinessPlaceholder = "_Describe your project here._"

// RenderBusiness produces the business document from a snapshot. The
// description seeds the document; optional AI-completed notes land under
// Core Features.
func RenderBusiness(snap *Snapshot) string {
	var b strings.Builder
	b.WriteString("# Business Logic\n\n")

	b.WriteString("## Project Description\n\n")
	if desc := strings.TrimSpace(snap.Repo.Description); desc != "" {
		b.WriteString(desc + "\n\n")
	} else {
		b.WriteString(BusinessPlaceholder + "\n\n")
	}

	b.WriteString("## Core Features\n\n")
	if extra := strings.TrimSpace(snap.BusinessExtra); extra != "" {
		b.WriteString(extra + "\n\n")
	} else {
		b.WriteString("_List the main features and functionality._\n\n")
	}

	b.WriteString("## Business Rules\n\n")
	b.WriteString("_Document important business rules and constraints._\n\n")
	b.WriteString("## User Stories\n\n")
	b.WriteString("_Add key user stories and use cases._\n")
	return b.String()
}
