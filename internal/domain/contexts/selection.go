package contexts

import (
	"fmt"
	"regexp"
	"strings"
)

// Contributor selection is recorded as checkbox markers inside the
// people file, not as separate state. The generator renders lines in the
// format below and ToggleSelection flips a single marker in place.

// ContributorLine renders one contributor entry for the people file.
func ContributorLine(login, profileURL, avatarURL string, contributions int, selected bool) string {
	marker := " "
	if selected {
		marker = "x"
	}
	return fmt.Sprintf("- [%s] [@%s](%s) ([avatar](%s)) — %d contributions",
		marker, login, profileURL, avatarURL, contributions)
}

// ToggleSelection flips the selection marker for login inside people-file
// content. It returns the rewritten content and whether a matching entry
// was found.
func ToggleSelection(content, login string) (string, bool) {
	pattern := regexp.MustCompile(`(?m)^- \[([ x])\] \[@` + regexp.QuoteMeta(login) + `\]`)
	loc := pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return content, false
	}
	// loc[2]:loc[3] spans the marker character.
	flipped := "x"
	if content[loc[2]:loc[3]] == "x" {
		flipped = " "
	}
	return content[:loc[2]] + flipped + content[loc[3]:], true
}

// SelectedContributors returns the logins currently marked selected.
func SelectedContributors(content string) []string {
	pattern := regexp.MustCompile(`(?m)^- \[x\] \[@([^\]]+)\]`)
	var logins []string
	for _, m := range pattern.FindAllStringSubmatch(content, -1) {
		logins = append(logins, strings.TrimSpace(m[1]))
	}
	return logins
}
