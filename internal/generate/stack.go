package generate

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// LanguageShare is one language's slice of the repository, in percent
// rounded to one decimal.
type LanguageShare struct {
	Name    string
	Percent float64
}

// LanguageShares converts a language byte histogram to percentage shares
// sorted by percentage descending, ties broken by name ascending
// case-insensitively. A single-language repository reports exactly 100.0.
// The rounding error is apportioned largest-remainder-first so the
// rendered percentages always sum to exactly 100.0.
func LanguageShares(histogram map[string]int64) []LanguageShare {
	var total int64
	for _, bytes := range histogram {
		total += bytes
	}
	if total == 0 {
		return nil
	}
	type share struct {
		name      string
		tenths    int
		remainder float64
	}
	entries := make([]share, 0, len(histogram))
	allocated := 0
	for name, bytes := range histogram {
		exact := 1000 * float64(bytes) / float64(total)
		tenths := int(math.Floor(exact))
		entries = append(entries, share{name: name, tenths: tenths, remainder: exact - float64(tenths)})
		allocated += tenths
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].remainder != entries[j].remainder {
			return entries[i].remainder > entries[j].remainder
		}
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})
	for i := 0; i < 1000-allocated && i < len(entries); i++ {
		entries[i].tenths++
	}
	shares := make([]LanguageShare, 0, len(entries))
	for _, e := range entries {
		shares = append(shares, LanguageShare{Name: e.name, Percent: float64(e.tenths) / 10})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percent != shares[j].Percent {
			return shares[i].Percent > shares[j].Percent
		}
		return strings.ToLower(shares[i].Name) < strings.ToLower(shares[j].Name)
	})
	return shares
}

// RenderStack produces the stack document from a snapshot.
func RenderStack(snap *Snapshot) string {
	var b strings.Builder
	b.WriteString("# Technology Stack\n\n")
	if snap.LanguagesWarning != "" {
		b.WriteString("> Warning: " + snap.LanguagesWarning + "\n\n")
	}

	b.WriteString("## Languages\n\n")
	shares := LanguageShares(snap.Languages)
	if len(shares) == 0 {
		b.WriteString("_No language data was available for this repository._\n\n")
	} else {
		for _, share := range shares {
			fmt.Fprintf(&b, "- **%s** — %.1f%%\n", share.Name, share.Percent)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Frameworks & Libraries\n\n")
	b.WriteString("_Add frameworks and libraries used in this project._\n\n")
	b.WriteString("## Tools & Services\n\n")
	b.WriteString("_Add development tools, CI/CD, and services used._\n\n")
	b.WriteString("## Architecture\n\n")
	b.WriteString("_Describe the high-level architecture of the project._\n")
	return b.String()
}
