package merge

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// Corpus is the read side of the collection a merge targets.
type Corpus interface {
	IDs() []string
	Lookup(id string) *reference.Entry
}

// comparedFields are checked, in order, when describing a duplicate.
var comparedFields = []string{"type", "author", "title", "year", "keywords", "publisher", "pages", "doi", "link", "file"}

// Prepare matches incoming entries against c. An entry matches by citation
// key first (case-insensitive) and by DOI as a fallback. Each existing
// entry is claimed by at most one incoming entry; later incoming entries
// matching an already claimed one go to Skipped.
func Prepare(c Corpus, incoming []*reference.Entry) Plan {
	byDOI := make(map[string]*reference.Entry)
	for _, id := range c.IDs() {
		e := c.Lookup(id)
		if e != nil && e.DOI != "" {
			byDOI[normalizeDOI(e.DOI)] = e
		}
	}

	var plan Plan
	claimed := make(map[string]bool)
	add := func(m Match) {
		key := reference.Key(m.Existing.ID)
		if claimed[key] {
			plan.Skipped = append(plan.Skipped, m)
			return
		}
		claimed[key] = true
		plan.Duplicates = append(plan.Duplicates, m)
	}
	for _, e := range incoming {
		if existing := c.Lookup(e.ID); existing != nil {
			add(newMatch(existing, e, "id"))
			continue
		}
		if e.DOI != "" {
			if existing, ok := byDOI[normalizeDOI(e.DOI)]; ok {
				add(newMatch(existing, e, "doi"))
				continue
			}
		}
		plan.Insert = append(plan.Insert, e)
	}
	return plan
}

func newMatch(existing, incoming *reference.Entry, by string) Match {
	return Match{
		Existing:  existing,
		Incoming:  incoming,
		MatchedBy: by,
		Conflicts: Compare(existing, incoming),
	}
}

// Compare lists the fields whose values differ between two entries.
func Compare(existing, incoming *reference.Entry) []FieldConflict {
	var out []FieldConflict
	for _, f := range comparedFields {
		a, b := existing.Value(f), incoming.Value(f)
		if a != b {
			out = append(out, FieldConflict{FieldName: f, ExistingValue: a, IncomingValue: b})
		}
	}
	return out
}

// Describe renders the match and its field conflicts for display, values
// truncated to maxLen.
func (m Match) Describe(maxLen int) []string {
	lines := []string{fmt.Sprintf("%s matches %s by %s", m.Incoming.ID, m.Existing.ID, m.MatchedBy)}
	if len(m.Conflicts) == 0 {
		return append(lines, "  identical fields")
	}
	for _, fc := range m.Conflicts {
		lines = append(lines,
			fmt.Sprintf("  %s:", fc.FieldName),
			fmt.Sprintf("    existing: %q", truncateForDisplay(fc.ExistingValue, maxLen)),
			fmt.Sprintf("    incoming: %q", truncateForDisplay(fc.IncomingValue, maxLen)))
	}
	return lines
}

// truncateForDisplay truncates a string to maxLen, adding "..." if truncated.
func truncateForDisplay(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func normalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}
