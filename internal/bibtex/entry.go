package bibtex

import (
	"regexp"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

var keywordSeparator = regexp.MustCompile(`[,;]`)

// ToEntry converts a parsed record into an Entry, applying the field
// customizations: authors split on " and ", keywords split on ',' or ';',
// and wrapping braces removed from the title.
func ToEntry(rec Record) *reference.Entry {
	e := &reference.Entry{
		ID:   rec.Key,
		Type: rec.Type,
	}
	for _, f := range rec.Fields {
		switch f.Name {
		case "author":
			e.Author = reference.SplitAuthors(f.Value)
		case "title":
			e.Title = stripWrappingBraces(f.Value)
		case "year":
			e.Year = f.Value
		case "keywords":
			e.Keywords = splitKeywords(f.Value)
		case "publisher":
			e.Publisher = f.Value
		case "pages":
			e.Pages = f.Value
		case "doi":
			e.DOI = f.Value
		case "link":
			e.Link = f.Value
		case "file":
			e.File = f.Value
		case "inserted":
			e.Inserted = f.Value
		default:
			e.Extra = append(e.Extra, f)
		}
	}
	return e
}

// ToEntries converts every record.
func ToEntries(recs []Record) []*reference.Entry {
	entries := make([]*reference.Entry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, ToEntry(r))
	}
	return entries
}

// ParseEntries parses s and converts every record.
func ParseEntries(s string) ([]*reference.Entry, error) {
	recs, err := ParseString(s)
	if err != nil {
		return nil, err
	}
	return ToEntries(recs), nil
}

func splitKeywords(value string) []string {
	kws := []string{}
	for _, k := range keywordSeparator.Split(value, -1) {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	return kws
}

// stripWrappingBraces removes brace pairs enclosing the whole title.
// A pair is only removed when what remains is still balanced, so
// "{Deep} {Learning}" is kept intact.
func stripWrappingBraces(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
