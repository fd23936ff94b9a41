package bibtex

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// Format converts an entry to BibTeX. Authors are joined with " and ",
// keywords with ", "; unrecognized fields keep their original order.
func Format(e *reference.Entry) string {
	entryType := e.Type
	if entryType == "" {
		entryType = "article"
	}
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, e.ID))

	writeField := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
	}

	if len(e.Author) > 0 {
		writeField("author", strings.Join(e.Author, " and "))
	}
	writeField("title", e.Title)
	writeField("year", e.Year)
	writeField("publisher", e.Publisher)
	writeField("pages", e.Pages)
	writeField("doi", e.DOI)
	writeField("link", e.Link)
	for _, f := range e.Extra {
		writeField(f.Name, f.Value)
	}
	if e.Keywords != nil {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", strings.Join(e.Keywords, ", ")))
	}
	writeField("file", e.File)
	writeField("inserted", e.Inserted)

	b.WriteString("}\n")

	return b.String()
}

// FormatAll converts multiple entries to BibTeX.
func FormatAll(entries []*reference.Entry) string {
	var parts []string
	for _, e := range entries {
		parts = append(parts, Format(e))
	}
	return strings.Join(parts, "\n")
}
