// Package reference defines the core domain types for bibliography entries.
package reference

import (
	"slices"
	"strings"
)

// Field is a BibTeX field that has no dedicated slot on Entry.
// Extra fields are kept in file order so they survive a write-back.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Entry represents one bibliographic record.
type Entry struct {
	// Identity
	ID   string `json:"id"`   // Citation key, compared case-insensitively
	Type string `json:"type"` // BibTeX entry type (article, inproceedings, ...)

	// Metadata
	Author   []string `json:"author,omitempty"` // Names as written, e.g. "Smith, John"
	Title    string   `json:"title,omitempty"`
	Year     string   `json:"year,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	// Optional publication details
	Publisher string `json:"publisher,omitempty"`
	Pages     string `json:"pages,omitempty"`
	DOI       string `json:"doi,omitempty"`
	Link      string `json:"link,omitempty"`

	// Local PDF path (relative to the configured pdf_dir or absolute)
	File string `json:"file,omitempty"`

	// Set only when an entry is newly created in this program (mm/dd/yy)
	Inserted string `json:"inserted,omitempty"`

	// Unrecognized fields
	Extra []Field `json:"extra,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Author = slices.Clone(e.Author)
	c.Keywords = slices.Clone(e.Keywords)
	c.Extra = slices.Clone(e.Extra)
	return &c
}

// Equal reports whether two entries hold the same field values.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID &&
		e.Type == o.Type &&
		slices.Equal(e.Author, o.Author) &&
		e.Title == o.Title &&
		e.Year == o.Year &&
		slices.Equal(e.Keywords, o.Keywords) &&
		e.Publisher == o.Publisher &&
		e.Pages == o.Pages &&
		e.DOI == o.DOI &&
		e.Link == o.Link &&
		e.File == o.File &&
		e.Inserted == o.Inserted &&
		slices.Equal(e.Extra, o.Extra)
}

// Key returns the collection lookup key for a citation key.
func Key(id string) string {
	return strings.ToLower(id)
}

// HasFile reports whether a local file path is attached.
func (e *Entry) HasFile() bool { return e.File != "" }

// HasKeywords reports whether the record carried a keywords field.
func (e *Entry) HasKeywords() bool { return e.Keywords != nil }

// HasKeyword reports whether kw is one of the entry's keywords.
func (e *Entry) HasKeyword(kw string) bool {
	return slices.Contains(e.Keywords, kw)
}

// HasPages reports whether page information is present.
func (e *Entry) HasPages() bool { return e.Pages != "" }

// HasPublisher reports whether publisher information is present.
func (e *Entry) HasPublisher() bool { return e.Publisher != "" }

// Citation returns the LaTeX citation command for the entry.
func (e *Entry) Citation() string {
	return CiteKeys([]string{e.ID})
}

// CiteKeys returns a LaTeX citation of several keys, e.g. \cite{a, b}.
func CiteKeys(keys []string) string {
	return `\cite{` + strings.Join(keys, ", ") + `}`
}

// CanonicFilename returns the file name a PDF for this entry should have.
func (e *Entry) CanonicFilename() string {
	return e.ID + ".pdf"
}

// ExtraValue returns the value of an unrecognized field, or "".
func (e *Entry) ExtraValue(name string) string {
	for _, f := range e.Extra {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// SetExtra sets an unrecognized field, appending it if absent.
func (e *Entry) SetExtra(name, value string) {
	for i, f := range e.Extra {
		if strings.EqualFold(f.Name, name) {
			e.Extra[i].Value = value
			return
		}
	}
	e.Extra = append(e.Extra, Field{Name: name, Value: value})
}

// Summary returns a one-line description: "ID: x. author: y. title: z".
func (e *Entry) Summary() string {
	parts := []string{"ID: " + e.ID}
	if len(e.Author) > 0 {
		parts = append(parts, "author: "+strings.Join(e.Author, " "))
	}
	if e.Title != "" {
		parts = append(parts, "title: "+e.Title)
	}
	return strings.Join(parts, ". ")
}

// Value returns the display value of a named field.
// Multi-valued fields are joined with a single space.
func (e *Entry) Value(name string) string {
	switch strings.ToLower(name) {
	case "id":
		return e.ID
	case "type", "entrytype":
		return e.Type
	case "author":
		return strings.Join(e.Author, " ")
	case "title":
		return e.Title
	case "year":
		return e.Year
	case "keywords":
		return strings.Join(e.Keywords, " ")
	case "publisher":
		return e.Publisher
	case "pages":
		return e.Pages
	case "doi":
		return e.DOI
	case "link":
		return e.Link
	case "file":
		return e.File
	case "inserted":
		return e.Inserted
	default:
		return e.ExtraValue(name)
	}
}

// UsefulKeys lists the fields shown when inspecting an entry.
var UsefulKeys = []string{"type", "id", "author", "title", "year", "keywords", "file", "inserted"}

// DiscoveryKeys lists the fields used to identify candidate entries.
var DiscoveryKeys = []string{"title", "year", "author"}
