package ui

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

const (
	// maxAuthors is how many author surnames an entry line shows.
	maxAuthors = 2
	// maxTitleWidth caps the padded title column.
	maxTitleWidth = 60
)

// EntryLine formats one enumerated row: index, id, title, authors, year
// and keywords. idWidth and titleWidth pad the columns; zero means no padding.
func EntryLine(t Theme, index, total int, e *reference.Entry, idWidth, titleWidth int) string {
	numWidth := len(fmt.Sprint(total))
	var b strings.Builder
	b.WriteString(t.Index.Render(fmt.Sprintf("%*d/%d", numWidth, index, total)))
	b.WriteString(" ")
	b.WriteString(t.ID.Render(pad(e.ID, idWidth)))
	b.WriteString("  ")
	b.WriteString(t.Title.Render(pad(e.Title, titleWidth)))
	if len(e.Author) > 0 {
		b.WriteString("  ")
		b.WriteString(t.Author.Render(reference.FormatAuthorsShort(e.Author, maxAuthors)))
	}
	if e.Year != "" {
		b.WriteString("  ")
		b.WriteString(t.Year.Render(e.Year))
	}
	if len(e.Keywords) > 0 {
		b.WriteString("  ")
		b.WriteString(t.Keyword.Render(strings.Join(e.Keywords, ", ")))
	}
	return b.String()
}

func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// PrintEntries prints entries enumerated from 1, padding columns to the
// longest id and title among them. atMost limits how many are shown; zero
// or less shows all.
func (c *Console) PrintEntries(entries []*reference.Entry, atMost int) {
	idWidth, titleWidth := 0, 0
	for _, e := range entries {
		idWidth = max(idWidth, len([]rune(e.ID)))
		titleWidth = max(titleWidth, len([]rune(e.Title)))
	}
	c.PrintEntriesWidth(entries, atMost, idWidth, titleWidth)
}

// PrintEntriesWidth is PrintEntries with column widths chosen by the caller.
func (c *Console) PrintEntriesWidth(entries []*reference.Entry, atMost, idWidth, titleWidth int) {
	// very long titles would push every other column off screen
	titleWidth = min(titleWidth, maxTitleWidth)

	shown := entries
	if atMost > 0 && len(shown) > atMost {
		shown = shown[:atMost]
	}
	for i, e := range shown {
		fmt.Fprintln(c.out, EntryLine(c.theme, i+1, len(entries), e, idWidth, titleWidth))
	}
	if len(shown) < len(entries) {
		c.Warn(fmt.Sprintf("... %d more (truncated at %d)", len(entries)-len(shown), atMost))
	}
}

// PrintEnum prints lines enumerated from 1.
func (c *Console) PrintEnum(lines []string) {
	numWidth := len(fmt.Sprint(len(lines)))
	for i, l := range lines {
		fmt.Fprintf(c.out, "%s %s\n", c.theme.Index.Render(fmt.Sprintf("%*d.", numWidth, i+1)), l)
	}
}

// PrintTable prints label/value rows with aligned labels.
func (c *Console) PrintTable(rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(c.out, "%s  %s\n", c.theme.Label.Render(pad(r[0], width)), r[1])
	}
}

// PrintHistory prints history lines, highlighting the one at current.
func (c *Console) PrintHistory(lines []string, current int) {
	for i, l := range lines {
		if i == current {
			l = c.theme.Current.Render(l)
		}
		fmt.Fprintln(c.out, l)
	}
}
