package fixrule

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// TitleFix trims whitespace and a trailing period from titles.
type TitleFix struct {
	base
}

// NewTitleFix returns the title cleanup rule.
func NewTitleFix() *TitleFix {
	return &TitleFix{base: base{name: "title"}}
}

// MakeFix computes the cleaned title of e.
func (r *TitleFix) MakeFix(e *reference.Entry) {
	r.begin()
	r.before = e.Title
	r.after = CleanTitle(e.Title)
	r.message = "fixed title: " + r.after
}

// CleanTitle trims whitespace and one trailing period.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, ".")
	return strings.TrimSpace(title)
}

// Apply sets the cleaned title, through the collection when configured.
func (r *TitleFix) Apply(e *reference.Entry) error {
	if r.c != nil {
		if err := r.c.SetTitle(e.ID, r.after); err != nil {
			return fmt.Errorf("set title: %w", err)
		}
	} else {
		e.Title = r.after
	}
	r.applied = true
	return nil
}

// ParseResponse retitles e on yes or Yes-all.
func (r *TitleFix) ParseResponse(response string, e *reference.Entry) error {
	return r.parseYesNo(response, func() error { return r.Apply(e) })
}
