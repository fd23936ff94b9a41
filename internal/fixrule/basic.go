package fixrule

import (
	"fmt"

	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

// BasicFix reports entries missing author, year or title. It never changes
// the entry; the user may fix it by hand or skip it.
type BasicFix struct {
	base
	badFields []string
}

// NewBasicFix returns the missing author/year/title rule.
func NewBasicFix() *BasicFix {
	return &BasicFix{base: base{name: "basic"}}
}

// MakeFix records which of author, year and title e lacks.
func (r *BasicFix) MakeFix(e *reference.Entry) {
	r.begin()
	r.badFields = nil
	if len(e.Author) == 0 {
		r.badFields = append(r.badFields, "author")
	}
	if e.Year == "" {
		r.badFields = append(r.badFields, "year")
	}
	if e.Title == "" {
		r.badFields = append(r.badFields, "title")
	}
	r.message = fmt.Sprintf("Bad fields: %v", r.badFields)
	r.logMessage = fmt.Sprintf("Missing fields: %v", r.badFields)
}

// BadFields returns the missing fields found by the last MakeFix.
func (r *BasicFix) BadFields() []string { return r.badFields }

func (r *BasicFix) IsApplicable() bool { return len(r.badFields) > 0 }

// Apply does nothing; missing fields can only be filled in by hand.
func (r *BasicFix) Apply(*reference.Entry) error { return nil }

func (r *BasicFix) ConfirmationMessage(e *reference.Entry) string {
	return fmt.Sprintf("Basic entry information missing: [%s : fields: %v]", e.ID, r.badFields)
}

func (r *BasicFix) ConfirmationOptions() []string {
	return []string{"*skip", "Skip-all"}
}

// ParseResponse accepts skip or Skip-all.
func (r *BasicFix) ParseResponse(response string, _ *reference.Entry) error {
	switch {
	case prompt.Matches(response, "Skip-all"):
		r.decision = SkipAll
		return nil
	case prompt.Matches(response, "skip"):
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidResponse, response)
}
