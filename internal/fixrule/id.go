package fixrule

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/keygen"
	"github.com/matsen/bibshelf/internal/reference"
)

// IDFix renames entries whose key differs from the canonical one.
type IDFix struct {
	base
}

// NewIDFix returns the canonical citation key rule.
func NewIDFix() *IDFix {
	return &IDFix{base: base{name: "key"}}
}

// MakeFix computes the canonical key for e. Entries lacking the fields
// a key needs are left alone.
func (r *IDFix) MakeFix(e *reference.Entry) {
	r.begin()
	r.before = e.ID
	r.after = e.ID
	key, err := keygen.Generate(e)
	if err != nil {
		// BasicFix reports the missing fields
		return
	}
	r.after = key
	r.message = "expected id: " + key
}

// Apply re-keys the entry in place. A target key held by another entry is
// a fatal inconsistency and nothing is changed.
func (r *IDFix) Apply(e *reference.Entry) error {
	oldID, newID := r.before, r.after
	if r.c == nil {
		e.ID = newID
		r.applied = true
		return nil
	}
	if !strings.EqualFold(oldID, newID) && r.c.Has(newID) {
		return fmt.Errorf("%w: cannot rename %s to %s", ErrKeyCollision, oldID, newID)
	}
	e.ID = newID
	if err := r.c.Replace(e, oldID); err != nil {
		e.ID = oldID
		return fmt.Errorf("rename %s: %w", oldID, err)
	}
	r.applied = true
	return nil
}

// ParseResponse renames e on yes or Yes-all.
func (r *IDFix) ParseResponse(response string, e *reference.Entry) error {
	return r.parseYesNo(response, func() error { return r.Apply(e) })
}
