// Package merge folds the entries of a second bibliography into a collection.
package merge

import (
	"errors"

	"github.com/matsen/bibshelf/internal/reference"
)

var (
	// ErrAborted is returned when the user aborts a merge with duplicates.
	ErrAborted = errors.New("merge aborted")

	// ErrConflictingPlan is returned when a plan cannot be applied without
	// a key collision. Apply checks this before changing anything.
	ErrConflictingPlan = errors.New("merge plan conflicts with collection")
)

// Choice is what to do with incoming entries that already exist.
type Choice string

const (
	ChoiceReplace Choice = "replace" // Incoming version takes the existing slot
	ChoiceOmit    Choice = "omit"    // Existing version is kept
	ChoiceAbort   Choice = "abort"   // Nothing is merged
)

// Options are the prompt options for resolving duplicates. Abort is the default.
var Options = []string{"replace", "omit", "*abort"}

// Match is an incoming entry that collides with an existing one.
type Match struct {
	Existing  *reference.Entry
	Incoming  *reference.Entry
	MatchedBy string // "id" or "doi"

	// Fields whose values differ; empty when both versions are equal
	Conflicts []FieldConflict
}

// FieldConflict holds the two values of a field that differs.
// Values are stored in full; truncation happens only at display time.
type FieldConflict struct {
	FieldName     string
	ExistingValue string
	IncomingValue string
}

// Plan splits the incoming entries into new ones and duplicates,
// both in incoming order. Skipped holds incoming entries whose match was
// already claimed by an earlier incoming entry; they are never merged.
type Plan struct {
	Insert     []*reference.Entry
	Duplicates []Match
	Skipped    []Match
}

// Result reports what a merge did.
type Result struct {
	Inserted []string
	Replaced []string
	Omitted  []string
	Skipped  []string
}

// Empty reports whether the merge changed nothing.
func (r Result) Empty() bool {
	return len(r.Inserted) == 0 && len(r.Replaced) == 0
}
