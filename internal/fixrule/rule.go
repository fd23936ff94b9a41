// Package fixrule detects and repairs malformed entries when a collection
// is loaded. Each Rule handles one kind of defect; the Engine runs them in
// order over every entry and drives the confirmation dialogue.
package fixrule

import (
	"errors"
	"fmt"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

var (
	// ErrQuit is returned when the user quits during a confirmation.
	ErrQuit = errors.New("fix pass aborted by user")

	// ErrInvalidResponse is returned by ParseResponse for input it cannot use.
	// The same entry is prompted again.
	ErrInvalidResponse = errors.New("invalid input")

	// ErrKeyCollision is returned when a corrected key is already taken.
	ErrKeyCollision = errors.New("corrected key already exists")
)

// Decision is a rule's standing answer for the remaining entries of a pass.
type Decision int

const (
	Undecided Decision = iota
	ApplyAll
	SkipAll
)

// Rule is one category of entry defect.
//
// MakeFix inspects an entry without changing it. When IsApplicable reports
// true the engine either calls Apply directly or, if NeedsConfirmation,
// feeds user responses to ParseResponse until IsFinished.
type Rule interface {
	Name() string
	Configure(c *collection.Collection)
	MakeFix(e *reference.Entry)
	IsApplicable() bool
	NeedsConfirmation() bool
	Apply(e *reference.Entry) error
	WasApplied() bool
	Log() string

	ConfirmationMessage(e *reference.Entry) string
	ConfirmationOptions() []string
	ParseResponse(response string, e *reference.Entry) error
	IsFinished() bool

	Decision() Decision
	ResetDecision()
}

// DefaultRules returns the rules applied on load, in order.
func DefaultRules() []Rule {
	return []Rule{NewBasicFix(), NewKeywordFix(), NewTitleFix(), NewIDFix()}
}

// base carries the state shared by every rule: the value before and after
// the fix, the prompt message and the standing decision.
type base struct {
	name       string
	before     string
	after      string
	message    string
	logMessage string
	applied    bool
	decision   Decision
	c          *collection.Collection
}

func (b *base) Name() string                       { return b.name }
func (b *base) Configure(c *collection.Collection) { b.c = c }
func (b *base) IsApplicable() bool                 { return b.before != b.after }
func (b *base) NeedsConfirmation() bool            { return true }
func (b *base) WasApplied() bool                   { return b.applied }
func (b *base) IsFinished() bool                   { return true }
func (b *base) Decision() Decision                 { return b.decision }
func (b *base) ResetDecision()                     { b.decision = Undecided }
func (b *base) ConfirmationOptions() []string      { return []string{"yes", "no", "*Yes-all", "No-all"} }

func (b *base) begin() {
	b.applied = false
	b.logMessage = ""
	b.message = ""
}

func (b *base) Log() string {
	if b.logMessage != "" {
		return b.logMessage
	}
	return fmt.Sprintf("Applied %s fix: %s -> %s", b.name, b.before, b.after)
}

func (b *base) ConfirmationMessage(e *reference.Entry) string {
	return fmt.Sprintf("Fix entry problem: [%s : %s]?", e.ID, b.message)
}

// parseYesNo handles the default yes/no/Yes-all/No-all responses.
func (b *base) parseYesNo(response string, apply func() error) error {
	switch {
	case prompt.Matches(response, "Yes-all"):
		b.decision = ApplyAll
		return apply()
	case prompt.Matches(response, "No-all"):
		b.decision = SkipAll
		return nil
	case prompt.Matches(response, "yes"):
		return apply()
	case prompt.Matches(response, "no"):
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidResponse, response)
}
