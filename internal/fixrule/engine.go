package fixrule

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matsen/bibshelf/internal/bibtex"
	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

// Display shows entries and user-facing notices during confirmation.
type Display interface {
	ShowEntry(e *reference.Entry)
	Message(msg string)
	Error(msg string)
}

// Editor opens raw text in an external editor and returns the result.
type Editor interface {
	EditRaw(content string) (string, error)
}

// Engine applies a list of rules to every entry of a collection.
type Engine struct {
	Rules    []Rule
	Prompter prompt.Prompter
	Display  Display
	Editor   Editor

	// AssumeYes answers every confirmation with the rule's default option.
	AssumeYes bool

	// NumFixes counts applied fixes across runs.
	NumFixes int

	logger *slog.Logger
}

// NewEngine returns an engine running DefaultRules.
func NewEngine(p prompt.Prompter, d Display, ed Editor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Rules:    DefaultRules(),
		Prompter: p,
		Display:  d,
		Editor:   ed,
		logger:   logger,
	}
}

// Fatal reports whether err must abort the whole pass rather than just
// the entry being processed.
func Fatal(err error) bool {
	return errors.Is(err, ErrQuit) ||
		errors.Is(err, ErrKeyCollision) ||
		errors.Is(err, collection.ErrIndexCorruption) ||
		errors.Is(err, prompt.ErrNoInput)
}

// Run applies every rule to every entry. Ids are snapshotted per rule since
// a rule may re-key entries mid-pass. Errors on one entry are logged and
// the pass moves on, except those for which Fatal is true.
func (en *Engine) Run(c *collection.Collection) error {
	for _, rule := range en.Rules {
		en.logger.Info("applying fix rule", "rule", rule.Name())
		rule.ResetDecision()
		rule.Configure(c)

		ids := c.IDs()
		for i, id := range ids {
			entry := c.Lookup(id)
			if entry == nil {
				continue
			}
			rule.MakeFix(entry)
			if !rule.IsApplicable() {
				continue
			}
			var err error
			if rule.NeedsConfirmation() {
				err = en.confirm(c, entry, rule)
			} else {
				err = rule.Apply(entry)
			}
			if err != nil {
				if Fatal(err) {
					return err
				}
				en.logger.Error("fix failed", "rule", rule.Name(), "id", id, "error", err)
				continue
			}
			if rule.WasApplied() {
				en.NumFixes++
				en.logger.Info(fmt.Sprintf("Correcting %d/%d %s (# %d fixes) %s",
					i+1, len(ids), id, en.NumFixes, strings.TrimSpace(rule.Log())))
				c.SetModified()
			}
		}
	}
	return nil
}

// confirmState is the position in the confirmation dialogue for one entry.
type confirmState int

const (
	// confirming waits for the first response.
	confirming confirmState = iota
	// collecting has accepted partial responses; the rule wants more.
	collecting
	resolved
	aborted
)

type confirmEvent int

const (
	evEditManually confirmEvent = iota
	evQuit
	evRuleResponse
)

func classify(response string) confirmEvent {
	switch {
	case prompt.Matches(response, "edit-manually"):
		return evEditManually
	case prompt.Matches(response, "quit"):
		return evQuit
	}
	return evRuleResponse
}

func (en *Engine) options(rule Rule) []string {
	opts := []string{"quit"}
	if en.Editor != nil {
		opts = []string{"edit-manually", "quit"}
	}
	return append(opts, rule.ConfirmationOptions()...)
}

// confirm runs the confirmation dialogue for one entry.
func (en *Engine) confirm(c *collection.Collection, entry *reference.Entry, rule Rule) error {
	switch rule.Decision() {
	case ApplyAll:
		return rule.Apply(entry)
	case SkipAll:
		return nil
	}

	state := confirming
	for state == confirming || state == collecting {
		var response string
		if en.AssumeYes {
			response = prompt.Default(rule.ConfirmationOptions())
		} else {
			if en.Display != nil {
				en.Display.ShowEntry(entry)
			}
			var err error
			response, err = en.Prompter.AskUser(rule.ConfirmationMessage(entry), en.options(rule))
			if err != nil {
				return fmt.Errorf("confirm %s fix for %s: %w", rule.Name(), entry.ID, err)
			}
		}

		switch classify(response) {
		case evQuit:
			state = aborted
		case evEditManually:
			if en.Editor == nil {
				en.notifyError("No editor configured.")
				continue
			}
			done, err := en.editManually(c, entry)
			if err != nil {
				return err
			}
			if done {
				state = resolved
			}
		case evRuleResponse:
			if err := rule.ParseResponse(response, entry); err != nil {
				if errors.Is(err, ErrInvalidResponse) && !en.AssumeYes {
					en.notifyError(err.Error())
					continue
				}
				return err
			}
			if rule.IsFinished() {
				state = resolved
			} else {
				state = collecting
			}
		}
	}
	if state == aborted {
		if en.Display != nil {
			en.Display.Message("Bye!")
		}
		return ErrQuit
	}
	return nil
}

// editManually lets the user rewrite the raw record. It reports whether
// the dialogue for this entry is over. Unparseable text or a key taken by
// another entry leaves the collection untouched and asks again.
func (en *Engine) editManually(c *collection.Collection, entry *reference.Entry) (bool, error) {
	raw := bibtex.Format(entry)
	edited, err := en.Editor.EditRaw(raw)
	if err != nil {
		en.notifyError(fmt.Sprintf("Editor failed: %v", err))
		return false, nil
	}
	if strings.TrimSpace(edited) == strings.TrimSpace(raw) {
		en.notify("Entry left unchanged.")
		return true, nil
	}
	entries, err := bibtex.ParseEntries(edited)
	if err != nil || len(entries) != 1 {
		en.notifyError(fmt.Sprintf("Need exactly one valid entry after editing (error: %v).", err))
		return false, nil
	}
	updated := entries[0]
	if !strings.EqualFold(updated.ID, entry.ID) && c.Has(updated.ID) {
		en.notifyError(fmt.Sprintf("Entry %s already exists.", updated.ID))
		return false, nil
	}
	updated.Inserted = c.Now().Format(collection.InsertedFormat)
	if err := c.Replace(updated, entry.ID); err != nil {
		return false, fmt.Errorf("replace edited entry: %w", err)
	}
	c.SetModified()
	en.notify("Fixed entry manually:")
	if en.Display != nil {
		en.Display.ShowEntry(updated)
	}
	return true, nil
}

func (en *Engine) notify(msg string) {
	if en.Display != nil {
		en.Display.Message(msg)
	}
}

func (en *Engine) notifyError(msg string) {
	if en.Display != nil {
		en.Display.Error(msg)
	}
}
