package merge

import (
	"fmt"
	"log/slog"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

// Ask asks how to handle the plan's duplicates. A plan without
// duplicates needs no answer and yields ChoiceOmit.
func Ask(p prompt.Prompter, plan Plan) (Choice, error) {
	if len(plan.Duplicates) == 0 {
		return ChoiceOmit, nil
	}
	msg := fmt.Sprintf("%d duplicate id(s) already exist, what do?", len(plan.Duplicates))
	for {
		resp, err := p.AskUser(msg, Options)
		if err != nil {
			return "", err
		}
		if c, ok := ParseChoice(resp); ok {
			return c, nil
		}
	}
}

// ParseChoice maps a prompt response onto a Choice.
func ParseChoice(resp string) (Choice, bool) {
	for _, c := range []Choice{ChoiceReplace, ChoiceOmit, ChoiceAbort} {
		if prompt.Matches(resp, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Apply carries out the plan. New entries are added with an insertion
// stamp; replaced entries keep the position of the entry they replace.
// The plan is validated first so a failing merge leaves c untouched.
func Apply(c *collection.Collection, plan Plan, choice Choice, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var res Result
	if choice == ChoiceAbort && len(plan.Duplicates) > 0 {
		return res, ErrAborted
	}
	if err := Validate(c, plan, choice); err != nil {
		return res, err
	}
	for _, m := range plan.Skipped {
		logger.Warn("skipped entry matching an already merged one", "id", m.Incoming.ID, "existing", m.Existing.ID)
		res.Skipped = append(res.Skipped, m.Incoming.ID)
	}

	for _, e := range plan.Insert {
		if _, err := c.AddNewEntry(e); err != nil {
			return res, fmt.Errorf("inserting %s: %w", e.ID, err)
		}
		logger.Info("inserted entry", "id", e.ID)
		res.Inserted = append(res.Inserted, e.ID)
	}

	for _, m := range plan.Duplicates {
		if choice != ChoiceReplace {
			res.Omitted = append(res.Omitted, m.Incoming.ID)
			continue
		}
		if err := c.Replace(m.Incoming, m.Existing.ID); err != nil {
			return res, fmt.Errorf("replacing %s: %w", m.Existing.ID, err)
		}
		logger.Info("replaced entry", "id", m.Existing.ID, "with", m.Incoming.ID, "matched_by", m.MatchedBy)
		res.Replaced = append(res.Replaced, m.Incoming.ID)
	}
	return res, nil
}

// Validate checks that every insert key is free and that every replace
// target exists, is replaced once, and leaves no two entries sharing a key.
func Validate(c *collection.Collection, plan Plan, choice Choice) error {
	taken := make(map[string]string) // final key -> incoming id
	claim := func(id string) error {
		key := reference.Key(id)
		if other, ok := taken[key]; ok {
			return fmt.Errorf("%w: %s and %s share key %s", ErrConflictingPlan, other, id, key)
		}
		taken[key] = id
		return nil
	}

	targets := make(map[string]bool)
	if choice == ChoiceReplace {
		for _, m := range plan.Duplicates {
			key := reference.Key(m.Existing.ID)
			if !c.Has(key) {
				return fmt.Errorf("%w: replace target %s: %w", ErrConflictingPlan, m.Existing.ID, collection.ErrNotFound)
			}
			if targets[key] {
				return fmt.Errorf("%w: %s would be replaced twice", ErrConflictingPlan, m.Existing.ID)
			}
			targets[key] = true
		}
		for _, m := range plan.Duplicates {
			newKey := reference.Key(m.Incoming.ID)
			if newKey != reference.Key(m.Existing.ID) && c.Has(newKey) {
				return fmt.Errorf("%w: replacing %s with %s: %w", ErrConflictingPlan, m.Existing.ID, m.Incoming.ID, collection.ErrEntryExists)
			}
			if err := claim(m.Incoming.ID); err != nil {
				return err
			}
		}
	}
	for _, e := range plan.Insert {
		if c.Has(e.ID) {
			return fmt.Errorf("%w: inserting %s: %w", ErrConflictingPlan, e.ID, collection.ErrEntryExists)
		}
		if err := claim(e.ID); err != nil {
			return err
		}
	}
	return nil
}
