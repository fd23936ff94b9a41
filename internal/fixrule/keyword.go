package fixrule

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/selection"
)

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	nonKeyword  = regexp.MustCompile(`[^a-z-]+`)
	keywordActs = []string{"keep", "discard", "Keep-all", "Discard-all"}
)

// KeywordFix normalizes keywords against the collection's vocabulary and
// asks what to do with the ones the vocabulary does not know.
type KeywordFix struct {
	base
	discard map[string]bool
	mapping map[string][]string

	original  []string
	processed []string
	approved  []string
	undefined []string
	resolved  []string

	lastCommand string
	allAction   string
}

// NewKeywordFix returns the keyword vocabulary rule.
func NewKeywordFix() *KeywordFix {
	return &KeywordFix{base: base{name: "keyword"}}
}

// Configure binds the rule to c and its discard and mapping tables.
func (r *KeywordFix) Configure(c *collection.Collection) {
	r.c = c
	r.discard = c.KeywordsDiscard
	r.mapping = c.KeywordsMap
}

// ResetDecision forgets any standing all-entries decision.
func (r *KeywordFix) ResetDecision() {
	r.decision = Undecided
	r.allAction = ""
	r.lastCommand = ""
}

// FormatKeyword lowercases kw, joins words with dashes and drops anything
// outside [a-z-].
func FormatKeyword(kw string) string {
	kw = strings.ToLower(strings.TrimSpace(kw))
	kw = spaceRun.ReplaceAllString(kw, "-")
	return nonKeyword.ReplaceAllString(kw, "")
}

// Process formats keywords, drops empty and discarded ones and expands
// mapped ones into their replacements. Duplicates are removed.
func (r *KeywordFix) Process(keywords []string) []string {
	out := []string{}
	add := func(kw string) {
		if !slices.Contains(out, kw) {
			out = append(out, kw)
		}
	}
	for _, raw := range keywords {
		kw := FormatKeyword(raw)
		if kw == "" || r.discard[kw] {
			continue
		}
		if repl, ok := r.mapping[kw]; ok {
			for _, k := range repl {
				add(k)
			}
			continue
		}
		add(kw)
	}
	return out
}

func (r *KeywordFix) known(kw string) bool {
	if r.c == nil {
		return false
	}
	_, ok := r.c.Keyword2ID[kw]
	return ok
}

// MakeFix splits e's processed keywords into approved and undefined ones.
func (r *KeywordFix) MakeFix(e *reference.Entry) {
	r.begin()
	r.original, r.processed = nil, nil
	r.approved, r.undefined, r.resolved = nil, nil, nil
	if !e.HasKeywords() {
		return
	}
	r.original = slices.Clone(e.Keywords)
	r.processed = r.Process(e.Keywords)
	for _, kw := range r.processed {
		if r.known(kw) {
			r.approved = append(r.approved, kw)
		} else {
			r.undefined = append(r.undefined, kw)
		}
	}
}

// Undefined returns the keywords still awaiting a decision.
func (r *KeywordFix) Undefined() []string { return r.undefined }

func (r *KeywordFix) IsApplicable() bool {
	if r.original == nil {
		return false
	}
	return len(r.undefined) > 0 || !slices.Equal(r.processed, r.original)
}

func (r *KeywordFix) NeedsConfirmation() bool { return len(r.undefined) > 0 }

func (r *KeywordFix) IsFinished() bool { return len(r.undefined) == 0 }

// Apply sets the entry's keywords to the approved and kept ones, in their
// processed order, and registers them with the collection. Keywords still
// undefined follow the standing Keep-all or Discard-all decision.
func (r *KeywordFix) Apply(e *reference.Entry) error {
	if len(r.undefined) > 0 && r.decision == ApplyAll && r.allAction == "keep" {
		r.resolved = append(r.resolved, r.undefined...)
	}
	r.undefined = nil

	final := []string{}
	for _, kw := range r.processed {
		if slices.Contains(r.approved, kw) || slices.Contains(r.resolved, kw) {
			final = append(final, kw)
		}
	}
	if r.c != nil {
		if err := r.c.SetKeywords(e.ID, final); err != nil {
			return fmt.Errorf("set keywords: %w", err)
		}
	} else {
		e.Keywords = final
	}
	r.before = strings.Join(r.original, ", ")
	r.after = strings.Join(final, ", ")
	r.logMessage += fmt.Sprintf("Applied %s fix: [%s] -> [%s]", r.name, r.before, r.after)
	r.applied = true
	return nil
}

// ConfirmationMessage lists the undefined keywords of e.
func (r *KeywordFix) ConfirmationMessage(e *reference.Entry) string {
	var b strings.Builder
	for i, kw := range r.undefined {
		fmt.Fprintf(&b, "%d. %s\n", i+1, kw)
	}
	fmt.Fprintf(&b, "Fix entry problem: [%s : %d undefined keywords]?", e.ID, len(r.undefined))
	return b.String()
}

func (r *KeywordFix) ConfirmationOptions() []string {
	return []string{"*keep", "discard", "Keep-all", "Discard-all", "#<indexes>"}
}

// ParseResponse handles "<command> [indexes]" where the command is one of
// keep, discard, Keep-all or Discard-all and the indexes pick among the
// undefined keywords (all of them when omitted). A bare index expression
// repeats the previous command. Nothing changes on invalid input.
func (r *KeywordFix) ParseResponse(response string, e *reference.Entry) error {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}
	cmd, args := fields[0], fields[1:]
	if selection.IsIndexList(cmd) {
		if r.lastCommand == "" {
			return fmt.Errorf("%w: no previous command to apply to %q", ErrInvalidResponse, response)
		}
		cmd, args = r.lastCommand, fields
	} else {
		matched := ""
		for _, act := range keywordActs {
			if prompt.Matches(cmd, act) {
				matched = act
				break
			}
		}
		if matched == "" {
			return fmt.Errorf("%w: %q", ErrInvalidResponse, response)
		}
		cmd = matched
	}

	edited := slices.Clone(r.undefined)
	if len(args) > 0 {
		idx, err := selection.IndexList(strings.Join(args, " "), len(r.undefined))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		edited = nil
		for _, n := range idx {
			if n < 1 || n > len(r.undefined) {
				return fmt.Errorf("%w: index %d not in [1, %d]", ErrInvalidResponse, n, len(r.undefined))
			}
			if kw := r.undefined[n-1]; !slices.Contains(edited, kw) {
				edited = append(edited, kw)
			}
		}
	}

	switch cmd {
	case "keep":
		r.resolved = append(r.resolved, edited...)
		r.logMessage += fmt.Sprintf("Kept keyword(s) %v\n", edited)
	case "discard":
		r.logMessage += fmt.Sprintf("Discarded keyword(s) %v\n", edited)
	case "Keep-all":
		r.resolved = append(r.resolved, edited...)
		r.logMessage += fmt.Sprintf("Kept keyword(s) %v\n", edited)
		r.decision, r.allAction = ApplyAll, "keep"
	case "Discard-all":
		r.logMessage += fmt.Sprintf("Discarded keyword(s) %v\n", edited)
		r.decision, r.allAction = ApplyAll, "discard"
	}
	r.lastCommand = cmd
	r.undefined = slices.DeleteFunc(r.undefined, func(kw string) bool {
		return slices.Contains(edited, kw)
	})
	if len(r.undefined) == 0 {
		return r.Apply(e)
	}
	return nil
}
