// Package editor edits entries: raw BibTeX in an external editor, tags
// and file paths through prompts.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

// ErrNothingEntered is returned when a prompt was answered with nothing.
var ErrNothingEntered = errors.New("nothing entered")

// cacheOptions are offered before reusing the previous free-text answer.
var cacheOptions = []string{"*yes", "Yes-all", "no", "No-all"}

// Editor edits entries on behalf of the interactive session.
type Editor struct {
	command  string
	tmpDir   string
	prompter prompt.Prompter

	// run executes the editor process; tests replace it.
	run func(cmd *exec.Cmd) error

	cache      string
	applyCache *bool
}

// New creates an editor launching command (e.g. "vim" or "code -w") on
// temporary files under tmpDir.
func New(command, tmpDir string, p prompt.Prompter) *Editor {
	return &Editor{
		command:  command,
		tmpDir:   tmpDir,
		prompter: p,
		run:      (*exec.Cmd).Run,
	}
}

// EditRaw opens content in the external editor and returns the saved text.
func (ed *Editor) EditRaw(content string) (string, error) {
	parts := strings.Fields(ed.command)
	if len(parts) == 0 {
		return "", fmt.Errorf("no editor configured")
	}
	if ed.tmpDir != "" {
		if err := os.MkdirAll(ed.tmpDir, 0755); err != nil {
			return "", fmt.Errorf("creating temp dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(ed.tmpDir, "bib-entry-*.bib")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	args := append(append([]string{}, parts[1:]...), tmpPath)
	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := ed.run(cmd); err != nil {
		return "", fmt.Errorf("running editor %s: %w", parts[0], err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(data), nil
}

// Tag asks for tags to add to e and returns an updated copy. Existing
// keywords keep their order; new ones follow in the order typed.
func (ed *Editor) Tag(e *reference.Entry) (*reference.Entry, error) {
	input, err := ed.input(fmt.Sprintf("Insert tags to [%s], existing: %v", e.ID, e.Keywords))
	if err != nil {
		return nil, err
	}
	tags := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(tags) == 0 {
		return nil, ErrNothingEntered
	}

	updated := e.Clone()
	for _, t := range tags {
		if !updated.HasKeyword(t) {
			updated.Keywords = append(updated.Keywords, t)
		}
	}
	return updated, nil
}

// FilePath asks for a PDF path for e. When e already has one the user
// confirms the replacement first; declining returns "" and no error.
func (ed *Editor) FilePath(e *reference.Entry) (string, error) {
	if e.HasFile() {
		ok, err := ed.prompter.YesNo(fmt.Sprintf("Entry %s already has a file path %s. Replace?", e.ID, e.File), false)
		if err != nil || !ok {
			return "", err
		}
	}
	path, err := ed.input(fmt.Sprintf("File path for [%s]", e.ID))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", ErrNothingEntered
	}
	return strings.TrimSpace(path), nil
}

// ClearCache forgets the previous free-text answer.
func (ed *Editor) ClearCache() {
	ed.cache = ""
	ed.applyCache = nil
}

// input reads free text. When a previous answer is cached the user may
// reuse it, once or for every following prompt.
func (ed *Editor) input(msg string) (string, error) {
	if ed.cache != "" {
		if ed.applyCache != nil {
			if *ed.applyCache {
				return ed.cache, nil
			}
			return ed.raw(msg)
		}
		what, err := ed.prompter.AskUser(fmt.Sprintf("Insert existing input cache? %s", ed.cache), cacheOptions)
		if err != nil {
			return "", err
		}
		switch {
		case prompt.Matches(what, "Yes-all"):
			ed.applyCache = boolPtr(true)
			return ed.cache, nil
		case prompt.Matches(what, "No-all"):
			ed.applyCache = boolPtr(false)
			return ed.raw(msg)
		case prompt.Matches(what, "yes"):
			return ed.cache, nil
		}
	}
	return ed.raw(msg)
}

func (ed *Editor) raw(msg string) (string, error) {
	s, err := ed.prompter.AskUser(msg, nil)
	if err != nil {
		return "", err
	}
	ed.cache = strings.TrimSpace(s)
	return ed.cache, nil
}

func boolPtr(b bool) *bool { return &b }
