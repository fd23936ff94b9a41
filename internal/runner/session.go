// Package runner drives an interactive session over one bibliography:
// loading and repairing it, then executing user commands against the
// history of reference lists.
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matsen/bibshelf/internal/clipboard"
	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/config"
	"github.com/matsen/bibshelf/internal/editor"
	"github.com/matsen/bibshelf/internal/fixrule"
	"github.com/matsen/bibshelf/internal/history"
	"github.com/matsen/bibshelf/internal/pdf"
	"github.com/matsen/bibshelf/internal/search"
	"github.com/matsen/bibshelf/internal/selection"
	"github.com/matsen/bibshelf/internal/storage"
	"github.com/matsen/bibshelf/internal/ui"
)

// Options tune how a session is loaded.
type Options struct {
	// AssumeYes applies every confirmable fix with its default answer and
	// writes the results without asking.
	AssumeYes bool
	// SkipFixes loads the library without running the fix rules.
	SkipFixes bool
}

// Session is one loaded bibliography plus the interactive state around it.
type Session struct {
	cfg     *config.Config
	opts    Options
	console *ui.Console
	logger  *slog.Logger

	Collection *collection.Collection
	History    *history.History
	Selector   *selection.Selector
	Search     *search.Engine
	Editor     *editor.Editor
	Opener     *pdf.Opener

	// Copy puts text on the clipboard; tests replace it.
	Copy func(text string) error
	// Now timestamps history log events; tests replace it.
	Now func() time.Time

	NumFixes int
	// Written reports whether the fix pass wrote the bib file.
	Written  bool
	maxList  int
	previous string
}

// Load reads the configured bibliography, runs the fix rules over it and
// prepares a session. Tag and library changes made by the fixes are only
// written after confirmation.
func Load(cfg *config.Config, console *ui.Console, opts Options) (*Session, error) {
	logger := console.Logger()
	s := &Session{
		cfg:     cfg,
		opts:    opts,
		console: console,
		logger:  logger,
		Editor:  editor.New(cfg.EditorCommand(), cfg.TmpDirectory(), console),
		Opener:  pdf.NewOpener(cfg.PDFDirectory(), cfg.PDFReader),
		Search: search.New(
			search.WithThreshold(cfg.ScoreThreshold),
			search.WithLimit(cfg.MaxSearch),
		),
		Copy:    clipboard.Copy,
		Now:     time.Now,
		maxList: cfg.MaxList,
	}

	res, err := storage.ReadBib(cfg.BibPath)
	if err != nil {
		return nil, err
	}
	if res.StrippedComments {
		s.console.Log("dropped comment lines", "path", cfg.BibPath)
	}
	tags, err := storage.ReadTags(storage.TagsPath(cfg.BibPath))
	if err != nil {
		return nil, err
	}
	coll, err := collection.New(res.Entries, tags, logger)
	if err != nil {
		return nil, err
	}
	s.Collection = coll
	s.console.Log("loaded library", "path", cfg.BibPath, "entries", coll.Len())

	if !opts.SkipFixes {
		if err := s.fix(tags); err != nil {
			return nil, err
		}
	}

	s.Selector = selection.New(coll.IDs())
	s.History = history.New(coll.IDs(), logger)
	s.History.OnChange = func([]string) {
		s.Selector.UpdateReference(s.History.CurrentValid(s.Collection.Has))
	}
	return s, nil
}

func (s *Session) fix(tags collection.Tags) error {
	engine := fixrule.NewEngine(s.console, s.console, s.Editor, s.logger)
	engine.AssumeYes = s.opts.AssumeYes
	if err := engine.Run(s.Collection); err != nil {
		return fmt.Errorf("fixing library: %w", err)
	}
	s.NumFixes = engine.NumFixes

	if newTags := s.Collection.TagInformation(); !newTags.Equal(tags) {
		ok, err := s.confirm("Tag information changed. Write tags file?")
		if err != nil {
			return err
		}
		if ok {
			path := storage.TagsPath(s.cfg.BibPath)
			if err := storage.WriteTags(path, newTags); err != nil {
				return err
			}
			s.console.Log("wrote tags", "path", path)
		}
	}

	if !s.Collection.Modified() {
		return nil
	}
	msg := "Entries were edited. Write bib file?"
	if s.NumFixes > 0 {
		msg = fmt.Sprintf("Applied %d fixes. Write bib file?", s.NumFixes)
	}
	ok, err := s.confirm(msg)
	if err != nil || !ok {
		return err
	}
	if err := s.Save(); err != nil {
		return err
	}
	s.Written = true
	return nil
}

func (s *Session) confirm(msg string) (bool, error) {
	if s.opts.AssumeYes {
		return true, nil
	}
	return s.console.YesNo(msg, false)
}

// Save writes the collection back to the bib file, keeping a backup.
func (s *Session) Save() error {
	if err := storage.WriteBib(s.cfg.BibPath, s.cfg.BackupPath(), s.Collection.Ordered()); err != nil {
		return err
	}
	s.Collection.ResetModified()
	s.console.Log("wrote library", "path", s.cfg.BibPath, "entries", s.Collection.Len())
	return nil
}

// SaveIfModified asks before writing a modified collection.
func (s *Session) SaveIfModified() error {
	if !s.Collection.Modified() {
		return nil
	}
	ok, err := s.confirm("The collection *has been modified*. Overwrite?")
	if err != nil || !ok {
		return err
	}
	return s.Save()
}

// Reference returns the current reference list, without deleted ids.
func (s *Session) Reference() []string {
	return s.Selector.Reference()
}

// push switches to a new reference list and records it in the history log.
func (s *Session) push(ids []string, command string, force bool) {
	if !s.History.Push(ids, command, force) {
		return
	}
	s.console.Message(fmt.Sprintf("Switching to new %d-long reference list.", len(ids)))
	ev := storage.Event{Time: s.Now(), Command: command, Size: len(ids), IDs: ids}
	if err := storage.AppendEvent(s.cfg.HistoryLogPath(), ev); err != nil {
		s.logger.Warn("could not write history log", "error", err)
	}
}

// Fatal reports whether err should end the session.
func Fatal(err error) bool {
	return fixrule.Fatal(err) || errors.Is(err, collection.ErrDuplicateKey)
}
