package runner

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/merge"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/search"
	"github.com/matsen/bibshelf/internal/selection"
	"github.com/matsen/bibshelf/internal/storage"
)

const (
	// historyLogLines is how many log events history_log shows.
	historyLogLines = 20
	// conflictWidth truncates field values shown for merge duplicates.
	conflictWidth = 60
)

// splitCommand separates the first word of a line from the rest.
func splitCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ = strings.Cut(line, " ")
	return cmd, strings.TrimSpace(arg)
}

// Execute runs one command line. It returns quit=true when the session
// should end. Errors are those the session cannot recover from; problems
// with a single command are reported on the console.
func (s *Session) Execute(line string) (quit bool, err error) {
	ctl := s.cfg.Controls
	cmd, arg := splitCommand(line)

	if cmd == ctl.Repeat && cmd != "" {
		if s.previous == "" {
			s.console.Debug("this is the first command")
			return false, nil
		}
		prevCmd, prevArg := splitCommand(s.previous)
		cmd, arg = prevCmd, prevArg
		if a := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ctl.Repeat)); a != "" {
			arg = a
		}
		line = strings.TrimSpace(cmd + " " + arg)
	}
	if cmd == ctl.Quit {
		return true, nil
	}
	defer func() {
		if err == nil {
			s.previous = line
		}
	}()

	switch {
	case cmd == ctl.HistoryBack:
		s.stepHistory(arg, -1)
	case cmd == ctl.HistoryForward:
		s.stepHistory(arg, 1)
	case cmd == ctl.HistoryJump:
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			s.console.Error("Need history index to jump to.")
			return false, nil
		}
		if err := s.History.Jump(n - 1); err != nil {
			s.console.Error(err.Error())
			return false, nil
		}
		s.list("")
	case cmd == ctl.HistoryReset:
		s.console.Message("Resetting history.")
		s.History.Reset(s.Collection.IDs())
		s.Selector.Clear()
	case cmd == ctl.HistoryShow:
		s.console.PrintHistory(s.History.Show(), s.History.Index())
	case cmd == ctl.HistoryLog:
		s.showLog()
	case cmd == ctl.Delete:
		return false, s.delete(arg)
	case prompt.Matches(cmd, ctl.Cite):
		s.cite(arg)
	case ctl.PDFFile != "" && strings.HasPrefix(cmd, ctl.PDFFile):
		return false, s.attachFile(arg)
	case ctl.Search != "" && strings.HasPrefix(cmd, ctl.Search):
		query := strings.TrimSpace(cmd[len(ctl.Search):] + " " + arg)
		return false, s.search(query)
	case prompt.Matches(cmd, ctl.List):
		s.list(arg)
	case cmd == ctl.Sort:
		s.sortList(arg)
	case prompt.Matches(cmd, ctl.Tag):
		return false, s.tag(arg)
	case prompt.Matches(cmd, ctl.PDFOpen):
		s.openFiles(arg)
	case prompt.Matches(cmd, ctl.Save):
		return false, s.Save()
	case cmd == ctl.Clear:
		s.console.Clear()
	case cmd == ctl.Unselect:
		s.Selector.Clear()
	case cmd == ctl.Show:
		ids := s.Selector.SelectedIDs(false)
		if len(ids) == 0 {
			s.console.Error("No selection to show.")
			return false, nil
		}
		s.console.ShowEntries(s.entries(ids))
	case cmd == ctl.Truncate:
		n, convErr := strconv.Atoi(arg)
		if convErr != nil || n <= 0 {
			s.console.Error("Need number argument to apply result list truncation.")
			return false, nil
		}
		s.maxList = n
		s.Search.SetLimit(n)
		s.console.Message(fmt.Sprintf("Result lists truncated to %d.", n))
	case selection.IsIndexList(line):
		s.selectIndices(line)
	case cmd == ctl.Check:
		s.check()
	case cmd == ctl.Merge:
		return false, s.merge(arg)
	default:
		s.console.Error(fmt.Sprintf("Undefined command: %s", cmd))
		s.console.Message("Available:")
		var rows [][2]string
		for _, b := range ctl.Bindings() {
			rows = append(rows, [2]string{b.Action, b.Key})
		}
		s.console.PrintTable(rows)
	}
	return false, nil
}

// selected resolves an optional index expression to ids of the current
// reference list. With no expression the cached selection is used.
func (s *Session) selected(arg string) ([]string, bool) {
	if arg != "" {
		sel, err := s.Selector.SelectByIndex(arg)
		if err != nil {
			s.console.Error(fmt.Sprintf("Invalid selection: %s", arg))
			return nil, false
		}
		if len(sel.Invalid) > 0 {
			s.console.Error(fmt.Sprintf("Invalid index(es): %v", sel.Invalid))
		}
	}
	ids := s.Selector.SelectedIDs(false)
	return ids, len(ids) > 0
}

func (s *Session) entries(ids []string) []*reference.Entry {
	out := make([]*reference.Entry, 0, len(ids))
	for _, id := range ids {
		if e := s.Collection.Lookup(id); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) stepHistory(arg string, def int) {
	n := def
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil {
			s.console.Error(fmt.Sprintf("Invalid step: %s", arg))
			return
		}
		n = v
	}
	if err := s.History.Step(n); err != nil {
		s.console.Error(err.Error())
		return
	}
	s.list("")
}

func (s *Session) list(arg string) {
	show := s.Reference()
	if arg != "" {
		ids, ok := s.selected(arg)
		if !ok {
			return
		}
		if !slices.Equal(ids, show) {
			s.push(ids, fmt.Sprintf("%s %d", s.cfg.Controls.List, len(ids)), false)
			s.Selector.Clear()
		}
		show = ids
	}
	s.Selector.SetSortIndex(nil)
	s.printIDs(show, s.maxList)
}

// sortKeys are the orderings sort_list offers.
var sortKeys = map[string]func(e *reference.Entry) string{
	"id":    func(e *reference.Entry) string { return reference.Key(e.ID) },
	"title": func(e *reference.Entry) string { return strings.ToLower(e.Title) },
	"year":  func(e *reference.Entry) string { return e.Year },
}

// sortList shows the current reference list ordered by field. Index
// expressions typed afterwards refer to the displayed positions.
func (s *Session) sortList(field string) {
	if field == "" {
		field = "id"
	}
	key, ok := sortKeys[field]
	if !ok {
		s.console.Error(fmt.Sprintf("Cannot sort by %q, use one of: id, title, year.", field))
		return
	}
	ref := s.Reference()
	perm := make([]int, len(ref))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return cmp.Compare(key(s.Collection.Lookup(ref[a])), key(s.Collection.Lookup(ref[b])))
	})
	sorted := make([]string, len(perm))
	for i, p := range perm {
		sorted[i] = ref[p]
	}
	s.Selector.SetSortIndex(perm)
	s.printIDs(sorted, s.maxList)
}

// printIDs prints the entries of ids with columns sized to them.
func (s *Session) printIDs(ids []string, atMost int) {
	_, idWidth, titleWidth := s.Collection.MaxLens(ids)
	s.console.PrintEntriesWidth(s.entries(ids), atMost, idWidth, titleWidth)
}

func (s *Session) selectIndices(expr string) {
	sel, err := s.Selector.SelectByIndex(expr)
	if err != nil {
		s.console.Log("invalid selection", "input", expr)
		return
	}
	if len(sel.Invalid) > 0 {
		s.console.Error(fmt.Sprintf("Invalid index: %v, enter 1 <= idx <= %d", sel.Invalid, len(s.Reference())))
	}
	ids := s.Selector.SelectedIDs(false)
	s.console.Log("displaying selection", "count", len(ids))
	s.console.ShowEntries(s.entries(ids))
}

func (s *Session) search(query string) error {
	if query == "" {
		q, err := s.console.AskUser("Search for", nil)
		if err != nil {
			return err
		}
		query = q
	}
	if search.Preprocess(query) == "" {
		s.console.Error("Nothing to search for.")
		return nil
	}
	results := s.Search.Search(s.Collection, query)
	ids := search.IDs(results)
	s.console.Log("search done", "query", query, "results", len(ids))
	s.Selector.SetSortIndex(nil)
	s.printIDs(ids, 0)
	if len(ids) == 0 {
		s.console.Message("No results.")
		return nil
	}
	s.push(ids, fmt.Sprintf("search:%q", strings.ToLower(strings.TrimSpace(query))), false)
	s.Selector.Clear()
	return nil
}

func (s *Session) delete(arg string) error {
	ids, ok := s.selected(arg)
	if !ok {
		s.console.Error("Need a selection to delete.")
		return nil
	}
	ref := s.Reference()
	for _, e := range s.entries(ids) {
		if err := s.Collection.Remove(e.ID); err != nil {
			return err
		}
		s.console.Log("deleted entry", "entry", e.Summary())
	}
	remaining := slices.DeleteFunc(slices.Clone(ref), func(id string) bool { return slices.Contains(ids, id) })
	s.console.Log(fmt.Sprintf("Deleted %d/%d entries, left with %d", len(ids), len(ref), len(remaining)))
	s.push(remaining, "deletion", true)
	s.Selector.Clear()
	return nil
}

func (s *Session) cite(arg string) {
	ids, ok := s.selected(arg)
	if !ok {
		s.console.Error("Need a selection to cite.")
		return
	}
	keys := make([]string, 0, len(ids))
	for _, e := range s.entries(ids) {
		keys = append(keys, e.ID)
	}
	citation := reference.CiteKeys(keys)
	if err := s.Copy(citation); err != nil {
		s.console.Error(fmt.Sprintf("Could not copy to clipboard: %v", err))
		s.console.Print(citation)
		return
	}
	s.console.Message(fmt.Sprintf("Copied to clipboard: %s", citation))
}

func (s *Session) tag(arg string) error {
	ids, ok := s.selected(arg)
	if !ok {
		s.console.Error("Need a selection to tag.")
		return nil
	}
	defer s.Editor.ClearCache()
	for _, e := range s.entries(ids) {
		updated, err := s.Editor.Tag(e)
		if err != nil {
			if errors.Is(err, prompt.ErrNoInput) {
				return err
			}
			s.console.Message(err.Error())
			continue
		}
		if err := s.Collection.Replace(updated, e.ID); err != nil {
			return err
		}
		if err := s.Collection.SetKeywords(updated.ID, updated.Keywords); err != nil {
			return err
		}
		s.console.Log("tagged entry", "id", e.ID, "keywords", updated.Keywords)
	}
	return nil
}

func (s *Session) attachFile(arg string) error {
	ids, _ := s.selected(arg)
	if len(ids) != 1 {
		s.console.Error("Need a single selection to set pdf to.")
		return nil
	}
	e := s.Collection.Lookup(ids[0])
	path, err := s.Editor.FilePath(e)
	if err != nil {
		if errors.Is(err, prompt.ErrNoInput) {
			return err
		}
		s.console.Message(err.Error())
		return nil
	}
	if path == "" {
		return nil
	}
	att, err := s.Opener.Attach(e, path)
	if err != nil {
		s.console.Error(err.Error())
		return nil
	}
	if err := s.Collection.Replace(att.Entry, e.ID); err != nil {
		return err
	}
	s.console.Log("entry updated with pdf path", "id", e.ID, "file", att.Entry.File)
	if att.DOI != "" {
		s.console.Message(fmt.Sprintf("Found DOI %s in the file.", att.DOI))
	}
	return nil
}

func (s *Session) openFiles(arg string) {
	ids, ok := s.selected(arg)
	if !ok {
		s.console.Error("Need a selection to open.")
		return
	}
	for _, e := range s.entries(ids) {
		path, err := s.Opener.OpenEntry(e)
		if err != nil {
			s.console.Error(err.Error())
			continue
		}
		s.console.Message(fmt.Sprintf("Opening: %s", path))
	}
}

func (s *Session) check() {
	perEntry, perField := s.Collection.CheckForMissingFields()
	if len(perEntry) == 0 {
		s.console.Message("No entries with missing fields.")
		return
	}
	for _, field := range []string{"pages", "publisher"} {
		ids := perField[field]
		s.console.Message(fmt.Sprintf("%d entries without %s:", len(ids), field))
		s.printIDs(ids, s.maxList)
	}
}

func (s *Session) showLog() {
	events, err := storage.RecentEvents(s.cfg.HistoryLogPath(), historyLogLines)
	if err != nil {
		s.console.Error(err.Error())
		return
	}
	if len(events) == 0 {
		s.console.Message("History log is empty.")
		return
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%s %s (%d)", ev.Time.Format("2006-01-02 15:04"), ev.Command, ev.Size)
	}
	s.console.PrintEnum(lines)
}

func (s *Session) merge(path string) error {
	if path == "" {
		s.console.Error("Need a bib file to merge.")
		return nil
	}
	res, err := storage.ReadBib(path)
	if err != nil {
		s.console.Error(err.Error())
		return nil
	}
	other, err := collection.New(res.Entries, collection.EmptyTags(), s.logger)
	if err != nil {
		s.console.Error(fmt.Sprintf("Cannot merge %s: %v", path, err))
		return nil
	}
	s.console.Message(fmt.Sprintf("Merging %d-sized collection:", other.Len()))
	s.console.PrintEntries(other.Ordered(), 20)

	plan := merge.Prepare(s.Collection, other.Ordered())
	if len(plan.Duplicates) > 0 {
		existing := make([]*reference.Entry, len(plan.Duplicates))
		for i, m := range plan.Duplicates {
			existing[i] = m.Existing
		}
		s.console.Message(fmt.Sprintf("%d duplicate ids (already exist in %s)", len(existing), s.cfg.BibPath))
		s.console.PrintEntries(existing, 20)
		for _, m := range plan.Duplicates {
			for _, l := range m.Describe(conflictWidth) {
				s.console.Print(l)
			}
		}
	}
	if len(plan.Skipped) > 0 {
		s.console.Warn(fmt.Sprintf("Skipping %d entries matching one already being merged:", len(plan.Skipped)))
		for _, m := range plan.Skipped {
			s.console.Print(m.Describe(conflictWidth)[0])
		}
	}
	choice, err := merge.Ask(s.console, plan)
	if err != nil {
		return err
	}
	result, err := merge.Apply(s.Collection, plan, choice, s.logger)
	if errors.Is(err, merge.ErrAborted) {
		s.console.Message("Aborting.")
		return nil
	}
	if err != nil {
		return err
	}
	if result.Empty() {
		s.console.Message("Nothing left to merge.")
		return nil
	}
	s.console.Message(fmt.Sprintf("Inserted %d, replaced %d entries.", len(result.Inserted), len(result.Replaced)))
	s.push(s.Collection.IDs(), "merge "+path, true)

	// select what was merged, in the order of the merged file
	other.OnlyKeep(slices.Concat(result.Inserted, result.Replaced))
	s.Selector.SelectByID(other.IDs()...)
	return nil
}
