package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/config"
	"github.com/matsen/bibshelf/internal/storage"
	"github.com/matsen/bibshelf/internal/ui"
)

const testBib = `@article{smith2020deep,
  author = {Smith, John},
  title = {Deep Learning},
  year = {2020}
}

@article{lee2021cells,
  author = {Lee, Ann},
  title = {Cells},
  year = {2021},
  pages = {1--10},
  publisher = {Elsevier}
}

@book{kim2019graph,
  author = {Kim, Bo},
  title = {Graph Theory},
  year = {2019}
}
`

type testSession struct {
	*Session
	out    *bytes.Buffer
	copied string
	dir    string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func newTestSession(t *testing.T, bib, input string, opts Options, configure ...func(*config.Config)) *testSession {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	writeFile(t, path, bib)

	cfg := config.Default()
	cfg.BibPath = path
	cfg.TmpDir = filepath.Join(dir, "tmp")
	cfg.PDFDir = filepath.Join(dir, "pdfs")
	cfg.ScoreThreshold = 70
	for _, f := range configure {
		f(cfg)
	}

	out := &bytes.Buffer{}
	console := ui.NewConsole(strings.NewReader(input), out, ui.PlainTheme(), nil)
	s, err := Load(cfg, console, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ts := &testSession{Session: s, out: out, dir: dir}
	s.Copy = func(text string) error {
		ts.copied = text
		return nil
	}
	s.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return ts
}

func (ts *testSession) run(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		quit, err := ts.Execute(line)
		if err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
		if quit {
			t.Fatalf("Execute(%q) quit unexpectedly", line)
		}
	}
}

func TestLoad(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{})

	if ts.Collection.Len() != 3 {
		t.Errorf("Len = %d, want 3", ts.Collection.Len())
	}
	if ts.NumFixes != 0 {
		t.Errorf("NumFixes = %d, want 0", ts.NumFixes)
	}
	if ts.History.Len() != 1 {
		t.Errorf("History.Len = %d, want 1", ts.History.Len())
	}
	want := []string{"smith2020deep", "lee2021cells", "kim2019graph"}
	if !slices.Equal(ts.Reference(), want) {
		t.Errorf("Reference = %v, want %v", ts.Reference(), want)
	}
}

func TestLoad_DuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	writeFile(t, path, testBib+"\n@misc{Smith2020Deep,\n  title = {Again}\n}\n")

	cfg := config.Default()
	cfg.BibPath = path
	console := ui.NewConsole(strings.NewReader(""), &bytes.Buffer{}, ui.PlainTheme(), nil)
	_, err := Load(cfg, console, Options{SkipFixes: true})
	if !errors.Is(err, collection.ErrDuplicateKey) {
		t.Fatalf("Load error = %v, want ErrDuplicateKey", err)
	}
	if !Fatal(err) {
		t.Error("duplicate keys should be fatal")
	}
}

func TestLoad_AppliesFixes(t *testing.T) {
	bib := `@article{Doe2018,
  author = {Doe, Jane},
  title = {Body Language.},
  year = {2018}
}
`
	ts := newTestSession(t, bib, "", Options{AssumeYes: true})

	if ts.NumFixes != 2 {
		t.Errorf("NumFixes = %d, want 2", ts.NumFixes)
	}
	if ts.Collection.Modified() {
		t.Error("collection should be saved after fixes")
	}
	data, err := os.ReadFile(ts.cfg.BibPath)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "doe2018body") {
		t.Errorf("bib file missing renamed key:\n%s", got)
	}
	if strings.Contains(got, "Language.}") {
		t.Errorf("bib file still has trailing period:\n%s", got)
	}
	if _, err := os.Stat(ts.cfg.BackupPath()); err != nil {
		t.Errorf("backup not written: %v", err)
	}
}

func TestLoad_ManualEditIsWritten(t *testing.T) {
	bib := `@article{smith2020deep,
  author = {Smith, John},
  title = {Deep Learning.},
  year = {2020}
}
`
	tests := []struct {
		name        string
		input       string
		wantWritten bool
		wantTitle   string
	}{
		{"write accepted", "e\ny\n", true, "Deep Nets"},
		{"write declined", "e\nn\n", false, "Deep Learning."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := filepath.Join(t.TempDir(), "edit.sh")
			writeFile(t, script, "#!/bin/sh\nsed 's/Deep Learning\\./Deep Nets/' \"$1\" > \"$1.new\" && mv \"$1.new\" \"$1\"\n")
			ts := newTestSession(t, bib, tt.input, Options{}, func(cfg *config.Config) {
				cfg.Editor = "sh " + script
			})

			if ts.NumFixes != 0 {
				t.Errorf("NumFixes = %d, want 0 for a manual edit", ts.NumFixes)
			}
			if ts.Written != tt.wantWritten {
				t.Errorf("Written = %v, want %v", ts.Written, tt.wantWritten)
			}
			if ts.Collection.Modified() == tt.wantWritten {
				t.Errorf("Modified = %v after write=%v", ts.Collection.Modified(), tt.wantWritten)
			}
			if !strings.Contains(ts.out.String(), "Entries were edited. Write bib file?") {
				t.Errorf("no write prompt:\n%s", ts.out.String())
			}
			res, err := storage.ReadBib(ts.cfg.BibPath)
			if err != nil {
				t.Fatal(err)
			}
			if got := res.Entries[0].Title; got != tt.wantTitle {
				t.Errorf("title on disk = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestExecute_SearchSelectCite(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "/ deep")
	if ts.History.Len() != 2 {
		t.Fatalf("History.Len = %d, want 2", ts.History.Len())
	}
	if got := ts.Reference(); !slices.Equal(got, []string{"smith2020deep"}) {
		t.Fatalf("Reference = %v", got)
	}

	ts.run(t, "1", "c")
	if ts.copied != `\cite{smith2020deep}` {
		t.Errorf("copied = %q", ts.copied)
	}

	events, err := storage.ReadEvents(ts.cfg.HistoryLogPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Command != `search:"deep"` {
		t.Errorf("events = %+v", events)
	}
}

func TestExecute_SearchAttachedQuery(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "/graph")
	if got := ts.Reference(); !slices.Equal(got, []string{"kim2019graph"}) {
		t.Errorf("Reference = %v", got)
	}
}

func TestExecute_SearchAsksForQuery(t *testing.T) {
	ts := newTestSession(t, testBib, "cells\n", Options{SkipFixes: true})

	ts.run(t, "/")
	if got := ts.Reference(); !slices.Equal(got, []string{"lee2021cells"}) {
		t.Errorf("Reference = %v", got)
	}
}

func TestExecute_History(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})
	ts.run(t, "/ deep")

	tests := []struct {
		line  string
		index int
		ref   int
	}{
		{"hb", 0, 3},
		{"hb", 0, 3},
		{"hf", 1, 1},
		{"hj 1", 0, 3},
		{"hj 9", 0, 3},
		{"hf", 1, 1},
	}
	for _, tt := range tests {
		ts.run(t, tt.line)
		if ts.History.Index() != tt.index {
			t.Errorf("after %q: Index = %d, want %d", tt.line, ts.History.Index(), tt.index)
		}
		if len(ts.Reference()) != tt.ref {
			t.Errorf("after %q: reference has %d ids, want %d", tt.line, len(ts.Reference()), tt.ref)
		}
	}

	ts.run(t, "hr")
	if ts.History.Len() != 1 || len(ts.Reference()) != 3 {
		t.Errorf("after reset: Len = %d, reference = %v", ts.History.Len(), ts.Reference())
	}
}

func TestExecute_ListSubset(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "l")
	if ts.History.Len() != 1 {
		t.Errorf("plain list pushed history")
	}
	ts.run(t, "l 1:2")
	if ts.History.Len() != 2 {
		t.Fatalf("History.Len = %d, want 2", ts.History.Len())
	}
	want := []string{"smith2020deep", "lee2021cells"}
	if !slices.Equal(ts.Reference(), want) {
		t.Errorf("Reference = %v, want %v", ts.Reference(), want)
	}
	ts.run(t, "l 1:2")
	if ts.History.Len() != 2 {
		t.Errorf("listing the whole reference pushed history")
	}
}

func TestExecute_Delete(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "del 1")
	if ts.Collection.Has("smith2020deep") {
		t.Error("entry not removed")
	}
	if !ts.Collection.Modified() {
		t.Error("collection not marked modified")
	}
	want := []string{"lee2021cells", "kim2019graph"}
	if !slices.Equal(ts.Reference(), want) {
		t.Errorf("Reference = %v, want %v", ts.Reference(), want)
	}
	events, err := storage.ReadEvents(ts.cfg.HistoryLogPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Command != "deletion" || events[0].Size != 2 {
		t.Errorf("events = %+v", events)
	}

	ts.run(t, "del")
	if ts.Collection.Len() != 2 {
		t.Errorf("delete without selection removed entries")
	}
}

func TestExecute_DeleteHidesFromOlderStates(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "/ deep", "hb", "del 3", "hj 2")
	if got := ts.Reference(); !slices.Equal(got, []string{"smith2020deep"}) {
		t.Errorf("Reference = %v", got)
	}
	ts.run(t, "hj 1")
	if got := ts.Reference(); !slices.Equal(got, []string{"smith2020deep", "lee2021cells"}) {
		t.Errorf("Reference = %v", got)
	}
}

func TestExecute_Tag(t *testing.T) {
	ts := newTestSession(t, testBib, "dl nlp\n", Options{SkipFixes: true})

	ts.run(t, "ta 1")
	e := ts.Collection.Lookup("smith2020deep")
	if !slices.Equal(e.Keywords, []string{"dl", "nlp"}) {
		t.Errorf("Keywords = %v", e.Keywords)
	}
	if ids := ts.Collection.Keyword2ID["dl"]; !slices.Contains(ids, "smith2020deep") {
		t.Errorf("Keyword2ID[dl] = %v", ids)
	}
	if !ts.Collection.Modified() {
		t.Error("collection not marked modified")
	}
}

func TestExecute_Merge(t *testing.T) {
	ts := newTestSession(t, testBib, "replace\n", Options{SkipFixes: true})
	other := filepath.Join(ts.dir, "other.bib")
	writeFile(t, other, `@article{lee2021cells,
  author = {Lee, Ann},
  title = {Cells Revisited},
  year = {2021}
}

@article{park2024new,
  author = {Park, Min},
  title = {New Results},
  year = {2024}
}
`)

	ts.run(t, "m "+other)
	if ts.Collection.Len() != 4 {
		t.Errorf("Len = %d, want 4", ts.Collection.Len())
	}
	if got := ts.Collection.Lookup("lee2021cells").Title; got != "Cells Revisited" {
		t.Errorf("replaced title = %q", got)
	}
	if ts.History.Len() != 2 || len(ts.Reference()) != 4 {
		t.Errorf("History.Len = %d, reference = %v", ts.History.Len(), ts.Reference())
	}
}

func TestExecute_MergeShowsConflictsAndSelects(t *testing.T) {
	ts := newTestSession(t, testBib, "replace\n", Options{SkipFixes: true})
	other := filepath.Join(ts.dir, "other.bib")
	writeFile(t, other, `@article{park2024new,
  author = {Park, Min},
  title = {New Results},
  year = {2024}
}

@article{Lee2021Cells,
  author = {Lee, Ann},
  title = {Cells Revisited},
  year = {2021}
}
`)
	ts.run(t, "m "+other)

	out := ts.out.String()
	for _, want := range []string{
		"Lee2021Cells matches lee2021cells by id",
		`existing: "Cells"`,
		`incoming: "Cells Revisited"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got, want := ts.Selector.SelectedIDs(false), []string{"park2024new", "lee2021cells"}; !slices.Equal(got, want) {
		t.Errorf("selection after merge = %v, want %v", got, want)
	}
}

func TestExecute_MergeSameEntryTwice(t *testing.T) {
	bib := testBib + `
@article{park2020doi,
  author = {Park, Min},
  title = {Sequencing},
  year = {2020},
  doi = {10.1/seq}
}
`
	ts := newTestSession(t, bib, "replace\n", Options{SkipFixes: true})
	other := filepath.Join(ts.dir, "other.bib")
	writeFile(t, other, `@article{fresh2024one,
  title = {Fresh},
  year = {2024}
}

@article{park2020preprint,
  title = {Sequencing},
  year = {2020},
  doi = {10.1/seq}
}

@article{park2020journal,
  title = {Sequencing},
  year = {2020},
  doi = {doi:10.1/SEQ}
}
`)
	ts.run(t, "m "+other)

	want := []string{"smith2020deep", "lee2021cells", "kim2019graph", "park2020preprint", "fresh2024one"}
	if got := ts.Collection.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	if !strings.Contains(ts.out.String(), "Skipping 1 entries") {
		t.Errorf("skipped entry not reported:\n%s", ts.out.String())
	}
	if ts.History.Len() != 2 {
		t.Errorf("History.Len = %d, want 2", ts.History.Len())
	}
}

func TestExecute_SortThenSelect(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"year", "kim2019graph"},
		{"title", "lee2021cells"},
		{"", "kim2019graph"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			ts := newTestSession(t, testBib, "", Options{SkipFixes: true})
			ts.run(t, strings.TrimSpace("so "+tt.field), "1")
			if got := ts.Selector.SelectedIDs(false); !slices.Equal(got, []string{tt.want}) {
				t.Errorf("first displayed = %v, want %s", got, tt.want)
			}
			ts.run(t, "l", "1")
			if got := ts.Selector.SelectedIDs(false); !slices.Equal(got, []string{"smith2020deep"}) {
				t.Errorf("after list, first = %v, want smith2020deep", got)
			}
		})
	}
}

func TestExecute_SortUnknownField(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})
	ts.run(t, "so pages")
	if !strings.Contains(ts.out.String(), `Cannot sort by "pages"`) {
		t.Errorf("output = %s", ts.out.String())
	}
}

func TestExecute_MergeAbort(t *testing.T) {
	ts := newTestSession(t, testBib, "\n", Options{SkipFixes: true})
	other := filepath.Join(ts.dir, "other.bib")
	writeFile(t, other, "@article{kim2019graph,\n  title = {Graph Theory}\n}\n")

	ts.run(t, "m "+other)
	if ts.Collection.Modified() || ts.History.Len() != 1 {
		t.Error("aborted merge changed the session")
	}
	if !strings.Contains(ts.out.String(), "Aborting.") {
		t.Errorf("output missing abort message:\n%s", ts.out.String())
	}
}

func TestExecute_Misc(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"undefined", "zzz", "Undefined command: zzz"},
		{"bindings table", "zzz", "history_back"},
		{"truncate", "tr 1", "Result lists truncated to 1."},
		{"truncate needs number", "tr", "Need number argument"},
		{"show without selection", "sh", "No selection to show."},
		{"check", "ch", "entries without pages"},
		{"cite without selection", "c", "Need a selection to cite."},
		{"history show", "hs", "*"},
		{"empty log", "hl", "History log is empty."},
		{"repeat first", "r", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestSession(t, testBib, "", Options{SkipFixes: true})
			ts.run(t, tt.line)
			if !strings.Contains(ts.out.String(), tt.want) {
				t.Errorf("output of %q missing %q:\n%s", tt.line, tt.want, ts.out.String())
			}
		})
	}
}

func TestExecute_Repeat(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})

	ts.run(t, "/ deep", "r graph")
	if got := ts.Reference(); !slices.Equal(got, []string{"kim2019graph"}) {
		t.Errorf("repeat with new argument: Reference = %v", got)
	}
	ts.run(t, "r")
	if ts.History.Len() != 3 {
		t.Errorf("repeating an identical search pushed history: Len = %d", ts.History.Len())
	}
	ts.run(t, "hb", "r")
	if ts.History.Index() != 0 {
		t.Errorf("repeated history_back: Index = %d, want 0", ts.History.Index())
	}
}

func TestExecute_Quit(t *testing.T) {
	ts := newTestSession(t, testBib, "", Options{SkipFixes: true})
	quit, err := ts.Execute("q")
	if err != nil || !quit {
		t.Errorf("Execute(q) = %v, %v", quit, err)
	}
}

func TestLoop_SavesOnQuit(t *testing.T) {
	ts := newTestSession(t, testBib, "del 1\nq\ny\n", Options{SkipFixes: true})

	if err := ts.Loop(""); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	res, err := storage.ReadBib(ts.cfg.BibPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 2 {
		t.Errorf("saved %d entries, want 2", len(res.Entries))
	}
}

func TestLoop_EndOfInputKeepsFile(t *testing.T) {
	ts := newTestSession(t, testBib, "del 1\n", Options{SkipFixes: true})

	if err := ts.Loop(""); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	res, err := storage.ReadBib(ts.cfg.BibPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 3 {
		t.Errorf("file has %d entries, want 3", len(res.Entries))
	}
	if !strings.Contains(ts.out.String(), "unsaved changes") {
		t.Errorf("missing unsaved warning:\n%s", ts.out.String())
	}
}

func TestLoop_InitialCommand(t *testing.T) {
	ts := newTestSession(t, testBib, "q\n", Options{SkipFixes: true})

	if err := ts.Loop("/ graph"); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	if ts.History.Len() != 2 {
		t.Errorf("History.Len = %d, want 2", ts.History.Len())
	}
}
