package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return NewConsole(strings.NewReader(input), &out, PlainTheme(), nil), &out
}

func TestAskUser(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		options []string
		want    string
	}{
		{"default on empty", "\n", []string{"yes", "*no"}, "no"},
		{"prefix", "ye\n", []string{"yes", "*no"}, "yes"},
		{"free text", "dl nlp\n", nil, "dl nlp"},
		{"last line without newline", "keep", []string{"*keep", "discard"}, "keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestConsole(tt.input)
			got, err := c.AskUser("Proceed?", tt.options)
			if err != nil {
				t.Fatalf("AskUser() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AskUser() = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Proceed?") {
				t.Errorf("prompt output = %q", out.String())
			}
		})
	}
}

func TestAskUser_EOF(t *testing.T) {
	c, _ := newTestConsole("")
	if _, err := c.AskUser("Proceed?", nil); !errors.Is(err, prompt.ErrNoInput) {
		t.Errorf("AskUser() at EOF error = %v, want ErrNoInput", err)
	}
}

func TestYesNo(t *testing.T) {
	c, out := newTestConsole("maybe\ny\n\n")
	ok, err := c.YesNo("Write?", false)
	if err != nil || !ok {
		t.Errorf("YesNo() = %v, %v, want true", ok, err)
	}
	if !strings.Contains(out.String(), "Answer yes or no") {
		t.Error("invalid answer was not reported")
	}
	ok, err = c.YesNo("Write?", false)
	if err != nil || ok {
		t.Errorf("YesNo() with default no = %v, %v", ok, err)
	}
}

func TestRenderOptions(t *testing.T) {
	c, _ := newTestConsole("")
	got := c.renderOptions([]string{"*keep", "discard", "#<indexes>"})
	if got != "[keep discard <indexes>]" {
		t.Errorf("renderOptions() = %q", got)
	}
}

func TestEntryLine(t *testing.T) {
	e := &reference.Entry{
		ID:       "smith2020deep",
		Title:    "Deep Learning",
		Author:   []string{"Smith, John", "Doe, Jane", "Roe, Max"},
		Year:     "2020",
		Keywords: []string{"dl"},
	}
	got := EntryLine(PlainTheme(), 3, 12, e, 15, 0)
	want := " 3/12 smith2020deep    Deep Learning  Smith, Doe, et al.  2020  dl"
	if got != want {
		t.Errorf("EntryLine() =\n%q\nwant\n%q", got, want)
	}
}

func TestPrintEntries_Truncates(t *testing.T) {
	c, out := newTestConsole("")
	entries := []*reference.Entry{
		{ID: "a", Title: "One"},
		{ID: "b", Title: "Two"},
		{ID: "c", Title: "Three"},
	}
	c.PrintEntries(entries, 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("printed %d lines, want 3:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "1/3 a") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[2], "1 more") {
		t.Errorf("truncation notice = %q", lines[2])
	}
}

func TestPrintEnum(t *testing.T) {
	c, out := newTestConsole("")
	c.PrintEnum([]string{"a", "b"})
	if got := out.String(); got != "1. a\n2. b\n" {
		t.Errorf("PrintEnum() = %q", got)
	}
}

func TestPrintEntriesWidth(t *testing.T) {
	c, out := newTestConsole("")
	c.PrintEntriesWidth([]*reference.Entry{{ID: "a", Title: "One", Year: "2020"}}, 0, 4, 5)
	if got, want := out.String(), "1/1 a     One    2020\n"; got != want {
		t.Errorf("PrintEntriesWidth() = %q, want %q", got, want)
	}
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	theme := PlainTheme()
	theme.Current = lipgloss.NewStyle().PaddingLeft(2)
	c := NewConsole(strings.NewReader(""), &out, theme, nil)

	c.PrintHistory([]string{"first", "second", "third"}, 1)
	want := "first\n  second\nthird\n"
	if out.String() != want {
		t.Errorf("PrintHistory() = %q, want %q", out.String(), want)
	}
}
