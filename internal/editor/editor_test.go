package editor

import (
	"errors"
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

func TestEditRaw(t *testing.T) {
	ed := New("myeditor --wait", t.TempDir(), &prompt.Scripted{})
	var args []string
	ed.run = func(cmd *exec.Cmd) error {
		args = cmd.Args
		path := cmd.Args[len(cmd.Args)-1]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(data) != "@article{a,\n}\n" {
			t.Errorf("editor got %q", data)
		}
		return os.WriteFile(path, []byte("@article{b,\n}\n"), 0644)
	}

	got, err := ed.EditRaw("@article{a,\n}\n")
	if err != nil {
		t.Fatalf("EditRaw() error = %v", err)
	}
	if got != "@article{b,\n}\n" {
		t.Errorf("EditRaw() = %q", got)
	}
	if len(args) != 3 || args[0] != "myeditor" || args[1] != "--wait" {
		t.Errorf("editor args = %v", args)
	}
	if _, err := os.Stat(args[2]); !os.IsNotExist(err) {
		t.Error("temp file was not removed")
	}
}

func TestEditRaw_Failures(t *testing.T) {
	if _, err := New("", t.TempDir(), nil).EditRaw("x"); err == nil {
		t.Error("EditRaw() without an editor should fail")
	}

	ed := New("vi", t.TempDir(), nil)
	ed.run = func(*exec.Cmd) error { return errors.New("exit status 1") }
	if _, err := ed.EditRaw("x"); err == nil {
		t.Error("EditRaw() should report a failing editor")
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string
		responses []string
		want      []string
		wantErr   error
	}{
		{"adds new tags", []string{"dl"}, []string{"nlp, vision"}, []string{"dl", "nlp", "vision"}, nil},
		{"skips known tags", []string{"dl"}, []string{"dl nlp dl"}, []string{"dl", "nlp"}, nil},
		{"untagged entry", nil, []string{"bio"}, []string{"bio"}, nil},
		{"nothing entered", []string{"dl"}, []string{""}, nil, ErrNothingEntered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := New("vi", "", &prompt.Scripted{Responses: tt.responses})
			e := &reference.Entry{ID: "x", Keywords: tt.existing}
			got, err := ed.Tag(e)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Tag() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !slices.Equal(got.Keywords, tt.want) {
				t.Errorf("Keywords = %v, want %v", got.Keywords, tt.want)
			}
			if !slices.Equal(e.Keywords, tt.existing) {
				t.Error("Tag() modified the original entry")
			}
		})
	}
}

func TestTag_InputCache(t *testing.T) {
	p := &prompt.Scripted{Responses: []string{"dl", "Y", ""}}
	ed := New("vi", "", p)

	for _, id := range []string{"a", "b", "c"} {
		got, err := ed.Tag(&reference.Entry{ID: id})
		if err != nil {
			t.Fatalf("Tag(%s) error = %v", id, err)
		}
		if !slices.Equal(got.Keywords, []string{"dl"}) {
			t.Errorf("Tag(%s) = %v, want [dl]", id, got.Keywords)
		}
	}
	// first tag, then the cache question answered Yes-all; the third
	// entry reuses the cache without asking
	if len(p.Asked) != 2 {
		t.Errorf("asked %d questions, want 2", len(p.Asked))
	}

	ed.ClearCache()
	p.Responses = []string{"bio"}
	got, err := ed.Tag(&reference.Entry{ID: "d"})
	if err != nil || !slices.Equal(got.Keywords, []string{"bio"}) {
		t.Errorf("after ClearCache, Tag() = %v, %v", got, err)
	}
}

func TestFilePath(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		responses []string
		want      string
		wantErr   bool
	}{
		{"no existing file", "", []string{" paper.pdf "}, "paper.pdf", false},
		{"replace declined", "old.pdf", []string{"n"}, "", false},
		{"replace accepted", "old.pdf", []string{"y", "new.pdf"}, "new.pdf", false},
		{"empty path", "", []string{""}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := New("vi", "", &prompt.Scripted{Responses: tt.responses})
			got, err := ed.FilePath(&reference.Entry{ID: "x", File: tt.file})
			if (err != nil) != tt.wantErr {
				t.Fatalf("FilePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FilePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
