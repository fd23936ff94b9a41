// Package storage handles persistence: the BibTeX library file with its
// backup, the tags sidecar, the JSONL history log and the SQLite index.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibshelf/internal/bibtex"
	"github.com/matsen/bibshelf/internal/reference"
)

// ErrNoBibPath is returned when no bibliography file is configured.
var ErrNoBibPath = errors.New("no bib_path configured")

// ReadResult is a parsed library file.
type ReadResult struct {
	Entries []*reference.Entry
	// StrippedComments is set when '%' comment lines were dropped.
	StrippedComments bool
}

// ReadBib reads and parses a BibTeX file, dropping '%' comment lines first.
func ReadBib(path string) (*ReadResult, error) {
	if path == "" {
		return nil, ErrNoBibPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	content, stripped := bibtex.StripComments(string(data))
	entries, err := bibtex.ParseEntries(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &ReadResult{Entries: entries, StrippedComments: stripped}, nil
}

// WriteBib writes entries to path. An existing file is first copied to
// backupPath and restored from there if the write fails.
func WriteBib(path, backupPath string, entries []*reference.Entry) error {
	if path == "" {
		return ErrNoBibPath
	}
	hasBackup := false
	if backupPath != "" {
		if err := copyFile(path, backupPath); err == nil {
			hasBackup = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backing up %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(bibtex.FormatAll(entries)), 0644); err != nil {
		if hasBackup {
			if rerr := copyFile(backupPath, path); rerr != nil {
				return fmt.Errorf("writing bib file: %w (restoring backup also failed: %v)", err, rerr)
			}
			return fmt.Errorf("writing bib file (backup restored): %w", err)
		}
		return fmt.Errorf("writing bib file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// TagsPath returns the tags sidecar path for a bibliography file.
func TagsPath(bibPath string) string {
	return strings.TrimSuffix(bibPath, filepath.Ext(bibPath)) + ".tags.json"
}
