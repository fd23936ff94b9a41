// Package config handles the global bib configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

// Config represents configuration stored in ~/.config/bib/config.yml.
type Config struct {
	BibPath        string   `yaml:"bib_path"`
	PDFDir         string   `yaml:"pdf_dir,omitempty"`
	TmpDir         string   `yaml:"tmp_dir,omitempty"`
	PDFReader      string   `yaml:"pdf_reader,omitempty"` // system, skim, zathura, etc.
	Editor         string   `yaml:"editor,omitempty"`     // Falls back to $EDITOR, then vi
	MaxSearch      int      `yaml:"max_search"`
	MaxList        int      `yaml:"max_list"`
	ScoreThreshold int      `yaml:"score_threshold"`
	Controls       Controls `yaml:"controls"`
}

const (
	BackupFile     = "library.backup.bib"
	DBFile         = "index.db"
	HistoryLogFile = "history.jsonl"

	DefaultMaxSearch      = 10
	DefaultMaxList        = 30
	DefaultScoreThreshold = 50
)

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "zathura", "evince", "okular"}

// Keys lists the settings reachable through Get and Set.
var Keys = []string{"bib_path", "pdf_dir", "tmp_dir", "pdf_reader", "editor", "max_search", "max_list", "score_threshold"}

// ErrUnknownKey is returned by Get and Set for names not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		MaxSearch:      DefaultMaxSearch,
		MaxList:        DefaultMaxList,
		ScoreThreshold: DefaultScoreThreshold,
		Controls:       DefaultControls(),
	}
}

// PDFDirectory returns pdf_dir, or the pdfs directory next to the bib file.
func (c *Config) PDFDirectory() string {
	if c.PDFDir != "" {
		return c.PDFDir
	}
	if c.BibPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.BibPath), "pdfs")
}

// TmpDirectory returns tmp_dir or a bib directory under the system temp dir.
func (c *Config) TmpDirectory() string {
	if c.TmpDir != "" {
		return c.TmpDir
	}
	return filepath.Join(os.TempDir(), "bib")
}

// BackupPath returns where the bib file is copied before each write.
func (c *Config) BackupPath() string {
	return filepath.Join(c.TmpDirectory(), BackupFile)
}

// DBPath returns the path to the SQLite index.
func (c *Config) DBPath() string {
	return filepath.Join(c.TmpDirectory(), DBFile)
}

// HistoryLogPath returns the path to the JSONL history log.
func (c *Config) HistoryLogPath() string {
	return filepath.Join(c.TmpDirectory(), HistoryLogFile)
}

// EditorCommand returns the editor to launch for manual edits.
func (c *Config) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "vi"
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := ValidatePDFReader(c.PDFReader); err != nil {
		return err
	}
	if c.MaxSearch <= 0 {
		return fmt.Errorf("max_search must be positive, got %d", c.MaxSearch)
	}
	if c.MaxList <= 0 {
		return fmt.Errorf("max_list must be positive, got %d", c.MaxList)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 100 {
		return fmt.Errorf("score_threshold must be in [0, 100], got %d", c.ScoreThreshold)
	}
	return c.Controls.Validate()
}

// ValidateBibPath checks that the bib path is configured and is a file.
func (c *Config) ValidateBibPath() error {
	if c.BibPath == "" {
		return ErrBibPathNotConfigured
	}
	info, err := os.Stat(c.BibPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBibPathNotExist, c.BibPath)
	}
	if info.IsDir() {
		return fmt.Errorf("bib_path is a directory: %s", c.BibPath)
	}
	return nil
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}
	if slices.Contains(ValidReaders, reader) {
		return nil
	}
	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}

// Get returns a setting as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "bib_path":
		return c.BibPath, nil
	case "pdf_dir":
		return c.PDFDirectory(), nil
	case "tmp_dir":
		return c.TmpDirectory(), nil
	case "pdf_reader":
		return c.PDFReader, nil
	case "editor":
		return c.Editor, nil
	case "max_search":
		return strconv.Itoa(c.MaxSearch), nil
	case "max_list":
		return strconv.Itoa(c.MaxList), nil
	case "score_threshold":
		return strconv.Itoa(c.ScoreThreshold), nil
	}
	return "", fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys)
}

// Set updates a setting from text. The configuration is left unchanged
// when the new value does not validate.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "bib_path":
		next.BibPath = ExpandPath(value)
	case "pdf_dir":
		next.PDFDir = ExpandPath(value)
	case "tmp_dir":
		next.TmpDir = ExpandPath(value)
	case "pdf_reader":
		next.PDFReader = value
	case "editor":
		next.Editor = value
	case "max_search", "max_list", "score_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", key, value)
		}
		switch key {
		case "max_search":
			next.MaxSearch = n
		case "max_list":
			next.MaxList = n
		default:
			next.ScoreThreshold = n
		}
	default:
		return fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
