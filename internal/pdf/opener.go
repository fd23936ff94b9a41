// Package pdf resolves, opens and inspects the PDFs attached to entries.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/matsen/bibshelf/internal/reference"
)

// ErrNoFile is returned when an entry has no file field.
var ErrNoFile = errors.New("entry has no file")

// Opener handles resolving and opening PDF files.
type Opener struct {
	pdfDir    string
	pdfReader string

	// start launches the reader; tests replace it.
	start func(cmd *exec.Cmd) error
}

// NewOpener creates a new PDF opener with the given configuration.
func NewOpener(pdfDir, pdfReader string) *Opener {
	if pdfReader == "" {
		pdfReader = "system"
	}
	return &Opener{
		pdfDir:    pdfDir,
		pdfReader: pdfReader,
		start:     (*exec.Cmd).Start,
	}
}

// FilePath returns where a file field points: absolute paths are kept,
// relative ones are taken from the pdf directory.
func (o *Opener) FilePath(file string) string {
	if file == "" || filepath.IsAbs(file) || o.pdfDir == "" {
		return file
	}
	return filepath.Join(o.pdfDir, file)
}

// ResolvePath resolves a file field to an existing path.
func (o *Opener) ResolvePath(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("no PDF path specified")
	}

	fullPath := o.FilePath(file)

	// Check if file exists
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("PDF not found: %s", fullPath)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}

	return fullPath, nil
}

// Open opens a PDF file using the configured reader.
// The fullPath should be an absolute path to an existing PDF file.
func (o *Opener) Open(fullPath string) error {
	// Fail fast if file doesn't exist
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file does not exist: %s", fullPath)
		}
		return fmt.Errorf("checking PDF file: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = o.darwinCommand(fullPath)
	case "linux":
		cmd = o.linuxCommand(fullPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return o.start(cmd)
}

// OpenEntry opens the PDF attached to e.
func (o *Opener) OpenEntry(e *reference.Entry) (string, error) {
	if !e.HasFile() {
		return "", fmt.Errorf("%w: %s", ErrNoFile, e.ID)
	}
	path, err := o.ResolvePath(e.File)
	if err != nil {
		return "", err
	}
	return path, o.Open(path)
}

// darwinCommand returns the command to open a PDF on macOS.
func (o *Opener) darwinCommand(path string) *exec.Cmd {
	switch o.pdfReader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

// linuxCommand returns the command to open a PDF on Linux.
func (o *Opener) linuxCommand(path string) *exec.Cmd {
	switch o.pdfReader {
	case "zathura":
		return exec.Command("zathura", path)
	case "evince":
		return exec.Command("evince", path)
	case "okular":
		return exec.Command("okular", path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
