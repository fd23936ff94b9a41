package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// Attachment describes the result of attaching a file to an entry.
type Attachment struct {
	Entry *reference.Entry // Updated copy of the entry
	DOI   string           // DOI found in the file, if one was looked for
}

// Attach returns a copy of e pointing at path. A directory path means the
// entry's canonic file name inside it. Paths inside the pdf directory are
// stored relative to it. When e has no DOI, the file is scanned for one;
// a scan failure is not an error.
func (o *Opener) Attach(e *reference.Entry, path string) (Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Attachment{}, fmt.Errorf("no PDF path specified")
	}
	full := o.FilePath(path)
	info, err := os.Stat(full)
	if err != nil {
		return Attachment{}, fmt.Errorf("PDF not found: %s", full)
	}
	if info.IsDir() {
		full = filepath.Join(full, e.CanonicFilename())
		if info, err = os.Stat(full); err != nil || info.IsDir() {
			return Attachment{}, fmt.Errorf("PDF not found: %s", full)
		}
	}

	updated := e.Clone()
	updated.File = o.relative(full)

	var att Attachment
	if e.DOI == "" {
		if doi, err := ExtractDOI(full); err == nil && doi != "" {
			updated.DOI = doi
			att.DOI = doi
		}
	}
	att.Entry = updated
	return att, nil
}

func (o *Opener) relative(full string) string {
	if o.pdfDir == "" {
		return full
	}
	rel, err := filepath.Rel(o.pdfDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return full
	}
	return rel
}
