// Package keygen derives canonical citation keys from author, year and title.
package keygen

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/stopwords"
)

// ErrInsufficientFields is returned when an entry lacks the author or title
// needed to derive a key.
var ErrInsufficientFields = errors.New("cannot derive key")

var (
	nonAlpha    = regexp.MustCompile(`[^a-zA-Z]+`)
	nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Generate returns the canonical key: first author surname, year and the
// first significant title word, concatenated without separators.
func Generate(e *reference.Entry) (string, error) {
	author, err := AuthorComponent(e)
	if err != nil {
		return "", err
	}
	title, err := TitleComponent(e)
	if err != nil {
		return "", err
	}
	return author + e.Year + title, nil
}

// AuthorComponent returns the lowercased alphabetic surname of the first author.
func AuthorComponent(e *reference.Entry) (string, error) {
	if len(e.Author) == 0 {
		return "", ErrInsufficientFields
	}
	name := strings.ToLower(e.Author[0])
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	return nonAlpha.ReplaceAllString(name, ""), nil
}

// TitleComponent returns the first title word that is neither a stop word
// nor purely numeric, cut at the first '-' or '/'.
func TitleComponent(e *reference.Entry) (string, error) {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(e.Title)) {
		if stopwords.Is(w) || isDigits(w) {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "", ErrInsufficientFields
	}
	title := words[0]
	for _, sep := range []string{"-", "/"} {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	return nonAlphaNum.ReplaceAllString(title, ""), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
