package collection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateKey is returned when a bibliography holds the same
	// citation key more than once.
	ErrDuplicateKey = errors.New("duplicate citation key")

	// ErrIndexCorruption is returned when the id list and the entry map
	// disagree about an id.
	ErrIndexCorruption = errors.New("collection index corruption")

	// ErrEntryExists is returned when an insert would overwrite an entry.
	ErrEntryExists = errors.New("entry already exists")

	// ErrNotFound is returned when an id is not in the collection.
	ErrNotFound = errors.New("entry not found")
)

// DuplicateKeyError lists every key that occurs more than once.
type DuplicateKeyError struct {
	Keys []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%d duplicates found in the collection - fix them: %s",
		len(e.Keys), strings.Join(e.Keys, ", "))
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
