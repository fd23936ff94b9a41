package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/bibshelf/internal/collection"
)

// ReadTags reads the tags sidecar. A missing file yields empty tags.
func ReadTags(path string) (collection.Tags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return collection.EmptyTags(), nil
		}
		return collection.Tags{}, fmt.Errorf("reading tags file: %w", err)
	}
	var tags collection.Tags
	if err := json.Unmarshal(data, &tags); err != nil {
		return collection.Tags{}, fmt.Errorf("parsing tags file %s: %w", path, err)
	}
	if tags.Keep == nil {
		tags.Keep = []string{}
	}
	if tags.Map == nil {
		tags.Map = map[string][]string{}
	}
	return tags, nil
}

// WriteTags writes the tags sidecar with four-space indentation.
func WriteTags(path string, tags collection.Tags) error {
	data, err := json.MarshalIndent(tags, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing tags file: %w", err)
	}
	return nil
}
