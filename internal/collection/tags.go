package collection

import (
	"maps"
	"slices"
)

// Tags is the keyword vocabulary persisted next to the bibliography file.
type Tags struct {
	Keep []string            `json:"keep"`
	Map  map[string][]string `json:"map"`
}

// EmptyTags returns tag information with no approved or mapped keywords.
func EmptyTags() Tags {
	return Tags{Keep: []string{}, Map: map[string][]string{}}
}

// Equal reports whether two tag sets hold the same keywords and mappings,
// ignoring the order of the keep list.
func (t Tags) Equal(o Tags) bool {
	a := slices.Sorted(slices.Values(t.Keep))
	b := slices.Sorted(slices.Values(o.Keep))
	if !slices.Equal(a, b) {
		return false
	}
	return maps.EqualFunc(t.Map, o.Map, slices.Equal)
}
