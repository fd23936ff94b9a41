package selection

import (
	"slices"
)

// Selection is the outcome of an index expression: the valid zero-based
// positions and the one-based indices that fell outside the list.
type Selection struct {
	Indices []int
	Invalid []int
}

// Selector caches the user's most recent selection over a reference list.
type Selector struct {
	ids       []string
	cached    []int
	sortIndex []int
}

// New returns a selector over ids with nothing selected.
func New(ids []string) *Selector {
	return &Selector{ids: slices.Clone(ids)}
}

// Reference returns the list the selection indexes into.
func (s *Selector) Reference() []string {
	return s.ids
}

// UpdateReference switches to a new reference list. Cached indices are
// remapped to the new position of their id; ids absent from the new list
// are dropped from the selection and returned.
func (s *Selector) UpdateReference(ids []string) (dropped []string) {
	if s.cached != nil {
		pos := make(map[string]int, len(ids))
		for i, id := range ids {
			pos[id] = i
		}
		remapped := make([]int, 0, len(s.cached))
		for _, i := range s.cached {
			id := s.ids[i]
			if j, ok := pos[id]; ok {
				remapped = append(remapped, j)
			} else {
				dropped = append(dropped, id)
			}
		}
		s.cached = remapped
	}
	s.ids = slices.Clone(ids)
	s.sortIndex = nil
	return dropped
}

// SetSortIndex records the display order of the reference list:
// perm[displayed position] is the position in the reference list.
// A nil perm means the list is shown in reference order.
func (s *Selector) SetSortIndex(perm []int) {
	s.sortIndex = slices.Clone(perm)
}

// Clear drops the cached selection.
func (s *Selector) Clear() {
	s.cached = nil
}

// Set replaces the cached selection with zero-based positions.
func (s *Selector) Set(indices []int) {
	s.cached = slices.Clone(indices)
}

// SelectByIndex parses expr as one-based displayed positions and caches the
// valid ones, corrected for the display sort. An unparseable expression
// leaves the selection untouched.
func (s *Selector) SelectByIndex(expr string) (Selection, error) {
	one, err := IndexList(expr, len(s.ids))
	if err != nil {
		return Selection{}, err
	}
	var sel Selection
	seen := make(map[int]bool)
	for _, n := range one {
		i := n - 1
		if i < 0 || i >= len(s.ids) {
			sel.Invalid = append(sel.Invalid, n)
			continue
		}
		if len(s.sortIndex) == len(s.ids) {
			i = s.sortIndex[i]
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		sel.Indices = append(sel.Indices, i)
	}
	s.cached = sel.Indices
	return sel, nil
}

// SelectByID selects the given ids, ignoring those not in the list.
func (s *Selector) SelectByID(ids ...string) []int {
	var idx []int
	for _, id := range ids {
		if i := slices.Index(s.ids, id); i >= 0 && !slices.Contains(idx, i) {
			idx = append(idx, i)
		}
	}
	if idx == nil {
		return nil
	}
	s.cached = idx
	return idx
}

// Selection returns the cached zero-based positions. With nothing cached
// it returns every position when defaultAll is set, nil otherwise.
func (s *Selector) Selection(defaultAll bool) []int {
	if len(s.cached) > 0 {
		return slices.Clone(s.cached)
	}
	if !defaultAll {
		return nil
	}
	all := make([]int, len(s.ids))
	for i := range all {
		all[i] = i
	}
	return all
}

// SelectedIDs returns the ids at the selected positions.
func (s *Selector) SelectedIDs(defaultAll bool) []string {
	sel := s.Selection(defaultAll)
	out := make([]string, 0, len(sel))
	for _, i := range sel {
		out = append(out, s.ids[i])
	}
	return out
}
