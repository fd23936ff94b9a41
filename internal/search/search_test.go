package search

import (
	"slices"
	"testing"

	"github.com/matsen/bibshelf/internal/reference"
)

type corpus []*reference.Entry

func (c corpus) IDs() []string {
	ids := make([]string, len(c))
	for i, e := range c {
		ids[i] = e.ID
	}
	return ids
}

func (c corpus) Lookup(id string) *reference.Entry {
	for _, e := range c {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// tableScorer returns a fixed score per candidate string.
type tableScorer map[string]int

func (s tableScorer) PartialRatio(_, candidate string) int { return s[candidate] }

func TestSearch_MergeByMax(t *testing.T) {
	c := corpus{{ID: "k1", Title: "Deep Learning", Author: []string{"Smith, John"}}}
	e := New(WithScorer(tableScorer{"deep learning": 40, "smith, john": 70}))
	got := e.Search(c, "query")
	want := []Result{{ID: "k1", Score: 70}}
	if !slices.Equal(got, want) {
		t.Errorf("Search() = %v, want %v", got, want)
	}
}

func TestSearch_MultiValueKeepsBest(t *testing.T) {
	c := corpus{{ID: "k1", Keywords: []string{"a", "b", "c"}}}
	e := New(WithScorer(tableScorer{"a": 55, "b": 90, "c": 10}), WithFields("keywords"))
	got := e.Search(c, "query")
	if len(got) != 1 || got[0].Score != 90 {
		t.Errorf("Search() = %v, want one result scoring 90", got)
	}
}

func TestSearch_ThresholdSortLimit(t *testing.T) {
	c := corpus{
		{ID: "low", Title: "t1"},
		{ID: "mid", Title: "t2"},
		{ID: "high", Title: "t3"},
		{ID: "tie", Title: "t4"},
	}
	s := tableScorer{"t1": 49, "t2": 60, "t3": 95, "t4": 60}
	e := New(WithScorer(s), WithFields("title"))
	if got := IDs(e.Search(c, "q")); !slices.Equal(got, []string{"high", "mid", "tie"}) {
		t.Errorf("Search() ids = %v", got)
	}
	e.SetLimit(2)
	if got := IDs(e.Search(c, "q")); !slices.Equal(got, []string{"high", "mid"}) {
		t.Errorf("Search() limited ids = %v", got)
	}
}

func TestSearch_StopWordQuery(t *testing.T) {
	c := corpus{{ID: "k1", Title: "the"}}
	if got := New().Search(c, "The Of"); got != nil {
		t.Errorf("Search(stop words only) = %v, want nil", got)
	}
}

func TestPreprocess(t *testing.T) {
	if got := Preprocess("The Art of   Sampling"); got != "art sampling" {
		t.Errorf("Preprocess() = %q, want %q", got, "art sampling")
	}
}

func TestEdlibScorer(t *testing.T) {
	s := NewEdlibScorer()
	tests := []struct {
		q, c string
		min  int
		max  int
	}{
		{"learning", "deep learning for graphs", 100, 100},
		{"lerning", "deep learning", 60, 99},
		{"quantum", "deep learning", 0, 49},
		{"", "deep learning", 0, 0},
	}
	for _, tt := range tests {
		got := s.PartialRatio(tt.q, tt.c)
		if got < tt.min || got > tt.max {
			t.Errorf("PartialRatio(%q, %q) = %d, want in [%d, %d]", tt.q, tt.c, got, tt.min, tt.max)
		}
	}
}

func TestSearch_EndToEnd(t *testing.T) {
	c := corpus{
		{ID: "smith2020deep", Title: "Deep Learning", Author: []string{"Smith, John"}},
		{ID: "doe2019graph", Title: "Graph Networks", Author: []string{"Doe, Jane"}},
	}
	got := IDs(New().Search(c, "graph"))
	if len(got) == 0 || got[0] != "doe2019graph" {
		t.Errorf("Search(graph) = %v, want doe2019graph first", got)
	}
}
