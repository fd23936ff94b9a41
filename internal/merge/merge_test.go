package merge

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

func newCollection(t *testing.T) *collection.Collection {
	t.Helper()
	c, err := collection.New([]*reference.Entry{
		{ID: "smith2020deep", Type: "article", Title: "Deep Learning", Year: "2020", DOI: "10.1/deep"},
		{ID: "lee2021cells", Type: "book", Title: "Cells", Year: "2021"},
		{ID: "kim2019graphs", Type: "article", Title: "Graphs", Year: "2019"},
	}, collection.EmptyTags(), nil)
	if err != nil {
		t.Fatalf("collection.New() error = %v", err)
	}
	c.Now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	return c
}

func incoming() []*reference.Entry {
	return []*reference.Entry{
		{ID: "Lee2021Cells", Type: "book", Title: "Cells, Second Edition", Year: "2021"},
		{ID: "new2024paper", Type: "article", Title: "New Paper", Year: "2024"},
		{ID: "smith2020learning", Type: "article", Title: "Deep Learning", Year: "2020", DOI: "https://doi.org/10.1/DEEP"},
	}
}

func TestPrepare(t *testing.T) {
	plan := Prepare(newCollection(t), incoming())

	if len(plan.Insert) != 1 || plan.Insert[0].ID != "new2024paper" {
		t.Errorf("Insert = %v, want [new2024paper]", plan.Insert)
	}
	if len(plan.Duplicates) != 2 {
		t.Fatalf("expected 2 duplicates, got %d", len(plan.Duplicates))
	}

	byID := plan.Duplicates[0]
	if byID.MatchedBy != "id" || byID.Existing.ID != "lee2021cells" {
		t.Errorf("first duplicate = %s by %s, want lee2021cells by id", byID.Existing.ID, byID.MatchedBy)
	}
	if len(byID.Conflicts) != 1 || byID.Conflicts[0].FieldName != "title" {
		t.Errorf("first duplicate conflicts = %+v, want title only", byID.Conflicts)
	}

	byDOI := plan.Duplicates[1]
	if byDOI.MatchedBy != "doi" || byDOI.Existing.ID != "smith2020deep" {
		t.Errorf("second duplicate = %s by %s, want smith2020deep by doi", byDOI.Existing.ID, byDOI.MatchedBy)
	}
}

func TestCompare_Equal(t *testing.T) {
	e := &reference.Entry{ID: "a", Title: "T", Author: []string{"X"}}
	if got := Compare(e, e.Clone()); len(got) != 0 {
		t.Errorf("Compare() of equal entries = %+v, want none", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		choice       Choice
		wantErr      error
		wantIDs      []string
		wantReplaced int
	}{
		{
			name:    "omit",
			choice:  ChoiceOmit,
			wantIDs: []string{"smith2020deep", "lee2021cells", "kim2019graphs", "new2024paper"},
		},
		{
			name:         "replace keeps positions",
			choice:       ChoiceReplace,
			wantIDs:      []string{"smith2020learning", "lee2021cells", "kim2019graphs", "new2024paper"},
			wantReplaced: 2,
		},
		{
			name:    "abort",
			choice:  ChoiceAbort,
			wantErr: ErrAborted,
			wantIDs: []string{"smith2020deep", "lee2021cells", "kim2019graphs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t)
			res, err := Apply(c, Prepare(c, incoming()), tt.choice, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if got := c.IDs(); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("IDs() = %v, want %v", got, tt.wantIDs)
			}
			if len(res.Replaced) != tt.wantReplaced {
				t.Errorf("Replaced = %v, want %d entries", res.Replaced, tt.wantReplaced)
			}
		})
	}
}

func TestApply_StampsInserted(t *testing.T) {
	c := newCollection(t)
	if _, err := Apply(c, Prepare(c, incoming()), ChoiceOmit, nil); err != nil {
		t.Fatal(err)
	}
	if got := c.Lookup("new2024paper").Inserted; got != "03/09/24" {
		t.Errorf("Inserted = %q, want 03/09/24", got)
	}
	if !c.Modified() {
		t.Error("collection should be marked modified")
	}
}

func TestApply_ReplaceUpdatesTitle(t *testing.T) {
	c := newCollection(t)
	if _, err := Apply(c, Prepare(c, incoming()), ChoiceReplace, nil); err != nil {
		t.Fatal(err)
	}
	if got := c.Lookup("lee2021cells").Title; got != "Cells, Second Edition" {
		t.Errorf("Title = %q, want the incoming title", got)
	}
}

func TestAsk(t *testing.T) {
	plan := Prepare(newCollection(t), incoming())

	tests := []struct {
		name      string
		responses []string
		want      Choice
		wantErr   bool
	}{
		{"replace", []string{"r"}, ChoiceReplace, false},
		{"omit", []string{"omit"}, ChoiceOmit, false},
		{"default aborts", []string{""}, ChoiceAbort, false},
		{"invalid then valid", []string{"maybe", "o"}, ChoiceOmit, false},
		{"no input", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &prompt.Scripted{Responses: tt.responses}
			got, err := Ask(p, plan)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ask() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Ask() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAsk_NoDuplicates(t *testing.T) {
	p := &prompt.Scripted{}
	got, err := Ask(p, Plan{Insert: incoming()[:1]})
	if err != nil || got != ChoiceOmit {
		t.Errorf("Ask() = %q, %v, want omit without asking", got, err)
	}
	if len(p.Asked) != 0 {
		t.Errorf("Ask() prompted %d times, want 0", len(p.Asked))
	}
}

func TestApply_SameExistingMatchedTwice(t *testing.T) {
	in := []*reference.Entry{
		{ID: "fresh2024one", Type: "article", Title: "Fresh", Year: "2024"},
		{ID: "smith2020preprint", Type: "article", Title: "Deep Learning", Year: "2020", DOI: "10.1/deep"},
		{ID: "smith2020journal", Type: "article", Title: "Deep Learning", Year: "2020", DOI: "doi:10.1/DEEP"},
	}
	c := newCollection(t)
	plan := Prepare(c, in)
	if len(plan.Duplicates) != 1 || plan.Duplicates[0].Incoming.ID != "smith2020preprint" {
		t.Fatalf("Duplicates = %+v, want only smith2020preprint", plan.Duplicates)
	}
	if len(plan.Skipped) != 1 || plan.Skipped[0].Incoming.ID != "smith2020journal" {
		t.Fatalf("Skipped = %+v, want smith2020journal", plan.Skipped)
	}

	res, err := Apply(c, plan, ChoiceReplace, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []string{"smith2020preprint", "lee2021cells", "kim2019graphs", "fresh2024one"}
	if got := c.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if !slices.Equal(res.Skipped, []string{"smith2020journal"}) {
		t.Errorf("Skipped = %v, want [smith2020journal]", res.Skipped)
	}
}

func TestApply_InvalidPlanLeavesCollection(t *testing.T) {
	tests := []struct {
		name string
		plan func(c *collection.Collection) Plan
	}{
		{
			name: "same target twice",
			plan: func(c *collection.Collection) Plan {
				deep := c.Lookup("smith2020deep")
				return Plan{
					Insert: []*reference.Entry{{ID: "fresh2024one"}},
					Duplicates: []Match{
						{Existing: deep, Incoming: &reference.Entry{ID: "a2020"}},
						{Existing: deep, Incoming: &reference.Entry{ID: "b2020"}},
					},
				}
			},
		},
		{
			name: "missing target",
			plan: func(c *collection.Collection) Plan {
				return Plan{Duplicates: []Match{
					{Existing: &reference.Entry{ID: "gone1999"}, Incoming: &reference.Entry{ID: "a2020"}},
				}}
			},
		},
		{
			name: "replacement collides with another entry",
			plan: func(c *collection.Collection) Plan {
				return Plan{Duplicates: []Match{
					{Existing: c.Lookup("smith2020deep"), Incoming: &reference.Entry{ID: "Kim2019Graphs"}},
				}}
			},
		},
		{
			name: "insert and replacement share a key",
			plan: func(c *collection.Collection) Plan {
				return Plan{
					Insert: []*reference.Entry{{ID: "same2020"}},
					Duplicates: []Match{
						{Existing: c.Lookup("lee2021cells"), Incoming: &reference.Entry{ID: "Same2020"}},
					},
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t)
			before := c.IDs()
			_, err := Apply(c, tt.plan(c), ChoiceReplace, nil)
			if !errors.Is(err, ErrConflictingPlan) {
				t.Fatalf("Apply() error = %v, want ErrConflictingPlan", err)
			}
			if got := c.IDs(); !slices.Equal(got, before) {
				t.Errorf("IDs() = %v, want unchanged %v", got, before)
			}
			if c.Modified() {
				t.Error("collection should not be modified")
			}
		})
	}
}

func TestMatch_Describe(t *testing.T) {
	plan := Prepare(newCollection(t), incoming())
	got := plan.Duplicates[0].Describe(12)
	want := []string{
		"Lee2021Cells matches lee2021cells by id",
		"  title:",
		`    existing: "Cells"`,
		`    incoming: "Cells, Se..."`,
	}
	if !slices.Equal(got, want) {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}
