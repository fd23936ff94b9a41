// Package search runs fuzzy multi-field queries over the entry collection.
package search

import (
	"slices"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/stopwords"
)

// DefaultThreshold is the minimum score a match must reach.
const DefaultThreshold = 50

// DefaultFields are searched when no field list is configured.
// Author and keywords hold several values per entry.
var DefaultFields = []string{"id", "title", "author", "keywords"}

// Corpus is the set of entries a search runs over.
type Corpus interface {
	IDs() []string
	Lookup(id string) *reference.Entry
}

// Result is one matching entry and its best score.
type Result struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// Engine holds the search configuration.
type Engine struct {
	scorer    Scorer
	threshold int
	limit     int
	fields    []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the string similarity primitive.
func WithScorer(s Scorer) Option { return func(e *Engine) { e.scorer = s } }

// WithThreshold sets the minimum accepted score.
func WithThreshold(t int) Option { return func(e *Engine) { e.threshold = t } }

// WithLimit caps the number of results; zero means no cap.
func WithLimit(n int) Option { return func(e *Engine) { e.limit = n } }

// WithFields sets the searched fields.
func WithFields(fields ...string) Option { return func(e *Engine) { e.fields = fields } }

// New returns an engine with the go-edlib scorer and default threshold.
func New(opts ...Option) *Engine {
	e := &Engine{
		scorer:    NewEdlibScorer(),
		threshold: DefaultThreshold,
		fields:    DefaultFields,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLimit changes the result cap.
func (e *Engine) SetLimit(n int) { e.limit = n }

// Limit returns the result cap.
func (e *Engine) Limit() int { return e.limit }

// Preprocess lowercases a query and drops stop words.
func Preprocess(query string) string {
	return strings.Join(stopwords.Filter(strings.Fields(strings.ToLower(query))), " ")
}

// Search scores every entry on every field, keeps matches at or above the
// threshold, merges them per entry by maximum score and returns the best
// first. Ties keep the order in which entries were first matched.
func (e *Engine) Search(c Corpus, query string) []Result {
	q := Preprocess(query)
	if q == "" {
		return nil
	}
	var merged []Result
	pos := make(map[string]int)
	for _, field := range e.fields {
		for _, r := range e.searchField(c, field, q) {
			if i, ok := pos[r.ID]; ok {
				merged[i].Score = max(merged[i].Score, r.Score)
				continue
			}
			pos[r.ID] = len(merged)
			merged = append(merged, r)
		}
	}
	slices.SortStableFunc(merged, func(a, b Result) int { return b.Score - a.Score })
	if e.limit > 0 && len(merged) > e.limit {
		merged = merged[:e.limit]
	}
	return merged
}

func (e *Engine) searchField(c Corpus, field, q string) []Result {
	var out []Result
	for _, id := range c.IDs() {
		entry := c.Lookup(id)
		if entry == nil {
			continue
		}
		best, found := 0, false
		for _, v := range fieldValues(entry, field) {
			if v == "" {
				continue
			}
			found = true
			best = max(best, e.scorer.PartialRatio(q, strings.ToLower(v)))
		}
		if found && best >= e.threshold {
			out = append(out, Result{ID: id, Score: best})
		}
	}
	return out
}

func fieldValues(e *reference.Entry, field string) []string {
	switch field {
	case "author":
		return e.Author
	case "keywords":
		return e.Keywords
	default:
		return []string{e.Value(field)}
	}
}

// IDs extracts the ids of results in order.
func IDs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
