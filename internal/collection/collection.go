// Package collection holds the in-memory bibliography: entries indexed by
// citation key plus the title, author and keyword lookup tables.
package collection

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matsen/bibshelf/internal/reference"
)

// InsertedFormat is the layout of the timestamp stamped on new entries.
const InsertedFormat = "01/02/06"

// Collection is the indexed set of entries loaded from one bibliography.
//
// Entries, Title2ID and Author2ID are keyed by lowercase citation key
// (reference.Key). IDList preserves file order and TitleList runs parallel
// to it. Keyword2ID doubles as the approved keyword vocabulary: a keyword
// is known once it appears as a key, even with no entries.
type Collection struct {
	Entries    map[string]*reference.Entry
	IDList     []string
	TitleList  []string
	Title2ID   map[string]string
	Author2ID  map[string][]string
	Keyword2ID map[string][]string

	KeywordsDiscard map[string]bool
	KeywordsMap     map[string][]string

	// Now stamps newly created entries; tests may replace it.
	Now func() time.Time

	modified bool
	logger   *slog.Logger
}

// New indexes entries in order. A citation key occurring more than once
// (case-insensitively) aborts construction with a *DuplicateKeyError.
func New(entries []*reference.Entry, tags Tags, logger *slog.Logger) (*Collection, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dups := duplicateKeys(entries); len(dups) > 0 {
		return nil, &DuplicateKeyError{Keys: dups}
	}

	c := &Collection{
		Entries:         make(map[string]*reference.Entry, len(entries)),
		IDList:          make([]string, 0, len(entries)),
		TitleList:       make([]string, 0, len(entries)),
		Title2ID:        make(map[string]string, len(entries)),
		Author2ID:       make(map[string][]string),
		Keyword2ID:      make(map[string][]string),
		KeywordsDiscard: make(map[string]bool),
		KeywordsMap:     make(map[string][]string),
		Now:             time.Now,
		logger:          logger,
	}
	for _, kw := range tags.Keep {
		c.Keyword2ID[kw] = []string{}
	}
	for from, to := range tags.Map {
		c.KeywordsMap[from] = slices.Clone(to)
		for _, kw := range to {
			if _, ok := c.Keyword2ID[kw]; !ok {
				c.Keyword2ID[kw] = []string{}
			}
		}
	}
	for _, e := range entries {
		c.index(e)
	}
	return c, nil
}

func duplicateKeys(entries []*reference.Entry) []string {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[reference.Key(e.ID)]++
	}
	var dups []string
	for k, n := range counts {
		if n > 1 {
			dups = append(dups, k)
		}
	}
	slices.Sort(dups)
	return dups
}

// index adds e to every lookup table. The caller guarantees the key is free.
func (c *Collection) index(e *reference.Entry) {
	key := reference.Key(e.ID)
	title := strings.ToLower(e.Title)

	c.Entries[key] = e
	c.IDList = append(c.IDList, key)
	c.TitleList = append(c.TitleList, title)

	if other, ok := c.Title2ID[title]; ok && other != key && title != "" {
		c.logger.Warn("duplicate title", "title", e.Title, "id", e.ID, "existing", other)
	}
	c.Title2ID[title] = key
	for _, a := range e.Author {
		c.Author2ID[a] = append(c.Author2ID[a], key)
	}
	for _, kw := range e.Keywords {
		if ids, ok := c.Keyword2ID[kw]; ok && !slices.Contains(ids, key) {
			c.Keyword2ID[kw] = append(ids, key)
		}
	}
}

// unindex removes key from every lookup table and returns its list position.
func (c *Collection) unindex(key string) int {
	e := c.Entries[key]
	pos := slices.Index(c.IDList, key)

	delete(c.Entries, key)
	c.IDList = slices.Delete(c.IDList, pos, pos+1)
	c.TitleList = slices.Delete(c.TitleList, pos, pos+1)

	title := strings.ToLower(e.Title)
	if c.Title2ID[title] == key {
		delete(c.Title2ID, title)
		// another entry may share the title
		if i := slices.Index(c.TitleList, title); i >= 0 {
			c.Title2ID[title] = c.IDList[i]
		}
	}
	for _, a := range e.Author {
		c.Author2ID[a] = dropID(c.Author2ID[a], key)
		if len(c.Author2ID[a]) == 0 {
			delete(c.Author2ID, a)
		}
	}
	c.dropKeywordInstances(key)
	return pos
}

func (c *Collection) dropKeywordInstances(key string) {
	for kw, ids := range c.Keyword2ID {
		if slices.Contains(ids, key) {
			c.Keyword2ID[kw] = dropID(ids, key)
		}
	}
}

func dropID(ids []string, key string) []string {
	return slices.DeleteFunc(ids, func(id string) bool { return id == key })
}

// AddEntry inserts e. If its key is taken, the existing entry is removed
// first when canReplace is set; otherwise ErrEntryExists is returned and
// nothing changes.
func (c *Collection) AddEntry(e *reference.Entry, canReplace bool) (*reference.Entry, error) {
	key := reference.Key(e.ID)
	if _, ok := c.Entries[key]; ok {
		if !canReplace {
			return nil, fmt.Errorf("%w: %s", ErrEntryExists, e.ID)
		}
		if err := c.Remove(key); err != nil {
			return nil, err
		}
	}
	c.index(e)
	c.modified = true
	c.logger.Info("added entry", "id", e.ID)
	return e, nil
}

// AddNewEntry stamps the insertion date on e and adds it. An existing
// entry with the same key is never overwritten.
func (c *Collection) AddNewEntry(e *reference.Entry) (*reference.Entry, error) {
	e.Inserted = c.Now().Format(InsertedFormat)
	return c.AddEntry(e, false)
}

// Remove deletes the entry with the given id.
func (c *Collection) Remove(id string) error {
	key := reference.Key(id)
	n := 0
	for _, k := range c.IDList {
		if k == key {
			n++
		}
	}
	_, ok := c.Entries[key]
	if n != 1 || !ok {
		return fmt.Errorf("%w: %d list positions for id %s", ErrIndexCorruption, n, id)
	}
	pos := c.unindex(key)
	c.modified = true
	c.logger.Info("removed entry", "id", id, "index", pos)
	return nil
}

// Replace swaps the entry stored under oldID for e while keeping its
// position in the id list. An empty oldID means e.ID.
func (c *Collection) Replace(e *reference.Entry, oldID string) error {
	if oldID == "" {
		oldID = e.ID
	}
	oldKey, newKey := reference.Key(oldID), reference.Key(e.ID)
	pos := slices.Index(c.IDList, oldKey)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, oldID)
	}
	if newKey != oldKey && c.Has(newKey) {
		return fmt.Errorf("%w: %s", ErrEntryExists, e.ID)
	}
	if err := c.Remove(oldKey); err != nil {
		return err
	}
	c.index(e)
	c.moveLast(pos)
	c.modified = true
	return nil
}

// moveLast moves the most recently indexed entry to position pos.
func (c *Collection) moveLast(pos int) {
	last := len(c.IDList) - 1
	if pos >= last {
		return
	}
	id, title := c.IDList[last], c.TitleList[last]
	c.IDList = slices.Insert(c.IDList[:last], pos, id)
	c.TitleList = slices.Insert(c.TitleList[:last], pos, title)
}

// OnlyKeep prunes the collection down to the given ids.
func (c *Collection) OnlyKeep(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[reference.Key(id)] = true
	}
	for _, key := range slices.Clone(c.IDList) {
		if !keep[key] {
			c.unindex(key)
			c.modified = true
		}
	}
}

// AddKeywordInstance records that the entry uses kw, adding kw to the
// vocabulary if needed.
func (c *Collection) AddKeywordInstance(kw, id string) {
	key := reference.Key(id)
	ids := c.Keyword2ID[kw]
	if ids == nil {
		ids = []string{}
	}
	if !slices.Contains(ids, key) {
		ids = append(ids, key)
	}
	c.Keyword2ID[kw] = ids
}

// SetKeywords replaces the keywords of an entry and registers each of them.
func (c *Collection) SetKeywords(id string, keywords []string) error {
	key := reference.Key(id)
	e, ok := c.Entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.dropKeywordInstances(key)
	e.Keywords = keywords
	for _, kw := range keywords {
		c.AddKeywordInstance(kw, key)
	}
	c.modified = true
	return nil
}

// SetTitle changes an entry's title and keeps the title tables in step.
func (c *Collection) SetTitle(id, title string) error {
	key := reference.Key(id)
	e, ok := c.Entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pos := slices.Index(c.IDList, key)
	old := strings.ToLower(e.Title)
	e.Title = title
	lower := strings.ToLower(title)
	c.TitleList[pos] = lower
	if old != lower && c.Title2ID[old] == key {
		delete(c.Title2ID, old)
		// another entry may share the old title
		if i := slices.Index(c.TitleList, old); i >= 0 {
			c.Title2ID[old] = c.IDList[i]
		}
	}
	c.Title2ID[lower] = key
	c.modified = true
	return nil
}

// TagInformation exports the keyword vocabulary and mapping for persistence.
func (c *Collection) TagInformation() Tags {
	return Tags{
		Keep: slices.Sorted(maps.Keys(c.Keyword2ID)),
		Map:  maps.Clone(c.KeywordsMap),
	}
}

// CheckForMissingFields reports entries without page or publisher
// information, both per entry and per field.
func (c *Collection) CheckForMissingFields() (perEntry, perField map[string][]string) {
	perEntry = make(map[string][]string)
	perField = map[string][]string{"pages": {}, "publisher": {}}
	for _, e := range c.Ordered() {
		var fields []string
		if !e.HasPages() {
			fields = append(fields, "pages")
			perField["pages"] = append(perField["pages"], e.ID)
		}
		if !e.HasPublisher() {
			fields = append(fields, "publisher")
			perField["publisher"] = append(perField["publisher"], e.ID)
		}
		if len(fields) > 0 {
			perEntry[e.ID] = fields
		}
	}
	return perEntry, perField
}

// Has reports whether an entry with the given id exists.
func (c *Collection) Has(id string) bool {
	_, ok := c.Entries[reference.Key(id)]
	return ok
}

// Get returns the entry with the given id.
func (c *Collection) Get(id string) (*reference.Entry, bool) {
	e, ok := c.Entries[reference.Key(id)]
	return e, ok
}

// Lookup returns the entry with the given id, or nil.
func (c *Collection) Lookup(id string) *reference.Entry {
	return c.Entries[reference.Key(id)]
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.IDList) }

// IDs returns a copy of the id list in collection order.
func (c *Collection) IDs() []string { return slices.Clone(c.IDList) }

// Ordered returns the entries in collection order.
func (c *Collection) Ordered() []*reference.Entry {
	out := make([]*reference.Entry, 0, len(c.IDList))
	for _, key := range c.IDList {
		out = append(out, c.Entries[key])
	}
	return out
}

// MaxLens returns the count and the longest id and title, in runes, among ids.
// A nil ids slice means the whole collection.
func (c *Collection) MaxLens(ids []string) (n, maxID, maxTitle int) {
	if ids == nil {
		ids = c.IDList
	}
	for _, id := range ids {
		e := c.Lookup(id)
		if e == nil {
			continue
		}
		n++
		maxID = max(maxID, utf8.RuneCountInString(e.ID))
		maxTitle = max(maxTitle, utf8.RuneCountInString(e.Title))
	}
	return n, maxID, maxTitle
}

// Modified reports whether the collection changed since the last save.
func (c *Collection) Modified() bool { return c.modified }

// SetModified marks the collection as changed.
func (c *Collection) SetModified() { c.modified = true }

// ResetModified clears the modified flag after a save.
func (c *Collection) ResetModified() { c.modified = false }
