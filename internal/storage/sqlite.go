package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
	_ "modernc.org/sqlite"
)

// DB is an ephemeral SQLite index over the library, rebuilt from the bib
// file on demand. The bib file stays the source of truth.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite index at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			entry_type TEXT,
			title TEXT,
			year INTEGER,
			doi TEXT,
			file TEXT
		);

		CREATE TABLE IF NOT EXISTS entry_keywords (
			id TEXT NOT NULL,
			keyword TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entry_keywords ON entry_keywords(keyword);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			id,
			title,
			authors_text,
			keywords_text
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the index and fills it from entries in order.
func (d *DB) Rebuild(entries []*reference.Entry) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "entry_keywords", "entries_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (id, position, entry_type, title, year, doi, file)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing entries insert: %w", err)
	}
	defer entryStmt.Close()

	kwStmt, err := tx.Prepare(`INSERT INTO entry_keywords (id, keyword) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing keyword insert: %w", err)
	}
	defer kwStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO entries_fts (id, title, authors_text, keywords_text)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, e := range entries {
		_, err := entryStmt.Exec(e.ID, i, e.Type, e.Title, nullableYear(e.Year),
			nullableStringValue(e.DOI), nullableStringValue(e.File))
		if err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
		for _, kw := range e.Keywords {
			if _, err := kwStmt.Exec(e.ID, kw); err != nil {
				return 0, fmt.Errorf("inserting keyword for %s: %w", e.ID, err)
			}
		}
		_, err = ftsStmt.Exec(e.ID, e.Title, strings.Join(e.Author, ", "), strings.Join(e.Keywords, " "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(entries), nil
}

// Count returns the number of indexed entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// Search runs a full-text query and returns matching ids in library order.
func (d *DB) Search(query string, limit int) ([]string, error) {
	return d.Filter(SearchFilters{Text: query}, limit)
}

// SearchFilters contains optional filters for Filter. Set filters are
// combined with AND.
type SearchFilters struct {
	Text     string   // Full-text search across title, authors and keywords
	Authors  []string // Author names (AND logic, prefix matching)
	Keyword  string   // Exact keyword
	YearFrom int      // Minimum year (0 = no minimum)
	YearTo   int      // Maximum year (0 = no maximum)
}

// Filter returns ids of entries matching every set filter, in library order.
// A limit of zero or less means no limit.
func (d *DB) Filter(filters SearchFilters, limit int) ([]string, error) {
	var ftsTerms []string
	var args []interface{}

	if filters.Text != "" {
		ftsTerms = append(ftsTerms, prepareFTSQuery(filters.Text))
	}
	for _, author := range filters.Authors {
		if author != "" {
			ftsTerms = append(ftsTerms, "authors_text:"+prepareAuthorQuery(author))
		}
	}

	query := `SELECT id FROM entries WHERE 1=1`
	if len(ftsTerms) > 0 {
		query += ` AND id IN (SELECT id FROM entries_fts WHERE entries_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	}
	if filters.Keyword != "" {
		query += ` AND id IN (SELECT id FROM entry_keywords WHERE keyword = ?)`
		args = append(args, filters.Keyword)
	}
	if filters.YearFrom > 0 {
		query += " AND year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND year <= ?"
		args = append(args, filters.YearTo)
	}
	query += " ORDER BY position"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// KeywordCounts returns how many entries use each keyword.
func (d *DB) KeywordCounts() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT keyword, COUNT(*) FROM entry_keywords GROUP BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("counting keywords: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kw string
		var n int
		if err := rows.Scan(&kw, &n); err != nil {
			return nil, err
		}
		counts[kw] = n
	}
	return counts, rows.Err()
}

// ParseYearRange parses "2020", "2020:2024", "2020:" or ":2024".
func ParseYearRange(s string) (from, to int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	lo, hi, isRange := strings.Cut(s, ":")
	if !isRange {
		y, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", s)
		}
		return y, y, nil
	}
	if lo != "" {
		if from, err = strconv.Atoi(lo); err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", lo)
		}
	}
	if hi != "" {
		if to, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", hi)
		}
	}
	return from, to, nil
}

func nullableYear(year string) sql.NullInt64 {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(y), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching,
// so "Tim" matches "Timothy".
func prepareAuthorQuery(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return author
	}

	var terms []string
	for _, part := range strings.Fields(author) {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}

	// Use OR for multi-word author queries (match any part)
	return "(" + strings.Join(terms, " OR ") + ")"
}
