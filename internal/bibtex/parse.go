// Package bibtex reads and writes BibTeX records.
package bibtex

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// Record is one parsed "@type{key, name = value, ...}" block.
type Record struct {
	Type   string
	Key    string
	Fields []reference.Field
	Line   int // Line of the @ marker (1-indexed)
}

// Get returns the value of a field by case-insensitive name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// ParseError represents malformed BibTeX input.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// skippedTypes are block types that carry no bibliographic record.
var skippedTypes = map[string]bool{
	"comment":  true,
	"preamble": true,
	"string":   true,
}

// Parse reads every record from r.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses every record in s.
func ParseString(s string) ([]Record, error) {
	p := &parser{src: s, line: 1}
	var records []Record
	for {
		rec, ok, err := p.nextRecord()
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
}

// StripComments drops lines starting with '%'.
// Returns the cleaned content and whether anything was removed.
func StripComments(content string) (string, bool) {
	lines := strings.SplitAfter(content, "\n")
	kept := lines[:0]
	removed := false
	for _, line := range lines {
		if strings.HasPrefix(line, "%") {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, ""), removed
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(" \t\r\n", p.peek()) >= 0 {
		p.advance()
	}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

// nextRecord returns the next record, nil for skipped blocks, and false at end of input.
func (p *parser) nextRecord() (*Record, bool, error) {
	for !p.eof() && p.peek() != '@' {
		p.advance()
	}
	if p.eof() {
		return nil, false, nil
	}
	start := p.line
	p.advance() // @

	var typ strings.Builder
	for !p.eof() && p.peek() != '{' && p.peek() != '(' {
		typ.WriteByte(p.advance())
	}
	if p.eof() {
		return nil, false, ParseError{Line: start, Message: "unterminated entry header"}
	}
	entryType := strings.ToLower(strings.TrimSpace(typ.String()))
	closer := byte('}')
	if p.advance() == '(' {
		closer = ')'
	}

	if skippedTypes[entryType] {
		if err := p.skipBlock(closer); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	var key strings.Builder
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		key.WriteByte(p.advance())
	}
	if p.eof() {
		return nil, false, ParseError{Line: start, Message: "unterminated entry key"}
	}
	rec := &Record{
		Type: entryType,
		Key:  strings.TrimSpace(key.String()),
		Line: start,
	}
	if rec.Key == "" {
		return nil, false, ParseError{Line: start, Message: "entry without citation key"}
	}
	if p.advance() == closer {
		return rec, true, nil
	}

	for {
		p.skipSpace()
		if p.eof() {
			return nil, false, ParseError{Line: start, Message: fmt.Sprintf("unterminated entry %s", rec.Key)}
		}
		if p.peek() == closer {
			p.advance()
			return rec, true, nil
		}
		field, err := p.field(closer)
		if err != nil {
			return nil, false, err
		}
		rec.Fields = append(rec.Fields, field)
		p.skipSpace()
		if !p.eof() && p.peek() == ',' {
			p.advance()
		}
	}
}

func (p *parser) field(closer byte) (reference.Field, error) {
	var name strings.Builder
	for !p.eof() && p.peek() != '=' && p.peek() != closer && p.peek() != ',' {
		name.WriteByte(p.advance())
	}
	if p.eof() || p.peek() != '=' {
		return reference.Field{}, p.errorf("expected '=' after field name %q", strings.TrimSpace(name.String()))
	}
	p.advance() // =

	var parts []string
	for {
		p.skipSpace()
		if p.eof() {
			return reference.Field{}, p.errorf("missing value for field %q", strings.TrimSpace(name.String()))
		}
		var part string
		var err error
		switch p.peek() {
		case '{':
			p.advance()
			part, err = p.braced()
		case '"':
			p.advance()
			part, err = p.quoted()
		default:
			part = p.bare(closer)
		}
		if err != nil {
			return reference.Field{}, err
		}
		parts = append(parts, part)
		p.skipSpace()
		if p.eof() || p.peek() != '#' {
			break
		}
		p.advance()
	}

	return reference.Field{
		Name:  strings.ToLower(strings.TrimSpace(name.String())),
		Value: normalizeSpace(strings.Join(parts, "")),
	}, nil
}

// braced reads up to the brace matching an already consumed '{'.
func (p *parser) braced() (string, error) {
	start := p.line
	var b strings.Builder
	depth := 1
	for !p.eof() {
		c := p.advance()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.WriteByte(c)
	}
	return "", ParseError{Line: start, Message: "unbalanced braces"}
}

func (p *parser) quoted() (string, error) {
	start := p.line
	var b strings.Builder
	depth := 0
	for !p.eof() {
		c := p.advance()
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0:
			return b.String(), nil
		}
		b.WriteByte(c)
	}
	return "", ParseError{Line: start, Message: "unterminated quoted value"}
}

func (p *parser) bare(closer byte) string {
	var b strings.Builder
	for !p.eof() && p.peek() != ',' && p.peek() != closer && p.peek() != '#' {
		b.WriteByte(p.advance())
	}
	return strings.TrimSpace(b.String())
}

func (p *parser) skipBlock(closer byte) error {
	start := p.line
	depth := 1
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	for !p.eof() {
		switch p.advance() {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return ParseError{Line: start, Message: "unterminated block"}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
