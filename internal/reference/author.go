package reference

import "strings"

// Surname returns the family name of an author written either as
// "Last, First" or "First Last".
func Surname(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// FormatAuthorsShort formats authors by surname with "et al." after maxCount.
func FormatAuthorsShort(authors []string, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, Surname(a))
	}
	return strings.Join(names, ", ")
}

// SplitAuthors splits a BibTeX author field on the " and " separator.
func SplitAuthors(field string) []string {
	field = strings.Join(strings.Fields(field), " ")
	if field == "" {
		return nil
	}
	var authors []string
	for _, part := range strings.Split(field, " and ") {
		if part = strings.TrimSpace(part); part != "" {
			authors = append(authors, part)
		}
	}
	return authors
}
