package pdf

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// doiPattern matches 10.<registrant>/<suffix>.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPages is how many leading pages are scanned for a DOI.
const doiPages = 3

// ExtractDOI returns the first DOI printed on the leading pages of a PDF,
// or "" when there is none.
func ExtractDOI(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for i := 1; i <= min(doiPages, r.NumPage()); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}
	return "", nil
}

// FindDOI returns the first plausible DOI in text.
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash != -1 && slash < len(doi)-1
}
