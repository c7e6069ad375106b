package classify

import (
	"fmt"
	"net/url"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

// Validate checks a document against the ingestion rules and accumulates
// every violation instead of stopping at the first, so one pass reports
// everything wrong with a record.
func Validate(doc *catalog.Document) catalog.ValidationResult {
	var errs []string

	if doc.ID == "" {
		errs = append(errs, "document id is missing")
	}
	if doc.Title == "" {
		errs = append(errs, "document title is missing")
	}
	if !validURL(doc.URL) {
		errs = append(errs, fmt.Sprintf("document url %q is not a valid absolute URL", doc.URL))
	}
	if len(doc.Content) < catalog.MinContentLength {
		errs = append(errs, fmt.Sprintf("document content is %d characters, minimum is %d", len(doc.Content), catalog.MinContentLength))
	}
	if doc.Category == "" {
		errs = append(errs, "document category is missing")
	}

	return catalog.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
