// Package catalog defines the domain model for the standards catalog:
// documents, raw crawler records, search results, and derived projections.
package catalog

import "time"

// ComplianceLevel is a document's classified obligation tier.
type ComplianceLevel string

const (
	ComplianceMandatory   ComplianceLevel = "mandatory"
	ComplianceRecommended ComplianceLevel = "recommended"
	ComplianceOptional    ComplianceLevel = "optional"
)

// Limits applied to derived document fields.
const (
	MaxTags             = 20
	MaxRelatedStandards = 10
	MaxSummaryLength    = 500
	MinContentLength    = 50
)

// Document is a catalogued standard. The ID is derived deterministically
// from the source URL and never changes; re-ingesting the same URL replaces
// every mutable field but preserves CreatedAt.
type Document struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Category         string          `json:"category"`
	URL              string          `json:"url"`
	Content          string          `json:"content"`
	Summary          string          `json:"summary,omitempty"`
	LastUpdated      *time.Time      `json:"last_updated,omitempty"`
	SourceOrg        string          `json:"source_org,omitempty"`
	Tags             []string        `json:"tags"`
	ComplianceLevel  ComplianceLevel `json:"compliance_level,omitempty"`
	RelatedStandards []string        `json:"related_standards"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RawPage is the record shape the crawler hands to ingestion. It is the
// classifier's sole input.
type RawPage struct {
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Category     string     `json:"category"`
	SourceOrg    string     `json:"source_org,omitempty"`
	Links        []string   `json:"links,omitempty"`
}

// Matched-field names reported on search results.
const (
	FieldTitle    = "title"
	FieldContent  = "content"
	FieldSummary  = "summary"
	FieldTags     = "tags"
	FieldSemantic = "semantic"
)

// SearchResult pairs a document with a relevance score. Scores are
// non-negative and higher is better, but they are not normalized to a
// shared scale across search types.
type SearchResult struct {
	Document       *Document `json:"document"`
	RelevanceScore float64   `json:"relevance_score"`
	MatchedFields  []string  `json:"matched_fields"`
}

// HasMatchedField reports whether the result already carries the field.
func (r *SearchResult) HasMatchedField(name string) bool {
	for _, f := range r.MatchedFields {
		if f == name {
			return true
		}
	}
	return false
}

// CategoryCount is a live projection of documents per category. Counts are
// always computed from the store, never persisted.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ValidationResult accumulates every violated rule for a document so a
// single pass tells the caller everything wrong with a record. It is a
// value, never an error.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ScrapeStatus values recorded in the scraping log.
const (
	ScrapeSuccess = "success"
	ScrapeFailed  = "failed"
	ScrapeSkipped = "skipped"
)
