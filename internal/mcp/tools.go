package mcp

import (
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/service"
)

// SearchStandardsInput is the input schema for the search_standards tool.
type SearchStandardsInput struct {
	Query          string   `json:"query" jsonschema:"the search query; empty lists the whole catalogue by title"`
	Category       string   `json:"category,omitempty" jsonschema:"restrict results to one category"`
	SourceOrg      string   `json:"source_org,omitempty" jsonschema:"restrict results to one publishing organisation"`
	Limit          int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty" jsonschema:"override the semantic fusion weight for this query, 0 to 1"`
}

// StandardSummary is one search or listing hit. Content is omitted;
// use get_standard for the full text.
type StandardSummary struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	URL             string   `json:"url"`
	Summary         string   `json:"summary,omitempty"`
	SourceOrg       string   `json:"source_org,omitempty"`
	ComplianceLevel string   `json:"compliance_level,omitempty"`
	Score           float64  `json:"score"`
	MatchedFields   []string `json:"matched_fields,omitempty"`
}

// SearchStandardsOutput is the output schema for search_standards.
type SearchStandardsOutput struct {
	Results []StandardSummary `json:"results"`
}

// GetStandardInput is the input schema for the get_standard tool.
type GetStandardInput struct {
	ID string `json:"id" jsonschema:"the standard's identifier, as returned by search_standards"`
}

// GetStandardOutput carries the complete document.
type GetStandardOutput struct {
	Standard *catalog.Document `json:"standard"`
}

// ListCategoriesInput is the (empty) input schema for list_categories.
type ListCategoriesInput struct{}

// ListCategoriesOutput pairs live document counts with the configured
// applicability table.
type ListCategoriesOutput struct {
	Categories []service.CategorySummary `json:"categories"`
}

// RecentlyUpdatedInput is the input schema for recently_updated.
type RecentlyUpdatedInput struct {
	Days int `json:"days,omitempty" jsonschema:"look-back window in days, default 30"`
}

// RecentlyUpdatedOutput lists recently touched standards, newest first.
type RecentlyUpdatedOutput struct {
	Standards []StandardSummary `json:"standards"`
}

// IngestPageInput is the input schema for the ingest_page tool: one raw
// crawler record.
type IngestPageInput struct {
	URL          string `json:"url" jsonschema:"absolute source URL; document identity derives from it"`
	Title        string `json:"title" jsonschema:"page title"`
	Content      string `json:"content" jsonschema:"full page text"`
	Category     string `json:"category" jsonschema:"category from the configured set"`
	SourceOrg    string `json:"source_org,omitempty" jsonschema:"publishing organisation"`
	LastModified string `json:"last_modified,omitempty" jsonschema:"source-reported update time, RFC 3339"`
}

// IngestPageOutput reports the ingestion outcome. A rejected page has
// Stored false and the violated rules in Errors; that is a result, not
// a protocol error.
type IngestPageOutput struct {
	Stored bool     `json:"stored"`
	ID     string   `json:"id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func summarize(r *catalog.SearchResult) StandardSummary {
	doc := r.Document
	return StandardSummary{
		ID:              doc.ID,
		Title:           doc.Title,
		Category:        doc.Category,
		URL:             doc.URL,
		Summary:         doc.Summary,
		SourceOrg:       doc.SourceOrg,
		ComplianceLevel: string(doc.ComplianceLevel),
		Score:           r.RelevanceScore,
		MatchedFields:   r.MatchedFields,
	}
}

func summarizeDoc(doc *catalog.Document) StandardSummary {
	return StandardSummary{
		ID:              doc.ID,
		Title:           doc.Title,
		Category:        doc.Category,
		URL:             doc.URL,
		Summary:         doc.Summary,
		SourceOrg:       doc.SourceOrg,
		ComplianceLevel: string(doc.ComplianceLevel),
	}
}
