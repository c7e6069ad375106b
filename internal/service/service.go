// Package service wires the catalogue together: classification,
// durable storage, the semantic index and hybrid search behind one
// facade that the MCP server and the CLI both call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/classify"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/config"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/search"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

// embedContentLimit bounds how much document body goes into the
// embedding text. Titles and summaries carry most of the signal;
// embedding hundred-kilobyte pages wholesale just dilutes it.
const embedContentLimit = 2000

// Service is the application facade. The semantic index is optional;
// a nil index degrades every search to lexical-only.
type Service struct {
	cfg    *config.Config
	store  *store.Store
	index  *semantic.Index
	engine *search.Engine
}

// New builds a Service over an opened store and an optional semantic
// index.
func New(cfg *config.Config, st *store.Store, index *semantic.Index) *Service {
	var sem search.Semantic
	if index != nil {
		sem = index
	}
	return &Service{
		cfg:    cfg,
		store:  st,
		index:  index,
		engine: search.NewEngine(st, sem, cfg.Search.SemanticWeight),
	}
}

// IngestReport is the outcome of one ingestion attempt. Validation
// failure is data, not an error: the Document is nil and Validation
// lists every violated rule.
type IngestReport struct {
	Document   *catalog.Document        `json:"document,omitempty"`
	Validation catalog.ValidationResult `json:"validation"`
}

// Ingest classifies a scraped page, validates it, discovers related
// standards against the current corpus and stores the result. The
// semantic index is updated best-effort; its failure never fails the
// ingest. The returned error covers storage problems only.
func (s *Service) Ingest(ctx context.Context, raw catalog.RawPage) (*IngestReport, error) {
	doc := classify.Page(raw)

	result := classify.Validate(doc)
	result = s.checkCategory(doc, result)
	if !result.Valid {
		slog.Warn("rejecting page",
			slog.String("url", raw.URL),
			slog.Any("errors", result.Errors))
		if err := s.store.LogScrape(ctx, raw.URL, catalog.ScrapeFailed, strings.Join(result.Errors, "; ")); err != nil {
			return nil, err
		}
		return &IngestReport{Validation: result}, nil
	}

	corpus, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	doc.RelatedStandards = classify.FindRelated(doc, corpus)

	if err := s.store.Upsert(ctx, doc); err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.Add(ctx, metadataFor(doc), embedText(doc)); err != nil {
			slog.Warn("semantic index update failed",
				slog.String("doc_id", doc.ID),
				slog.Any("error", apperrors.FormatForLog(err)))
		}
	}

	if err := s.store.LogScrape(ctx, raw.URL, catalog.ScrapeSuccess, ""); err != nil {
		return nil, err
	}

	slog.Info("ingested standard",
		slog.String("doc_id", doc.ID),
		slog.String("category", doc.Category),
		slog.Int("related", len(doc.RelatedStandards)))
	return &IngestReport{Document: doc, Validation: result}, nil
}

// checkCategory enforces the closed category set from configuration.
// An empty table disables the check, so stores bootstrapped without an
// applicability table still ingest.
func (s *Service) checkCategory(doc *catalog.Document, result catalog.ValidationResult) catalog.ValidationResult {
	if len(s.cfg.Categories) == 0 || doc.Category == "" {
		return result
	}
	if _, ok := s.cfg.ApplicabilityFor(doc.Category); ok {
		return result
	}
	result.Valid = false
	result.Errors = append(result.Errors,
		fmt.Sprintf("category %q is not in the configured category set", doc.Category))
	return result
}

// SearchOptions narrows and tunes a single search call.
type SearchOptions struct {
	Limit          int
	Category       string
	SourceOrg      string
	SemanticWeight *float64
}

// Search runs hybrid retrieval. The semantic threshold comes from
// configuration; everything else from opts.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]*catalog.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.Search.MaxResults
	}
	return s.engine.Search(ctx, query, search.Options{
		Limit:             limit,
		Category:          opts.Category,
		SourceOrg:         opts.SourceOrg,
		SemanticWeight:    opts.SemanticWeight,
		SemanticThreshold: s.cfg.Search.SemanticThreshold,
	})
}

// Get looks up one document by id.
func (s *Service) Get(ctx context.Context, id string) (*catalog.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound,
			fmt.Sprintf("no standard with id %q", id), nil)
	}
	return doc, nil
}

// CategorySummary joins a live document count with the configured
// applicability row for one category.
type CategorySummary struct {
	Name              string   `json:"name"`
	Count             int      `json:"count"`
	WorkTypes         []string `json:"work_types,omitempty"`
	ServiceTypes      []string `json:"service_types,omitempty"`
	DevelopmentPhases []string `json:"development_phases,omitempty"`
	Priority          string   `json:"priority,omitempty"`
	Mandatory         bool     `json:"mandatory"`
}

// Categories lists every category with documents (count order, then
// name) followed by configured-but-empty categories in table order.
// Counts are always computed from the store.
func (s *Service) Categories(ctx context.Context) ([]CategorySummary, error) {
	counts, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]CategorySummary, 0, len(counts)+len(s.cfg.Categories))
	seen := make(map[string]bool, len(counts))
	for _, c := range counts {
		seen[c.Name] = true
		summary := CategorySummary{Name: c.Name, Count: c.Count}
		if row, ok := s.cfg.ApplicabilityFor(c.Name); ok {
			applyApplicability(&summary, row)
		}
		summaries = append(summaries, summary)
	}
	for _, row := range s.cfg.Categories {
		if seen[row.Name] {
			continue
		}
		summary := CategorySummary{Name: row.Name}
		applyApplicability(&summary, row)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func applyApplicability(summary *CategorySummary, row config.Category) {
	summary.WorkTypes = row.WorkTypes
	summary.ServiceTypes = row.ServiceTypes
	summary.DevelopmentPhases = row.DevelopmentPhases
	summary.Priority = row.Priority
	summary.Mandatory = row.Mandatory
}

// RecentlyUpdated lists documents touched in the last daysBack days,
// judged by the source-reported date when present and the storage
// timestamp otherwise.
func (s *Service) RecentlyUpdated(ctx context.Context, daysBack int) ([]*catalog.Document, error) {
	return s.store.RecentlyUpdated(ctx, daysBack)
}

// ReindexSemantic rebuilds the semantic index from the stored corpus.
// Used at startup when no usable snapshot exists. No-op without an
// index.
func (s *Service) ReindexSemantic(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	docs, err := s.store.All(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.index.Add(ctx, metadataFor(doc), embedText(doc)); err != nil {
			return err
		}
	}
	slog.Info("semantic index rebuilt", slog.Int("documents", len(docs)))
	return nil
}

// SaveIndex persists the semantic index snapshot. No-op without an
// index.
func (s *Service) SaveIndex(path string) error {
	if s.index == nil {
		return nil
	}
	return s.index.Save(path)
}

func metadataFor(doc *catalog.Document) semantic.Metadata {
	snippet := doc.Summary
	if snippet == "" && len(doc.Content) > 0 {
		snippet = doc.Content
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
	}
	return semantic.Metadata{
		ID:        doc.ID,
		Title:     doc.Title,
		Category:  doc.Category,
		SourceOrg: doc.SourceOrg,
		URL:       doc.URL,
		Summary:   doc.Summary,
		Snippet:   snippet,
		Tags:      doc.Tags,
	}
}

// embedText concatenates the highest-signal fields for embedding.
func embedText(doc *catalog.Document) string {
	content := doc.Content
	if len(content) > embedContentLimit {
		content = content[:embedContentLimit]
	}
	parts := []string{doc.Title}
	if doc.Summary != "" {
		parts = append(parts, doc.Summary)
	}
	if len(doc.Tags) > 0 {
		parts = append(parts, strings.Join(doc.Tags, " "))
	}
	parts = append(parts, content)
	return strings.Join(parts, "\n")
}
