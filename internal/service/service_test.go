package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/config"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

func newTestService(t *testing.T, withIndex bool) *Service {
	t.Helper()

	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var index *semantic.Index
	if withIndex {
		index = semantic.NewIndex(semantic.NewStaticEmbedder())
		t.Cleanup(func() { _ = index.Close() })
	}

	return New(config.NewConfig(), st, index)
}

func apiPage() catalog.RawPage {
	return catalog.RawPage{
		URL:      "https://www.gov.uk/guidance/gds-api-technical-and-data-standards",
		Title:    "API technical and data standards",
		Category: "APIs",
		Content: "Government services must expose REST APIs over HTTPS and secure " +
			"them with OAuth 2.0. Use JSON as the default representation and publish " +
			"OpenAPI descriptions so consumers can discover endpoints.",
		SourceOrg: "GDS",
	}
}

func accessibilityPage() catalog.RawPage {
	return catalog.RawPage{
		URL:      "https://www.gov.uk/guidance/accessibility-requirements-for-public-sector",
		Title:    "Accessibility requirements for public sector websites",
		Category: "Accessibility",
		Content: "Public sector websites and mobile apps must meet WCAG 2.2 level AA. " +
			"Services should be tested with assistive technology and publish an " +
			"accessibility statement describing known issues.",
		SourceOrg: "CDDO",
	}
}

func TestIngest_ValidPageStoredAndSearchable(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	report, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)
	require.True(t, report.Validation.Valid)
	require.NotNil(t, report.Document)

	assert.NotEmpty(t, report.Document.ID)
	assert.Equal(t, "APIs", report.Document.Category)
	assert.NotEmpty(t, report.Document.Summary)
	assert.Contains(t, report.Document.Tags, "API")

	results, err := svc.Search(ctx, "OAuth", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, report.Document.ID, results[0].Document.ID)
}

func TestIngest_InvalidPageReturnsValidationNotError(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	report, err := svc.Ingest(ctx, catalog.RawPage{
		URL:     "not a url",
		Content: "too short",
	})
	require.NoError(t, err, "validation failure is data, not an error")
	require.NotNil(t, report)

	assert.False(t, report.Validation.Valid)
	assert.Nil(t, report.Document)
	assert.GreaterOrEqual(t, len(report.Validation.Errors), 3)

	count, err := svc.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_UnknownCategoryRejected(t *testing.T) {
	svc := newTestService(t, false)

	page := apiPage()
	page.Category = "Astrology"

	report, err := svc.Ingest(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, report.Validation.Valid)
	assert.Contains(t, report.Validation.Errors[0], "not in the configured category set")
}

func TestIngest_EmptyCategoryTableDisablesCheck(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.NewConfig()
	cfg.Categories = nil
	svc := New(cfg, st, nil)

	page := apiPage()
	page.Category = "Anything"

	report, err := svc.Ingest(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, report.Validation.Valid)
}

func TestIngest_SameURLIsIdempotent(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)

	page := apiPage()
	page.Content = page.Content + " Amended with new guidance on rate limiting."
	second, err := svc.Ingest(ctx, page)
	require.NoError(t, err)

	assert.Equal(t, first.Document.ID, second.Document.ID, "identity is derived from the URL")

	count, err := svc.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := svc.Get(ctx, first.Document.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Content, "rate limiting")
}

func TestGet_MissingReturnsNotFound(t *testing.T) {
	svc := newTestService(t, false)

	_, err := svc.Get(context.Background(), "doc-00000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.New(apperrors.ErrCodeNotFound, "", nil)))
}

func TestCategories_MergesCountsWithApplicability(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)

	summaries, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, summaries)

	// APIs has a document, so it leads the list
	assert.Equal(t, "APIs", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].Count)
	assert.True(t, summaries[0].Mandatory)
	assert.Contains(t, summaries[0].WorkTypes, "software_development")

	// configured categories without documents still appear, count 0
	var security *CategorySummary
	for i := range summaries {
		if summaries[i].Name == "Security" {
			security = &summaries[i]
		}
	}
	require.NotNil(t, security)
	assert.Zero(t, security.Count)
}

func TestSearch_WithoutSemanticIndexDegrades(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)

	results, err := svc.Search(ctx, "OAuth HTTPS", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_SemanticIndexContributes(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, accessibilityPage())
	require.NoError(t, err)

	assert.Equal(t, 2, svc.index.Count())

	results, err := svc.Search(ctx, "OAuth", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Document.Title, "API")
}

func TestEndToEnd_TwoDocumentScenario(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	a, err := svc.Ingest(ctx, apiPage())
	require.NoError(t, err)
	b, err := svc.Ingest(ctx, accessibilityPage())
	require.NoError(t, err)

	// keyword search only hits the API document
	results, err := svc.Search(ctx, "OAuth", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, a.Document.ID, results[0].Document.ID)

	// category filter isolates the accessibility document
	results, err = svc.Search(ctx, "WCAG", SearchOptions{Category: "Accessibility"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b.Document.ID, results[0].Document.ID)

	// live category counts reflect both documents
	summaries, err := svc.Categories(ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, s := range summaries {
		counts[s.Name] = s.Count
	}
	assert.Equal(t, 1, counts["APIs"])
	assert.Equal(t, 1, counts["Accessibility"])

	// both were touched inside the window
	recent, err := svc.RecentlyUpdated(ctx, 60)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestReindexSemantic_RebuildsFromStore(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// ingest without an index, then attach one and rebuild
	plain := New(config.NewConfig(), st, nil)
	ctx := context.Background()
	_, err = plain.Ingest(ctx, apiPage())
	require.NoError(t, err)
	_, err = plain.Ingest(ctx, accessibilityPage())
	require.NoError(t, err)

	index := semantic.NewIndex(semantic.NewStaticEmbedder())
	t.Cleanup(func() { _ = index.Close() })
	svc := New(config.NewConfig(), st, index)

	require.NoError(t, svc.ReindexSemantic(ctx))
	assert.Equal(t, 2, index.Count())
}

func TestRecentlyUpdated_FreshWriteQualifiesDespiteStaleSourceDate(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	old := time.Now().AddDate(0, -6, 0)
	page := apiPage()
	page.LastModified = &old

	report, err := svc.Ingest(ctx, page)
	require.NoError(t, err)
	require.NotNil(t, report.Document.LastUpdated)

	// the window test is an OR over source and storage timestamps, so
	// the just-written row qualifies even with a stale source date
	recent, err := svc.RecentlyUpdated(ctx, 30)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
