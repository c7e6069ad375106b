package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

type stubLexical struct {
	results []*catalog.SearchResult
	err     error
	gotArgs struct {
		query   string
		filters store.Filters
	}
}

func (s *stubLexical) LexicalSearch(_ context.Context, query string, f store.Filters) ([]*catalog.SearchResult, error) {
	s.gotArgs.query = query
	s.gotArgs.filters = f
	return s.results, s.err
}

type stubSemantic struct {
	results []semantic.Result
	err     error
	called  bool
}

func (s *stubSemantic) Search(_ context.Context, _ string, _ semantic.SearchOptions) ([]semantic.Result, error) {
	s.called = true
	return s.results, s.err
}

func TestEngine_FailingSemanticDegradesToLexical(t *testing.T) {
	// Given: a healthy lexical leg and a failing semantic leg
	lexical := &stubLexical{results: []*catalog.SearchResult{
		lexResult("doc-1", 2.0, catalog.FieldContent),
	}}
	sem := &stubSemantic{err: errors.New("embedder unreachable")}
	engine := NewEngine(lexical, sem, 0.6)

	// When: searching
	results, err := engine.Search(context.Background(), "oauth", Options{})

	// Then: lexical results are returned unchanged, never an error
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2.0, results[0].RelevanceScore, "degraded results must not be rescaled")
	assert.Equal(t, []string{catalog.FieldContent}, results[0].MatchedFields)
}

func TestEngine_NilSemanticIsLexicalOnly(t *testing.T) {
	lexical := &stubLexical{results: []*catalog.SearchResult{lexResult("doc-1", 1.5)}}
	engine := NewEngine(lexical, nil, 0.6)

	results, err := engine.Search(context.Background(), "oauth", Options{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.5, results[0].RelevanceScore)
}

func TestEngine_FusesWhenBothLegsSucceed(t *testing.T) {
	lexical := &stubLexical{results: []*catalog.SearchResult{
		lexResult("doc-1", 2.0, catalog.FieldContent),
	}}
	sem := &stubSemantic{results: []semantic.Result{{ID: "doc-1", Score: 0.8}}}
	engine := NewEngine(lexical, sem, 0.6)

	results, err := engine.Search(context.Background(), "oauth", Options{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 2.0*0.4+0.8*0.6, results[0].RelevanceScore, 1e-9)
}

func TestEngine_LexicalErrorIsHard(t *testing.T) {
	lexical := &stubLexical{err: errors.New("store unreachable")}
	engine := NewEngine(lexical, &stubSemantic{}, 0.6)

	_, err := engine.Search(context.Background(), "oauth", Options{})
	assert.Error(t, err)
}

func TestEngine_EmptyQuerySkipsSemanticLeg(t *testing.T) {
	lexical := &stubLexical{results: []*catalog.SearchResult{lexResult("doc-1", 1.0)}}
	sem := &stubSemantic{}
	engine := NewEngine(lexical, sem, 0.6)

	results, err := engine.Search(context.Background(), "   ", Options{})

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.False(t, sem.called, "listings must not hit the embedder")
}

func TestEngine_PassesFiltersToLexicalLeg(t *testing.T) {
	lexical := &stubLexical{}
	engine := NewEngine(lexical, nil, 0.6)

	_, err := engine.Search(context.Background(), "oauth", Options{
		Category:  "security",
		SourceOrg: "NCSC",
	})

	require.NoError(t, err)
	assert.Equal(t, "oauth", lexical.gotArgs.query)
	assert.Equal(t, store.Filters{Category: "security", SourceOrg: "NCSC"}, lexical.gotArgs.filters)
}

func TestEngine_PerQueryWeightOverride(t *testing.T) {
	lexical := &stubLexical{results: []*catalog.SearchResult{lexResult("doc-1", 2.0)}}
	sem := &stubSemantic{results: []semantic.Result{{ID: "doc-1", Score: 0.5}}}
	engine := NewEngine(lexical, sem, 0.6)

	w := 0.2
	results, err := engine.Search(context.Background(), "oauth", Options{SemanticWeight: &w})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 2.0*0.8+0.5*0.2, results[0].RelevanceScore, 1e-9)
}

func TestEngine_LimitTruncatesResults(t *testing.T) {
	lexical := &stubLexical{results: []*catalog.SearchResult{
		lexResult("a", 3.0), lexResult("b", 2.0), lexResult("c", 1.0),
	}}
	engine := NewEngine(lexical, nil, 0.6)

	results, err := engine.Search(context.Background(), "standard", Options{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}
