package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
)

func lexResult(id string, score float64, fields ...string) *catalog.SearchResult {
	return &catalog.SearchResult{
		Document:       &catalog.Document{ID: id, Title: id},
		RelevanceScore: score,
		MatchedFields:  fields,
	}
}

func TestFuse_DocumentInBothLegsGetsAdditiveScore(t *testing.T) {
	// Given: one document present in both result sets
	lexical := []*catalog.SearchResult{lexResult("doc-1", 2.5, catalog.FieldContent)}
	sem := []semantic.Result{{ID: "doc-1", Score: 0.8}}
	w := 0.6

	// When: fusing
	fused := Fuse(lexical, sem, w, 10)

	// Then: fused score is exactly L*(1-w) + S*w
	require.Len(t, fused, 1)
	assert.InDelta(t, 2.5*(1-w)+0.8*w, fused[0].RelevanceScore, 1e-9)
	assert.Equal(t, []string{catalog.FieldContent, catalog.FieldSemantic}, fused[0].MatchedFields)
}

func TestFuse_SemanticOnlyDocumentIsSynthesized(t *testing.T) {
	sem := []semantic.Result{{
		ID:    "sem-only",
		Score: 0.9,
		Metadata: semantic.Metadata{
			ID:       "sem-only",
			Title:    "Cloud Security",
			Category: "security",
			URL:      "https://www.gov.uk/guidance/cloud-security",
			Snippet:  "Guidance on securing cloud workloads.",
		},
	}}
	w := 0.6

	fused := Fuse(nil, sem, w, 10)

	require.Len(t, fused, 1)
	assert.InDelta(t, 0.9*w, fused[0].RelevanceScore, 1e-9)
	assert.Equal(t, []string{catalog.FieldSemantic}, fused[0].MatchedFields)
	assert.Equal(t, "Cloud Security", fused[0].Document.Title)
	assert.Equal(t, "Guidance on securing cloud workloads.", fused[0].Document.Content)
}

func TestFuse_SynthesizedContentIsTruncated(t *testing.T) {
	long := make([]byte, snippetLength*2)
	for i := range long {
		long[i] = 'x'
	}

	fused := Fuse(nil, []semantic.Result{{
		ID:       "doc-1",
		Score:    0.5,
		Metadata: semantic.Metadata{ID: "doc-1", Snippet: string(long)},
	}}, 0.6, 10)

	require.Len(t, fused, 1)
	assert.Len(t, fused[0].Document.Content, snippetLength)
}

func TestFuse_SortsDescendingWithIDTieBreak(t *testing.T) {
	lexical := []*catalog.SearchResult{
		lexResult("b-doc", 1.0),
		lexResult("a-doc", 1.0),
		lexResult("c-doc", 3.0),
	}

	fused := Fuse(lexical, nil, 0.5, 10)

	require.Len(t, fused, 3)
	assert.Equal(t, "c-doc", fused[0].Document.ID)
	assert.Equal(t, "a-doc", fused[1].Document.ID)
	assert.Equal(t, "b-doc", fused[2].Document.ID)
}

func TestFuse_TruncatesToMaxResults(t *testing.T) {
	lexical := []*catalog.SearchResult{
		lexResult("a", 3.0), lexResult("b", 2.0), lexResult("c", 1.0),
	}

	fused := Fuse(lexical, nil, 0.5, 2)

	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].Document.ID)
	assert.Equal(t, "b", fused[1].Document.ID)
}

func TestFuse_DoesNotMutateLexicalInput(t *testing.T) {
	lexical := []*catalog.SearchResult{lexResult("doc-1", 2.0, catalog.FieldTitle)}

	_ = Fuse(lexical, []semantic.Result{{ID: "doc-1", Score: 0.5}}, 0.6, 10)

	assert.Equal(t, 2.0, lexical[0].RelevanceScore)
	assert.Equal(t, []string{catalog.FieldTitle}, lexical[0].MatchedFields)
}
