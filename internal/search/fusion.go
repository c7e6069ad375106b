package search

import (
	"sort"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
)

// snippetLength bounds the content carried by a synthesized result. The
// semantic index holds a snippet, not the authoritative full text.
const snippetLength = 300

// Fuse merges the two result sets under an additive blend: lexical
// scores are scaled by (1-weight) and each semantic hit adds its score
// times weight, either onto the existing lexical entry or as a new
// entry synthesized from the semantic metadata. The two base scales are
// not normalized against each other, so the weight is a blend knob
// rather than an exact percentage contribution.
func Fuse(lexical []*catalog.SearchResult, sem []semantic.Result, weight float64, maxResults int) []*catalog.SearchResult {
	fused := make([]*catalog.SearchResult, 0, len(lexical)+len(sem))
	byID := make(map[string]*catalog.SearchResult, len(lexical))

	for _, r := range lexical {
		scaled := &catalog.SearchResult{
			Document:       r.Document,
			RelevanceScore: r.RelevanceScore * (1 - weight),
			MatchedFields:  append([]string(nil), r.MatchedFields...),
		}
		fused = append(fused, scaled)
		byID[r.Document.ID] = scaled
	}

	for _, s := range sem {
		if existing, ok := byID[s.ID]; ok {
			existing.RelevanceScore += s.Score * weight
			existing.MatchedFields = append(existing.MatchedFields, catalog.FieldSemantic)
			continue
		}

		entry := &catalog.SearchResult{
			Document:       documentFromMetadata(s.Metadata),
			RelevanceScore: s.Score * weight,
			MatchedFields:  []string{catalog.FieldSemantic},
		}
		fused = append(fused, entry)
		byID[s.ID] = entry
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].RelevanceScore != fused[j].RelevanceScore {
			return fused[i].RelevanceScore > fused[j].RelevanceScore
		}
		return fused[i].Document.ID < fused[j].Document.ID
	})

	return truncate(fused, maxResults)
}

// documentFromMetadata builds a presentable partial document for a hit
// known only to the semantic index.
func documentFromMetadata(m semantic.Metadata) *catalog.Document {
	content := m.Snippet
	if len(content) > snippetLength {
		content = content[:snippetLength]
	}
	return &catalog.Document{
		ID:        m.ID,
		Title:     m.Title,
		Category:  m.Category,
		SourceOrg: m.SourceOrg,
		URL:       m.URL,
		Summary:   m.Summary,
		Content:   content,
		Tags:      m.Tags,
	}
}
