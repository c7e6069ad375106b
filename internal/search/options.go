// Package search merges lexical and semantic retrieval into one ranked
// result list. The lexical leg is authoritative; the semantic leg is
// best-effort and its absence or failure never degrades a query below
// lexical-only quality.
package search

const (
	// DefaultSemanticWeight is the fraction of the fused score
	// attributed to semantic similarity.
	DefaultSemanticWeight = 0.6

	// DefaultMaxResults caps the fused result list.
	DefaultMaxResults = 10
)

// Options controls a single hybrid query.
type Options struct {
	// Limit caps the number of results (default DefaultMaxResults).
	Limit int

	// Category and SourceOrg filter both legs when non-empty.
	Category  string
	SourceOrg string

	// SemanticWeight overrides the engine default when non-nil.
	SemanticWeight *float64

	// SemanticThreshold excludes weak semantic matches before fusion.
	SemanticThreshold float64
}

func (o Options) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return DefaultMaxResults
}
