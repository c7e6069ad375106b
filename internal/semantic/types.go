// Package semantic provides the optional embedding-based retrieval leg:
// pluggable embedders plus an in-memory HNSW index over document vectors.
// Everything here is best-effort; callers degrade to lexical-only retrieval
// when this package is unavailable.
package semantic

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultTimeout is the default timeout for embedding requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient provider failures.
	DefaultMaxRetries = 3

	// StaticDimensions is the embedding dimension of the static embedder.
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Metadata is the per-document payload carried by the index. It holds
// enough of the document to present a result when the primary store is
// not consulted.
type Metadata struct {
	ID        string
	Title     string
	Category  string
	SourceOrg string
	URL       string
	Summary   string
	Snippet   string
	Tags      []string
}

// Result is a single semantic match.
type Result struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// SearchOptions controls a semantic query.
type SearchOptions struct {
	// Limit caps the number of results. Zero means no cap beyond the
	// index size.
	Limit int

	// Category and SourceOrg filter results by exact match when
	// non-empty.
	Category  string
	SourceOrg string

	// Threshold excludes matches scoring strictly below it.
	Threshold float64
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
