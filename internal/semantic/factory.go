package semantic

import (
	"context"
	"log/slog"
	"strings"
)

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses the Ollama HTTP API for embeddings.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses deterministic hash-based embeddings.
	ProviderStatic ProviderType = "static"
)

// ParseProvider converts a string to a ProviderType. Unknown values
// map to the static provider, which always works.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "ollama":
		return ProviderOllama
	default:
		return ProviderStatic
	}
}

// EmbedderOptions configures embedder construction.
type EmbedderOptions struct {
	Provider   ProviderType
	OllamaHost string
	Model      string
	Dimensions int
	CacheSize  int
}

// NewEmbedder builds an embedder for the requested provider, wrapped in
// an LRU cache. An unreachable Ollama host degrades to the static
// embedder with a warning rather than failing: semantic retrieval is
// optional everywhere in this system.
func NewEmbedder(ctx context.Context, opts EmbedderOptions) Embedder {
	var inner Embedder

	switch opts.Provider {
	case ProviderOllama:
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       opts.OllamaHost,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})
		if err != nil {
			slog.Warn("ollama embedder unavailable, falling back to static embeddings",
				slog.String("host", opts.OllamaHost),
				slog.String("error", err.Error()))
			inner = NewStaticEmbedder()
		} else {
			inner = ollama
		}
	default:
		inner = NewStaticEmbedder()
	}

	return NewCachedEmbedder(inner, opts.CacheSize)
}
