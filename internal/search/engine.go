package search

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

// Lexical is the keyword-ranked leg of the engine.
type Lexical interface {
	LexicalSearch(ctx context.Context, query string, f store.Filters) ([]*catalog.SearchResult, error)
}

// Semantic is the embedding leg of the engine. Implementations are
// optional: a nil Semantic yields lexical-only retrieval.
type Semantic interface {
	Search(ctx context.Context, query string, opts semantic.SearchOptions) ([]semantic.Result, error)
}

// Engine combines both retrieval legs under a configurable blend.
type Engine struct {
	lexical        Lexical
	semantic       Semantic
	semanticWeight float64
}

// NewEngine creates a hybrid search engine. sem may be nil for
// lexical-only operation.
func NewEngine(lexical Lexical, sem Semantic, semanticWeight float64) *Engine {
	if semanticWeight < 0 || semanticWeight > 1 {
		semanticWeight = DefaultSemanticWeight
	}
	return &Engine{
		lexical:        lexical,
		semantic:       sem,
		semanticWeight: semanticWeight,
	}
}

// Search runs both legs in parallel and fuses their results. A lexical
// failure is a hard error; a semantic failure degrades to lexical-only
// results. Empty queries list filter-matching documents and skip the
// semantic leg entirely.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]*catalog.SearchResult, error) {
	filters := store.Filters{Category: opts.Category, SourceOrg: opts.SourceOrg}
	limit := opts.limit()

	runSemantic := e.semantic != nil && strings.TrimSpace(query) != ""

	var lexResults []*catalog.SearchResult
	var semResults []semantic.Result
	var semErr error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		lexResults, err = e.lexical.LexicalSearch(gctx, query, filters)
		return err
	})

	if runSemantic {
		g.Go(func() error {
			var err error
			semResults, err = e.semantic.Search(gctx, query, semantic.SearchOptions{
				Limit:     limit,
				Category:  opts.Category,
				SourceOrg: opts.SourceOrg,
				Threshold: opts.SemanticThreshold,
			})
			if err != nil {
				// Record for the degrade decision; never fail the group.
				semErr = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !runSemantic || semErr != nil {
		if semErr != nil {
			slog.Warn("semantic search unavailable, returning lexical results",
				slog.String("query", query),
				slog.String("error", semErr.Error()))
		}
		return truncate(lexResults, limit), nil
	}

	weight := e.semanticWeight
	if opts.SemanticWeight != nil {
		weight = *opts.SemanticWeight
	}

	return Fuse(lexResults, semResults, weight, limit), nil
}

func truncate(results []*catalog.SearchResult, limit int) []*catalog.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
