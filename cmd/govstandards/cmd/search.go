package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/config"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/logging"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/service"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

type searchOptions struct {
	limit     int
	category  string
	sourceOrg string
	format    string
	semantic  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the standards catalogue",
		Long: `Search the catalogue from the command line.

Keyword retrieval always runs. With --semantic the saved embedding
index joins in and results are fused, matching what the MCP server
returns.

Examples:
  govstandards search "API authentication"
  govstandards search "WCAG" --category Accessibility
  govstandards search "cloud hosting" --semantic --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVar(&opts.sourceOrg, "org", "", "Filter by publishing organisation")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.semantic, "semantic", false, "Include semantic retrieval")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// quiet by default; search output belongs to the user
	cleanup, err := logging.Setup(logging.Options{
		Level:    "error",
		FilePath: cfg.Logging.File,
		Stderr:   true,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	var index *semantic.Index
	if opts.semantic {
		index = loadSavedIndex(ctx, cfg)
		if index != nil {
			defer closeIndex(index)
		}
	}

	svc := service.New(cfg, st, index)
	results, err := svc.Search(ctx, query, service.SearchOptions{
		Limit:     opts.limit,
		Category:  opts.category,
		SourceOrg: opts.sourceOrg,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %s  [%s]  score=%.3f\n", i+1, r.Document.Title, r.Document.Category, r.RelevanceScore)
		fmt.Fprintf(out, "    %s\n", r.Document.URL)
		if len(r.MatchedFields) > 0 {
			fmt.Fprintf(out, "    matched: %s\n", strings.Join(r.MatchedFields, ", "))
		}
	}
	return nil
}

// loadSavedIndex restores the semantic snapshot written by serve or
// ingest --semantic. A missing or unusable snapshot degrades the
// search to lexical-only instead of failing.
func loadSavedIndex(ctx context.Context, cfg *config.Config) *semantic.Index {
	embedder := semantic.NewEmbedder(ctx, semantic.EmbedderOptions{
		Provider:   semantic.ParseProvider(cfg.Embeddings.Provider),
		OllamaHost: cfg.Embeddings.OllamaHost,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		CacheSize:  cfg.Embeddings.CacheSize,
	})

	index := semantic.NewIndex(embedder)
	if err := index.Load(cfg.IndexPath()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "semantic index unavailable: %v\n", err)
		}
		closeIndex(index)
		return nil
	}
	return index
}
