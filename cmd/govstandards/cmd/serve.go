package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/config"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/logging"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/mcp"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/service"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

func newServeCmd() *cobra.Command {
	var lexicalOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogue over MCP stdio",
		Long: `Start the MCP server on stdio.

stdout carries the JSON-RPC stream, so all logging goes to a file
under the data directory. Semantic search needs an embedding
provider; with --lexical-only the server skips it entirely and every
search degrades to keyword retrieval.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), lexicalOnly)
		},
	}

	cmd.Flags().BoolVar(&lexicalOnly, "lexical-only", false, "Disable the semantic index")
	return cmd
}

func runServe(ctx context.Context, lexicalOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = logging.DefaultLogPath(cfg.DataDir)
	}
	cleanup, err := logging.SetupStdio(cfg.Logging.Level, logFile)
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
	if !lexicalOnly {
		index = openSemanticIndex(ctx, cfg, st)
		if index != nil {
			defer closeIndex(index)
		}
	}

	svc := service.New(cfg, st, index)
	srv, err := mcp.NewServer(svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := srv.Serve(ctx)

	if index != nil {
		if err := svc.SaveIndex(cfg.IndexPath()); err != nil {
			slog.Warn("saving semantic index failed", slog.String("error", err.Error()))
		}
	}
	return serveErr
}

// openSemanticIndex builds the embedder and restores the index
// snapshot, rebuilding from the store when no usable snapshot exists.
// Returns nil when even the rebuild fails; the server then runs
// lexical-only.
func openSemanticIndex(ctx context.Context, cfg *config.Config, st *store.Store) *semantic.Index {
	embedder := semantic.NewEmbedder(ctx, semantic.EmbedderOptions{
		Provider:   semantic.ParseProvider(cfg.Embeddings.Provider),
		OllamaHost: cfg.Embeddings.OllamaHost,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		CacheSize:  cfg.Embeddings.CacheSize,
	})

	index := semantic.NewIndex(embedder)
	if err := index.Load(cfg.IndexPath()); err == nil {
		slog.Info("semantic index restored",
			slog.String("path", cfg.IndexPath()),
			slog.Int("documents", index.Count()))
		return index
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("semantic index snapshot unusable, rebuilding",
			slog.String("error", err.Error()))
	}

	if err := service.New(cfg, st, index).ReindexSemantic(ctx); err != nil {
		slog.Warn("semantic index rebuild failed, serving lexical-only",
			slog.String("error", err.Error()))
		closeIndex(index)
		return nil
	}
	return index
}

// closeIndex releases the index together with the embedder it was
// built around. Index.Close leaves the embedder to its owner, and for
// the CLI commands that owner is us.
func closeIndex(index *semantic.Index) {
	embedder := index.Embedder()
	_ = index.Close()
	_ = embedder.Close()
}
