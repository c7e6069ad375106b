package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/logging"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/semantic"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/service"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/store"
)

// scanner buffer cap; guidance pages run long but not unbounded
const maxRecordBytes = 8 * 1024 * 1024

func newIngestCmd() *cobra.Command {
	var withSemantic bool

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest scraped pages from a JSON stream",
		Long: `Read newline-delimited JSON crawler records from a file, or from
stdin when no file is given, and ingest them into the catalogue.

Each line is one record. Records that fail to parse or validate are
logged and skipped; the rest of the stream still loads. With
--semantic the embedding index is updated as documents land and saved
when the stream ends.

Example record:
  {"url":"https://www.gov.uk/guidance/api-standards","title":"API standards","category":"APIs","content":"..."}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				input = f
			}
			return runIngest(cmd.Context(), cmd, input, withSemantic)
		},
	}

	cmd.Flags().BoolVar(&withSemantic, "semantic", false, "Update the semantic index while ingesting")
	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, input io.Reader, withSemantic bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cleanup, err := logging.Setup(logging.Options{
		Level:    cfg.Logging.Level,
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
	if withSemantic {
		index = openSemanticIndex(ctx, cfg, st)
		if index != nil {
			defer closeIndex(index)
		}
	}
	svc := service.New(cfg, st, index)

	var stored, rejected, malformed int
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var raw catalog.RawPage
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			slog.Warn("skipping malformed record",
				slog.Int("line", line),
				slog.String("error", err.Error()))
			malformed++
			continue
		}

		report, err := svc.Ingest(ctx, raw)
		if err != nil {
			return err
		}
		if report.Validation.Valid {
			stored++
		} else {
			rejected++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if index != nil {
		if err := svc.SaveIndex(cfg.IndexPath()); err != nil {
			slog.Warn("saving semantic index failed", slog.String("error", err.Error()))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d, rejected %d, malformed %d\n",
		stored, rejected, malformed)
	return nil
}
