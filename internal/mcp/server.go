package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
	"github.com/Version1/uk-gov-tech-standards-mcp/internal/service"
	"github.com/Version1/uk-gov-tech-standards-mcp/pkg/version"
)

const serverName = "govstandards"

// Server bridges MCP clients with the standards catalogue.
type Server struct {
	mcp    *mcp.Server
	svc    *service.Service
	logger *slog.Logger
}

// NewServer builds the MCP server and registers its tools.
func NewServer(svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}

	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_standards",
		Description: "Search UK government technology standards and guidance. " +
			"Combines keyword and semantic matching; an empty query lists the " +
			"catalogue alphabetically. Supports category and organisation filters.",
	}, s.searchStandardsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_standard",
		Description: "Fetch one standard in full by its id, including content, " +
			"tags, compliance level and related standards.",
	}, s.getStandardHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_categories",
		Description: "List guidance categories with live document counts and " +
			"their applicability context (work types, service types, phases).",
	}, s.listCategoriesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "recently_updated",
		Description: "List standards updated within a look-back window, newest " +
			"first. Uses the source-reported date when present.",
	}, s.recentlyUpdatedHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "ingest_page",
		Description: "Classify, validate and store one scraped guidance page. " +
			"A page that fails validation is reported, not stored.",
	}, s.ingestPageHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 5))
}

func (s *Server) searchStandardsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchStandardsInput) (
	*mcp.CallToolResult,
	SearchStandardsOutput,
	error,
) {
	if input.SemanticWeight != nil && (*input.SemanticWeight < 0 || *input.SemanticWeight > 1) {
		return nil, SearchStandardsOutput{}, NewInvalidParamsError("semantic_weight must be between 0 and 1")
	}
	if input.Limit < 0 {
		return nil, SearchStandardsOutput{}, NewInvalidParamsError("limit must not be negative")
	}

	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("search started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("category", input.Category))

	results, err := s.svc.Search(ctx, input.Query, service.SearchOptions{
		Limit:          input.Limit,
		Category:       input.Category,
		SourceOrg:      input.SourceOrg,
		SemanticWeight: input.SemanticWeight,
	})
	if err != nil {
		s.logger.Error("search failed",
			slog.String("request_id", requestID),
			slog.Any("error", apperrors.FormatForLog(err)))
		return nil, SearchStandardsOutput{}, MapError(err)
	}

	s.logger.Info("search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(results)))

	output := SearchStandardsOutput{Results: make([]StandardSummary, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, summarize(r))
	}
	return nil, output, nil
}

func (s *Server) getStandardHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetStandardInput) (
	*mcp.CallToolResult,
	GetStandardOutput,
	error,
) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, GetStandardOutput{}, NewInvalidParamsError("id parameter is required")
	}

	doc, err := s.svc.Get(ctx, input.ID)
	if err != nil {
		return nil, GetStandardOutput{}, MapError(err)
	}
	return nil, GetStandardOutput{Standard: doc}, nil
}

func (s *Server) listCategoriesHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListCategoriesInput) (
	*mcp.CallToolResult,
	ListCategoriesOutput,
	error,
) {
	categories, err := s.svc.Categories(ctx)
	if err != nil {
		return nil, ListCategoriesOutput{}, MapError(err)
	}
	return nil, ListCategoriesOutput{Categories: categories}, nil
}

func (s *Server) recentlyUpdatedHandler(ctx context.Context, _ *mcp.CallToolRequest, input RecentlyUpdatedInput) (
	*mcp.CallToolResult,
	RecentlyUpdatedOutput,
	error,
) {
	days := input.Days
	if days < 0 {
		return nil, RecentlyUpdatedOutput{}, NewInvalidParamsError("days must not be negative")
	}
	if days == 0 {
		days = 30
	}

	docs, err := s.svc.RecentlyUpdated(ctx, days)
	if err != nil {
		return nil, RecentlyUpdatedOutput{}, MapError(err)
	}

	output := RecentlyUpdatedOutput{Standards: make([]StandardSummary, 0, len(docs))}
	for _, doc := range docs {
		output.Standards = append(output.Standards, summarizeDoc(doc))
	}
	return nil, output, nil
}

func (s *Server) ingestPageHandler(ctx context.Context, _ *mcp.CallToolRequest, input IngestPageInput) (
	*mcp.CallToolResult,
	IngestPageOutput,
	error,
) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, IngestPageOutput{}, NewInvalidParamsError("url parameter is required")
	}

	raw := catalog.RawPage{
		URL:       input.URL,
		Title:     input.Title,
		Content:   input.Content,
		Category:  input.Category,
		SourceOrg: input.SourceOrg,
	}
	if input.LastModified != "" {
		ts, err := time.Parse(time.RFC3339, input.LastModified)
		if err != nil {
			return nil, IngestPageOutput{}, NewInvalidParamsError("last_modified must be RFC 3339")
		}
		raw.LastModified = &ts
	}

	report, err := s.svc.Ingest(ctx, raw)
	if err != nil {
		return nil, IngestPageOutput{}, MapError(err)
	}

	output := IngestPageOutput{
		Stored: report.Validation.Valid,
		Errors: report.Validation.Errors,
	}
	if report.Document != nil {
		output.ID = report.Document.ID
	}
	return nil, output, nil
}

// Serve runs the server over stdio until ctx is canceled. Logging must
// already be file-only; stdout carries the JSON-RPC stream.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.Any("error", apperrors.FormatForLog(err)))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func generateRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "req-unknown"
	}
	return "req-" + hex.EncodeToString(b[:])
}
