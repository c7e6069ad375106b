package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// sentinelScore is assigned to every result of an empty-query listing.
// It is non-negative and carries no ranking signal.
const sentinelScore = 1.0

// lexicalSearchLimit bounds ranked keyword queries.
const lexicalSearchLimit = 100

// LexicalSearch performs ranked keyword matching over the FTS5 index.
//
// An empty or whitespace query returns every document matching the
// filters, ordered by title, each with the sentinel score. Otherwise the
// query is tokenized and matched; FTS5's bm25() ranks lower-is-better, so
// scores are negated before being exposed (higher = better, consistent
// with the rest of the system).
//
// If the query fails with an index-corruption signature the derived index
// is dropped, recreated and bulk-rebuilt from the primary records, and
// the query is retried exactly once. A second failure propagates.
func (s *Store) LexicalSearch(ctx context.Context, query string, f Filters) ([]*catalog.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return s.listByFilters(ctx, f)
	}

	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return []*catalog.SearchResult{}, nil
	}

	results, err := s.lexicalSearchOnce(ctx, tokens, f)
	if err == nil {
		return results, nil
	}
	if !isIndexCorruption(err) {
		return nil, err
	}

	slog.Warn("lexical index corruption detected, rebuilding",
		slog.String("error", err.Error()))

	if rebuildErr := s.RebuildLexicalIndex(ctx); rebuildErr != nil {
		return nil, apperrors.New(apperrors.ErrCodeCorruptIndex,
			"lexical index rebuild failed", rebuildErr)
	}

	// Retry exactly once; a second failure propagates to the caller.
	results, err = s.lexicalSearchOnce(ctx, tokens, f)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeCorruptIndex,
			"lexical query failed after index rebuild", err)
	}
	return results, nil
}

func (s *Store) lexicalSearchOnce(ctx context.Context, tokens []string, f Filters) ([]*catalog.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	match := strings.Join(tokens, " ")

	query := `
		SELECT ` + prefixColumns("d") + `, bm25(fts_documents) AS score
		FROM fts_documents
		JOIN documents d ON d.id = fts_documents.doc_id
		WHERE fts_documents MATCH ?`
	args := []any{match}

	if f.Category != "" {
		query += ` AND d.category = ?`
		args = append(args, f.Category)
	}
	if f.SourceOrg != "" {
		query += ` AND d.source_org = ?`
		args = append(args, f.SourceOrg)
	}
	query += ` ORDER BY score LIMIT ?`
	args = append(args, lexicalSearchLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical query: %w", err)
	}
	defer rows.Close()

	var results []*catalog.SearchResult
	for rows.Next() {
		doc, score, err := scanDocumentWithScore(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &catalog.SearchResult{
			Document: doc,
			// bm25() is negative, lower = better; negate so higher = better.
			RelevanceScore: -score,
			MatchedFields:  matchedFields(doc, tokens),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if results == nil {
		results = []*catalog.SearchResult{}
	}
	return results, nil
}

// listByFilters returns all documents matching the filters ordered by
// title, each carrying the sentinel score.
func (s *Store) listByFilters(ctx context.Context, f Filters) ([]*catalog.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	var conds []string

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.SourceOrg != "" {
		conds = append(conds, "source_org = ?")
		args = append(args, f.SourceOrg)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}

	results := make([]*catalog.SearchResult, len(docs))
	for i, doc := range docs {
		results[i] = &catalog.SearchResult{
			Document:       doc,
			RelevanceScore: sentinelScore,
			MatchedFields:  []string{},
		}
	}
	return results, nil
}

// RebuildLexicalIndex drops the derived FTS5 index, recreates it empty
// and repopulates it from the primary records. O(n) in document count;
// safe because the documents table is the source of truth.
func (s *Store) RebuildLexicalIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS fts_documents`); err != nil {
		return fmt.Errorf("drop lexical index: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		CREATE VIRTUAL TABLE fts_documents USING fts5(
			doc_id UNINDEXED,
			title,
			content,
			summary,
			tags,
			tokenize='unicode61'
		)`); err != nil {
		return fmt.Errorf("recreate lexical index: %w", err)
	}

	docs, err := s.allLocked(ctx)
	if err != nil {
		return fmt.Errorf("load documents for rebuild: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fts_documents (doc_id, title, content, summary, tags)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rebuild statement: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Title, doc.Content,
			doc.Summary, strings.Join(doc.Tags, " ")); err != nil {
			return fmt.Errorf("reindex document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("lexical index rebuilt", slog.Int("documents", len(docs)))
	return nil
}

// tokenizeQuery lowercases the query and keeps alphanumeric runs. The
// sanitized tokens cannot produce FTS5 operator syntax, so a syntax error
// from a MATCH implies an index fault rather than bad input.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// isIndexCorruption reports whether an error signature indicates a fault
// in the derived FTS5 structure rather than in the primary table.
func isIndexCorruption(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{
		"malformed",
		"corrupt",
		"fts5",
		"no such table: fts_documents",
		"syntax error",
		"vtable constructor",
	} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// matchedFields reports which indexed fields contain at least one query
// token, in canonical order.
func matchedFields(doc *catalog.Document, tokens []string) []string {
	lowerTitle := strings.ToLower(doc.Title)
	lowerContent := strings.ToLower(doc.Content)
	lowerSummary := strings.ToLower(doc.Summary)
	lowerTags := strings.ToLower(strings.Join(doc.Tags, " "))

	fields := make([]string, 0, 4)
	for _, pair := range []struct {
		name string
		text string
	}{
		{catalog.FieldTitle, lowerTitle},
		{catalog.FieldContent, lowerContent},
		{catalog.FieldSummary, lowerSummary},
		{catalog.FieldTags, lowerTags},
	} {
		for _, tok := range tokens {
			if strings.Contains(pair.text, tok) {
				fields = append(fields, pair.name)
				break
			}
		}
	}
	return fields
}

// prefixColumns qualifies the document column list with a table alias.
func prefixColumns(alias string) string {
	cols := strings.Split(documentColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
