package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

const documentColumns = `id, title, category, url, content, summary,
	last_updated, source_org, tags, compliance_level, related_standards,
	created_at, updated_at`

// Upsert inserts or fully replaces a document by id. The lexical index is
// updated in the same transaction, so a lexical query issued after Upsert
// returns always observes the write. created_at is preserved across
// replacements; updated_at is set to now. Category counts need no
// maintenance; they are always computed live by Categories.
func (s *Store) Upsert(ctx context.Context, doc *catalog.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document with id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	tags, err := encodeStringList(doc.Tags)
	if err != nil {
		return err
	}
	related, err := encodeStringList(doc.RelatedStandards)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, category, url, content, summary,
			last_updated, source_org, tags, compliance_level, related_standards,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title             = excluded.title,
			category          = excluded.category,
			url               = excluded.url,
			content           = excluded.content,
			summary           = excluded.summary,
			last_updated      = excluded.last_updated,
			source_org        = excluded.source_org,
			tags              = excluded.tags,
			compliance_level  = excluded.compliance_level,
			related_standards = excluded.related_standards,
			updated_at        = excluded.updated_at`,
		doc.ID, doc.Title, doc.Category, doc.URL, doc.Content, doc.Summary,
		encodeTimePtr(doc.LastUpdated), doc.SourceOrg, tags,
		string(doc.ComplianceLevel), related,
		encodeTime(now), encodeTime(now))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}

	// FTS5 virtual tables have no REPLACE, so delete then insert.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fts_documents WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear index entry for %s: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fts_documents (doc_id, title, content, summary, tags)
		 VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, doc.Summary,
		strings.Join(doc.Tags, " ")); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	return tx.Commit()
}

// Get returns the document with the given id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// GetByURL returns the document with the given url, or nil when absent.
func (s *Store) GetByURL(ctx context.Context, url string) (*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE url = ?`, url)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// All returns every document ordered by creation time, oldest first. Used
// for related-document discovery and index rebuilds.
func (s *Store) All(ctx context.Context) ([]*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	return s.allLocked(ctx)
}

func (s *Store) allLocked(ctx context.Context) ([]*catalog.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Categories returns the live document count per category, ordered by
// count descending with name as the deterministic tie-break.
func (s *Store) Categories(ctx context.Context) ([]catalog.CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS n
		FROM documents
		GROUP BY category
		ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer rows.Close()

	var counts []catalog.CategoryCount
	for rows.Next() {
		var c catalog.CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// RecentlyUpdated returns documents whose source-reported update time OR
// store write time falls within the last daysBack days, most recent first.
// The source timestamp is preferred for ordering, with the store timestamp
// as fallback. The window test is an inclusive OR: a document written to
// the store recently qualifies even when its source timestamp is stale,
// and vice versa.
func (s *Store) RecentlyUpdated(ctx context.Context, daysBack int) ([]*catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	cutoff := encodeTime(time.Now().UTC().AddDate(0, 0, -daysBack))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE (last_updated IS NOT NULL AND last_updated >= ?) OR updated_at >= ?
		ORDER BY COALESCE(last_updated, updated_at) DESC, id ASC`,
		cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query recent documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// LogScrape appends an entry to the scraping audit log.
func (s *Store) LogScrape(ctx context.Context, url, status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scraping_log (url, status, error_message, scraped_at)
		VALUES (?, ?, ?, ?)`,
		url, status, errorMessage, encodeTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("append scraping log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*catalog.Document, error) {
	var (
		doc         catalog.Document
		lastUpdated sql.NullInt64
		compliance  sql.NullString
		tags        string
		related     string
		createdAt   int64
		updatedAt   int64
	)

	err := row.Scan(&doc.ID, &doc.Title, &doc.Category, &doc.URL,
		&doc.Content, &doc.Summary, &lastUpdated, &doc.SourceOrg,
		&tags, &compliance, &related, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	doc.LastUpdated = decodeTimePtr(lastUpdated)
	doc.ComplianceLevel = catalog.ComplianceLevel(compliance.String)
	doc.CreatedAt = decodeTime(createdAt)
	doc.UpdatedAt = decodeTime(updatedAt)

	if doc.Tags, err = decodeStringList(tags); err != nil {
		return nil, err
	}
	if doc.RelatedStandards, err = decodeStringList(related); err != nil {
		return nil, err
	}

	return &doc, nil
}

// scanDocumentWithScore scans a document row carrying a trailing score
// column, as produced by ranked FTS queries.
func scanDocumentWithScore(rows *sql.Rows) (*catalog.Document, float64, error) {
	var (
		doc         catalog.Document
		lastUpdated sql.NullInt64
		compliance  sql.NullString
		tags        string
		related     string
		createdAt   int64
		updatedAt   int64
		score       float64
	)

	err := rows.Scan(&doc.ID, &doc.Title, &doc.Category, &doc.URL,
		&doc.Content, &doc.Summary, &lastUpdated, &doc.SourceOrg,
		&tags, &compliance, &related, &createdAt, &updatedAt, &score)
	if err != nil {
		return nil, 0, err
	}

	doc.LastUpdated = decodeTimePtr(lastUpdated)
	doc.ComplianceLevel = catalog.ComplianceLevel(compliance.String)
	doc.CreatedAt = decodeTime(createdAt)
	doc.UpdatedAt = decodeTime(updatedAt)

	if doc.Tags, err = decodeStringList(tags); err != nil {
		return nil, 0, err
	}
	if doc.RelatedStandards, err = decodeStringList(related); err != nil {
		return nil, 0, err
	}

	return &doc, score, nil
}

func scanDocuments(rows *sql.Rows) ([]*catalog.Document, error) {
	var docs []*catalog.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
