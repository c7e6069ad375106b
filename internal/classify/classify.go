// Package classify transforms raw scraped pages into structured catalog
// documents. Every function here is pure and deterministic: no I/O, no
// clock reads, no randomness. The same input always yields the same output,
// which is what makes document identity stable across re-ingestion.
package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

// Page builds a Document from a raw crawler record. Store-managed fields
// (CreatedAt, UpdatedAt) and RelatedStandards are left for the caller; the
// latter needs the corpus, which a pure per-page transformation cannot see.
func Page(raw catalog.RawPage) *catalog.Document {
	text := raw.Title + " " + raw.Content

	return &catalog.Document{
		ID:              DeriveID(raw.URL),
		Title:           strings.TrimSpace(raw.Title),
		Category:        raw.Category,
		URL:             raw.URL,
		Content:         raw.Content,
		Summary:         Summarize(raw.Content),
		LastUpdated:     raw.LastModified,
		SourceOrg:       raw.SourceOrg,
		Tags:            ExtractTags(text),
		ComplianceLevel: InferComplianceLevel(text),
	}
}

// DeriveID builds a document identity from the source URL: a lowercase
// slug of the URL path plus the first 8 hex characters of the URL's
// SHA-256. Same URL always yields the same ID; different URLs essentially
// never collide because of the hash suffix.
func DeriveID(rawURL string) string {
	slug := "doc"
	if u, err := url.Parse(rawURL); err == nil {
		if s := slugifyPath(u.Path); s != "" {
			slug = s
		}
	}

	sum := sha256.Sum256([]byte(rawURL))
	return slug + "-" + hex.EncodeToString(sum[:])[:8]
}

// slugifyPath lowercases a URL path, strips non-alphanumeric characters
// and joins the segments with dashes.
func slugifyPath(path string) string {
	var segments []string
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		var b strings.Builder
		for _, r := range seg {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			segments = append(segments, b.String())
		}
	}
	return strings.Join(segments, "-")
}

// ExtractTags matches the text against the three fixed vocabularies
// (technical, then government, then compliance) using
// case-insensitive substring containment. The result is a set in scan
// order, capped at MaxTags.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)

	tags := make([]string, 0, catalog.MaxTags)
	seen := make(map[string]struct{})

	for _, vocab := range [][]string{technicalTerms, governmentTerms, complianceTerms} {
		for _, term := range vocab {
			if len(tags) >= catalog.MaxTags {
				return tags
			}
			key := strings.ToLower(term)
			if _, dup := seen[key]; dup {
				continue
			}
			if strings.Contains(lower, key) {
				seen[key] = struct{}{}
				tags = append(tags, term)
			}
		}
	}

	return tags
}
