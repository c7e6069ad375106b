package classify

import (
	"strings"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

const (
	minSharedTags        = 2
	minSharedKeywords    = 3
	minKeywordLength     = 4
	maxCategoryOnlyLinks = 5
)

// FindRelated discovers documents related to doc within the corpus. Three
// independent signals qualify a candidate: at least 2 shared tags, the same
// category, or at least 3 shared significant keywords. The category signal
// alone is capped at 5 links so it can never fill the result on its own.
// The result is capped at MaxRelatedStandards and never contains doc itself.
func FindRelated(doc *catalog.Document, corpus []*catalog.Document) []string {
	docTags := tagSet(doc.Tags)
	docKeywords := significantKeywords(doc.Title + " " + doc.Content)

	related := make([]string, 0, catalog.MaxRelatedStandards)
	categoryOnly := 0

	for _, other := range corpus {
		if len(related) >= catalog.MaxRelatedStandards {
			break
		}
		if other.ID == doc.ID {
			continue
		}

		byTags := sharedCount(docTags, tagSet(other.Tags)) >= minSharedTags
		byCategory := other.Category != "" && other.Category == doc.Category
		byKeywords := sharedCount(docKeywords, significantKeywords(other.Title+" "+other.Content)) >= minSharedKeywords

		switch {
		case byTags || byKeywords:
			related = append(related, other.ID)
		case byCategory && categoryOnly < maxCategoryOnlyLinks:
			related = append(related, other.ID)
			categoryOnly++
		}
	}

	return related
}

// significantKeywords extracts lowercase words longer than 3 characters,
// minus the stop-list, as a set.
func significantKeywords(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	keywords := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < minKeywordLength {
			continue
		}
		if _, stop := relatedStopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}
	return keywords
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for k := range a {
		if _, ok := b[k]; ok {
			count++
		}
	}
	return count
}
