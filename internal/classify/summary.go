package classify

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

const (
	minSentenceLength  = 10
	positionBonusSpan  = 10
	keywordBonus       = 2.0
	idealLengthBonus   = 3.0
	idealWordCountLow  = 10
	idealWordCountHigh = 30
	summarySentences   = 3
)

// Summarize produces an extractive summary: the three highest-scoring
// sentences joined with ". ", capped at MaxSummaryLength. No paraphrasing.
//
// Sentence score = position bonus (10 falling linearly to 0 over the first
// 10 sentences) + 2 per domain keyword present + 3 when the word count is
// in [10,30]. The sort is stable, so ties keep original sentence order.
func Summarize(content string) string {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return ""
	}

	type scored struct {
		text  string
		score float64
	}

	candidates := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		score := 0.0
		if i < positionBonusSpan {
			score += float64(positionBonusSpan - i)
		}

		lower := strings.ToLower(s)
		for _, kw := range summaryKeywords {
			if strings.Contains(lower, kw) {
				score += keywordBonus
			}
		}

		if wc := len(strings.Fields(s)); wc >= idealWordCountLow && wc <= idealWordCountHigh {
			score += idealLengthBonus
		}

		candidates = append(candidates, scored{text: s, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := candidates
	if len(top) > summarySentences {
		top = top[:summarySentences]
	}

	parts := make([]string, len(top))
	for i, c := range top {
		parts[i] = c.text
	}

	summary := strings.Join(parts, ". ") + "."
	if len(summary) > catalog.MaxSummaryLength {
		cut := catalog.MaxSummaryLength - 3
		// Back up to a rune boundary so the cut never splits a
		// multibyte character.
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}
	return summary
}

// splitSentences breaks content on terminal punctuation and drops
// fragments shorter than minSentenceLength characters.
func splitSentences(content string) []string {
	raw := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(s) >= minSentenceLength {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
