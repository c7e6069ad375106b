package classify

import (
	"strings"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

// Indicator phrase sets for compliance-level inference. The sets are
// disjoint; each indicator contributes at most 1 to its count no matter
// how often it occurs (containment count, not frequency count).
var (
	mandatoryIndicators = []string{
		"must", "shall", "required", "mandatory", "legal requirement",
	}
	recommendedIndicators = []string{
		"should", "recommended", "best practice", "advised",
	}
	optionalIndicators = []string{
		"may", "can", "optional", "consider",
	}
)

// InferComplianceLevel classifies the obligation tier of the text.
//
// Decision rule, evaluated in order: mandatory wins only when its count
// strictly exceeds both others; otherwise recommended wins when its count
// strictly exceeds optional's; otherwise any optional indicator yields
// optional; otherwise the level is unset. A mandatory count tied with the
// recommended count falls through to the recommended/optional comparison;
// the tied mandatory signal is deliberately ignored.
func InferComplianceLevel(text string) catalog.ComplianceLevel {
	lower := strings.ToLower(text)

	mandatory := containmentCount(lower, mandatoryIndicators)
	recommended := containmentCount(lower, recommendedIndicators)
	optional := containmentCount(lower, optionalIndicators)

	switch {
	case mandatory > recommended && mandatory > optional:
		return catalog.ComplianceMandatory
	case recommended > optional:
		return catalog.ComplianceRecommended
	case optional > 0:
		return catalog.ComplianceOptional
	default:
		return ""
	}
}

// containmentCount counts how many indicators appear in the text at least
// once. Repeat occurrences of the same indicator do not increase the count.
func containmentCount(lower string, indicators []string) int {
	count := 0
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			count++
		}
	}
	return count
}
