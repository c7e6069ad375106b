package classify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/catalog"
)

// --- Identity derivation ---

func TestDeriveID_StableForSameURL(t *testing.T) {
	url := "https://www.gov.uk/guidance/the-technology-code-of-practice"

	id1 := DeriveID(url)
	id2 := DeriveID(url)

	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "guidance-thetechnologycodeofpractice-"))

	// 8-hex hash suffix
	parts := strings.Split(id1, "-")
	suffix := parts[len(parts)-1]
	require.Len(t, suffix, 8)
}

func TestDeriveID_DifferentURLsDiffer(t *testing.T) {
	a := DeriveID("https://www.gov.uk/guidance/api-standards")
	b := DeriveID("https://www.gov.uk/guidance/api-standards-v2")
	assert.NotEqual(t, a, b)
}

func TestDeriveID_EmptyPathFallsBackToDocSlug(t *testing.T) {
	id := DeriveID("https://www.gov.uk")
	assert.True(t, strings.HasPrefix(id, "doc-"))
}

// --- Tag extraction ---

func TestExtractTags_ScanOrderAndCase(t *testing.T) {
	text := "The NCSC recommends TLS and HTTPS for every API on GOV.UK"

	tags := ExtractTags(text)

	// Technical vocabulary is scanned before government vocabulary.
	require.Equal(t, []string{"API", "HTTPS", "TLS", "GOV.UK", "NCSC"}, tags)
}

func TestExtractTags_CapAtTwenty(t *testing.T) {
	// Mention every technical term plus several more
	text := strings.Join(technicalTerms, " ") + " " + strings.Join(governmentTerms, " ")

	tags := ExtractTags(text)

	assert.Len(t, tags, catalog.MaxTags)
}

func TestExtractTags_NoMatches(t *testing.T) {
	assert.Empty(t, ExtractTags("lorem ipsum dolor sit amet"))
}

// --- Compliance inference ---

func TestInferComplianceLevel(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    catalog.ComplianceLevel
	}{
		{
			name:    "mandatory indicators dominate",
			content: "Services must implement HTTPS and must log access.",
			want:    catalog.ComplianceMandatory,
		},
		{
			name:    "recommended indicators dominate",
			content: "Services should implement caching. This is recommended.",
			want:    catalog.ComplianceRecommended,
		},
		{
			name:    "optional indicators only",
			content: "Services may cache responses.",
			want:    catalog.ComplianceOptional,
		},
		{
			name:    "no indicators leaves level unset",
			content: "HTTPS everywhere.",
			want:    "",
		},
		{
			// A mandatory count tied with recommended falls through to the
			// recommended/optional comparison and ignores the mandatory signal.
			name:    "mandatory tied with recommended yields recommended",
			content: "Teams must encrypt data. Teams should rotate keys.",
			want:    catalog.ComplianceRecommended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferComplianceLevel(tt.content))
		})
	}
}

func TestInferComplianceLevel_ContainmentNotFrequency(t *testing.T) {
	// "should" appears three times but still counts once, so the single
	// distinct optional indicator ties it and recommended no longer wins.
	content := "You should. You should. You should. It can help."
	assert.Equal(t, catalog.ComplianceOptional, InferComplianceLevel(content))
}

// --- Summarization ---

func TestSummarize_TakesTopThreeSentences(t *testing.T) {
	content := "The service standard applies to all government digital services in the United Kingdom. " +
		"Short bit. " +
		"Every team must publish security and accessibility documentation for their technology. " +
		"Filler text with nothing of note here at all today, honestly nothing. " +
		"Data protection guidance covers storage, retention and user consent requirements."

	summary := Summarize(content)

	require.NotEmpty(t, summary)
	assert.True(t, strings.HasSuffix(summary, "."))
	assert.LessOrEqual(t, len(summary), catalog.MaxSummaryLength)
	// sentences shorter than 10 chars are discarded
	assert.NotContains(t, summary, "Short bit")
	assert.Contains(t, summary, "service standard")
}

func TestSummarize_TruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("This extremely long sentence talks about government digital service standards and security compliance requirements together with accessibility guidance, data protection duties, user research findings and technology design principles at considerable and deliberate length. ", 10)

	summary := Summarize(long)

	assert.Len(t, summary, catalog.MaxSummaryLength)
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestSummarize_TruncationKeepsValidUTF8(t *testing.T) {
	// A run of two-byte runes puts a rune straddling the cut point.
	long := strings.Repeat("£", 300) + " costs and charging guidance for government digital services"

	summary := Summarize(long)

	assert.True(t, utf8.ValidString(summary))
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.LessOrEqual(t, len(summary), catalog.MaxSummaryLength)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, "", Summarize(""))
	assert.Equal(t, "", Summarize("tiny. bit."))
}

// --- Related discovery ---

func relatedDoc(id, category string, tags []string, content string) *catalog.Document {
	return &catalog.Document{ID: id, Category: category, Tags: tags, Content: content}
}

func TestFindRelated_SharedTags(t *testing.T) {
	doc := relatedDoc("a", "APIs", []string{"REST", "OAuth", "HTTPS"}, "")
	corpus := []*catalog.Document{
		relatedDoc("b", "Security", []string{"REST", "OAuth"}, ""),
		relatedDoc("c", "Security", []string{"WCAG"}, ""),
	}

	got := FindRelated(doc, corpus)

	assert.Equal(t, []string{"b"}, got)
}

func TestFindRelated_ExcludesSelfAndCaps(t *testing.T) {
	doc := relatedDoc("a", "APIs", []string{"REST", "OAuth"}, "")

	corpus := []*catalog.Document{doc}
	for i := 0; i < 15; i++ {
		corpus = append(corpus, relatedDoc(string(rune('b'+i)), "Other", []string{"REST", "OAuth"}, ""))
	}

	got := FindRelated(doc, corpus)

	assert.Len(t, got, catalog.MaxRelatedStandards)
	assert.NotContains(t, got, "a")
}

func TestFindRelated_CategorySignalCapped(t *testing.T) {
	doc := relatedDoc("a", "APIs", nil, "")

	var corpus []*catalog.Document
	for i := 0; i < 9; i++ {
		corpus = append(corpus, relatedDoc(string(rune('b'+i)), "APIs", nil, ""))
	}

	got := FindRelated(doc, corpus)

	// same-category alone contributes at most 5 links
	assert.Len(t, got, 5)
}

func TestFindRelated_SharedKeywords(t *testing.T) {
	doc := relatedDoc("a", "APIs", nil, "authentication tokens expire after rotation periods")
	corpus := []*catalog.Document{
		relatedDoc("b", "Security", nil, "authentication tokens need rotation every quarter"),
		relatedDoc("c", "Security", nil, "unrelated prose entirely"),
	}

	got := FindRelated(doc, corpus)

	assert.Equal(t, []string{"b"}, got)
}

// --- Validation ---

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	doc := &catalog.Document{
		URL:      "not a url",
		Content:  strings.Repeat("x", catalog.MinContentLength),
		Category: "APIs",
	}

	result := Validate(doc)

	assert.False(t, result.Valid)
	// missing id, missing title and malformed url are reported together
	assert.Len(t, result.Errors, 3)
}

func TestValidate_ValidDocument(t *testing.T) {
	doc := &catalog.Document{
		ID:       "guidance-abc12345",
		Title:    "API guidance",
		URL:      "https://www.gov.uk/guidance/api",
		Content:  strings.Repeat("content ", 10),
		Category: "APIs",
	}

	result := Validate(doc)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_ShortContent(t *testing.T) {
	doc := &catalog.Document{
		ID:       "id",
		Title:    "t",
		URL:      "https://www.gov.uk/x",
		Content:  "too short",
		Category: "APIs",
	}

	result := Validate(doc)

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
}

// --- Page transformation ---

func TestPage_BuildsDocumentDeterministically(t *testing.T) {
	raw := catalog.RawPage{
		URL:      "https://www.gov.uk/guidance/api-standards",
		Title:    "API technical and data standards",
		Content:  "Services must use HTTPS for every REST API. Teams must publish OpenAPI descriptions for public endpoints.",
		Category: "APIs",
	}

	doc1 := Page(raw)
	doc2 := Page(raw)

	assert.Equal(t, doc1, doc2)
	assert.Equal(t, catalog.ComplianceMandatory, doc1.ComplianceLevel)
	assert.Contains(t, doc1.Tags, "API")
	assert.Contains(t, doc1.Tags, "HTTPS")
	assert.NotEmpty(t, doc1.Summary)
}
