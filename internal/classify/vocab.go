package classify

// Tag vocabularies scanned in order: technical, then government, then
// compliance. Tag order on a document is scan order, not frequency order.
var technicalTerms = []string{
	"API", "REST", "GraphQL", "OAuth", "OpenID", "HTTPS", "TLS", "JSON",
	"XML", "cloud", "encryption", "microservices", "containers", "Kubernetes",
	"DevOps", "CI/CD", "open source", "open standards", "accessibility",
	"WCAG", "HTML", "CSS", "JavaScript", "database", "hosting", "DNS",
	"IPv6", "SaaS", "machine learning", "artificial intelligence",
}

var governmentTerms = []string{
	"GDS", "GOV.UK", "Cabinet Office", "CDDO", "NCSC", "HMRC", "NHS",
	"Home Office", "DWP", "MOD", "local authority", "central government",
	"public sector", "civil service", "Crown Commercial Service",
	"digital service standard", "service assessment", "spend controls",
}

var complianceTerms = []string{
	"GDPR", "data protection", "security classification", "Cyber Essentials",
	"ISO 27001", "accessibility regulations", "freedom of information",
	"audit", "assurance", "risk assessment", "compliance", "governance",
	"statutory", "regulation", "legislation",
}

// summaryKeywords boost sentences that mention core guidance vocabulary.
var summaryKeywords = []string{
	"standard", "service", "government", "must", "should", "digital",
	"security", "data", "user", "accessibility", "technology", "design",
	"compliance", "requirement", "guidance",
}

// relatedStopWords are excluded from the shared-keyword signal when
// discovering related documents.
var relatedStopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "will": {},
	"your": {}, "they": {}, "them": {}, "their": {}, "when": {}, "where": {},
	"what": {}, "which": {}, "should": {}, "must": {}, "about": {},
	"into": {}, "also": {}, "been": {}, "being": {}, "more": {}, "most": {},
	"other": {}, "some": {}, "such": {}, "than": {}, "then": {}, "these": {},
	"those": {}, "using": {}, "each": {},
}
