package synthetic

import "esg-monitor/internal/models"

var (
	companies       = []string{"TechCorp", "GreenEnergy", "RetailGlobal", "FinanceFirst", "ConstructionPro"}
	incidentSources = []string{"news", "social_media", "internal_report", "regulatory_filing"}
	incidentStatus  = []string{"reported", "investigating", "resolved"}
	newsKeywords    = []string{"sustainability", "ESG", "carbon", "risk", "governance", "compliance", "ethics"}
	newsOutlets     = []string{"Reuters", "Bloomberg", "Financial Times", "BBC"}
)

var titleTemplates = map[models.Dimension][]string{
	models.Environmental: {
		"Carbon emissions exceed targets",
		"Environmental violation detected",
		"Waste management issue reported",
		"Water contamination reported",
	},
	models.Social: {
		"Labor dispute in facilities",
		"Community concern raised",
		"Diversity metrics questioned",
		"Health and safety incident reported",
	},
	models.Governance: {
		"Board governance issue flagged",
		"Executive compensation questioned",
		"Ethical violation reported",
		"Compliance breach detected",
	},
}

var descriptionTemplates = []string{
	"Multiple reports indicate potential issues in operations",
	"Internal investigation launched into reported concerns",
	"Third-party assessment revealed areas for improvement",
	"Stakeholders raised concerns about company practices",
	"New data suggests need for policy review and updates",
}

// Follow-up sentences appended to fallback records so that keyword density varies
// from record to record.
var contextTemplates = map[models.Dimension][]string{
	models.Environmental: {
		"Regulators are reviewing energy usage and pollution controls at two sites.",
		"Analysts flagged climate transition risk in the latest filing.",
		"No further details were disclosed.",
	},
	models.Social: {
		"Unions cited labor conditions and community impact in a joint statement.",
		"Human rights groups asked for an independent review.",
		"No further details were disclosed.",
	},
	models.Governance: {
		"The audit committee and the board will meet next week.",
		"Shareholders questioned executive oversight of compliance.",
		"No further details were disclosed.",
	},
}
