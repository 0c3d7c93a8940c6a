package portfolio

import "esg-monitor/internal/models"

// DefaultCompanies returns the built-in holdings.
func DefaultCompanies() []models.PortfolioEntity {
	return []models.PortfolioEntity{
		{
			CompanyID:   "COMP001",
			Name:        "TechCorp Industries",
			Sector:      "Technology",
			Country:     "USA",
			MarketCap:   500e9,
			ESGExposure: models.Exposure{models.Environmental: 0.8, models.Social: 0.6, models.Governance: 0.7},
		},
		{
			CompanyID:   "COMP002",
			Name:        "GreenEnergy Ltd",
			Sector:      "Energy",
			Country:     "UK",
			MarketCap:   150e9,
			ESGExposure: models.Exposure{models.Environmental: 0.95, models.Social: 0.5, models.Governance: 0.8},
		},
		{
			CompanyID:   "COMP003",
			Name:        "RetailGlobal Co",
			Sector:      "Retail",
			Country:     "Canada",
			MarketCap:   80e9,
			ESGExposure: models.Exposure{models.Environmental: 0.6, models.Social: 0.85, models.Governance: 0.65},
		},
		{
			CompanyID:   "COMP004",
			Name:        "FinanceFirst Group",
			Sector:      "Finance",
			Country:     "Singapore",
			MarketCap:   200e9,
			ESGExposure: models.Exposure{models.Environmental: 0.5, models.Social: 0.7, models.Governance: 0.95},
		},
		{
			CompanyID:   "COMP005",
			Name:        "ConstructionPro Ltd",
			Sector:      "Construction",
			Country:     "Germany",
			MarketCap:   50e9,
			ESGExposure: models.Exposure{models.Environmental: 0.75, models.Social: 0.65, models.Governance: 0.6},
		},
	}
}
