package models

// DefaultExposure is used when a holding has no exposure for a dimension.
const DefaultExposure = 0.5

// Exposure maps a dimension to a 0-1 score of how well the company manages it.
type Exposure map[Dimension]float64

// For returns the exposure for d, or DefaultExposure when absent.
func (e Exposure) For(d Dimension) float64 {
	if v, ok := e[d]; ok {
		return v
	}
	return DefaultExposure
}

// Clone returns an independent copy.
func (e Exposure) Clone() Exposure {
	if e == nil {
		return nil
	}
	out := make(Exposure, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// PortfolioEntity is a monitored holding.
type PortfolioEntity struct {
	CompanyID   string   `json:"company_id" yaml:"company_id" binding:"required"`
	Name        string   `json:"name" yaml:"name" binding:"required"`
	Sector      string   `json:"sector" yaml:"sector"`
	Country     string   `json:"country" yaml:"country"`
	MarketCap   float64  `json:"market_cap" yaml:"market_cap"`
	ESGExposure Exposure `json:"esg_exposure" yaml:"esg_exposure"`
}

// Clone returns a copy that shares no maps with e.
func (e PortfolioEntity) Clone() PortfolioEntity {
	e.ESGExposure = e.ESGExposure.Clone()
	return e
}

// RiskMetrics is the per-holding risk computed from exposure.
type RiskMetrics struct {
	EnvironmentalRisk float64   `json:"environmental_risk"`
	SocialRisk        float64   `json:"social_risk"`
	GovernanceRisk    float64   `json:"governance_risk"`
	OverallRisk       float64   `json:"overall_risk"`
	RiskLevel         RiskLevel `json:"risk_level"`
}

// PortfolioRiskSummary aggregates RiskMetrics over all holdings. Error is set, and
// everything else zero, when the portfolio has no holdings.
type PortfolioRiskSummary struct {
	PortfolioID              string  `json:"portfolio_id"`
	TotalCompanies           int     `json:"total_companies"`
	AverageOverallRisk       float64 `json:"average_overall_risk"`
	AverageEnvironmentalRisk float64 `json:"average_environmental_risk"`
	AverageSocialRisk        float64 `json:"average_social_risk"`
	AverageGovernanceRisk    float64 `json:"average_governance_risk"`
	MaxRisk                  float64 `json:"max_risk"`
	MinRisk                  float64 `json:"min_risk"`
	CompaniesAtHighRisk      int     `json:"companies_at_high_risk"`
	CompaniesAtMediumRisk    int     `json:"companies_at_medium_risk"`
	CompaniesAtLowRisk       int     `json:"companies_at_low_risk"`
	Error                    string  `json:"error,omitempty"`
}

// AtRiskCompany pairs a holding with its risk.
type AtRiskCompany struct {
	Company PortfolioEntity `json:"company"`
	Risk    RiskMetrics     `json:"risk"`
}

// PortfolioSummary describes the holdings, not their risk.
type PortfolioSummary struct {
	PortfolioID    string   `json:"portfolio_id"`
	TotalCompanies int      `json:"total_companies"`
	TotalMarketCap float64  `json:"total_market_cap"`
	Sectors        []string `json:"sectors"`
	Countries      []string `json:"countries"`
	AvgESGExposure Exposure `json:"avg_esg_exposure"`
}
