package models

// Incident is an ESG event record. The five scored features are optional: a nil
// feature is replaced by the scoring model's default.
type Incident struct {
	IncidentID      string    `json:"incident_id"`
	Company         string    `json:"company"`
	Dimension       Dimension `json:"dimension"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	Source          string    `json:"source,omitempty"`
	Date            string    `json:"date,omitempty"`
	Severity        *float64  `json:"severity,omitempty"`
	MediaCoverage   *float64  `json:"media_coverage,omitempty"`
	FinancialImpact *float64  `json:"financial_impact,omitempty"`
	RegulatoryRisk  *float64  `json:"regulatory_risk,omitempty"`
	Sentiment       *float64  `json:"sentiment,omitempty"`
	Status          string    `json:"status,omitempty"`
}

// FeatureScores are the normalized 0-10 sub-scores of an incident.
type FeatureScores struct {
	Severity        float64 `json:"incident_severity"`
	MediaCoverage   float64 `json:"media_coverage"`
	FinancialImpact float64 `json:"financial_impact"`
	RegulatoryRisk  float64 `json:"regulatory_risk"`
	Sentiment       float64 `json:"stakeholder_sentiment"`
}

// Values returns the sub-scores in weight order.
func (f FeatureScores) Values() []float64 {
	return []float64{f.Severity, f.MediaCoverage, f.FinancialImpact, f.RegulatoryRisk, f.Sentiment}
}

// ScoreResult is the scoring model output for one incident.
type ScoreResult struct {
	IncidentID      string        `json:"incident_id"`
	FeatureScores   FeatureScores `json:"feature_scores"`
	OverallScore    float64       `json:"overall_score"`
	RiskLevel       RiskLevel     `json:"risk_level"`
	Confidence      float64       `json:"confidence"`
	Recommendations []string      `json:"recommendations"`
}

// NewsItem is a synthetic news article.
type NewsItem struct {
	NewsID         string  `json:"news_id"`
	Company        string  `json:"company"`
	Headline       string  `json:"headline"`
	Content        string  `json:"content"`
	URL            string  `json:"url"`
	PublishedDate  string  `json:"published_date"`
	Source         string  `json:"source"`
	SentimentScore float64 `json:"sentiment_score"`
	RelevanceScore float64 `json:"relevance_score"`
}

// MarketDataPoint is one synthetic daily price bar.
type MarketDataPoint struct {
	Date       string  `json:"date"`
	Company    string  `json:"company"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	HighPrice  float64 `json:"high_price"`
	LowPrice   float64 `json:"low_price"`
	Volume     int     `json:"volume"`
	Volatility float64 `json:"volatility"`
}
