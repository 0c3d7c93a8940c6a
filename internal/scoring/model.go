// Package scoring rates ESG incidents with a fixed linear feature weighting.
package scoring

import (
	"math"

	"go.uber.org/zap"

	"esg-monitor/internal/metrics"
	"esg-monitor/internal/models"
)

// ModelVersion identifies the weighting scheme.
const ModelVersion = "1.0"

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Feature defaults for incidents that do not report a value.
const (
	DefaultSeverity        = 5.0
	DefaultMediaCoverage   = 3.0
	DefaultFinancialImpact = 4.0
	DefaultRegulatoryRisk  = 5.0
	DefaultSentiment       = 0.5
)

// Weights are the feature weights; they sum to 1.
type Weights struct {
	Severity        float64 `json:"incident_severity"`
	MediaCoverage   float64 `json:"media_coverage"`
	FinancialImpact float64 `json:"financial_impact"`
	RegulatoryRisk  float64 `json:"regulatory_risk"`
	Sentiment       float64 `json:"stakeholder_sentiment"`
}

// DefaultWeights returns the fixed feature weights.
func DefaultWeights() Weights {
	return Weights{
		Severity:        0.30,
		MediaCoverage:   0.20,
		FinancialImpact: 0.25,
		RegulatoryRisk:  0.15,
		Sentiment:       0.10,
	}
}

// Info describes the model.
type Info struct {
	Version        string             `json:"version"`
	FeatureWeights Weights            `json:"feature_weights"`
	MaxScore       float64            `json:"max_score"`
	MinScore       float64            `json:"min_score"`
	RiskLevels     []models.RiskLevel `json:"risk_levels"`
}

// Model scores incidents. It is stateless and safe for concurrent use.
type Model struct {
	weights Weights
	logger  *zap.Logger
}

// NewModel returns a model with the fixed weights.
func NewModel(logger *zap.Logger) *Model {
	logger.Info("Initialized ESG scoring model", zap.String("version", ModelVersion))
	return &Model{weights: DefaultWeights(), logger: logger}
}

// Score rates a single incident.
func (m *Model) Score(incident models.Incident) models.ScoreResult {
	scores := featureScores(incident)
	overall := m.overall(scores)
	id := incident.IncidentID
	if id == "" {
		id = "unknown"
	}
	result := models.ScoreResult{
		IncidentID:      id,
		FeatureScores:   scores,
		OverallScore:    overall,
		RiskLevel:       Classify(overall),
		Confidence:      confidence(scores),
		Recommendations: Recommendations(overall),
	}
	metrics.IncidentsScored.WithLabelValues(string(result.RiskLevel)).Inc()
	return result
}

// ScoreBatch rates incidents independently, in input order.
func (m *Model) ScoreBatch(incidents []models.Incident) []models.ScoreResult {
	results := make([]models.ScoreResult, 0, len(incidents))
	for _, inc := range incidents {
		results = append(results, m.Score(inc))
	}
	m.logger.Info("Batch scored incidents", zap.Int("count", len(incidents)))
	return results
}

// Info returns the model description.
func (m *Model) Info() Info {
	return Info{
		Version:        ModelVersion,
		FeatureWeights: m.weights,
		MaxScore:       MaxScore,
		MinScore:       MinScore,
		RiskLevels:     []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical},
	}
}

func featureScores(inc models.Incident) models.FeatureScores {
	sentiment := math.Max(-1, math.Min(1, valueOr(inc.Sentiment, DefaultSentiment)))
	return models.FeatureScores{
		Severity:        normalize(valueOr(inc.Severity, DefaultSeverity), 10),
		MediaCoverage:   normalize(valueOr(inc.MediaCoverage, DefaultMediaCoverage), 5),
		FinancialImpact: normalize(valueOr(inc.FinancialImpact, DefaultFinancialImpact), 8),
		RegulatoryRisk:  normalize(valueOr(inc.RegulatoryRisk, DefaultRegulatoryRisk), 10),
		Sentiment:       math.Abs(sentiment) * 10,
	}
}

// normalize maps raw onto 0-10 where divisor maps to 10.
func normalize(raw, divisor float64) float64 {
	return clamp(raw / divisor * 10)
}

func (m *Model) overall(s models.FeatureScores) float64 {
	sum := s.Severity*m.weights.Severity +
		s.MediaCoverage*m.weights.MediaCoverage +
		s.FinancialImpact*m.weights.FinancialImpact +
		s.RegulatoryRisk*m.weights.RegulatoryRisk +
		s.Sentiment*m.weights.Sentiment
	return round2(clamp(sum))
}

// Classify maps an overall score to a risk level.
func Classify(score float64) models.RiskLevel {
	switch {
	case score >= 7.5:
		return models.RiskCritical
	case score >= 5.0:
		return models.RiskHigh
	case score >= 3.0:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// confidence is 1 - min(var/25, 1) over the sub-scores, using population
// variance. Agreement across features reads as confidence; the constant is a
// heuristic and is kept as is.
func confidence(s models.FeatureScores) float64 {
	values := s.Values()
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return round2(1 - math.Min(variance/25, 1))
}

// Recommendations returns the advice tier for an overall score.
func Recommendations(score float64) []string {
	switch {
	case score >= 8.5:
		return []string{
			"Immediate escalation to executive team required",
			"Activate crisis management protocol",
			"Prepare stakeholder communication",
		}
	case score >= 7.0:
		return []string{
			"High priority review recommended",
			"Monitor closely for developments",
			"Assess regulatory implications",
		}
	case score >= 5.0:
		return []string{
			"Regular monitoring advised",
			"Track for trend changes",
		}
	default:
		return []string{}
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return *v
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
