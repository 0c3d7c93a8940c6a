package executor

import (
	"math"
	"strings"

	"esg-monitor/internal/models"
)

// keywordIncrement is added to a record's relevance for every matched keyword.
const keywordIncrement = 0.2

var dimensionKeywords = map[models.Dimension][]string{
	models.Environmental: {"environment", "climate", "emission", "pollution", "waste", "energy"},
	models.Social:        {"social", "diversity", "labor", "human rights", "community", "stakeholder"},
	models.Governance:    {"governance", "board", "executive", "ethics", "compliance", "audit"},
}

// Keywords returns the keyword set for dim.
func Keywords(dim models.Dimension) []string {
	return dimensionKeywords[dim]
}

// Relevance scores text against the keyword set of dim. Matching is a
// case-insensitive substring test, so "emissions" matches "emission".
func Relevance(text string, dim models.Dimension) (float64, []string) {
	lower := strings.ToLower(text)
	var matched []string
	score := 0.0
	for _, kw := range dimensionKeywords[dim] {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
			score += keywordIncrement
		}
	}
	return round2(math.Min(score, 1.0)), matched
}

func processRecords(records []models.Record, dim models.Dimension) []models.ProcessedRecord {
	out := make([]models.ProcessedRecord, 0, len(records))
	for _, r := range records {
		score, matched := Relevance(r.Title+" "+r.Content, dim)
		out = append(out, models.ProcessedRecord{
			RecordID:        r.ID,
			Title:           r.Title,
			Relevance:       score,
			MatchedKeywords: matched,
		})
	}
	return out
}

// computeMetrics derives task metrics from the relevance distribution.
// An empty distribution gives zero metrics.
func computeMetrics(processed []models.ProcessedRecord, sectorWeight float64) models.Metrics {
	if len(processed) == 0 {
		return models.Metrics{}
	}
	var sum, peak float64
	for _, p := range processed {
		sum += p.Relevance
		if p.Relevance > peak {
			peak = p.Relevance
		}
	}
	mean := sum / float64(len(processed))
	return models.Metrics{
		RiskScore:        clampScore(10 * mean),
		MaterialityScore: clampScore(10 * mean * sectorWeight),
		Severity:         clampScore(10 * peak),
	}
}

func clampScore(v float64) float64 {
	return round2(math.Max(0, math.Min(10, v)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
