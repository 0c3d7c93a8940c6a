package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"esg-monitor/internal/metrics"
	"esg-monitor/internal/models"
)

// Recommendation texts
const (
	RecReviewSource    = "Low data quality - review source data"
	RecRerun           = "Quality below validation threshold - consider re-running the task"
	RecEscalate        = "High risk detected - escalate to management"
	RecImmediate       = "High severity detected - requires immediate attention"
	RecFailedChecksFmt = "Failed checks: %s"
	RecValidated       = "Result validated successfully"
)

// Validator judges execution results. It holds no per-call state.
type Validator struct {
	cfg    Config
	checks []checkFunc
	logger *zap.Logger
	now    func() time.Time
}

// NewValidator validates cfg and returns a validator.
func NewValidator(cfg Config, logger *zap.Logger) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validator config: %w", err)
	}
	return &Validator{
		cfg:    cfg,
		checks: defaultChecks(),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Validate runs every check against result. It never panics: an internal failure
// yields an invalid report with a failed validation_error check.
func (v *Validator) Validate(result models.ExecutionResult) (report models.ValidationReport) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("Validation failed", zap.String("task_id", result.TaskID), zap.Any("panic", r))
			report = models.ValidationReport{
				TaskID:       result.TaskID,
				IsValid:      false,
				QualityScore: 0,
				Checks: []models.Check{
					failed(CheckValidationError, fmt.Sprint(r)),
				},
				Recommendations: []string{fmt.Sprintf(RecFailedChecksFmt, CheckValidationError)},
				ValidatedAt:     v.now().UTC(),
			}
		}
		metrics.Validations.WithLabelValues(strconv.FormatBool(report.IsValid)).Inc()
	}()

	var checks []models.Check
	for _, check := range v.checks {
		checks = append(checks, check(result)...)
	}

	quality := v.qualityScore(result)
	allPassed := true
	for _, c := range checks {
		if !c.Passed() {
			allPassed = false
			break
		}
	}

	report = models.ValidationReport{
		TaskID:          result.TaskID,
		IsValid:         allPassed && quality >= v.cfg.ValidationThreshold,
		QualityScore:    quality,
		Checks:          checks,
		Recommendations: v.recommendations(result, quality, checks),
		ValidatedAt:     v.now().UTC(),
	}

	v.logger.Info("Validation completed",
		zap.String("task_id", result.TaskID),
		zap.Bool("is_valid", report.IsValid),
		zap.Float64("quality_score", quality))
	return report
}

// ValidateAll validates each result independently, keeping order.
func (v *Validator) ValidateAll(results []models.ExecutionResult) []models.ValidationReport {
	reports := make([]models.ValidationReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, v.Validate(r))
	}
	return reports
}

// qualityScore averages one component per present metric (1.0 in range, 0.5
// otherwise) and one for processed data (1.0 non-empty, 0.3 otherwise).
// The constants are heuristic and kept for compatibility of scores.
func (v *Validator) qualityScore(r models.ExecutionResult) float64 {
	var components []float64
	if r.Metrics != nil {
		for _, m := range []float64{r.Metrics.RiskScore, r.Metrics.MaterialityScore, r.Metrics.Severity} {
			if inRange(m) {
				components = append(components, 1.0)
			} else {
				components = append(components, 0.5)
			}
		}
	}
	if r.Data != nil && len(r.Data.Processed) > 0 {
		components = append(components, 1.0)
	} else {
		components = append(components, 0.3)
	}

	var sum float64
	for _, c := range components {
		sum += c
	}
	score := sum / float64(len(components)) * v.cfg.QualityWeight
	return math.Round(score*100) / 100
}

func (v *Validator) recommendations(r models.ExecutionResult, quality float64, checks []models.Check) []string {
	var recs []string

	switch {
	case quality < v.cfg.LowQualityThreshold:
		recs = append(recs, RecReviewSource)
	case quality < v.cfg.ValidationThreshold:
		recs = append(recs, RecRerun)
	}

	if r.Metrics != nil {
		if r.Metrics.RiskScore > v.cfg.HighRiskThreshold {
			recs = append(recs, RecEscalate)
		}
		if r.Metrics.Severity > v.cfg.HighSeverityThreshold {
			recs = append(recs, RecImmediate)
		}
	}

	var failedTypes []string
	for _, c := range checks {
		if !c.Passed() {
			failedTypes = append(failedTypes, c.Type)
		}
	}
	if len(failedTypes) > 0 {
		recs = append(recs, fmt.Sprintf(RecFailedChecksFmt, strings.Join(failedTypes, ", ")))
	}

	if len(recs) == 0 {
		recs = append(recs, RecValidated)
	}
	return recs
}
