package validation

import (
	"fmt"
	"strings"
	"time"

	"esg-monitor/internal/models"
)

// Check types
const (
	CheckExecutionStatus  = "execution_status"
	CheckDataCompleteness = "data_completeness"
	CheckRiskScore        = "risk_score_range"
	CheckMateriality      = "materiality_score_range"
	CheckSeverity         = "severity_range"
	CheckTimestamp        = "timestamp_validity"
	CheckValidationError  = "validation_error"
)

type checkFunc func(models.ExecutionResult) []models.Check

func defaultChecks() []checkFunc {
	return []checkFunc{
		checkStatus,
		checkCompleteness,
		checkMetricRanges,
		checkTimestamp,
	}
}

func checkStatus(r models.ExecutionResult) []models.Check {
	if r.Status == models.StatusCompleted {
		return []models.Check{passed(CheckExecutionStatus, "Task completed")}
	}
	details := fmt.Sprintf("Task status is %q", r.Status)
	if r.Error != "" {
		details += ": " + r.Error
	}
	return []models.Check{failed(CheckExecutionStatus, details)}
}

func checkCompleteness(r models.ExecutionResult) []models.Check {
	if r.Data.Empty() {
		return []models.Check{failed(CheckDataCompleteness, "Data payload is missing or empty")}
	}
	return []models.Check{passed(CheckDataCompleteness, fmt.Sprintf("%d records present", len(r.Data.Raw)))}
}

func checkMetricRanges(r models.ExecutionResult) []models.Check {
	names := []string{CheckRiskScore, CheckMateriality, CheckSeverity}
	if r.Metrics == nil {
		checks := make([]models.Check, 0, len(names))
		for _, n := range names {
			checks = append(checks, failed(n, "Metric missing"))
		}
		return checks
	}
	values := []float64{r.Metrics.RiskScore, r.Metrics.MaterialityScore, r.Metrics.Severity}
	checks := make([]models.Check, 0, len(names))
	for i, n := range names {
		if inRange(values[i]) {
			checks = append(checks, passed(n, fmt.Sprintf("%.2f within [0,10]", values[i])))
		} else {
			checks = append(checks, failed(n, fmt.Sprintf("%v outside [0,10]", values[i])))
		}
	}
	return checks
}

func checkTimestamp(r models.ExecutionResult) []models.Check {
	if _, err := ParseTimestamp(r.Timestamp); err != nil {
		return []models.Check{failed(CheckTimestamp, err.Error())}
	}
	return []models.Check{passed(CheckTimestamp, "Timestamp is valid")}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTimestamp accepts ISO-8601 date-times with or without zone, fraction or
// the T separator, and bare dates.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
}

func inRange(v float64) bool {
	return v >= 0 && v <= 10
}

func passed(typ, details string) models.Check {
	return models.Check{Type: typ, Status: models.CheckPassed, Details: details}
}

func failed(typ, details string) models.Check {
	return models.Check{Type: typ, Status: models.CheckFailed, Details: details}
}
