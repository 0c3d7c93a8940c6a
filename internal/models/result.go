package models

import "time"

// Execution statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DataSource tags where an execution payload came from.
type DataSource string

const (
	SourceReal      DataSource = "real"
	SourceSynthetic DataSource = "synthetic"
)

// Record is one fetched (or synthesized) document about an entity.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// ProcessedRecord is a record with its keyword relevance for the task dimension.
type ProcessedRecord struct {
	RecordID        string   `json:"record_id"`
	Title           string   `json:"title"`
	Relevance       float64  `json:"relevance"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// Payload is the data block of an execution result. Source is the provenance tag:
// SourceReal records came from an external source, SourceSynthetic from the fallback
// generator, in which case FallbackReason says why.
type Payload struct {
	Source         DataSource        `json:"source"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
	Entity         string            `json:"entity"`
	Dimension      Dimension         `json:"dimension"`
	Raw            []Record          `json:"raw"`
	Processed      []ProcessedRecord `json:"processed"`
}

// Synthetic reports whether the payload came from the fallback generator.
func (p *Payload) Synthetic() bool {
	return p != nil && p.Source == SourceSynthetic
}

// Empty reports whether the payload carries no records at all.
func (p *Payload) Empty() bool {
	return p == nil || (len(p.Raw) == 0 && len(p.Processed) == 0)
}

// Metrics derived from the relevance distribution, each in [0,10].
type Metrics struct {
	RiskScore        float64 `json:"risk_score"`
	MaterialityScore float64 `json:"materiality_score"`
	Severity         float64 `json:"severity"`
}

// ExecutionResult is the executor output for one task.
type ExecutionResult struct {
	TaskID    string   `json:"task_id"`
	Status    string   `json:"status"`
	Data      *Payload `json:"data,omitempty"`
	Metrics   *Metrics `json:"metrics,omitempty"`
	Timestamp string   `json:"timestamp"`
	Error     string   `json:"error,omitempty"`
}

// Check statuses
const (
	CheckPassed = "passed"
	CheckFailed = "failed"
)

// Check is one validator check outcome.
type Check struct {
	Type    string `json:"check_type"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

// Passed reports whether the check passed.
func (c Check) Passed() bool { return c.Status == CheckPassed }

// ValidationReport is the validator output for one execution result.
type ValidationReport struct {
	TaskID          string    `json:"task_id"`
	IsValid         bool      `json:"is_valid"`
	QualityScore    float64   `json:"quality_score"`
	Checks          []Check   `json:"checks"`
	Recommendations []string  `json:"recommendations"`
	ValidatedAt     time.Time `json:"validated_at"`
}
