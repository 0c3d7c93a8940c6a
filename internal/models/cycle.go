package models

import "time"

// Stage is a step of the monitoring cycle.
type Stage string

const (
	StagePlanning    Stage = "planning"
	StageExecuting   Stage = "executing"
	StageValidating  Stage = "validating"
	StageScoring     Stage = "scoring"
	StageAggregating Stage = "aggregating"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// PipelineStages returns the working stages in execution order.
func PipelineStages() []Stage {
	return []Stage{StagePlanning, StageExecuting, StageValidating, StageScoring, StageAggregating}
}

// Cycle statuses
const (
	CycleCompleted = "completed"
	CycleFailed    = "failed"
)

// StageStatus records how one stage of one cycle went.
type StageStatus struct {
	Stage      Stage     `json:"stage"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      int       `json:"items"`
	Error      string    `json:"error,omitempty"`
}

// CycleReport is the externally visible artifact of one cycle. Stages lists every
// stage that ran, including the one that failed.
type CycleReport struct {
	CycleID           string                `json:"cycle_id"`
	Plan              *Plan                 `json:"plan,omitempty"`
	ExecutionResults  []ExecutionResult     `json:"execution_results"`
	ValidationResults []ValidationReport    `json:"validation_results"`
	ScoringResults    []ScoreResult         `json:"scoring_results"`
	PortfolioRisk     *PortfolioRiskSummary `json:"portfolio_risk,omitempty"`
	Status            string                `json:"status"`
	Stage             Stage                 `json:"stage"`
	Stages            []StageStatus         `json:"stages"`
	Error             string                `json:"error,omitempty"`
	StartedAt         time.Time             `json:"started_at"`
	FinishedAt        time.Time             `json:"finished_at"`
}
