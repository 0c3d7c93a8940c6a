// Package coordinator drives one monitoring cycle through planning, execution,
// validation, scoring and aggregation.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esg-monitor/internal/metrics"
	"esg-monitor/internal/models"
	"esg-monitor/internal/notifier"
	"esg-monitor/internal/storage"
)

var cycleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("esg-monitor/cycles"))

var (
	// ErrCycleFailed wraps the error of the stage that aborted a cycle.
	ErrCycleFailed = errors.New("monitoring cycle failed")
	// ErrCycleNotFound is returned by Cycle for an unknown id.
	ErrCycleNotFound = errors.New("cycle not found")
)

type Planner interface {
	Plan(req models.MonitoringRequest) models.Plan
}

type Executor interface {
	ExecuteAll(ctx context.Context, tasks []models.Task) []models.ExecutionResult
}

type Validator interface {
	ValidateAll(results []models.ExecutionResult) []models.ValidationReport
}

type Scorer interface {
	ScoreBatch(incidents []models.Incident) []models.ScoreResult
}

// IncidentSource supplies the incident batch of the scoring stage.
type IncidentSource interface {
	Incidents(ctx context.Context, count int) ([]models.Incident, error)
}

type RiskAggregator interface {
	PortfolioRisk() (models.PortfolioRiskSummary, error)
	AtRiskCompanies(threshold float64) []models.AtRiskCompany
}

type Holdings interface {
	Names(n int) []string
	Summary() models.PortfolioSummary
}

// Persister stores reports without blocking the cycle.
type Persister interface {
	Put(key string, v any)
	Load(ctx context.Context, key string, v any) error
}

// Components groups the collaborators of a Coordinator. Validator, Persister
// and Notifier may be nil.
type Components struct {
	Planner   Planner
	Executor  Executor
	Validator Validator
	Scorer    Scorer
	Incidents IncidentSource
	Risk      RiskAggregator
	Holdings  Holdings
	Persister Persister
	Notifier  notifier.Notifier
}

// Coordinator runs monitoring cycles. Cycles are independent: all stage state
// lives in the returned report.
type Coordinator struct {
	cfg    Config
	c      Components
	logger *zap.Logger
	now    func() time.Time
	seq    atomic.Uint64

	mu   sync.RWMutex
	last *models.CycleReport
}

// New returns a coordinator.
func New(cfg Config, c Components, logger *zap.Logger) (*Coordinator, error) {
	switch {
	case c.Planner == nil:
		return nil, errors.New("coordinator requires a planner")
	case c.Executor == nil:
		return nil, errors.New("coordinator requires an executor")
	case c.Scorer == nil || c.Incidents == nil:
		return nil, errors.New("coordinator requires a scorer and an incident source")
	case c.Risk == nil || c.Holdings == nil:
		return nil, errors.New("coordinator requires a risk aggregator and holdings")
	}
	if cfg.EnableValidator && c.Validator == nil {
		return nil, errors.New("validator is enabled but not configured")
	}
	if cfg.DefaultEntityCount <= 0 {
		cfg.DefaultEntityCount = DefaultConfig().DefaultEntityCount
	}
	if c.Notifier == nil {
		c.Notifier = notifier.Nop{}
	}
	return &Coordinator{cfg: cfg, c: c, logger: logger, now: time.Now}, nil
}

// RunCycle runs one cycle. The report is always returned; when a stage fails
// it has status=failed, lists the stages that ran and the error is wrapped in
// ErrCycleFailed.
func (c *Coordinator) RunCycle(ctx context.Context, req models.MonitoringRequest) (*models.CycleReport, error) {
	started := c.now()
	report := &models.CycleReport{
		CycleID:           c.cycleID(started),
		ExecutionResults:  []models.ExecutionResult{},
		ValidationResults: []models.ValidationReport{},
		ScoringResults:    []models.ScoreResult{},
		Stages:            []models.StageStatus{},
		StartedAt:         started,
	}
	logger := c.logger.With(zap.String("cycle_id", report.CycleID))

	if len(req.Entities) == 0 {
		req.Entities = c.c.Holdings.Names(c.cfg.DefaultEntityCount)
	}
	if len(req.Dimensions) == 0 {
		req.Dimensions = models.AllDimensions()
	}
	logger.Info("Starting monitoring cycle",
		zap.Strings("entities", req.Entities),
		zap.Int("dimensions", len(req.Dimensions)))

	var incidents []models.Incident
	stages := []struct {
		stage models.Stage
		run   func(ctx context.Context) (int, error)
	}{
		{models.StagePlanning, func(context.Context) (int, error) {
			plan := c.c.Planner.Plan(req)
			report.Plan = &plan
			return len(plan.Tasks), nil
		}},
		{models.StageExecuting, func(ctx context.Context) (int, error) {
			tasks := report.Plan.Tasks
			if c.cfg.MaxTasks > 0 && len(tasks) > c.cfg.MaxTasks {
				tasks = tasks[:c.cfg.MaxTasks]
			}
			report.ExecutionResults = c.c.Executor.ExecuteAll(ctx, tasks)
			if err := ctx.Err(); err != nil {
				return len(report.ExecutionResults), fmt.Errorf("execution interrupted: %w", err)
			}
			return len(report.ExecutionResults), nil
		}},
		{models.StageValidating, func(context.Context) (int, error) {
			if !c.cfg.EnableValidator {
				logger.Info("Validator disabled, skipping validation")
				return 0, nil
			}
			report.ValidationResults = c.c.Validator.ValidateAll(report.ExecutionResults)
			return len(report.ValidationResults), nil
		}},
		{models.StageScoring, func(ctx context.Context) (int, error) {
			var err error
			incidents, err = c.c.Incidents.Incidents(ctx, c.cfg.IncidentCount)
			if err != nil {
				return 0, fmt.Errorf("failed to load incidents: %w", err)
			}
			report.ScoringResults = c.c.Scorer.ScoreBatch(incidents)
			return len(report.ScoringResults), nil
		}},
		{models.StageAggregating, func(context.Context) (int, error) {
			summary, err := c.c.Risk.PortfolioRisk()
			report.PortfolioRisk = &summary
			if err != nil {
				// an empty portfolio is reported through the summary's error marker
				logger.Warn("Portfolio risk unavailable", zap.Error(err))
				return 0, nil
			}
			return summary.TotalCompanies, nil
		}},
	}

	for _, s := range stages {
		if err := c.runStage(ctx, report, s.stage, s.run, logger); err != nil {
			return c.finish(report, fmt.Errorf("%w: %s: %w", ErrCycleFailed, s.stage, err), logger)
		}
	}

	c.notify(ctx, incidents, report.ScoringResults, logger)
	return c.finish(report, nil, logger)
}

func (c *Coordinator) runStage(ctx context.Context, report *models.CycleReport, stage models.Stage,
	run func(context.Context) (int, error), logger *zap.Logger) (err error) {
	status := models.StageStatus{Stage: stage, StartedAt: c.now()}
	report.Stage = stage
	logger.Info("Stage started", zap.String("stage", string(stage)))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		status.FinishedAt = c.now()
		if err != nil {
			status.Error = err.Error()
			logger.Error("Stage failed", zap.String("stage", string(stage)), zap.Error(err))
		}
		report.Stages = append(report.Stages, status)
		metrics.StageDuration.WithLabelValues(string(stage)).
			Observe(status.FinishedAt.Sub(status.StartedAt).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cycle cancelled: %w", err)
	}
	status.Items, err = run(ctx)
	return err
}

func (c *Coordinator) finish(report *models.CycleReport, err error, logger *zap.Logger) (*models.CycleReport, error) {
	report.FinishedAt = c.now()
	if err != nil {
		report.Status = models.CycleFailed
		report.Stage = models.StageFailed
		report.Error = err.Error()
	} else {
		report.Status = models.CycleCompleted
		report.Stage = models.StageCompleted
	}
	metrics.CyclesTotal.WithLabelValues(report.Status).Inc()

	if c.c.Persister != nil {
		c.c.Persister.Put(CycleKey(report.CycleID), report)
	}
	c.mu.Lock()
	c.last = report
	c.mu.Unlock()

	if err != nil {
		logger.Error("Monitoring cycle failed", zap.Error(err))
		return report, err
	}
	logger.Info("Monitoring cycle completed",
		zap.Int("tasks", len(report.ExecutionResults)),
		zap.Int("incidents", len(report.ScoringResults)),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// notify pushes CRITICAL incidents and HIGH risk holdings. Delivery failures
// are logged and counted only.
func (c *Coordinator) notify(ctx context.Context, incidents []models.Incident, scores []models.ScoreResult, logger *zap.Logger) {
	var alerts []notifier.Alert
	for i, s := range scores {
		if s.RiskLevel == models.RiskCritical && i < len(incidents) {
			alerts = append(alerts, notifier.IncidentAlert(incidents[i], s))
		}
	}
	for _, h := range c.c.Risk.AtRiskCompanies(c.cfg.AtRiskThreshold) {
		if h.Risk.RiskLevel == models.RiskHigh {
			alerts = append(alerts, notifier.HoldingAlert(h))
		}
	}
	for _, a := range alerts {
		if err := c.c.Notifier.Notify(ctx, a); err != nil {
			metrics.NotificationFailures.Inc()
			logger.Warn("Failed to deliver alert", zap.String("subject", a.Subject), zap.Error(err))
		}
	}
}

// Cycle returns a finished cycle by id, from memory or the store.
func (c *Coordinator) Cycle(ctx context.Context, id string) (*models.CycleReport, error) {
	c.mu.RLock()
	last := c.last
	c.mu.RUnlock()
	if last != nil && last.CycleID == id {
		return last, nil
	}
	if c.c.Persister == nil {
		return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, id)
	}
	var report models.CycleReport
	if err := c.c.Persister.Load(ctx, CycleKey(id), &report); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, id)
		}
		return nil, fmt.Errorf("failed to load cycle: %w", err)
	}
	return &report, nil
}

// Status is the portfolio view with the stages of the most recent cycle.
type Status struct {
	Portfolio      models.PortfolioSummary     `json:"portfolio"`
	RiskAssessment models.PortfolioRiskSummary `json:"risk_assessment"`
	LastCycle      *CycleStatus                `json:"last_cycle,omitempty"`
}

type CycleStatus struct {
	CycleID string               `json:"cycle_id"`
	Status  string               `json:"status"`
	Stage   models.Stage         `json:"stage"`
	Stages  []models.StageStatus `json:"stages"`
}

// Status reports the portfolio and its risk. An empty portfolio is not an
// error here; the risk summary carries the marker.
func (c *Coordinator) Status() Status {
	riskSummary, _ := c.c.Risk.PortfolioRisk()
	st := Status{
		Portfolio:      c.c.Holdings.Summary(),
		RiskAssessment: riskSummary,
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last != nil {
		st.LastCycle = &CycleStatus{
			CycleID: c.last.CycleID,
			Status:  c.last.Status,
			Stage:   c.last.Stage,
			Stages:  c.last.Stages,
		}
	}
	return st
}

// CycleKey is the storage key of a cycle report.
func CycleKey(id string) string {
	return "cycle/" + id
}

func (c *Coordinator) cycleID(started time.Time) string {
	n := c.seq.Add(1)
	return uuid.NewSHA1(cycleNamespace, []byte(fmt.Sprintf("%d-%d", started.UnixNano(), n))).String()
}
