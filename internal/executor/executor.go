package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"esg-monitor/internal/metrics"
	"esg-monitor/internal/models"
	"esg-monitor/internal/source"
	"esg-monitor/internal/synthetic"
)

// Persister accepts payloads for fire-and-forget storage.
type Persister interface {
	Put(key string, v any)
}

// Executor runs monitoring tasks.
type Executor struct {
	cfg       Config
	fetcher   source.Fetcher
	persister Persister
	logger    *zap.Logger
	now       func() time.Time
}

// NewExecutor returns an executor. fetcher and persister may be nil: without a
// fetcher every task uses synthetic data, without a persister nothing is stored.
func NewExecutor(cfg Config, fetcher source.Fetcher, persister Persister, logger *zap.Logger) (*Executor, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("executor workers must be positive, got %d", cfg.Workers)
	}
	if cfg.FallbackRecords <= 0 {
		return nil, fmt.Errorf("executor fallback_records must be positive, got %d", cfg.FallbackRecords)
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		cfg.FetchTimeoutSeconds = DefaultConfig().FetchTimeoutSeconds
	}
	for sector, w := range cfg.SectorWeights {
		if w < 0 {
			return nil, fmt.Errorf("sector weight for %q must not be negative", sector)
		}
	}
	return &Executor{
		cfg:       cfg,
		fetcher:   fetcher,
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Execute runs one task. It never returns an error: any failure, including a
// panic, becomes a result with status=failed.
func (e *Executor) Execute(ctx context.Context, task models.Task) (result models.ExecutionResult) {
	start := e.now()
	logger := e.logger.With(zap.String("task_id", task.TaskID))
	logger.Info("Executing task",
		zap.String("entity", task.Entity),
		zap.String("dimension", string(task.Dimension)))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Task execution panicked", zap.Any("panic", r))
			result = e.failed(task, fmt.Errorf("panic during execution: %v", r))
		}
		metrics.TasksExecuted.WithLabelValues(result.Status, sourceLabel(result.Data)).Inc()
	}()

	if err := validateTask(task); err != nil {
		logger.Error("Rejected invalid task", zap.Error(err))
		return e.failed(task, err)
	}

	payload, err := e.collect(ctx, task, logger)
	if err != nil {
		logger.Error("Failed to collect data", zap.Error(err))
		return e.failed(task, err)
	}

	payload.Processed = processRecords(payload.Raw, task.Dimension)
	m := computeMetrics(payload.Processed, e.cfg.SectorWeight(task.Sector))

	result = models.ExecutionResult{
		TaskID:    task.TaskID,
		Status:    models.StatusCompleted,
		Data:      payload,
		Metrics:   &m,
		Timestamp: e.now().UTC().Format(time.RFC3339Nano),
	}

	if e.cfg.PersistRaw && e.persister != nil {
		e.persister.Put(RawKey(task.TaskID, start), payload)
	}

	logger.Info("Task completed",
		zap.String("source", string(payload.Source)),
		zap.Int("records", len(payload.Raw)),
		zap.Float64("risk_score", m.RiskScore),
		zap.Duration("took", e.now().Sub(start)))
	return result
}

// ExecuteAll runs tasks on a bounded worker pool. Results keep the task order.
func (e *Executor) ExecuteAll(ctx context.Context, tasks []models.Task) []models.ExecutionResult {
	results := make([]models.ExecutionResult, len(tasks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = e.Execute(gCtx, task)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// collect fetches real data, degrading to synthetic records when the source is
// unusable. Only a cancelled context is returned as an error.
func (e *Executor) collect(ctx context.Context, task models.Task, logger *zap.Logger) (*models.Payload, error) {
	payload := &models.Payload{
		Entity:    task.Entity,
		Dimension: task.Dimension,
	}

	records, reason := e.fetch(ctx, task)
	if reason == "" {
		payload.Source = models.SourceReal
		payload.Raw = records
		return payload, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("task cancelled: %w", err)
	}

	logger.Info("External source unavailable, using synthetic data",
		zap.String("reason", reason),
		zap.Int("records", e.cfg.FallbackRecords))
	metrics.FetchFallbacks.WithLabelValues(reason).Inc()

	payload.Source = models.SourceSynthetic
	payload.FallbackReason = reason
	payload.Raw = synthetic.TaskRecords(task, e.cfg.FallbackRecords)
	return payload, nil
}

// fetch returns the records, or an empty slice and the fallback reason.
func (e *Executor) fetch(ctx context.Context, task models.Task) ([]models.Record, string) {
	if e.fetcher == nil {
		return nil, FallbackNoSource
	}

	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.FetchTimeoutSeconds)*time.Second)
	defer cancel()

	records, err := e.fetcher.Fetch(fetchCtx, task.Parameters.Query, task.Parameters.DateRange.From, task.Parameters.DateRange.To)
	switch {
	case errors.Is(err, source.ErrMissingCredentials):
		return nil, FallbackMissingCredentials
	case errors.Is(err, source.ErrNoSources):
		return nil, FallbackNoSource
	case errors.Is(err, source.ErrEmptyResult):
		return nil, FallbackEmptyResult
	case err != nil:
		e.logger.Debug("Fetch failed", zap.String("task_id", task.TaskID), zap.Error(err))
		return nil, FallbackTransport
	case len(records) == 0:
		return nil, FallbackEmptyResult
	}
	return records, ""
}

// Fallback reasons recorded on synthetic payloads.
const (
	FallbackNoSource           = "no_source"
	FallbackMissingCredentials = "missing_credentials"
	FallbackEmptyResult        = "empty_result"
	FallbackTransport          = "transport_error"
)

func (e *Executor) failed(task models.Task, err error) models.ExecutionResult {
	return models.ExecutionResult{
		TaskID:    task.TaskID,
		Status:    models.StatusFailed,
		Timestamp: e.now().UTC().Format(time.RFC3339Nano),
		Error:     err.Error(),
	}
}

func validateTask(task models.Task) error {
	switch {
	case task.TaskID == "":
		return errors.New("invalid task: missing task_id")
	case task.Entity == "":
		return errors.New("invalid task: missing entity")
	case !task.Dimension.Valid():
		return fmt.Errorf("invalid task: unknown dimension %q", task.Dimension)
	}
	return nil
}

// RawKey is the storage key of a raw payload.
func RawKey(taskID string, at time.Time) string {
	return fmt.Sprintf("raw/%s/%s", taskID, at.UTC().Format("20060102T150405.000Z"))
}

func sourceLabel(p *models.Payload) string {
	if p == nil {
		return "none"
	}
	return string(p.Source)
}
