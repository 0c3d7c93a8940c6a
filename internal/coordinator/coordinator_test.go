package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esg-monitor/internal/executor"
	"esg-monitor/internal/models"
	"esg-monitor/internal/notifier"
	"esg-monitor/internal/planner"
	"esg-monitor/internal/portfolio"
	"esg-monitor/internal/risk"
	"esg-monitor/internal/scoring"
	"esg-monitor/internal/storage"
	"esg-monitor/internal/synthetic"
	"esg-monitor/internal/validation"
)

type downFetcher struct{}

func (downFetcher) Fetch(context.Context, string, time.Time, time.Time) ([]models.Record, error) {
	return nil, errors.New("connection refused")
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(context.Context, string, time.Time, time.Time) ([]models.Record, error) {
	panic("malformed feed")
}

type memPersister struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemPersister() *memPersister {
	return &memPersister{data: map[string][]byte{}}
}

func (m *memPersister) Put(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
}

func (m *memPersister) Load(_ context.Context, key string, v any) error {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return storage.ErrNotFound
	}
	return json.Unmarshal(b, v)
}

type recordingNotifier struct {
	alerts []notifier.Alert
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, a notifier.Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

type failingIncidents struct{}

func (failingIncidents) Incidents(context.Context, int) ([]models.Incident, error) {
	return nil, errors.New("incident feed offline")
}

type panickingPlanner struct{}

func (panickingPlanner) Plan(models.MonitoringRequest) models.Plan {
	panic("priority table corrupted")
}

type fixedScorer struct {
	results []models.ScoreResult
}

func (f fixedScorer) ScoreBatch([]models.Incident) []models.ScoreResult {
	return f.results
}

func components(t *testing.T) (Components, *portfolio.Portfolio) {
	t.Helper()
	logger := zap.NewNop()
	p := portfolio.Default(logger)

	clock := func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	pl, err := planner.NewPlanner(planner.DefaultConfig(), p, logger, planner.WithClock(clock))
	require.NoError(t, err)
	ex, err := executor.NewExecutor(executor.DefaultConfig(), downFetcher{}, nil, logger)
	require.NoError(t, err)
	v, err := validation.NewValidator(validation.DefaultConfig(), logger)
	require.NoError(t, err)

	return Components{
		Planner:   pl,
		Executor:  ex,
		Validator: v,
		Scorer:    scoring.NewModel(logger),
		Incidents: synthetic.NewGenerator(synthetic.DefaultSeed, logger),
		Risk:      risk.NewAggregator(p, logger),
		Holdings:  p,
	}, p
}

func TestRunCycleEndToEnd(t *testing.T) {
	c, _ := components(t)
	persister := newMemPersister()
	c.Persister = persister
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.CycleCompleted, report.Status)
	assert.Equal(t, models.StageCompleted, report.Stage)
	assert.Empty(t, report.Error)
	require.NotNil(t, report.Plan)
	assert.Equal(t, []string{"TechCorp Industries", "GreenEnergy Ltd", "RetailGlobal Co"}, report.Plan.Entities)
	assert.Len(t, report.Plan.Tasks, 9)

	require.Len(t, report.ExecutionResults, 9)
	for i, r := range report.ExecutionResults {
		assert.Equal(t, report.Plan.Tasks[i].TaskID, r.TaskID)
		assert.Equal(t, models.StatusCompleted, r.Status)
		assert.True(t, r.Data.Synthetic(), "source outage must fall back to synthetic data")
	}
	assert.Len(t, report.ValidationResults, 9)
	assert.Len(t, report.ScoringResults, 5)
	require.NotNil(t, report.PortfolioRisk)
	assert.Equal(t, 5, report.PortfolioRisk.TotalCompanies)

	require.Len(t, report.Stages, 5)
	for i, stage := range models.PipelineStages() {
		assert.Equal(t, stage, report.Stages[i].Stage)
		assert.Empty(t, report.Stages[i].Error)
	}
	assert.Equal(t, 9, report.Stages[1].Items)

	stored, err := coord.Cycle(context.Background(), report.CycleID)
	require.NoError(t, err)
	assert.Same(t, report, stored)
	assert.Contains(t, persister.data, CycleKey(report.CycleID))
}

func TestRunCycleContinuesPastFailedTasks(t *testing.T) {
	c, _ := components(t)
	ex, err := executor.NewExecutor(executor.DefaultConfig(), panickingFetcher{}, nil, zap.NewNop())
	require.NoError(t, err)
	c.Executor = ex
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{
		Entities:   []string{"TechCorp Industries"},
		Dimensions: []models.Dimension{models.Environmental, models.Social},
	})
	require.NoError(t, err)

	assert.Equal(t, models.CycleCompleted, report.Status)
	require.Len(t, report.ExecutionResults, 2)
	require.Len(t, report.ValidationResults, 2)
	for i, r := range report.ExecutionResults {
		assert.Equal(t, models.StatusFailed, r.Status)
		assert.Contains(t, r.Error, "malformed feed")

		v := report.ValidationResults[i]
		assert.Equal(t, r.TaskID, v.TaskID)
		assert.False(t, v.IsValid)
		var statusCheck *models.Check
		for j := range v.Checks {
			if v.Checks[j].Type == validation.CheckExecutionStatus {
				statusCheck = &v.Checks[j]
			}
		}
		require.NotNil(t, statusCheck)
		assert.Equal(t, models.CheckFailed, statusCheck.Status)
	}
	assert.Len(t, report.ScoringResults, 5)
	require.NotNil(t, report.PortfolioRisk)
	assert.Len(t, report.Stages, 5)
}

func TestRunCycleAbortsOnStageError(t *testing.T) {
	c, _ := components(t)
	c.Incidents = failingIncidents{}
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{Entities: []string{"TechCorp Industries"}})

	require.ErrorIs(t, err, ErrCycleFailed)
	assert.Equal(t, models.CycleFailed, report.Status)
	assert.Equal(t, models.StageFailed, report.Stage)
	assert.Contains(t, report.Error, "incident feed offline")
	require.Len(t, report.Stages, 4)
	assert.Equal(t, models.StageScoring, report.Stages[3].Stage)
	assert.Contains(t, report.Stages[3].Error, "incident feed offline")
	assert.Len(t, report.ExecutionResults, 3)
	assert.Empty(t, report.ScoringResults)
	assert.Nil(t, report.PortfolioRisk)
}

func TestRunCycleRecoversStagePanic(t *testing.T) {
	c, _ := components(t)
	c.Planner = panickingPlanner{}
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{})

	require.ErrorIs(t, err, ErrCycleFailed)
	require.Len(t, report.Stages, 1)
	assert.Contains(t, report.Stages[0].Error, "priority table corrupted")
	assert.Nil(t, report.Plan)
}

func TestRunCycleCancelled(t *testing.T) {
	c, _ := components(t)
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := coord.RunCycle(ctx, models.MonitoringRequest{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.CycleFailed, report.Status)
	require.Len(t, report.Stages, 1)
	assert.Equal(t, models.StagePlanning, report.Stages[0].Stage)
}

func TestRunCycleOptions(t *testing.T) {
	c, _ := components(t)
	cfg := DefaultConfig()
	cfg.MaxTasks = 2
	cfg.EnableValidator = false
	cfg.IncidentCount = 3
	coord, err := New(cfg, c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{
		Entities:   []string{"FinanceFirst Group"},
		Dimensions: []models.Dimension{models.Governance, models.Social, models.Environmental},
	})
	require.NoError(t, err)

	assert.Len(t, report.Plan.Tasks, 3)
	assert.Len(t, report.ExecutionResults, 2)
	assert.Empty(t, report.ValidationResults)
	assert.Len(t, report.ScoringResults, 3)
	assert.Equal(t, 0, report.Stages[2].Items)
}

func TestRunCycleNotifies(t *testing.T) {
	c, _ := components(t)
	p, err := portfolio.New("test", []models.PortfolioEntity{
		{CompanyID: "X1", Name: "Polluter Inc", Sector: "Energy", ESGExposure: models.Exposure{"E": 0.05, "S": 0.1, "G": 0.2}},
		{CompanyID: "X2", Name: "Steady Co", Sector: "Retail", ESGExposure: models.Exposure{"E": 0.9, "S": 0.9, "G": 0.9}},
	}, zap.NewNop())
	require.NoError(t, err)
	c.Holdings = p
	c.Risk = risk.NewAggregator(p, zap.NewNop())
	c.Scorer = fixedScorer{results: []models.ScoreResult{
		{IncidentID: "INC001000", OverallScore: 9.1, RiskLevel: models.RiskCritical},
		{IncidentID: "INC001001", OverallScore: 2.0, RiskLevel: models.RiskLow},
	}}
	rec := &recordingNotifier{err: errors.New("chat not found")}
	c.Notifier = rec
	cfg := DefaultConfig()
	cfg.IncidentCount = 2
	coord, err := New(cfg, c, zap.NewNop())
	require.NoError(t, err)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{})
	require.NoError(t, err, "notification failures must not fail the cycle")

	require.Len(t, rec.alerts, 2)
	assert.Equal(t, notifier.KindIncident, rec.alerts[0].Kind)
	assert.Equal(t, models.RiskCritical, rec.alerts[0].Level)
	assert.Equal(t, notifier.KindHolding, rec.alerts[1].Kind)
	assert.Equal(t, "Polluter Inc", rec.alerts[1].Subject)
	assert.Equal(t, []string{"Polluter Inc", "Steady Co"}, report.Plan.Entities)
}

func TestCycleLookup(t *testing.T) {
	c, _ := components(t)
	persister := newMemPersister()
	c.Persister = persister
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	first, err := coord.RunCycle(context.Background(), models.MonitoringRequest{Entities: []string{"GreenEnergy Ltd"}})
	require.NoError(t, err)
	second, err := coord.RunCycle(context.Background(), models.MonitoringRequest{Entities: []string{"GreenEnergy Ltd"}})
	require.NoError(t, err)
	assert.NotEqual(t, first.CycleID, second.CycleID)

	loaded, err := coord.Cycle(context.Background(), first.CycleID)
	require.NoError(t, err)
	assert.Equal(t, first.CycleID, loaded.CycleID)
	assert.Equal(t, models.CycleCompleted, loaded.Status)
	assert.Len(t, loaded.ExecutionResults, 3)

	_, err = coord.Cycle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCycleNotFound)
}

func TestStatus(t *testing.T) {
	c, _ := components(t)
	coord, err := New(DefaultConfig(), c, zap.NewNop())
	require.NoError(t, err)

	st := coord.Status()
	assert.Equal(t, 5, st.Portfolio.TotalCompanies)
	assert.Equal(t, 5, st.RiskAssessment.TotalCompanies)
	assert.Nil(t, st.LastCycle)

	report, err := coord.RunCycle(context.Background(), models.MonitoringRequest{})
	require.NoError(t, err)

	st = coord.Status()
	require.NotNil(t, st.LastCycle)
	assert.Equal(t, report.CycleID, st.LastCycle.CycleID)
	assert.Len(t, st.LastCycle.Stages, 5)
}

func TestNewRequiresComponents(t *testing.T) {
	c, _ := components(t)
	c.Validator = nil
	_, err := New(DefaultConfig(), c, zap.NewNop())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.EnableValidator = false
	_, err = New(cfg, c, zap.NewNop())
	assert.NoError(t, err)

	c.Planner = nil
	_, err = New(cfg, c, zap.NewNop())
	assert.Error(t, err)
}
