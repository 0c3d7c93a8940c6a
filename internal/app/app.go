// Package app wires the monitoring components from a Config.
package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"esg-monitor/internal/config"
	"esg-monitor/internal/coordinator"
	"esg-monitor/internal/executor"
	"esg-monitor/internal/handler"
	"esg-monitor/internal/notifier"
	"esg-monitor/internal/planner"
	"esg-monitor/internal/portfolio"
	"esg-monitor/internal/risk"
	"esg-monitor/internal/scoring"
	"esg-monitor/internal/source"
	"esg-monitor/internal/storage"
	"esg-monitor/internal/synthetic"
	"esg-monitor/internal/validation"
)

// App holds the wired components.
type App struct {
	Portfolio   *portfolio.Portfolio
	Risk        *risk.Aggregator
	Planner     *planner.Planner
	Executor    *executor.Executor
	Validator   *validation.Validator
	Model       *scoring.Model
	Generator   *synthetic.Generator
	Coordinator *coordinator.Coordinator
	Persister   *storage.Async

	logger *zap.Logger
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

// New builds every component. Close releases the store.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	p, err := loadPortfolio(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	persister := storage.NewAsync(store, time.Duration(cfg.Storage.TimeoutSeconds)*time.Second, logger)

	notify, err := notifier.New(cfg.Notifier, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	var fetcher source.Fetcher
	if len(cfg.Sources) > 0 {
		fetcher = source.FromConfig(cfg.Sources, cfg.MaxFailuresBeforeSwitch, logger)
	} else {
		logger.Warn("No data sources configured, all tasks will use synthetic data")
	}

	a := &App{
		Portfolio: p,
		Risk:      risk.NewAggregator(p, logger),
		Model:     scoring.NewModel(logger),
		Generator: synthetic.NewGenerator(cfg.Synthetic.Seed, logger),
		Persister: persister,
		logger:    logger,
	}

	if a.Planner, err = planner.NewPlanner(cfg.Planner, p, logger); err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize planner: %w", err))
	}
	if a.Executor, err = executor.NewExecutor(cfg.Executor, fetcher, persister, logger); err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize executor: %w", err))
	}
	if a.Validator, err = validation.NewValidator(cfg.Validator, logger); err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize validator: %w", err))
	}

	a.Coordinator, err = coordinator.New(cfg.Coordinator, coordinator.Components{
		Planner:   a.Planner,
		Executor:  a.Executor,
		Validator: a.Validator,
		Scorer:    a.Model,
		Incidents: a.Generator,
		Risk:      a.Risk,
		Holdings:  a.Portfolio,
		Persister: persister,
		Notifier:  notify,
	}, logger)
	if err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize coordinator: %w", err))
	}

	return a, nil
}

// Handler returns the HTTP handler over the app's components.
func (a *App) Handler() *handler.Handler {
	return handler.NewHandler(handler.Deps{
		Coordinator: a.Coordinator,
		Planner:     a.Planner,
		Executor:    a.Executor,
		Validator:   a.Validator,
		Model:       a.Model,
		Portfolio:   a.Portfolio,
		Risk:        a.Risk,
		Generator:   a.Generator,
	}, a.logger)
}

// Close waits for pending writes and closes the store.
func (a *App) Close() error {
	return a.Persister.Close()
}

func (a *App) abort(err error) error {
	return errors.Join(err, a.Close())
}

func loadPortfolio(cfg *config.Config, logger *zap.Logger) (*portfolio.Portfolio, error) {
	if cfg.Portfolio.File == "" {
		if cfg.Portfolio.ID != "" && cfg.Portfolio.ID != portfolio.DefaultID {
			return portfolio.New(cfg.Portfolio.ID, portfolio.DefaultCompanies(), logger)
		}
		return portfolio.Default(logger), nil
	}
	p, err := portfolio.LoadFile(cfg.Portfolio.File, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return p, nil
}
