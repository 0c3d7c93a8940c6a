package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"esg-monitor/internal/models"
)

// MultiSource tries each source in order and skips sources that failed
// maxFailures times in a row. When every source is being skipped the counters
// are reset so the next call gets a fresh chance.
type MultiSource struct {
	sources     []NamedFetcher
	mu          sync.Mutex
	failures    map[string]int
	maxFailures int
	logger      *zap.Logger
}

// NewMultiSource returns a failover fetcher. maxFailures of zero means 3.
func NewMultiSource(sources []NamedFetcher, maxFailures int, logger *zap.Logger) *MultiSource {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &MultiSource{
		sources:     sources,
		failures:    make(map[string]int),
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// FromConfig builds HTTP clients for every configured source.
func FromConfig(cfgs []Config, maxFailures int, logger *zap.Logger) *MultiSource {
	sources := make([]NamedFetcher, 0, len(cfgs))
	for _, cfg := range cfgs {
		sources = append(sources, NewClient(cfg, logger))
		logger.Info("Data source initialized",
			zap.String("source", cfg.Name),
			zap.Bool("has_credentials", cfg.APIKey != ""))
	}
	return NewMultiSource(sources, maxFailures, logger)
}

// Fetch returns the first non-empty result. Empty results move on to the next source
// without counting as a failure.
func (m *MultiSource) Fetch(ctx context.Context, query string, from, to time.Time) ([]models.Record, error) {
	if len(m.sources) == 0 {
		return nil, ErrNoSources
	}

	m.resetIfExhausted()

	var errs []error
	for _, src := range m.sources {
		if m.tripped(src.Name()) {
			m.logger.Debug("Skipping source after repeated failures", zap.String("source", src.Name()))
			continue
		}

		records, err := src.Fetch(ctx, query, from, to)
		if err == nil {
			m.recordSuccess(src.Name())
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if errors.Is(err, ErrEmptyResult) {
			continue
		}
		m.recordFailure(src.Name())
		m.logger.Warn("Source failed", zap.String("source", src.Name()), zap.Error(err))
	}

	return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
}

// Failures returns the consecutive failure count per source.
func (m *MultiSource) Failures() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.failures))
	for k, v := range m.failures {
		out[k] = v
	}
	return out
}

func (m *MultiSource) tripped(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[name] >= m.maxFailures
}

func (m *MultiSource) recordFailure(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name]++
	if m.failures[name] == m.maxFailures {
		m.logger.Warn("Source reached max failures",
			zap.String("source", name),
			zap.Int("failures", m.failures[name]))
	}
}

func (m *MultiSource) recordSuccess(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name] = 0
}

func (m *MultiSource) resetIfExhausted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, src := range m.sources {
		if m.failures[src.Name()] < m.maxFailures {
			return
		}
	}
	m.logger.Info("All sources tripped, resetting failure counts")
	m.failures = make(map[string]int)
}
