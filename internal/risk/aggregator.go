// Package risk turns holding exposures into risk metrics and portfolio statistics.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"esg-monitor/internal/metrics"
	"esg-monitor/internal/models"
)

// DefaultAtRiskThreshold is the overall risk above which a holding is at risk.
const DefaultAtRiskThreshold = 7.0

// EmptyPortfolioMessage is the error marker of an empty portfolio summary.
const EmptyPortfolioMessage = "No companies in portfolio"

// ErrEmptyPortfolio is returned alongside a summary carrying EmptyPortfolioMessage.
var ErrEmptyPortfolio = errors.New("portfolio has no companies")

// Dimension weights of the overall risk.
const (
	WeightEnvironmental = 0.40
	WeightSocial        = 0.35
	WeightGovernance    = 0.25
)

// Holdings is the read side of a portfolio.
type Holdings interface {
	ID() string
	Companies() []models.PortfolioEntity
	Get(id string) (models.PortfolioEntity, error)
}

// Aggregator computes and caches per-holding risk. The cache is never invalidated
// on its own: whoever mutates the holdings must call ClearCache.
type Aggregator struct {
	holdings Holdings
	mu       sync.RWMutex
	cache    map[string]models.RiskMetrics
	gen      uint64
	group    singleflight.Group
	logger   *zap.Logger
}

// NewAggregator returns an aggregator over holdings.
func NewAggregator(holdings Holdings, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		holdings: holdings,
		cache:    make(map[string]models.RiskMetrics),
		logger:   logger,
	}
}

// CompanyRisk returns the cached metrics for c, computing them once per id.
// A miss computes from the holding's current exposure when c is held, so a
// caller's outdated copy never repopulates a cleared cache. Results computed
// across a ClearCache are returned but not cached.
func (a *Aggregator) CompanyRisk(c models.PortfolioEntity) models.RiskMetrics {
	a.mu.RLock()
	m, ok := a.cache[c.CompanyID]
	gen := a.gen
	a.mu.RUnlock()
	if ok {
		metrics.RiskCacheLookups.WithLabelValues("hit").Inc()
		return m
	}
	metrics.RiskCacheLookups.WithLabelValues("miss").Inc()

	v, _, _ := a.group.Do(fmt.Sprintf("%d/%s", gen, c.CompanyID), func() (any, error) {
		a.mu.RLock()
		cached, ok := a.cache[c.CompanyID]
		a.mu.RUnlock()
		if ok {
			return cached, nil
		}
		computed := Compute(a.current(c).ESGExposure)
		a.mu.Lock()
		if a.gen == gen {
			a.cache[c.CompanyID] = computed
		}
		a.mu.Unlock()
		return computed, nil
	})
	return v.(models.RiskMetrics)
}

func (a *Aggregator) current(c models.PortfolioEntity) models.PortfolioEntity {
	if a.holdings == nil {
		return c
	}
	held, err := a.holdings.Get(c.CompanyID)
	if err != nil {
		return c
	}
	return held
}

// PortfolioRisk aggregates the risk of every holding. An empty portfolio yields a
// summary with only the error marker set, and ErrEmptyPortfolio.
func (a *Aggregator) PortfolioRisk() (models.PortfolioRiskSummary, error) {
	if a.holdings == nil {
		return models.PortfolioRiskSummary{Error: EmptyPortfolioMessage}, ErrEmptyPortfolio
	}
	companies := a.holdings.Companies()
	if len(companies) == 0 {
		a.logger.Warn("No companies in portfolio", zap.String("portfolio_id", a.holdings.ID()))
		return models.PortfolioRiskSummary{
			PortfolioID: a.holdings.ID(),
			Error:       EmptyPortfolioMessage,
		}, ErrEmptyPortfolio
	}

	s := models.PortfolioRiskSummary{
		PortfolioID:    a.holdings.ID(),
		TotalCompanies: len(companies),
		MaxRisk:        math.Inf(-1),
		MinRisk:        math.Inf(1),
	}
	for _, c := range companies {
		r := a.CompanyRisk(c)
		s.AverageOverallRisk += r.OverallRisk
		s.AverageEnvironmentalRisk += r.EnvironmentalRisk
		s.AverageSocialRisk += r.SocialRisk
		s.AverageGovernanceRisk += r.GovernanceRisk
		s.MaxRisk = math.Max(s.MaxRisk, r.OverallRisk)
		s.MinRisk = math.Min(s.MinRisk, r.OverallRisk)
		switch r.RiskLevel {
		case models.RiskHigh:
			s.CompaniesAtHighRisk++
		case models.RiskMedium:
			s.CompaniesAtMediumRisk++
		default:
			s.CompaniesAtLowRisk++
		}
	}
	n := float64(len(companies))
	s.AverageOverallRisk = round2(s.AverageOverallRisk / n)
	s.AverageEnvironmentalRisk = round2(s.AverageEnvironmentalRisk / n)
	s.AverageSocialRisk = round2(s.AverageSocialRisk / n)
	s.AverageGovernanceRisk = round2(s.AverageGovernanceRisk / n)
	return s, nil
}

// AtRiskCompanies returns holdings with overall risk strictly above threshold,
// highest first. Ties keep portfolio order.
func (a *Aggregator) AtRiskCompanies(threshold float64) []models.AtRiskCompany {
	if a.holdings == nil {
		return nil
	}
	var out []models.AtRiskCompany
	for _, c := range a.holdings.Companies() {
		r := a.CompanyRisk(c)
		if r.OverallRisk > threshold {
			out = append(out, models.AtRiskCompany{Company: c, Risk: r})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Risk.OverallRisk > out[j].Risk.OverallRisk
	})
	return out
}

// ClearCache drops every cached metric.
func (a *Aggregator) ClearCache() {
	a.mu.Lock()
	n := len(a.cache)
	a.cache = make(map[string]models.RiskMetrics)
	a.gen++
	a.mu.Unlock()
	a.logger.Info("Risk cache cleared", zap.Int("entries", n))
}

// CacheSize returns the number of cached holdings.
func (a *Aggregator) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// Compute derives risk metrics from an exposure. Missing dimensions use
// models.DefaultExposure.
func Compute(e models.Exposure) models.RiskMetrics {
	m := models.RiskMetrics{
		EnvironmentalRisk: DimensionRisk(e.For(models.Environmental)),
		SocialRisk:        DimensionRisk(e.For(models.Social)),
		GovernanceRisk:    DimensionRisk(e.For(models.Governance)),
	}
	m.OverallRisk = round2(WeightEnvironmental*m.EnvironmentalRisk +
		WeightSocial*m.SocialRisk +
		WeightGovernance*m.GovernanceRisk)
	m.RiskLevel = Classify(m.OverallRisk)
	return m
}

// DimensionRisk maps an exposure in [0,1] to a risk in [0,10]; better practice
// means lower risk.
func DimensionRisk(exposure float64) float64 {
	exposure = math.Max(0, math.Min(1, exposure))
	return round2((1.0 - exposure) * 10.0)
}

// Classify maps an overall holding risk to a level.
func Classify(risk float64) models.RiskLevel {
	switch {
	case risk >= 7.5:
		return models.RiskHigh
	case risk >= 5.0:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
