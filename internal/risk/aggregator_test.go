package risk

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esg-monitor/internal/models"
	"esg-monitor/internal/portfolio"
)

func TestCompanyRiskForFirstHolding(t *testing.T) {
	p := portfolio.Default(zap.NewNop())
	a := NewAggregator(p, zap.NewNop())

	c, err := p.Get("COMP001")
	require.NoError(t, err)
	r := a.CompanyRisk(c)

	assert.InDelta(t, 2.0, r.EnvironmentalRisk, 1e-9)
	assert.InDelta(t, 4.0, r.SocialRisk, 1e-9)
	assert.InDelta(t, 3.0, r.GovernanceRisk, 1e-9)
	assert.InDelta(t, 2.95, r.OverallRisk, 1e-9)
	assert.Equal(t, models.RiskLow, r.RiskLevel)
}

func TestComputeDefaultsMissingExposure(t *testing.T) {
	r := Compute(models.Exposure{})

	assert.Equal(t, 5.0, r.EnvironmentalRisk)
	assert.InDelta(t, 5.0, r.OverallRisk, 1e-9)
	assert.Equal(t, models.RiskMedium, r.RiskLevel)
}

func TestComputeClampsExposure(t *testing.T) {
	r := Compute(models.Exposure{"E": -1, "S": 2, "G": 0})

	assert.Equal(t, 10.0, r.EnvironmentalRisk)
	assert.Equal(t, 0.0, r.SocialRisk)
	assert.Equal(t, 10.0, r.GovernanceRisk)
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, models.RiskHigh, Classify(7.5))
	assert.Equal(t, models.RiskMedium, Classify(7.49))
	assert.Equal(t, models.RiskMedium, Classify(5.0))
	assert.Equal(t, models.RiskLow, Classify(4.99))
}

func TestCacheCoherence(t *testing.T) {
	p := portfolio.Default(zap.NewNop())
	a := NewAggregator(p, zap.NewNop())

	c, err := p.Get("COMP001")
	require.NoError(t, err)
	first := a.CompanyRisk(c)
	second := a.CompanyRisk(c)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, a.CacheSize())

	require.NoError(t, p.UpdateExposure("COMP001", models.Exposure{models.Environmental: 0.1}))
	updated, err := p.Get("COMP001")
	require.NoError(t, err)

	// stale until the owner clears the cache
	assert.Equal(t, first, a.CompanyRisk(updated))

	a.ClearCache()
	assert.Equal(t, 0, a.CacheSize())
	fresh := a.CompanyRisk(updated)
	assert.InDelta(t, 9.0, fresh.EnvironmentalRisk, 1e-9)
	assert.NotEqual(t, first.OverallRisk, fresh.OverallRisk)
}

func TestClearedCacheIgnoresOutdatedCopy(t *testing.T) {
	p := portfolio.Default(zap.NewNop())
	a := NewAggregator(p, zap.NewNop())

	before, err := p.Get("COMP001")
	require.NoError(t, err)
	require.NoError(t, p.UpdateExposure("COMP001", models.Exposure{models.Environmental: 0.1}))
	a.ClearCache()

	// a lookup still holding the pre-update copy must not cache the old exposure
	assert.Equal(t, 9.0, a.CompanyRisk(before).EnvironmentalRisk)

	after, err := p.Get("COMP001")
	require.NoError(t, err)
	assert.Equal(t, 9.0, a.CompanyRisk(after).EnvironmentalRisk)
	assert.Equal(t, 1, a.CacheSize())
}

// clearingHoldings clears the aggregator's cache while a lookup is computing.
type clearingHoldings struct {
	*portfolio.Portfolio
	onGet func()
}

func (h *clearingHoldings) Get(id string) (models.PortfolioEntity, error) {
	c, err := h.Portfolio.Get(id)
	if h.onGet != nil {
		h.onGet()
	}
	return c, err
}

func TestCompanyRiskDoesNotCacheAcrossClear(t *testing.T) {
	p := portfolio.Default(zap.NewNop())
	h := &clearingHoldings{Portfolio: p}
	a := NewAggregator(h, zap.NewNop())

	c, err := p.Get("COMP001")
	require.NoError(t, err)
	h.onGet = func() {
		h.onGet = nil
		require.NoError(t, p.UpdateExposure("COMP001", models.Exposure{models.Environmental: 0.1}))
		a.ClearCache()
	}

	stale := a.CompanyRisk(c)
	assert.Equal(t, 2.0, stale.EnvironmentalRisk)
	assert.Equal(t, 0, a.CacheSize())

	assert.Equal(t, 9.0, a.CompanyRisk(c).EnvironmentalRisk)
	assert.Equal(t, 1, a.CacheSize())
}

func TestComputeRoundsToHundredths(t *testing.T) {
	m := Compute(models.Exposure{models.Environmental: 0.8, models.Social: 0.6, models.Governance: 0.7})

	assert.Equal(t, 2.0, m.EnvironmentalRisk)
	assert.Equal(t, 4.0, m.SocialRisk)
	assert.Equal(t, 3.0, m.GovernanceRisk)
	assert.Equal(t, 2.95, m.OverallRisk)
}

func TestCompanyRiskConcurrentCallsAgree(t *testing.T) {
	p := portfolio.Default(zap.NewNop())
	a := NewAggregator(p, zap.NewNop())
	companies := p.Companies()

	var wg sync.WaitGroup
	results := make([]models.RiskMetrics, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.CompanyRisk(companies[i%len(companies)])
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.Equal(t, Compute(companies[i%len(companies)].ESGExposure), r)
	}
	assert.Equal(t, len(companies), a.CacheSize())
}

func TestPortfolioRisk(t *testing.T) {
	a := NewAggregator(portfolio.Default(zap.NewNop()), zap.NewNop())

	s, err := a.PortfolioRisk()
	require.NoError(t, err)

	assert.Equal(t, "portfolio_001", s.PortfolioID)
	assert.Equal(t, 5, s.TotalCompanies)
	assert.Empty(t, s.Error)
	// overall risks: 2.95, 2.45, 3.0, 3.18, 3.22
	assert.InDelta(t, 2.96, s.AverageOverallRisk, 1e-9)
	assert.InDelta(t, 2.8, s.AverageEnvironmentalRisk, 1e-9)
	assert.InDelta(t, 3.4, s.AverageSocialRisk, 1e-9)
	assert.InDelta(t, 2.6, s.AverageGovernanceRisk, 1e-9)
	assert.InDelta(t, 3.22, s.MaxRisk, 0.011)
	assert.InDelta(t, 2.45, s.MinRisk, 1e-9)
	assert.Equal(t, 0, s.CompaniesAtHighRisk)
	assert.Equal(t, 0, s.CompaniesAtMediumRisk)
	assert.Equal(t, 5, s.CompaniesAtLowRisk)
}

func TestPortfolioRiskEmpty(t *testing.T) {
	empty, err := portfolio.New("empty", nil, zap.NewNop())
	require.NoError(t, err)
	a := NewAggregator(empty, zap.NewNop())

	s, err := a.PortfolioRisk()

	assert.ErrorIs(t, err, ErrEmptyPortfolio)
	assert.Equal(t, EmptyPortfolioMessage, s.Error)
	assert.Equal(t, "empty", s.PortfolioID)
	assert.Equal(t, 0, s.TotalCompanies)

	s, err = NewAggregator(nil, zap.NewNop()).PortfolioRisk()
	assert.ErrorIs(t, err, ErrEmptyPortfolio)
	assert.Equal(t, EmptyPortfolioMessage, s.Error)
}

func TestAtRiskCompanies(t *testing.T) {
	p, err := portfolio.New("test", []models.PortfolioEntity{
		{CompanyID: "A", Name: "A", ESGExposure: models.Exposure{"E": 0.1, "S": 0.1, "G": 0.1}},
		{CompanyID: "B", Name: "B", ESGExposure: models.Exposure{"E": 0.2, "S": 0.2, "G": 0.2}},
		{CompanyID: "C", Name: "C", ESGExposure: models.Exposure{"E": 0.0, "S": 0.0, "G": 0.0}},
		{CompanyID: "D", Name: "D", ESGExposure: models.Exposure{"E": 0.2, "S": 0.2, "G": 0.2}},
		{CompanyID: "E", Name: "E", ESGExposure: models.Exposure{"E": 0.5, "S": 0.5, "G": 0.5}},
	}, zap.NewNop())
	require.NoError(t, err)
	a := NewAggregator(p, zap.NewNop())

	atRisk := a.AtRiskCompanies(DefaultAtRiskThreshold)

	ids := make([]string, 0, len(atRisk))
	for _, c := range atRisk {
		ids = append(ids, c.Company.CompanyID)
	}
	// B and D tie and keep their order
	assert.Equal(t, []string{"C", "A", "B", "D"}, ids)
	assert.Equal(t, models.RiskHigh, atRisk[0].Risk.RiskLevel)

	assert.Empty(t, a.AtRiskCompanies(10))
	assert.Len(t, a.AtRiskCompanies(8.5), 2)
}
