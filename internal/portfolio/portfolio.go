package portfolio

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"esg-monitor/internal/models"
)

// DefaultID is the id of the built-in portfolio.
const DefaultID = "portfolio_001"

// DefaultHighExposureThreshold is the HighExposure cut-off used when none is given.
const DefaultHighExposureThreshold = 0.7

var (
	ErrNotFound         = errors.New("company not found")
	ErrDuplicateCompany = errors.New("company already exists")
	ErrInvalidCompany   = errors.New("invalid company")
)

// Portfolio is a mutable, concurrency-safe set of holdings. Callers that mutate
// it own invalidating any risk computed from it.
type Portfolio struct {
	mu        sync.RWMutex
	id        string
	companies []models.PortfolioEntity
	logger    *zap.Logger
}

// New returns a portfolio with the given holdings.
func New(id string, companies []models.PortfolioEntity, logger *zap.Logger) (*Portfolio, error) {
	p := &Portfolio{id: id, logger: logger}
	for _, c := range companies {
		if err := p.add(c); err != nil {
			return nil, err
		}
	}
	logger.Info("Initialized portfolio", zap.String("portfolio_id", id), zap.Int("companies", len(companies)))
	return p, nil
}

// Default returns the built-in five-company portfolio.
func Default(logger *zap.Logger) *Portfolio {
	p, err := New(DefaultID, DefaultCompanies(), logger)
	if err != nil {
		panic(err) // built-in data is valid
	}
	return p
}

type holdingsFile struct {
	PortfolioID string                   `yaml:"portfolio_id"`
	Companies   []models.PortfolioEntity `yaml:"companies"`
}

// LoadFile reads holdings from a YAML file.
func LoadFile(path string, logger *zap.Logger) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	var hf holdingsFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio file: %w", err)
	}
	if hf.PortfolioID == "" {
		hf.PortfolioID = DefaultID
	}
	return New(hf.PortfolioID, hf.Companies, logger)
}

// ID returns the portfolio id.
func (p *Portfolio) ID() string { return p.id }

// Len returns the number of holdings.
func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.companies)
}

// Companies returns a snapshot of the holdings in insertion order.
func (p *Portfolio) Companies() []models.PortfolioEntity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.PortfolioEntity, len(p.companies))
	for i, c := range p.companies {
		out[i] = c.Clone()
	}
	return out
}

// Get returns the holding with id.
func (p *Portfolio) Get(id string) (models.PortfolioEntity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.companies {
		if c.CompanyID == id {
			return c.Clone(), nil
		}
	}
	return models.PortfolioEntity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find looks a holding up by id, full name or name prefix ("TechCorp" finds
// "TechCorp Industries").
func (p *Portfolio) Find(entity string) (models.PortfolioEntity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.companies {
		if c.CompanyID == entity || strings.EqualFold(c.Name, entity) {
			return c.Clone(), true
		}
	}
	for _, c := range p.companies {
		if entity != "" && strings.HasPrefix(strings.ToLower(c.Name), strings.ToLower(entity)) {
			return c.Clone(), true
		}
	}
	return models.PortfolioEntity{}, false
}

// SectorOf returns the sector of entity.
func (p *Portfolio) SectorOf(entity string) (string, bool) {
	c, ok := p.Find(entity)
	if !ok {
		return "", false
	}
	return c.Sector, true
}

// Names returns up to n holding names in order. n <= 0 returns all.
func (p *Portfolio) Names(n int) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n <= 0 || n > len(p.companies) {
		n = len(p.companies)
	}
	names := make([]string, 0, n)
	for _, c := range p.companies[:n] {
		names = append(names, c.Name)
	}
	return names
}

// BySector returns the holdings in sector.
func (p *Portfolio) BySector(sector string) []models.PortfolioEntity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.PortfolioEntity
	for _, c := range p.companies {
		if c.Sector == sector {
			out = append(out, c.Clone())
		}
	}
	return out
}

// HighExposure returns holdings whose exposure in dim is strictly above threshold.
func (p *Portfolio) HighExposure(dim models.Dimension, threshold float64) []models.PortfolioEntity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.PortfolioEntity
	for _, c := range p.companies {
		if v, ok := c.ESGExposure[dim]; ok && v > threshold {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Add appends a holding. Duplicate ids are rejected.
func (p *Portfolio) Add(c models.PortfolioEntity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.add(c); err != nil {
		p.logger.Warn("Rejected company", zap.String("company_id", c.CompanyID), zap.Error(err))
		return err
	}
	p.logger.Info("Added company", zap.String("company_id", c.CompanyID))
	return nil
}

func (p *Portfolio) add(c models.PortfolioEntity) error {
	if err := validateCompany(c); err != nil {
		return err
	}
	for _, existing := range p.companies {
		if existing.CompanyID == c.CompanyID {
			return fmt.Errorf("%w: %s", ErrDuplicateCompany, c.CompanyID)
		}
	}
	p.companies = append(p.companies, c.Clone())
	return nil
}

// UpdateExposure replaces the exposure values given in exposure, leaving the
// other dimensions untouched.
func (p *Portfolio) UpdateExposure(id string, exposure models.Exposure) error {
	if err := validateExposure(exposure); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.companies {
		if p.companies[i].CompanyID != id {
			continue
		}
		if p.companies[i].ESGExposure == nil {
			p.companies[i].ESGExposure = models.Exposure{}
		}
		for d, v := range exposure {
			p.companies[i].ESGExposure[d] = v
		}
		p.logger.Info("Updated company exposure", zap.String("company_id", id))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Summary describes the holdings. Averages are zero for an empty portfolio.
func (p *Portfolio) Summary() models.PortfolioSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sectors := map[string]bool{}
	countries := map[string]bool{}
	avg := models.Exposure{}
	var marketCap float64
	for _, c := range p.companies {
		sectors[c.Sector] = true
		countries[c.Country] = true
		marketCap += c.MarketCap
		for _, d := range models.AllDimensions() {
			avg[d] += c.ESGExposure.For(d)
		}
	}
	if n := len(p.companies); n > 0 {
		for d := range avg {
			avg[d] /= float64(n)
		}
	}

	return models.PortfolioSummary{
		PortfolioID:    p.id,
		TotalCompanies: len(p.companies),
		TotalMarketCap: marketCap,
		Sectors:        sortedKeys(sectors),
		Countries:      sortedKeys(countries),
		AvgESGExposure: avg,
	}
}

func validateCompany(c models.PortfolioEntity) error {
	if strings.TrimSpace(c.CompanyID) == "" {
		return fmt.Errorf("%w: company_id is required", ErrInvalidCompany)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCompany)
	}
	if c.MarketCap < 0 {
		return fmt.Errorf("%w: market_cap must not be negative", ErrInvalidCompany)
	}
	return validateExposure(c.ESGExposure)
}

func validateExposure(e models.Exposure) error {
	for d, v := range e {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown exposure dimension %q", ErrInvalidCompany, d)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: exposure %s=%v outside [0,1]", ErrInvalidCompany, d, v)
		}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
