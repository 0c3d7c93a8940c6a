package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"esg-monitor/internal/models"
)

// DefaultSeed keeps fixtures reproducible across runs.
const DefaultSeed = 42

const firstIncidentNumber = 1000

// Generator produces fictitious incidents, news and market data. It is safe for
// concurrent use; all methods share one seeded source.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	counter int
	now     func() time.Time
	logger  *zap.Logger
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64, logger *zap.Logger) *Generator {
	logger.Info("Initialized synthetic data generator", zap.Int64("seed", seed))
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		counter: firstIncidentNumber,
		now:     time.Now,
		logger:  logger,
	}
}

// Incidents generates count incidents. Incident ids keep increasing across calls.
func (g *Generator) Incidents(ctx context.Context, count int) ([]models.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("incident count must not be negative, got %d", count)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	incidents := make([]models.Incident, 0, count)
	for i := 0; i < count; i++ {
		dim := g.pickDimension()
		incidents = append(incidents, models.Incident{
			IncidentID:      fmt.Sprintf("INC%06d", g.counter),
			Company:         pick(g.rng, companies),
			Dimension:       dim,
			Title:           pick(g.rng, titleTemplates[dim]),
			Description:     pick(g.rng, descriptionTemplates),
			Severity:        ptr(round(uniform(g.rng, 1, 10), 1)),
			Source:          pick(g.rng, incidentSources),
			Date:            g.recentDate(),
			MediaCoverage:   ptr(float64(1 + g.rng.Intn(5))),
			FinancialImpact: ptr(round(uniform(g.rng, 0, 100), 2)),
			RegulatoryRisk:  ptr(float64(1 + g.rng.Intn(10))),
			Sentiment:       ptr(round(uniform(g.rng, -1, 1), 2)),
			Status:          pick(g.rng, incidentStatus),
		})
		g.counter++
	}

	g.logger.Info("Generated synthetic incidents", zap.Int("count", count))
	return incidents, nil
}

// News generates count news items numbered from NEWS00001.
func (g *Generator) News(count int) []models.NewsItem {
	g.mu.Lock()
	defer g.mu.Unlock()

	items := make([]models.NewsItem, 0, count)
	for i := 1; i <= count; i++ {
		keyword := pick(g.rng, newsKeywords)
		items = append(items, models.NewsItem{
			NewsID:         fmt.Sprintf("NEWS%05d", i),
			Company:        pick(g.rng, companies),
			Headline:       fmt.Sprintf("%s Concerns for %s", titleCase(keyword), pick(g.rng, companies)),
			Content:        pick(g.rng, descriptionTemplates),
			URL:            fmt.Sprintf("https://example.com/news/%d", i),
			PublishedDate:  g.recentDate(),
			Source:         pick(g.rng, newsOutlets),
			SentimentScore: round(uniform(g.rng, -1, 1), 2),
			RelevanceScore: round(uniform(g.rng, 0, 1), 2),
		})
	}

	g.logger.Info("Generated synthetic news items", zap.Int("count", count))
	return items
}

// MarketData generates a daily random walk of prices per company, ending today.
func (g *Generator) MarketData(days int) []models.MarketDataPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.now().AddDate(0, 0, -days)
	points := make([]models.MarketDataPoint, 0, days*len(companies))
	for _, company := range companies {
		price := uniform(g.rng, 50, 500)
		for day := 0; day < days; day++ {
			price *= 1 + uniform(g.rng, -0.05, 0.05)
			points = append(points, models.MarketDataPoint{
				Date:       base.AddDate(0, 0, day).Format(time.RFC3339),
				Company:    company,
				OpenPrice:  round(price*0.98, 2),
				ClosePrice: round(price, 2),
				HighPrice:  round(price*1.02, 2),
				LowPrice:   round(price*0.97, 2),
				Volume:     100000 + g.rng.Intn(9900001),
				Volatility: round(uniform(g.rng, 0.1, 0.5), 3),
			})
		}
	}

	g.logger.Info("Generated market data points", zap.Int("count", len(points)))
	return points
}

func (g *Generator) pickDimension() models.Dimension {
	return pick(g.rng, models.AllDimensions())
}

func (g *Generator) recentDate() string {
	return g.now().AddDate(0, 0, -g.rng.Intn(91)).Format(time.RFC3339)
}

// TaskRecords synthesizes count records for a task. The output depends only on the
// arguments, so the same task always synthesizes the same records.
func TaskRecords(task models.Task, count int) []models.Record {
	h := fnv.New64a()
	_, _ = h.Write([]byte(task.TaskID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	titles := titleTemplates[task.Dimension]
	contexts := contextTemplates[task.Dimension]
	if len(titles) == 0 {
		titles = []string{"Incident reported"}
		contexts = []string{"No further details were disclosed."}
	}

	window := task.Parameters.DateRange
	span := int(window.To.Sub(window.From).Hours()/24) + 1
	if span < 1 {
		span = 1
	}

	records := make([]models.Record, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, models.Record{
			ID:          fmt.Sprintf("SYN-%s-%03d", shortID(task.TaskID), i+1),
			Title:       fmt.Sprintf("%s: %s", task.Entity, pick(rng, titles)),
			Content:     pick(rng, descriptionTemplates) + ". " + pick(rng, contexts),
			Source:      "synthetic",
			PublishedAt: window.From.AddDate(0, 0, rng.Intn(span)),
		})
	}
	return records
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ptr(v float64) *float64 { return &v }
