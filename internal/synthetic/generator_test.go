package synthetic

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esg-monitor/internal/models"
)

func TestIncidentsAreSeededAndNumbered(t *testing.T) {
	a := NewGenerator(DefaultSeed, zap.NewNop())
	b := NewGenerator(DefaultSeed, zap.NewNop())

	first, err := a.Incidents(context.Background(), 5)
	require.NoError(t, err)
	again, err := b.Incidents(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, first, 5)
	assert.Equal(t, "INC001000", first[0].IncidentID)
	assert.Equal(t, "INC001004", first[4].IncidentID)
	for i := range first {
		assert.Equal(t, *first[i].Severity, *again[i].Severity)
		assert.Equal(t, first[i].Company, again[i].Company)
	}

	next, err := a.Incidents(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "INC001005", next[0].IncidentID)
}

func TestIncidentFieldRanges(t *testing.T) {
	g := NewGenerator(7, zap.NewNop())
	incidents, err := g.Incidents(context.Background(), 200)
	require.NoError(t, err)

	for _, inc := range incidents {
		assert.True(t, inc.Dimension.Valid())
		assert.Contains(t, companies, inc.Company)
		assert.Contains(t, incidentStatus, inc.Status)
		assert.Contains(t, titleTemplates[inc.Dimension], inc.Title)
		assert.GreaterOrEqual(t, *inc.Severity, 1.0)
		assert.LessOrEqual(t, *inc.Severity, 10.0)
		assert.GreaterOrEqual(t, *inc.MediaCoverage, 1.0)
		assert.LessOrEqual(t, *inc.MediaCoverage, 5.0)
		assert.GreaterOrEqual(t, *inc.FinancialImpact, 0.0)
		assert.LessOrEqual(t, *inc.FinancialImpact, 100.0)
		assert.GreaterOrEqual(t, *inc.RegulatoryRisk, 1.0)
		assert.LessOrEqual(t, *inc.RegulatoryRisk, 10.0)
		assert.GreaterOrEqual(t, *inc.Sentiment, -1.0)
		assert.LessOrEqual(t, *inc.Sentiment, 1.0)
		_, err := time.Parse(time.RFC3339, inc.Date)
		assert.NoError(t, err)
	}
}

func TestIncidentsRejectsBadInput(t *testing.T) {
	g := NewGenerator(DefaultSeed, zap.NewNop())

	_, err := g.Incidents(context.Background(), -1)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Incidents(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)

	none, err := g.Incidents(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNews(t *testing.T) {
	g := NewGenerator(DefaultSeed, zap.NewNop())
	items := g.News(3)

	require.Len(t, items, 3)
	assert.Equal(t, "NEWS00001", items[0].NewsID)
	assert.Equal(t, "https://example.com/news/3", items[2].URL)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]\w* Concerns for \w+$`), items[0].Headline)
	assert.Contains(t, newsOutlets, items[1].Source)
}

func TestMarketData(t *testing.T) {
	g := NewGenerator(DefaultSeed, zap.NewNop())
	points := g.MarketData(10)

	require.Len(t, points, 10*len(companies))
	for _, p := range points {
		assert.InDelta(t, p.ClosePrice*0.98, p.OpenPrice, 0.02)
		assert.GreaterOrEqual(t, p.HighPrice, p.ClosePrice)
		assert.LessOrEqual(t, p.LowPrice, p.ClosePrice)
		assert.GreaterOrEqual(t, p.Volume, 100000)
	}
}

func TestTaskRecordsAreStablePerTask(t *testing.T) {
	task := models.Task{
		TaskID:    "5f0c8a4e-0000-5000-8000-000000000001",
		Entity:    "TechCorp Industries",
		Dimension: models.Governance,
		Parameters: models.TaskParameters{
			DateRange: models.DateRange{
				From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	first := TaskRecords(task, 4)
	second := TaskRecords(task, 4)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)
	for _, r := range first {
		assert.Equal(t, "synthetic", r.Source)
		assert.Contains(t, r.Title, "TechCorp Industries: ")
		assert.False(t, r.PublishedAt.Before(task.Parameters.DateRange.From))
		assert.False(t, r.PublishedAt.After(task.Parameters.DateRange.To))
	}
	assert.Equal(t, "SYN-5f0c8a4e-001", first[0].ID)

	other := task
	other.TaskID = "another"
	assert.NotEqual(t, first, TaskRecords(other, 4))
}
