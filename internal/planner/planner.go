package planner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esg-monitor/internal/models"
)

// Task and plan ids are name-based UUIDs in this namespace, so planning the same
// request on the same day always yields the same ids.
var taskNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("esg-monitor/tasks"))

const unknownSector = "Unknown"

// SectorLookup resolves the sector of an entity given by name or id.
type SectorLookup interface {
	SectorOf(entity string) (string, bool)
}

// Planner decomposes monitoring requests into tasks.
type Planner struct {
	cfg     Config
	high    map[models.Dimension]bool
	sectors SectorLookup
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock overrides the time source used to anchor the trailing window.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner validates cfg and returns a planner. sectors may be nil.
func NewPlanner(cfg Config, sectors SectorLookup, logger *zap.Logger, opts ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	high := make(map[models.Dimension]bool, len(cfg.HighPriorityDimensions))
	for _, d := range cfg.HighPriorityDimensions {
		high[d] = true
	}
	p := &Planner{
		cfg:     cfg,
		high:    high,
		sectors: sectors,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan creates one task per (entity, dimension) pair. Empty dimensions mean all three.
// Unknown dimensions and blank entities are skipped.
func (p *Planner) Plan(req models.MonitoringRequest) models.Plan {
	entities := normalizeEntities(req.Entities)
	dimensions := p.normalizeDimensions(req.Dimensions)
	window := p.window()

	tasks := make([]models.Task, 0, len(entities)*len(dimensions))
	for _, entity := range entities {
		sector := p.sectorOf(entity)
		for _, dim := range dimensions {
			tasks = append(tasks, p.newTask(entity, sector, dim, req.Query, window))
		}
	}

	priorities := make(map[models.Dimension]int, len(p.cfg.Priorities))
	for d, v := range p.cfg.Priorities {
		priorities[d] = v
	}

	plan := models.Plan{
		PlanID:     planID(tasks, window),
		Entities:   entities,
		Dimensions: dimensions,
		Tasks:      tasks,
		Priorities: priorities,
		CreatedAt:  p.now().UTC(),
	}

	p.logger.Info("Strategy plan created",
		zap.String("plan_id", plan.PlanID),
		zap.Int("entities", len(entities)),
		zap.Int("tasks", len(tasks)),
	)
	return plan
}

func (p *Planner) newTask(entity, sector string, dim models.Dimension, query string, window models.DateRange) models.Task {
	priority := models.PriorityMedium
	if p.high[dim] {
		priority = models.PriorityHigh
	}
	return models.Task{
		TaskID:    TaskID(entity, dim, window),
		Type:      models.TaskTypeMonitor,
		Entity:    entity,
		Dimension: dim,
		Sector:    sector,
		Parameters: models.TaskParameters{
			Query:     buildQuery(entity, dim, query),
			DateRange: window,
		},
		Priority:      priority,
		PriorityScore: p.cfg.Priorities[dim],
	}
}

// window returns the trailing window ending at today's UTC midnight rather than
// now, so task ids stay the same for every plan made on the same day.
func (p *Planner) window() models.DateRange {
	now := p.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return models.DateRange{
		From: to.AddDate(0, 0, -p.cfg.WindowDays),
		To:   to,
	}
}

func (p *Planner) sectorOf(entity string) string {
	if p.sectors == nil {
		return unknownSector
	}
	if s, ok := p.sectors.SectorOf(entity); ok && s != "" {
		return s
	}
	return unknownSector
}

func (p *Planner) normalizeDimensions(in []models.Dimension) []models.Dimension {
	if len(in) == 0 {
		return models.AllDimensions()
	}
	seen := make(map[models.Dimension]bool, len(in))
	out := make([]models.Dimension, 0, len(in))
	for _, raw := range in {
		d, err := models.ParseDimension(string(raw))
		if err != nil {
			p.logger.Warn("Skipping unknown dimension", zap.String("dimension", string(raw)))
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func normalizeEntities(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func buildQuery(entity string, dim models.Dimension, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return entity + " " + dim.Name() + " ESG"
	}
	return entity + " " + query
}

// TaskID is the deterministic id of the task for entity and dim over window.
func TaskID(entity string, dim models.Dimension, window models.DateRange) string {
	name := strings.Join([]string{
		entity,
		string(dim),
		window.From.Format(time.DateOnly),
		window.To.Format(time.DateOnly),
	}, "|")
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

func planID(tasks []models.Task, window models.DateRange) string {
	var b strings.Builder
	b.WriteString(window.To.Format(time.DateOnly))
	for _, t := range tasks {
		b.WriteByte('|')
		b.WriteString(t.TaskID)
	}
	return uuid.NewSHA1(taskNamespace, []byte(b.String())).String()
}
