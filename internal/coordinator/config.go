package coordinator

import "esg-monitor/internal/risk"

// Config holds cycle settings.
type Config struct {
	// DefaultEntityCount is how many portfolio holdings a request without
	// entities monitors.
	DefaultEntityCount int `yaml:"default_entity_count" validate:"gte=1"`
	// MaxTasks caps the tasks executed per cycle. Zero executes all of them.
	MaxTasks int `yaml:"max_tasks" validate:"gte=0"`
	// IncidentCount is the size of the incident batch scored per cycle.
	IncidentCount int `yaml:"incident_count" validate:"gte=0,lte=10000"`
	// EnableValidator runs the validation stage; when off it records no reports.
	EnableValidator bool `yaml:"enable_validator"`
	// AtRiskThreshold selects the holdings reported to the notifier.
	AtRiskThreshold float64 `yaml:"at_risk_threshold" validate:"gte=0,lte=10"`
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		DefaultEntityCount: 3,
		MaxTasks:           0,
		IncidentCount:      5,
		EnableValidator:    true,
		AtRiskThreshold:    risk.DefaultAtRiskThreshold,
	}
}
