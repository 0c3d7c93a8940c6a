package planner

import (
	"errors"
	"fmt"

	"esg-monitor/internal/models"
)

// ErrInvalidConfig is returned by NewPlanner when the priority configuration is unusable.
var ErrInvalidConfig = errors.New("invalid planner config")

// Config holds planner settings.
type Config struct {
	// WindowDays is the length of the trailing window each task looks at.
	WindowDays int `yaml:"window_days" validate:"gte=1,lte=3650"`
	// Priorities is the base priority per dimension. All three dimensions are required.
	Priorities map[models.Dimension]int `yaml:"priorities"`
	// HighPriorityDimensions get the "high" task label, the rest get "medium".
	HighPriorityDimensions []models.Dimension `yaml:"high_priority_dimensions"`
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return Config{
		WindowDays: 30,
		Priorities: map[models.Dimension]int{
			models.Environmental: 10,
			models.Social:        8,
			models.Governance:    9,
		},
		HighPriorityDimensions: []models.Dimension{models.Environmental},
	}
}

// Validate checks the priority map and window.
func (c Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("%w: window_days must be positive, got %d", ErrInvalidConfig, c.WindowDays)
	}
	if len(c.Priorities) == 0 {
		return fmt.Errorf("%w: priorities map is missing", ErrInvalidConfig)
	}
	for d, v := range c.Priorities {
		if !d.Valid() {
			return fmt.Errorf("%w: priority for unknown dimension %q", ErrInvalidConfig, d)
		}
		if v <= 0 {
			return fmt.Errorf("%w: priority for %s must be positive, got %d", ErrInvalidConfig, d, v)
		}
	}
	for _, d := range models.AllDimensions() {
		if _, ok := c.Priorities[d]; !ok {
			return fmt.Errorf("%w: priorities map has no entry for %s", ErrInvalidConfig, d)
		}
	}
	for _, d := range c.HighPriorityDimensions {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown high priority dimension %q", ErrInvalidConfig, d)
		}
	}
	return nil
}
