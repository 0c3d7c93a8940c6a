package validation

import "fmt"

// Config holds the thresholds used to judge execution results.
type Config struct {
	ValidationThreshold   float64 `yaml:"validation_threshold" validate:"gte=0,lte=1"`
	LowQualityThreshold   float64 `yaml:"low_quality_threshold" validate:"gte=0,lte=1"`
	HighRiskThreshold     float64 `yaml:"high_risk_threshold" validate:"gte=0,lte=10"`
	HighSeverityThreshold float64 `yaml:"high_severity_threshold" validate:"gte=0,lte=10"`
	// QualityWeight scales the composite quality score.
	QualityWeight float64 `yaml:"quality_weight" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the validator defaults.
func DefaultConfig() Config {
	return Config{
		ValidationThreshold:   0.8,
		LowQualityThreshold:   0.5,
		HighRiskThreshold:     7.0,
		HighSeverityThreshold: 8.0,
		QualityWeight:         1.0,
	}
}

// Validate checks ranges and ordering of the thresholds.
func (c Config) Validate() error {
	if c.ValidationThreshold < 0 || c.ValidationThreshold > 1 {
		return fmt.Errorf("validation_threshold must be in [0,1], got %v", c.ValidationThreshold)
	}
	if c.LowQualityThreshold < 0 || c.LowQualityThreshold > c.ValidationThreshold {
		return fmt.Errorf("low_quality_threshold must be in [0,validation_threshold], got %v", c.LowQualityThreshold)
	}
	if c.QualityWeight <= 0 || c.QualityWeight > 1 {
		return fmt.Errorf("quality_weight must be in (0,1], got %v", c.QualityWeight)
	}
	if c.HighRiskThreshold < 0 || c.HighRiskThreshold > 10 {
		return fmt.Errorf("high_risk_threshold must be in [0,10], got %v", c.HighRiskThreshold)
	}
	if c.HighSeverityThreshold < 0 || c.HighSeverityThreshold > 10 {
		return fmt.Errorf("high_severity_threshold must be in [0,10], got %v", c.HighSeverityThreshold)
	}
	return nil
}
