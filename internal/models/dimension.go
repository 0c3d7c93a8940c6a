package models

import (
	"fmt"
	"strings"
)

// Dimension is one of the three ESG risk categories.
type Dimension string

const (
	Environmental Dimension = "E"
	Social        Dimension = "S"
	Governance    Dimension = "G"
)

// AllDimensions lists the dimensions in canonical order.
func AllDimensions() []Dimension {
	return []Dimension{Environmental, Social, Governance}
}

// ParseDimension accepts "E", "environmental", "s", ... and returns the canonical dimension.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E", "ENVIRONMENTAL":
		return Environmental, nil
	case "S", "SOCIAL":
		return Social, nil
	case "G", "GOVERNANCE":
		return Governance, nil
	default:
		return "", fmt.Errorf("unknown ESG dimension %q", s)
	}
}

// Valid reports whether d is one of E, S, G.
func (d Dimension) Valid() bool {
	switch d {
	case Environmental, Social, Governance:
		return true
	}
	return false
}

// Name returns the long lowercase name used in queries and log fields.
func (d Dimension) Name() string {
	switch d {
	case Environmental:
		return "environmental"
	case Social:
		return "social"
	case Governance:
		return "governance"
	default:
		return string(d)
	}
}

// RiskLevel is shared by incident scores and holding risk metrics.
// Holdings never reach CRITICAL.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Order returns a sortable rank, LOW=0 ... CRITICAL=3.
func (r RiskLevel) Order() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}
