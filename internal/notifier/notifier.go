// Package notifier pushes alerts for critical incidents and high-risk holdings.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"esg-monitor/internal/models"
)

// Alert kinds.
const (
	KindIncident = "incident"
	KindHolding  = "holding"
)

// Alert is a single notification.
type Alert struct {
	Kind    string
	Subject string
	Level   models.RiskLevel
	Score   float64
	Lines   []string
}

// Text renders the alert as plain text.
func (a Alert) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s (%.2f)", a.Level, a.Kind, a.Subject, a.Score)
	for _, l := range a.Lines {
		b.WriteString("\n- ")
		b.WriteString(l)
	}
	return b.String()
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Notify(context.Context, Alert) error { return nil }

// IncidentAlert builds the alert for a scored incident.
func IncidentAlert(inc models.Incident, score models.ScoreResult) Alert {
	lines := []string{
		fmt.Sprintf("Incident %s (%s)", inc.IncidentID, inc.Dimension),
		inc.Title,
	}
	lines = append(lines, score.Recommendations...)
	return Alert{
		Kind:    KindIncident,
		Subject: inc.Company,
		Level:   score.RiskLevel,
		Score:   score.OverallScore,
		Lines:   lines,
	}
}

// HoldingAlert builds the alert for an at-risk holding.
func HoldingAlert(c models.AtRiskCompany) Alert {
	return Alert{
		Kind:    KindHolding,
		Subject: c.Company.Name,
		Level:   c.Risk.RiskLevel,
		Score:   c.Risk.OverallRisk,
		Lines: []string{
			fmt.Sprintf("E %.1f / S %.1f / G %.1f", c.Risk.EnvironmentalRisk, c.Risk.SocialRisk, c.Risk.GovernanceRisk),
			fmt.Sprintf("Sector: %s", c.Company.Sector),
		},
	}
}
