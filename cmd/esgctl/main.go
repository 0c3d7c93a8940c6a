package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"esg-monitor/internal/app"
	"esg-monitor/internal/config"
	"esg-monitor/internal/models"
	"esg-monitor/internal/risk"
)

var rootCmd = &cobra.Command{
	Use:           "esgctl",
	Short:         "Run ESG monitoring cycles and inspect portfolio risk",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	addPersistentFlags()
	rootCmd.AddCommand(cycleCmd(), scoreCmd(), portfolioCmd(), atRiskCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to YAML config (defaults built in)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "log component activity to stderr")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.SetEnvPrefix("ESG")
	viper.AutomaticEnv()
}

func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Default()
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := zap.NewNop()
	if viper.GetBool("verbose") {
		var err error
		if logger, err = app.NewLogger(cfg); err != nil {
			return err
		}
		defer logger.Sync()
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

func cycleCmd() *cobra.Command {
	var req models.MonitoringRequest
	var dims []string
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one monitoring cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range dims {
				dim, err := models.ParseDimension(d)
				if err != nil {
					return err
				}
				req.Dimensions = append(req.Dimensions, dim)
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				report, runErr := a.Coordinator.RunCycle(ctx, req)
				if viper.GetBool("json") {
					if err := printJSON(report); err != nil {
						return err
					}
					return runErr
				}

				fmt.Printf("Cycle %s: %s\n", report.CycleID, report.Status)
				tw := newTable()
				tw.AppendHeader(table.Row{"Stage", "Items", "Duration", "Error"})
				for _, s := range report.Stages {
					tw.AppendRow(table.Row{s.Stage, s.Items, s.FinishedAt.Sub(s.StartedAt).Round(time.Microsecond), s.Error})
				}
				tw.Render()

				validity := make(map[string]models.ValidationReport, len(report.ValidationResults))
				for _, v := range report.ValidationResults {
					validity[v.TaskID] = v
				}
				tw = newTable()
				tw.AppendHeader(table.Row{"Task", "Status", "Source", "Risk", "Materiality", "Severity", "Valid", "Quality"})
				for _, r := range report.ExecutionResults {
					src, score, mat, sev := "", 0.0, 0.0, 0.0
					if r.Data != nil {
						src = string(r.Data.Source)
					}
					if r.Metrics != nil {
						score, mat, sev = r.Metrics.RiskScore, r.Metrics.MaterialityScore, r.Metrics.Severity
					}
					v := validity[r.TaskID]
					tw.AppendRow(table.Row{shortID(r.TaskID), r.Status, src, score, mat, sev, v.IsValid, v.QualityScore})
				}
				tw.Render()

				renderScores(report.ScoringResults)
				if report.PortfolioRisk != nil {
					renderRiskSummary(*report.PortfolioRisk)
				}
				return runErr
			})
		},
	}
	cmd.Flags().StringSliceVar(&req.Entities, "entity", nil, "entity to monitor (repeatable, default: first portfolio holdings)")
	cmd.Flags().StringSliceVar(&dims, "dimension", nil, "dimension E, S or G (repeatable, default: all)")
	cmd.Flags().StringVar(&req.Query, "query", "", "search terms appended to the entity name")
	return cmd
}

func scoreCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a batch of synthetic incidents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				incidents, err := a.Generator.Incidents(ctx, count)
				if err != nil {
					return err
				}
				results := a.Model.ScoreBatch(incidents)
				if viper.GetBool("json") {
					return printJSON(results)
				}
				renderScores(results)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of incidents")
	return cmd
}

func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show holdings and their risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				summary, _ := a.Risk.PortfolioRisk()
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"portfolio":       a.Portfolio.Summary(),
						"risk_assessment": summary,
					})
				}

				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Sector", "Country", "E risk", "S risk", "G risk", "Overall", "Level"})
				for _, c := range a.Portfolio.Companies() {
					r := a.Risk.CompanyRisk(c)
					tw.AppendRow(table.Row{c.CompanyID, c.Name, c.Sector, c.Country,
						fmt.Sprintf("%.2f", r.EnvironmentalRisk), fmt.Sprintf("%.2f", r.SocialRisk),
						fmt.Sprintf("%.2f", r.GovernanceRisk), fmt.Sprintf("%.2f", r.OverallRisk), r.RiskLevel})
				}
				tw.Render()
				renderRiskSummary(summary)
				return nil
			})
		},
	}
}

func atRiskCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "at-risk",
		Short: "List holdings above a risk threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				companies := a.Risk.AtRiskCompanies(threshold)
				if viper.GetBool("json") {
					return printJSON(companies)
				}
				if len(companies) == 0 {
					fmt.Printf("No holdings above %.2f\n", threshold)
					return nil
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Overall", "Level"})
				for _, c := range companies {
					tw.AppendRow(table.Row{c.Company.CompanyID, c.Company.Name, fmt.Sprintf("%.2f", c.Risk.OverallRisk), c.Risk.RiskLevel})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", risk.DefaultAtRiskThreshold, "overall risk threshold")
	return cmd
}

func renderScores(results []models.ScoreResult) {
	tw := newTable()
	tw.AppendHeader(table.Row{"Incident", "Score", "Level", "Confidence", "Recommendations"})
	for _, r := range results {
		tw.AppendRow(table.Row{r.IncidentID, r.OverallScore, r.RiskLevel, r.Confidence, len(r.Recommendations)})
	}
	tw.Render()
}

func renderRiskSummary(s models.PortfolioRiskSummary) {
	if s.Error != "" {
		fmt.Println("Portfolio risk:", s.Error)
		return
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"Portfolio", "Companies", "Avg overall", "Max", "Min", "High", "Medium", "Low"})
	tw.AppendRow(table.Row{s.PortfolioID, s.TotalCompanies, fmt.Sprintf("%.2f", s.AverageOverallRisk),
		fmt.Sprintf("%.2f", s.MaxRisk), fmt.Sprintf("%.2f", s.MinRisk),
		s.CompaniesAtHighRisk, s.CompaniesAtMediumRisk, s.CompaniesAtLowRisk})
	tw.Render()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
