package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"esg-monitor/internal/coordinator"
	"esg-monitor/internal/executor"
	"esg-monitor/internal/models"
	"esg-monitor/internal/planner"
	"esg-monitor/internal/portfolio"
	"esg-monitor/internal/risk"
	"esg-monitor/internal/scoring"
	"esg-monitor/internal/synthetic"
	"esg-monitor/internal/validation"
)

const maxSyntheticCount = 1000

// Deps are the components served over HTTP.
type Deps struct {
	Coordinator *coordinator.Coordinator
	Planner     *planner.Planner
	Executor    *executor.Executor
	Validator   *validation.Validator
	Model       *scoring.Model
	Portfolio   *portfolio.Portfolio
	Risk        *risk.Aggregator
	Generator   *synthetic.Generator
}

// Handler handles HTTP requests
type Handler struct {
	Deps
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{Deps: deps, logger: logger}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Monitoring cycles
		api.POST("/cycles", h.RunCycle)
		api.GET("/cycles/:id", h.GetCycle)

		// Individual pipeline steps
		api.POST("/plans", h.CreatePlan)
		api.POST("/tasks/execute", h.ExecuteTask)
		api.POST("/results/validate", h.ValidateResult)
		api.POST("/incidents/score", h.ScoreIncidents)
		api.GET("/scoring/model", h.ModelInfo)

		// Portfolio
		api.GET("/portfolio", h.GetPortfolio)
		api.GET("/portfolio/status", h.GetStatus)
		api.GET("/portfolio/companies", h.ListCompanies)
		api.GET("/portfolio/companies/:id", h.GetCompany)
		api.POST("/portfolio/companies", h.AddCompany)
		api.PUT("/portfolio/companies/:id/exposure", h.UpdateExposure)
		api.GET("/portfolio/risk", h.GetPortfolioRisk)
		api.GET("/portfolio/at-risk", h.GetAtRisk)
		api.DELETE("/portfolio/risk/cache", h.ClearRiskCache)

		// Synthetic test data
		api.GET("/synthetic/incidents", h.SyntheticIncidents)
		api.GET("/synthetic/news", h.SyntheticNews)
		api.GET("/synthetic/market", h.SyntheticMarket)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", h.HealthCheck)
}

// RunCycle runs one monitoring cycle. An empty body monitors the default holdings.
func (h *Handler) RunCycle(c *gin.Context) {
	var req models.MonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.Coordinator.RunCycle(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Monitoring cycle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetCycle returns a finished cycle report
func (h *Handler) GetCycle(c *gin.Context) {
	report, err := h.Coordinator.Cycle(c.Request.Context(), c.Param("id"))
	if errors.Is(err, coordinator.ErrCycleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cycle not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load cycle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cycle"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// CreatePlan decomposes a request into tasks without running them
func (h *Handler) CreatePlan(c *gin.Context) {
	var req models.MonitoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.Planner.Plan(req))
}

// ExecuteTask runs a single task
func (h *Handler) ExecuteTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.Executor.Execute(c.Request.Context(), task))
}

// ValidateResult validates a single execution result
func (h *Handler) ValidateResult(c *gin.Context) {
	var result models.ExecutionResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.Validator.Validate(result))
}

type scoreRequest struct {
	Incidents []models.Incident `json:"incidents"`
}

// ScoreIncidents scores a batch of incidents
func (h *Handler) ScoreIncidents(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.Model.ScoreBatch(req.Incidents)
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// ModelInfo describes the scoring model
func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.Model.Info())
}

// GetPortfolio returns the portfolio summary and holdings
func (h *Handler) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"summary":   h.Portfolio.Summary(),
		"companies": h.Portfolio.Companies(),
	})
}

// GetStatus returns the portfolio, its risk and the last cycle's stages
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Coordinator.Status())
}

// ListCompanies filters holdings by sector or by exposure above a threshold
func (h *Handler) ListCompanies(c *gin.Context) {
	var companies []models.PortfolioEntity
	switch {
	case c.Query("sector") != "":
		companies = h.Portfolio.BySector(c.Query("sector"))
	case c.Query("dimension") != "":
		dim, err := models.ParseDimension(c.Query("dimension"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		threshold, err := floatQuery(c, "threshold", portfolio.DefaultHighExposureThreshold)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
			return
		}
		companies = h.Portfolio.HighExposure(dim, threshold)
	default:
		companies = h.Portfolio.Companies()
	}
	if companies == nil {
		companies = []models.PortfolioEntity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"total":     len(companies),
	})
}

// GetCompany returns one holding with its risk metrics
func (h *Handler) GetCompany(c *gin.Context) {
	company, err := h.Portfolio.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	c.JSON(http.StatusOK, models.AtRiskCompany{Company: company, Risk: h.Risk.CompanyRisk(company)})
}

// AddCompany adds a holding to the portfolio
func (h *Handler) AddCompany(c *gin.Context) {
	var company models.PortfolioEntity
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Portfolio.Add(company); err != nil {
		switch {
		case errors.Is(err, portfolio.ErrDuplicateCompany):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, company)
}

// UpdateExposure changes a holding's exposure and drops the stale risk cache
func (h *Handler) UpdateExposure(c *gin.Context) {
	var exposure models.Exposure
	if err := c.ShouldBindJSON(&exposure); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.Portfolio.UpdateExposure(id, exposure); err != nil {
		switch {
		case errors.Is(err, portfolio.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	h.Risk.ClearCache()

	company, err := h.Portfolio.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}
	c.JSON(http.StatusOK, models.AtRiskCompany{Company: company, Risk: h.Risk.CompanyRisk(company)})
}

// GetPortfolioRisk returns aggregated portfolio risk. An empty portfolio is
// reported through the summary's error field.
func (h *Handler) GetPortfolioRisk(c *gin.Context) {
	summary, _ := h.Risk.PortfolioRisk()
	c.JSON(http.StatusOK, summary)
}

// GetAtRisk returns holdings above the threshold, riskiest first
func (h *Handler) GetAtRisk(c *gin.Context) {
	threshold, err := floatQuery(c, "threshold", risk.DefaultAtRiskThreshold)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
		return
	}

	companies := h.Risk.AtRiskCompanies(threshold)
	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"threshold": threshold,
		"total":     len(companies),
	})
}

// ClearRiskCache drops cached risk metrics
func (h *Handler) ClearRiskCache(c *gin.Context) {
	h.Risk.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// SyntheticIncidents generates incidents
func (h *Handler) SyntheticIncidents(c *gin.Context) {
	count, err := intQuery(c, "count", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incidents, err := h.Generator.Incidents(c.Request.Context(), count)
	if err != nil {
		h.logger.Error("Failed to generate incidents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate incidents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents, "total": len(incidents)})
}

// SyntheticNews generates news items
func (h *Handler) SyntheticNews(c *gin.Context) {
	count, err := intQuery(c, "count", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	news := h.Generator.News(count)
	c.JSON(http.StatusOK, gin.H{"news": news, "total": len(news)})
}

// SyntheticMarket generates daily market data
func (h *Handler) SyntheticMarket(c *gin.Context) {
	days, err := intQuery(c, "days", 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data := h.Generator.MarketData(days)
	c.JSON(http.StatusOK, gin.H{"market_data": data, "total": len(data)})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "esg-monitor",
		"portfolio": h.Portfolio.ID(),
	})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > maxSyntheticCount {
		return 0, errors.New("invalid " + name + " (must be 0-" + strconv.Itoa(maxSyntheticCount) + ")")
	}
	return v, nil
}

func floatQuery(c *gin.Context, name string, def float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
