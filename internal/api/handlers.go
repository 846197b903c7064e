package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solar-analytics/internal/alerts"
	"solar-analytics/internal/analysis"
	"solar-analytics/internal/config"
	"solar-analytics/internal/db"
	"solar-analytics/internal/dispatch"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
	"solar-analytics/internal/orchestrator"
)

type Handler struct {
	db         *db.DB
	logger     *logging.Logger
	config     config.Config
	orch       *orchestrator.Orchestrator
	dispatcher *dispatch.Service
}

func NewHandler(database *db.DB, logger *logging.Logger, cfg config.Config,
	orch *orchestrator.Orchestrator, dispatcher *dispatch.Service) *Handler {
	return &Handler{db: database, logger: logger, config: cfg, orch: orch, dispatcher: dispatcher}
}

// pipelineParams maps the configured analysis options onto orchestrator
// parameters, with optional query overrides.
func (h *Handler) pipelineParams(c *gin.Context) orchestrator.Params {
	p := orchestrator.Params{
		Clusters:    h.config.Analysis.Clusters,
		Horizon:     h.config.Analysis.Horizon,
		Window:      h.config.Analysis.Window,
		TargetField: models.FieldIntensity,
		FeatureFields: []string{
			models.FieldIntensity,
			models.FieldTemperature,
			models.FieldIceExtent,
		},
		Thresholds: alerts.Thresholds{
			High:         h.config.Analysis.HighThreshold,
			Medium:       h.config.Analysis.MediumThreshold,
			AnomalySigma: h.config.Analysis.AnomalySigma,
		},
	}
	if k, err := strconv.Atoi(c.Query("k")); err == nil {
		p.Clusters = k
	}
	if hz, err := strconv.Atoi(c.Query("horizon")); err == nil {
		p.Horizon = hz
	}
	if w, err := strconv.Atoi(c.Query("window")); err == nil {
		p.Window = w
	}
	return p
}

func (h *Handler) GetObservations(c *gin.Context) {
	var start, end *time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
			return
		}
		start = &t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
			return
		}
		end = &t
	}
	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = l
	}

	observations, err := h.db.GetObservations(c.Request.Context(), start, end, limit)
	if err != nil {
		h.logger.Errorf("Failed to get observations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get observations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"observations": observations, "count": len(observations)})
}

func (h *Handler) GetHighIntensityObservations(c *gin.Context) {
	threshold := h.config.Analysis.HighThreshold
	if t, err := strconv.ParseFloat(c.Query("threshold"), 64); err == nil {
		threshold = t
	}

	observations, err := h.db.GetHighIntensityObservations(c.Request.Context(), threshold, 100)
	if err != nil {
		h.logger.Errorf("Failed to get high intensity observations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get observations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"observations": observations, "count": len(observations), "threshold": threshold})
}

// RunAnalysis executes the full pipeline over the stored snapshot, persists
// the derived results, and queues alert dispatch.
func (h *Handler) RunAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	snapshot, err := h.db.GetObservations(ctx, nil, nil, 0)
	if err != nil {
		h.logger.Errorf("Failed to load snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observations"})
		return
	}
	if len(snapshot) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data found"})
		return
	}

	// Capture the active set once before evaluation.
	active, err := h.db.GetActiveAlerts(ctx)
	if err != nil {
		h.logger.Errorf("Failed to load active alerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load active alerts"})
		return
	}

	report := h.orch.Run(ctx, snapshot, active, h.pipelineParams(c))

	if report.Sections[orchestrator.SectionClustering].Status == "ok" {
		if err := h.db.ApplyClusterAssignments(ctx, report.Assignments); err != nil {
			h.logger.Errorf("Failed to persist cluster assignments: %v", err)
		}
	}
	if report.Sections[orchestrator.SectionForecast].Status == "ok" {
		if err := h.db.InsertForecasts(ctx, report.Forecasts); err != nil {
			h.logger.Errorf("Failed to persist forecasts: %v", err)
		}
	}
	if err := h.db.ApplyActions(ctx, report.AlertActions); err != nil {
		h.logger.Errorf("Failed to apply alert actions: %v", err)
	} else {
		h.dispatcher.QueueActions(report.AlertActions)
	}

	h.logger.Infof("Analysis run over %d observations completed", len(snapshot))
	c.JSON(http.StatusOK, report)
}

// GetCorrelations recomputes correlations on demand without touching the
// rest of the pipeline.
func (h *Handler) GetCorrelations(c *gin.Context) {
	ctx := c.Request.Context()

	snapshot, err := h.db.GetObservations(ctx, nil, nil, 0)
	if err != nil {
		h.logger.Errorf("Failed to load snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observations"})
		return
	}

	result, err := analysis.Compute(snapshot, models.FieldIntensity)
	if err != nil {
		h.logger.Errorf("Correlation failed: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"correlations": result, "data_points": len(snapshot)})
}

func (h *Handler) GetForecasts(c *gin.Context) {
	forecasts, err := h.db.GetLatestForecasts(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to get forecasts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get forecasts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts, "count": len(forecasts)})
}

func (h *Handler) GetAlerts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = l
	}

	list, err := h.db.GetAlerts(c.Request.Context(), activeOnly, limit)
	if err != nil {
		h.logger.Errorf("Failed to get alerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": list, "count": len(list)})
}

// ResolveAlert flips an alert inactive by operator action.
func (h *Handler) ResolveAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.ResolveAlert(c.Request.Context(), id); err != nil {
		h.logger.Errorf("Failed to resolve alert %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Active alert not found"})
		return
	}

	h.logger.Infof("Alert %s resolved by operator", id)
	c.JSON(http.StatusOK, gin.H{"message": "Alert resolved"})
}

// AnomalyMetrics reports readings that sit outside their rolling baseline.
func (h *Handler) AnomalyMetrics(c *gin.Context) {
	ctx := c.Request.Context()

	observations, err := h.db.GetObservations(ctx, nil, nil, 0)
	if err != nil {
		h.logger.Errorf("Failed to load observations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observations"})
		return
	}

	sigma := h.config.Analysis.AnomalySigma
	if s, err := strconv.ParseFloat(c.Query("sigma"), 64); err == nil && s > 0 {
		sigma = s
	}

	engine := alerts.NewEngine(alerts.Thresholds{
		High:         h.config.Analysis.HighThreshold,
		Medium:       h.config.Analysis.MediumThreshold,
		AnomalySigma: sigma,
	})
	anomalies := engine.ScanAnomalies(observations, h.config.Analysis.Window)

	c.JSON(http.StatusOK, gin.H{
		"anomalies":   anomalies,
		"count":       len(anomalies),
		"sigma":       sigma,
		"data_points": len(observations),
	})
}

// DashboardMetrics summarizes recent activity for the dashboard landing view.
func (h *Handler) DashboardMetrics(c *gin.Context) {
	ctx := c.Request.Context()

	observations, err := h.db.GetObservations(ctx, nil, nil, 0)
	if err != nil {
		h.logger.Errorf("Failed to load observations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observations"})
		return
	}
	active, err := h.db.GetActiveAlerts(ctx)
	if err != nil {
		h.logger.Errorf("Failed to load active alerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alerts"})
		return
	}

	recent := observations
	if len(recent) > 30 {
		recent = recent[len(recent)-30:]
	}

	var avg float64
	distribution := gin.H{"low": 0, "medium": 0, "high": 0}
	low, medium, high := 0, 0, 0
	for i := range recent {
		v := recent[i].SepIntensity
		avg += v
		switch {
		case v > h.config.Analysis.HighThreshold:
			high++
		case v >= h.config.Analysis.MediumThreshold:
			medium++
		default:
			low++
		}
	}
	if len(recent) > 0 {
		avg /= float64(len(recent))
	}
	distribution["low"], distribution["medium"], distribution["high"] = low, medium, high

	severities := map[models.Severity]int{}
	for i := range active {
		severities[active[i].Severity]++
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_observations": len(observations),
			"avg_intensity":      avg,
			"active_alerts":      len(active),
		},
		"distributions": gin.H{
			"intensity": distribution,
			"alerts":    severities,
		},
		"timestamp": time.Now().UTC(),
	})
}
