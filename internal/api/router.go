package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solar-analytics/internal/config"
	"solar-analytics/internal/db"
	"solar-analytics/internal/dispatch"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/orchestrator"
)

// NewRouter wires the REST surface the dashboards consume.
func NewRouter(database *db.DB, logger *logging.Logger, cfg config.Config,
	orch *orchestrator.Orchestrator, dispatcher *dispatch.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(database, logger, cfg, orch, dispatcher)

	api := r.Group(cfg.API.BasePath)
	{
		// Observations
		api.GET("/observations", h.GetObservations)
		api.GET("/observations/high-intensity", h.GetHighIntensityObservations)

		// Analysis
		api.POST("/analysis/run", h.RunAnalysis)
		api.GET("/analysis/correlations", h.GetCorrelations)
		api.GET("/forecasts", h.GetForecasts)

		// Alerts
		api.GET("/alerts", h.GetAlerts)
		api.POST("/alerts/:id/resolve", h.ResolveAlert)
		api.GET("/alerts/feed", h.AlertFeed)

		// Dashboard
		api.GET("/metrics/dashboard", h.DashboardMetrics)
		api.GET("/metrics/anomalies", h.AnomalyMetrics)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
