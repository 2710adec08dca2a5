package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/models"
)

const (
	apiVersion  = "2.1.0"
	serviceName = "script-analysis-api"
)

const analyzerProbeTimeout = 5 * time.Second

type HealthHandler struct {
	store          *database.Store
	analyzerClient *analyzer.Client
}

func NewHealthHandler(store *database.Store, analyzerClient *analyzer.Client) *HealthHandler {
	return &HealthHandler{
		store:          store,
		analyzerClient: analyzerClient,
	}
}

// Root godoc
// @Summary     Service banner
// @Description Returns the API banner with version and feature list
// @Tags        health
// @Produce     json
// @Success     200 {object} models.RootResponse
// @Router      / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.RootResponse{
		Message: "Script Analysis API v2.1 is running",
		Status:  "healthy",
		Version: apiVersion,
		Features: []string{
			"AI-powered script analysis",
			"Save-compatible response structure",
			"Separate analysis and storage endpoints",
			"Database storage with search",
			"Cost and production breakdowns",
			"RESTful API with validation",
			"Comprehensive error handling",
		},
	})
}

// Health godoc
// @Summary     Health check
// @Description Reports database connectivity and analysis service reachability
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
		Database:  "connected",
		Analyzer:  "connected",
		Version:   apiVersion,
	}

	if h.store == nil {
		response.Status = "unhealthy"
		response.Database = "not configured"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	if err := h.store.Ping(); err != nil {
		response.Status = "unhealthy"
		response.Database = fmt.Sprintf("error: %v", err)
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	if h.analyzerClient == nil {
		response.Status = "degraded"
		response.Analyzer = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), analyzerProbeTimeout)
		defer cancel()
		if err := h.analyzerClient.Health(ctx); err != nil {
			response.Status = "degraded"
			response.Analyzer = fmt.Sprintf("error: %v", err)
		}
	}

	c.JSON(http.StatusOK, response)
}
