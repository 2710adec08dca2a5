package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/handlers"
	"script-analysis-backend/internal/models"
)

func newHealthRouter(store *database.Store, client *analyzer.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handlers.NewHealthHandler(store, client)
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	return router
}

func TestRootBanner(t *testing.T) {
	router := newHealthRouter(nil, nil)

	w := doJSON(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RootResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "Script Analysis API v2.1 is running", resp.Message)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "2.1.0", resp.Version)
	assert.NotEmpty(t, resp.Features)
}

func TestHealthHealthy(t *testing.T) {
	store := newTestStore(t)
	client := newAnalyzerClient(t, analyzerStub())
	router := newHealthRouter(store, client)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "script-analysis-api", resp.Service)
	assert.Equal(t, "connected", resp.Database)
	assert.Equal(t, "connected", resp.Analyzer)
	assert.Equal(t, "2.1.0", resp.Version)
}

func TestHealthDegradedWhenAnalyzerDown(t *testing.T) {
	store := newTestStore(t)
	client := newAnalyzerClient(t, failingAnalyzerStub(http.StatusInternalServerError, "model offline"))
	router := newHealthRouter(store, client)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "connected", resp.Database)
	assert.Contains(t, resp.Analyzer, "error:")
}

func TestHealthDegradedWhenAnalyzerNotConfigured(t *testing.T) {
	store := newTestStore(t)
	router := newHealthRouter(store, nil)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "not configured", resp.Analyzer)
}

func TestHealthUnhealthyWhenDatabaseDown(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())
	router := newHealthRouter(store, newAnalyzerClient(t, analyzerStub()))

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.HealthResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Database, "error:")
}
