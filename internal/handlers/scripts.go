package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/models"
	"script-analysis-backend/internal/services"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type ScriptsHandler struct {
	store          *database.Store
	analyzerClient *analyzer.Client
	archive        *services.ArchiveService
	cfg            *config.Config
}

func NewScriptsHandler(store *database.Store, analyzerClient *analyzer.Client, archive *services.ArchiveService, cfg *config.Config) *ScriptsHandler {
	return &ScriptsHandler{
		store:          store,
		analyzerClient: analyzerClient,
		archive:        archive,
		cfg:            cfg,
	}
}

// AnalyzeScript godoc
// @Summary     Analyze a script PDF
// @Description Runs the uploaded script through the analysis service and returns the
// @Description full breakdown together with a ready-to-post save request, without
// @Description persisting anything.
// @Tags        scripts
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       file formData file true "Script PDF"
// @Success     200 {object} models.AnalyzeScriptResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     408 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /analyze-script [post]
func (h *ScriptsHandler) AnalyzeScript(c *gin.Context) {
	if h.analyzerClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "analyzer not available"})
		return
	}

	filename, data, ok := readScriptUpload(c, h.cfg.MaxFileSizeMB)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.analyzerClient.Analyze(c.Request.Context(), filename, data)
	if err != nil {
		status, message := analyzerStatus(err)
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}
	processingTime := round2(time.Since(start).Seconds())

	if len(result.ComprehensiveAnalysis) == 0 {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Analysis completed but no comprehensive analysis data found",
		})
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeScriptResponse{
		Success: true,
		Message: "Script analysis completed successfully",
		OptimizationInfo: models.OptimizationInfo{
			ActualCallsUsed: result.APICallsUsed,
			ExpectedCalls:   analyzer.DefaultAPICalls,
		},
		Metadata: models.AnalyzeMetadata{
			Filename:              filename,
			OriginalFilename:      filename,
			FileSizeBytes:         int64(len(data)),
			ProcessingTimeSeconds: processingTime,
			Timestamp:             time.Now().UTC(),
			APICallsUsed:          result.APICallsUsed,
		},
		Data:         result.ComprehensiveAnalysis,
		AnalysisData: result.ComprehensiveAnalysis,
		SaveRequest: models.SaveAnalysisRequest{
			Filename:              filename,
			OriginalFilename:      filename,
			FileSizeBytes:         int64(len(data)),
			AnalysisData:          result.ComprehensiveAnalysis,
			ProcessingTimeSeconds: &processingTime,
			APICallsUsed:          &result.APICallsUsed,
		},
	})
}

// SaveAnalysis godoc
// @Summary     Save an analysis result
// @Description Persists a previously returned analysis payload as an analyzed
// @Description script record.
// @Tags        scripts
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SaveAnalysisRequest true "Analysis to save"
// @Success     201 {object} models.SaveAnalysisResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /save-analysis [post]
func (h *ScriptsHandler) SaveAnalysis(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.SaveAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	if req.Filename == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "filename is required"})
		return
	}
	if req.AnalysisData == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "analysis_data is required"})
		return
	}

	originalFilename := req.OriginalFilename
	if originalFilename == "" {
		originalFilename = req.Filename
	}
	apiCalls := analyzer.DefaultAPICalls
	if req.APICallsUsed != nil {
		apiCalls = *req.APICallsUsed
	}

	var projectID uuid.NullUUID
	if req.ProjectID != nil && *req.ProjectID != "" {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
			return
		}
		projectID = uuid.NullUUID{UUID: id, Valid: true}
	}

	script, err := h.store.CreateScript(database.CreateScriptParams{
		Filename:              req.Filename,
		OriginalFilename:      originalFilename,
		FileSizeBytes:         req.FileSizeBytes,
		RawPayload:            req.AnalysisData,
		ProcessingTimeSeconds: req.ProcessingTimeSeconds,
		APICallsUsed:          apiCalls,
		ProjectID:             projectID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save analysis to database",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SaveAnalysisResponse{
		Success:    true,
		Message:    "Analysis saved to database successfully",
		DatabaseID: script.ID.String(),
		SavedAt:    script.CreatedAt,
		Metadata:   saveMetadata(script),
	})
}

// ListScripts godoc
// @Summary     List analyzed scripts
// @Description Returns script summaries with pagination, sorting, status
// @Description filtering, and filename search.
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       skip query int false "Records to skip" default(0)
// @Param       limit query int false "Page size, capped at 500" default(100)
// @Param       order_by query string false "Sort column" default(created_at)
// @Param       order_direction query string false "asc or desc" default(desc)
// @Param       status query string false "Filter by status"
// @Param       search query string false "Filename search term"
// @Success     200 {object} models.ScriptListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /analyzed-scripts [get]
func (h *ScriptsHandler) ListScripts(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}
	orderBy := c.DefaultQuery("order_by", "created_at")
	orderDirection := c.DefaultQuery("order_direction", "desc")
	status := c.Query("status")
	search := c.Query("search")

	var (
		scripts []models.AnalyzedScript
		total   int
		err     error
	)
	switch {
	case search != "":
		scripts, err = h.store.SearchScripts(search, skip, limit)
		total = len(scripts)
	case status != "":
		scripts, err = h.store.ListScriptsByStatus(status, skip, limit)
		if err == nil {
			total, err = h.store.CountScripts(&status)
		}
	default:
		scripts, err = h.store.ListScripts(skip, limit, orderBy, orderDirection)
		if err == nil {
			total, err = h.store.CountScripts(nil)
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve scripts",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.ScriptSummary, len(scripts))
	for i := range scripts {
		summaries[i] = models.NewScriptSummary(&scripts[i])
	}

	c.JSON(http.StatusOK, models.ScriptListResponse{
		Success: true,
		Data:    summaries,
		Pagination: models.Pagination{
			Total:    total,
			Skip:     skip,
			Limit:    limit,
			Returned: len(scripts),
			HasMore:  skip+len(scripts) < total,
		},
		SearchTerm: search,
	})
}

// CountScripts godoc
// @Summary     Count analyzed scripts
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       status query string false "Count only this status"
// @Success     200 {object} models.CountResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /analyzed-scripts/count [get]
func (h *ScriptsHandler) CountScripts(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var statusFilter *string
	if status := c.Query("status"); status != "" {
		statusFilter = &status
	}

	total, err := h.store.CountScripts(statusFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to count scripts",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.CountResponse{TotalScripts: total})
}

// GetScript godoc
// @Summary     Get an analyzed script
// @Description Returns the full stored record including every breakdown document.
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       script_id path string true "Script ID (UUID)"
// @Success     200 {object} models.ScriptDetailResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /analyzed-scripts/{script_id} [get]
func (h *ScriptsHandler) GetScript(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	scriptID, err := uuid.Parse(c.Param("script_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid script id"})
		return
	}

	script, err := h.store.GetScript(scriptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve script",
			Message: err.Error(),
		})
		return
	}
	if script == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Analyzed script not found"})
		return
	}

	response := models.NewScriptResponse(script)
	c.JSON(http.StatusOK, models.ScriptDetailResponse{
		Success: true,
		Data:    &response,
		Message: "Script retrieved successfully",
	})
}

// DeleteScript godoc
// @Summary     Delete an analyzed script
// @Description Removes the record and cleans up any archived upload in the
// @Description background.
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       script_id path string true "Script ID (UUID)"
// @Success     200 {object} models.ScriptDetailResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /analyzed-scripts/{script_id} [delete]
func (h *ScriptsHandler) DeleteScript(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	scriptID, err := uuid.Parse(c.Param("script_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid script id"})
		return
	}

	deleted, err := h.store.DeleteScript(scriptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete script",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Analyzed script not found"})
		return
	}

	h.archive.RemoveInBackground(scriptID.String())

	c.JSON(http.StatusOK, models.ScriptDetailResponse{
		Success: true,
		Message: fmt.Sprintf("Analyzed script %s deleted successfully", scriptID),
	})
}

// ScriptsAwaitingFeedback godoc
// @Summary     List scripts awaiting human feedback
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       skip query int false "Records to skip" default(0)
// @Param       limit query int false "Page size, capped at 500" default(100)
// @Success     200 {object} models.ScriptListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /scripts-awaiting-feedback [get]
func (h *ScriptsHandler) ScriptsAwaitingFeedback(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	status := models.StatusPendingReview
	scripts, err := h.store.ListScriptsByStatus(status, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve scripts",
			Message: err.Error(),
		})
		return
	}
	total, err := h.store.CountScripts(&status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve scripts",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.ScriptSummary, len(scripts))
	for i := range scripts {
		summaries[i] = models.NewScriptSummary(&scripts[i])
	}

	c.JSON(http.StatusOK, models.ScriptListResponse{
		Success: true,
		Data:    summaries,
		Pagination: models.Pagination{
			Total:    total,
			Skip:     skip,
			Limit:    limit,
			Returned: len(scripts),
			HasMore:  skip+len(scripts) < total,
		},
	})
}

// ProvideFeedback godoc
// @Summary     Record human feedback for a script
// @Description Approval, rejection, and optional re-analysis requests move the
// @Description record through the feedback statuses.
// @Tags        scripts
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       script_id path string true "Script ID (UUID)"
// @Param       request body models.HumanFeedbackRequest true "Feedback"
// @Success     200 {object} models.FeedbackResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /provide-feedback/{script_id} [post]
func (h *ScriptsHandler) ProvideFeedback(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	scriptID, err := uuid.Parse(c.Param("script_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid script id"})
		return
	}

	var req models.HumanFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	script, err := h.store.ApplyFeedback(scriptID, req.Approved, req.FeedbackText, req.RequestReanalysis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to process feedback",
			Message: err.Error(),
		})
		return
	}
	if script == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Script not found"})
		return
	}

	actionTaken := "feedback_recorded"
	message := "Feedback recorded successfully"
	if script.Status == models.StatusPendingRevision {
		actionTaken = "marked_for_revision"
		message = "Feedback received. Re-analysis can be triggered manually."
	}

	c.JSON(http.StatusOK, models.FeedbackResponse{
		Success:           true,
		Message:           message,
		ScriptID:          script.ID.String(),
		FeedbackProcessed: true,
		ActionTaken:       actionTaken,
		Status:            script.Status,
	})
}

// Statistics godoc
// @Summary     Aggregate script statistics
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.StatisticsResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /scripts/statistics [get]
func (h *ScriptsHandler) Statistics(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	stats, err := h.store.ScriptStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to compute statistics",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.StatisticsResponse{
		TotalScripts:          stats.TotalScripts,
		CompletedScripts:      stats.CompletedScripts,
		ErrorScripts:          stats.ErrorScripts,
		SuccessRate:           stats.SuccessRate,
		AverageProcessingTime: stats.AverageProcessingTime,
		TotalFileSizeMB:       stats.TotalFileSizeMB,
	})
}

// ListScriptRecords godoc
// @Summary     List analyzed scripts with full records
// @Description Frontend-compatible listing that returns complete records rather
// @Description than summaries.
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       skip query int false "Records to skip" default(0)
// @Param       limit query int false "Page size, capped at 500" default(100)
// @Success     200 {object} models.ScriptRecordListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /scripts [get]
func (h *ScriptsHandler) ListScriptRecords(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	scripts, err := h.store.ListScripts(skip, limit, "created_at", "desc")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve analyzed scripts",
			Message: err.Error(),
		})
		return
	}
	total, err := h.store.CountScripts(nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve analyzed scripts",
			Message: err.Error(),
		})
		return
	}

	records := make([]models.ScriptResponse, len(scripts))
	for i := range scripts {
		records[i] = models.NewScriptResponse(&scripts[i])
	}

	c.JSON(http.StatusOK, models.ScriptRecordListResponse{
		Success: true,
		Data:    records,
		Pagination: models.Pagination{
			Total:    total,
			Skip:     skip,
			Limit:    limit,
			Returned: len(scripts),
			HasMore:  skip+limit < total,
		},
	})
}

// GetScriptRecord godoc
// @Summary     Get an analyzed script (frontend-compatible shape)
// @Tags        scripts
// @Produce     json
// @Security    Bearer
// @Param       script_id path string true "Script ID (UUID)"
// @Success     200 {object} models.ScriptEnvelope
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /scripts/{script_id} [get]
func (h *ScriptsHandler) GetScriptRecord(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	scriptID, err := uuid.Parse(c.Param("script_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid script id"})
		return
	}

	script, err := h.store.GetScript(scriptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve script",
			Message: err.Error(),
		})
		return
	}
	if script == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Script not found"})
		return
	}

	response := models.NewScriptResponse(script)
	c.JSON(http.StatusOK, models.ScriptEnvelope{
		Success: true,
		Script:  &response,
		Message: "Script retrieved successfully",
	})
}

// readScriptUpload pulls the "file" part out of the multipart form and
// enforces the PDF extension and configured size limit. On failure it writes
// the error response and returns ok=false.
func readScriptUpload(c *gin.Context, maxSizeMB int) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no file uploaded",
			Message: "please provide a PDF file in the 'file' form field",
		})
		return "", nil, false
	}

	filename := filepath.Base(fileHeader.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "unknown.pdf"
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid file type",
			Message: "only PDF files are accepted",
		})
		return "", nil, false
	}

	maxBytes := int64(maxSizeMB) << 20
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "file too large",
			Message: fmt.Sprintf("file is %d bytes, limit is %d MB", fileHeader.Size, maxSizeMB),
		})
		return "", nil, false
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read upload",
			Message: err.Error(),
		})
		return "", nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read upload",
			Message: err.Error(),
		})
		return "", nil, false
	}
	if int64(len(data)) > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "file too large",
			Message: fmt.Sprintf("file exceeds the %d MB limit", maxSizeMB),
		})
		return "", nil, false
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "empty file"})
		return "", nil, false
	}

	return filename, data, true
}

// analyzerStatus maps a typed analyzer failure to the HTTP status and message
// the API reports for it.
func analyzerStatus(err error) (int, string) {
	var analyzerErr *analyzer.Error
	if !errors.As(err, &analyzerErr) {
		return http.StatusInternalServerError, fmt.Sprintf("Unexpected error: %v", err)
	}
	switch analyzerErr.Kind {
	case analyzer.KindTimeout:
		return http.StatusRequestTimeout, "Analysis timed out. Please try with a smaller script."
	case analyzer.KindExtraction:
		return http.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %s", analyzerErr.Message)
	case analyzer.KindValidation:
		return http.StatusUnprocessableEntity, fmt.Sprintf("Script validation failed: %s", analyzerErr.Message)
	case analyzer.KindAnalysis:
		return http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %s", analyzerErr.Message)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Unexpected error: %s", analyzerErr.Message)
	}
}

// parsePagination reads skip/limit query parameters, applying the defaults
// and the hard page-size cap. On invalid input it writes a 400 and returns
// ok=false.
func parsePagination(c *gin.Context) (int, int, bool) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid skip parameter"})
		return 0, 0, false
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid limit parameter"})
		return 0, 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return skip, limit, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func saveMetadata(s *models.AnalyzedScript) models.SaveMetadata {
	meta := models.SaveMetadata{
		Filename:         s.Filename,
		OriginalFilename: s.OriginalFilename,
		FileSizeBytes:    s.FileSizeBytes,
		APICallsUsed:     s.APICallsUsed,
		Status:           s.Status,
		TotalScenes:      s.TotalScenes,
		EstimatedBudget:  s.EstimatedBudget,
		BudgetCategory:   s.BudgetCategory,
	}
	if s.ProcessingTimeSeconds.Valid {
		v := s.ProcessingTimeSeconds.Float64
		meta.ProcessingTimeSeconds = &v
	}
	return meta
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
