package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/middleware"
	"script-analysis-backend/internal/models"
	"script-analysis-backend/internal/services"
)

type ProjectsHandler struct {
	store          *database.Store
	analyzerClient *analyzer.Client
	archive        *services.ArchiveService
	cfg            *config.Config
}

func NewProjectsHandler(store *database.Store, analyzerClient *analyzer.Client, archive *services.ArchiveService, cfg *config.Config) *ProjectsHandler {
	return &ProjectsHandler{
		store:          store,
		analyzerClient: analyzerClient,
		archive:        archive,
		cfg:            cfg,
	}
}

// CreateProject godoc
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Project"
// @Success     201 {object} models.ProjectEnvelope
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title is required"})
		return
	}
	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	project, err := h.store.CreateProject(title, description, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	response := models.NewProjectResponse(project)
	c.JSON(http.StatusCreated, models.ProjectEnvelope{
		Success: true,
		Project: &response,
		Message: "Project created successfully",
	})
}

// ListProjects godoc
// @Summary     List projects
// @Description Returns the caller's projects, newest first.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       skip query int false "Records to skip" default(0)
// @Param       limit query int false "Page size, capped at 500" default(100)
// @Success     200 {object} models.ProjectListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	skip, limit, ok := parsePagination(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	projects, err := h.store.ListProjects(userID, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve projects",
			Message: err.Error(),
		})
		return
	}
	total, err := h.store.CountProjects(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve projects",
			Message: err.Error(),
		})
		return
	}

	data := make([]models.ProjectResponse, len(projects))
	for i := range projects {
		data[i] = models.NewProjectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{
		Success: true,
		Data:    data,
		Pagination: models.Pagination{
			Total:    total,
			Skip:     skip,
			Limit:    limit,
			Returned: len(projects),
			HasMore:  skip+limit < total,
		},
	})
}

// GetProject godoc
// @Summary     Get a project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectEnvelope
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve project",
			Message: err.Error(),
		})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found"})
		return
	}

	response := models.NewProjectResponse(project)
	c.JSON(http.StatusOK, models.ProjectEnvelope{
		Success: true,
		Project: &response,
		Message: "Project retrieved successfully",
	})
}

// UpdateProject godoc
// @Summary     Update a project
// @Description Partial update; only the provided fields change.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.UpdateProjectRequest true "Fields to change"
// @Success     200 {object} models.ProjectEnvelope
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id} [put]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	update := models.ProjectUpdate{
		Title:                 req.Title,
		Description:           req.Description,
		Status:                req.Status,
		BudgetTotal:           req.BudgetTotal,
		EstimatedDurationDays: req.EstimatedDurationDays,
	}
	if update.Empty() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No valid fields provided for update"})
		return
	}

	project, err := h.store.UpdateProject(projectID, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update project",
			Message: err.Error(),
		})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found"})
		return
	}

	response := models.NewProjectResponse(project)
	c.JSON(http.StatusOK, models.ProjectEnvelope{
		Success: true,
		Project: &response,
		Message: "Project updated successfully",
	})
}

// DeleteProject godoc
// @Summary     Delete a project
// @Description Removes the project record. Script records that referenced it
// @Description keep their data and simply lose the association.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	deleted, err := h.store.DeleteProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete project",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Project deleted successfully",
	})
}

// GetProjectAnalysis godoc
// @Summary     Get the latest analysis for a project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectAnalysisResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects/{project_id}/analysis [get]
func (h *ProjectsHandler) GetProjectAnalysis(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve project",
			Message: err.Error(),
		})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Project not found"})
		return
	}

	scripts, err := h.store.ListScriptsForProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to retrieve analysis",
			Message: err.Error(),
		})
		return
	}
	if len(scripts) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "No analysis found for this project"})
		return
	}

	latest := models.NewScriptResponse(&scripts[0])
	c.JSON(http.StatusOK, models.ProjectAnalysisResponse{
		Success:  true,
		Analysis: &latest,
		Message:  "Analysis retrieved successfully",
	})
}

// CreateProjectWithScript godoc
// @Summary     Create a project and analyze its script in one call
// @Description Creates the project, runs the uploaded PDF through the analysis
// @Description service, stores the resulting record against the project, and
// @Description rolls the script's budget up into the project.
// @Tags        projects
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       title formData string true "Project title"
// @Param       description formData string false "Project description"
// @Param       file formData file true "Script PDF"
// @Success     200 {object} models.ProjectWithScriptResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     408 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /create-project-with-script [post]
func (h *ProjectsHandler) CreateProjectWithScript(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}
	if h.analyzerClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "analyzer not available"})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title is required"})
		return
	}
	var description *string
	if d := c.PostForm("description"); d != "" {
		description = &d
	}

	filename, data, ok := readScriptUpload(c, h.cfg.MaxFileSizeMB)
	if !ok {
		return
	}

	project, err := h.store.CreateProject(title, description, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create project",
			Message: err.Error(),
		})
		return
	}

	// The project row stays behind when analysis fails; the upload never
	// reaches the record store in that case.
	result, err := h.analyzerClient.Analyze(c.Request.Context(), filename, data)
	if err != nil {
		status, message := analyzerStatus(err)
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}

	script, err := h.store.CreateScript(database.CreateScriptParams{
		Filename:              filename,
		OriginalFilename:      filename,
		FileSizeBytes:         int64(len(data)),
		RawPayload:            result.ComprehensiveAnalysis,
		ProcessingTimeSeconds: result.ProcessingTime,
		APICallsUsed:          result.APICallsUsed,
		ProjectID:             uuid.NullUUID{UUID: project.ID, Valid: true},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save analysis to database",
			Message: err.Error(),
		})
		return
	}

	h.archive.ArchiveInBackground(script.ID.String(), filename, data)

	budget := script.EstimatedBudget
	duration := models.DefaultProjectDurationDays
	updated, err := h.store.UpdateProject(project.ID, models.ProjectUpdate{
		ScriptFilename:        &filename,
		BudgetTotal:           &budget,
		EstimatedDurationDays: &duration,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update project",
			Message: err.Error(),
		})
		return
	}
	if updated != nil {
		project = updated
	}

	projectResponse := models.NewProjectResponse(project)
	scriptSummary := models.NewScriptSummary(script)
	c.JSON(http.StatusOK, models.ProjectWithScriptResponse{
		Success:        true,
		Project:        &projectResponse,
		ScriptAnalysis: &scriptSummary,
		Message:        "Project created and script analyzed successfully",
	})
}

// currentUserID reads the authenticated user id placed in the context by the
// auth middleware. Calls outside an authenticated group yield the invalid
// NullUUID, which the store treats as "no owner filter".
func currentUserID(c *gin.Context) uuid.NullUUID {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return uuid.NullUUID{}
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
