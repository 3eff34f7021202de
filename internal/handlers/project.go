package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/constants"
	"github.com/sarashino/voice-diary-api/internal/dto"
	apierrors "github.com/sarashino/voice-diary-api/internal/errors"
	"github.com/sarashino/voice-diary-api/internal/middleware"
	"github.com/sarashino/voice-diary-api/internal/services"
	"github.com/sarashino/voice-diary-api/internal/storage"
	"github.com/sarashino/voice-diary-api/internal/utils"
)

// ProjectHandler coordinates project HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
	debugErrors    bool
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, debugErrors bool) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		debugErrors:    debugErrors,
	}
}

// ListProjects returns a page of projects. No authentication required.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListProjects(params.Offset, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ProjectListResponse{
		Projects: dto.ToProjectDTOs(projects),
		Page:     params.Page,
		Limit:    params.Limit,
		Total:    total,
	})
}

// GetProject returns a single project. No authentication required.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, err := h.projectService.GetProject(projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apierrors.NotFound(c, "Project not found")
		} else {
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject accepts a multipart audio upload, stores it through the
// active backend, and runs the initial transcription and analysis.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		apierrors.BadRequest(c, "Audio file is required")
		return
	}
	if fileHeader.Size > constants.MaxAudioUploadBytes {
		apierrors.BadRequest(c, "Audio file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read audio file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxAudioUploadBytes))
	if err != nil {
		apierrors.BadRequest(c, "Failed to read audio file")
		return
	}

	input := services.CreateProjectInput{
		Name:        c.PostForm("name"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		OwnerID:     principal.ID,
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), input)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	// Transcription and analysis degrade to placeholders on AI failure;
	// the upload itself has already committed.
	project, err = h.projectService.Analyze(c.Request.Context(), project, data, fileHeader.Filename)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// RenameProject updates the project name. Owner or admin only.
func (h *ProjectHandler) RenameProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type RenameRequest struct {
		Name string `json:"name" binding:"required"`
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.projectService.Rename(project, req.Name); err != nil {
		if errors.Is(err, services.ErrNameRequired) {
			apierrors.BadRequest(c, "Project name is required")
		} else {
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// AnalyzeProject re-derives the emotional analysis. Owner or admin only.
func (h *ProjectHandler) AnalyzeProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	project, err := h.projectService.Reanalyze(c.Request.Context(), project)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// GenerateCover creates or replaces the project cover. Owner or admin only.
func (h *ProjectHandler) GenerateCover(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	type CoverRequest struct {
		Prompt string `json:"prompt"`
	}
	var req CoverRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	project, err := h.projectService.GenerateCover(c.Request.Context(), project, req.Prompt)
	if err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes the project and its assets. Owner or admin only.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), project); err != nil {
		h.respondProjectError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondProjectError maps storage error kinds to response codes. Raw
// backend detail is only exposed to authenticated callers with the debug
// flag enabled.
func (h *ProjectHandler) respondProjectError(c *gin.Context, err error) {
	detail := ""
	if _, authed := middleware.GetPrincipal(c); authed && h.debugErrors {
		detail = err.Error()
	}

	switch {
	case storage.IsKind(err, storage.KindInvalidSource):
		apierrors.BadRequest(c, detail)
	case storage.IsKind(err, storage.KindNotFound):
		apierrors.NotFound(c, detail)
	case storage.IsKind(err, storage.KindNotConfigured),
		storage.IsKind(err, storage.KindUnavailable),
		storage.IsKind(err, storage.KindUploadRejected):
		apierrors.ServiceUnavailable(c, detail)
	default:
		apierrors.InternalError(c, detail)
	}
}
