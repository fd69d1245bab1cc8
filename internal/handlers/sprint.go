package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SprintHandler struct {
	sprintService *services.SprintService
}

func NewSprintHandler(sprintService *services.SprintService) *SprintHandler {
	return &SprintHandler{sprintService: sprintService}
}

// CreateSprint creates a sprint under a feature of the product
func (h *SprintHandler) CreateSprint(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	type CreateSprintRequest struct {
		FeatureID         uint64    `json:"feature_id" binding:"required"`
		Name              string    `json:"name" binding:"required"`
		OwnerID           *uint64   `json:"user_id"`
		PlannedStart      *dto.Date `json:"planned_start"`
		ReleaseBufferDays *int      `json:"release_buffer_days"`
	}

	var req CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	sprint, err := h.sprintService.CreateSprint(c.Request.Context(), services.CreateSprintInput{
		ProductID:         product.ID,
		FeatureID:         req.FeatureID,
		OwnerID:           req.OwnerID,
		Name:              req.Name,
		PlannedStart:      req.PlannedStart.TimePtr(),
		ReleaseBufferDays: req.ReleaseBufferDays,
	})
	if err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSprintDTO(*sprint))
}

// ListSprints returns the sprints of the product, optionally filtered by
// feature_id and status
func (h *SprintHandler) ListSprints(c *gin.Context) {
	product, ok := middleware.GetProduct(c)
	if !ok {
		apierrors.InternalError(c, "Product not found in context")
		return
	}

	input := services.ListSprintsInput{ProductID: product.ID}
	if raw := c.Query("feature_id"); raw != "" {
		featureID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid feature_id")
			return
		}
		input.FeatureID = &featureID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SprintStatus(raw)
		input.Status = &status
	}

	sprints, err := h.sprintService.ListSprints(input)
	if err != nil {
		respondSprintError(c, err)
		return
	}

	items := make([]dto.SprintDTO, len(sprints))
	for i, s := range sprints {
		items[i] = dto.ToSprintDTO(s)
	}
	c.JSON(http.StatusOK, gin.H{"sprints": items})
}

// GetSprint returns a sprint with its latest computed schedule
func (h *SprintHandler) GetSprint(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}
	c.JSON(http.StatusOK, dto.ToSprintDTO(sprint))
}

// UpdateSprint updates the editable fields of a sprint. Sending null for
// user_id or planned_start clears them.
func (h *SprintHandler) UpdateSprint(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	type UpdateSprintRequest struct {
		Name              *string              `json:"name"`
		Status            *models.SprintStatus `json:"status"`
		OwnerID           *uint64              `json:"user_id"`
		PlannedStart      *dto.Date            `json:"planned_start"`
		ReleaseBufferDays *int                 `json:"release_buffer_days"`
	}

	var req UpdateSprintRequest
	fields, ok := bindPatch(c, &req)
	if !ok {
		return
	}

	updated, err := h.sprintService.UpdateSprint(c.Request.Context(), sprint.ID, services.UpdateSprintInput{
		Name:              req.Name,
		Status:            req.Status,
		OwnerID:           req.OwnerID,
		ClearOwner:        isNull(fields, "user_id"),
		PlannedStart:      req.PlannedStart.TimePtr(),
		ClearPlannedStart: isNull(fields, "planned_start"),
		ReleaseBufferDays: req.ReleaseBufferDays,
	})
	if err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSprintDTO(*updated))
}

// DeleteSprint deletes a sprint with its tasks and worklogs
func (h *SprintHandler) DeleteSprint(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	if err := h.sprintService.DeleteSprint(sprint.ID); err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sprint deleted successfully"})
}

// Schedule recomputes and stores the schedule of a sprint
func (h *SprintHandler) Schedule(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	result, err := h.sprintService.Reschedule(c.Request.Context(), sprint.ID)
	if err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGanttDTO(sprint.ID, result))
}

// Gantt returns the schedule of a sprint computed from the current data
func (h *SprintHandler) Gantt(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	result, err := h.sprintService.Gantt(c.Request.Context(), sprint.ID)
	if err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGanttDTO(sprint.ID, result))
}

// Burndown returns the burndown series. from and to default to the
// scheduled start and end of the sprint.
func (h *SprintHandler) Burndown(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	series, err := h.sprintService.Burndown(c.Request.Context(), sprint.ID, from, to)
	if err != nil {
		respondSprintError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBurndownDTO(sprint.ID, series))
}

// Export downloads the gantt and burndown of a sprint as a spreadsheet
func (h *SprintHandler) Export(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	buf, err := h.sprintService.Export(c.Request.Context(), sprint.ID)
	if err != nil {
		respondSprintError(c, err)
		return
	}

	logger.FromGin(c).Info().
		Uint64("sprint_id", sprint.ID).
		Int("bytes", buf.Len()).
		Msg("Sprint report exported")

	filename := fmt.Sprintf("sprint-%d.xlsx", sprint.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func respondSprintError(c *gin.Context, err error) {
	if respondPlanningError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrSprintNameRequired),
		errors.Is(err, services.ErrInvalidSprintStatus),
		errors.Is(err, services.ErrInvalidReleaseBuffer),
		errors.Is(err, services.ErrSprintOwnerNotMember):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSprintNotFound),
		errors.Is(err, services.ErrFeatureNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrSprintNotScheduled):
		apierrors.Unprocessable(c, err.Error())
	default:
		internalError(c, err, "Failed to process sprint request")
	}
}
