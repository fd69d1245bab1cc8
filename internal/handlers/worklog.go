package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

type WorklogHandler struct {
	worklogService *services.WorklogService
}

func NewWorklogHandler(worklogService *services.WorklogService) *WorklogHandler {
	return &WorklogHandler{worklogService: worklogService}
}

// CreateWorklog books time on a task. Work beyond the remaining estimate is
// accepted and reported as a warning.
func (h *WorklogHandler) CreateWorklog(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type CreateWorklogRequest struct {
		TimeSpent float64    `json:"time_spent_hours" binding:"required"`
		LoggedAt  *time.Time `json:"logged_at"`
		Comment   string     `json:"comment"`
	}

	var req CreateWorklogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	worklog, warning, err := h.worklogService.CreateWorklog(c.Request.Context(), services.CreateWorklogInput{
		TaskID:    task.ID,
		UserID:    userID,
		TimeSpent: dto.FromHours(req.TimeSpent),
		LoggedAt:  req.LoggedAt,
		Comment:   req.Comment,
	})
	if err != nil {
		respondWorklogError(c, err)
		return
	}

	response := gin.H{"worklog": dto.ToWorklogDTO(*worklog)}
	if warning != nil {
		response["warning"] = gin.H{
			"task_id":       warning.TaskID,
			"overage_hours": dto.Hours(warning.Overage),
			"message":       warning.String(),
		}
	}
	c.JSON(http.StatusCreated, response)
}

// ListTaskWorklogs returns the worklogs of a task
func (h *WorklogHandler) ListTaskWorklogs(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	worklogs, err := h.worklogService.ListTaskWorklogs(task.ID)
	if err != nil {
		respondWorklogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"worklogs": toWorklogDTOs(worklogs)})
}

// ListSprintWorklogs returns the worklogs of a sprint, optionally limited to
// the days from and to
func (h *WorklogHandler) ListSprintWorklogs(c *gin.Context) {
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

	worklogs, err := h.worklogService.ListSprintWorklogs(sprint.ID, from, to)
	if err != nil {
		respondWorklogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"worklogs": toWorklogDTOs(worklogs)})
}

// DeleteWorklog removes a worklog of the task in the path
func (h *WorklogHandler) DeleteWorklog(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	worklogID, ok := uintParam(c, "worklog_id", "worklog ID")
	if !ok {
		return
	}

	worklog, err := h.worklogService.FindWorklog(worklogID)
	if err != nil {
		respondWorklogError(c, err)
		return
	}
	if worklog.TaskID != task.ID {
		apierrors.NotFound(c, services.ErrWorklogNotFound.Error())
		return
	}

	if err := h.worklogService.DeleteWorklog(c.Request.Context(), worklogID, userID); err != nil {
		respondWorklogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Worklog deleted successfully"})
}

func toWorklogDTOs(worklogs []models.Worklog) []dto.WorklogDTO {
	items := make([]dto.WorklogDTO, len(worklogs))
	for i, w := range worklogs {
		items[i] = dto.ToWorklogDTO(w)
	}
	return items
}

func respondWorklogError(c *gin.Context, err error) {
	if respondPlanningError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrTimeSpentRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorklogOnStory):
		apierrors.Unprocessable(c, err.Error())
	case errors.Is(err, services.ErrWorklogNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotWorklogAuthor):
		apierrors.Forbidden(c, err.Error())
	default:
		internalError(c, err, "Failed to process worklog request")
	}
}
