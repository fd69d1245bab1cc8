package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/services"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks of a sprint
// Can filter by status, assignee_id and parent_id
func (h *TaskHandler) ListTasks(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	page := utils.PageFromQuery(c)
	input := services.ListTasksInput{
		SprintID: sprint.ID,
		Page:     page,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}
	for key, target := range map[string]**uint64{
		"assignee_id": &input.AssigneeID,
		"parent_id":   &input.ParentID,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid "+key)
			return
		}
		*target = &id
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// GetTask returns a specific task with its assignee and dependencies
func (h *TaskHandler) GetTask(c *gin.Context) {
	current, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, err := h.taskService.GetTask(current.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in the sprint
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	type CreateTaskRequest struct {
		Name              string            `json:"name" binding:"required"`
		Description       string            `json:"description"`
		Status            models.TaskStatus `json:"status"`
		Mode              models.TaskMode   `json:"mode"`
		Milestone         bool              `json:"milestone"`
		MinEstimate       float64           `json:"min_estimate_hours"`
		MaxEstimate       float64           `json:"max_estimate_hours"`
		RemainingEstimate *float64          `json:"remaining_estimate_hours"`
		AssigneeID        *uint64           `json:"assignee_id"`
		ParentID          *uint64           `json:"parent_id"`
		Start             *dto.Date         `json:"start"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		SprintID:          sprint.ID,
		CreatorID:         userID,
		Name:              req.Name,
		Description:       req.Description,
		Status:            req.Status,
		Mode:              req.Mode,
		Milestone:         req.Milestone,
		MinEstimate:       dto.FromHours(req.MinEstimate),
		MaxEstimate:       dto.FromHours(req.MaxEstimate),
		RemainingEstimate: hoursPtr(req.RemainingEstimate),
		AssigneeID:        req.AssigneeID,
		ParentID:          req.ParentID,
		Start:             req.Start.TimePtr(),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task
// Sending null for assignee_id, parent_id or start clears them
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	current, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Name              *string            `json:"name"`
		Description       *string            `json:"description"`
		Status            *models.TaskStatus `json:"status"`
		Mode              *models.TaskMode   `json:"mode"`
		Milestone         *bool              `json:"milestone"`
		MinEstimate       *float64           `json:"min_estimate_hours"`
		MaxEstimate       *float64           `json:"max_estimate_hours"`
		RemainingEstimate *float64           `json:"remaining_estimate_hours"`
		AssigneeID        *uint64            `json:"assignee_id"`
		ParentID          *uint64            `json:"parent_id"`
		Start             *dto.Date          `json:"start"`
	}

	var req UpdateTaskRequest
	fields, ok := bindPatch(c, &req)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), current.ID, services.UpdateTaskInput{
		Name:              req.Name,
		Description:       req.Description,
		Status:            req.Status,
		Mode:              req.Mode,
		Milestone:         req.Milestone,
		MinEstimate:       hoursPtr(req.MinEstimate),
		MaxEstimate:       hoursPtr(req.MaxEstimate),
		RemainingEstimate: hoursPtr(req.RemainingEstimate),
		AssigneeID:        req.AssigneeID,
		ClearAssignee:     isNull(fields, "assignee_id"),
		ParentID:          req.ParentID,
		ClearParent:       isNull(fields, "parent_id"),
		Start:             req.Start.TimePtr(),
		ClearStart:        isNull(fields, "start"),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
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

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AddDependency makes the task wait for another task of the same sprint
func (h *TaskHandler) AddDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type DependencyRequest struct {
		PredecessorID uint64 `json:"predecessor_id" binding:"required"`
	}

	var req DependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.AddDependency(c.Request.Context(), task.ID, req.PredecessorID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	predecessorID, ok := uintParam(c, "predecessor_id", "predecessor ID")
	if !ok {
		return
	}

	if err := h.taskService.RemoveDependency(c.Request.Context(), task.ID, predecessorID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dependency removed successfully",
	})
}

// SuggestTasks proposes tasks with estimates for the sprint from free text.
// Nothing is stored.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	sprint, ok := middleware.GetSprint(c)
	if !ok {
		apierrors.InternalError(c, "Sprint not found in context")
		return
	}

	type SuggestRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), services.SuggestTasksInput{
		SprintID: sprint.ID,
		Text:     req.Text,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	logger.FromGin(c).Info().
		Uint64("sprint_id", sprint.ID).
		Int("count", len(suggestions)).
		Msg("Tasks suggested")

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

func respondTaskError(c *gin.Context, err error) {
	if respondPlanningError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNameEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskMode),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrSelfDependency),
		errors.Is(err, services.ErrDependencySprintMismatch),
		errors.Is(err, services.ErrAITextTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSprintNotFound),
		errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrPredecessorNotFound),
		errors.Is(err, services.ErrDependencyNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTaskCreator):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.Unprocessable(c, err.Error())
	default:
		internalError(c, err, "Failed to process task request")
	}
}
