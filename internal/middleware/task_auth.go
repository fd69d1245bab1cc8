package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/database"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// RequireSprintAccess loads the sprint in :sprint_id.
// User must be a member of the sprint's product.
func RequireSprintAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		sprintID, err := strconv.ParseUint(c.Param("sprint_id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid sprint ID")
			return
		}

		var sprint models.Sprint
		if err := database.GetDB().First(&sprint, sprintID).Error; err != nil {
			apierrors.NotFound(c, "Sprint not found")
			return
		}

		member, ok := loadMembership(c, sprint.ProductID)
		if !ok {
			apierrors.NotFound(c, "Sprint not found")
			return
		}

		c.Set(constants.ContextKeySprint, sprint)
		c.Set(constants.ContextKeyProductMember, member)
		c.Next()
	}
}

// RequireTaskAccess loads the task in :task_id.
// User must be a member of the task's product.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		var task models.Task
		if err := database.GetDB().First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			return
		}

		member, ok := loadMembership(c, task.ProductID)
		if !ok {
			apierrors.NotFound(c, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Set(constants.ContextKeyProductMember, member)
		c.Next()
	}
}

func GetSprint(c *gin.Context) (models.Sprint, bool) {
	v, exists := c.Get(constants.ContextKeySprint)
	if !exists {
		return models.Sprint{}, false
	}
	sprint, ok := v.(models.Sprint)
	return sprint, ok
}

func GetTask(c *gin.Context) (models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
