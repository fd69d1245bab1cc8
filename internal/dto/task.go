package dto

import (
	"math"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// CurrentUserDTO is the authenticated user together with their work week
type CurrentUserDTO struct {
	UserDTO
	WorkWeek *WorkWeekDTO `json:"work_week,omitempty"`
}

// TaskDTO represents a task in API responses. Efforts are in hours.
type TaskDTO struct {
	ID                uint64            `json:"id"`
	SprintID          uint64            `json:"sprint_id"`
	ParentID          *uint64           `json:"parent_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Status            models.TaskStatus `json:"status"`
	Mode              models.TaskMode   `json:"mode"`
	Milestone         bool              `json:"milestone"`
	MinEstimate       float64           `json:"min_estimate_hours"`
	MaxEstimate       float64           `json:"max_estimate_hours"`
	RemainingEstimate float64           `json:"remaining_estimate_hours"`
	Worked            float64           `json:"worked_hours"`
	AssigneeID        *uint64           `json:"assignee_id"`
	CreatorID         uint64            `json:"creator_id"`
	Start             *Date             `json:"start"`
	End               *Date             `json:"end"`
	DependsOn         []uint64          `json:"depends_on"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Assignee          *UserDTO          `json:"assignee,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// WorklogDTO represents a worklog entry in API responses
type WorklogDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	UserID    uint64    `json:"user_id"`
	LoggedAt  time.Time `json:"logged_at"`
	TimeSpent float64   `json:"time_spent_hours"`
	Overage   float64   `json:"overage_hours"`
	Comment   string    `json:"comment"`
}

// Conversion functions

// Hours converts a duration to hours rounded to two decimals
func Hours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// FromHours converts hours to a duration, rounded to the minute
func FromHours(h float64) time.Duration {
	return time.Duration(math.Round(h*60)) * time.Minute
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

func ToCurrentUserDTO(user models.User) CurrentUserDTO {
	out := CurrentUserDTO{UserDTO: ToUserDTO(user)}
	if user.WorkWeek != nil {
		week := ToWorkWeekDTO(*user.WorkWeek)
		out.WorkWeek = &week
	}
	return out
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                task.ID,
		SprintID:          task.SprintID,
		ParentID:          task.ParentID,
		Name:              task.Name,
		Description:       task.Description,
		Status:            task.Status,
		Mode:              task.Mode,
		Milestone:         task.Milestone,
		MinEstimate:       Hours(task.MinEstimate),
		MaxEstimate:       Hours(task.MaxEstimate),
		RemainingEstimate: Hours(task.RemainingEstimate),
		Worked:            Hours(task.Worked),
		AssigneeID:        task.AssigneeID,
		CreatorID:         task.CreatorID,
		Start:             DatePtr(task.Start),
		End:               DatePtr(task.End),
		DependsOn:         task.PredecessorIDs(),
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page utils.Page, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalCount: totalCount,
		TotalPages: page.TotalPages(totalCount),
	}
}

// ToWorklogDTO converts a Worklog model to WorklogDTO
func ToWorklogDTO(w models.Worklog) WorklogDTO {
	return WorklogDTO{
		ID:        w.ID,
		TaskID:    w.TaskID,
		UserID:    w.UserID,
		LoggedAt:  w.LoggedAt,
		TimeSpent: Hours(w.TimeSpent),
		Overage:   Hours(w.Overage),
		Comment:   w.Comment,
	}
}
