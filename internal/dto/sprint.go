package dto

import (
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/burndown"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/scheduler"
)

// SprintDTO represents a sprint in API responses. Efforts are in hours.
type SprintDTO struct {
	ID                 uint64              `json:"id"`
	ProductID          uint64              `json:"product_id"`
	FeatureID          uint64              `json:"feature_id"`
	UserID             *uint64             `json:"user_id"`
	Name               string              `json:"name"`
	Status             models.SprintStatus `json:"status"`
	PlannedStart       *Date               `json:"planned_start"`
	ReleaseBufferDays  int                 `json:"release_buffer_days"`
	Start              *Date               `json:"start"`
	End                *Date               `json:"end"`
	ReleaseDate        *Date               `json:"release_date"`
	OriginalEstimation float64             `json:"original_estimation_hours"`
	Remaining          float64             `json:"remaining_hours"`
	Worked             float64             `json:"worked_hours"`
	ScheduledAt        *time.Time          `json:"scheduled_at"`
}

// GanttTaskDTO is one bar of a gantt chart
type GanttTaskDTO struct {
	TaskID     uint64   `json:"task_id"`
	Name       string   `json:"name"`
	ParentID   *uint64  `json:"parent_id,omitempty"`
	AssigneeID uint64   `json:"assignee_id,omitempty"`
	Start      Date     `json:"start"`
	End        Date     `json:"end"`
	Effort     float64  `json:"effort_hours"`
	Milestone  bool     `json:"milestone"`
	Story      bool     `json:"story"`
	Manual     bool     `json:"manual"`
	DependsOn  []uint64 `json:"depends_on"`
}

type GanttDTO struct {
	SprintID    uint64         `json:"sprint_id"`
	Start       *Date          `json:"start"`
	End         *Date          `json:"end"`
	ReleaseDate *Date          `json:"release_date"`
	Tasks       []GanttTaskDTO `json:"tasks"`
}

type BurndownPointDTO struct {
	Date      Date    `json:"date"`
	Remaining float64 `json:"remaining_hours"`
	Ideal     float64 `json:"ideal_hours"`
	Worked    float64 `json:"worked_hours"`
}

type BurndownDTO struct {
	SprintID uint64             `json:"sprint_id"`
	Start    Date               `json:"start"`
	End      Date               `json:"end"`
	Total    float64            `json:"total_hours"`
	Points   []BurndownPointDTO `json:"points"`
}

// ToSprintDTO converts a Sprint model to SprintDTO
func ToSprintDTO(s models.Sprint) SprintDTO {
	return SprintDTO{
		ID:                 s.ID,
		ProductID:          s.ProductID,
		FeatureID:          s.FeatureID,
		UserID:             s.UserID,
		Name:               s.Name,
		Status:             s.Status,
		PlannedStart:       DatePtr(s.PlannedStart),
		ReleaseBufferDays:  s.ReleaseBufferDays,
		Start:              DatePtr(s.Start),
		End:                DatePtr(s.End),
		ReleaseDate:        DatePtr(s.ReleaseDate),
		OriginalEstimation: Hours(s.OriginalEstimation),
		Remaining:          Hours(s.Remaining),
		Worked:             Hours(s.Worked),
		ScheduledAt:        s.ScheduledAt,
	}
}

// ToGanttDTO converts a scheduling result to its gantt view
func ToGanttDTO(sprintID uint64, result *scheduler.Result) GanttDTO {
	tasks := make([]GanttTaskDTO, len(result.Tasks))
	for i, ts := range result.Tasks {
		dependsOn := ts.DependsOn
		if dependsOn == nil {
			dependsOn = []uint64{}
		}
		tasks[i] = GanttTaskDTO{
			TaskID:     ts.TaskID,
			Name:       ts.Name,
			ParentID:   ts.ParentID,
			AssigneeID: ts.AssigneeID,
			Start:      NewDate(ts.Start),
			End:        NewDate(ts.End),
			Effort:     Hours(ts.Effort),
			Milestone:  ts.Milestone,
			Story:      ts.Story,
			Manual:     ts.Manual,
			DependsOn:  dependsOn,
		}
	}
	return GanttDTO{
		SprintID:    sprintID,
		Start:       DatePtr(result.Start),
		End:         DatePtr(result.End),
		ReleaseDate: DatePtr(result.ReleaseDate),
		Tasks:       tasks,
	}
}

// ToBurndownDTO converts a burndown series
func ToBurndownDTO(sprintID uint64, series *burndown.Series) BurndownDTO {
	points := make([]BurndownPointDTO, len(series.Points))
	for i, p := range series.Points {
		points[i] = BurndownPointDTO{
			Date:      NewDate(p.Date),
			Remaining: Hours(p.Remaining),
			Ideal:     Hours(p.Ideal),
			Worked:    Hours(p.Worked),
		}
	}
	return BurndownDTO{
		SprintID: sprintID,
		Start:    NewDate(series.Start),
		End:      NewDate(series.End),
		Total:    Hours(series.Total),
		Points:   points,
	}
}
