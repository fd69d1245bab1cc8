package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

type TaskMode string

const (
	TaskModeAuto   TaskMode = "AUTO_SCHEDULED"
	TaskModeManual TaskMode = "MANUAL"
)

// Task is a unit of work inside a sprint. A task with children is a story
// and its effort fields mirror the sum of its children.
type Task struct {
	ID                uint64         `gorm:"primarykey" json:"id"`
	ProductID         uint64         `gorm:"not null;index" json:"product_id"`
	SprintID          uint64         `gorm:"not null;index" json:"sprint_id"`
	ParentID          *uint64        `gorm:"index" json:"parent_id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	Description       string         `gorm:"type:text" json:"description"`
	Status            TaskStatus     `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Mode              TaskMode       `gorm:"type:varchar(20);not null;default:'AUTO_SCHEDULED'" json:"mode"`
	Milestone         bool           `gorm:"not null;default:false" json:"milestone"`
	MinEstimate       time.Duration  `gorm:"not null;default:0" json:"min_estimate"`
	MaxEstimate       time.Duration  `gorm:"not null;default:0" json:"max_estimate"`
	RemainingEstimate time.Duration  `gorm:"not null;default:0" json:"remaining_estimate"`
	Worked            time.Duration  `gorm:"not null;default:0" json:"worked"`
	AssigneeID        *uint64        `gorm:"index" json:"assignee_id"`
	CreatorID         uint64         `gorm:"not null" json:"creator_id"`
	Start             *time.Time     `json:"start"`
	End               *time.Time     `json:"end"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assignee     *User            `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Predecessors []TaskDependency `gorm:"foreignKey:TaskID" json:"predecessors,omitempty"`
	Children     []Task           `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// OriginalEstimate is the effort the task was planned with.
func (t Task) OriginalEstimate() time.Duration {
	return t.MaxEstimate
}

// PredecessorIDs returns the IDs of the tasks this task waits for.
func (t Task) PredecessorIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Predecessors))
	for _, dep := range t.Predecessors {
		ids = append(ids, dep.PredecessorID)
	}
	return ids
}

// TaskDependency is a directed edge: TaskID cannot start before PredecessorID ends.
type TaskDependency struct {
	TaskID        uint64    `gorm:"primarykey" json:"task_id"`
	PredecessorID uint64    `gorm:"primarykey;index" json:"predecessor_id"`
	CreatedAt     time.Time `json:"created_at"`
}
