package models

import "time"

// Worklog records time spent on a task. Overage is the part of TimeSpent that
// exceeded the remaining estimate when the entry was applied.
type Worklog struct {
	ID        uint64        `gorm:"primarykey" json:"id"`
	TaskID    uint64        `gorm:"not null;index" json:"task_id"`
	SprintID  uint64        `gorm:"not null;index" json:"sprint_id"`
	UserID    uint64        `gorm:"not null;index" json:"user_id"`
	LoggedAt  time.Time     `gorm:"not null;index" json:"logged_at"`
	TimeSpent time.Duration `gorm:"not null" json:"time_spent"`
	Overage   time.Duration `gorm:"not null;default:0" json:"overage"`
	Comment   string        `gorm:"type:text" json:"comment"`
	CreatedAt time.Time     `json:"created_at"`
}
