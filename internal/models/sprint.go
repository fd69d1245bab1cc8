package models

import (
	"time"

	"gorm.io/gorm"
)

type SprintStatus string

const (
	SprintStatusPlanned SprintStatus = "PLANNED"
	SprintStatusStarted SprintStatus = "STARTED"
	SprintStatusClosed  SprintStatus = "CLOSED"
)

// Sprint owns its tasks. Start, End, ReleaseDate and the effort totals are
// written by the scheduler and are not user-authoritative.
type Sprint struct {
	ID                uint64       `gorm:"primarykey" json:"id"`
	ProductID         uint64       `gorm:"not null;index" json:"product_id"`
	FeatureID         uint64       `gorm:"not null;index" json:"feature_id"`
	UserID            *uint64      `gorm:"index" json:"user_id"`
	Name              string       `gorm:"type:varchar(255);not null" json:"name"`
	Status            SprintStatus `gorm:"type:varchar(20);not null;default:'PLANNED'" json:"status"`
	PlannedStart      *time.Time   `json:"planned_start"`
	ReleaseBufferDays int          `gorm:"not null;default:0" json:"release_buffer_days"`

	Start              *time.Time    `json:"start"`
	End                *time.Time    `json:"end"`
	ReleaseDate        *time.Time    `json:"release_date"`
	OriginalEstimation time.Duration `gorm:"not null;default:0" json:"original_estimation"`
	Remaining          time.Duration `gorm:"not null;default:0" json:"remaining"`
	Worked             time.Duration `gorm:"not null;default:0" json:"worked"`
	ScheduledAt        *time.Time    `json:"scheduled_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner *User  `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Tasks []Task `gorm:"foreignKey:SprintID" json:"tasks,omitempty"`
}
