package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account that can own products, be assigned tasks and log work.
// Its working calendar lives in UserWorkWeek plus the availability, off day
// and location rows keyed by the same ID.
type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships    []ProductMember    `gorm:"foreignKey:UserID" json:"-"`
	AssignedTasks  []Task             `gorm:"foreignKey:AssigneeID" json:"-"`
	Worklogs       []Worklog          `gorm:"foreignKey:UserID" json:"-"`
	WorkWeek       *UserWorkWeek      `gorm:"foreignKey:UserID" json:"-"`
	Availabilities []UserAvailability `gorm:"foreignKey:UserID" json:"-"`
	OffDays        []OffDay           `gorm:"foreignKey:UserID" json:"-"`
	Locations      []UserLocation     `gorm:"foreignKey:UserID" json:"-"`
}
