package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

// Paginate limits a query to one page. The zero page leaves it untouched.
func Paginate(page utils.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !page.Enabled() {
			return db
		}
		return db.Offset(page.Offset()).Limit(page.Size)
	}
}

// InSprint restricts a query to the rows of one sprint.
func InSprint(sprintID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("sprint_id = ?", sprintID)
	}
}
