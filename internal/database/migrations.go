package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/logger"
)

type index struct {
	table   string
	name    string
	columns string
}

// compositeIndexes cover the lookups of a scheduling pass that the
// single-column tag indexes do not.
var compositeIndexes = []index{
	{"tasks", "idx_tasks_sprint_parent", "sprint_id, parent_id"},
	{"tasks", "idx_tasks_assignee_sprint", "assignee_id, sprint_id"},
	{"worklogs", "idx_worklogs_sprint_logged_at", "sprint_id, logged_at"},
	{"sprints", "idx_sprints_feature_status", "feature_id, status"},
	{"user_availabilities", "idx_availability_user_start", "user_id, start"},
	{"off_days", "idx_off_days_user_first_day", "user_id, first_day"},
	{"product_members", "idx_product_members_user", "user_id"},
}

// AddIndexes creates the composite indexes that do not exist yet.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Global().Debug().Str("index", idx.name).Str("table", idx.table).Msg("Created index")
	}

	return nil
}
