package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/sprint-planner-api/internal/database"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// GormWorklogRepository is a GORM implementation of WorklogRepository
type GormWorklogRepository struct {
	db *gorm.DB
}

// NewWorklogRepository creates a new WorklogRepository
func NewWorklogRepository(db *gorm.DB) WorklogRepository {
	return &GormWorklogRepository{db: db}
}

// CreateApplied locks the task row of worklog, lets apply change its effort
// and stores both in one transaction.
func (r *GormWorklogRepository) CreateApplied(worklog *models.Worklog, apply func(task *models.Task) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, worklog.TaskID)
		if err != nil {
			return err
		}
		if err := apply(task); err != nil {
			return err
		}
		if err := tx.Create(worklog).Error; err != nil {
			return err
		}
		return saveEffort(tx, task)
	})
}

// DeleteReverted is the inverse of CreateApplied.
func (r *GormWorklogRepository) DeleteReverted(worklog *models.Worklog, revert func(task *models.Task) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, worklog.TaskID)
		if err != nil {
			return err
		}
		if err := revert(task); err != nil {
			return err
		}
		if err := tx.Delete(&models.Worklog{}, worklog.ID).Error; err != nil {
			return err
		}
		return saveEffort(tx, task)
	})
}

func (r *GormWorklogRepository) FindByID(id uint64) (*models.Worklog, error) {
	var worklog models.Worklog
	if err := r.db.First(&worklog, id).Error; err != nil {
		return nil, err
	}
	return &worklog, nil
}

func (r *GormWorklogRepository) ListByTask(taskID uint64) ([]models.Worklog, error) {
	var worklogs []models.Worklog
	if err := r.db.Where("task_id = ?", taskID).
		Order("logged_at").Order("id").
		Find(&worklogs).Error; err != nil {
		return nil, err
	}
	return worklogs, nil
}

// ListBySprint lists the worklogs of a sprint, optionally bounded to
// [from, to).
func (r *GormWorklogRepository) ListBySprint(sprintID uint64, from, to *time.Time) ([]models.Worklog, error) {
	query := r.db.Scopes(database.InSprint(sprintID))
	if from != nil {
		query = query.Where("logged_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("logged_at < ?", *to)
	}

	var worklogs []models.Worklog
	if err := query.Order("logged_at").Order("id").Find(&worklogs).Error; err != nil {
		return nil, err
	}
	return worklogs, nil
}

// lockTask reads a task with SELECT ... FOR UPDATE. SQLite has no row locks
// and serializes writers instead.
func lockTask(tx *gorm.DB, id uint64) (*models.Task, error) {
	var task models.Task
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// saveEffort writes the ledger columns of task.
func saveEffort(tx *gorm.DB, task *models.Task) error {
	return tx.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"remaining_estimate": task.RemainingEstimate,
			"worked":             task.Worked,
			"status":             task.Status,
		}).Error
}
