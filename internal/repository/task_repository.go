package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/sprint-planner-api/internal/database"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves the tasks of a sprint with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.sprint_id = ?", filter.SprintID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.ParentID != nil {
		query = query.Where("tasks.parent_id = ?", *filter.ParentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(clause.OrderByColumn{Column: clause.Column{Table: "tasks", Name: "start"}}).
		Order("tasks.id").
		Scopes(database.Paginate(filter.Page))

	if err := listQuery.Preload("Assignee").Preload("Predecessors").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListBySprint returns all tasks of a sprint ordered by ID
func (r *GormTaskRepository) ListBySprint(sprintID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Predecessors").
		Scopes(database.InSprint(sprintID)).
		Order("id").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? OR predecessor_id = ?", id, id).Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Worklog{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddDependency stores a predecessor edge; an existing edge is kept as is
func (r *GormTaskRepository) AddDependency(dep *models.TaskDependency) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(dep).Error
}

// RemoveDependency deletes a predecessor edge
func (r *GormTaskRepository) RemoveDependency(taskID, predecessorID uint64) error {
	return r.db.Where("task_id = ? AND predecessor_id = ?", taskID, predecessorID).
		Delete(&models.TaskDependency{}).Error
}

// FindDependency finds a specific predecessor edge
func (r *GormTaskRepository) FindDependency(taskID, predecessorID uint64) (*models.TaskDependency, error) {
	var dep models.TaskDependency
	if err := r.db.Where("task_id = ? AND predecessor_id = ?", taskID, predecessorID).
		First(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

// CountChildren counts the live children of a task
func (r *GormTaskRepository) CountChildren(taskID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("parent_id = ?", taskID).Count(&count).Error
	return count, err
}
