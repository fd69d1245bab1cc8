package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// GormSprintRepository is a GORM implementation of SprintRepository
type GormSprintRepository struct {
	db *gorm.DB
}

// NewSprintRepository creates a new SprintRepository
func NewSprintRepository(db *gorm.DB) SprintRepository {
	return &GormSprintRepository{db: db}
}

func (r *GormSprintRepository) Create(sprint *models.Sprint) error {
	return r.db.Create(sprint).Error
}

// FindByID finds a sprint by ID with optional preloading
func (r *GormSprintRepository) FindByID(id uint64, preload ...string) (*models.Sprint, error) {
	var sprint models.Sprint
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&sprint, id).Error; err != nil {
		return nil, err
	}
	return &sprint, nil
}

func (r *GormSprintRepository) List(filter SprintFilter) ([]models.Sprint, error) {
	query := r.db.Where("product_id = ?", filter.ProductID)
	if filter.FeatureID != nil {
		query = query.Where("feature_id = ?", *filter.FeatureID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var sprints []models.Sprint
	if err := query.Order("id").Find(&sprints).Error; err != nil {
		return nil, err
	}
	return sprints, nil
}

func (r *GormSprintRepository) Update(sprint *models.Sprint) error {
	return r.db.Save(sprint).Error
}

func (r *GormSprintRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteSprintsWhere(tx, "id = ?", id)
	})
}

// SaveSchedule persists scheduler output only.
func (r *GormSprintRepository) SaveSchedule(ctx context.Context, sprint *models.Sprint, tasks []models.Task) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tasks {
			if err := tx.Model(&models.Task{}).
				Where("id = ? AND sprint_id = ?", t.ID, sprint.ID).
				Updates(map[string]interface{}{
					"start": t.Start,
					"end":   t.End,
				}).Error; err != nil {
				return err
			}
		}

		sprint.ScheduledAt = &now
		return tx.Model(&models.Sprint{}).
			Where("id = ?", sprint.ID).
			Updates(map[string]interface{}{
				"start":               sprint.Start,
				"end":                 sprint.End,
				"release_date":        sprint.ReleaseDate,
				"original_estimation": sprint.OriginalEstimation,
				"remaining":           sprint.Remaining,
				"worked":              sprint.Worked,
				"scheduled_at":        sprint.ScheduledAt,
			}).Error
	})
}

func (r *GormSprintRepository) ListIDsForUser(userID uint64) ([]uint64, error) {
	assigned := r.db.Model(&models.Task{}).Select("sprint_id").Where("assignee_id = ?", userID)

	var ids []uint64
	if err := r.db.Model(&models.Sprint{}).
		Where("user_id = ? OR id IN (?)", userID, assigned).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
