package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateWorkWeek is returned when creating the default work week fails inside the signup transaction.
	ErrCreateWorkWeek = errors.New("user repository: create work week failed")
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithWorkWeek inserts a user together with the work week the scheduler
// reads for them. Neither row is kept if the other fails.
func (r *GormUserRepository) CreateWithWorkWeek(user *models.User, week *models.UserWorkWeek) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		week.UserID = user.ID
		if err := tx.Create(week).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkWeek, err)
		}
		return nil
	})
}

func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("WorkWeek").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Usernames maps the given IDs to usernames. Unknown or deleted users are
// absent from the result.
func (r *GormUserRepository) Usernames(ids []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID       uint64
		Username string
	}
	if err := r.db.Model(&models.User{}).Select("id", "username").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Username
	}
	return names, nil
}
