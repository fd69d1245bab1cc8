package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// GormCalendarRepository is a GORM implementation of CalendarRepository
type GormCalendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository creates a new CalendarRepository
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &GormCalendarRepository{db: db}
}

func (r *GormCalendarRepository) FindWorkWeek(userID uint64) (*models.UserWorkWeek, error) {
	var week models.UserWorkWeek
	if err := r.db.Where("user_id = ?", userID).First(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}

// SaveWorkWeek inserts or replaces the work week of week.UserID
func (r *GormCalendarRepository) SaveWorkWeek(week *models.UserWorkWeek) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(week).Error
}

func (r *GormCalendarRepository) AddAvailability(a *models.UserAvailability) error {
	return r.db.Create(a).Error
}

func (r *GormCalendarRepository) ListAvailability(userID uint64) ([]models.UserAvailability, error) {
	var frames []models.UserAvailability
	err := r.db.Where("user_id = ?", userID).Order("start").Order("id").Find(&frames).Error
	return frames, err
}

func (r *GormCalendarRepository) DeleteAvailability(userID, id uint64) error {
	return deleteOwned(r.db, &models.UserAvailability{}, userID, id)
}

func (r *GormCalendarRepository) AddUserLocation(l *models.UserLocation) error {
	return r.db.Create(l).Error
}

func (r *GormCalendarRepository) ListUserLocations(userID uint64) ([]models.UserLocation, error) {
	var frames []models.UserLocation
	err := r.db.Where("user_id = ?", userID).Order("start").Order("id").Find(&frames).Error
	return frames, err
}

func (r *GormCalendarRepository) DeleteUserLocation(userID, id uint64) error {
	return deleteOwned(r.db, &models.UserLocation{}, userID, id)
}

func (r *GormCalendarRepository) AddOffDay(o *models.OffDay) error {
	return r.db.Create(o).Error
}

func (r *GormCalendarRepository) ListOffDays(userID uint64) ([]models.OffDay, error) {
	var offDays []models.OffDay
	err := r.db.Where("user_id = ?", userID).Order("first_day").Order("id").Find(&offDays).Error
	return offDays, err
}

func (r *GormCalendarRepository) DeleteOffDay(userID, id uint64) error {
	return deleteOwned(r.db, &models.OffDay{}, userID, id)
}

// ImportLocations upserts every location and replaces its holiday list
func (r *GormCalendarRepository) ImportLocations(locations []models.Location) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, loc := range locations {
			holidays := loc.Holidays
			loc.Holidays = nil

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name"}),
			}).Create(&loc).Error; err != nil {
				return err
			}

			if err := tx.Where("location_code = ?", loc.Code).Delete(&models.Holiday{}).Error; err != nil {
				return err
			}
			if len(holidays) == 0 {
				continue
			}
			for i := range holidays {
				holidays[i].ID = 0
				holidays[i].LocationCode = loc.Code
			}
			if err := tx.Create(&holidays).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormCalendarRepository) ListLocations() ([]models.Location, error) {
	var locations []models.Location
	err := r.db.Order("code").Find(&locations).Error
	return locations, err
}

// FindLocation finds a location with its holidays
func (r *GormCalendarRepository) FindLocation(code string) (*models.Location, error) {
	var location models.Location
	if err := r.db.Preload("Holidays", func(db *gorm.DB) *gorm.DB {
		return db.Order("date")
	}).Where("code = ?", code).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *GormCalendarRepository) AddHoliday(h *models.Holiday) error {
	return r.db.Create(h).Error
}

func (r *GormCalendarRepository) DeleteHoliday(code string, id uint64) error {
	result := r.db.Where("location_code = ?", code).Delete(&models.Holiday{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUserIDsByLocation returns the users that were ever located at one of codes
func (r *GormCalendarRepository) ListUserIDsByLocation(codes []string) ([]uint64, error) {
	var ids []uint64
	if len(codes) == 0 {
		return ids, nil
	}
	err := r.db.Model(&models.UserLocation{}).
		Where("location_code IN ?", codes).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// deleteOwned deletes row id of model only when it belongs to userID.
func deleteOwned(db *gorm.DB, model interface{}, userID, id uint64) error {
	result := db.Where("user_id = ?", userID).Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
