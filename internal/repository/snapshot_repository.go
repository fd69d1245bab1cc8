package repository

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// Snapshot is everything a scheduling or burndown pass of one sprint reads.
type Snapshot struct {
	Sprint    models.Sprint
	Tasks     []models.Task
	Worklogs  []models.Worklog
	Calendars map[uint64]calendar.Records
}

// UserIDs returns the users whose calendars were loaded, in ascending order.
func (s *Snapshot) UserIDs() []uint64 {
	ids := make([]uint64, 0, len(s.Calendars))
	for id := range s.Calendars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GormSnapshotRepository is a GORM implementation of SnapshotRepository
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// LoadSprintSnapshot reads the sprint, its tasks, worklogs and the calendars
// of its owner and assignees inside one transaction.
func (r *GormSnapshotRepository) LoadSprintSnapshot(ctx context.Context, sprintID uint64) (*Snapshot, error) {
	snap := &Snapshot{Calendars: make(map[uint64]calendar.Records)}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&snap.Sprint, sprintID).Error; err != nil {
			return err
		}

		if err := tx.Preload("Predecessors").
			Where("sprint_id = ?", sprintID).
			Order("id").
			Find(&snap.Tasks).Error; err != nil {
			return err
		}

		if err := tx.Where("sprint_id = ?", sprintID).
			Order("logged_at").Order("id").
			Find(&snap.Worklogs).Error; err != nil {
			return err
		}

		users := map[uint64]struct{}{}
		if snap.Sprint.UserID != nil {
			users[*snap.Sprint.UserID] = struct{}{}
		}
		for _, t := range snap.Tasks {
			if t.AssigneeID != nil {
				users[*t.AssigneeID] = struct{}{}
			}
		}

		for userID := range users {
			rec, err := loadRecords(tx, userID)
			if err != nil {
				return err
			}
			snap.Calendars[userID] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func loadRecords(tx *gorm.DB, userID uint64) (calendar.Records, error) {
	var rec calendar.Records

	var week models.UserWorkWeek
	err := tx.Where("user_id = ?", userID).First(&week).Error
	switch {
	case err == nil:
		rec.WorkWeek = &week
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return rec, err
	}

	if err := tx.Where("user_id = ?", userID).Order("start").Find(&rec.Availability).Error; err != nil {
		return rec, err
	}
	if err := tx.Where("user_id = ?", userID).Order("start").Find(&rec.Locations).Error; err != nil {
		return rec, err
	}
	if err := tx.Where("user_id = ?", userID).Order("first_day").Find(&rec.OffDays).Error; err != nil {
		return rec, err
	}

	if len(rec.Locations) == 0 {
		return rec, nil
	}
	codes := make([]string, 0, len(rec.Locations))
	for _, l := range rec.Locations {
		codes = append(codes, l.LocationCode)
	}
	if err := tx.Where("location_code IN ?", codes).Order("date").Find(&rec.Holidays).Error; err != nil {
		return rec, err
	}
	return rec, nil
}
