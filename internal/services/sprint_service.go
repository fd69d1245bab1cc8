package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/burndown"
	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/report"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
	"github.com/yukikurage/sprint-planner-api/internal/scheduler"
)

var (
	ErrSprintNotFound       = errors.New("sprint not found")
	ErrSprintNameRequired   = errors.New("sprint name is required")
	ErrInvalidSprintStatus  = errors.New("invalid sprint status")
	ErrInvalidReleaseBuffer = errors.New("release buffer must not be negative")
	ErrSprintOwnerNotMember = errors.New("sprint owner must be a member of the product")
	ErrSprintNotScheduled   = errors.New("sprint has no schedule yet")
)

// Rescheduler recomputes sprint schedules after the data they depend on changed.
type Rescheduler interface {
	RescheduleBestEffort(ctx context.Context, sprintID uint64)
}

// SprintService handles sprints and their computed schedule.
type SprintService struct {
	sprintRepo    repository.SprintRepository
	productRepo   repository.ProductRepository
	snapshotRepo  repository.SnapshotRepository
	userRepo      repository.UserRepository
	defaults      calendar.Defaults
	releaseBuffer int
	now           func() time.Time
}

// NewSprintService creates a new SprintService. defaults fill in the calendar
// of users without a work week and releaseBuffer is used for new sprints.
func NewSprintService(
	sprintRepo repository.SprintRepository,
	productRepo repository.ProductRepository,
	snapshotRepo repository.SnapshotRepository,
	userRepo repository.UserRepository,
	defaults calendar.Defaults,
	releaseBuffer int,
) *SprintService {
	return &SprintService{
		sprintRepo:    sprintRepo,
		productRepo:   productRepo,
		snapshotRepo:  snapshotRepo,
		userRepo:      userRepo,
		defaults:      defaults,
		releaseBuffer: releaseBuffer,
		now:           time.Now,
	}
}

// SetClock replaces the source of "today" used as the scheduling anchor.
func (s *SprintService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateSprintInput represents input for creating a sprint
type CreateSprintInput struct {
	ProductID         uint64
	FeatureID         uint64
	OwnerID           *uint64
	Name              string
	PlannedStart      *time.Time
	ReleaseBufferDays *int
}

// UpdateSprintInput represents input for updating a sprint
type UpdateSprintInput struct {
	Name              *string
	Status            *models.SprintStatus
	OwnerID           *uint64
	ClearOwner        bool
	PlannedStart      *time.Time
	ClearPlannedStart bool
	ReleaseBufferDays *int
}

// ListSprintsInput represents filters for listing sprints
type ListSprintsInput struct {
	ProductID uint64
	FeatureID *uint64
	Status    *models.SprintStatus
}

func (s *SprintService) CreateSprint(ctx context.Context, input CreateSprintInput) (*models.Sprint, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSprintNameRequired
	}

	if _, err := s.productRepo.FindFeature(input.ProductID, input.FeatureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("failed to find feature: %w", err)
	}

	buffer := s.releaseBuffer
	if input.ReleaseBufferDays != nil {
		buffer = *input.ReleaseBufferDays
	}
	if buffer < 0 {
		return nil, ErrInvalidReleaseBuffer
	}

	if input.OwnerID != nil {
		if err := s.ensureMember(input.ProductID, *input.OwnerID); err != nil {
			return nil, err
		}
	}

	sprint := &models.Sprint{
		ProductID:         input.ProductID,
		FeatureID:         input.FeatureID,
		UserID:            input.OwnerID,
		Name:              name,
		Status:            models.SprintStatusPlanned,
		PlannedStart:      dayPtr(input.PlannedStart),
		ReleaseBufferDays: buffer,
	}

	if err := s.sprintRepo.Create(sprint); err != nil {
		return nil, fmt.Errorf("failed to create sprint: %w", err)
	}

	return sprint, nil
}

func (s *SprintService) ListSprints(input ListSprintsInput) ([]models.Sprint, error) {
	sprints, err := s.sprintRepo.List(repository.SprintFilter{
		ProductID: input.ProductID,
		FeatureID: input.FeatureID,
		Status:    input.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	return sprints, nil
}

// GetSprint returns a sprint by ID
func (s *SprintService) GetSprint(sprintID uint64) (*models.Sprint, error) {
	sprint, err := s.sprintRepo.FindByID(sprintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSprintNotFound
		}
		return nil, fmt.Errorf("failed to find sprint: %w", err)
	}
	return sprint, nil
}

// UpdateSprint changes the user-editable fields of a sprint and recomputes
// its schedule.
func (s *SprintService) UpdateSprint(ctx context.Context, sprintID uint64, input UpdateSprintInput) (*models.Sprint, error) {
	sprint, err := s.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrSprintNameRequired
		}
		sprint.Name = name
	}
	if input.Status != nil {
		if !validSprintStatus(*input.Status) {
			return nil, ErrInvalidSprintStatus
		}
		sprint.Status = *input.Status
	}
	if input.ClearOwner {
		sprint.UserID = nil
	} else if input.OwnerID != nil {
		if err := s.ensureMember(sprint.ProductID, *input.OwnerID); err != nil {
			return nil, err
		}
		sprint.UserID = input.OwnerID
	}
	if input.ClearPlannedStart {
		sprint.PlannedStart = nil
	} else if input.PlannedStart != nil {
		sprint.PlannedStart = dayPtr(input.PlannedStart)
	}
	if input.ReleaseBufferDays != nil {
		if *input.ReleaseBufferDays < 0 {
			return nil, ErrInvalidReleaseBuffer
		}
		sprint.ReleaseBufferDays = *input.ReleaseBufferDays
	}

	if err := s.sprintRepo.Update(sprint); err != nil {
		return nil, fmt.Errorf("failed to update sprint: %w", err)
	}

	s.RescheduleBestEffort(ctx, sprint.ID)
	return s.GetSprint(sprint.ID)
}

// DeleteSprint removes a sprint with its tasks and worklogs.
func (s *SprintService) DeleteSprint(sprintID uint64) error {
	if _, err := s.GetSprint(sprintID); err != nil {
		return err
	}
	if err := s.sprintRepo.Delete(sprintID); err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}
	return nil
}

// Reschedule computes the schedule of a sprint from a fresh snapshot and
// persists task dates, sprint dates and effort totals.
func (s *SprintService) Reschedule(ctx context.Context, sprintID uint64) (*scheduler.Result, error) {
	snap, result, err := s.schedule(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	result.Apply(&snap.Sprint, snap.Tasks)
	if err := s.sprintRepo.SaveSchedule(ctx, &snap.Sprint, snap.Tasks); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	logger.Get(ctx).Debug().
		Uint64("sprint_id", sprintID).
		Int("tasks", len(result.Tasks)).
		Msg("sprint rescheduled")
	return result, nil
}

// RescheduleBestEffort runs Reschedule and logs instead of returning errors.
// Mutations that trigger it have already been committed.
func (s *SprintService) RescheduleBestEffort(ctx context.Context, sprintID uint64) {
	if _, err := s.Reschedule(ctx, sprintID); err != nil {
		logger.Get(ctx).Warn().
			Err(err).
			Uint64("sprint_id", sprintID).
			Msg("failed to reschedule sprint")
	}
}

// Gantt computes the current schedule of a sprint without persisting it.
func (s *SprintService) Gantt(ctx context.Context, sprintID uint64) (*scheduler.Result, error) {
	_, result, err := s.schedule(ctx, sprintID)
	return result, err
}

// Burndown builds the burndown series of a sprint. A nil from or to falls
// back to the scheduled start or end of the sprint.
func (s *SprintService) Burndown(ctx context.Context, sprintID uint64, from, to *time.Time) (*burndown.Series, error) {
	snap, err := s.snapshot(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	return s.burndown(snap, from, to)
}

// Export renders the gantt and burndown of a sprint as an XLSX workbook.
// The burndown sheet is omitted for sprints without any scheduled day.
func (s *SprintService) Export(ctx context.Context, sprintID uint64) (*bytes.Buffer, error) {
	snap, result, err := s.schedule(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	var series *burndown.Series
	if result.Start != nil {
		series, err = s.burndown(snap, result.Start, result.End)
		if err != nil {
			return nil, err
		}
	}

	names, err := s.userRepo.Usernames(snap.UserIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignees: %w", err)
	}

	buf, err := report.NewWorkbook(names).Generate(snap.Sprint, result, series)
	if err != nil {
		return nil, fmt.Errorf("failed to render sprint report: %w", err)
	}
	return buf, nil
}

func (s *SprintService) burndown(snap *repository.Snapshot, from, to *time.Time) (*burndown.Series, error) {
	if from == nil {
		from = snap.Sprint.Start
	}
	if to == nil {
		to = snap.Sprint.End
	}
	if from == nil || to == nil {
		return nil, ErrSprintNotScheduled
	}

	provider := s.provider(snap)
	cal, err := provider.CalendarFor(ownerOf(snap.Sprint))
	if err != nil {
		return nil, err
	}
	return burndown.Build(snap.Tasks, snap.Worklogs, *from, *to, cal)
}

func (s *SprintService) schedule(ctx context.Context, sprintID uint64) (*repository.Snapshot, *scheduler.Result, error) {
	snap, err := s.snapshot(ctx, sprintID)
	if err != nil {
		return nil, nil, err
	}

	result, err := scheduler.New(s.provider(snap)).Schedule(snap.Sprint, snap.Tasks, s.now())
	if err != nil {
		return nil, nil, err
	}
	return snap, result, nil
}

func (s *SprintService) snapshot(ctx context.Context, sprintID uint64) (*repository.Snapshot, error) {
	snap, err := s.snapshotRepo.LoadSprintSnapshot(ctx, sprintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSprintNotFound
		}
		return nil, fmt.Errorf("failed to load sprint snapshot: %w", err)
	}
	return snap, nil
}

// provider builds the calendars of every user in the snapshot.
func (s *SprintService) provider(snap *repository.Snapshot) *calendar.StaticProvider {
	calendars := make([]*calendar.Calendar, 0, len(snap.Calendars))
	for _, id := range snap.UserIDs() {
		calendars = append(calendars, calendar.FromRecords(id, snap.Calendars[id], s.defaults))
	}
	fallback := calendar.New(0, calendar.Options{
		HoursPerDay: s.defaults.HoursPerDay,
		HorizonDays: s.defaults.HorizonDays,
	})
	return calendar.NewStaticProvider(fallback, calendars...)
}

func (s *SprintService) ensureMember(productID, userID uint64) error {
	if _, err := s.productRepo.FindMember(productID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSprintOwnerNotMember
		}
		return fmt.Errorf("failed to verify product membership: %w", err)
	}
	return nil
}

func ownerOf(sprint models.Sprint) uint64 {
	if sprint.UserID == nil {
		return 0
	}
	return *sprint.UserID
}

func validSprintStatus(status models.SprintStatus) bool {
	switch status {
	case models.SprintStatusPlanned, models.SprintStatusStarted, models.SprintStatusClosed:
		return true
	}
	return false
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := calendar.Day(*t)
	return &d
}
