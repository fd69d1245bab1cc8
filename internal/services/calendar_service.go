package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
)

var (
	ErrEmptyWorkWeek         = errors.New("work week needs at least one working day")
	ErrInvalidHoursPerDay    = errors.New("hours per day must be between 0 and 24")
	ErrInvalidFraction       = errors.New("availability fraction must be between 0 and 1")
	ErrInvalidDateRange      = errors.New("end date is before start date")
	ErrInvalidOffDayKind     = errors.New("invalid off-day kind")
	ErrLocationNotFound      = errors.New("location not found")
	ErrLocationCodeRequired  = errors.New("location code is required")
	ErrCalendarEntryNotFound = errors.New("calendar entry not found")
	ErrHolidayNotFound       = errors.New("holiday not found")
)

// CalendarService manages the working-time calendars of users and the
// holiday calendars of locations. Every change reschedules the sprints that
// depend on the affected calendars.
type CalendarService struct {
	calendarRepo repository.CalendarRepository
	sprintRepo   repository.SprintRepository
	rescheduler  Rescheduler
	hoursPerDay  time.Duration
}

// NewCalendarService creates a new CalendarService. hoursPerDay is reported
// for users that never configured a work week.
func NewCalendarService(calendarRepo repository.CalendarRepository, sprintRepo repository.SprintRepository, rescheduler Rescheduler, hoursPerDay time.Duration) *CalendarService {
	if hoursPerDay <= 0 {
		hoursPerDay = calendar.DefaultHoursPerDay
	}
	return &CalendarService{
		calendarRepo: calendarRepo,
		sprintRepo:   sprintRepo,
		rescheduler:  rescheduler,
		hoursPerDay:  hoursPerDay,
	}
}

// GetWorkWeek returns the work week of a user or the Monday to Friday default.
func (s *CalendarService) GetWorkWeek(userID uint64) (*models.UserWorkWeek, error) {
	week, err := s.calendarRepo.FindWorkWeek(userID)
	if err == nil {
		return week, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find work week: %w", err)
	}
	defaultWeek := models.NewUserWorkWeek(userID, models.DefaultWorkDays, s.hoursPerDay)
	return &defaultWeek, nil
}

// UpdateWorkWeekInput represents a new weekly working pattern
type UpdateWorkWeekInput struct {
	UserID      uint64
	Days        []time.Weekday
	HoursPerDay time.Duration
}

func (s *CalendarService) UpdateWorkWeek(ctx context.Context, input UpdateWorkWeekInput) (*models.UserWorkWeek, error) {
	if err := validateWorkWeek(input.Days, input.HoursPerDay); err != nil {
		return nil, err
	}

	week := models.NewUserWorkWeek(input.UserID, input.Days, input.HoursPerDay)
	if err := s.calendarRepo.SaveWorkWeek(&week); err != nil {
		return nil, fmt.Errorf("failed to save work week: %w", err)
	}

	s.RescheduleForUser(ctx, input.UserID)
	return &week, nil
}

func validateWorkWeek(days []time.Weekday, hoursPerDay time.Duration) error {
	if len(days) == 0 {
		return ErrEmptyWorkWeek
	}
	if hoursPerDay <= 0 || hoursPerDay > 24*time.Hour {
		return ErrInvalidHoursPerDay
	}
	return nil
}

// AddAvailabilityInput represents a time frame of partial availability
type AddAvailabilityInput struct {
	UserID   uint64
	Start    time.Time
	End      *time.Time
	Fraction float64
}

func (s *CalendarService) AddAvailability(ctx context.Context, input AddAvailabilityInput) (*models.UserAvailability, error) {
	if input.Fraction < 0 || input.Fraction > 1 {
		return nil, ErrInvalidFraction
	}
	start := calendar.Day(input.Start)
	end := dayPtr(input.End)
	if end != nil && end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	availability := &models.UserAvailability{
		UserID:   input.UserID,
		Start:    start,
		End:      end,
		Fraction: input.Fraction,
	}
	if err := s.calendarRepo.AddAvailability(availability); err != nil {
		return nil, fmt.Errorf("failed to add availability: %w", err)
	}

	s.RescheduleForUser(ctx, input.UserID)
	return availability, nil
}

func (s *CalendarService) ListAvailability(userID uint64) ([]models.UserAvailability, error) {
	frames, err := s.calendarRepo.ListAvailability(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return frames, nil
}

func (s *CalendarService) DeleteAvailability(ctx context.Context, userID, id uint64) error {
	return s.deleteEntry(ctx, userID, s.calendarRepo.DeleteAvailability(userID, id))
}

// AddUserLocationInput says which holiday calendar applies from Start on
type AddUserLocationInput struct {
	UserID       uint64
	Start        time.Time
	LocationCode string
}

func (s *CalendarService) AddUserLocation(ctx context.Context, input AddUserLocationInput) (*models.UserLocation, error) {
	code := strings.TrimSpace(input.LocationCode)
	if code == "" {
		return nil, ErrLocationCodeRequired
	}
	if _, err := s.GetLocation(code); err != nil {
		return nil, err
	}

	location := &models.UserLocation{
		UserID:       input.UserID,
		Start:        calendar.Day(input.Start),
		LocationCode: code,
	}
	if err := s.calendarRepo.AddUserLocation(location); err != nil {
		return nil, fmt.Errorf("failed to add user location: %w", err)
	}

	s.RescheduleForUser(ctx, input.UserID)
	return location, nil
}

func (s *CalendarService) ListUserLocations(userID uint64) ([]models.UserLocation, error) {
	locations, err := s.calendarRepo.ListUserLocations(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user locations: %w", err)
	}
	return locations, nil
}

func (s *CalendarService) DeleteUserLocation(ctx context.Context, userID, id uint64) error {
	return s.deleteEntry(ctx, userID, s.calendarRepo.DeleteUserLocation(userID, id))
}

// AddOffDayInput represents an inclusive range of days off
type AddOffDayInput struct {
	UserID   uint64
	FirstDay time.Time
	LastDay  time.Time
	Kind     models.OffDayKind
}

func (s *CalendarService) AddOffDay(ctx context.Context, input AddOffDayInput) (*models.OffDay, error) {
	if input.Kind == "" {
		input.Kind = models.OffDayVacation
	}
	switch input.Kind {
	case models.OffDayVacation, models.OffDaySick, models.OffDayTrip:
	default:
		return nil, ErrInvalidOffDayKind
	}

	first, last := calendar.Day(input.FirstDay), calendar.Day(input.LastDay)
	if last.Before(first) {
		return nil, ErrInvalidDateRange
	}

	off := &models.OffDay{UserID: input.UserID, FirstDay: first, LastDay: last, Kind: input.Kind}
	if err := s.calendarRepo.AddOffDay(off); err != nil {
		return nil, fmt.Errorf("failed to add off days: %w", err)
	}

	s.RescheduleForUser(ctx, input.UserID)
	return off, nil
}

func (s *CalendarService) ListOffDays(userID uint64) ([]models.OffDay, error) {
	days, err := s.calendarRepo.ListOffDays(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list off days: %w", err)
	}
	return days, nil
}

func (s *CalendarService) DeleteOffDay(ctx context.Context, userID, id uint64) error {
	return s.deleteEntry(ctx, userID, s.calendarRepo.DeleteOffDay(userID, id))
}

func (s *CalendarService) ListLocations() ([]models.Location, error) {
	locations, err := s.calendarRepo.ListLocations()
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// GetLocation returns a location with its holidays
func (s *CalendarService) GetLocation(code string) (*models.Location, error) {
	location, err := s.calendarRepo.FindLocation(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return location, nil
}

// ImportHolidays replaces the holidays of every location in a TOML holiday
// file and returns the imported locations.
func (s *CalendarService) ImportHolidays(ctx context.Context, data string) ([]models.Location, error) {
	locations, err := calendar.ParseHolidays(data)
	if err != nil {
		return nil, err
	}
	if err := s.ImportLocations(ctx, locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// ImportLocations stores parsed holiday calendars.
func (s *CalendarService) ImportLocations(ctx context.Context, locations []models.Location) error {
	if err := s.calendarRepo.ImportLocations(locations); err != nil {
		return fmt.Errorf("failed to import holidays: %w", err)
	}

	codes := make([]string, len(locations))
	for i, l := range locations {
		codes[i] = l.Code
	}
	s.rescheduleLocations(ctx, codes...)
	return nil
}

// AddHolidayInput represents a single public holiday of a location
type AddHolidayInput struct {
	LocationCode string
	Date         time.Time
	Name         string
}

func (s *CalendarService) AddHoliday(ctx context.Context, input AddHolidayInput) (*models.Holiday, error) {
	if _, err := s.GetLocation(input.LocationCode); err != nil {
		return nil, err
	}

	holiday := &models.Holiday{
		LocationCode: input.LocationCode,
		Date:         calendar.Day(input.Date),
		Name:         strings.TrimSpace(input.Name),
	}
	if err := s.calendarRepo.AddHoliday(holiday); err != nil {
		return nil, fmt.Errorf("failed to add holiday: %w", err)
	}

	s.rescheduleLocations(ctx, input.LocationCode)
	return holiday, nil
}

func (s *CalendarService) DeleteHoliday(ctx context.Context, code string, id uint64) error {
	if err := s.calendarRepo.DeleteHoliday(code, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		return fmt.Errorf("failed to delete holiday: %w", err)
	}

	s.rescheduleLocations(ctx, code)
	return nil
}

// RescheduleForUser recomputes every sprint whose schedule reads the
// calendar of userID.
func (s *CalendarService) RescheduleForUser(ctx context.Context, userID uint64) {
	ids, err := s.sprintRepo.ListIDsForUser(userID)
	if err != nil {
		logger.Get(ctx).Warn().Err(err).Uint64("user_id", userID).Msg("failed to list sprints to reschedule")
		return
	}
	for _, id := range ids {
		s.rescheduler.RescheduleBestEffort(ctx, id)
	}
}

func (s *CalendarService) rescheduleLocations(ctx context.Context, codes ...string) {
	users, err := s.calendarRepo.ListUserIDsByLocation(codes)
	if err != nil {
		logger.Get(ctx).Warn().Err(err).Strs("locations", codes).Msg("failed to list users to reschedule")
		return
	}

	seen := make(map[uint64]struct{})
	for _, userID := range users {
		ids, err := s.sprintRepo.ListIDsForUser(userID)
		if err != nil {
			logger.Get(ctx).Warn().Err(err).Uint64("user_id", userID).Msg("failed to list sprints to reschedule")
			continue
		}
		for _, id := range ids {
			if _, done := seen[id]; done {
				continue
			}
			seen[id] = struct{}{}
			s.rescheduler.RescheduleBestEffort(ctx, id)
		}
	}
}

func (s *CalendarService) deleteEntry(ctx context.Context, userID uint64, err error) error {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCalendarEntryNotFound
		}
		return fmt.Errorf("failed to delete calendar entry: %w", err)
	}

	s.RescheduleForUser(ctx, userID)
	return nil
}
