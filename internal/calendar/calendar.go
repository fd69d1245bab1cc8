// Package calendar answers which days a user works and maps working time onto
// calendar dates.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// DefaultHoursPerDay is the capacity of a full working day.
	DefaultHoursPerDay = 8 * time.Hour
	// DefaultHorizonDays bounds every forward search for a working day.
	DefaultHorizonDays = 1830
)

var (
	// ErrNoWorkingDays is a configuration error: the calendar can never yield a working day.
	ErrNoWorkingDays = errors.New("calendar: no working days configured")
	// ErrCalendarNotFound is returned by providers that do not know a user.
	ErrCalendarNotFound = errors.New("calendar: calendar not found")
)

// UnschedulableTaskError reports that a user has no working day within the
// search horizon. Cause is ErrNoWorkingDays when the availability frames make
// every day from From on unavailable.
type UnschedulableTaskError struct {
	UserID      uint64
	From        time.Time
	HorizonDays int
	Cause       error
}

func (e *UnschedulableTaskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("calendar: user %d is unavailable on every day from %s on: %v",
			e.UserID, e.From.Format(time.DateOnly), e.Cause)
	}
	return fmt.Sprintf("calendar: user %d has no working day within %d days after %s",
		e.UserID, e.HorizonDays, e.From.Format(time.DateOnly))
}

func (e *UnschedulableTaskError) Unwrap() error { return e.Cause }

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocationFrame applies the holidays of Code from From on.
type LocationFrame struct {
	From time.Time
	Code string
}

// Range is an inclusive span of days.
type Range struct {
	First time.Time
	Last  time.Time
}

func (r Range) contains(d time.Time) bool {
	return !d.Before(r.First) && !d.After(r.Last)
}

// AvailabilityFrame sets the fraction of a full day a user works from From
// until Until (inclusive, nil means open-ended).
type AvailabilityFrame struct {
	From     time.Time
	Until    *time.Time
	Fraction float64
}

// Options configure a Calendar. Zero values fall back to a Monday to Friday
// week with DefaultHoursPerDay and full availability.
type Options struct {
	WorkWeek     []time.Weekday
	HoursPerDay  time.Duration
	HorizonDays  int
	Locations    []LocationFrame
	Holidays     map[string][]time.Time
	OffDays      []Range
	Availability []AvailabilityFrame
}

// Calendar is an immutable working-time calendar of one user.
type Calendar struct {
	userID       uint64
	workdays     [7]bool
	hoursPerDay  time.Duration
	horizon      int
	locations    []LocationFrame
	holidays     map[string]map[time.Time]struct{}
	offDays      []Range
	availability []AvailabilityFrame
	// unavailableFrom is the first day after which no frame grants any time
	unavailableFrom *time.Time
}

// New builds a calendar for userID.
func New(userID uint64, opts Options) *Calendar {
	c := &Calendar{
		userID:      userID,
		hoursPerDay: opts.HoursPerDay,
		horizon:     opts.HorizonDays,
		holidays:    make(map[string]map[time.Time]struct{}, len(opts.Holidays)),
	}
	if c.hoursPerDay == 0 {
		c.hoursPerDay = DefaultHoursPerDay
	}
	if c.horizon <= 0 {
		c.horizon = DefaultHorizonDays
	}

	week := opts.WorkWeek
	if week == nil {
		week = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	for _, wd := range week {
		c.workdays[wd] = true
	}

	for _, loc := range opts.Locations {
		c.locations = append(c.locations, LocationFrame{From: Day(loc.From), Code: loc.Code})
	}
	sort.SliceStable(c.locations, func(i, j int) bool {
		return c.locations[i].From.Before(c.locations[j].From)
	})

	for code, days := range opts.Holidays {
		set := make(map[time.Time]struct{}, len(days))
		for _, d := range days {
			set[Day(d)] = struct{}{}
		}
		c.holidays[code] = set
	}

	for _, r := range opts.OffDays {
		c.offDays = append(c.offDays, Range{First: Day(r.First), Last: Day(r.Last)})
	}

	for _, a := range opts.Availability {
		frame := AvailabilityFrame{From: Day(a.From), Fraction: a.Fraction}
		if a.Until != nil {
			until := Day(*a.Until)
			frame.Until = &until
		}
		c.availability = append(c.availability, frame)
	}
	sort.SliceStable(c.availability, func(i, j int) bool {
		return c.availability[i].From.Before(c.availability[j].From)
	})
	c.unavailableFrom = permanentGap(c.availability)

	return c
}

// permanentGap returns the day from which the frames, sorted by From, leave
// the user unavailable for good, or nil when some frame grants time forever.
func permanentGap(frames []AvailabilityFrame) *time.Time {
	if len(frames) == 0 {
		return nil
	}

	open := -1
	for i, f := range frames {
		if f.Until == nil {
			open = i
		}
	}
	if open >= 0 && frames[open].Fraction > 0 {
		return nil
	}

	var gap time.Time
	if open >= 0 {
		gap = frames[open].From
	}
	for i, f := range frames {
		// frames ahead of the open one are overridden by it from its From on
		if f.Until == nil || i < open {
			continue
		}
		if next := f.Until.AddDate(0, 0, 1); next.After(gap) {
			gap = next
		}
	}
	return &gap
}

// UserID returns the owner of the calendar.
func (c *Calendar) UserID() uint64 { return c.userID }

// HoursPerDay returns the capacity of a full working day.
func (c *Calendar) HoursPerDay() time.Duration { return c.hoursPerDay }

// HorizonDays returns how far forward searches look.
func (c *Calendar) HorizonDays() int { return c.horizon }

// Validate reports ErrNoWorkingDays when the calendar can never produce a
// working day regardless of date. Availability that drops to zero for good is
// date dependent and surfaces from the searches as an UnschedulableTaskError
// wrapping ErrNoWorkingDays.
func (c *Calendar) Validate() error {
	if c.hoursPerDay <= 0 {
		return fmt.Errorf("%w: user %d has non-positive hours per day", ErrNoWorkingDays, c.userID)
	}
	for _, on := range c.workdays {
		if on {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d has an empty work week", ErrNoWorkingDays, c.userID)
}

// Availability returns the fraction of a full day the user works on d.
// Without frames a user is fully available; with frames, days not covered by
// any frame are unavailable.
func (c *Calendar) Availability(d time.Time) float64 {
	if len(c.availability) == 0 {
		return 1
	}
	d = Day(d)
	fraction := 0.0
	// frames are sorted by From; the latest one covering d wins
	for _, frame := range c.availability {
		if frame.From.After(d) {
			break
		}
		if frame.Until != nil && d.After(*frame.Until) {
			continue
		}
		fraction = frame.Fraction
	}
	return fraction
}

// unavailable reports whether d lies in the permanent gap and returns the
// error describing it.
func (c *Calendar) unavailable(d time.Time) (bool, error) {
	if c.unavailableFrom == nil || d.Before(*c.unavailableFrom) {
		return false, nil
	}
	return true, &UnschedulableTaskError{
		UserID:      c.userID,
		From:        *c.unavailableFrom,
		HorizonDays: c.horizon,
		Cause:       ErrNoWorkingDays,
	}
}

// IsHoliday reports whether d is a holiday at the user's location on d.
func (c *Calendar) IsHoliday(d time.Time) bool {
	d = Day(d)
	code := ""
	for _, loc := range c.locations {
		if loc.From.After(d) {
			break
		}
		code = loc.Code
	}
	if code == "" {
		return false
	}
	_, ok := c.holidays[code][d]
	return ok
}

// IsOffDay reports whether d falls into one of the user's off-day ranges.
func (c *Calendar) IsOffDay(d time.Time) bool {
	d = Day(d)
	for _, r := range c.offDays {
		if r.contains(d) {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the user works on d.
func (c *Calendar) IsWorkingDay(d time.Time) bool {
	d = Day(d)
	if !c.workdays[d.Weekday()] {
		return false
	}
	if c.IsHoliday(d) || c.IsOffDay(d) {
		return false
	}
	return c.Availability(d) > 0
}

// Capacity returns the working time available on d.
func (c *Calendar) Capacity(d time.Time) time.Duration {
	if !c.IsWorkingDay(d) {
		return 0
	}
	return time.Duration(float64(c.hoursPerDay) * c.Availability(d))
}

// NextWorkingDay returns the first working day on or after d.
func (c *Calendar) NextWorkingDay(d time.Time) (time.Time, error) {
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	d = Day(d)
	for i := 0; i <= c.horizon; i++ {
		day := d.AddDate(0, 0, i)
		if gap, err := c.unavailable(day); gap {
			return time.Time{}, err
		}
		if c.IsWorkingDay(day) {
			return day, nil
		}
	}
	return time.Time{}, &UnschedulableTaskError{UserID: c.userID, From: d, HorizonDays: c.horizon}
}

// AddWorkingDays returns the n-th working day after d. n == 0 returns d.
func (c *Calendar) AddWorkingDays(d time.Time, n int) (time.Time, error) {
	d = Day(d)
	if n <= 0 {
		return d, nil
	}
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	found := 0
	for i := 1; i <= c.horizon; i++ {
		day := d.AddDate(0, 0, i)
		if gap, err := c.unavailable(day); gap {
			return time.Time{}, err
		}
		if !c.IsWorkingDay(day) {
			continue
		}
		found++
		if found == n {
			return day, nil
		}
	}
	return time.Time{}, &UnschedulableTaskError{UserID: c.userID, From: d, HorizonDays: c.horizon}
}

// EndDate maps effort onto working days starting at the first working day on
// or after start and returns the last day that receives work. Zero effort
// ends on the start day itself.
func (c *Calendar) EndDate(start time.Time, effort time.Duration) (time.Time, error) {
	first, err := c.NextWorkingDay(start)
	if err != nil {
		return time.Time{}, err
	}
	if effort <= 0 {
		return first, nil
	}

	left := effort
	for i := 0; i <= c.horizon; i++ {
		day := first.AddDate(0, 0, i)
		if gap, err := c.unavailable(day); gap {
			return time.Time{}, err
		}
		capacity := c.Capacity(day)
		if capacity <= 0 {
			continue
		}
		left -= capacity
		if left <= 0 {
			return day, nil
		}
	}
	return time.Time{}, &UnschedulableTaskError{UserID: c.userID, From: first, HorizonDays: c.horizon}
}

// WorkingDaysBetween counts the working days in the inclusive range [from, to].
func (c *Calendar) WorkingDaysBetween(from, to time.Time) int {
	from, to = Day(from), Day(to)
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			count++
		}
	}
	return count
}
